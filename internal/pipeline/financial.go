package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

const financialSystemPrompt = `You are an expert invoice data extractor. Extract the following financial information:
- Subtotal
- Tax Amount
- Total Amount
- Currency

Return ONLY a JSON object with these exact keys. Convert all amounts to float values. Do not include any explanatory text.`

const financialConfidence = 0.90

// runFinancialExtraction asks the model for the monetary fields and coerces
// them to numbers, so downstream reconciliation never sees a currency string.
func (p *Pipeline) runFinancialExtraction(ctx context.Context, s *State) error {
	resp, err := p.generate(ctx, financialSystemPrompt, "Extract financial information from this invoice:\n\n"+s.RawText)
	if err != nil {
		return eris.Wrap(err, "pipeline: financial extraction failed")
	}

	raw := ParseObject(resp)
	if len(raw) == 0 {
		s.Fields.Merge(map[string]any{
			model.KeySubtotal:    0.0,
			model.KeyTaxAmount:   0.0,
			model.KeyTotalAmount: 0.0,
			model.KeyCurrency:    "USD",
		})
		s.Confidence[scoreFinancial] = fallbackConfidence
		zap.L().Warn("pipeline: financial response unparseable, using zero fallback")
		return nil
	}

	data := NormalizeKeys(raw)
	CoerceAmounts(data)
	normalizeCurrency(data)
	s.Fields.Merge(data)
	s.Confidence[scoreFinancial] = financialConfidence
	return nil
}
