package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

const lineItemsSystemPrompt = `You are an expert invoice data extractor. Extract all line items from the invoice.
Each line item should include:
- Description
- Quantity
- Unit Price
- Total Price

Return ONLY a JSON array of objects with these keys. Do not include any explanatory text.`

const lineItemsConfidence = 0.80

// runLineItemsExtraction asks the model for the billed lines. The response
// may be a bare array or an object wrapping a line_items key; anything else
// yields an empty sequence.
func (p *Pipeline) runLineItemsExtraction(ctx context.Context, s *State) error {
	resp, err := p.generate(ctx, lineItemsSystemPrompt, "Extract line items from this invoice:\n\n"+s.RawText)
	if err != nil {
		return eris.Wrap(err, "pipeline: line items extraction failed")
	}

	parsed := ParseValue(resp)
	if parsed == nil {
		s.Fields.LineItems = []model.LineItem{}
		s.Confidence[scoreLineItems] = fallbackConfidence
		zap.L().Warn("pipeline: line items response unparseable, using empty fallback")
		return nil
	}

	var items []model.LineItem
	switch v := parsed.(type) {
	case []any:
		items = LineItemsFromValue(v)
	case map[string]any:
		items = LineItemsFromValue(v[model.KeyLineItems])
	default:
		items = []model.LineItem{}
	}

	s.Fields.LineItems = items
	s.Confidence[scoreLineItems] = lineItemsConfidence
	zap.L().Debug("pipeline: line items extracted", zap.Int("count", len(items)))
	return nil
}
