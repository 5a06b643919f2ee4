package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

const headerSystemPrompt = `You are an expert invoice data extractor. Extract the following information from the invoice text:
- Invoice Number
- Invoice Date
- Due Date
- Vendor Name
- Vendor Address
- Customer Name
- Customer Address

Return ONLY a JSON object with these exact keys. If a field is not found, use null. Do not include any explanatory text.`

// headerConfidence is the nominal score for a successfully parsed header
// response.
const headerConfidence = 0.85

// runHeaderExtraction asks the model for the seven header fields. Only the
// leading portion of the document goes into the prompt; headers sit at the
// top of an invoice.
func (p *Pipeline) runHeaderExtraction(ctx context.Context, s *State) error {
	excerpt := s.RawText
	if limit := p.cfg.HeaderTextLimit; limit > 0 && len(excerpt) > limit {
		excerpt = excerpt[:limit]
	}

	resp, err := p.generate(ctx, headerSystemPrompt, "Extract header information from this invoice:\n\n"+excerpt)
	if err != nil {
		return eris.Wrap(err, "pipeline: header extraction failed")
	}

	raw := ParseObject(resp)
	if len(raw) == 0 {
		// Unparseable response: record every header field as explicitly
		// not found and degrade confidence instead of failing.
		for _, key := range model.HeaderKeys {
			s.Fields.Set(key, nil)
		}
		s.Confidence[scoreHeader] = fallbackConfidence
		zap.L().Warn("pipeline: header response unparseable, using null fallback")
		return nil
	}

	s.Fields.Merge(NormalizeKeys(raw))
	s.Confidence[scoreHeader] = headerConfidence
	return nil
}
