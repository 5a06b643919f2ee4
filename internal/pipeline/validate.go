package pipeline

import (
	"context"
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

const validationSystemPrompt = `You are an expert invoice data validator. Review the extracted data and:
1. Validate data consistency
2. Fill in missing fields if possible
3. Calculate confidence scores
4. Suggest improvements
5. Ensure line items total matches invoice total

Return ONLY a JSON object with validation results and enhanced data. Do not include any explanatory text.`

// totalTolerance is the allowed rounding slack, in currency units, between
// the declared total and the sum of line items.
const totalTolerance = 0.01

// runValidation reconciles the declared total against the line items,
// auto-correcting on mismatch, then runs a holistic model review pass and
// finalizes the document.
func (p *Pipeline) runValidation(ctx context.Context, s *State) error {
	calculated := calculateLineItemsTotal(s.Fields.LineItems)
	extracted := declaredTotal(&s.Fields)

	difference := math.Abs(calculated - extracted)
	totalsMatch := difference <= totalTolerance
	autoCorrected := !totalsMatch && calculated > 0

	if autoCorrected {
		zap.L().Info("pipeline: total mismatch, auto-correcting",
			zap.Float64("extracted_total", extracted),
			zap.Float64("calculated_total", calculated),
			zap.Float64("difference", difference),
		)
		s.Fields.Set(model.KeyTotalAmount, calculated)
		if s.Fields.SubtotalOrZero() == 0 {
			s.Fields.Set(model.KeySubtotal, calculated)
		}
	}

	if err := p.reviewPass(ctx, s); err != nil {
		return err
	}

	s.Fields.Validation = &model.ValidationReport{
		TotalsMatch:     totalsMatch,
		ExtractedTotal:  extracted,
		CalculatedTotal: calculated,
		Difference:      difference,
		AutoCorrected:   autoCorrected,
	}

	s.Status = model.StatusCompleted
	return nil
}

// reviewPass asks the model to review the accumulated fields, merges any
// enhanced data it returns, and settles the overall confidence score.
func (p *Pipeline) reviewPass(ctx context.Context, s *State) error {
	payload, err := json.MarshalIndent(s.Fields, "", "  ")
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal extracted data")
	}

	resp, err := p.generate(ctx, validationSystemPrompt, "Validate and enhance this extracted invoice data:\n\n"+string(payload))
	if err != nil {
		return eris.Wrap(err, "pipeline: validation failed")
	}

	review := ParseObject(resp)
	if enhanced, ok := review["enhanced_data"].(map[string]any); ok {
		data := NormalizeKeys(enhanced)
		CoerceAmounts(data)
		s.Fields.Merge(data)
	}
	if oc, ok := review["overall_confidence"].(float64); ok {
		s.Confidence[scoreOverall] = clamp01(oc)
	} else {
		s.Confidence[scoreOverall] = Overall(s.Confidence)
	}
	return nil
}

// calculateLineItemsTotal sums the line-item totals; items with no
// resolvable total contribute zero.
func calculateLineItemsTotal(items []model.LineItem) float64 {
	var total float64
	for _, item := range items {
		if item.TotalPrice != nil {
			total += *item.TotalPrice
		}
	}
	return total
}

// declaredTotal reads the declared invoice total, coercing a stray
// currency-formatted string that escaped the financial stage. Missing or
// unparsable values count as zero.
func declaredTotal(f *model.InvoiceFields) float64 {
	if f.TotalAmount != nil {
		return *f.TotalAmount
	}
	if v, ok := f.Extra[model.KeyTotalAmount]; ok && v != nil {
		return ParseAmount(v)
	}
	return 0
}
