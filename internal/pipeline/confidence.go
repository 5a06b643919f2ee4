package pipeline

// Confidence score keys recorded by the stages.
const (
	scoreHeader    = "header_extraction"
	scoreFinancial = "financial_extraction"
	scoreLineItems = "line_items_extraction"
	scoreOverall   = "overall"
)

// fallbackConfidence is the degraded score recorded when a stage had to
// substitute its default payload for unparseable model output.
const fallbackConfidence = 0.5

// Overall computes the unweighted mean of the recorded stage confidences,
// ignoring any previously written overall score. An empty mapping yields 0.5.
func Overall(scores map[string]float64) float64 {
	var sum float64
	var n int
	for key, v := range scores {
		if key == scoreOverall {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0.5
	}
	return clamp01(sum / float64(n))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
