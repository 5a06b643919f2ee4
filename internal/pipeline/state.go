package pipeline

import (
	"maps"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// State is the mutable working state threaded through the extraction stages.
// One instance per document; stages read and extend it in sequence, so no
// locking is needed.
type State struct {
	// SourceRef identifies the document being processed (a file path for
	// the local extractors).
	SourceRef string

	RawText string

	Fields model.InvoiceFields

	// Confidence maps stage score names to a value in [0,1], plus the
	// reserved "overall" key written by the validation stage.
	Confidence map[string]float64

	// ElapsedTime is set once by the text extraction stage, in seconds.
	ElapsedTime float64

	Status        model.Status
	FailureReason string
}

// NewState creates a fresh processing state for one document.
func NewState(sourceRef string) *State {
	return &State{
		SourceRef:  sourceRef,
		Confidence: make(map[string]float64),
		Status:     model.StatusProcessing,
	}
}

// Fail marks the state failed with a human-readable reason. Terminal states
// never transition back, so a completed state ignores the call.
func (s *State) Fail(reason string) {
	if s.Status == model.StatusCompleted {
		return
	}
	s.Status = model.StatusFailed
	s.FailureReason = reason
}

// Snapshot returns a result decoupled from the live state. Callers hold the
// snapshot after the pipeline returns; the state itself is never shared.
func (s *State) Snapshot() *model.ExtractionResult {
	scores := maps.Clone(s.Confidence)
	if scores == nil {
		scores = make(map[string]float64)
	}
	return &model.ExtractionResult{
		Status:           s.Status,
		ExtractedData:    s.Fields.Clone(),
		ConfidenceScores: scores,
		ProcessingTime:   s.ElapsedTime,
		ErrorMessage:     s.FailureReason,
	}
}
