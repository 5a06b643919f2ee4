package model

import (
	"time"
)

// Status represents the current state of an invoice extraction.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// LineItem is a single billed line on an invoice. All fields are optional;
// the extraction stages fill in whatever the model could recover.
type LineItem struct {
	Description string   `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
}

// ValidationReport records the outcome of reconciling the declared invoice
// total against the sum of line-item totals.
type ValidationReport struct {
	TotalsMatch     bool    `json:"totals_match"`
	ExtractedTotal  float64 `json:"extracted_total"`
	CalculatedTotal float64 `json:"calculated_total"`
	Difference      float64 `json:"difference"`
	AutoCorrected   bool    `json:"auto_corrected"`
}

// ExtractionResult is the snapshot a pipeline run hands back to callers.
// It is decoupled from the pipeline's mutable working state.
type ExtractionResult struct {
	Status           Status             `json:"status"`
	ExtractedData    InvoiceFields      `json:"extracted_data"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	ProcessingTime   float64            `json:"processing_time"`
	ErrorMessage     string             `json:"error_message"`
}

// Invoice is the stored record for one uploaded document.
type Invoice struct {
	ID         string            `json:"id"`
	Filename   string            `json:"filename"`
	Status     Status            `json:"status"`
	Result     *ExtractionResult `json:"result,omitempty"`
	UploadedAt time.Time         `json:"uploaded_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
