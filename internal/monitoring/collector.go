package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/internal/store"
)

// MetricsSnapshot holds a point-in-time view of extraction health.
type MetricsSnapshot struct {
	// Invoice metrics (within lookback window).
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
	Processing int     `json:"processing"`
	FailRate   float64 `json:"fail_rate"`

	// AvgConfidence averages the overall confidence of completed
	// extractions in the window.
	AvgConfidence float64 `json:"avg_confidence"`

	// AvgProcessingSecs averages pipeline wall time per completed invoice.
	AvgProcessingSecs float64 `json:"avg_processing_secs"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the invoice store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of extraction metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	invoices, err := c.store.ListInvoices(ctx, store.InvoiceFilter{Limit: 10000})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list invoices")
	}

	var totalConfidence, totalSecs float64
	var scored, timed int

	for _, inv := range invoices {
		if inv.UploadedAt.Before(cutoff) {
			continue
		}
		snap.Total++

		switch inv.Status {
		case model.StatusCompleted:
			snap.Completed++
		case model.StatusFailed:
			snap.Failed++
		case model.StatusProcessing:
			snap.Processing++
		}

		if inv.Result == nil || inv.Status != model.StatusCompleted {
			continue
		}
		if overall, ok := inv.Result.ConfidenceScores["overall"]; ok {
			totalConfidence += overall
			scored++
		}
		if inv.Result.ProcessingTime > 0 {
			totalSecs += inv.Result.ProcessingTime
			timed++
		}
	}

	if finished := snap.Completed + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	if scored > 0 {
		snap.AvgConfidence = totalConfidence / float64(scored)
	}
	if timed > 0 {
		snap.AvgProcessingSecs = totalSecs / float64(timed)
	}

	return snap, nil
}
