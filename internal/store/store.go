package store

import (
	"context"
	"time"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// InvoiceFilter specifies criteria for listing invoices.
type InvoiceFilter struct {
	Status model.Status `json:"status,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// Store defines the persistence interface for invoice extraction records.
type Store interface {
	CreateInvoice(ctx context.Context, filename string) (*model.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status model.Status) error
	UpdateInvoiceResult(ctx context.Context, id string, result *model.ExtractionResult) error
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	DeleteAllInvoices(ctx context.Context) (int, error)

	// MarkStaleProcessing fails invoices stuck in processing longer than
	// olderThan, so a crashed worker never leaves records spinning forever.
	MarkStaleProcessing(ctx context.Context, olderThan time.Duration) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
