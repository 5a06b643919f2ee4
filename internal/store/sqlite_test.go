package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleResult(status model.Status) *model.ExtractionResult {
	total := 150.0
	result := &model.ExtractionResult{
		Status: status,
		ConfidenceScores: map[string]float64{
			"header_extraction": 0.85,
			"overall":           0.85,
		},
		ProcessingTime: 1.5,
	}
	result.ExtractedData.TotalAmount = &total
	return result
}

func TestSQLite_CreateAndGetInvoice(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvoice(ctx, "invoice-001.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, model.StatusProcessing, inv.Status)

	got, err := st.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, "invoice-001.pdf", got.Filename)
	assert.Equal(t, model.StatusProcessing, got.Status)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetInvoice_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetInvoice(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateInvoiceStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvoice(ctx, "invoice.pdf")
	require.NoError(t, err)

	require.NoError(t, st.UpdateInvoiceStatus(ctx, inv.ID, model.StatusFailed))

	got, err := st.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
}

func TestSQLite_UpdateInvoiceStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateInvoiceStatus(context.Background(), "nope", model.StatusCompleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateInvoiceResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvoice(ctx, "invoice.pdf")
	require.NoError(t, err)

	require.NoError(t, st.UpdateInvoiceResult(ctx, inv.ID, sampleResult(model.StatusCompleted)))

	got, err := st.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, model.StatusCompleted, got.Result.Status)
	assert.Equal(t, 0.85, got.Result.ConfidenceScores["overall"])
	require.NotNil(t, got.Result.ExtractedData.TotalAmount)
	assert.Equal(t, 150.0, *got.Result.ExtractedData.TotalAmount)
}

func TestSQLite_ListInvoices(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.CreateInvoice(ctx, "invoice.pdf")
		require.NoError(t, err)
	}

	invoices, err := st.ListInvoices(ctx, InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, invoices, 3)
}

func TestSQLite_ListInvoices_StatusFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateInvoice(ctx, "a.pdf")
	require.NoError(t, err)
	_, err = st.CreateInvoice(ctx, "b.pdf")
	require.NoError(t, err)
	require.NoError(t, st.UpdateInvoiceStatus(ctx, a.ID, model.StatusCompleted))

	completed, err := st.ListInvoices(ctx, InvoiceFilter{Status: model.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)
}

func TestSQLite_ListInvoices_LimitOffset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateInvoice(ctx, "invoice.pdf")
		require.NoError(t, err)
	}

	page, err := st.ListInvoices(ctx, InvoiceFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := st.ListInvoices(ctx, InvoiceFilter{Limit: 10, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestSQLite_DeleteInvoice(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	inv, err := st.CreateInvoice(ctx, "invoice.pdf")
	require.NoError(t, err)

	require.NoError(t, st.DeleteInvoice(ctx, inv.ID))

	_, err = st.GetInvoice(ctx, inv.ID)
	require.Error(t, err)

	err = st.DeleteInvoice(ctx, inv.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_DeleteAllInvoices(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.CreateInvoice(ctx, "invoice.pdf")
		require.NoError(t, err)
	}

	n, err := st.DeleteAllInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	invoices, err := st.ListInvoices(ctx, InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestSQLite_MarkStaleProcessing(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	stale, err := st.CreateInvoice(ctx, "stale.pdf")
	require.NoError(t, err)
	fresh, err := st.CreateInvoice(ctx, "fresh.pdf")
	require.NoError(t, err)

	// Age the first record past the cutoff.
	_, err = st.db.ExecContext(ctx,
		`UPDATE invoices SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-30*time.Minute), stale.ID,
	)
	require.NoError(t, err)

	n, err := st.MarkStaleProcessing(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetInvoice(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, staleFailureMessage, got.Result.ErrorMessage)

	stillFresh, err := st.GetInvoice(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, stillFresh.Status)
}

func TestSQLite_MarkStaleProcessing_SkipsTerminalStates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	done, err := st.CreateInvoice(ctx, "done.pdf")
	require.NoError(t, err)
	require.NoError(t, st.UpdateInvoiceResult(ctx, done.ID, sampleResult(model.StatusCompleted)))

	_, err = st.db.ExecContext(ctx,
		`UPDATE invoices SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-2*time.Hour), done.ID,
	)
	require.NoError(t, err)

	n, err := st.MarkStaleProcessing(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := st.GetInvoice(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}
