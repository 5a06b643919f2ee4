package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

func TestNewState(t *testing.T) {
	s := NewState("invoices/inv-001.pdf")
	assert.Equal(t, "invoices/inv-001.pdf", s.SourceRef)
	assert.Equal(t, model.StatusProcessing, s.Status)
	assert.NotNil(t, s.Confidence)
	assert.Empty(t, s.FailureReason)
}

func TestFail(t *testing.T) {
	s := NewState("doc.pdf")
	s.Fail("text extraction failed: no such file")
	assert.Equal(t, model.StatusFailed, s.Status)
	assert.Equal(t, "text extraction failed: no such file", s.FailureReason)
}

func TestFail_CompletedIsTerminal(t *testing.T) {
	s := NewState("doc.pdf")
	s.Status = model.StatusCompleted
	s.Fail("too late")
	assert.Equal(t, model.StatusCompleted, s.Status)
	assert.Empty(t, s.FailureReason)
}

func TestSnapshot_Decoupled(t *testing.T) {
	s := NewState("doc.pdf")
	s.Fields.Set(model.KeyVendorName, "Acme Corp")
	s.Confidence[scoreHeader] = 0.85
	s.ElapsedTime = 1.25

	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, model.StatusProcessing, snap.Status)
	assert.Equal(t, 1.25, snap.ProcessingTime)
	require.NotNil(t, snap.ExtractedData.VendorName)
	assert.Equal(t, "Acme Corp", *snap.ExtractedData.VendorName)
	assert.Equal(t, 0.85, snap.ConfidenceScores[scoreHeader])

	// Mutating the live state must not leak into the snapshot.
	s.Fields.Set(model.KeyVendorName, "Changed Inc")
	s.Confidence[scoreHeader] = 0.1
	assert.Equal(t, "Acme Corp", *snap.ExtractedData.VendorName)
	assert.Equal(t, 0.85, snap.ConfidenceScores[scoreHeader])
}
