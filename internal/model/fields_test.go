package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceFields_MergeAndMarshalFlat(t *testing.T) {
	var f InvoiceFields
	f.Merge(map[string]any{
		"invoice_number": "INV-001",
		"total_amount":   150.0,
		"po_number":      "PO-88",
	})

	require.NotNil(t, f.InvoiceNumber)
	assert.Equal(t, "INV-001", *f.InvoiceNumber)
	require.NotNil(t, f.TotalAmount)
	assert.Equal(t, 150.0, *f.TotalAmount)
	assert.Equal(t, "PO-88", f.Extra["po_number"])

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "INV-001", m["invoice_number"])
	assert.Equal(t, 150.0, m["total_amount"])
	assert.Equal(t, "PO-88", m["po_number"])
}

func TestInvoiceFields_ExplicitNullSurvivesMarshal(t *testing.T) {
	var f InvoiceFields
	f.Set(KeyVendorName, nil)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	v, present := m["vendor_name"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestInvoiceFields_LaterSetOverwritesNull(t *testing.T) {
	var f InvoiceFields
	f.Set(KeyInvoiceNumber, nil)
	f.Set(KeyInvoiceNumber, "INV-2")

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "INV-2", m["invoice_number"])
}

func TestInvoiceFields_WrongTypeForTypedSlotKeptInExtra(t *testing.T) {
	var f InvoiceFields
	f.Set(KeySubtotal, []any{"not", "a", "number"})

	assert.Nil(t, f.Subtotal)
	assert.Equal(t, []any{"not", "a", "number"}, f.Extra["subtotal"])
}

func TestInvoiceFields_RoundTrip(t *testing.T) {
	qty := 2.0
	price := 75.0
	var f InvoiceFields
	f.Merge(map[string]any{
		"invoice_number": "INV-9",
		"subtotal":       150.0,
		"currency":       "USD",
	})
	f.LineItems = []LineItem{{Description: "Widget", Quantity: &qty, TotalPrice: &price}}
	f.Validation = &ValidationReport{TotalsMatch: true, ExtractedTotal: 150, CalculatedTotal: 150}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var back InvoiceFields
	require.NoError(t, json.Unmarshal(data, &back))

	require.NotNil(t, back.InvoiceNumber)
	assert.Equal(t, "INV-9", *back.InvoiceNumber)
	require.Len(t, back.LineItems, 1)
	assert.Equal(t, "Widget", back.LineItems[0].Description)
	require.NotNil(t, back.LineItems[0].TotalPrice)
	assert.Equal(t, 75.0, *back.LineItems[0].TotalPrice)
	require.NotNil(t, back.Validation)
	assert.True(t, back.Validation.TotalsMatch)
}

func TestInvoiceFields_CloneIsDecoupled(t *testing.T) {
	var f InvoiceFields
	f.Merge(map[string]any{"vendor_name": "Acme", "notes": "original"})

	clone := f.Clone()
	f.Set(KeyVendorName, "Changed")
	f.Extra["notes"] = "mutated"

	require.NotNil(t, clone.VendorName)
	assert.Equal(t, "Acme", *clone.VendorName)
	assert.Equal(t, "original", clone.Extra["notes"])
}
