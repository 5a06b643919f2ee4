package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseObject_Direct(t *testing.T) {
	got := ParseObject(`{"invoice_number": "INV-001", "total_amount": 150.0}`)
	assert.Equal(t, "INV-001", got["invoice_number"])
	assert.Equal(t, 150.0, got["total_amount"])
}

func TestParseObject_FencedBlock(t *testing.T) {
	text := "Here is the extracted data:\n```json\n{\"invoice_number\": \"INV-001\"}\n```\nLet me know if you need anything else."
	got := ParseObject(text)
	assert.Equal(t, "INV-001", got["invoice_number"])
}

func TestParseObject_UntaggedFence(t *testing.T) {
	text := "```\n{\"vendor_name\": \"Acme Corp\"}\n```"
	got := ParseObject(text)
	assert.Equal(t, "Acme Corp", got["vendor_name"])
}

func TestParseObject_BraceSpanInProse(t *testing.T) {
	text := `Sure! The header fields are {"invoice_number": "INV-7", "due_date": "2025-03-01"} as requested.`
	got := ParseObject(text)
	assert.Equal(t, "INV-7", got["invoice_number"])
	assert.Equal(t, "2025-03-01", got["due_date"])
}

// The recovery order must be idempotent: the same JSON yields the same
// structure whether bare, fenced, or wrapped in prose.
func TestParseObject_Idempotent(t *testing.T) {
	raw := `{"subtotal": 100.0, "currency": "USD"}`
	bare := ParseObject(raw)
	fenced := ParseObject("```json\n" + raw + "\n```")
	prose := ParseObject("The result is " + raw + " based on the invoice.")

	assert.Equal(t, bare, fenced)
	assert.Equal(t, bare, prose)
}

func TestParseObject_MalformedReturnsEmpty(t *testing.T) {
	cases := []string{
		"",
		"I could not find any invoice data in this document.",
		"{invalid json",
		"``` not json ```",
		"{]",
	}
	for _, text := range cases {
		got := ParseObject(text)
		assert.NotNil(t, got, "input %q", text)
		assert.Empty(t, got, "input %q", text)
	}
}

func TestParseObject_ArrayIsNotAnObject(t *testing.T) {
	got := ParseObject(`[{"description": "Widget"}]`)
	assert.Empty(t, got)
}

func TestParseValue_Array(t *testing.T) {
	got := ParseValue(`[{"description": "Widget", "total_price": 10.0}]`)
	arr, ok := got.([]any)
	assert.True(t, ok)
	assert.Len(t, arr, 1)
}

func TestParseValue_FencedArray(t *testing.T) {
	got := ParseValue("```json\n[1, 2, 3]\n```")
	arr, ok := got.([]any)
	assert.True(t, ok)
	assert.Len(t, arr, 3)
}

func TestParseValue_NothingParseable(t *testing.T) {
	assert.Nil(t, ParseValue("no json here"))
}

func TestParseValue_NestedBraces(t *testing.T) {
	text := `Result: {"validation": {"totals_match": true}} done.`
	got := ParseValue(text)
	obj, ok := got.(map[string]any)
	assert.True(t, ok)
	nested, ok := obj["validation"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, true, nested["totals_match"])
}
