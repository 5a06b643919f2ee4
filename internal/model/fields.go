package model

import (
	"encoding/json"
	"maps"
	"slices"
)

// Canonical field keys downstream consumers rely on.
const (
	KeyInvoiceNumber   = "invoice_number"
	KeyInvoiceDate     = "invoice_date"
	KeyDueDate         = "due_date"
	KeyVendorName      = "vendor_name"
	KeyVendorAddress   = "vendor_address"
	KeyCustomerName    = "customer_name"
	KeyCustomerAddress = "customer_address"
	KeySubtotal        = "subtotal"
	KeyTaxAmount       = "tax_amount"
	KeyTotalAmount     = "total_amount"
	KeyCurrency        = "currency"
	KeyLineItems       = "line_items"
	KeyValidation      = "validation"
)

// HeaderKeys lists the canonical header fields in prompt order.
var HeaderKeys = []string{
	KeyInvoiceNumber, KeyInvoiceDate, KeyDueDate,
	KeyVendorName, KeyVendorAddress, KeyCustomerName, KeyCustomerAddress,
}

// InvoiceFields holds the extracted invoice data: typed slots for the fixed
// canonical vocabulary plus an open Extra mapping for anything else the model
// returned. It marshals as a single flat JSON object.
type InvoiceFields struct {
	InvoiceNumber   *string
	InvoiceDate     *string
	DueDate         *string
	VendorName      *string
	VendorAddress   *string
	CustomerName    *string
	CustomerAddress *string
	Subtotal        *float64
	TaxAmount       *float64
	TotalAmount     *float64
	Currency        *string
	LineItems       []LineItem
	Validation      *ValidationReport
	Extra           map[string]any

	// nulls tracks canonical keys explicitly set to null, so they survive
	// marshaling (a stage fallback writes null header fields on purpose).
	nulls map[string]struct{}
}

// Set assigns a single field by canonical key. Values of the wrong type for
// a typed slot fall through to Extra untouched; nil records an explicit null.
func (f *InvoiceFields) Set(key string, v any) {
	assigned := false
	switch key {
	case KeyInvoiceNumber:
		assigned = assignString(&f.InvoiceNumber, v)
	case KeyInvoiceDate:
		assigned = assignString(&f.InvoiceDate, v)
	case KeyDueDate:
		assigned = assignString(&f.DueDate, v)
	case KeyVendorName:
		assigned = assignString(&f.VendorName, v)
	case KeyVendorAddress:
		assigned = assignString(&f.VendorAddress, v)
	case KeyCustomerName:
		assigned = assignString(&f.CustomerName, v)
	case KeyCustomerAddress:
		assigned = assignString(&f.CustomerAddress, v)
	case KeySubtotal:
		assigned = assignNumber(&f.Subtotal, v)
	case KeyTaxAmount:
		assigned = assignNumber(&f.TaxAmount, v)
	case KeyTotalAmount:
		assigned = assignNumber(&f.TotalAmount, v)
	case KeyCurrency:
		assigned = assignString(&f.Currency, v)
	default:
		if f.Extra == nil {
			f.Extra = make(map[string]any)
		}
		f.Extra[key] = v
		return
	}

	if assigned {
		delete(f.nulls, key)
		return
	}
	if v == nil {
		f.setNull(key)
		return
	}
	// Typed slot rejected the value; keep it in Extra rather than dropping it.
	if f.Extra == nil {
		f.Extra = make(map[string]any)
	}
	f.Extra[key] = v
}

// Merge applies every entry of a normalized mapping via Set. Later stages
// overwrite earlier values, matching the accumulate-and-overwrite contract.
func (f *InvoiceFields) Merge(m map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		f.Set(k, m[k])
	}
}

func (f *InvoiceFields) setNull(key string) {
	if f.nulls == nil {
		f.nulls = make(map[string]struct{})
	}
	f.nulls[key] = struct{}{}
	f.clear(key)
}

func (f *InvoiceFields) clear(key string) {
	switch key {
	case KeyInvoiceNumber:
		f.InvoiceNumber = nil
	case KeyInvoiceDate:
		f.InvoiceDate = nil
	case KeyDueDate:
		f.DueDate = nil
	case KeyVendorName:
		f.VendorName = nil
	case KeyVendorAddress:
		f.VendorAddress = nil
	case KeyCustomerName:
		f.CustomerName = nil
	case KeyCustomerAddress:
		f.CustomerAddress = nil
	case KeySubtotal:
		f.Subtotal = nil
	case KeyTaxAmount:
		f.TaxAmount = nil
	case KeyTotalAmount:
		f.TotalAmount = nil
	case KeyCurrency:
		f.Currency = nil
	}
}

// SubtotalOrZero returns the subtotal, treating missing as 0.
func (f *InvoiceFields) SubtotalOrZero() float64 {
	if f.Subtotal == nil {
		return 0
	}
	return *f.Subtotal
}

// TotalAmountOrZero returns the declared total, treating missing as 0.
func (f *InvoiceFields) TotalAmountOrZero() float64 {
	if f.TotalAmount == nil {
		return 0
	}
	return *f.TotalAmount
}

// Clone returns a deep copy, so snapshots are decoupled from the live state.
func (f *InvoiceFields) Clone() InvoiceFields {
	out := *f
	out.InvoiceNumber = cloneP(f.InvoiceNumber)
	out.InvoiceDate = cloneP(f.InvoiceDate)
	out.DueDate = cloneP(f.DueDate)
	out.VendorName = cloneP(f.VendorName)
	out.VendorAddress = cloneP(f.VendorAddress)
	out.CustomerName = cloneP(f.CustomerName)
	out.CustomerAddress = cloneP(f.CustomerAddress)
	out.Subtotal = cloneP(f.Subtotal)
	out.TaxAmount = cloneP(f.TaxAmount)
	out.TotalAmount = cloneP(f.TotalAmount)
	out.Currency = cloneP(f.Currency)
	out.Validation = cloneP(f.Validation)
	out.LineItems = slices.Clone(f.LineItems)
	out.Extra = maps.Clone(f.Extra)
	out.nulls = maps.Clone(f.nulls)
	return out
}

// asMap flattens the fields into a single mapping for marshaling.
func (f InvoiceFields) asMap() map[string]any {
	out := make(map[string]any, len(f.Extra)+13)
	for k, v := range f.Extra {
		out[k] = v
	}
	for k := range f.nulls {
		out[k] = nil
	}
	putString(out, KeyInvoiceNumber, f.InvoiceNumber)
	putString(out, KeyInvoiceDate, f.InvoiceDate)
	putString(out, KeyDueDate, f.DueDate)
	putString(out, KeyVendorName, f.VendorName)
	putString(out, KeyVendorAddress, f.VendorAddress)
	putString(out, KeyCustomerName, f.CustomerName)
	putString(out, KeyCustomerAddress, f.CustomerAddress)
	putNumber(out, KeySubtotal, f.Subtotal)
	putNumber(out, KeyTaxAmount, f.TaxAmount)
	putNumber(out, KeyTotalAmount, f.TotalAmount)
	putString(out, KeyCurrency, f.Currency)
	if f.LineItems != nil {
		out[KeyLineItems] = f.LineItems
	}
	if f.Validation != nil {
		out[KeyValidation] = f.Validation
	}
	return out
}

// MarshalJSON emits the flat object shape external consumers expect.
func (f InvoiceFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.asMap())
}

// UnmarshalJSON rebuilds the typed fields from the flat object shape.
func (f *InvoiceFields) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	*f = InvoiceFields{}
	if rawItems, ok := m[KeyLineItems]; ok {
		f.LineItems = decodeLineItems(rawItems)
		delete(m, KeyLineItems)
	}
	if rawVal, ok := m[KeyValidation]; ok {
		f.Validation = decodeValidation(rawVal)
		delete(m, KeyValidation)
	}
	f.Merge(m)
	return nil
}

func decodeLineItems(v any) []LineItem {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func decodeValidation(v any) *ValidationReport {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var vr ValidationReport
	if err := json.Unmarshal(raw, &vr); err != nil {
		return nil
	}
	return &vr
}

func assignString(dst **string, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	*dst = &s
	return true
}

func assignNumber(dst **float64, v any) bool {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return false
		}
		n = parsed
	default:
		return false
	}
	*dst = &n
	return true
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putNumber(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func cloneP[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
