package pipeline

import (
	"strconv"
	"strings"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// keyAliases maps the human-readable keys the model tends to emit onto the
// canonical field vocabulary.
var keyAliases = map[string]string{
	"Invoice Number":   model.KeyInvoiceNumber,
	"Invoice Date":     model.KeyInvoiceDate,
	"Due Date":         model.KeyDueDate,
	"Vendor Name":      model.KeyVendorName,
	"Vendor Address":   model.KeyVendorAddress,
	"Customer Name":    model.KeyCustomerName,
	"Customer Address": model.KeyCustomerAddress,
	"Subtotal":         model.KeySubtotal,
	"Tax Amount":       model.KeyTaxAmount,
	"Total Amount":     model.KeyTotalAmount,
	"Currency":         model.KeyCurrency,
}

// totalPriceAliases lists the accepted keys for a line item's total, in the
// fixed order they are checked. The order matters when an item carries more
// than one of them.
var totalPriceAliases = []string{"total_price", "Total Price", "amount", "Amount"}

var quantityAliases = []string{"quantity", "Quantity"}
var unitPriceAliases = []string{"unit_price", "Unit Price"}
var descriptionAliases = []string{"description", "Description"}

// CanonicalKey maps one key to canonical form: the alias table first, then a
// lower-case space-to-underscore fallback for anything unrecognized.
func CanonicalKey(key string) string {
	if canonical, ok := keyAliases[key]; ok {
		return canonical
	}
	return strings.ReplaceAll(strings.ToLower(key), " ", "_")
}

// NormalizeKeys rewrites a parsed object's keys to canonical form. Values are
// untouched.
func NormalizeKeys(data map[string]any) map[string]any {
	normalized := make(map[string]any, len(data))
	for key, value := range data {
		normalized[CanonicalKey(key)] = value
	}
	return normalized
}

// ParseAmount coerces a currency-ish value to a float. Strings are stripped
// of $, £, € and thousands separators before parsing; anything unparsable
// coerces to 0.0 rather than failing.
func ParseAmount(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", "£", "", "€", "").Replace(t)
		cleaned = strings.TrimSpace(cleaned)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

// CoerceAmounts forces the monetary fields of a normalized mapping to
// numeric values in place. Explicit nulls are left alone so they keep their
// not-found meaning.
func CoerceAmounts(data map[string]any) {
	for _, key := range []string{model.KeySubtotal, model.KeyTaxAmount, model.KeyTotalAmount} {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		data[key] = ParseAmount(v)
	}
}

// LineItemsFromValue converts a parsed JSON value into typed line items.
// Only an array of objects produces items; anything else yields an empty
// sequence.
func LineItemsFromValue(v any) []model.LineItem {
	raw, ok := v.([]any)
	if !ok {
		return []model.LineItem{}
	}
	items := make([]model.LineItem, 0, len(raw))
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, lineItemFromMap(obj))
	}
	return items
}

func lineItemFromMap(obj map[string]any) model.LineItem {
	var item model.LineItem
	if v, ok := firstAlias(obj, descriptionAliases); ok {
		if s, ok := v.(string); ok {
			item.Description = s
		}
	}
	if v, ok := firstAlias(obj, quantityAliases); ok {
		n := ParseAmount(v)
		item.Quantity = &n
	}
	if v, ok := firstAlias(obj, unitPriceAliases); ok {
		n := ParseAmount(v)
		item.UnitPrice = &n
	}
	if v, ok := firstTruthyAlias(obj, totalPriceAliases); ok {
		n := ParseAmount(v)
		item.TotalPrice = &n
	}
	return item
}

// firstAlias returns the value of the first alias present with a non-nil
// value, preserving the checked order exactly.
func firstAlias(obj map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		if v, ok := obj[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// firstTruthyAlias resolves a total through the alias chain the way the
// extraction treats totals: a zero, empty-string, null, or false value does
// not claim the slot, it falls through to the next alias. An item whose
// total_price came back as 0 but whose amount is 50 is worth 50.
func firstTruthyAlias(obj map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		v, ok := obj[key]
		if !ok || isFalsy(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case string:
		return t == ""
	default:
		return false
	}
}
