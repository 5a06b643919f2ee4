package pipeline

import (
	"strings"

	"golang.org/x/text/currency"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// currencySymbols maps the symbols the model sometimes returns instead of a
// code to their ISO 4217 counterparts.
var currencySymbols = map[string]string{
	"$": "USD",
	"£": "GBP",
	"€": "EUR",
}

// normalizeCurrency rewrites the currency field to an uppercase ISO 4217
// code when the value is recognizable. Unrecognized values pass through
// untouched rather than being dropped.
func normalizeCurrency(data map[string]any) {
	v, ok := data[model.KeyCurrency]
	if !ok || v == nil {
		return
	}
	raw, ok := v.(string)
	if !ok {
		return
	}
	raw = strings.TrimSpace(raw)
	if code, ok := currencySymbols[raw]; ok {
		data[model.KeyCurrency] = code
		return
	}
	unit, err := currency.ParseISO(raw)
	if err != nil {
		return
	}
	data[model.KeyCurrency] = unit.String()
}
