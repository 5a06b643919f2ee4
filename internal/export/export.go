// Package export writes extracted invoices to spreadsheet files for
// downstream accounting tools.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

// invoiceColumns defines the ordered summary columns.
var invoiceColumns = []string{
	"ID",
	"Filename",
	"Status",
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Vendor Name",
	"Customer Name",
	"Subtotal",
	"Tax Amount",
	"Total Amount",
	"Currency",
	"Overall Confidence",
	"Processing Time (s)",
	"Uploaded At",
}

// lineItemColumns defines the ordered line-item detail columns.
var lineItemColumns = []string{
	"Invoice ID",
	"Invoice Number",
	"Description",
	"Quantity",
	"Unit Price",
	"Total Price",
}

// WriteXLSX writes invoices to an XLSX workbook: one summary sheet and one
// sheet with every invoice's line items.
func WriteXLSX(invoices []model.Invoice, outputPath string) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Invoices")
	if err != nil {
		return eris.Wrap(err, "export: add invoices sheet")
	}
	addRow(summary, invoiceColumns)
	for _, inv := range invoices {
		addRow(summary, buildInvoiceRow(inv))
	}

	items, err := f.AddSheet("Line Items")
	if err != nil {
		return eris.Wrap(err, "export: add line items sheet")
	}
	addRow(items, lineItemColumns)
	for _, inv := range invoices {
		for _, row := range buildLineItemRows(inv) {
			addRow(items, row)
		}
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrapf(err, "export: save %s", outputPath)
	}
	return nil
}

// WriteCSV writes the invoice summary rows as a CSV file.
func WriteCSV(invoices []model.Invoice, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(invoiceColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, inv := range invoices {
		if err := w.Write(buildInvoiceRow(inv)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	return nil
}

func buildInvoiceRow(inv model.Invoice) []string {
	var data model.InvoiceFields
	var overall, elapsed string
	if inv.Result != nil {
		data = inv.Result.ExtractedData
		overall = formatFloat(inv.Result.ConfidenceScores["overall"])
		elapsed = formatFloat(inv.Result.ProcessingTime)
	}

	return []string{
		inv.ID,
		inv.Filename,
		string(inv.Status),
		strOr(data.InvoiceNumber),
		strOr(data.InvoiceDate),
		strOr(data.DueDate),
		strOr(data.VendorName),
		strOr(data.CustomerName),
		numOr(data.Subtotal),
		numOr(data.TaxAmount),
		numOr(data.TotalAmount),
		strOr(data.Currency),
		overall,
		elapsed,
		inv.UploadedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func buildLineItemRows(inv model.Invoice) [][]string {
	if inv.Result == nil {
		return nil
	}
	data := inv.Result.ExtractedData

	rows := make([][]string, 0, len(data.LineItems))
	for _, item := range data.LineItems {
		rows = append(rows, []string{
			inv.ID,
			strOr(data.InvoiceNumber),
			item.Description,
			numOr(item.Quantity),
			numOr(item.UnitPrice),
			numOr(item.TotalPrice),
		})
	}
	return rows
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func strOr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func numOr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Filename suggests an output name for the given format extension.
func Filename(ext string) string {
	return fmt.Sprintf("invoices_export.%s", ext)
}
