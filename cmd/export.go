package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/export"
	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/internal/store"
)

var (
	exportFormat string
	exportOutput string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored invoices to a spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		invoices, err := st.ListInvoices(ctx, store.InvoiceFilter{
			Status: model.Status(exportStatus),
		})
		if err != nil {
			return eris.Wrap(err, "list invoices")
		}
		if len(invoices) == 0 {
			return eris.New("no invoices to export")
		}

		format := strings.ToLower(exportFormat)
		path := exportOutput
		if path == "" {
			path = export.Filename(format)
		}

		switch format {
		case "xlsx":
			err = export.WriteXLSX(invoices, path)
		case "csv":
			err = export.WriteCSV(invoices, path)
		default:
			return eris.Errorf("unsupported export format: %s", exportFormat)
		}
		if err != nil {
			return eris.Wrap(err, "write export")
		}

		zap.L().Info("export written",
			zap.String("path", path),
			zap.Int("invoices", len(invoices)),
		)
		fmt.Println(path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "export format (xlsx, csv)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default derived from format)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only export invoices with this status")
	rootCmd.AddCommand(exportCmd)
}
