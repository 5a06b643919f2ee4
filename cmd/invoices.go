package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/internal/store"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Inspect stored invoice records",
	Long:  "Commands for listing, viewing, and deleting processed invoices.",
}

// -- invoices list --

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored invoices",
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

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		invoices, err := st.ListInvoices(ctx, store.InvoiceFilter{
			Status: model.Status(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "invoices list")
		}

		if len(invoices) == 0 {
			fmt.Fprintln(os.Stderr, "No invoices found.")
			return nil
		}

		formatInvoiceList(os.Stdout, invoices)
		return nil
	},
}

// -- invoices show --

var invoicesShowCmd = &cobra.Command{
	Use:   "show <invoice-id>",
	Short: "Show full details of an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		inv, err := st.GetInvoice(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "invoices show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inv)
	},
}

// -- invoices delete --

var invoicesDeleteAll bool

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [invoice-id]",
	Short: "Delete an invoice, or all invoices with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if invoicesDeleteAll {
			count, err := st.DeleteAllInvoices(ctx)
			if err != nil {
				return eris.Wrap(err, "invoices delete all")
			}
			fmt.Printf("Deleted %d invoices.\n", count)
			return nil
		}

		if len(args) != 1 {
			return eris.New("an invoice ID or --all is required")
		}
		if err := st.DeleteInvoice(ctx, args[0]); err != nil {
			return eris.Wrap(err, "invoices delete")
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

func init() {
	invoicesListCmd.Flags().String("status", "", "filter by status (processing, completed, failed)")
	invoicesListCmd.Flags().Int("limit", 50, "max number of invoices to display")

	invoicesDeleteCmd.Flags().BoolVar(&invoicesDeleteAll, "all", false, "delete every stored invoice")

	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	rootCmd.AddCommand(invoicesCmd)
}

// formatInvoiceList writes a tabular list of invoices to w.
func formatInvoiceList(out io.Writer, invoices []model.Invoice) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFILENAME\tSTATUS\tVENDOR\tTOTAL\tCONFIDENCE\tUPLOADED")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t------\t-----\t----------\t--------")

	for _, inv := range invoices {
		vendor, total, confidence := "", "", ""
		if inv.Result != nil {
			if v := inv.Result.ExtractedData.VendorName; v != nil {
				vendor = *v
			}
			if t := inv.Result.ExtractedData.TotalAmount; t != nil {
				total = fmt.Sprintf("%.2f", *t)
			}
			if c, ok := inv.Result.ConfidenceScores["overall"]; ok {
				confidence = fmt.Sprintf("%.2f", c)
			}
		}
		if len(vendor) > 30 {
			vendor = vendor[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(inv.ID),
			inv.Filename,
			inv.Status,
			vendor,
			total,
			confidence,
			inv.UploadedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
