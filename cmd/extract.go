package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

var extractSave bool

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract structured data from a single invoice document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		if _, err := os.Stat(path); err != nil {
			return eris.Wrapf(err, "stat %s", path)
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.Run(ctx, path)

		if extractSave {
			inv, err := env.Store.CreateInvoice(ctx, filepath.Base(path))
			if err != nil {
				return eris.Wrap(err, "create invoice record")
			}
			if err := env.Store.UpdateInvoiceResult(ctx, inv.ID, result); err != nil {
				return eris.Wrap(err, "save extraction result")
			}
			zap.L().Info("extraction saved", zap.String("id", inv.ID))
		}

		if result.Status == model.StatusFailed {
			zap.L().Warn("extraction failed",
				zap.String("file", path),
				zap.String("error", result.ErrorMessage),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "persist the result to the invoice store")
	rootCmd.AddCommand(extractCmd)
}
