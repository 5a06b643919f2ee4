package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/internal/store"
)

var (
	batchConcurrency int
	batchLimit       int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir|file...>",
	Short: "Extract a batch of invoice documents concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		paths, err := collectDocuments(args)
		if err != nil {
			return err
		}

		return processBatch(ctx, paths, batchLimit, batchConcurrency, env.Store, func(ctx context.Context, path string) *model.ExtractionResult {
			return env.Pipeline.Run(ctx, path)
		})
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "max documents processed in parallel")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of documents to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// collectDocuments expands directory arguments into the invoice documents
// they contain and passes file arguments through.
func collectDocuments(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "read dir %s", arg)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".pdf", ".txt":
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	return paths, nil
}

// extractFunc is the callback signature for running extraction on a document.
type extractFunc func(ctx context.Context, path string) *model.ExtractionResult

// processBatch applies limit, then extracts documents concurrently and
// records each result in the store.
func processBatch(ctx context.Context, paths []string, limit, concurrency int, st store.Store, extract extractFunc) error {
	if len(paths) == 0 {
		zap.L().Info("no invoice documents found")
		return nil
	}

	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("documents", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range paths {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))

			inv, err := st.CreateInvoice(gctx, filepath.Base(path))
			if err != nil {
				failed.Add(1)
				log.Error("create invoice record failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			result := extract(gctx, path)
			if err := st.UpdateInvoiceResult(gctx, inv.ID, result); err != nil {
				failed.Add(1)
				log.Error("save extraction result failed", zap.Error(err))
				return nil
			}

			if result.Status == model.StatusFailed {
				failed.Add(1)
				log.Warn("extraction failed", zap.String("error", result.ErrorMessage))
				return nil
			}

			succeeded.Add(1)
			log.Info("extraction complete",
				zap.String("id", inv.ID),
				zap.Float64("overall_confidence", result.ConfidenceScores["overall"]),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
