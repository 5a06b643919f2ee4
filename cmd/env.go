package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vensonaa/enterprise-invoice-automation/internal/chat"
	"github.com/vensonaa/enterprise-invoice-automation/internal/ocr"
	"github.com/vensonaa/enterprise-invoice-automation/internal/pipeline"
	"github.com/vensonaa/enterprise-invoice-automation/internal/store"
	anthropicpkg "github.com/vensonaa/enterprise-invoice-automation/pkg/anthropic"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the extract/batch/serve commands.
type pipelineEnv struct {
	Store     store.Store
	Pipeline  *pipeline.Pipeline
	Assistant *chat.Assistant
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "invoices.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, the Anthropic client, the document text
// extractor, and the chat assistant. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithModel(cfg.Anthropic.Model),
		anthropicpkg.WithMaxTokens(cfg.Anthropic.MaxTokens),
		anthropicpkg.WithRateLimit(cfg.Anthropic.RequestsPerSecond),
	)

	extractor, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init text extractor")
	}

	return &pipelineEnv{
		Store:     st,
		Pipeline:  pipeline.New(anthropicClient, extractor, cfg.Pipeline),
		Assistant: chat.NewAssistant(anthropicClient),
	}, nil
}
