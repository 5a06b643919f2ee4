package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/config"
	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
	"github.com/vensonaa/enterprise-invoice-automation/internal/ocr"
	"github.com/vensonaa/enterprise-invoice-automation/internal/resilience"
	"github.com/vensonaa/enterprise-invoice-automation/pkg/anthropic"
)

// Stage names, in execution order.
const (
	stageExtractText      = "extract_text"
	stageExtractHeader    = "extract_header"
	stageExtractFinancial = "extract_financial"
	stageExtractLineItems = "extract_line_items"
	stageValidate         = "validate_data"
)

// Pipeline runs the staged invoice extraction for one document at a time.
// Instances hold no per-document state, so independent documents may run on
// separate goroutines against the same Pipeline.
type Pipeline struct {
	anthropic anthropic.Client
	source    ocr.Extractor
	cfg       config.PipelineConfig
	retry     resilience.RetryConfig
}

// stage pairs a name with the operation the runner invokes. The ordered list
// keeps the pipeline data-driven and each stage testable in isolation.
type stage struct {
	name string
	run  func(ctx context.Context, s *State) error
}

// New creates a Pipeline with its collaborators injected.
func New(aiClient anthropic.Client, source ocr.Extractor, cfg config.PipelineConfig) *Pipeline {
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "generate")
	return &Pipeline{
		anthropic: aiClient,
		source:    source,
		cfg:       cfg,
		retry:     retry,
	}
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{stageExtractText, p.runTextExtraction},
		{stageExtractHeader, p.runHeaderExtraction},
		{stageExtractFinancial, p.runFinancialExtraction},
		{stageExtractLineItems, p.runLineItemsExtraction},
		{stageValidate, p.runValidation},
	}
}

// Run executes all stages in order for one document and returns a snapshot
// decoupled from the working state. A stage error fails the document and
// short-circuits the remaining stages; soft parse problems inside a stage
// degrade confidence instead of failing.
func (p *Pipeline) Run(ctx context.Context, sourceRef string) *model.ExtractionResult {
	log := zap.L().With(zap.String("document", sourceRef))
	log.Info("pipeline: starting extraction")

	s := NewState(sourceRef)
	for _, st := range p.stages() {
		log.Debug("pipeline: running stage", zap.String("stage", st.name))
		if err := st.run(ctx, s); err != nil {
			s.Fail(err.Error())
		}
		if s.Status == model.StatusFailed {
			log.Warn("pipeline: stage failed",
				zap.String("stage", st.name),
				zap.String("reason", s.FailureReason),
			)
			break
		}
	}

	log.Info("pipeline: extraction finished",
		zap.String("status", string(s.Status)),
		zap.Float64("overall_confidence", s.Confidence[scoreOverall]),
		zap.Int("line_items", len(s.Fields.LineItems)),
	)
	return s.Snapshot()
}

// generate calls the model with bounded retries on transient errors. A
// retry-exhausted or non-transient error is a hard stage failure.
func (p *Pipeline) generate(ctx context.Context, system, user string) (string, error) {
	return resilience.DoVal(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.anthropic.Generate(ctx, system, user)
	})
}
