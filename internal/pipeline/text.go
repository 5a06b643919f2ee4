package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vensonaa/enterprise-invoice-automation/internal/resilience"
)

// runTextExtraction populates the raw document text. An unreadable document
// is a hard failure; nothing downstream can run without text.
func (p *Pipeline) runTextExtraction(ctx context.Context, s *State) error {
	start := time.Now()

	retry := p.retry
	retry.OnRetry = resilience.RetryLogger("ocr", "extract_text")
	text, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
		return p.source.ExtractText(ctx, s.SourceRef)
	})
	if err != nil {
		return eris.Wrap(err, "pipeline: text extraction failed")
	}

	s.RawText = text
	s.ElapsedTime = time.Since(start).Seconds()

	zap.L().Info("pipeline: text extracted",
		zap.Int("chars", len(text)),
		zap.Float64("elapsed_s", s.ElapsedTime),
	)
	return nil
}
