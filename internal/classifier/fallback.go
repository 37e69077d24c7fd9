package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campusdesk/internal/observability"
)

// FallbackClassifier tries a primary classifier and falls back to keyword
// rules on any failure. Classify never returns an error.
type FallbackClassifier struct {
	primary TextClassifier
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewFallbackClassifier composes primary with the keyword rules.
// A nil primary classifies with rules only.
func NewFallbackClassifier(primary TextClassifier, logger *zap.Logger, metrics *observability.Metrics) *FallbackClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackClassifier{
		primary: primary,
		logger:  logger,
		metrics: metrics,
	}
}

// Classify implements TextClassifier.
func (f *FallbackClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	if f.primary == nil {
		result := ClassifyByRules(text)
		f.metrics.RecordClassification(SourceRules, string(result.Department))
		return result, nil
	}

	result, err := f.primary.Classify(ctx, text)
	if err == nil {
		f.metrics.RecordClassification(SourceAI, string(result.Department))
		return result, nil
	}

	f.logger.Warn("classification failed; using keyword rules", zap.Error(err))
	result = ClassifyByRules(text)
	f.metrics.RecordClassification(SourceFallback, string(result.Department))
	return result, nil
}
