package normalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/plansift/plansift/pkg/recipes"
)

// FallbackNormalizer tries a primary (typically remote) normalizer and
// answers from the local merge when the primary fails or the context is
// already dead. The fallback path is mandatory: extraction must produce
// an extract even with no network.
type FallbackNormalizer struct {
	Primary  Normalizer
	Fallback Normalizer
	Logger   *zap.Logger
}

// WithFallback wraps primary so every Normalize call is backed by the
// local deterministic merge.
func WithFallback(primary Normalizer, logger *zap.Logger) *FallbackNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackNormalizer{
		Primary:  primary,
		Fallback: LocalNormalizer{},
		Logger:   logger,
	}
}

// Normalize delegates to the primary normalizer, falling back to the
// local merge on any error. The fallback extract records why it was
// used in FallbackReason.
func (f *FallbackNormalizer) Normalize(ctx context.Context, results []recipes.Result) (*NormalizedPlanExtract, error) {
	if f.Primary != nil {
		ex, err := f.Primary.Normalize(ctx, results)
		if err == nil && ex != nil {
			return ex, nil
		}
		if err != nil {
			f.Logger.Warn("primary normalizer failed, using local merge", zap.Error(err))
		}
		ex2, ferr := f.Fallback.Normalize(ctx, results)
		if ferr != nil {
			return nil, ferr
		}
		if err != nil {
			ex2.FallbackReason = err.Error()
		}
		return ex2, nil
	}
	return f.Fallback.Normalize(ctx, results)
}
