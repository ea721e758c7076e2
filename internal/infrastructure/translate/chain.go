package translate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
	"github.com/AbdElbassetKh/PharmaCentral/internal/quality"
)

// Cache is the write-through seam the chain uses to persist an accepted
// translation immediately, before the result is handed back.
type Cache interface {
	Put(ctx context.Context, text, translation string)
}

// Chain tries providers strictly in priority order. Provider errors,
// rate limits, empty results, no-op results, and quality rejections all mean
// the same thing: advance to the next provider. Exhaustion degrades to the
// original text; the chain itself never fails.
type Chain struct {
	providers []ports.Translator
	evaluator *quality.Evaluator
	cache     Cache
	logger    *slog.Logger
}

// NewChain composes the fallback order from the given providers.
func NewChain(providers []ports.Translator, evaluator *quality.Evaluator, cache Cache, logger *slog.Logger) *Chain {
	return &Chain{
		providers: providers,
		evaluator: evaluator,
		cache:     cache,
		logger:    logger,
	}
}

// Translate returns the first accepted translation and whether any provider
// produced one; on false the returned text is the input unchanged.
func (c *Chain) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	for i, provider := range c.providers {
		candidate, err := provider.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			c.debug("provider failed", "provider", i, "error", err)
			continue
		}

		candidate = strings.TrimSpace(candidate)
		if candidate == "" || candidate == text {
			c.debug("provider returned no-op translation", "provider", i)
			continue
		}

		if c.evaluator != nil && !c.evaluator.Accept(text, candidate, targetLang) {
			c.debug("translation rejected by quality gate", "provider", i)
			continue
		}

		if c.cache != nil {
			c.cache.Put(ctx, text, candidate)
		}
		return candidate, true
	}

	return text, false
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
