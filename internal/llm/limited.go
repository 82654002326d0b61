package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/slopscore/internal/worker"
)

// RateLimitedProvider waits on a per-backend token bucket before every call
type RateLimitedProvider struct {
	inner   Provider
	limiter *worker.Limiter
}

// NewRateLimitedProvider wraps inner. The bucket is keyed by the provider name.
func NewRateLimitedProvider(inner Provider, limiter *worker.Limiter) *RateLimitedProvider {
	return &RateLimitedProvider{inner: inner, limiter: limiter}
}

func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}

func (p *RateLimitedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Generate waits for a token, then calls the wrapped provider
func (p *RateLimitedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := p.limiter.WaitHost(ctx, p.inner.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return p.inner.Generate(ctx, req)
}
