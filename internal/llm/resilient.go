package llm

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/ppiankov/slopscore/internal/model"
)

// ResilienceConfig controls retry and per-call timeout around a provider
type ResilienceConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	CallTimeout  time.Duration
}

// ResilientProvider wraps a provider with a call timeout and exponential-backoff
// retry. Configuration errors are never retried.
type ResilientProvider struct {
	inner  Provider
	config ResilienceConfig
}

// NewResilientProvider wraps inner
func NewResilientProvider(inner Provider, config ResilienceConfig) *ResilientProvider {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 2 * time.Minute
	}
	return &ResilientProvider{inner: inner, config: config}
}

// Name returns the wrapped provider's name
func (p *ResilientProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *ResilientProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Generate calls the wrapped provider under the configured policy
func (p *ResilientProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	t := timeout.New[*GenerateResponse](timeout.Config{
		DefaultTimeout: p.config.CallTimeout,
	})
	call := func(ctx context.Context) (*GenerateResponse, error) {
		return t.Execute(ctx, p.config.CallTimeout, func(ctx context.Context) (*GenerateResponse, error) {
			return p.inner.Generate(ctx, req)
		})
	}

	resp, err := call(ctx)
	if err == nil || p.config.MaxAttempts == 1 || model.KindOf(err) == model.KindConfig || ctx.Err() != nil {
		return resp, err
	}

	r := retry.New[*GenerateResponse](retry.Config{
		MaxAttempts:   p.config.MaxAttempts - 1,
		InitialDelay:  p.config.InitialDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	return r.Do(ctx, call)
}
