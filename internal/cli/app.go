package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/slopscore/internal/cache"
	"github.com/ppiankov/slopscore/internal/extract"
	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/metrics"
	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/pipeline"
	"github.com/ppiankov/slopscore/internal/source"
	"github.com/ppiankov/slopscore/internal/util"
	"github.com/ppiankov/slopscore/internal/validate"
	"github.com/ppiankov/slopscore/internal/worker"
)

// app holds the components shared by every pipeline a command creates
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cache    cache.Cache
	limiter  *worker.Limiter
	fetcher  *source.Fetcher
	provider llm.Provider
}

// newApp wires the hosting client and model backend from cfg
func newApp(ctx context.Context, cfg *model.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
	}

	if cfg.Cache.Enabled {
		a.cache = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	} else {
		a.cache = cache.Nop{}
	}

	base := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	fetcher, err := source.NewFetcher(source.Options{
		BaseURL:    cfg.GitHub.BaseURL,
		UserAgent:  cfg.HTTP.UserAgent,
		HTTPClient: source.NewHTTPClient(ctx, base, cfg.GitHub.Token),
		Cache:      a.cache,
		CacheTTL:   cfg.Cache.TTL,
		Limiter:    a.limiter,
		Metrics:    a.metrics,
		Logger:     logger,
		Exclude:    cfg.GitHub.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	a.fetcher = fetcher

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, err
	}
	provider = llm.NewRateLimitedProvider(provider, a.limiter)
	if cfg.Resilience.Enabled {
		provider = llm.NewResilientProvider(provider, llm.ResilienceConfig{
			MaxAttempts:  cfg.Resilience.MaxAttempts,
			InitialDelay: cfg.Resilience.InitialDelay,
			CallTimeout:  cfg.Resilience.CallTimeout,
		})
	}
	a.provider = provider

	return a, nil
}

// preflight confirms the model backend answers before any work is started
func (a *app) preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if !a.provider.IsAvailable(ctx) {
		return model.NewError(model.KindConfig, "%s backend is not available (check the API key, base URL and network)", a.provider.Name())
	}
	fmt.Fprintf(os.Stderr, "✓ %s backend is available\n", a.provider.Name())
	return nil
}

// newPipeline returns a pipeline with its own store. The fetcher, cache and
// provider are shared.
func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Deps{
		Source:    a.fetcher,
		Extractor: extract.NewExtractor(a.provider, a.metrics),
		Verifier:  validate.NewVerifier(a.provider, a.metrics),
		Metrics:   a.metrics,
		Logger:    a.logger,
	})
}

// progress prints one line per stage change and per verified claim
func progress(w io.Writer) pipeline.Observer {
	var (
		stage    model.Stage
		verified int
		started  = time.Now()
	)
	return func(snap model.Snapshot) {
		if snap.Stage != stage {
			stage = snap.Stage
			switch stage {
			case model.StageExtractingFeatures:
				verified = 0
				started = time.Now()
				fmt.Fprintf(w, "⚙️  Reading README...\n")
			case model.StageVerifying:
				fmt.Fprintf(w, "✓ Extracted %d claims\n", len(snap.Report.Features))
			case model.StageComplete:
				fmt.Fprintf(w, "✓ Done in %v\n\n", time.Since(started).Round(time.Millisecond))
			case model.StageError:
				fmt.Fprintf(w, "✗ Failed after %v\n\n", time.Since(started).Round(time.Millisecond))
			}
		}
		if snap.Report == nil {
			return
		}
		n := 0
		for _, f := range snap.Report.Features {
			if f.Verdict.IsTerminal() {
				n++
			}
		}
		for ; verified < n; verified++ {
			f := snap.Report.Features[verified]
			fmt.Fprintf(w, "✓ [%d/%d] %s: %s\n", verified+1, len(snap.Report.Features), f.Verdict.Label(), f.Claim)
		}
	}
}
