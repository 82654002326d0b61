package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/slopscore/internal/metrics"
	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/score"
	"github.com/ppiankov/slopscore/internal/source"
)

// failurePrefix starts every message on an ERROR snapshot
const failurePrefix = "Failed to analyze repository. "

// TruncatedTreeWarning is recorded on the report when the file listing is incomplete
const TruncatedTreeWarning = "File tree is truncated. Analysis may be incomplete."

// RepoSource fetches repository content
type RepoSource interface {
	FetchReadme(ctx context.Context, repoURL string) (string, error)
	FetchFileTree(ctx context.Context, repoURL string) (*source.FileTree, error)
}

// ClaimExtractor derives feature claims from README text
type ClaimExtractor interface {
	Extract(ctx context.Context, readme string) (*model.Extraction, error)
}

// ClaimVerifier judges one claim against a file list
type ClaimVerifier interface {
	Verify(ctx context.Context, claim model.FeatureClaim, files []string) (*model.Verification, error)
}

// Deps are the collaborators of a Pipeline
type Deps struct {
	Source    RepoSource
	Extractor ClaimExtractor
	Verifier  ClaimVerifier
	Metrics   *metrics.Metrics // optional
	Logger    *slog.Logger     // optional
}

// Pipeline orchestrates one analysis at a time against a single Store
type Pipeline struct {
	source    RepoSource
	extractor ClaimExtractor
	verifier  ClaimVerifier
	scorer    *score.Scorer
	store     *Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a pipeline with its own store
func New(deps Deps) (*Pipeline, error) {
	if deps.Source == nil || deps.Extractor == nil || deps.Verifier == nil {
		return nil, fmt.Errorf("pipeline: source, extractor and verifier are required")
	}
	store, err := NewStore()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{
		source:    deps.Source,
		extractor: deps.Extractor,
		verifier:  deps.Verifier,
		scorer:    score.NewScorer(),
		store:     store,
		metrics:   deps.Metrics,
		logger:    logger,
	}, nil
}

// Store returns the pipeline's state store
func (p *Pipeline) Store() *Store {
	return p.store
}

// Close releases the store
func (p *Pipeline) Close() {
	p.store.Close()
}

// Run is an analysis started by Start
type Run struct {
	ID   string
	done chan struct{}
	err  error
	snap model.Snapshot
}

// Done is closed when the run reaches COMPLETE or ERROR
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run ends and returns its final snapshot
func (r *Run) Wait() (model.Snapshot, error) {
	<-r.done
	return r.snap, r.err
}

// Start validates repoURL and submits a new run. It returns InvalidInput for a
// malformed URL and Busy while another run is in progress; in both cases the
// state is left untouched. The run continues in the background until ctx ends.
func (p *Pipeline) Start(ctx context.Context, repoURL string) (*Run, error) {
	if err := source.ValidateRepoURL(repoURL); err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.NewString(), done: make(chan struct{})}
	if err := p.store.Dispatch(RunStarted{RunID: run.ID, RepoURL: repoURL}); err != nil {
		return nil, err
	}
	p.logger.Info("analysis started", "run", run.ID, "repo", repoURL)

	go func() {
		defer close(run.done)
		started := time.Now()

		run.err = p.execute(ctx, repoURL)
		if run.err != nil {
			p.logger.Error("analysis failed", "run", run.ID, "error", run.err)
			if err := p.store.Dispatch(RunFailed{Message: failurePrefix + run.err.Error()}); err != nil {
				p.logger.Error("record failure", "run", run.ID, "error", err)
			}
		} else {
			p.logger.Info("analysis complete", "run", run.ID, "elapsed", time.Since(started).Round(time.Millisecond))
		}

		run.snap = p.store.Snapshot()
		p.metrics.RunFinished(string(run.snap.Stage), time.Since(started))
	}()

	return run, nil
}

// Analyze runs a full analysis and returns the final snapshot.
// The error is the cause of an ERROR snapshot, or a submission failure.
func (p *Pipeline) Analyze(ctx context.Context, repoURL string) (model.Snapshot, error) {
	run, err := p.Start(ctx, repoURL)
	if err != nil {
		return p.store.Snapshot(), err
	}
	return run.Wait()
}

// execute performs the run. Claims are verified one at a time, in order, and
// each result is applied before the next request is issued.
func (p *Pipeline) execute(ctx context.Context, repoURL string) error {
	readme, err := p.source.FetchReadme(ctx, repoURL)
	if err != nil {
		return err
	}

	extraction, err := p.extractor.Extract(ctx, readme)
	if err != nil {
		return err
	}
	p.logger.Debug("claims extracted", "features", len(extraction.Features))

	report := model.NewReport(repoURL, *extraction)
	if err := p.store.Dispatch(ReportCreated{Report: report}); err != nil {
		return err
	}

	tree, err := p.source.FetchFileTree(ctx, repoURL)
	if err != nil {
		return err
	}
	if tree.Truncated {
		if err := p.store.Dispatch(WarningRaised{Message: TruncatedTreeWarning}); err != nil {
			return err
		}
	}

	for i, feature := range report.Features {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.store.Dispatch(FeatureVerifying{Index: i}); err != nil {
			return err
		}

		result, err := p.verifier.Verify(ctx, feature.FeatureClaim, tree.Paths)
		if err != nil {
			return err
		}
		if err := p.store.Dispatch(FeatureVerified{Index: i, Result: *result}); err != nil {
			return err
		}
		p.metrics.VerdictApplied(string(result.Verdict))
		p.logger.Debug("feature verified", "index", i, "verdict", result.Verdict)
	}

	final := p.store.Snapshot()
	var features []model.Feature
	if final.Report != nil {
		features = final.Report.Features
	}
	return p.store.Dispatch(RunCompleted{Score: p.scorer.Calculate(features)})
}

// Snapshot returns the latest published state
func (p *Pipeline) Snapshot() model.Snapshot {
	return p.store.Snapshot()
}
