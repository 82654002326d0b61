package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/slopscore/internal/model"
)

// Analyzer runs one repository analysis to completion
type Analyzer interface {
	Analyze(ctx context.Context, repoURL string) (model.Snapshot, error)
}

// AnalyzerFactory returns a fresh analyzer for each job. Analyzers own
// single-run state, so jobs must not share one.
type AnalyzerFactory func() Analyzer

// AnalyzeJob represents a repository analysis job
type AnalyzeJob struct {
	Index    int
	RepoURL  string
	Analyzer Analyzer
	limiter  *Limiter
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if err := j.limiter.WaitHost(ctx, "batch"); err != nil {
		return &AnalyzeResult{Index: j.Index, RepoURL: j.RepoURL, Error: err}
	}

	snapshot, err := j.Analyzer.Analyze(ctx, j.RepoURL)
	return &AnalyzeResult{
		Index:    j.Index,
		RepoURL:  j.RepoURL,
		Snapshot: snapshot,
		Error:    err,
	}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Index    int
	RepoURL  string
	Snapshot model.Snapshot
	Error    error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple repositories concurrently.
// Each analysis is still strictly sequential internally.
type BatchProcessor struct {
	newAnalyzer AnalyzerFactory
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. Job starts are paced at
// requestsPerSecond; a non-positive rate disables pacing.
func NewBatchProcessor(newAnalyzer AnalyzerFactory, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		newAnalyzer: newAnalyzer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// ProcessURLs analyzes repositories concurrently and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalyzeResult {
	if len(urls) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := make([]bool, len(urls))
	for i, url := range urls {
		submitted[i] = pool.Submit(&AnalyzeJob{
			Index:    i,
			RepoURL:  url,
			Analyzer: b.newAnalyzer(),
			limiter:  b.limiter,
		})
	}

	results := pool.Wait()

	out := make([]*AnalyzeResult, 0, len(urls))
	seen := make(map[int]bool, len(results))
	for _, result := range results {
		r := result.(*AnalyzeResult)
		seen[r.Index] = true
		out = append(out, r)
	}

	// Jobs dropped by cancellation still get a result
	for i, url := range urls {
		if !seen[i] {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("job not executed")
			}
			if !submitted[i] {
				err = fmt.Errorf("job not submitted: %w", err)
			}
			out = append(out, &AnalyzeResult{Index: i, RepoURL: url, Error: err})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads repository URLs from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
