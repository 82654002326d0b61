package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/pipeline"
	"github.com/ppiankov/slopscore/internal/source"
	"github.com/ppiankov/slopscore/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze repositories listed in a file in parallel",
	Long: `Batch analyzes many repositories concurrently:
- Read repository URLs from the input file (one per line, # comments allowed)
- Run an independent analysis per repository with a bounded worker count
- Write a JSON and Markdown report per repository

Example:
  slopscore batch repos.txt
  slopscore batch repos.txt --concurrency 2 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent analyses (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./slopscore-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
	addModelFlags(batchCmd)
}

// oneShot runs each analysis on its own pipeline so jobs never share a store
type oneShot struct {
	app *app
}

func (o oneShot) Analyze(ctx context.Context, repoURL string) (model.Snapshot, error) {
	p, err := o.app.newPipeline()
	if err != nil {
		return model.Snapshot{Stage: model.StageIdle}, err
	}
	defer p.Close()
	return p.Analyze(ctx, repoURL)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyModelFlags(cmd, cfg)
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	logger := newLogger(cfg.Output.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  SlopScore Batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Model:        %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if checkBackend {
		if err := a.preflight(ctx); err != nil {
			return err
		}
	}

	processor := worker.NewBatchProcessor(
		func() worker.Analyzer { return oneShot{app: a} },
		cfg.Concurrency.Workers,
		cfg.RateLimiting.RequestsPerSecond,
		cfg.RateLimiting.BurstSize,
	)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing repositories...\n\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, false)
	successCount, failureCount := 0, 0

	for _, result := range results {
		if result.Snapshot.Report != nil {
			base := filepath.Join(outputDir, reportName(result.RepoURL))
			if err := writeReports(renderer, result.Snapshot, base+".json", base+".md"); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.RepoURL, err)
			}
		}

		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.RepoURL, result.Error)
			continue
		}

		successCount++
		if rep := result.Snapshot.Report; rep != nil && rep.Score != nil {
			fmt.Fprintf(os.Stderr, "✓ %s (index: %d/100, %d claims)\n", result.RepoURL, rep.Score.Index, rep.Score.Total)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d repositories\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d analyses failed", failureCount)
	}
	return nil
}

// reportName derives a filesystem-safe report name from a repository URL
func reportName(repoURL string) string {
	if repo, err := source.ParseRepoURL(repoURL); err == nil {
		return sanitizeFilename(repo.Owner + "_" + repo.Name)
	}
	return sanitizeFilename(repoURL)
}

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(s string) string {
	s = strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	).Replace(s)

	// Limit length without splitting a multi-byte rune
	if len(s) > 100 {
		cut := 100
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
