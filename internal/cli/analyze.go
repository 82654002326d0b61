package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON         string
	outMD           string
	analyzeTimeout  time.Duration
	llmProvider     string
	llmModel        string
	noCache         bool
	noFooter        bool
	noColor         bool
	retryEnabled    bool
	checkBackend    bool
	excludePatterns []string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url>",
	Short: "Check one repository's README claims against its file tree",
	Long: `Analyze runs a single pass over a public GitHub repository:
- Fetch the README and extract the features it claims
- Fetch the full file tree of the default branch
- Ask the model, one claim at a time, whether the tree supports it
- Print a verdict per claim and a support index

Example:
  slopscore analyze https://github.com/spf13/cobra
  slopscore analyze https://github.com/spf13/cobra --json report.json --md report.md
  slopscore analyze https://github.com/spf13/cobra --provider openai --model gpt-4o`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 15*time.Minute, "overall analysis timeout")
	addModelFlags(analyzeCmd)
}

// addModelFlags registers the flags shared by analyze, batch and serve
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "provider", "", "model provider (gemini, openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "model", "", "model name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored terminal output")
	cmd.Flags().BoolVar(&retryEnabled, "retry", false, "retry failed model calls with backoff")
	cmd.Flags().BoolVar(&checkBackend, "check", false, "verify the model backend is reachable before starting")
	cmd.Flags().StringSliceVar(&excludePatterns, "exclude", nil, "glob patterns to drop from the file tree (repeatable)")
}

// applyModelFlags overlays explicitly set flags onto cfg
func applyModelFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = ""
		resolveSecrets(cfg, os.Getenv)
	}
	if flags.Changed("model") {
		cfg.LLM.Model = llmModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if noColor {
		cfg.Output.Color = false
	}
	if retryEnabled {
		cfg.Resilience.Enabled = true
	}
	if len(excludePatterns) > 0 {
		cfg.GitHub.Exclude = append(cfg.GitHub.Exclude, excludePatterns...)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	repoURL := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyModelFlags(cmd, cfg)
	logger := newLogger(cfg.Output.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", repoURL)
		fmt.Fprintf(os.Stderr, "Model:     %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
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
	p, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Store().Subscribe(progress(os.Stderr)); err != nil {
		return err
	}

	snap, runErr := p.Analyze(ctx, repoURL)
	if runErr != nil && snap.Stage == model.StageIdle {
		// Rejected before the run began
		return fmt.Errorf("analyze: %w", runErr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, cfg.Output.Color)
	renderer.RenderSummary(cmd.OutOrStdout(), snap)

	if err := writeReports(renderer, snap, outJSON, outMD); err != nil {
		return err
	}

	if runErr != nil {
		if snap.Error != nil {
			return errors.New(*snap.Error)
		}
		return runErr
	}
	return nil
}

func writeReports(r *pipeline.Renderer, snap model.Snapshot, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.RenderJSON(snap, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", jsonPath)
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(snap, mdPath); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", mdPath)
	}
	return nil
}
