package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/slopscore/internal/pipeline"
	"github.com/ppiankov/slopscore/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve exposes a single analysis pipeline over HTTP. Only one analysis runs
at a time; submitting while one is in progress returns 409.

Endpoints:
  POST /v1/analyses   {"repoUrl": "https://github.com/owner/repo"}
  GET  /v1/analysis   current state (?format=markdown for a report)
  GET  /healthz
  GET  /metrics

Example:
  slopscore serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	addModelFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyModelFlags(cmd, cfg)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := newLogger(cfg.Output.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	srv := server.New(p, server.Options{
		Addr:         cfg.Server.Addr,
		AllowOrigins: cfg.Server.AllowOrigins,
		BaseContext:  ctx,
		Renderer:     pipeline.NewRenderer(cfg.Output.IncludeFooter, false),
		Metrics:      a.metrics,
		Logger:       logger,
	})

	fmt.Fprintf(os.Stderr, "✓ Listening on %s (%s/%s)\n", cfg.Server.Addr, cfg.LLM.Provider, cfg.LLM.Model)
	return srv.ListenAndServe(ctx)
}
