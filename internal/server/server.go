// Package server exposes a single-user HTTP API over one analysis pipeline.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/slopscore/internal/metrics"
	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/pipeline"
)

// Analyzer starts runs and reports the current state
type Analyzer interface {
	Start(ctx context.Context, repoURL string) (*pipeline.Run, error)
	Snapshot() model.Snapshot
}

// Options configures a Server
type Options struct {
	Addr         string
	AllowOrigins []string

	// BaseContext bounds every run started through the API
	BaseContext context.Context

	Renderer *pipeline.Renderer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server is the HTTP API
type Server struct {
	engine   *gin.Engine
	analyzer Analyzer
	runCtx   context.Context
	renderer *pipeline.Renderer
	logger   *slog.Logger
	addr     string
}

// New builds the router
func New(analyzer Analyzer, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		analyzer: analyzer,
		runCtx:   opts.BaseContext,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		addr:     opts.Addr,
	}
	if s.runCtx == nil {
		s.runCtx = context.Background()
	}
	if s.renderer == nil {
		s.renderer = pipeline.NewRenderer(true, false)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	if len(opts.AllowOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:  opts.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	s.engine.GET("/healthz", s.health)
	if opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/analyses", s.submit)
		v1.GET("/analysis", s.current)
	}
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type submitRequest struct {
	RepoURL string `json:"repoUrl" binding:"required"`
}

func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	run, err := s.analyzer.Start(s.runCtx, req.RepoURL)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"err": err.Error()})
		return
	}

	c.Header("Location", "/v1/analysis")
	c.JSON(http.StatusAccepted, gin.H{
		"runId": run.ID,
		"stage": model.StageExtractingFeatures,
	})
}

func (s *Server) current(c *gin.Context) {
	snap := s.analyzer.Snapshot()
	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.renderer.Markdown(snap)))
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
