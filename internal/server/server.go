// Package server exposes the chart session over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/session"
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures a Server.
type Options struct {
	Addr          string
	ShareBaseURL  string
	MaxTokenChars int
	SampleRows    int
	Defaults      chart.Config
	Logger        *slog.Logger
}

// Server serves the analyze and restore API. Every request gets its own
// session, so handlers share no mutable state.
type Server struct {
	opts   Options
	logger *slog.Logger
	engine *gin.Engine
}

// New builds a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Defaults.Kind == "" {
		opts.Defaults = chart.DefaultConfig()
	}
	s := &Server{opts: opts, logger: opts.Logger}
	r := gin.New()
	r.Use(gin.Recovery(), requestID())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1 := r.Group("/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/restore", s.handleRestore)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("chartloom API listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

const requestIDHeader = "X-Request-ID"

// requestID propagates or assigns a request id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) newSession(c *gin.Context) (*session.Session, *slog.Logger) {
	logger := s.logger.With("request_id", c.GetString("request_id"))
	codecOpts := []share.Option{}
	if s.opts.MaxTokenChars > 0 {
		codecOpts = append(codecOpts, share.WithMaxTokenChars(s.opts.MaxTokenChars))
	}
	sess := session.New(
		session.WithLogger(logger),
		session.WithCodec(share.NewCodec(codecOpts...)),
		session.WithSampleRows(s.opts.SampleRows),
		session.WithDefaults(s.opts.Defaults),
	)
	return sess, logger.With("session_id", sess.ID)
}
