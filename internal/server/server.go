// Package server is the key-injecting proxy in front of the headline
// provider.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matheuskafuri/newswave/internal/gateway"
	"github.com/matheuskafuri/newswave/internal/news"
	"go.uber.org/zap"
)

// NetlifyPath is accepted in addition to the configured path so clients
// built against the serverless function keep working.
const NetlifyPath = "/.netlify/functions/fetchNews"

const shutdownTimeout = 10 * time.Second

// Upstream produces the raw answer for a category.
type Upstream interface {
	Relay(ctx context.Context, category news.Category) (gateway.Relay, error)
}

type Options struct {
	Addr     string
	Path     string
	Upstream Upstream
	Logger   *zap.Logger
}

type Server struct {
	addr     string
	path     string
	upstream Upstream
	log      *zap.Logger
	router   *gin.Engine
}

func New(opts Options) *Server {
	s := &Server{
		addr:     opts.Addr,
		path:     opts.Path,
		upstream: opts.Upstream,
		log:      opts.Logger,
	}
	if s.path == "" {
		s.path = "/api/news"
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(s.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET(s.path, s.handleNews)
	if s.path != NetlifyPath {
		r.GET(NetlifyPath, s.handleNews)
	}
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleNews(c *gin.Context) {
	raw := c.Query("category")
	if raw == "" {
		raw = string(news.DefaultCategory)
	}
	category, err := news.ParseCategory(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	relay, err := s.upstream.Relay(c.Request.Context(), category)
	if err != nil {
		if gateway.IsKind(err, gateway.KindConfig) {
			s.log.Error("proxy misconfigured", zap.Error(err))
		} else {
			s.log.Warn("upstream request failed", zap.String("category", category.String()), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	contentType := relay.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(relay.Status, contentType, relay.Body)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("proxy listening", zap.String("addr", s.addr), zap.String("path", s.path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("proxy shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
