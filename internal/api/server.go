// Package api implements the HTTP API: scrape job control, job inspection,
// and document search.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerkeep/regwatch/internal/logger"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config holds HTTP server settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	log        logger.Interface
}

// NewServer creates the server and registers all routes.
func NewServer(cfg Config, jobs *JobsHandler, search *SearchHandler, log logger.Interface) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	registerRoutes(engine, jobs, search)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: log,
	}
}

// registerRoutes wires the route table.
func registerRoutes(engine *gin.Engine, jobs *JobsHandler, search *SearchHandler) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/scrape/jobs", jobs.CreateJob)
		v1.GET("/scrape/jobs", jobs.ListJobs)
		v1.GET("/scrape/jobs/:id", jobs.GetJob)

		v1.GET("/search", search.Search)
		v1.GET("/search/similar/:id", search.Similar)
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	s.log.Info("http server stopped")
	return nil
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
