// Package status exposes a minimal gin-based HTTP surface for operator
// visibility into the poller's last cycle, adapted from this codebase's
// internal/server wiring (gin.New + Logger/Recovery middleware, a
// *http.Server with the same timeouts, and a context-based Shutdown).
package status

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Server serves /healthz and /status over HTTP. It never participates in
// the scan path; Publish is the only way a result reaches it.
type Server struct {
	httpServer *http.Server
	mu         sync.RWMutex
	ready      bool
	lastResult any
}

// New builds a Server bound to addr (e.g. ":8089").
func New(addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	s := &Server{}
	router.GET("/healthz", s.handleHealthz)
	router.GET("/status", s.handleStatus)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// MarkReady flips the liveness probe to healthy once the ledger and
// dedup backing stores have both connected successfully at least once.
func (s *Server) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

// Publish records the most recent cycle result for /status to serve.
func (s *Server) Publish(result any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = result
}

// Start runs the HTTP server; it blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("starting status server", "address", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	if !ready {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	result := s.lastResult
	s.mu.RUnlock()

	if result == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, result)
}
