// Package server exposes the star analysis operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kevinmichaelchen/star-topics/internal/logger"
	"github.com/kevinmichaelchen/star-topics/internal/models"
	"github.com/sirupsen/logrus"
)

// Analyzer is implemented by pipeline.Service.
type Analyzer interface {
	RepoInfo(ctx context.Context, username string, maxRepos *int) ([]models.RepoSummary, error)
	AnalyzeUser(ctx context.Context, username string, maxRepos *int, includeReadme bool) (*models.AnalysisResult, error)
}

type Server struct {
	analyzer       Analyzer
	addr           string
	requestTimeout time.Duration
	server         *http.Server
}

func NewServer(analyzer Analyzer, addr string, requestTimeout time.Duration) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	s := &Server{
		analyzer:       analyzer,
		addr:           addr,
		requestTimeout: requestTimeout,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed and logged handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return logRequests(mux)
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /github/repos/{username}/info", s.getRepoInfo)
	mux.HandleFunc("GET /github/analyze/user/{username}/analysis", s.getAnalysis)
	mux.HandleFunc("GET /healthz", s.getHealth)
}

// Start listens on the configured address and blocks until Stop is called.
func (s *Server) Start() error {
	logger.Infof("[Server] listening on %s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	logger.Infof("[Server] shutting down")
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
