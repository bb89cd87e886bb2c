// Package server exposes the ledger, feed and summary operations over HTTP.
// Every mutation answers with a tagged result so clients never have to guess
// whether a write happened.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/feed"
	"github.com/spigell/jobswipe/internal/filtering"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/logger"
	"github.com/spigell/jobswipe/internal/summary"
)

const shutdownTimeout = 10 * time.Second

type Ledger interface {
	Get(ctx context.Context, userID string) (*ledger.Ledger, error)
	Like(ctx context.Context, userID, jobID string) error
	Dislike(ctx context.Context, userID, jobID string) error
	Unlike(ctx context.Context, userID, jobID string) error
	Undislike(ctx context.Context, userID, jobID string) error
	LikedJobs(ctx context.Context, userID string) ([]string, error)
	DislikedJobs(ctx context.Context, userID string) ([]string, error)
}

type FeedBuilder interface {
	Build(ctx context.Context, userID string, poolLimit int) (*feed.Feed, error)
	Filters() []filtering.Status
}

type Summaries interface {
	Summarize(ctx context.Context, userID, displayName string) (*summary.Summary, error)
	Get(ctx context.Context, userID string) (*summary.Summary, error)
}

// Deps are the services behind the routes. Summaries may be nil when no
// language model is configured; the summary routes then answer 503.
type Deps struct {
	Ledger    Ledger
	Feed      FeedBuilder
	Summaries Summaries
}

type Server struct {
	deps     Deps
	validate *validator.Validate
	logger   *zap.Logger
	handler  http.Handler
}

func New(deps Deps, log *zap.Logger) *Server {
	s := &Server{
		deps:     deps,
		validate: validator.New(),
		logger:   logger.WithFields(log, zap.String("component", "http")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /users/{userID}/ledger", s.handleGetLedger)
	mux.HandleFunc("GET /users/{userID}/likes", s.handleLikedJobs)
	mux.HandleFunc("GET /users/{userID}/dislikes", s.handleDislikedJobs)
	mux.HandleFunc("POST /users/{userID}/likes/{jobID}", s.mutation(deps.Ledger.Like))
	mux.HandleFunc("DELETE /users/{userID}/likes/{jobID}", s.mutation(deps.Ledger.Unlike))
	mux.HandleFunc("POST /users/{userID}/dislikes/{jobID}", s.mutation(deps.Ledger.Dislike))
	mux.HandleFunc("DELETE /users/{userID}/dislikes/{jobID}", s.mutation(deps.Ledger.Undislike))

	mux.HandleFunc("GET /users/{userID}/feed", s.handleFeed)
	mux.HandleFunc("GET /feed/filters", s.handleFeedFilters)

	mux.HandleFunc("POST /users/{userID}/summary", s.handleSummarize)
	mux.HandleFunc("GET /users/{userID}/summary", s.handleGetSummary)

	s.handler = s.withLogging(mux)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
