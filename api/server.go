// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/poiesic/payermatch"
)

// DefaultMatchThreshold is the threshold used when a request sets none.
const DefaultMatchThreshold = 60

const shutdownTimeout = 30 * time.Second

// Service is the subset of *payermatch.Service the handlers need.
type Service interface {
	MatchTransaction(ctx context.Context, id string, threshold float64) (*payermatch.MatchResult, error)
	TransactionsWithUsers(ctx context.Context, threshold float64) ([]payermatch.TransactionUsers, error)
	SemanticSearch(ctx context.Context, query string, params payermatch.SearchParams) (*payermatch.SearchResult, error)
}

// Server routes HTTP requests to a Service.
type Server struct {
	service        Service
	router         *mux.Router
	logger         *slog.Logger
	matchThreshold int
	searchDefaults payermatch.SearchParams
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMatchThreshold sets the default name match threshold, 0 to 100.
func WithMatchThreshold(threshold int) Option {
	return func(s *Server) error {
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("match threshold %d out of range", threshold)
		}
		s.matchThreshold = threshold
		return nil
	}
}

// WithSearchDefaults sets the semantic search parameters used when a
// request omits them.
func WithSearchDefaults(params payermatch.SearchParams) Option {
	return func(s *Server) error {
		s.searchDefaults = params
		return nil
	}
}

// NewServer creates a Server for service.
func NewServer(service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, errors.New("service is required")
	}

	s := &Server{
		service:        service,
		logger:         slog.Default(),
		matchThreshold: DefaultMatchThreshold,
		searchDefaults: payermatch.DefaultSearchParams(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "api")

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	// Queries may legitimately contain "//" (bank reference codes).
	s.router.SkipClean(true)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	txns := s.router.PathPrefix("/transactions").Subrouter()
	txns.HandleFunc("/transactions_with_users", s.transactionsWithUsers).Methods(http.MethodGet)
	txns.HandleFunc("/semantic_search/{query:.+}", s.semanticSearch).Methods(http.MethodPost)
	txns.HandleFunc("/{id}", s.matchTransaction).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	s.router.Use(recoverPanics(s.logger))
	s.router.Use(requestLogging(s.logger))
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
