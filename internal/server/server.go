// Package server provides the HTTP API for the consensus engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/config"
	"github.com/Miyazak1/linklore-sub001/internal/consensus"
	"github.com/Miyazak1/linklore-sub001/internal/pairs"
	"github.com/Miyazak1/linklore-sub001/internal/similarity"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

// Server is the HTTP server for the consensus API.
type Server struct {
	tracker    *consensus.TopicTracker
	analyzer   *consensus.PairAnalyzer
	identifier *pairs.Identifier
	similarity *similarity.Service
	storage    storage.Storage
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	tracker *consensus.TopicTracker,
	analyzer *consensus.PairAnalyzer,
	identifier *pairs.Identifier,
	sim *similarity.Service,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		tracker:    tracker,
		analyzer:   analyzer,
		identifier: identifier,
		similarity: sim,
		storage:    store,
		config:     cfg,
		logger:     logger,
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/similarity", s.handleSimilarity)
		r.Route("/topics/{topicID}", func(r chi.Router) {
			r.Post("/consensus", s.handleTrackConsensus)
			r.Get("/consensus", s.handleLatestConsensus)
			r.Get("/consensus/history", s.handleConsensusHistory)
			r.Get("/pairs", s.handleListPairs)
			r.Get("/pairs/analyzed", s.handleListAnalyzedPairs)
			r.Post("/pairs/analyze", s.handleAnalyzePair)
			r.Get("/pairs/{userA}/{userB}", s.handleGetPair)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
