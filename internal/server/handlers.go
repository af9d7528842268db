package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/similarity"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

func (s *Server) handleTrackConsensus(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicID")
	s.logger.Debug("track consensus request", zap.String("topic_id", topicID))
	snap, err := s.tracker.TrackConsensus(r.Context(), topicID)
	if err != nil {
		s.fail(w, "track consensus", err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLatestConsensus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.tracker.LatestSnapshot(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		s.fail(w, "latest snapshot", err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleConsensusHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	history, err := s.tracker.SnapshotHistory(r.Context(), chi.URLParam(r, "topicID"), limit)
	if err != nil {
		s.fail(w, "snapshot history", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"snapshots": history})
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	found, err := s.identifier.IdentifyPairs(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		s.fail(w, "identify pairs", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"pairs": found})
}

func (s *Server) handleListAnalyzedPairs(w http.ResponseWriter, r *http.Request) {
	records, err := s.analyzer.ListPairs(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		s.fail(w, "list pair records", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"pairs": records})
}

type analyzePairRequest struct {
	UserA string `json:"user_a"`
	UserB string `json:"user_b"`
}

func (s *Server) handleAnalyzePair(w http.ResponseWriter, r *http.Request) {
	var req analyzePairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserA == "" || req.UserB == "" {
		s.respondError(w, http.StatusBadRequest, "user_a and user_b are required")
		return
	}
	topicID := chi.URLParam(r, "topicID")
	s.logger.Debug("analyze pair request",
		zap.String("topic_id", topicID),
		zap.String("user_a", req.UserA),
		zap.String("user_b", req.UserB),
	)
	res, err := s.analyzer.AnalyzePair(r.Context(), topicID, req.UserA, req.UserB)
	if err != nil {
		s.fail(w, "analyze pair", err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetPair(w http.ResponseWriter, r *http.Request) {
	rec, err := s.analyzer.GetPair(r.Context(),
		chi.URLParam(r, "topicID"), chi.URLParam(r, "userA"), chi.URLParam(r, "userB"))
	if err != nil {
		s.fail(w, "get pair record", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

type similarityRequest struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.similarity.Similarity(r.Context(), req.Text1, req.Text2, nil)
	if err != nil {
		s.fail(w, "similarity", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"score":    res.Score,
		"strategy": res.Strategy,
		"cached":   res.Cached,
		"measured": res.Measured(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.Stats(r.Context())
	if err != nil {
		s.fail(w, "status", err)
		return
	}
	resp := map[string]interface{}{"counts": stats}

	if s.config != nil {
		rubrics := make([]string, 0, len(s.config.Quality.Rubrics))
		for name := range s.config.Quality.Rubrics {
			rubrics = append(rubrics, name)
		}
		resp["config"] = map[string]interface{}{
			"database_path":    s.config.Storage.DatabasePath,
			"cache_backend":    s.config.Cache.Backend,
			"ai_provider":      s.config.AI.Provider,
			"ai_default_creds": s.config.AI.APIKey != "",
			"retain_snapshots": s.config.Consensus.RetainSnapshots,
			"rubrics":          rubrics,
		}
		if size, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
			resp["disk_usage_bytes"] = size
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, similarity.ErrEmptyText):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrVersionConflict):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
