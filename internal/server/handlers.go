package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/caldera-ai/recall/internal/cache"
	"github.com/caldera-ai/recall/internal/models"
	"github.com/caldera-ai/recall/internal/retrieval"
	"github.com/caldera-ai/recall/internal/vector"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	engine, err := s.registry.Engine(tenant)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request",
		zap.String("tenant", tenant), zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := engine.SearchKnowledge(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.String("tenant", tenant), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

type storeKnowledgeRequest struct {
	Items []*models.KnowledgeInput `json:"items"`
}

func (s *Server) handleStoreKnowledge(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	var req storeKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		s.respondError(w, http.StatusBadRequest, "no items provided")
		return
	}

	texts := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Content == "" {
			s.respondError(w, http.StatusBadRequest, "item content must not be empty")
			return
		}
		texts[i] = item.Content
	}
	embeddings, err := s.embedder.EmbedBatch(r.Context(), texts)
	if err != nil {
		s.logger.Error("embedding failed on write path", zap.String("tenant", tenant), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "embedding generation failed")
		return
	}

	now := time.Now()
	records := make([]*models.KnowledgeRecord, len(req.Items))
	for i, item := range req.Items {
		records[i] = &models.KnowledgeRecord{
			ID:        item.ID,
			Embedding: embeddings[i],
			Metadata: models.KnowledgeMetadata{
				Title:      item.Title,
				Content:    item.Content,
				Category:   item.Category,
				SourceType: item.SourceType,
				SourceURL:  item.SourceURL,
				UpdatedAt:  now,
			},
		}
	}
	if err := s.store.StoreVectors(r.Context(), tenant, records); err != nil {
		s.logger.Error("store failed", zap.String("tenant", tenant), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := s.refreshTenant(r, tenant)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"stored":  len(records),
		"refresh": res,
	})
}

func (s *Server) handleDeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	sourceURL := r.URL.Query().Get("source_url")
	if sourceURL == "" {
		s.respondError(w, http.StatusBadRequest, "source_url query parameter required")
		return
	}
	deleted, err := s.store.DeleteBySource(r.Context(), tenant, sourceURL)
	if err != nil {
		s.logger.Error("delete failed", zap.String("tenant", tenant), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := s.refreshTenant(r, tenant)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
		"refresh": res,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	res, err := s.refreshTenant(r, tenant)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleWarmup(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	summary := s.warmer.Warm(r.Context(), tenant)
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	engine, err := s.registry.Engine(tenant)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, engine.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) refreshTenant(r *http.Request, tenant string) (*models.InitResult, error) {
	engine, err := s.registry.Engine(tenant)
	if err != nil {
		return nil, err
	}
	res, err := engine.Refresh(r.Context())
	if err != nil {
		s.logger.Error("cache refresh failed", zap.String("tenant", tenant), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// statusFor maps the retrieval error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, retrieval.ErrEmptyQuery),
		errors.Is(err, retrieval.ErrQueryTooLong),
		errors.Is(err, retrieval.ErrLimitExceeded),
		errors.Is(err, vector.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrCacheNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, retrieval.ErrEmbeddingFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
