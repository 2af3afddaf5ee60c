package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/embed-images/internal/cache"
	"github.com/user/embed-images/internal/collector"
	"github.com/user/embed-images/internal/domain"
	"github.com/user/embed-images/internal/resolver"
)

func (s *Server) handleCollectImages(w http.ResponseWriter, r *http.Request) {
	var req domain.CollectImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HTML == "" {
		s.respondWithError(w, http.StatusBadRequest, "html cannot be empty")
		return
	}

	body, images, err := s.collector.CollectImages(r.Context(), req.HTML, req.Charset)
	if err != nil {
		s.respondWithCollectError(w, err)
		return
	}
	if images == nil {
		images = []domain.Resource{}
	}
	s.respondWithJSON(w, http.StatusOK, domain.CollectImagesResponse{HTML: body, Resources: images})
}

func (s *Server) handleCollectAttachments(w http.ResponseWriter, r *http.Request) {
	var req domain.CollectAttachmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.References) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "references list cannot be empty")
		return
	}

	attachments, err := s.collector.CollectAttachments(r.Context(), req.References)
	if err != nil {
		s.respondWithCollectError(w, err)
		return
	}
	if attachments == nil {
		attachments = []domain.Resource{}
	}
	s.respondWithJSON(w, http.StatusOK, domain.CollectAttachmentsResponse{Resources: attachments})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"cache": "disabled"}
	if s.cache != nil {
		healthStatus["cache"] = "healthy"
		if p, ok := s.cache.(cache.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				healthStatus["cache"] = "unhealthy"
				s.logger.Error("health check failed for cache", zap.Error(err))
				s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
				return
			}
		}
	}

	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithCollectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collector.ErrUnknownCharset):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, resolver.ErrNotFound):
		s.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("collection failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not collect resources")
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
