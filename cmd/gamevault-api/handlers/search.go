// Package handlers provides HTTP handlers for the GameVault API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/JustMelih/GameVault/internal/observability"
	"github.com/JustMelih/GameVault/internal/search"
)

const maxBodyBytes = 1 << 16

// Searcher runs the discovery pipeline.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// SearchHandler serves natural-language game searches.
type SearchHandler struct {
	logger  *observability.Logger
	service Searcher
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, service Searcher) *SearchHandler {
	return &SearchHandler{
		logger:  logger.WithComponent("search_handler"),
		service: service,
	}
}

// SearchRequestDTO is the API request body.
type SearchRequestDTO struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Search handles POST /api/ai/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO SearchRequestDTO
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.service.Search(ctx, search.Request{
		Query:     reqDTO.Query,
		Limit:     reqDTO.Limit,
		ClientKey: clientKey(r),
	})
	switch {
	case err == nil:
	case errors.Is(err, search.ErrBlankQuery):
		writeError(w, http.StatusBadRequest, "query is required", "")
		return
	case errors.Is(err, search.ErrThrottled):
		writeError(w, http.StatusTooManyRequests, "too many requests", "")
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client is gone or the request budget ran out; nothing useful
		// can be written.
		h.logger.WithContext(ctx).Debug().Err(err).Msg("Search abandoned")
		return
	default:
		h.logger.WithContext(ctx).Error().Err(err).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search failed", "")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// clientKey is the remote IP without port. chi's RealIP middleware has
// already replaced RemoteAddr with the forwarded address when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
