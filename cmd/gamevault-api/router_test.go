package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustMelih/GameVault/internal/metrics"
	"github.com/JustMelih/GameVault/internal/observability"
	"github.com/JustMelih/GameVault/internal/search"
)

type stubService struct {
	last search.Request
}

func (s *stubService) Search(_ context.Context, req search.Request) (*search.Response, error) {
	s.last = req
	if strings.TrimSpace(req.Query) == "" {
		return nil, search.ErrBlankQuery
	}
	return &search.Response{Items: []search.Item{{Title: "Hades", Why: []string{}}}}, nil
}

func newTestRouter(t *testing.T, reg *prometheus.Registry) (http.Handler, *stubService) {
	t.Helper()
	svc := &stubService{}
	return NewRouter(observability.Nop(), svc, RouterConfig{
		ServiceName:    "gamevault",
		RequestTimeout: time.Second,
		AllowedOrigins: []string{"*"},
		Registry:       reg,
	}), svc
}

func TestRouter_Search(t *testing.T) {
	router, svc := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/search", strings.NewReader(`{"query":"roguelike","limit":3}`))
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "198.51.100.9", svc.last.ClientKey)
	assert.Equal(t, 3, svc.last.Limit)

	var body search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Hades", body.Items[0].Title)
}

func TestRouter_BlankQuery(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ai/search", strings.NewReader(`{"query":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/search", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveSearch(metrics.OutcomeOK, 20*time.Millisecond)

	router, _ = newTestRouter(t, reg)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gamevault_search_requests_total{outcome="ok"} 1`)
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
