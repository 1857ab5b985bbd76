// Package handler exposes the querier service over HTTP: a single search
// endpoint plus cache inspection/invalidation, grounded on the teacher's
// search handler shape (request parsing, optional cache-through, analytics
// tracking) but driven by the block-index querier instead of a sharded
// in-memory engine.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nilquery/ixora/internal/analytics"
	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/querier"
	"github.com/nilquery/ixora/internal/searcher/cache"
	"github.com/nilquery/ixora/pkg/logger"
	"github.com/nilquery/ixora/pkg/middleware"
	"github.com/nilquery/ixora/pkg/tracing"
)

// SearchResult is the JSON response shape for a search request.
type SearchResult struct {
	Query   string         `json:"query"`
	Results []querier.Hit  `json:"results"`
	Params  ParamsResponse `json:"params"`
}

// ParamsResponse reports the BM25 parameters used to compute a response,
// so callers can tell which tuning produced a given ranking.
type ParamsResponse struct {
	K1 float64 `json:"k1"`
	B  float64 `json:"b"`
}

// QueryRunner is implemented by *querier.Service.
type QueryRunner interface {
	Search(raw string, k int, params bm25.Params) ([]querier.Hit, error)
}

type Handler struct {
	searcher     QueryRunner
	cache        *cache.QueryCache
	collector    *analytics.Collector
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(searcher QueryRunner, queryCache *cache.QueryCache, collector *analytics.Collector, defaultLimit, maxResults int) *Handler {
	return &Handler{
		searcher:     searcher,
		cache:        queryCache,
		collector:    collector,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	ctx, span := tracing.StartSpan(ctx, "search.request", middleware.GetRequestID(ctx))
	defer span.End()
	defer span.Log()

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	params := bm25.DefaultParams()
	if k1Str := r.URL.Query().Get("k1"); k1Str != "" {
		parsed, err := strconv.ParseFloat(k1Str, 64)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "k1 must be a non-negative number")
			return
		}
		params.K1 = parsed
	}
	if bStr := r.URL.Query().Get("b"); bStr != "" {
		parsed, err := strconv.ParseFloat(bStr, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			h.writeError(w, http.StatusBadRequest, "b must be between 0 and 1")
			return
		}
		params.B = parsed
	}

	var hits []querier.Hit
	var err error
	cacheHit := false

	compute := func() ([]querier.Hit, error) {
		_, evalSpan := tracing.StartChildSpan(ctx, "search.evaluate")
		defer evalSpan.End()
		evalSpan.SetAttr("query", q)
		evalSpan.SetAttr("limit", limit)
		return h.searcher.Search(q, limit, params)
	}

	if h.cache != nil {
		hits, cacheHit, err = h.cache.GetOrCompute(ctx, q, limit, params, compute)
	} else {
		hits, err = compute()
	}
	span.SetAttr("cache_hit", cacheHit)
	span.SetAttr("result_count", len(hits))
	if err != nil {
		log.Error("search execution failed", "query", q, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if hits == nil {
		hits = []querier.Hit{}
	}

	result := &SearchResult{
		Query:   q,
		Results: hits,
		Params:  ParamsResponse{K1: params.K1, B: params.B},
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", q,
		"returned", len(hits),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)

	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     q,
			TotalHits: len(hits),
			Returned:  len(hits),
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
