package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
	EventRebuild    EventType = "index_rebuild"
	EventZeroResult EventType = "zero_result"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// RebuildEvent is emitted by the periodic full-merge rebuild loop after
// each completed generation.
type RebuildEvent struct {
	Type          EventType `json:"type"`
	Generation    string    `json:"generation"`
	DocumentCount uint64    `json:"document_count"`
	TermCount     uint64    `json:"term_count"`
	PostingCount  uint64    `json:"posting_count"`
	DocsMarked    int64     `json:"docs_marked"`
	LatencyMs     int64     `json:"latency_ms"`
	Timestamp     time.Time `json:"timestamp"`
}
