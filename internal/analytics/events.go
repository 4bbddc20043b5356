package analytics

import "time"

type EventType string

const (
	EventCacheHit  EventType = "cache_hit"
	EventCacheMiss EventType = "cache_miss"
)

// QueryEvent describes one catalog query for downstream analytics.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Family    string    `json:"family"`
	Operation string    `json:"operation"`
	Query     string    `json:"query,omitempty"`
	Returned  int       `json:"returned"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
