// Package service orchestrates the cache-aside read path for the three
// catalog entity families. Each service is constructed once at startup with
// its cache and gateway injected; there is no lazily built global state.
//
// Every operation follows the same ordering: cache lookup, then backend
// query, then cache write, then return. Backend errors propagate untouched
// and are never cached; empty results are never cached either.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cinemahub/catalog-service/internal/analytics"
	"github.com/cinemahub/catalog-service/internal/catalog/search"
	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/cinemahub/catalog-service/pkg/logger"
	"github.com/cinemahub/catalog-service/pkg/metrics"
)

// Entity family names used in cache keys, metrics, and analytics events.
const (
	FamilyFilm   = "film"
	FamilyGenre  = "genre"
	FamilyPerson = "person"
)

// Default index names consulted on the backend.
const (
	MoviesIndex  = "movies"
	GenresIndex  = "genres"
	PersonsIndex = "persons"
)

// SearchGateway is the backend contract shared by all entity services.
type SearchGateway interface {
	GetByID(ctx context.Context, index, id string) (search.Document, error)
	Search(ctx context.Context, index string, body []byte) ([]search.Document, error)
}

// instrumentation bundles the optional metrics and analytics sinks. Both
// fields may be nil.
type instrumentation struct {
	metrics   *metrics.Metrics
	collector *analytics.Collector
}

func (i instrumentation) observe(ctx context.Context, family, operation, queryText string,
	start time.Time, returned int, cacheHit bool, err error) {
	latency := time.Since(start)

	if i.metrics != nil {
		i.metrics.CatalogQueriesTotal.WithLabelValues(family, operation, outcome(cacheHit, err)).Inc()
		if err == nil || errors.Is(err, pkgerrors.ErrNotFound) {
			status := "miss"
			if cacheHit {
				status = "hit"
				i.metrics.CacheHitsTotal.WithLabelValues(family).Inc()
			} else {
				i.metrics.CacheMissesTotal.WithLabelValues(family).Inc()
			}
			i.metrics.CatalogQueryLatency.WithLabelValues(family, status).Observe(latency.Seconds())
		}
	}

	if err == nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		i.collector.Track(analytics.QueryEvent{
			Type:      eventType,
			Family:    family,
			Operation: operation,
			Query:     queryText,
			Returned:  returned,
			CacheHit:  cacheHit,
			LatencyMs: latency.Milliseconds(),
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestIDFromContext(ctx),
		})
	}
}

func (i instrumentation) dropped(family string) {
	if i.metrics != nil {
		i.metrics.DocsDroppedTotal.WithLabelValues(family, "malformed").Inc()
	}
}

func outcome(cacheHit bool, err error) string {
	switch {
	case err == nil && cacheHit:
		return "hit"
	case err == nil:
		return "miss"
	case errors.Is(err, pkgerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, pkgerrors.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
