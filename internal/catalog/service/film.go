package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cinemahub/catalog-service/internal/analytics"
	"github.com/cinemahub/catalog-service/internal/catalog/cache"
	"github.com/cinemahub/catalog-service/internal/catalog/cachekey"
	"github.com/cinemahub/catalog-service/internal/catalog/enrich"
	"github.com/cinemahub/catalog-service/internal/catalog/model"
	"github.com/cinemahub/catalog-service/internal/catalog/query"
	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/cinemahub/catalog-service/pkg/logger"
	"github.com/cinemahub/catalog-service/pkg/metrics"
	"github.com/google/uuid"
)

// FilmService answers work queries. Single-film reads are enriched through
// the resolver; list and search views use the summary shape and skip
// enrichment entirely, which is what keeps listing cost independent of the
// number of denormalized references per document.
type FilmService struct {
	index    string
	cache    *cache.ResultCache
	gateway  SearchGateway
	resolver *enrich.Resolver
	builder  *query.Builder
	inst     instrumentation
	logger   *slog.Logger
}

// NewFilmService wires a film service. metrics and collector may be nil.
func NewFilmService(c *cache.ResultCache, gw SearchGateway, resolver *enrich.Resolver,
	m *metrics.Metrics, collector *analytics.Collector) *FilmService {
	return &FilmService{
		index:    MoviesIndex,
		cache:    c,
		gateway:  gw,
		resolver: resolver,
		builder:  query.NewFilmBuilder(),
		inst:     instrumentation{metrics: m, collector: collector},
		logger:   logger.WithComponent("film-service"),
	}
}

// GetByID returns one fully enriched film. ErrNotFound is the normal absent
// outcome; backend faults surface as ErrBackendUnavailable.
func (s *FilmService) GetByID(ctx context.Context, id uuid.UUID) (*model.Film, error) {
	start := time.Now()
	key := cachekey.ByID(FamilyFilm, id)

	film, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() (*model.Film, error) {
		doc, err := s.gateway.GetByID(ctx, s.index, id.String())
		if err != nil {
			return nil, err
		}
		enriched, err := s.resolver.Film(ctx, doc)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrMalformedDocument) {
				// A document that fails shape validation is absent
				// from the caller's point of view.
				logger.FromContext(ctx).Error("dropping malformed film document",
					"id", id, "error", err)
				s.inst.dropped(FamilyFilm)
				return nil, pkgerrors.ErrNotFound
			}
			return nil, err
		}
		s.cache.Set(ctx, key, enriched)
		return enriched, nil
	})

	returned := 0
	if err == nil {
		returned = 1
	}
	s.inst.observe(ctx, FamilyFilm, "get_by_id", "", start, returned, cacheHit, err)
	if err != nil {
		return nil, err
	}
	return film, nil
}

// List returns a page of film summaries ordered by the backend's sort order;
// this layer never re-sorts.
func (s *FilmService) List(ctx context.Context, q query.ListQuery) ([]model.FilmSummary, error) {
	start := time.Now()
	body, err := s.builder.List(q)
	if err != nil {
		return nil, err
	}
	key := cachekey.List(FamilyFilm, q)

	films, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() ([]model.FilmSummary, error) {
		return s.fetchSummaries(ctx, key, body)
	})
	s.inst.observe(ctx, FamilyFilm, "list", "", start, len(films), cacheHit, err)
	return films, err
}

// Search returns a page of film summaries ranked by full-text relevance.
func (s *FilmService) Search(ctx context.Context, q query.SearchQuery) ([]model.FilmSummary, error) {
	start := time.Now()
	body, err := s.builder.Search(q)
	if err != nil {
		return nil, err
	}
	key := cachekey.Search(FamilyFilm, q)

	films, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() ([]model.FilmSummary, error) {
		return s.fetchSummaries(ctx, key, body)
	})
	s.inst.observe(ctx, FamilyFilm, "search", q.Query, start, len(films), cacheHit, err)
	return films, err
}

func (s *FilmService) fetchSummaries(ctx context.Context, key string, body []byte) ([]model.FilmSummary, error) {
	docs, err := s.gateway.Search(ctx, s.index, body)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.FilmSummary, 0, len(docs))
	for _, doc := range docs {
		summary, err := model.ParseFilmSummary(doc.ID, doc.Source)
		if err != nil {
			logger.FromContext(ctx).Error("skipping malformed film hit",
				"id", doc.ID, "error", err)
			s.inst.dropped(FamilyFilm)
			continue
		}
		summaries = append(summaries, summary)
	}
	// Empty results are never cached; a warming-up backend must not mask
	// itself behind the cache for the full TTL.
	if len(summaries) > 0 {
		s.cache.Set(ctx, key, summaries)
	}
	return summaries, nil
}
