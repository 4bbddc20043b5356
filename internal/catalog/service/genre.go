package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cinemahub/catalog-service/internal/analytics"
	"github.com/cinemahub/catalog-service/internal/catalog/cache"
	"github.com/cinemahub/catalog-service/internal/catalog/cachekey"
	"github.com/cinemahub/catalog-service/internal/catalog/model"
	"github.com/cinemahub/catalog-service/internal/catalog/query"
	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/cinemahub/catalog-service/pkg/logger"
	"github.com/cinemahub/catalog-service/pkg/metrics"
	"github.com/google/uuid"
)

// GenreService answers category queries. Genre documents carry no
// denormalized references, so no enrichment step is involved.
type GenreService struct {
	index   string
	cache   *cache.ResultCache
	gateway SearchGateway
	builder *query.Builder
	inst    instrumentation
	logger  *slog.Logger
}

// NewGenreService wires a genre service. metrics and collector may be nil.
func NewGenreService(c *cache.ResultCache, gw SearchGateway,
	m *metrics.Metrics, collector *analytics.Collector) *GenreService {
	return &GenreService{
		index:   GenresIndex,
		cache:   c,
		gateway: gw,
		builder: query.NewGenreBuilder(),
		inst:    instrumentation{metrics: m, collector: collector},
		logger:  logger.WithComponent("genre-service"),
	}
}

// GetByID returns one genre.
func (s *GenreService) GetByID(ctx context.Context, id uuid.UUID) (*model.Genre, error) {
	start := time.Now()
	key := cachekey.ByID(FamilyGenre, id)

	genre, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() (*model.Genre, error) {
		doc, err := s.gateway.GetByID(ctx, s.index, id.String())
		if err != nil {
			return nil, err
		}
		parsed, err := model.ParseGenre(doc.ID, doc.Source)
		if err != nil {
			logger.FromContext(ctx).Error("dropping malformed genre document",
				"id", id, "error", err)
			s.inst.dropped(FamilyGenre)
			return nil, pkgerrors.ErrNotFound
		}
		s.cache.Set(ctx, key, &parsed)
		return &parsed, nil
	})

	returned := 0
	if err == nil {
		returned = 1
	}
	s.inst.observe(ctx, FamilyGenre, "get_by_id", "", start, returned, cacheHit, err)
	if err != nil {
		return nil, err
	}
	return genre, nil
}

// List returns a page of genres in the backend's sort order.
func (s *GenreService) List(ctx context.Context, q query.ListQuery) ([]model.Genre, error) {
	start := time.Now()
	body, err := s.builder.List(q)
	if err != nil {
		return nil, err
	}
	key := cachekey.List(FamilyGenre, q)

	genres, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() ([]model.Genre, error) {
		return s.fetchGenres(ctx, key, body)
	})
	s.inst.observe(ctx, FamilyGenre, "list", "", start, len(genres), cacheHit, err)
	return genres, err
}

// Search returns genres ranked by full-text relevance.
func (s *GenreService) Search(ctx context.Context, q query.SearchQuery) ([]model.Genre, error) {
	start := time.Now()
	body, err := s.builder.Search(q)
	if err != nil {
		return nil, err
	}
	key := cachekey.Search(FamilyGenre, q)

	genres, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() ([]model.Genre, error) {
		return s.fetchGenres(ctx, key, body)
	})
	s.inst.observe(ctx, FamilyGenre, "search", q.Query, start, len(genres), cacheHit, err)
	return genres, err
}

func (s *GenreService) fetchGenres(ctx context.Context, key string, body []byte) ([]model.Genre, error) {
	docs, err := s.gateway.Search(ctx, s.index, body)
	if err != nil {
		return nil, err
	}
	genres := make([]model.Genre, 0, len(docs))
	for _, doc := range docs {
		genre, err := model.ParseGenre(doc.ID, doc.Source)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrMalformedDocument) {
				logger.FromContext(ctx).Error("skipping malformed genre hit",
					"id", doc.ID, "error", err)
				s.inst.dropped(FamilyGenre)
				continue
			}
			return nil, err
		}
		genres = append(genres, genre)
	}
	if len(genres) > 0 {
		s.cache.Set(ctx, key, genres)
	}
	return genres, nil
}
