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

// PersonService answers contributor queries. Like genres, person documents
// need no enrichment.
type PersonService struct {
	index   string
	cache   *cache.ResultCache
	gateway SearchGateway
	builder *query.Builder
	inst    instrumentation
	logger  *slog.Logger
}

// NewPersonService wires a person service. metrics and collector may be nil.
func NewPersonService(c *cache.ResultCache, gw SearchGateway,
	m *metrics.Metrics, collector *analytics.Collector) *PersonService {
	return &PersonService{
		index:   PersonsIndex,
		cache:   c,
		gateway: gw,
		builder: query.NewPersonBuilder(),
		inst:    instrumentation{metrics: m, collector: collector},
		logger:  logger.WithComponent("person-service"),
	}
}

// GetByID returns one person.
func (s *PersonService) GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	start := time.Now()
	key := cachekey.ByID(FamilyPerson, id)

	person, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() (*model.Person, error) {
		doc, err := s.gateway.GetByID(ctx, s.index, id.String())
		if err != nil {
			return nil, err
		}
		parsed, err := model.ParsePerson(doc.ID, doc.Source)
		if err != nil {
			logger.FromContext(ctx).Error("dropping malformed person document",
				"id", id, "error", err)
			s.inst.dropped(FamilyPerson)
			return nil, pkgerrors.ErrNotFound
		}
		s.cache.Set(ctx, key, &parsed)
		return &parsed, nil
	})

	returned := 0
	if err == nil {
		returned = 1
	}
	s.inst.observe(ctx, FamilyPerson, "get_by_id", "", start, returned, cacheHit, err)
	if err != nil {
		return nil, err
	}
	return person, nil
}

// List returns a page of persons in the backend's sort order.
func (s *PersonService) List(ctx context.Context, q query.ListQuery) ([]model.Person, error) {
	start := time.Now()
	body, err := s.builder.List(q)
	if err != nil {
		return nil, err
	}
	key := cachekey.List(FamilyPerson, q)

	persons, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() ([]model.Person, error) {
		return s.fetchPersons(ctx, key, body)
	})
	s.inst.observe(ctx, FamilyPerson, "list", "", start, len(persons), cacheHit, err)
	return persons, err
}

// Search returns persons ranked by full-text relevance.
func (s *PersonService) Search(ctx context.Context, q query.SearchQuery) ([]model.Person, error) {
	start := time.Now()
	body, err := s.builder.Search(q)
	if err != nil {
		return nil, err
	}
	key := cachekey.Search(FamilyPerson, q)

	persons, cacheHit, err := cache.GetOrCompute(ctx, s.cache, key, func() ([]model.Person, error) {
		return s.fetchPersons(ctx, key, body)
	})
	s.inst.observe(ctx, FamilyPerson, "search", q.Query, start, len(persons), cacheHit, err)
	return persons, err
}

func (s *PersonService) fetchPersons(ctx context.Context, key string, body []byte) ([]model.Person, error) {
	docs, err := s.gateway.Search(ctx, s.index, body)
	if err != nil {
		return nil, err
	}
	persons := make([]model.Person, 0, len(docs))
	for _, doc := range docs {
		person, err := model.ParsePerson(doc.ID, doc.Source)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrMalformedDocument) {
				logger.FromContext(ctx).Error("skipping malformed person hit",
					"id", doc.ID, "error", err)
				s.inst.dropped(FamilyPerson)
				continue
			}
			return nil, err
		}
		persons = append(persons, person)
	}
	if len(persons) > 0 {
		s.cache.Set(ctx, key, persons)
	}
	return persons, nil
}
