// Package enrich repairs denormalized film documents: bare genre name
// strings become full genre records and the embedded director becomes a
// normalized contributor list. Resolution is batched — one multi-match
// lookup per response instead of one round trip per name — and fronted by a
// short-lived in-process name cache so identical names across documents in
// the same response resolve once.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/cinemahub/catalog-service/internal/catalog/model"
	"github.com/cinemahub/catalog-service/internal/catalog/search"
	"github.com/cinemahub/catalog-service/pkg/config"
	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/cinemahub/catalog-service/pkg/logger"
	"github.com/cinemahub/catalog-service/pkg/metrics"
	"github.com/viccon/sturdyc"
)

const nameCacheShards = 64

// Searcher is the auxiliary-lookup contract the resolver needs from the
// search gateway.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) ([]search.Document, error)
}

// Resolver resolves denormalized references against the genre index.
type Resolver struct {
	searcher   Searcher
	genreIndex string
	names      *sturdyc.Client[model.Genre]
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Resolver. The metrics parameter may be nil.
func New(searcher Searcher, genreIndex string, cfg config.CatalogConfig, m *metrics.Metrics) *Resolver {
	return &Resolver{
		searcher:   searcher,
		genreIndex: genreIndex,
		names: sturdyc.New[model.Genre](
			cfg.GenreCacheCapacity,
			nameCacheShards,
			cfg.GenreCacheTTL,
			10,
		),
		metrics: m,
		logger:  logger.WithComponent("enrichment-resolver"),
	}
}

// Film converts a raw film document into a fully structured entity. Genre
// names are resolved through the genre index; the embedded director is
// normalized into a list of zero or one contributors. A document that fails
// shape validation afterwards is rejected as malformed, never returned
// partially populated.
func (r *Resolver) Film(ctx context.Context, doc search.Document) (*model.Film, error) {
	raw, err := model.ParseRawFilm(doc.ID, doc.Source)
	if err != nil {
		return nil, err
	}

	genres, err := r.ResolveGenres(ctx, raw.GenreNames)
	if err != nil {
		return nil, err
	}

	film, err := raw.ToFilm(genres)
	if err != nil {
		return nil, err
	}
	return &film, nil
}

// ResolveGenres resolves a set of genre names to full records, preserving
// the document's name order. Names with no match in the genre index are
// omitted and recorded; an unresolved reference is not an error. A backend
// failure during the lookup propagates.
func (r *Resolver) ResolveGenres(ctx context.Context, names []string) ([]model.Genre, error) {
	genres := make([]model.Genre, 0, len(names))
	if len(names) == 0 {
		return genres, nil
	}

	distinct := distinctNames(names)
	resolved, err := r.names.GetOrFetchBatch(ctx, distinct, r.names.BatchKeyFn("genre-name"), r.fetchGenres)
	if err != nil && !errors.Is(err, sturdyc.ErrOnlyCachedRecords) {
		return nil, err
	}

	for _, name := range names {
		genre, ok := resolved[strings.ToLower(name)]
		if !ok {
			r.logger.Warn("genre name unresolved, omitting", "name", name)
			if r.metrics != nil {
				r.metrics.UnresolvedGenres.Inc()
			}
			continue
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// fetchGenres issues one multi-term lookup for every name missing from the
// in-process cache. The returned map is keyed by lowercased name.
func (r *Resolver) fetchGenres(ctx context.Context, names []string) (map[string]model.Genre, error) {
	body, err := genreLookupBody(names)
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.EnrichmentLookups.Inc()
	}

	docs, err := r.searcher.Search(ctx, r.genreIndex, body)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = struct{}{}
	}

	resolved := make(map[string]model.Genre, len(names))
	for _, doc := range docs {
		genre, err := model.ParseGenre(doc.ID, doc.Source)
		if err != nil {
			r.logger.Error("dropping malformed genre document", "id", doc.ID, "error", err)
			continue
		}
		key := strings.ToLower(genre.Name)
		if _, ok := wanted[key]; !ok {
			// Analyzed match can return near-misses; only exact
			// names count as resolved.
			continue
		}
		if _, exists := resolved[key]; !exists {
			resolved[key] = genre
		}
	}
	return resolved, nil
}

func genreLookupBody(names []string) ([]byte, error) {
	should := make([]map[string]any, 0, len(names))
	for _, name := range names {
		should = append(should, map[string]any{
			"match": map[string]string{"name": name},
		})
	}
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"size": 10 * len(names),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, 0,
			"marshaling genre lookup: %v", err)
	}
	return data, nil
}

func distinctNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	distinct := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, key)
	}
	return distinct
}
