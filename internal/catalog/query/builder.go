// Package query converts list and search parameters into the Elasticsearch
// query bodies executed by the search gateway. The bodies are opaque to
// callers; only the gateway interprets them.
package query

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
)

// ListQuery carries the parameters of a listing request. PageSize and
// PageNumber are positive; the HTTP boundary enforces the bounds.
type ListQuery struct {
	Filter     string
	Sort       string
	PageSize   int
	PageNumber int
}

// SearchQuery carries the parameters of a free-text request. Query is
// non-empty; the HTTP boundary rejects blank queries.
type SearchQuery struct {
	Query      string
	PageSize   int
	PageNumber int
}

// Builder constructs query bodies for one entity family. Each family gets
// its own allow-list of sortable fields, default sort, filter field, and
// full-text fields.
type Builder struct {
	defaultSort  SortSpec
	sortable     map[Field]struct{}
	filterField  string
	searchFields []string
}

// NewFilmBuilder builds queries for the works index: genre filtering,
// rating/title sorting (rating descending by default), and full-text search
// over title (boosted) and description.
func NewFilmBuilder() *Builder {
	return &Builder{
		defaultSort:  SortSpec{Field: FieldRating, Direction: Descending},
		sortable:     allow(FieldRating, FieldTitle),
		filterField:  "genre",
		searchFields: []string{"title^5", "description"},
	}
}

// NewGenreBuilder builds queries for the genres index.
func NewGenreBuilder() *Builder {
	return &Builder{
		defaultSort:  SortSpec{Field: FieldName, Direction: Ascending},
		sortable:     allow(FieldName),
		searchFields: []string{"name^3", "description"},
	}
}

// NewPersonBuilder builds queries for the persons index.
func NewPersonBuilder() *Builder {
	return &Builder{
		defaultSort:  SortSpec{Field: FieldFullName, Direction: Ascending},
		sortable:     allow(FieldFullName),
		searchFields: []string{"full_name"},
	}
}

// List builds the body for a filtered, sorted, paginated listing.
func (b *Builder) List(q ListQuery) ([]byte, error) {
	if q.Filter != "" && b.filterField == "" {
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, 0,
			"filtering is not supported for this entity family")
	}
	sort, err := b.ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}

	must := []any{}
	if q.Filter != "" {
		// Filter matches by name, not id; ambiguous names are not
		// disambiguated at this layer.
		must = append(must, match{b.filterField: q.Filter})
	}

	body := esBody{
		Query: map[string]any{
			"bool": map[string]any{"must": must},
		},
		Sort: []map[string]esOrder{
			{string(sort.Field): {Order: string(sort.Direction)}},
		},
		From: offset(q.PageNumber, q.PageSize),
		Size: q.PageSize,
	}
	return marshalBody(body)
}

// Search builds the multi-match body for a free-text query. Title matches
// outrank description matches through the field boost.
func (b *Builder) Search(q SearchQuery) ([]byte, error) {
	body := esBody{
		Query: map[string]any{
			"multi_match": map[string]any{
				"query":  q.Query,
				"fields": b.searchFields,
			},
		},
		From: offset(q.PageNumber, q.PageSize),
		Size: q.PageSize,
	}
	return marshalBody(body)
}

type esBody struct {
	Query map[string]any       `json:"query"`
	Sort  []map[string]esOrder `json:"sort,omitempty"`
	From  int                  `json:"from"`
	Size  int                  `json:"size"`
}

type esOrder struct {
	Order string `json:"order"`
}

type match map[string]string

func (m match) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{"match": m})
}

func offset(pageNumber, pageSize int) int {
	return (pageNumber - 1) * pageSize
}

func marshalBody(body esBody) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling query body: %w", err)
	}
	return data, nil
}

func allow(fields ...Field) map[Field]struct{} {
	m := make(map[Field]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return m
}
