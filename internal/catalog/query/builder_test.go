package query

import (
	"encoding/json"
	"errors"
	"testing"

	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
)

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("query body is not valid JSON: %v", err)
	}
	return body
}

func TestListPagination(t *testing.T) {
	b := NewFilmBuilder()
	data, err := b.List(ListQuery{Sort: "-imdb_rating", PageSize: 10, PageNumber: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	body := decodeBody(t, data)

	if got := body["from"].(float64); got != 10 {
		t.Errorf("expected from=10, got %v", got)
	}
	if got := body["size"].(float64); got != 10 {
		t.Errorf("expected size=10, got %v", got)
	}

	sorts := body["sort"].([]any)
	if len(sorts) != 1 {
		t.Fatalf("expected one sort clause, got %d", len(sorts))
	}
	clause := sorts[0].(map[string]any)
	rating, ok := clause["imdb_rating"].(map[string]any)
	if !ok {
		t.Fatalf("expected sort on imdb_rating, got %v", clause)
	}
	if rating["order"] != "desc" {
		t.Errorf("expected descending order, got %v", rating["order"])
	}
}

func TestListSortAscending(t *testing.T) {
	b := NewFilmBuilder()
	data, err := b.List(ListQuery{Sort: "title", PageSize: 5, PageNumber: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	body := decodeBody(t, data)

	if got := body["from"].(float64); got != 0 {
		t.Errorf("expected from=0, got %v", got)
	}
	clause := body["sort"].([]any)[0].(map[string]any)
	title, ok := clause["title"].(map[string]any)
	if !ok {
		t.Fatalf("expected sort on title, got %v", clause)
	}
	if title["order"] != "asc" {
		t.Errorf("expected ascending order, got %v", title["order"])
	}
}

func TestListDefaultSortIsRatingDescending(t *testing.T) {
	b := NewFilmBuilder()
	spec, err := b.ParseSort("")
	if err != nil {
		t.Fatalf("ParseSort failed: %v", err)
	}
	if spec.Field != FieldRating || spec.Direction != Descending {
		t.Errorf("expected default {imdb_rating desc}, got {%s %s}", spec.Field, spec.Direction)
	}
}

func TestParseSortRejectsUnknownField(t *testing.T) {
	b := NewFilmBuilder()
	for _, raw := range []string{"rating", "-release_date", "imdb_rating2", "-"} {
		if _, err := b.ParseSort(raw); !errors.Is(err, pkgerrors.ErrInvalidInput) {
			t.Errorf("ParseSort(%q): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestParseSortStripsExactlyOneSign(t *testing.T) {
	b := NewFilmBuilder()
	spec, err := b.ParseSort("-title")
	if err != nil {
		t.Fatalf("ParseSort failed: %v", err)
	}
	if spec.Field != FieldTitle || spec.Direction != Descending {
		t.Errorf("expected {title desc}, got {%s %s}", spec.Field, spec.Direction)
	}
	// A double sign leaves "-title", which is not an allowed field.
	if _, err := b.ParseSort("--title"); !errors.Is(err, pkgerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for double sign, got %v", err)
	}
}

func TestListGenreFilter(t *testing.T) {
	b := NewFilmBuilder()
	data, err := b.List(ListQuery{Filter: "Action", PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	body := decodeBody(t, data)

	must := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	if len(must) != 1 {
		t.Fatalf("expected one must clause, got %d", len(must))
	}
	match := must[0].(map[string]any)["match"].(map[string]any)
	if match["genre"] != "Action" {
		t.Errorf("expected genre match on Action, got %v", match)
	}
}

func TestListWithoutFilterHasEmptyMust(t *testing.T) {
	b := NewFilmBuilder()
	data, err := b.List(ListQuery{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	body := decodeBody(t, data)
	must := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	if len(must) != 0 {
		t.Errorf("expected empty must, got %v", must)
	}
}

func TestListFilterRejectedForUnfilterableFamily(t *testing.T) {
	b := NewGenreBuilder()
	if _, err := b.List(ListQuery{Filter: "Action", PageSize: 10, PageNumber: 1}); !errors.Is(err, pkgerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchBoostsTitle(t *testing.T) {
	b := NewFilmBuilder()
	data, err := b.Search(SearchQuery{Query: "Star", PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	body := decodeBody(t, data)

	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	if mm["query"] != "Star" {
		t.Errorf("expected query Star, got %v", mm["query"])
	}
	fields := mm["fields"].([]any)
	if len(fields) != 2 || fields[0] != "title^5" || fields[1] != "description" {
		t.Errorf("expected [title^5 description], got %v", fields)
	}
	if got := body["from"].(float64); got != 0 {
		t.Errorf("expected from=0, got %v", got)
	}
}

func TestSearchPaginationOffset(t *testing.T) {
	b := NewPersonBuilder()
	data, err := b.Search(SearchQuery{Query: "Lucas", PageSize: 25, PageNumber: 3})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	body := decodeBody(t, data)
	if got := body["from"].(float64); got != 50 {
		t.Errorf("expected from=50, got %v", got)
	}
	if got := body["size"].(float64); got != 25 {
		t.Errorf("expected size=25, got %v", got)
	}
}
