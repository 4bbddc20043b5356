// Package integration verifies the full read path with real handler and
// service wiring. The search backend is an httptest server speaking the
// Elasticsearch wire envelopes; the cache is in-memory. No external services
// are required.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cinemahub/catalog-service/internal/catalog/cache"
	"github.com/cinemahub/catalog-service/internal/catalog/enrich"
	"github.com/cinemahub/catalog-service/internal/catalog/handler"
	"github.com/cinemahub/catalog-service/internal/catalog/search"
	"github.com/cinemahub/catalog-service/internal/catalog/service"
	"github.com/cinemahub/catalog-service/pkg/config"
)

const (
	starID    = "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	returnsID = "3fa85f64-5717-4562-b3fc-2c963f66afa7"
	foreverID = "3fa85f64-5717-4562-b3fc-2c963f66afa8"
	actionID  = "aaaaaaaa-0000-0000-0000-000000000001"
)

// esFake emulates the Elasticsearch get and search endpoints over a static
// document set. Closing the underlying server simulates a backend outage.
type esFake struct {
	mu     sync.Mutex
	movies map[string]map[string]any
	genres map[string]map[string]any
	server *httptest.Server
}

func newESFake(t *testing.T) *esFake {
	t.Helper()
	f := &esFake{
		movies: map[string]map[string]any{
			starID: {
				"title":       "The Star",
				"imdb_rating": 8.5,
				"genre":       []string{"Action"},
				"director":    map[string]string{"id": "9d5c4a44-71a8-4f5a-bb33-8a4f6b2f0f11", "name": "Jane Doe"},
			},
			returnsID: {"title": "The Star Returns", "imdb_rating": 8.5},
			foreverID: {"title": "The Star Forever", "imdb_rating": 8.5},
		},
		genres: map[string]map[string]any{
			actionID: {"name": "Action"},
		},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *esFake) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/movies/_doc/"):
		id := strings.TrimPrefix(r.URL.Path, "/movies/_doc/")
		source, ok := f.movies[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"found": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"_id": id, "found": true, "_source": source})

	case strings.HasSuffix(r.URL.Path, "/movies/_search"):
		// Fixed ranking order, the way the real backend would rank
		// exact title matches above longer ones.
		f.writeHits(w, []string{starID, returnsID, foreverID}, f.movies)

	case strings.HasSuffix(r.URL.Path, "/genres/_search"):
		f.writeHits(w, []string{actionID}, f.genres)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *esFake) writeHits(w http.ResponseWriter, order []string, docs map[string]map[string]any) {
	hits := make([]map[string]any, 0, len(order))
	for _, id := range order {
		hits = append(hits, map[string]any{"_id": id, "_source": docs[id]})
	}
	json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	return val, ok, nil
}

func (s *memStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(value.([]byte))
	return nil
}

func (s *memStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// newCatalogServer wires the whole stack: gateway against the fake backend,
// in-memory cache, resolver, services, handler.
func newCatalogServer(t *testing.T, backend *esFake, store *memStore) *httptest.Server {
	t.Helper()
	gateway, err := search.New(config.ElasticConfig{
		Addresses:      []string{backend.server.URL},
		RequestTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("creating gateway: %v", err)
	}

	resultCache := cache.New(store, 5*time.Minute)
	resolver := enrich.New(gateway, service.GenresIndex, config.CatalogConfig{
		GenreCacheCapacity: 100,
		GenreCacheTTL:      time.Minute,
	}, nil)

	h := handler.New(
		service.NewFilmService(resultCache, gateway, resolver, nil, nil),
		service.NewGenreService(resultCache, gateway, nil, nil),
		service.NewPersonService(resultCache, gateway, nil, nil),
		10, 100,
	)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return res.StatusCode
}

func TestSearchReturnsAllMatchesInRankingOrder(t *testing.T) {
	backend := newESFake(t)
	store := &memStore{data: make(map[string]string)}
	srv := newCatalogServer(t, backend, store)

	var films []struct {
		Title string `json:"title"`
	}
	status := getJSON(t, srv.URL+"/api/v1/films/search?query=Star", &films)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	want := []string{"The Star", "The Star Returns", "The Star Forever"}
	if len(films) != len(want) {
		t.Fatalf("expected %d films, got %d", len(want), len(films))
	}
	for i := range want {
		if films[i].Title != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], films[i].Title)
		}
	}
	if store.size() == 0 {
		t.Error("search result was not written to the cache")
	}
}

func TestDetailsServedFromCacheDuringOutage(t *testing.T) {
	backend := newESFake(t)
	store := &memStore{data: make(map[string]string)}
	srv := newCatalogServer(t, backend, store)
	url := srv.URL + "/api/v1/films/" + starID

	var first map[string]any
	if status := getJSON(t, url, &first); status != http.StatusOK {
		t.Fatalf("warm-up request failed with %d", status)
	}
	if first["title"] != "The Star" {
		t.Fatalf("unexpected film %v", first)
	}

	// Take the backend down; the cached copy must keep serving.
	backend.server.Close()

	var second map[string]any
	if status := getJSON(t, url, &second); status != http.StatusOK {
		t.Fatalf("cached request failed with %d after backend outage", status)
	}
	if second["title"] != "The Star" {
		t.Errorf("cached film differs: %v", second)
	}

	// An id that was never cached surfaces the outage as 503, not 404.
	if status := getJSON(t, srv.URL+"/api/v1/films/"+returnsID, nil); status != http.StatusServiceUnavailable {
		t.Errorf("uncached id during outage: expected 503, got %d", status)
	}
}

func TestDetailsEnrichesGenresAndDirector(t *testing.T) {
	backend := newESFake(t)
	store := &memStore{data: make(map[string]string)}
	srv := newCatalogServer(t, backend, store)

	var film struct {
		Genres []struct {
			UUID string `json:"uuid"`
			Name string `json:"name"`
		} `json:"genre"`
		Directors []struct {
			FullName string `json:"full_name"`
		} `json:"directors"`
	}
	if status := getJSON(t, srv.URL+"/api/v1/films/"+starID, &film); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(film.Genres) != 1 || film.Genres[0].Name != "Action" || film.Genres[0].UUID != actionID {
		t.Errorf("expected enriched genre Action/%s, got %+v", actionID, film.Genres)
	}
	if len(film.Directors) != 1 || film.Directors[0].FullName != "Jane Doe" {
		t.Errorf("expected director Jane Doe, got %+v", film.Directors)
	}
}

func TestUnknownFilmIs404(t *testing.T) {
	backend := newESFake(t)
	store := &memStore{data: make(map[string]string)}
	srv := newCatalogServer(t, backend, store)

	status := getJSON(t, srv.URL+"/api/v1/films/9d5c4a44-71a8-4f5a-bb33-8a4f6b2f0f11", nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}
