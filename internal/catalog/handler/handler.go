// Package handler is the HTTP boundary of the catalog service. It validates
// request parameters, delegates to the entity services, and maps the error
// taxonomy onto response codes: not-found and backend failure must never
// share a code.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cinemahub/catalog-service/internal/catalog/query"
	"github.com/cinemahub/catalog-service/internal/catalog/service"
	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/cinemahub/catalog-service/pkg/logger"
	"github.com/google/uuid"
)

// Handler serves the read-only catalog API.
type Handler struct {
	films           *service.FilmService
	genres          *service.GenreService
	persons         *service.PersonService
	defaultPageSize int
	maxPageSize     int
	logger          *slog.Logger
}

// New creates a Handler over the three entity services.
func New(films *service.FilmService, genres *service.GenreService, persons *service.PersonService,
	defaultPageSize, maxPageSize int) *Handler {
	return &Handler{
		films:           films,
		genres:          genres,
		persons:         persons,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.WithComponent("catalog-handler"),
	}
}

// Register mounts all catalog routes on the mux. Literal segments take
// precedence over wildcards, so /films/search never shadows /films/{id}.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/films/search", h.SearchFilms)
	mux.HandleFunc("GET /api/v1/films/{id}", h.FilmDetails)
	mux.HandleFunc("GET /api/v1/films", h.ListFilms)

	mux.HandleFunc("GET /api/v1/genres/search", h.SearchGenres)
	mux.HandleFunc("GET /api/v1/genres/{id}", h.GenreDetails)
	mux.HandleFunc("GET /api/v1/genres", h.ListGenres)

	mux.HandleFunc("GET /api/v1/persons/search", h.SearchPersons)
	mux.HandleFunc("GET /api/v1/persons/{id}", h.PersonDetails)
	mux.HandleFunc("GET /api/v1/persons", h.ListPersons)
}

func (h *Handler) FilmDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	film, err := h.films.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, film)
}

func (h *Handler) ListFilms(w http.ResponseWriter, r *http.Request) {
	listQuery, ok := h.listParams(w, r)
	if !ok {
		return
	}
	films, err := h.films.List(r.Context(), listQuery)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, films)
}

func (h *Handler) SearchFilms(w http.ResponseWriter, r *http.Request) {
	searchQuery, ok := h.searchParams(w, r)
	if !ok {
		return
	}
	films, err := h.films.Search(r.Context(), searchQuery)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, films)
}

func (h *Handler) GenreDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	genre, err := h.genres.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genre)
}

func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	listQuery, ok := h.listParams(w, r)
	if !ok {
		return
	}
	genres, err := h.genres.List(r.Context(), listQuery)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) SearchGenres(w http.ResponseWriter, r *http.Request) {
	searchQuery, ok := h.searchParams(w, r)
	if !ok {
		return
	}
	genres, err := h.genres.Search(r.Context(), searchQuery)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) PersonDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	person, err := h.persons.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, person)
}

func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	listQuery, ok := h.listParams(w, r)
	if !ok {
		return
	}
	persons, err := h.persons.List(r.Context(), listQuery)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, persons)
}

func (h *Handler) SearchPersons(w http.ResponseWriter, r *http.Request) {
	searchQuery, ok := h.searchParams(w, r)
	if !ok {
		return
	}
	persons, err := h.persons.Search(r.Context(), searchQuery)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, persons)
}

// pathID parses and validates the {id} path segment.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}

// listParams validates filter/sort/pagination query parameters.
func (h *Handler) listParams(w http.ResponseWriter, r *http.Request) (query.ListQuery, bool) {
	pageSize, pageNumber, ok := h.pageParams(w, r)
	if !ok {
		return query.ListQuery{}, false
	}
	return query.ListQuery{
		Filter:     r.URL.Query().Get("genre"),
		Sort:       r.URL.Query().Get("sort"),
		PageSize:   pageSize,
		PageNumber: pageNumber,
	}, true
}

// searchParams validates the free-text query and pagination parameters. An
// empty query string never reaches the service.
func (h *Handler) searchParams(w http.ResponseWriter, r *http.Request) (query.SearchQuery, bool) {
	text := r.URL.Query().Get("query")
	if text == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'query' is required")
		return query.SearchQuery{}, false
	}
	pageSize, pageNumber, ok := h.pageParams(w, r)
	if !ok {
		return query.SearchQuery{}, false
	}
	return query.SearchQuery{
		Query:      text,
		PageSize:   pageSize,
		PageNumber: pageNumber,
	}, true
}

func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request) (pageSize, pageNumber int, ok bool) {
	pageSize = h.defaultPageSize
	pageNumber = 1

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "page_size must be a positive integer")
			return 0, 0, false
		}
		if parsed > h.maxPageSize {
			parsed = h.maxPageSize
		}
		pageSize = parsed
	}
	if raw := r.URL.Query().Get("page_number"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "page_number must be a positive integer")
			return 0, 0, false
		}
		pageNumber = parsed
	}
	return pageSize, pageNumber, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := pkgerrors.HTTPStatusCode(err)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		h.writeError(w, status, "not found")
	case errors.Is(err, pkgerrors.ErrInvalidInput):
		h.writeError(w, status, err.Error())
	case errors.Is(err, pkgerrors.ErrBackendUnavailable):
		logger.FromContext(r.Context()).Error("backend unavailable",
			"path", r.URL.Path, "error", err)
		h.writeError(w, status, "search backend unavailable")
	default:
		logger.FromContext(r.Context()).Error("unexpected error",
			"path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
