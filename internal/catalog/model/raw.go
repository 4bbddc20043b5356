package model

import (
	"encoding/json"

	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/google/uuid"
)

// RawFilm mirrors the as-indexed film document. Genre arrives as bare name
// strings and Director as a single embedded record (or absent); both are the
// denormalizations the enrichment resolver repairs.
type RawFilm struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	IMDBRating  *float64       `json:"imdb_rating"`
	Description *string        `json:"description"`
	GenreNames  []string       `json:"genre"`
	Director    *RawPersonRef  `json:"director"`
	Actors      []RawPersonRef `json:"actors"`
	Writers     []RawPersonRef `json:"writers"`
	ActorNames  []string       `json:"actors_names"`
	WriterNames []string       `json:"writers_names"`
}

// RawPersonRef is a person reference embedded in a film document.
type RawPersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawGenre struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type rawPerson struct {
	FullName string `json:"full_name"`
}

// ParseRawFilm decodes a film document source. The document id wins over any
// id embedded in the source.
func ParseRawFilm(id string, source json.RawMessage) (RawFilm, error) {
	var raw RawFilm
	if err := json.Unmarshal(source, &raw); err != nil {
		return RawFilm{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"decoding film document %s: %v", id, err)
	}
	if id != "" {
		raw.ID = id
	}
	return raw, nil
}

// ToFilm assembles the enriched entity from the raw document and the resolved
// genre records, normalizing the embedded director into a zero-or-one list.
// The result is validated before being returned.
func (r RawFilm) ToFilm(genres []Genre) (Film, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Film{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"film id %q is not a uuid", r.ID)
	}

	directors := make([]Person, 0, 1)
	if r.Director != nil {
		director, err := r.Director.toPerson()
		if err != nil {
			return Film{}, err
		}
		directors = append(directors, director)
	}

	actors, err := toPersons(r.Actors)
	if err != nil {
		return Film{}, err
	}
	writers, err := toPersons(r.Writers)
	if err != nil {
		return Film{}, err
	}

	film := Film{
		ID:          id,
		Title:       r.Title,
		IMDBRating:  r.IMDBRating,
		Description: r.Description,
		Genres:      genres,
		Directors:   directors,
		Actors:      actors,
		Writers:     writers,
		ActorNames:  r.ActorNames,
		WriterNames: r.WriterNames,
	}
	if film.Genres == nil {
		film.Genres = []Genre{}
	}
	if film.Actors == nil {
		film.Actors = []Person{}
	}
	if film.Writers == nil {
		film.Writers = []Person{}
	}
	if err := film.Validate(); err != nil {
		return Film{}, err
	}
	return film, nil
}

// ParseFilmSummary parses the summary shape used by list and search views
// directly from a hit, skipping enrichment entirely.
func ParseFilmSummary(id string, source json.RawMessage) (FilmSummary, error) {
	var raw struct {
		Title      string   `json:"title"`
		IMDBRating *float64 `json:"imdb_rating"`
	}
	if err := json.Unmarshal(source, &raw); err != nil {
		return FilmSummary{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"decoding film hit %s: %v", id, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return FilmSummary{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"film hit id %q is not a uuid", id)
	}
	summary := FilmSummary{ID: parsed, Title: raw.Title, IMDBRating: raw.IMDBRating}
	if err := summary.Validate(); err != nil {
		return FilmSummary{}, err
	}
	return summary, nil
}

// ParseGenre parses a genre document, taking the id from the hit.
func ParseGenre(id string, source json.RawMessage) (Genre, error) {
	var raw rawGenre
	if err := json.Unmarshal(source, &raw); err != nil {
		return Genre{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"decoding genre document %s: %v", id, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Genre{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"genre id %q is not a uuid", id)
	}
	genre := Genre{ID: parsed, Name: raw.Name, Description: raw.Description}
	if err := genre.Validate(); err != nil {
		return Genre{}, err
	}
	return genre, nil
}

// ParsePerson parses a person document, taking the id from the hit.
func ParsePerson(id string, source json.RawMessage) (Person, error) {
	var raw rawPerson
	if err := json.Unmarshal(source, &raw); err != nil {
		return Person{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"decoding person document %s: %v", id, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Person{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"person id %q is not a uuid", id)
	}
	person := Person{ID: parsed, FullName: raw.FullName}
	if err := person.Validate(); err != nil {
		return Person{}, err
	}
	return person, nil
}

func (r RawPersonRef) toPerson() (Person, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Person{}, pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"person reference id %q is not a uuid", r.ID)
	}
	person := Person{ID: id, FullName: r.Name}
	if err := person.Validate(); err != nil {
		return Person{}, err
	}
	return person, nil
}

func toPersons(refs []RawPersonRef) ([]Person, error) {
	persons := make([]Person, 0, len(refs))
	for _, ref := range refs {
		person, err := ref.toPerson()
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	return persons, nil
}
