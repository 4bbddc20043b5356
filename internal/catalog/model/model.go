// Package model defines the catalog entities and the as-indexed raw document
// shapes they are parsed from. Entities are immutable values: a raw document
// either converts into a fully valid entity or is rejected, never partially
// populated.
package model

import (
	"fmt"

	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/google/uuid"
)

// Genre is a film category.
type Genre struct {
	ID          uuid.UUID `json:"uuid"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

// Person is a contributor to a film (director, actor, or writer).
type Person struct {
	ID       uuid.UUID `json:"uuid"`
	FullName string    `json:"full_name"`
}

// Film is the fully enriched work entity. Directors holds zero or one
// entries; the indexed document embeds at most a single director record.
// ActorNames and WriterNames are denormalized copies kept for backward
// display compatibility.
type Film struct {
	ID          uuid.UUID `json:"uuid"`
	Title       string    `json:"title"`
	IMDBRating  *float64  `json:"imdb_rating"`
	Description *string   `json:"description,omitempty"`
	Genres      []Genre   `json:"genre"`
	Directors   []Person  `json:"directors"`
	Actors      []Person  `json:"actors"`
	Writers     []Person  `json:"writers"`
	ActorNames  []string  `json:"actors_names"`
	WriterNames []string  `json:"writers_names"`
}

// FilmSummary is the list/search response shape. Listing views never carry
// enriched sub-entities, so building one costs no auxiliary lookups.
type FilmSummary struct {
	ID         uuid.UUID `json:"uuid"`
	Title      string    `json:"title"`
	IMDBRating *float64  `json:"imdb_rating"`
}

// Validate checks the entity shape after enrichment. A film that fails here
// is dropped from the response rather than returned malformed.
func (f Film) Validate() error {
	if f.ID == uuid.Nil {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "film has no id")
	}
	if f.Title == "" {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "film %s has no title", f.ID)
	}
	if err := validateRating(f.IMDBRating); err != nil {
		return fmt.Errorf("film %s: %w", f.ID, err)
	}
	return nil
}

// Validate checks the summary shape parsed from a raw hit.
func (s FilmSummary) Validate() error {
	if s.ID == uuid.Nil {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "film summary has no id")
	}
	if s.Title == "" {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "film summary %s has no title", s.ID)
	}
	if err := validateRating(s.IMDBRating); err != nil {
		return fmt.Errorf("film summary %s: %w", s.ID, err)
	}
	return nil
}

func (g Genre) Validate() error {
	if g.ID == uuid.Nil {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "genre has no id")
	}
	if g.Name == "" {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "genre %s has no name", g.ID)
	}
	return nil
}

func (p Person) Validate() error {
	if p.ID == uuid.Nil {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "person has no id")
	}
	if p.FullName == "" {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0, "person %s has no name", p.ID)
	}
	return nil
}

func validateRating(rating *float64) error {
	if rating == nil {
		return nil
	}
	if *rating < 0 || *rating > 10 {
		return pkgerrors.Newf(pkgerrors.ErrMalformedDocument, 0,
			"rating %.2f outside [0, 10]", *rating)
	}
	return nil
}
