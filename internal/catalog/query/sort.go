package query

import (
	"strings"

	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
)

// Field names a sortable document field.
type Field string

const (
	FieldRating   Field = "imdb_rating"
	FieldTitle    Field = "title"
	FieldName     Field = "name"
	FieldFullName Field = "full_name"
)

// Direction is a sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortSpec is the parsed {field, direction} pair built once from the raw
// sort string.
type SortSpec struct {
	Field     Field
	Direction Direction
}

// ParseSort parses a raw sort string. Exactly one leading '-' denotes
// descending order; the remainder must name a field on the family's
// allow-list. An empty string yields the family default. Unrecognized
// fields are rejected rather than silently coerced.
func (b *Builder) ParseSort(raw string) (SortSpec, error) {
	if raw == "" {
		return b.defaultSort, nil
	}
	direction := Ascending
	name := raw
	if strings.HasPrefix(raw, "-") {
		direction = Descending
		name = raw[1:]
	}
	field := Field(name)
	if _, ok := b.sortable[field]; !ok {
		return SortSpec{}, pkgerrors.Newf(pkgerrors.ErrInvalidInput, 0,
			"unsupported sort field %q", name)
	}
	return SortSpec{Field: field, Direction: direction}, nil
}
