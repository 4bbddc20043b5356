// Package cachekey derives deterministic cache keys from request parameters.
// Keys are namespaced by entity family and operation kind so by-id entries
// can never collide with parameter-hash entries, and two logically equal
// queries always produce the same key regardless of call-site ordering.
package cachekey

import (
	"crypto/sha256"
	"fmt"

	"github.com/cinemahub/catalog-service/internal/catalog/query"
	"github.com/google/uuid"
)

// ByID returns the key for a single-entity lookup.
func ByID(family string, id uuid.UUID) string {
	return fmt.Sprintf("%s:id:%s", family, id)
}

// List returns the key for a listing query. Every discriminating parameter
// participates, serialized in a fixed field order before hashing.
func List(family string, q query.ListQuery) string {
	canonical := fmt.Sprintf("filter=%s|sort=%s|page_size=%d|page_number=%d",
		q.Filter, q.Sort, q.PageSize, q.PageNumber)
	return derive(family, "list", canonical)
}

// Search returns the key for a full-text query.
func Search(family string, q query.SearchQuery) string {
	canonical := fmt.Sprintf("query=%s|page_size=%d|page_number=%d",
		q.Query, q.PageSize, q.PageNumber)
	return derive(family, "search", canonical)
}

func derive(family, operation, canonical string) string {
	hash := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%s:%s:%x", family, operation, hash[:16])
}
