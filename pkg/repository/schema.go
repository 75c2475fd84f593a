package repository

import (
	"fmt"
	"slices"
	"sort"

	"github.com/amirasaad/charity/pkg/domain"
)

// Schema is the explicit shape of a collection as seen by callers.
type Schema struct {
	Name       string
	Mutable    []string
	Filterable []string
	Unique     []string
}

// CheckFilter rejects filter keys the collection does not index.
func (s Schema) CheckFilter(f Filter) error {
	for _, k := range sortedKeys(f) {
		if !slices.Contains(s.Filterable, k) {
			return domain.NewValidationError(k, fmt.Sprintf("is not a filterable field of %s", s.Name))
		}
	}
	return nil
}

// CheckPatch rejects unknown and immutable keys. known is the set of JSON
// field names the document type declares.
func (s Schema) CheckPatch(p Patch, known []string) error {
	if len(p) == 0 {
		return domain.NewValidationError("", "patch is empty")
	}
	for _, k := range sortedKeys(p) {
		if slices.Contains(s.Mutable, k) {
			continue
		}
		if slices.Contains(known, k) {
			return domain.NewValidationError(k, "is not mutable")
		}
		return domain.NewValidationError(k, fmt.Sprintf("is not a field of %s", s.Name))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
