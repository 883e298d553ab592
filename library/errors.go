package library

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrProductNotFound = errors.New("product not found")
	ErrNotAvailable    = errors.New("book not available")
	ErrAllReturned     = errors.New("all copies are already returned")
	ErrNothingToUpdate = errors.New("provide at least one field to update")
)

// ValidationError reports input rejected before reaching the store. Fields
// maps the offending JSON field to the failed rule.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}
