package filter

import (
	"github.com/asaidimu/go-sieve/core/schema"
)

// EntityFilter is a Filter bound to the Go type T.
type EntityFilter[T any] struct {
	*Filter
}

// New creates an empty filter for T.
func New[T any]() *EntityFilter[T] {
	return &EntityFilter[T]{Filter: NewFilter(schema.For[T]())}
}

// ParseEntity builds a filter for T from the output of String.
func ParseEntity[T any](s string) (*EntityFilter[T], error) {
	f := New[T]()
	if err := f.ParseInto(s); err != nil {
		return nil, err
	}
	return f, nil
}

// Clone returns a deep copy.
func (e *EntityFilter[T]) Clone() *EntityFilter[T] {
	return &EntityFilter[T]{Filter: e.Filter.Clone()}
}

// Cast re-targets a filter for T onto U. See Filter.CastTo.
func Cast[T, U any](e *EntityFilter[T]) *EntityFilter[U] {
	return &EntityFilter[U]{Filter: e.Filter.CastTo(schema.For[U]())}
}
