package query

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/asaidimu/go-sieve/core/expr"
)

// ErrNullNavigation is returned when an ordering reads through a null
// navigation without asking for null-safe access.
var ErrNullNavigation = errors.New("null navigation")

// OrderBy returns the records stably sorted by ordering. Null keys sort
// before every value in ascending order and after every value in descending
// order.
func OrderBy[T any](p *Processor, records []T, ordering expr.Ordering) ([]T, error) {
	out := slices.Clone(records)
	if len(ordering) == 0 {
		return out, nil
	}

	keys := make([][]any, len(out))
	for i, r := range out {
		k, err := sortKeys(reflect.ValueOf(r), ordering)
		if err != nil {
			return nil, fmt.Errorf("ordering record %d: %w", i, err)
		}
		keys[i] = k
	}

	index := make([]int, len(out))
	for i := range index {
		index[i] = i
	}
	var cmpErr error
	slices.SortStableFunc(index, func(a, b int) int {
		for k, key := range ordering {
			if key.Constant {
				continue
			}
			r, err := compareKeys(keys[a][k], keys[b][k])
			if err != nil && cmpErr == nil {
				cmpErr = err
			}
			if r == 0 {
				continue
			}
			if key.Descending {
				return -r
			}
			return r
		}
		return 0
	})
	if cmpErr != nil {
		return nil, cmpErr
	}

	sorted := make([]T, len(out))
	for i, j := range index {
		sorted[i] = out[j]
	}
	return sorted, nil
}

func sortKeys(record reflect.Value, ordering expr.Ordering) ([]any, error) {
	keys := make([]any, len(ordering))
	for i, key := range ordering {
		if key.Constant {
			continue
		}
		v, err := sortKey(record, key)
		if err != nil {
			return nil, err
		}
		keys[i] = v
	}
	return keys, nil
}

func sortKey(record reflect.Value, key expr.SortKey) (any, error) {
	if len(key.Path) == 0 {
		return normalize(record, inferField(record))
	}
	v := record
	for i, f := range key.Path {
		v = member(v, f.Name)
		if i == len(key.Path)-1 {
			return normalize(v, f)
		}
		if isNull(v) {
			if key.NullSafe {
				return nil, nil
			}
			return nil, fmt.Errorf("%w at %s", ErrNullNavigation, f.Name)
		}
	}
	return nil, nil
}

func compareKeys(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}
	return compareValues(a, b)
}
