// Package interval implements a small closed-open range algebra over any
// totally ordered element type. A missing boundary means the range is
// unbounded on that side.
package interval

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// ErrNoNumericProjection is returned by Distance when the element type cannot
// be projected onto a number.
var ErrNoNumericProjection = errors.New("element type has no numeric projection")

// Comparer orders two elements. It returns a negative number when a < b,
// zero when a == b and a positive number when a > b.
type Comparer[T any] func(a, b T) int

// Range is a closed-open interval [Start, End). A nil Start is -inf and a nil
// End is +inf. Start <= End is not enforced.
type Range[T any] struct {
	Start *T `json:"start,omitempty"`
	End   *T `json:"end,omitempty"`
}

// New returns a bounded range.
func New[T any](start, end T) Range[T] {
	return Range[T]{Start: &start, End: &end}
}

// From returns a range bounded only below.
func From[T any](start T) Range[T] {
	return Range[T]{Start: &start}
}

// Until returns a range bounded only above.
func Until[T any](end T) Range[T] {
	return Range[T]{End: &end}
}

// IsEmpty reports whether neither boundary is set.
func (r Range[T]) IsEmpty() bool {
	return r.Start == nil && r.End == nil
}

func (r Range[T]) String() string {
	start, end := "-inf", "+inf"
	if r.Start != nil {
		start = fmt.Sprint(*r.Start)
	}
	if r.End != nil {
		end = fmt.Sprint(*r.End)
	}
	return "[" + start + ", " + end + ")"
}

// Ordered is the comparer for cmp.Ordered element types.
func Ordered[T cmp.Ordered]() Comparer[T] {
	return cmp.Compare[T]
}

// Times is the comparer for time.Time elements.
func Times() Comparer[time.Time] {
	return func(a, b time.Time) int { return a.Compare(b) }
}

// Decimals is the comparer for apd decimals.
func Decimals() Comparer[*apd.Decimal] {
	return func(a, b *apd.Decimal) int { return a.Cmp(b) }
}

// Intersect reports whether a and b overlap: a.start <= b.end && b.start <= a.end.
func Intersect[T any](a, b Range[T], compare Comparer[T]) bool {
	return lessOrEqual(a.Start, b.End, compare) && lessOrEqual(b.Start, a.End, compare)
}

// Intersection returns the overlap of a and b. The second result is false
// when the ranges do not intersect, in which case the returned range is empty.
func Intersection[T any](a, b Range[T], compare Comparer[T]) (Range[T], bool) {
	if !Intersect(a, b, compare) {
		return Range[T]{}, false
	}
	return Range[T]{
		Start: maxBound(a.Start, b.Start, compare),
		End:   minBound(a.End, b.End, compare),
	}, true
}

// Union returns the smallest range covering both a and b. A missing boundary
// on either side propagates as unbounded.
func Union[T any](a, b Range[T], compare Comparer[T]) Range[T] {
	var r Range[T]
	if a.Start != nil && b.Start != nil {
		r.Start = a.Start
		if compare(*b.Start, *a.Start) < 0 {
			r.Start = b.Start
		}
	}
	if a.End != nil && b.End != nil {
		r.End = a.End
		if compare(*b.End, *a.End) > 0 {
			r.End = b.End
		}
	}
	return r
}

// Contains reports whether inner lies completely within outer.
func Contains[T any](outer, inner Range[T], compare Comparer[T]) bool {
	startOK := outer.Start == nil || (inner.Start != nil && compare(*outer.Start, *inner.Start) <= 0)
	endOK := outer.End == nil || (inner.End != nil && compare(*outer.End, *inner.End) >= 0)
	return startOK && endOK
}

// Distance returns End - Start projected onto float64. Times are measured in
// nanoseconds. A range with both boundaries missing has distance zero, a
// half-open range has infinite distance.
func Distance[T any](r Range[T]) (float64, error) {
	if r.Start == nil && r.End == nil {
		return 0, nil
	}
	var sample T
	if r.Start != nil {
		sample = *r.Start
	} else {
		sample = *r.End
	}
	if _, ok := project(sample); !ok {
		return 0, fmt.Errorf("distance of %T: %w", sample, ErrNoNumericProjection)
	}
	if r.Start == nil || r.End == nil {
		return math.Inf(1), nil
	}
	if s, ok := any(*r.Start).(time.Time); ok {
		// time.Duration saturates after roughly 292 years
		e := any(*r.End).(time.Time)
		return float64(e.Unix()-s.Unix())*1e9 + float64(e.Nanosecond()-s.Nanosecond()), nil
	}
	start, _ := project(*r.Start)
	end, _ := project(*r.End)
	return end - start, nil
}

func project(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case time.Duration:
		return float64(n), true
	case time.Time:
		return float64(n.UnixNano()), true
	case *apd.Decimal:
		if n == nil {
			return 0, false
		}
		f, err := n.Float64()
		return f, err == nil
	case apd.Decimal:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// lessOrEqual treats a nil lower value as -inf and a nil upper value as +inf.
func lessOrEqual[T any](lower, upper *T, compare Comparer[T]) bool {
	if lower == nil || upper == nil {
		return true
	}
	return compare(*lower, *upper) <= 0
}

func maxBound[T any](a, b *T, compare Comparer[T]) *T {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case compare(*b, *a) > 0:
		return b
	default:
		return a
	}
}

func minBound[T any](a, b *T, compare Comparer[T]) *T {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case compare(*b, *a) < 0:
		return b
	default:
		return a
	}
}
