// Package query evaluates compiled predicates and orderings directly against
// in-memory records. Records are Go structs (or pointers to them) described
// by schema.For, or documents (map[string]any) described by
// schema.DescribeSchema.
package query

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/core/sorting"
)

// Processor is the in-memory execution backend. It is safe for concurrent
// use.
type Processor struct {
	logger *zap.Logger
}

// NewProcessor creates a Processor. A nil logger discards output.
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{logger: logger}
}

// ShortCircuitsNullNavigation reports false: reading through a nil pointer
// fails unless the ordering asks for null-safe navigation.
func (p *Processor) ShortCircuitsNullNavigation() bool {
	return false
}

// Match evaluates pred against one record. A nil predicate matches every
// record.
func (p *Processor) Match(ctx context.Context, pred expr.Predicate, record any) (bool, error) {
	if pred == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return evaluate(reflect.ValueOf(record), pred)
}

// ProcessRows filters and sorts documents with an optional filter and sort.
func (p *Processor) ProcessRows(ctx context.Context, rows []schema.Document, f *filter.Filter, s *sorting.Sort) ([]schema.Document, error) {
	return Apply(ctx, p, rows, f, s)
}

// Where returns the records matching pred in their original order.
func Where[T any](ctx context.Context, p *Processor, records []T, pred expr.Predicate) ([]T, error) {
	if pred == nil {
		return slices.Clone(records), nil
	}
	var out []T
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := evaluate(reflect.ValueOf(r), pred)
		if err != nil {
			return nil, fmt.Errorf("evaluating record %d: %w", i, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	p.logger.Debug("Records remaining after filter",
		zap.Int("input", len(records)), zap.Int("count", len(out)))
	return out, nil
}

// Apply compiles f and s for this processor and applies them. Either may be
// nil.
func Apply[T any](ctx context.Context, p *Processor, records []T, f *filter.Filter, s *sorting.Sort) ([]T, error) {
	var pred expr.Predicate
	if f != nil {
		var err error
		if pred, err = f.Compile(); err != nil {
			return nil, fmt.Errorf("compiling filter: %w", err)
		}
	}
	out, err := Where(ctx, p, records, pred)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return out, nil
	}
	ordering, err := s.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("compiling sort: %w", err)
	}
	return OrderBy(p, out, ordering)
}

func evaluate(record reflect.Value, pred expr.Predicate) (bool, error) {
	switch n := pred.(type) {
	case expr.Const:
		return n.Value, nil
	case expr.And:
		for _, c := range n.Predicates {
			ok, err := evaluate(record, c)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case expr.Or:
		for _, c := range n.Predicates {
			ok, err := evaluate(record, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case expr.Not:
		ok, err := evaluate(record, n.Predicate)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case expr.IsNull:
		return isNull(member(record, n.Field.Name)), nil
	case expr.Compare:
		return evaluateCompare(record, n)
	case expr.Text:
		return evaluateText(record, n)
	case expr.Nested:
		v := member(record, n.Field.Name)
		if isNull(v) {
			return false, nil
		}
		return evaluate(v, n.Predicate)
	case expr.Any:
		v := indirect(member(record, n.Field.Name))
		if isNull(v) {
			return false, nil
		}
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return false, fmt.Errorf("%s: expected a collection, got %s", n.Field.Name, v.Type())
		}
		for i := range v.Len() {
			ok, err := evaluate(v.Index(i), n.Predicate)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported predicate %T", pred)
}

// evaluateCompare treats null as unequal to every value, so only Neq
// matches it.
func evaluateCompare(record reflect.Value, c expr.Compare) (bool, error) {
	v, err := normalize(member(record, c.Field.Name), c.Field)
	if err != nil {
		return false, err
	}
	if v == nil {
		return c.Op == expr.Neq, nil
	}
	if s, ok := v.(string); ok && c.Op == expr.Eq {
		want, _ := c.Value.(string)
		return norm.NFC.String(s) == want, nil
	}
	r, err := compareValues(v, c.Value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", c.Field.Name, err)
	}
	switch c.Op {
	case expr.Eq:
		return r == 0, nil
	case expr.Neq:
		return r != 0, nil
	case expr.Lt:
		return r < 0, nil
	case expr.Lte:
		return r <= 0, nil
	case expr.Gt:
		return r > 0, nil
	case expr.Gte:
		return r >= 0, nil
	}
	return false, fmt.Errorf("unsupported comparison %q", c.Op)
}

func evaluateText(record reflect.Value, t expr.Text) (bool, error) {
	v, err := normalize(member(record, t.Field.Name), t.Field)
	if err != nil || v == nil {
		return false, err
	}
	s := textOf(v)
	if t.Fold {
		s = expr.Fold(s, t.Culture)
	}
	switch t.Op {
	case expr.Contains:
		return strings.Contains(s, t.Value), nil
	case expr.StartsWith:
		return strings.HasPrefix(s, t.Value), nil
	case expr.EndsWith:
		return strings.HasSuffix(s, t.Value), nil
	case expr.Equals:
		return s == t.Value, nil
	}
	return false, fmt.Errorf("unsupported text operation %q", t.Op)
}
