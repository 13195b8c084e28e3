package sorting

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
)

// Backend describes the execution capabilities that shape a compiled
// ordering.
type Backend interface {
	// ShortCircuitsNullNavigation reports whether navigating through a null
	// reference yields null instead of failing.
	ShortCircuitsNullNavigation() bool
}

// Compile translates the sort into an ordering for backend using the
// attached or process-default configuration.
func (s *Sort) Compile(backend Backend) (expr.Ordering, error) {
	return s.CompileWith(nil, backend)
}

// CompileWith is Compile with an injected configuration. An attached
// configuration still takes precedence.
func (s *Sort) CompileWith(cfg *Configuration, backend Backend) (expr.Ordering, error) {
	cfg = resolveConfiguration(s.config, cfg)
	nullSafe := nullSafeFor(cfg.ConditionalAccess, backend)

	var ordering expr.Ordering
	for _, e := range s.Sorts() {
		key := expr.SortKey{Descending: e.Direction == Descending, NullSafe: nullSafe}
		path, err := resolvePath(s.descriptor, e.Path, cfg.CaseInsensitivePropertyMatching)
		if err != nil {
			if ee, ok := errs.As(err); ok && cfg.IgnoreParseExceptions && ee.Suppressible() {
				cfg.logger().Debug("Ignoring sort key", zap.String("path", e.Path), zap.Error(err))
				key.Constant = true
				key.NullSafe = false
				ordering = append(ordering, key)
				continue
			}
			return nil, err
		}
		key.Path = path
		ordering = append(ordering, key)
	}
	return ordering, nil
}

func nullSafeFor(access ConditionalAccess, backend Backend) bool {
	switch access {
	case ConditionalAccessAlways:
		return true
	case ConditionalAccessNever:
		return false
	default:
		return backend == nil || !backend.ShortCircuitsNullNavigation()
	}
}

// resolvePath walks path through d. SelfPath segments are skipped, so an
// empty result orders by the record itself.
func resolvePath(d *schema.Descriptor, path string, caseInsensitive bool) ([]expr.Field, error) {
	segments := strings.Split(path, PathSeparator)
	var fields []expr.Field
	for i, seg := range segments {
		if seg == SelfPath {
			continue
		}
		p, ok := d.Lookup(seg, caseInsensitive)
		if !ok {
			return nil, errs.Unresolved(path, descriptorName(d))
		}
		fields = append(fields, expr.Field{Name: p.Field, Kind: p.Kind, Enum: p.Enum})

		if i == len(segments)-1 {
			if !p.Kind.IsScalar() {
				return nil, unsortable(path, p)
			}
			if !p.Sortable {
				return nil, errs.Unresolved(path, descriptorName(d))
			}
			continue
		}
		if p.Kind != schema.KindObject || p.Nested() == nil {
			return nil, unsortable(path, p)
		}
		d = p.Nested()
	}
	return fields, nil
}

func unsortable(path string, p *schema.Property) *errs.Error {
	return &errs.Error{
		Code:     errs.CodeUnsupportedType,
		Message:  fmt.Sprintf("cannot order by %s property %s", p.Kind, p.Name),
		Property: path,
	}
}

func descriptorName(d *schema.Descriptor) string {
	if d == nil {
		return ""
	}
	return d.Name
}

// CastTo re-targets a copy of the sort onto records described by dst.
//
// Entries are matched segment by segment by exact name. An entry survives
// when every segment exists on the target side and the value at the end of
// the path is sortable there. Where a navigation's types differ, the rest
// of the path is cast against the two nested descriptors. SelfPath entries
// always survive. Positions are preserved.
func (s *Sort) CastTo(dst *schema.Descriptor) *Sort {
	out := &Sort{descriptor: dst, config: s.config}
	for _, e := range s.entries {
		if path, ok := castPath(e.Path, s.descriptor, dst); ok {
			e.Path = path
			out.entries = append(out.entries, e)
		}
	}
	return out
}

func castPath(path string, src, dst *schema.Descriptor) (string, bool) {
	if path == SelfPath {
		return path, true
	}
	head, rest, nested := strings.Cut(path, PathSeparator)
	sp, ok := src.Lookup(head, false)
	if !ok {
		return "", false
	}
	dp, ok := dst.Lookup(head, false)
	if !ok {
		return "", false
	}
	if !nested {
		return path, dp.Sortable && sp.AssignableTo(dp)
	}
	if sp.AssignableTo(dp) {
		return path, true
	}
	if sp.Nested() == nil || dp.Nested() == nil {
		return "", false
	}
	tail, ok := castPath(rest, sp.Nested(), dp.Nested())
	if !ok {
		return "", false
	}
	if tail == SelfPath {
		return head, true
	}
	return head + PathSeparator + tail, true
}
