package filter

import (
	"go.uber.org/zap"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
)

// Compile builds the predicate of the filter. A nil predicate means there is
// nothing to filter on and every record matches.
func (f *Filter) Compile() (expr.Predicate, error) {
	return f.CompileWith(nil)
}

// CompileWith compiles with an injected configuration. A configuration
// attached to the filter still takes precedence; without either the
// process-wide default applies.
func (f *Filter) CompileWith(cfg *Configuration) (expr.Predicate, error) {
	return f.compile(resolveConfiguration(f.config, cfg), nil, "")
}

func (f *Filter) compile(cfg *Configuration, interceptor Interceptor, prefix string) (expr.Predicate, error) {
	if f.config != nil {
		cfg = f.config
	}
	if f.interceptor != nil {
		interceptor = f.interceptor
	} else if interceptor == nil {
		interceptor = currentDefaultInterceptor()
	}

	var parts []expr.Predicate
	for _, pf := range f.properties {
		p, ok := f.descriptor.Lookup(pf.Property, false)
		if !ok {
			return nil, errs.Unresolved(prefix+pf.Property, f.descriptor.Name)
		}
		ctx := &BuildContext{
			Property:      p,
			Field:         fieldOf(p),
			Path:          prefix + pf.Property,
			Configuration: cfg,
		}
		pred, err := compileProperty(ctx, interceptor, pf)
		if err != nil {
			if e, ok := errs.As(err); ok && cfg.IgnoreParseExceptions && e.Suppressible() {
				cfg.logger().Debug("Dropping unparseable property filter",
					zap.String("property", ctx.Path),
					zap.Error(err),
				)
				continue
			}
			return nil, err
		}
		if pred != nil {
			parts = append(parts, pred)
		}
	}

	for _, nf := range f.nested {
		p, ok := f.descriptor.Lookup(nf.Property, false)
		if !ok {
			return nil, errs.Unresolved(prefix+nf.Property, f.descriptor.Name)
		}
		inner, err := nf.Filter.compile(cfg, interceptor, prefix+nf.Property+PathSeparator)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			continue
		}
		field := fieldOf(p)
		if p.Kind == schema.KindCollection {
			parts = append(parts, expr.Any{Field: field, Predicate: inner})
		} else {
			parts = append(parts, expr.Nested{Field: field, Predicate: inner})
		}
	}

	if len(parts) == 0 {
		return nil, nil
	}
	return expr.AllOf(parts...), nil
}

// compileProperty AND-combines the value filters of one property. Each value
// filter OR-combines the fragments of its values.
func compileProperty(ctx *BuildContext, interceptor Interceptor, pf *PropertyFilter) (expr.Predicate, error) {
	if interceptor != nil {
		pred, ok, err := interceptor.Intercept(ctx, PropertyFilter{Property: pf.Property, Values: cloneValueFilters(pf.Values)})
		if err != nil {
			return nil, err
		}
		if ok {
			return pred, nil
		}
	}

	s, ok := lookupStrategy(ctx.Property.Kind)
	if !ok {
		return nil, errs.UnsupportedType(ctx.Path, ctx.Property.Kind.String())
	}

	var conjuncts []expr.Predicate
	for _, vf := range pf.Values {
		if !s.Supports(vf.Operator) {
			return nil, errs.UnsupportedOperator(ctx.Path, string(vf.Operator), ctx.Property.Kind.String())
		}
		switch vf.Operator {
		case IsNull:
			conjuncts = append(conjuncts, expr.IsNull{Field: ctx.Field})
			continue
		case NotNull:
			conjuncts = append(conjuncts, expr.Not{Predicate: expr.IsNull{Field: ctx.Field}})
			continue
		}
		if len(vf.Values) == 0 {
			continue
		}
		disjuncts := make([]expr.Predicate, 0, len(vf.Values))
		for _, v := range vf.Values {
			pred, err := s.Build(ctx, vf.Operator, v)
			if err != nil {
				return nil, err
			}
			if pred != nil {
				disjuncts = append(disjuncts, pred)
			}
		}
		if len(disjuncts) > 0 {
			conjuncts = append(conjuncts, expr.AnyOf(disjuncts...))
		}
	}
	if len(conjuncts) == 0 {
		return nil, nil
	}
	return expr.AllOf(conjuncts...), nil
}

func fieldOf(p *schema.Property) expr.Field {
	return expr.Field{Name: p.Field, Kind: p.Kind, Enum: p.Enum}
}
