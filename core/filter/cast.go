package filter

import (
	"github.com/asaidimu/go-sieve/core/schema"
)

// CastTo re-targets a copy of the filter onto records described by dst.
//
// Properties are matched by exact name. Property filters survive when dst
// has a filterable property of the same name whose type accepts the source
// property's values; otherwise they are dropped. Nested filters are kept
// as is when the navigation types are assignable, cast recursively when
// both sides are navigations of different types, and dropped otherwise.
func (f *Filter) CastTo(dst *schema.Descriptor) *Filter {
	return castFilter(f.Clone(), dst)
}

func castFilter(f *Filter, dst *schema.Descriptor) *Filter {
	src := f.descriptor
	out := &Filter{
		descriptor:  dst,
		config:      f.config,
		interceptor: f.interceptor,
	}

	for _, pf := range f.properties {
		sp, ok := src.Lookup(pf.Property, false)
		if !ok {
			continue
		}
		dp, ok := dst.Lookup(pf.Property, false)
		if !ok || !dp.Filterable || !sp.AssignableTo(dp) {
			continue
		}
		out.properties = append(out.properties, pf)
	}

	for _, nf := range f.nested {
		sp, ok := src.Lookup(nf.Property, false)
		if !ok {
			continue
		}
		dp, ok := dst.Lookup(nf.Property, false)
		if !ok || !dp.Filterable || dp.Nested() == nil {
			continue
		}
		var nested *Filter
		if sp.AssignableTo(dp) {
			nested = nf.Filter
			nested.descriptor = dp.Nested()
		} else {
			nested = castFilter(nf.Filter, dp.Nested())
		}
		if !nested.IsEmpty() {
			out.nested = append(out.nested, &NestedFilter{Property: nf.Property, Filter: nested})
		}
	}
	return out
}
