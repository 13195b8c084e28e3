// Package filter builds filters from a compact micro-syntax and compiles them
// into backend-neutral predicates.
//
// A Filter is bound to a record descriptor. It holds, per property, an ordered
// list of ValueFilters and, per navigation property, a nested Filter:
//
//	f := filter.New[Order]()
//	_ = f.AddSyntax("Created", ">=2000,<2001")
//	_ = f.AddSyntax("Customer.Name", "~jo")
//	pred, err := f.Compile()
//
// Values inside one ValueFilter are OR-combined, the ValueFilters of one
// property are AND-combined, and properties and nested filters are
// AND-combined. Filters are not safe for concurrent mutation; compiling a
// filter that is not being mutated is safe from any number of goroutines.
package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/schema"
)

// PathSeparator separates the segments of a nested property path.
const PathSeparator = "."

// ValueFilter is one operator applied to one or more values.
type ValueFilter struct {
	Operator Operator `json:"operator"`
	Values   []string `json:"values,omitempty"`
}

// PropertyFilter holds the value filters of one property.
type PropertyFilter struct {
	Property string        `json:"property"`
	Values   []ValueFilter `json:"values"`
}

// NestedFilter is a filter rooted at a navigation property.
type NestedFilter struct {
	Property string  `json:"property"`
	Filter   *Filter `json:"filter"`
}

// Filter is a filter over records described by a schema descriptor.
type Filter struct {
	descriptor  *schema.Descriptor
	properties  []*PropertyFilter
	nested      []*NestedFilter
	config      *Configuration
	interceptor Interceptor
}

// NewFilter creates an empty filter for records described by d.
func NewFilter(d *schema.Descriptor) *Filter {
	return &Filter{descriptor: d}
}

// Descriptor returns the record descriptor the filter is bound to.
func (f *Filter) Descriptor() *schema.Descriptor {
	return f.descriptor
}

// SetConfiguration attaches a configuration. It takes precedence over any
// configuration supplied at compile time. A nil configuration detaches.
func (f *Filter) SetConfiguration(cfg *Configuration) {
	f.config = cfg
}

// Configuration returns the attached configuration, or nil.
func (f *Filter) Configuration() *Configuration {
	return f.config
}

// SetInterceptor attaches an interceptor that takes precedence over the
// process-wide default.
func (f *Filter) SetInterceptor(i Interceptor) {
	f.interceptor = i
}

// Properties returns the property filters in insertion order.
func (f *Filter) Properties() []PropertyFilter {
	out := make([]PropertyFilter, len(f.properties))
	for i, pf := range f.properties {
		out[i] = PropertyFilter{Property: pf.Property, Values: cloneValueFilters(pf.Values)}
	}
	return out
}

// Nested returns the nested filter of a navigation property.
func (f *Filter) Nested(property string) (*Filter, bool) {
	for _, nf := range f.nested {
		if nf.Property == property {
			return nf.Filter, true
		}
	}
	return nil, false
}

// NestedProperties returns the names of the properties with nested filters.
func (f *Filter) NestedProperties() []string {
	names := make([]string, len(f.nested))
	for i, nf := range f.nested {
		names[i] = nf.Property
	}
	return names
}

// IsEmpty reports whether the filter has neither property nor nested filters.
func (f *Filter) IsEmpty() bool {
	return len(f.properties) == 0 && len(f.nested) == 0
}

func (f *Filter) effectiveConfig() *Configuration {
	return resolveConfiguration(f.config, nil)
}

// resolve finds a filterable property. Errors use path for context.
func (f *Filter) resolve(name, path string, cfg *Configuration) (*schema.Property, error) {
	p, ok := f.descriptor.Lookup(name, cfg.CaseInsensitivePropertyMatching)
	if !ok || !p.Filterable {
		return nil, errs.Unresolved(path, f.descriptor.Name)
	}
	return p, nil
}

// Add appends a value filter to a property of this filter's record type.
func (f *Filter) Add(property string, op Operator, values ...string) error {
	cfg := f.effectiveConfig()
	p, err := f.resolve(property, property, cfg)
	if err != nil {
		return f.suppress(cfg, err)
	}
	if err := checkOperator(p, property, op); err != nil {
		return err
	}
	if len(values) > 0 || op.IsNullCheck() {
		f.append(p.Name, ValueFilter{Operator: op, Values: slices.Clone(values)})
	}
	return nil
}

// AddSyntax parses syntax and appends the resulting value filters to the
// property at path. A dotted path creates nested filters along the way.
func (f *Filter) AddSyntax(path, syntax string) error {
	return f.applySyntax(path, syntax, false)
}

// applySyntax resolves path and checks every parsed operator before touching
// f, so a failed call leaves the filter as it was.
func (f *Filter) applySyntax(path, syntax string, replace bool) error {
	cfg := f.effectiveConfig()
	navigation, p, err := f.resolvePath(path, cfg)
	if err != nil {
		return f.suppress(cfg, err)
	}
	if existing := f.nestedAt(navigation); existing != nil && existing.config != nil {
		cfg = existing.config
	}
	vfs := ParseSyntax(syntax, cfg)
	for _, vf := range vfs {
		if err := checkOperator(p, path, vf.Operator); err != nil {
			return err
		}
	}
	if replace {
		if existing := f.nestedAt(navigation); existing != nil {
			existing.Clear(p.Name)
		}
	}
	if len(vfs) == 0 {
		return nil
	}
	target := f.ensureNested(navigation)
	for _, vf := range vfs {
		target.append(p.Name, vf)
	}
	return nil
}

// Replace sets the value filters of a property, discarding existing ones.
func (f *Filter) Replace(property string, op Operator, values ...string) error {
	cfg := f.effectiveConfig()
	p, err := f.resolve(property, property, cfg)
	if err != nil {
		return f.suppress(cfg, err)
	}
	if err := checkOperator(p, property, op); err != nil {
		return err
	}
	f.Clear(p.Name)
	if len(values) > 0 || op.IsNullCheck() {
		f.append(p.Name, ValueFilter{Operator: op, Values: slices.Clone(values)})
	}
	return nil
}

// ReplaceSyntax is Replace for syntax input. The existing value filters are
// kept when the replacement fails to resolve or parse.
func (f *Filter) ReplaceSyntax(path, syntax string) error {
	return f.applySyntax(path, syntax, true)
}

// Clear removes the value filters and nested filters of the given
// properties, or everything when called without arguments. A cleared filter compiles
// to no predicate, which matches everything.
func (f *Filter) Clear(properties ...string) {
	if len(properties) == 0 {
		f.properties = nil
		f.nested = nil
		return
	}
	f.properties = slices.DeleteFunc(f.properties, func(pf *PropertyFilter) bool {
		return slices.Contains(properties, pf.Property)
	})
	f.nested = slices.DeleteFunc(f.nested, func(nf *NestedFilter) bool {
		return slices.Contains(properties, nf.Property)
	})
}

// AddNested attaches a nested filter to a navigation property, replacing any
// existing one.
func (f *Filter) AddNested(property string, nested *Filter) error {
	cfg := f.effectiveConfig()
	p, err := f.resolve(property, property, cfg)
	if err != nil {
		return err
	}
	if p.Nested() == nil {
		return &errs.Error{
			Code:     errs.CodeUnsupportedType,
			Message:  fmt.Sprintf("%s property cannot hold a nested filter", p.Kind),
			Property: property,
		}
	}
	f.RemoveNested(p.Name)
	f.nested = append(f.nested, &NestedFilter{Property: p.Name, Filter: nested})
	return nil
}

// RemoveNested detaches the nested filter of a property.
func (f *Filter) RemoveNested(property string) {
	f.nested = slices.DeleteFunc(f.nested, func(nf *NestedFilter) bool {
		return nf.Property == property
	})
}

func (f *Filter) append(property string, vf ValueFilter) {
	for _, pf := range f.properties {
		if pf.Property == property {
			pf.Values = append(pf.Values, vf)
			return
		}
	}
	f.properties = append(f.properties, &PropertyFilter{Property: property, Values: []ValueFilter{vf}})
}

// resolvePath resolves every segment of path. It returns the navigation
// properties leading to the owner of the last segment, and that segment's
// property.
func (f *Filter) resolvePath(path string, cfg *Configuration) ([]*schema.Property, *schema.Property, error) {
	segments := strings.Split(path, PathSeparator)
	navigation := make([]*schema.Property, 0, len(segments)-1)
	d := f.descriptor
	for i, segment := range segments[:len(segments)-1] {
		prefix := strings.Join(segments[:i+1], PathSeparator)
		p, ok := d.Lookup(segment, cfg.CaseInsensitivePropertyMatching)
		if !ok || !p.Filterable {
			return nil, nil, errs.Unresolved(prefix, d.Name)
		}
		if p.Nested() == nil {
			return nil, nil, &errs.Error{
				Code:     errs.CodeUnsupportedType,
				Message:  fmt.Sprintf("cannot navigate into %s property", p.Kind),
				Property: prefix,
			}
		}
		navigation = append(navigation, p)
		d = p.Nested()
	}
	p, ok := d.Lookup(segments[len(segments)-1], cfg.CaseInsensitivePropertyMatching)
	if !ok || !p.Filterable {
		return nil, nil, errs.Unresolved(path, d.Name)
	}
	return navigation, p, nil
}

// nestedAt returns the existing filter at the end of navigation, or nil.
func (f *Filter) nestedAt(navigation []*schema.Property) *Filter {
	current := f
	for _, p := range navigation {
		nested, ok := current.Nested(p.Name)
		if !ok {
			return nil
		}
		current = nested
	}
	return current
}

// ensureNested returns the filter at the end of navigation, creating missing
// nested filters.
func (f *Filter) ensureNested(navigation []*schema.Property) *Filter {
	current := f
	for _, p := range navigation {
		nested, ok := current.Nested(p.Name)
		if !ok {
			nested = NewFilter(p.Nested())
			current.nested = append(current.nested, &NestedFilter{Property: p.Name, Filter: nested})
		}
		current = nested
	}
	return current
}

// suppress drops suppressible errors when the configuration ignores parse
// failures.
func (f *Filter) suppress(cfg *Configuration, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := errs.As(err); ok && cfg.IgnoreParseExceptions && e.Suppressible() {
		cfg.logger().Debug("Ignoring filter input", zap.Error(err))
		return nil
	}
	return err
}

func checkOperator(p *schema.Property, path string, op Operator) error {
	s, ok := lookupStrategy(p.Kind)
	if !ok {
		name := p.Kind.String()
		if p.Type != nil {
			name = p.Type.String()
		}
		return errs.UnsupportedType(path, name)
	}
	if !s.Supports(op) {
		return errs.UnsupportedOperator(path, string(op), p.Kind.String())
	}
	return nil
}

// Clone returns a deep copy. The copy shares the descriptor, the attached
// configuration and the interceptor, which are immutable.
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		descriptor:  f.descriptor,
		config:      f.config,
		interceptor: f.interceptor,
	}
	for _, pf := range f.properties {
		clone.properties = append(clone.properties, &PropertyFilter{
			Property: pf.Property,
			Values:   cloneValueFilters(pf.Values),
		})
	}
	for _, nf := range f.nested {
		clone.nested = append(clone.nested, &NestedFilter{Property: nf.Property, Filter: nf.Filter.Clone()})
	}
	return clone
}

func cloneValueFilters(vfs []ValueFilter) []ValueFilter {
	out := make([]ValueFilter, len(vfs))
	for i, vf := range vfs {
		out[i] = ValueFilter{Operator: vf.Operator, Values: slices.Clone(vf.Values)}
	}
	return out
}

// Equal reports whether two filters hold the same structure.
func (f *Filter) Equal(other *Filter) bool {
	if len(f.properties) != len(other.properties) || len(f.nested) != len(other.nested) {
		return false
	}
	for i, pf := range f.properties {
		op := other.properties[i]
		if pf.Property != op.Property || len(pf.Values) != len(op.Values) {
			return false
		}
		for j, vf := range pf.Values {
			if vf.Operator != op.Values[j].Operator || !slices.Equal(vf.Values, op.Values[j].Values) {
				return false
			}
		}
	}
	for i, nf := range f.nested {
		if nf.Property != other.nested[i].Property || !nf.Filter.Equal(other.nested[i].Filter) {
			return false
		}
	}
	return true
}

// String renders the filter as "&"-joined, URL-escaped path=syntax pairs,
// one pair per value filter. Parse reverses it.
func (f *Filter) String() string {
	var pairs []string
	f.render("", f.effectiveConfig(), &pairs)
	return strings.Join(pairs, "&")
}

func (f *Filter) render(prefix string, cfg *Configuration, pairs *[]string) {
	if f.config != nil {
		cfg = f.config
	}
	for _, pf := range f.properties {
		for _, vf := range pf.Values {
			*pairs = append(*pairs, url.QueryEscape(prefix+pf.Property)+"="+url.QueryEscape(FormatSyntax(vf, cfg)))
		}
	}
	for _, nf := range f.nested {
		nf.Filter.render(prefix+nf.Property+PathSeparator, cfg, pairs)
	}
}

// Parse builds a filter for d from the output of String.
func Parse(d *schema.Descriptor, s string) (*Filter, error) {
	f := NewFilter(d)
	if err := f.ParseInto(s); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseInto adds the pairs in s to f.
func (f *Filter) ParseInto(s string) error {
	if s == "" {
		return nil
	}
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		rawPath, rawSyntax, _ := strings.Cut(pair, "=")
		path, err := url.QueryUnescape(rawPath)
		if err != nil {
			return errs.Syntax(rawPath, pair, "malformed filter path: %v", err)
		}
		syntax, err := url.QueryUnescape(rawSyntax)
		if err != nil {
			return errs.Syntax(path, rawSyntax, "malformed filter syntax: %v", err)
		}
		if err := f.AddSyntax(path, syntax); err != nil {
			return err
		}
	}
	return nil
}
