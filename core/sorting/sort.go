// Package sorting builds multi-key orderings from compact sort tokens and
// compiles them into backend-neutral sort keys.
//
//	s := sorting.New[Order]()
//	_ = s.AddSyntax("Created-desc, Customer.Name")
//	ordering, err := s.Compile(backend)
//
// Entries are applied in ascending Position; entries with equal positions
// keep the order in which they were added.
package sorting

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-sieve/core/schema"
)

// SelfPath refers to the record itself rather than one of its properties.
const SelfPath = "$"

// PathSeparator separates the segments of a nested property path.
const PathSeparator = "."

// Direction is the direction of one sort key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// PropertySort orders records by the value at Path.
type PropertySort struct {
	Path      string    `json:"path"`
	Direction Direction `json:"direction"`
	Position  int       `json:"position"`
}

// Sort is an ordered list of property sorts over records described by a
// schema descriptor.
type Sort struct {
	descriptor *schema.Descriptor
	entries    []PropertySort
	config     *Configuration
}

// NewSort creates an empty sort for records described by d.
func NewSort(d *schema.Descriptor) *Sort {
	return &Sort{descriptor: d}
}

// Descriptor returns the record descriptor the sort is bound to.
func (s *Sort) Descriptor() *schema.Descriptor {
	return s.descriptor
}

// SetConfiguration attaches a configuration. It takes precedence over any
// configuration supplied at compile time. A nil configuration detaches.
func (s *Sort) SetConfiguration(cfg *Configuration) {
	s.config = cfg
}

// Configuration returns the attached configuration, or nil.
func (s *Sort) Configuration() *Configuration {
	return s.config
}

func (s *Sort) effectiveConfig() *Configuration {
	return resolveConfiguration(s.config, nil)
}

// Add appends a sort on path after every existing entry.
func (s *Sort) Add(path string, dir Direction) {
	s.AddAt(path, dir, s.nextPosition())
}

// AddAt adds a sort on path at an explicit position.
func (s *Sort) AddAt(path string, dir Direction, position int) {
	s.entries = append(s.entries, PropertySort{Path: path, Direction: dir, Position: position})
}

func (s *Sort) nextPosition() int {
	if len(s.entries) == 0 {
		return 0
	}
	highest := s.entries[0].Position
	for _, e := range s.entries[1:] {
		highest = max(highest, e.Position)
	}
	return highest + 1
}

// AddSyntax parses a comma-separated list of sort tokens and appends them in
// order. Nothing is added when any token is malformed, unless the
// configuration ignores parse exceptions; then only the malformed tokens are
// skipped.
func (s *Sort) AddSyntax(syntax string) error {
	if strings.TrimSpace(syntax) == "" {
		return nil
	}
	cfg := s.effectiveConfig()
	var parsed []PropertySort
	for _, token := range strings.Split(syntax, TokenSeparator) {
		if strings.TrimSpace(token) == "" {
			continue
		}
		path, dir, err := ParseToken(token, cfg)
		if err != nil {
			if cfg.IgnoreParseExceptions {
				cfg.logger().Debug("Ignoring sort token", zap.String("token", token), zap.Error(err))
				continue
			}
			return err
		}
		parsed = append(parsed, PropertySort{Path: path, Direction: dir})
	}
	for _, ps := range parsed {
		s.Add(ps.Path, ps.Direction)
	}
	return nil
}

// Remove drops every entry on path. It reports whether anything was removed.
func (s *Sort) Remove(path string) bool {
	n := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e PropertySort) bool {
		return e.Path == path
	})
	return len(s.entries) != n
}

// Clear removes every entry.
func (s *Sort) Clear() {
	s.entries = nil
}

// IsEmpty reports whether the sort has no entries.
func (s *Sort) IsEmpty() bool {
	return len(s.entries) == 0
}

// Sorts returns the entries in application order.
func (s *Sort) Sorts() []PropertySort {
	out := slices.Clone(s.entries)
	slices.SortStableFunc(out, func(a, b PropertySort) int {
		return a.Position - b.Position
	})
	return out
}

// Nested extracts the entries under property as a sort over the property's
// nested descriptor. A sort on property itself becomes a SelfPath entry.
// Positions are preserved.
func (s *Sort) Nested(property string) *Sort {
	var d *schema.Descriptor
	if p, ok := s.descriptor.Lookup(property, false); ok {
		d = p.Nested()
	}
	out := &Sort{descriptor: d, config: s.config}
	for _, e := range s.entries {
		if rest, ok := underProperty(e.Path, property); ok {
			e.Path = rest
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// underProperty reports whether path is property or lies below it, and
// returns the remainder relative to property.
func underProperty(path, property string) (string, bool) {
	if path == property {
		return SelfPath, true
	}
	if rest, ok := strings.CutPrefix(path, property+PathSeparator); ok {
		return rest, true
	}
	return "", false
}

func firstSegment(path string) string {
	head, _, _ := strings.Cut(path, PathSeparator)
	return head
}

// Clone returns a copy that can be modified independently.
func (s *Sort) Clone() *Sort {
	return &Sort{descriptor: s.descriptor, entries: slices.Clone(s.entries), config: s.config}
}

// Equal reports whether both sorts apply the same entries in the same order.
func (s *Sort) Equal(other *Sort) bool {
	a, b := s.Sorts(), other.Sorts()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path || a[i].Direction != b[i].Direction {
			return false
		}
	}
	return true
}

// String renders the entries in application order as comma-separated
// tokens. Parse reverses it.
func (s *Sort) String() string {
	cfg := s.effectiveConfig()
	var tokens []string
	for _, e := range s.Sorts() {
		tokens = append(tokens, FormatToken(e.Path, e.Direction, cfg))
	}
	return strings.Join(tokens, TokenSeparator)
}

// Parse builds a sort for d from the output of String.
func Parse(d *schema.Descriptor, syntax string) (*Sort, error) {
	s := NewSort(d)
	if err := s.AddSyntax(syntax); err != nil {
		return nil, err
	}
	return s, nil
}

// EntitySort is a Sort bound to the Go type T.
type EntitySort[T any] struct {
	*Sort
}

// New creates an empty sort for T.
func New[T any]() *EntitySort[T] {
	return &EntitySort[T]{Sort: NewSort(schema.For[T]())}
}

// ParseEntity builds a sort for T from sort tokens.
func ParseEntity[T any](syntax string) (*EntitySort[T], error) {
	s := New[T]()
	if err := s.AddSyntax(syntax); err != nil {
		return nil, err
	}
	return s, nil
}

// Clone returns a copy that can be modified independently.
func (e *EntitySort[T]) Clone() *EntitySort[T] {
	return &EntitySort[T]{Sort: e.Sort.Clone()}
}

// Cast re-targets a sort for T onto U. See Sort.CastTo.
func Cast[T, U any](e *EntitySort[T]) *EntitySort[U] {
	return &EntitySort[U]{Sort: e.Sort.CastTo(schema.For[U]())}
}
