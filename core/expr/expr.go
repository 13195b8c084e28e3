// Package expr is the backend-neutral representation of compiled filters and
// sorts. Filters compile to a Predicate tree and sorts to an Ordering. The
// in-memory processor evaluates these trees directly and the SQLite dialect
// lowers them to SQL.
//
// Predicate is a sealed interface: only types in this package implement it,
// so consumers can switch exhaustively over the node types.
package expr

import (
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/schema"
)

// Predicate is a boolean expression over one record.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Field addresses one member of the current record.
type Field struct {
	// Name is the Go struct field name or document key.
	Name string
	Kind schema.Kind
	// Enum lists the members of enum fields, used to map names to codes.
	Enum []schema.EnumMember
}

// Const is a constant truth value.
type Const struct {
	Value bool
}

func (Const) predicateNode() {}

// And is true when every predicate is true. An empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is true when at least one predicate is true. An empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// IsNull is true when the field is absent or null.
type IsNull struct {
	Field Field
}

func (IsNull) predicateNode() {}

// CompareOp is an ordering or equality comparison.
type CompareOp string

const (
	Eq  CompareOp = "="
	Neq CompareOp = "!="
	Lt  CompareOp = "<"
	Lte CompareOp = "<="
	Gt  CompareOp = ">"
	Gte CompareOp = ">="
)

// Compare compares a field against a typed literal.
//
// Value is one of string, *apd.Decimal, bool, uuid.UUID, time.Time or
// EnumValue. A null field satisfies only Neq.
type Compare struct {
	Field Field
	Op    CompareOp
	Value any
}

func (Compare) predicateNode() {}

// EnumValue is an enum literal. Enums compare by code.
type EnumValue struct {
	Name string
	Code int64
}

// TextOp is a textual match.
type TextOp string

const (
	Contains   TextOp = "CONTAINS"
	StartsWith TextOp = "STARTS_WITH"
	EndsWith   TextOp = "ENDS_WITH"
	Equals     TextOp = "EQUALS"
)

// Text matches the textual rendering of a field. When Fold is set both sides
// are upper-cased using Culture before matching. Non-string fields are
// rendered canonically: numbers as plain decimals, UUIDs in 8-4-4-4-12 form.
// A null field never matches.
type Text struct {
	Field   Field
	Op      TextOp
	Value   string
	Fold    bool
	Culture language.Tag
}

func (Text) predicateNode() {}

// Nested applies a predicate to a single-valued navigation. It is false when
// the navigation is null.
type Nested struct {
	Field     Field
	Predicate Predicate
}

func (Nested) predicateNode() {}

// Any is true when a collection is not null and at least one element
// satisfies the predicate.
type Any struct {
	Field     Field
	Predicate Predicate
}

func (Any) predicateNode() {}

// AllOf combines predicates with AND, dropping nil entries. A single predicate
// is returned as is.
func AllOf(predicates ...Predicate) Predicate {
	return combine(predicates, func(ps []Predicate) Predicate { return And{Predicates: ps} }, true)
}

// AnyOf combines predicates with OR, dropping nil entries. A single predicate
// is returned as is.
func AnyOf(predicates ...Predicate) Predicate {
	return combine(predicates, func(ps []Predicate) Predicate { return Or{Predicates: ps} }, false)
}

func combine(predicates []Predicate, wrap func([]Predicate) Predicate, empty bool) Predicate {
	kept := make([]Predicate, 0, len(predicates))
	for _, p := range predicates {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Const{Value: empty}
	case 1:
		return kept[0]
	default:
		return wrap(kept)
	}
}
