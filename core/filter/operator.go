package filter

import (
	"sort"
	"strings"
)

// Operator selects how the values of a ValueFilter are matched.
type Operator string

const (
	Default              Operator = "default"
	Contains             Operator = "contains"
	StartsWith           Operator = "startsWith"
	EndsWith             Operator = "endsWith"
	EqualCaseSensitive   Operator = "eqCaseSensitive"
	EqualCaseInsensitive Operator = "eqCaseInsensitive"
	NotEqual             Operator = "neq"
	LessThan             Operator = "lt"
	LessThanOrEqual      Operator = "lte"
	GreaterThan          Operator = "gt"
	GreaterThanOrEqual   Operator = "gte"
	IsNull               Operator = "isNull"
	NotNull              Operator = "notNull"
)

// Operators lists every operator.
var Operators = []Operator{
	Default, Contains, StartsWith, EndsWith, EqualCaseSensitive, EqualCaseInsensitive,
	NotEqual, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual, IsNull, NotNull,
}

// IsNullCheck reports whether the operator ignores values.
func (o Operator) IsNullCheck() bool {
	return o == IsNull || o == NotNull
}

// DefaultOperatorTokens maps the built-in syntax tokens to operators. The
// empty token selects Default.
func DefaultOperatorTokens() map[string]Operator {
	return map[string]Operator{
		"":        Default,
		"~":       Contains,
		"^":       StartsWith,
		"$":       EndsWith,
		"=":       EqualCaseInsensitive,
		"==":      EqualCaseSensitive,
		"!":       NotEqual,
		"<":       LessThan,
		"<=":      LessThanOrEqual,
		">":       GreaterThan,
		">=":      GreaterThanOrEqual,
		"ISNULL":  IsNull,
		"NOTNULL": NotNull,
	}
}

// tokenTable is a token map prepared for longest-prefix matching and for
// rendering operators back to tokens.
type tokenTable struct {
	tokens  []string // non-empty tokens, longest first
	lookup  map[string]Operator
	reverse map[Operator]string
}

func newTokenTable(tokens map[string]Operator) *tokenTable {
	if len(tokens) == 0 {
		tokens = DefaultOperatorTokens()
	}
	t := &tokenTable{
		lookup:  tokens,
		reverse: make(map[Operator]string, len(tokens)),
	}
	for token := range tokens {
		if token != "" {
			t.tokens = append(t.tokens, token)
		}
	}
	sort.Slice(t.tokens, func(i, j int) bool {
		if len(t.tokens[i]) != len(t.tokens[j]) {
			return len(t.tokens[i]) > len(t.tokens[j])
		}
		return t.tokens[i] < t.tokens[j]
	})
	// Shortest token wins for rendering, ties broken lexically.
	for i := len(t.tokens) - 1; i >= 0; i-- {
		op := tokens[t.tokens[i]]
		if _, ok := t.reverse[op]; !ok {
			t.reverse[op] = t.tokens[i]
		}
	}
	if op, ok := tokens[""]; ok {
		t.reverse[op] = ""
	}
	return t
}

// match returns the operator token that prefixes s, longest first. It reports
// false when only the empty token applies.
func (t *tokenTable) match(s string) (string, Operator, bool) {
	for _, token := range t.tokens {
		if strings.HasPrefix(s, token) {
			return token, t.lookup[token], true
		}
	}
	return "", t.lookupDefault(), false
}

func (t *tokenTable) lookupDefault() Operator {
	if op, ok := t.lookup[""]; ok {
		return op
	}
	return Default
}

// token renders op, falling back to the built-in tokens when the table has
// no entry.
func (t *tokenTable) token(op Operator) (string, bool) {
	if token, ok := t.reverse[op]; ok {
		return token, true
	}
	for token, o := range DefaultOperatorTokens() {
		if o == op {
			return token, false
		}
	}
	return "", false
}
