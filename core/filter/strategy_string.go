package filter

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/asaidimu/go-sieve/core/expr"
)

// stringStrategy matches text. Matching is case-insensitive except for
// EqualCaseSensitive, and NotEqual means "does not contain".
type stringStrategy struct{}

var stringOperators = newOperatorSet(
	Default, Contains, StartsWith, EndsWith, EqualCaseSensitive, EqualCaseInsensitive,
	NotEqual, IsNull, NotNull,
)

func (stringStrategy) Supports(op Operator) bool {
	return stringOperators.Supports(op)
}

func (stringStrategy) Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error) {
	tag := ctx.Configuration.Culture
	text := func(textOp expr.TextOp) expr.Text {
		return expr.Text{Field: ctx.Field, Op: textOp, Value: expr.Fold(value, tag), Fold: true, Culture: tag}
	}

	switch op {
	case Default, Contains:
		return text(expr.Contains), nil
	case StartsWith:
		return text(expr.StartsWith), nil
	case EndsWith:
		return text(expr.EndsWith), nil
	case EqualCaseInsensitive:
		return text(expr.Equals), nil
	case EqualCaseSensitive:
		return expr.Compare{Field: ctx.Field, Op: expr.Eq, Value: norm.NFC.String(value)}, nil
	case NotEqual:
		return expr.Not{Predicate: text(expr.Contains)}, nil
	}
	return nil, nil
}

// matchText applies the string operator semantics to a candidate in memory.
// It is used where values are matched at compile time, such as enum member
// names.
func matchText(op Operator, candidate, value string, tag language.Tag) bool {
	if op == EqualCaseSensitive {
		return candidate == value
	}
	c, v := expr.Fold(candidate, tag), expr.Fold(value, tag)
	switch op {
	case Default, Contains:
		return strings.Contains(c, v)
	case StartsWith:
		return strings.HasPrefix(c, v)
	case EndsWith:
		return strings.HasSuffix(c, v)
	case EqualCaseInsensitive:
		return c == v
	case NotEqual:
		return !strings.Contains(c, v)
	}
	return false
}
