package filter

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
)

// numericStrategy parses decimal literals with the configured culture's
// separators. Contains matches the textual rendering of the value.
type numericStrategy struct{}

var numericOperators = newOperatorSet(
	Default, EqualCaseSensitive, EqualCaseInsensitive, NotEqual,
	LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual,
	Contains, IsNull, NotNull,
)

func (numericStrategy) Supports(op Operator) bool {
	return numericOperators.Supports(op)
}

func (numericStrategy) Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error) {
	if op == Contains {
		tag := ctx.Configuration.Culture
		return expr.Text{
			Field:   ctx.Field,
			Op:      expr.Contains,
			Value:   expr.Fold(strings.TrimSpace(value), tag),
			Fold:    true,
			Culture: tag,
		}, nil
	}

	d, err := parseDecimal(value, ctx.Configuration.Culture)
	if err != nil {
		return nil, errs.Conversion(ctx.Path, string(op), value, err)
	}
	return expr.Compare{Field: ctx.Field, Op: compareOp(op), Value: d}, nil
}

// compareOp maps equality and ordering operators onto comparisons.
func compareOp(op Operator) expr.CompareOp {
	switch op {
	case NotEqual:
		return expr.Neq
	case LessThan:
		return expr.Lt
	case LessThanOrEqual:
		return expr.Lte
	case GreaterThan:
		return expr.Gt
	case GreaterThanOrEqual:
		return expr.Gte
	default:
		return expr.Eq
	}
}

type separators struct {
	group   string
	decimal string
}

var cultureSeparators sync.Map // language.Tag -> separators

// separatorsFor derives the grouping and decimal separators of a culture by
// formatting a known number with its CLDR number format.
func separatorsFor(tag language.Tag) separators {
	if s, ok := cultureSeparators.Load(tag); ok {
		return s.(separators)
	}

	formatted := message.NewPrinter(tag).Sprintf("%v", number.Decimal(1234567.5))
	var runs []string
	var current strings.Builder
	for _, r := range formatted {
		if unicode.IsDigit(r) {
			if current.Len() > 0 {
				runs = append(runs, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteRune(r)
	}

	s := separators{group: ",", decimal: "."}
	switch len(runs) {
	case 0:
	case 1:
		s = separators{decimal: runs[0]}
	default:
		s = separators{group: runs[0], decimal: runs[len(runs)-1]}
	}
	cultureSeparators.Store(tag, s)
	return s
}

// parseDecimal parses a decimal literal written in the given culture.
func parseDecimal(raw string, tag language.Tag) (*apd.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty number")
	}
	sep := separatorsFor(tag)
	if sep.group != "" && sep.group != sep.decimal {
		s = strings.ReplaceAll(s, sep.group, "")
		if strings.TrimSpace(sep.group) == "" {
			s = strings.ReplaceAll(s, " ", "")
		}
	}
	if sep.decimal != "." {
		s = strings.ReplaceAll(s, sep.decimal, ".")
	}

	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("%q is not a finite number", raw)
	}
	return d, nil
}
