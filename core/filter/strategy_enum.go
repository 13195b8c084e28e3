package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
)

// enumStrategy accepts either a numeric code or text matched against the
// member names. Text produces one equality per matching member, OR-combined.
// Ordering operators compare member codes.
type enumStrategy struct{}

var enumOperators = newOperatorSet(Operators...)

func (enumStrategy) Supports(op Operator) bool {
	return enumOperators.Supports(op)
}

func (enumStrategy) Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error) {
	raw := strings.TrimSpace(value)
	members := ctx.Property.Enum

	if code, err := strconv.ParseInt(raw, 10, 64); err == nil {
		name, _ := schema.MemberName(members, code)
		return expr.Compare{Field: ctx.Field, Op: compareOp(op), Value: expr.EnumValue{Name: name, Code: code}}, nil
	}

	switch op {
	case LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual:
		for _, m := range members {
			if strings.EqualFold(m.Name, raw) {
				return expr.Compare{Field: ctx.Field, Op: compareOp(op), Value: memberValue(m)}, nil
			}
		}
		return nil, errs.Conversion(ctx.Path, string(op), value, fmt.Errorf("%q is not a member name", raw))
	case NotEqual:
		// Negate the positive match so that null stays on the matching side.
		return expr.Not{Predicate: matchMembers(ctx, Contains, raw)}, nil
	default:
		return matchMembers(ctx, op, raw), nil
	}
}

func matchMembers(ctx *BuildContext, op Operator, raw string) expr.Predicate {
	var fragments []expr.Predicate
	for _, m := range ctx.Property.Enum {
		if matchText(op, m.Name, raw, ctx.Configuration.Culture) {
			fragments = append(fragments, expr.Compare{Field: ctx.Field, Op: expr.Eq, Value: memberValue(m)})
		}
	}
	return expr.AnyOf(fragments...)
}

func memberValue(m schema.EnumMember) expr.EnumValue {
	return expr.EnumValue{Name: m.Name, Code: m.Code}
}
