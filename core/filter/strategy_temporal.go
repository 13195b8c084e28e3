package filter

import (
	"errors"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
)

var errUnboundedStart = errors.New("range has no start")

// temporalStrategy resolves values to time ranges. Default and Contains test
// membership in the range; every other operator compares with its start.
type temporalStrategy struct{}

var temporalOperators = newOperatorSet(
	Default, Contains, EqualCaseSensitive, EqualCaseInsensitive, NotEqual,
	LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual, IsNull, NotNull,
)

func (temporalStrategy) Supports(op Operator) bool {
	return temporalOperators.Supports(op)
}

func (temporalStrategy) Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error) {
	r, err := ctx.Dates().Parse(value)
	if err != nil {
		return nil, errs.Conversion(ctx.Path, string(op), value, err)
	}

	if op == Default || op == Contains {
		var bounds []expr.Predicate
		if r.Start != nil {
			bounds = append(bounds, expr.Compare{Field: ctx.Field, Op: expr.Gte, Value: *r.Start})
		}
		if r.End != nil {
			bounds = append(bounds, expr.Compare{Field: ctx.Field, Op: expr.Lt, Value: *r.End})
		}
		return expr.AllOf(bounds...), nil
	}

	if r.Start == nil {
		return nil, errs.Conversion(ctx.Path, string(op), value, errUnboundedStart)
	}
	return expr.Compare{Field: ctx.Field, Op: compareOp(op), Value: *r.Start}, nil
}
