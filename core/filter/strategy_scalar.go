package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
)

// booleanStrategy accepts native boolean literals and the configured
// true/false tokens.
type booleanStrategy struct{}

var booleanOperators = newOperatorSet(
	Default, EqualCaseSensitive, EqualCaseInsensitive, NotEqual, IsNull, NotNull,
)

func (booleanStrategy) Supports(op Operator) bool {
	return booleanOperators.Supports(op)
}

func (booleanStrategy) Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error) {
	b, err := parseBool(value, ctx.Configuration)
	if err != nil {
		return nil, errs.Conversion(ctx.Path, string(op), value, err)
	}
	return expr.Compare{Field: ctx.Field, Op: compareOp(op), Value: b}, nil
}

func parseBool(raw string, cfg *Configuration) (bool, error) {
	s := strings.TrimSpace(raw)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	for _, t := range cfg.BoolTrueStrings {
		if strings.EqualFold(s, t) {
			return true, nil
		}
	}
	for _, f := range cfg.BoolFalseStrings {
		if strings.EqualFold(s, f) {
			return false, nil
		}
	}
	return false, fmt.Errorf("%q is not a boolean", raw)
}

// guidStrategy compares canonical identifiers. Contains matches the
// upper-cased textual rendering instead.
type guidStrategy struct{}

var guidOperators = newOperatorSet(
	Default, EqualCaseSensitive, EqualCaseInsensitive, NotEqual, Contains, IsNull, NotNull,
)

func (guidStrategy) Supports(op Operator) bool {
	return guidOperators.Supports(op)
}

func (guidStrategy) Build(ctx *BuildContext, op Operator, value string) (expr.Predicate, error) {
	if op == Contains {
		return expr.Text{
			Field: ctx.Field,
			Op:    expr.Contains,
			Value: strings.ToUpper(strings.TrimSpace(value)),
			Fold:  true,
		}, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return nil, errs.Conversion(ctx.Path, string(op), value, err)
	}
	return expr.Compare{Field: ctx.Field, Op: compareOp(op), Value: id}, nil
}
