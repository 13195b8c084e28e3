// Package errs defines the typed errors produced while compiling filters and
// sorts.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes compile errors.
type Code string

const (
	// CodeSyntax indicates a token matches no operator or direction grammar,
	// or a required value is missing.
	CodeSyntax Code = "SYNTAX"

	// CodeValueConversion indicates a raw value cannot be converted to the
	// property's type.
	CodeValueConversion Code = "VALUE_CONVERSION"

	// CodeUnsupportedOperator indicates an operator is valid but not supported
	// for the property's type.
	CodeUnsupportedOperator Code = "UNSUPPORTED_OPERATOR"

	// CodeUnresolvedProperty indicates a property or path segment does not
	// exist on the traversed type.
	CodeUnresolvedProperty Code = "UNRESOLVED_PROPERTY"

	// CodeUnsupportedType indicates no value strategy handles the property's
	// type.
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE"
)

// Error is a compile error. It carries enough context to diagnose the
// failure without re-parsing the input.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Property is the property name or dotted path involved.
	Property string

	// Operator is the operator involved, if any.
	Operator string

	// Value is the raw value involved, if any.
	Value string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var ctx []string
	if e.Property != "" {
		ctx = append(ctx, "property="+e.Property)
	}
	if e.Operator != "" {
		ctx = append(ctx, "operator="+e.Operator)
	}
	if e.Value != "" {
		ctx = append(ctx, fmt.Sprintf("value=%q", e.Value))
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Suppressible reports whether the error may be ignored when a configuration
// asks to ignore parse failures. Programming and configuration mistakes are
// never suppressible.
func (e *Error) Suppressible() bool {
	switch e.Code {
	case CodeSyntax, CodeValueConversion, CodeUnresolvedProperty:
		return true
	}
	return false
}

// Is reports whether err, or any error it wraps, is an *Error with the given
// code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Syntax creates a SYNTAX error.
func Syntax(property, value, format string, args ...any) *Error {
	return &Error{Code: CodeSyntax, Message: fmt.Sprintf(format, args...), Property: property, Value: value}
}

// Conversion creates a VALUE_CONVERSION error wrapping cause.
func Conversion(property, operator, value string, cause error) *Error {
	return &Error{
		Code:     CodeValueConversion,
		Message:  "cannot convert value",
		Property: property,
		Operator: operator,
		Value:    value,
		Err:      cause,
	}
}

// UnsupportedOperator creates an UNSUPPORTED_OPERATOR error.
func UnsupportedOperator(property, operator, kind string) *Error {
	return &Error{
		Code:     CodeUnsupportedOperator,
		Message:  fmt.Sprintf("operator not supported for %s properties", kind),
		Property: property,
		Operator: operator,
	}
}

// Unresolved creates an UNRESOLVED_PROPERTY error.
func Unresolved(property, owner string) *Error {
	msg := "property does not exist"
	if owner != "" {
		msg = fmt.Sprintf("property does not exist on %s", owner)
	}
	return &Error{Code: CodeUnresolvedProperty, Message: msg, Property: property}
}

// UnsupportedType creates an UNSUPPORTED_TYPE error.
func UnsupportedType(property, typeName string) *Error {
	return &Error{
		Code:     CodeUnsupportedType,
		Message:  fmt.Sprintf("type %s is not filterable by any known expression creator", typeName),
		Property: property,
	}
}
