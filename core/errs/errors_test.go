package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := Conversion("Age", ">", "abc", errors.New("not a number"))
	assert.Equal(t, `VALUE_CONVERSION: cannot convert value (property=Age, operator=>, value="abc"): not a number`, err.Error())

	err = Unresolved("Nested.Missing", "Item")
	assert.Equal(t, "UNRESOLVED_PROPERTY: property does not exist on Item (property=Nested.Missing)", err.Error())
}

func TestIs(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("compile filter: %w", Conversion("Age", "", "x", cause))

	assert.True(t, Is(wrapped, CodeValueConversion))
	assert.False(t, Is(wrapped, CodeSyntax))
	assert.False(t, Is(cause, CodeValueConversion))
	assert.ErrorIs(t, wrapped, cause)

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "Age", e.Property)
}

func TestSuppressible(t *testing.T) {
	tests := []struct {
		err  *Error
		want bool
	}{
		{Syntax("A", "", "bad"), true},
		{Conversion("A", "", "", nil), true},
		{Unresolved("A", ""), true},
		{UnsupportedOperator("A", ">", "boolean"), false},
		{UnsupportedType("A", "chan int"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Suppressible(), string(tt.err.Code))
	}
}
