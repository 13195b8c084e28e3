package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSyntax(t *testing.T) {
	tests := []struct {
		syntax string
		want   []ValueFilter
	}{
		{"", nil},
		{"abc", []ValueFilter{{Operator: Default, Values: []string{"abc"}}}},
		{"~Joe,Eva", []ValueFilter{{Operator: Contains, Values: []string{"Joe", "Eva"}}}},
		{">=2000,<2001", []ValueFilter{
			{Operator: GreaterThanOrEqual, Values: []string{"2000"}},
			{Operator: LessThan, Values: []string{"2001"}},
		}},
		{"ISNULL", []ValueFilter{{Operator: IsNull}}},
		{"NOTNULL,foo", []ValueFilter{{Operator: NotNull}}},
		{"==Joe", []ValueFilter{{Operator: EqualCaseSensitive, Values: []string{"Joe"}}}},
		{"=joe", []ValueFilter{{Operator: EqualCaseInsensitive, Values: []string{"joe"}}}},
		{"^ab", []ValueFilter{{Operator: StartsWith, Values: []string{"ab"}}}},
		{"$yz", []ValueFilter{{Operator: EndsWith, Values: []string{"yz"}}}},
		{"!x,y", []ValueFilter{{Operator: NotEqual, Values: []string{"x", "y"}}}},
		{"<=5", []ValueFilter{{Operator: LessThanOrEqual, Values: []string{"5"}}}},
		{`a\,b`, []ValueFilter{{Operator: Default, Values: []string{"a,b"}}}},
		{`\~x`, []ValueFilter{{Operator: Default, Values: []string{"~x"}}}},
		{`~a,\>b`, []ValueFilter{{Operator: Contains, Values: []string{"a", ">b"}}}},
		{`>\=5`, []ValueFilter{{Operator: GreaterThan, Values: []string{"=5"}}}},
		{`a\\b`, []ValueFilter{{Operator: Default, Values: []string{`a\b`}}}},
		{"~", nil},
		{">", nil},
		{"^,", nil},
		{"~,joe", []ValueFilter{{Operator: Default, Values: []string{"joe"}}}},
		{"~a,,b", []ValueFilter{{Operator: Contains, Values: []string{"a", "b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.syntax, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSyntax(tt.syntax, nil))
		})
	}
}

func TestParseSyntax_CustomTokens(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Operators = map[string]Operator{"": Default, "has:": Contains, "gt:": GreaterThan}

	assert.Equal(t,
		[]ValueFilter{{Operator: Contains, Values: []string{"x"}}, {Operator: GreaterThan, Values: []string{"3"}}},
		ParseSyntax("has:x,gt:3", cfg))
	assert.Equal(t,
		[]ValueFilter{{Operator: Default, Values: []string{"~x"}}},
		ParseSyntax("~x", cfg))
}

func TestFormatSyntax(t *testing.T) {
	tests := []struct {
		vf   ValueFilter
		want string
	}{
		{ValueFilter{Operator: Default, Values: []string{"abc"}}, "abc"},
		{ValueFilter{Operator: Default, Values: []string{"~x"}}, `\~x`},
		{ValueFilter{Operator: Default, Values: []string{"a", ">b"}}, `a,\>b`},
		{ValueFilter{Operator: Contains, Values: []string{"a,b", "c"}}, `~a\,b,c`},
		{ValueFilter{Operator: GreaterThan, Values: []string{"=5"}}, `>\=5`},
		{ValueFilter{Operator: EqualCaseInsensitive, Values: []string{"=x"}}, `=\=x`},
		{ValueFilter{Operator: EqualCaseSensitive, Values: []string{"Joe"}}, "==Joe"},
		{ValueFilter{Operator: IsNull, Values: []string{"ignored"}}, "ISNULL"},
		{ValueFilter{Operator: NotNull}, "NOTNULL"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatSyntax(tt.vf, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSyntax_RoundTrip(t *testing.T) {
	filters := []ValueFilter{
		{Operator: Default, Values: []string{`back\slash`, "com,ma", "~tilde", "==eq"}},
		{Operator: Contains, Values: []string{"^caret", "plain"}},
		{Operator: LessThan, Values: []string{"=1", "<2"}},
		{Operator: EqualCaseInsensitive, Values: []string{"=", "x"}},
		{Operator: NotEqual, Values: []string{"!"}},
		{Operator: IsNull},
	}
	for _, vf := range filters {
		syntax := FormatSyntax(vf, nil)
		assert.Equal(t, []ValueFilter{vf}, ParseSyntax(syntax, nil), syntax)
	}
}
