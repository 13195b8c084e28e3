package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/errs"
	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
)

func TestCompile_Interceptor(t *testing.T) {
	var seen []string
	interceptor := InterceptorFunc(func(ctx *BuildContext, pf PropertyFilter) (expr.Predicate, bool, error) {
		seen = append(seen, ctx.Path)
		if pf.Property == "Name" {
			return expr.Const{Value: true}, true, nil
		}
		return nil, false, nil
	})

	f := newItemFilter()
	f.SetInterceptor(interceptor)
	require.NoError(t, f.AddSyntax("Name", "~jo"))
	require.NoError(t, f.AddSyntax("Age", ">1"))
	require.NoError(t, f.AddSyntax("NestedObject.Value", "x"))

	assert.Equal(t, `(TRUE AND Age > 1 AND NestedObject{Value CONTAINS^ "X"})`, compiled(t, f.Filter))
	assert.Equal(t, []string{"Name", "Age", "NestedObject.Value"}, seen)
}

func TestCompile_InterceptorError(t *testing.T) {
	boom := errors.New("boom")
	f := newItemFilter()
	f.SetInterceptor(InterceptorFunc(func(*BuildContext, PropertyFilter) (expr.Predicate, bool, error) {
		return nil, false, boom
	}))
	require.NoError(t, f.AddSyntax("Name", "x"))

	_, err := f.Compile()
	assert.ErrorIs(t, err, boom)
}

func TestCompile_DefaultInterceptor(t *testing.T) {
	SetDefaultInterceptor(InterceptorFunc(func(ctx *BuildContext, pf PropertyFilter) (expr.Predicate, bool, error) {
		return nil, true, nil
	}))
	defer ResetDefaultInterceptor()

	f := newItemFilter()
	require.NoError(t, f.AddSyntax("Name", "x"))
	assert.Equal(t, "<none>", compiled(t, f.Filter), "a nil override drops the property")

	attached := InterceptorFunc(func(*BuildContext, PropertyFilter) (expr.Predicate, bool, error) {
		return nil, false, nil
	})
	f.SetInterceptor(attached)
	assert.Equal(t, `Name CONTAINS^ "X"`, compiled(t, f.Filter))
}

// exactText compares strings verbatim and knows no other operator.
type exactText struct{}

func (exactText) Supports(op Operator) bool {
	return op == Default || op == IsNull
}

func (exactText) Build(ctx *BuildContext, _ Operator, value string) (expr.Predicate, error) {
	return expr.Compare{Field: ctx.Field, Op: expr.Eq, Value: value}, nil
}

func TestCompile_RegisteredStrategy(t *testing.T) {
	previous, ok := lookupStrategy(schema.KindString)
	require.True(t, ok)
	RegisterStrategy(schema.KindString, exactText{})
	t.Cleanup(func() { RegisterStrategy(schema.KindString, previous) })

	f := newItemFilter()
	require.NoError(t, f.AddSyntax("Name", "Bob,Ann"))
	require.NoError(t, f.AddSyntax("Nick", "ISNULL"))
	assert.Equal(t, `((Name = "Bob" OR Name = "Ann") AND Nick IS NULL)`, compiled(t, f.Filter))

	err := f.AddSyntax("Name", "~jo")
	assert.True(t, errs.Is(err, errs.CodeUnsupportedOperator), "got %v", err)

	RegisterStrategy(schema.KindString, previous)
	assert.Equal(t, `((Name CONTAINS^ "BOB" OR Name CONTAINS^ "ANN") AND Nick IS NULL)`, compiled(t, f.Filter),
		"strategies are looked up when compiling")
}

func TestCompile_ConfigurationPrecedence(t *testing.T) {
	lenient := testConfig()
	lenient.IgnoreParseExceptions = true
	strict := testConfig()

	f := New[item]()
	require.NoError(t, f.AddSyntax("Age", "abc"))

	_, err := f.Compile()
	assert.True(t, errs.Is(err, errs.CodeValueConversion), "built-in default is strict")

	pred, err := f.CompileWith(lenient)
	require.NoError(t, err)
	assert.Nil(t, pred, "injected configuration applies")

	SetDefaultConfiguration(lenient)
	pred, err = f.Compile()
	require.NoError(t, err)
	assert.Nil(t, pred, "process default applies")

	_, err = f.CompileWith(strict)
	assert.Error(t, err, "injected configuration beats the process default")

	f.SetConfiguration(strict)
	_, err = f.CompileWith(lenient)
	assert.Error(t, err, "attached configuration beats the injected one")

	ResetDefaultConfiguration()
	f.SetConfiguration(nil)
	_, err = f.Compile()
	assert.Error(t, err)
}

func TestCompile_NumericCulture(t *testing.T) {
	cfg := testConfig()
	cfg.Culture = language.German
	f := New[item]()
	f.SetConfiguration(cfg)
	require.NoError(t, f.AddSyntax("Score", `>1.234\,5`))
	assert.Equal(t, `Score > 1234.5`, compiled(t, f.Filter))
}

func TestCompile_DateCulture(t *testing.T) {
	cfg := testConfig()
	cfg.Culture = language.German
	f := New[item]()
	f.SetConfiguration(cfg)
	require.NoError(t, f.AddSyntax("Created", "15.06.2020"))
	assert.Equal(t,
		`(Created >= 2020-06-15T00:00:00Z AND Created < 2020-06-16T00:00:00Z)`,
		compiled(t, f.Filter))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		tag  language.Tag
		raw  string
		want string
	}{
		{language.Und, "1234.5", "1234.5"},
		{language.Und, " -42 ", "-42"},
		{language.AmericanEnglish, "1,234.5", "1234.5"},
		{language.AmericanEnglish, "1e3", "1E+3"},
		{language.German, "1.234,5", "1234.5"},
		{language.German, "0,25", "0.25"},
		{language.French, "1 234,5", "1234.5"},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String()+" "+tt.raw, func(t *testing.T) {
			d, err := parseDecimal(tt.raw, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}

	for _, raw := range []string{"", "abc", "NaN", "Infinity", "1.2.3"} {
		_, err := parseDecimal(raw, language.Und)
		assert.Error(t, err, raw)
	}
}

func TestCompile_BooleanTokens(t *testing.T) {
	cfg := testConfig()
	cfg.BoolTrueStrings = []string{"on"}
	cfg.BoolFalseStrings = []string{"off"}
	f := New[item]()
	f.SetConfiguration(cfg)
	require.NoError(t, f.AddSyntax("Active", "ON,Off"))
	assert.Equal(t, `(Active = true OR Active = false)`, compiled(t, f.Filter))

	require.NoError(t, f.ReplaceSyntax("Active", "yes"))
	_, err := f.Compile()
	assert.True(t, errs.Is(err, errs.CodeValueConversion))
}

func TestCompile_NaturalLanguageDates(t *testing.T) {
	f := newItemFilter()
	require.NoError(t, f.AddSyntax("Created", "5 days ago"))
	start := reference.AddDate(0, 0, -5).Format(time.RFC3339)
	assert.Equal(t,
		`(Created >= `+start+` AND Created < 2024-03-10T12:00:00Z)`,
		compiled(t, f.Filter))
}

func TestCompile_ConcurrentReaders(t *testing.T) {
	f := newItemFilter()
	require.NoError(t, f.AddSyntax("Name", "~jo"))
	require.NoError(t, f.AddSyntax("Created", "2020"))

	done := make(chan string, 8)
	for range 8 {
		go func() {
			pred, err := f.Compile()
			if err != nil {
				done <- err.Error()
				return
			}
			done <- expr.Format(pred)
		}()
	}
	want := compiled(t, f.Filter)
	for range 8 {
		assert.Equal(t, want, <-done)
	}
}
