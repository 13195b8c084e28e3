package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-sieve/core/schema"
)

type castSource struct {
	Name    string
	Age     int
	Created time.Time
	Home    *nested
	Aliases []nested
}

type castNested struct {
	Value  string
	Length string
}

type castTarget struct {
	Name    string
	Created string
	Home    *castNested
	Aliases []nested
}

func TestCast(t *testing.T) {
	f := New[castSource]()
	require.NoError(t, f.AddSyntax("Name", "~a"))
	require.NoError(t, f.AddSyntax("Age", ">1"))
	require.NoError(t, f.AddSyntax("Created", "2020"))
	require.NoError(t, f.AddSyntax("Home.Value", "~x"))
	require.NoError(t, f.AddSyntax("Home.Length", ">2"))
	require.NoError(t, f.AddSyntax("Aliases.Length", "3"))
	before := f.String()

	cast := Cast[castSource, castTarget](f)
	assert.Equal(t, "Name=~a&Home.Value=~x&Aliases.Length=3", cast.String())
	assert.Same(t, schema.For[castTarget](), cast.Descriptor())

	home, ok := cast.Nested("Home")
	require.True(t, ok)
	assert.Same(t, schema.For[castNested](), home.Descriptor())

	assert.Equal(t, before, f.String(), "the source filter is untouched")
}

func TestCast_DropsEmptyNested(t *testing.T) {
	f := New[castSource]()
	require.NoError(t, f.AddSyntax("Home.Length", ">2"))

	cast := Cast[castSource, castTarget](f)
	assert.True(t, cast.IsEmpty())
	pred, err := cast.Compile()
	require.NoError(t, err)
	assert.Nil(t, pred)
}

func TestCast_Documents(t *testing.T) {
	def := &schema.SchemaDefinition{
		Name: "people",
		Fields: map[string]*schema.FieldDefinition{
			"Name":    {Name: "Name", Type: schema.FieldTypeString},
			"Created": {Name: "Created", Type: schema.FieldTypeDateTime},
		},
	}
	f := New[castSource]()
	require.NoError(t, f.AddSyntax("Name", "~a"))
	require.NoError(t, f.AddSyntax("Created", "2020"))
	require.NoError(t, f.AddSyntax("Age", "1"))

	cast := f.CastTo(schema.DescribeSchema(def))
	assert.Equal(t, "Name=~a&Created=2020", cast.String())
}
