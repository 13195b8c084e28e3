package schema

import (
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

const (
	levelLow level = iota
	levelHigh
)

type address struct {
	City string
	Zip  *int
}

type account struct {
	ID       uuid.UUID
	Name     string
	Age      int
	Balance  apd.Decimal
	Active   bool
	Created  time.Time
	Deleted  *time.Time
	Level    level
	Home     *address
	Previous []address
	Tags     []string
	Secret   string `sieve:"-"`
	Nickname string `sieve:"alias,nosort"`
	Notes    string `sieve:",nofilter"`
	Raw      []byte
	internal string
}

func TestDescribe_Kinds(t *testing.T) {
	RegisterEnum(map[string]level{"Low": levelLow, "High": levelHigh})
	d := For[account]()

	tests := []struct {
		name     string
		kind     Kind
		nullable bool
	}{
		{"ID", KindUUID, false},
		{"Name", KindString, false},
		{"Age", KindNumber, false},
		{"Balance", KindNumber, false},
		{"Active", KindBoolean, false},
		{"Created", KindTime, false},
		{"Deleted", KindTime, true},
		{"Level", KindEnum, false},
		{"Home", KindObject, true},
		{"Previous", KindCollection, true},
		{"Tags", KindCollection, true},
		{"Raw", KindUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := d.Lookup(tt.name, false)
			require.True(t, ok)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.nullable, p.Nullable)
		})
	}
}

func TestDescribe_Tags(t *testing.T) {
	d := For[account]()

	_, ok := d.Lookup("Secret", false)
	assert.False(t, ok, "hidden field")
	_, ok = d.Lookup("internal", false)
	assert.False(t, ok, "unexported field")

	alias, ok := d.Lookup("alias", false)
	require.True(t, ok)
	assert.Equal(t, "Nickname", alias.Field)
	assert.True(t, alias.Filterable)
	assert.False(t, alias.Sortable)

	notes, ok := d.Lookup("Notes", false)
	require.True(t, ok)
	assert.False(t, notes.Filterable)
	assert.True(t, notes.Sortable)

	assert.NotContains(t, d.Filterable(), "Notes")
	assert.NotContains(t, d.Sortable(), "alias")
	assert.NotContains(t, d.Sortable(), "Home", "objects are not sortable")
}

func TestDescribe_Nested(t *testing.T) {
	d := For[account]()

	home, _ := d.Lookup("Home", false)
	require.NotNil(t, home.Nested())
	city, ok := home.Nested().Lookup("City", false)
	require.True(t, ok)
	assert.Equal(t, KindString, city.Kind)

	prev, _ := d.Lookup("Previous", false)
	require.NotNil(t, prev.Nested())
	assert.Equal(t, reflect.TypeFor[address](), prev.Nested().Type)

	tags, _ := d.Lookup("Tags", false)
	assert.Nil(t, tags.Nested())
}

func TestDescribe_Cached(t *testing.T) {
	assert.Same(t, For[account](), For[*account]())
}

func TestDescribe_NonStruct(t *testing.T) {
	assert.Empty(t, For[int]().Properties())
}

func TestDescriptor_LookupCaseInsensitive(t *testing.T) {
	d := For[account]()
	_, ok := d.Lookup("name", false)
	assert.False(t, ok)
	p, ok := d.Lookup("name", true)
	require.True(t, ok)
	assert.Equal(t, "Name", p.Name)
}

func TestRegisterEnum_Members(t *testing.T) {
	RegisterEnum(map[string]level{"Low": levelLow, "High": levelHigh})
	p, _ := For[account]().Lookup("Level", false)
	require.Len(t, p.Enum, 2)
	assert.Equal(t, EnumMember{Name: "Low", Code: 0}, p.Enum[0])
	assert.Equal(t, EnumMember{Name: "High", Code: 1}, p.Enum[1])

	name, ok := MemberName(p.Enum, 1)
	assert.True(t, ok)
	assert.Equal(t, "High", name)
	code, ok := MemberCode(p.Enum, "Low")
	assert.True(t, ok)
	assert.Equal(t, int64(0), code)
}

type accountView struct {
	Name    string
	Age     *int
	Created string
}

func TestProperty_AssignableTo(t *testing.T) {
	src, dst := For[account](), For[accountView]()
	get := func(d *Descriptor, name string) *Property {
		p, ok := d.Lookup(name, false)
		require.True(t, ok)
		return p
	}

	assert.True(t, get(src, "Name").AssignableTo(get(dst, "Name")))
	assert.True(t, get(src, "Age").AssignableTo(get(dst, "Age")), "pointer wrappers are ignored")
	assert.False(t, get(src, "Created").AssignableTo(get(dst, "Created")))
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func testDefinition() *SchemaDefinition {
	items := FieldTypeObject
	return &SchemaDefinition{
		Name:    "people",
		Version: "1",
		Fields: map[string]*FieldDefinition{
			"name":    {Name: "name", Type: FieldTypeString, Required: boolPtr(true)},
			"age":     {Name: "age", Type: FieldTypeInteger},
			"born":    {Name: "born", Type: FieldTypeDateTime, Alias: strPtr("Birthday")},
			"status":  {Name: "status", Type: FieldTypeEnum, Values: []any{"Active", "Suspended"}},
			"home":    {Name: "home", Type: FieldTypeObject, Schema: &FieldSchema{ID: "address"}},
			"history": {Name: "history", Type: FieldTypeArray, ItemsType: &items, Schema: &FieldSchema{ID: "address"}},
			"secret":  {Name: "secret", Type: FieldTypeString, Filterable: boolPtr(false), Sortable: boolPtr(false)},
		},
		NestedSchemas: map[string]*NestedSchemaDefinition{
			"address": {
				Name: "address",
				Fields: map[string]*FieldDefinition{
					"city": {Name: "city", Type: FieldTypeString, Required: boolPtr(true)},
				},
			},
		},
	}
}

func TestDescribeSchema(t *testing.T) {
	d := DescribeSchema(testDefinition())

	name, ok := d.Lookup("name", false)
	require.True(t, ok)
	assert.Equal(t, KindString, name.Kind)
	assert.False(t, name.Nullable)

	born, ok := d.Lookup("Birthday", false)
	require.True(t, ok)
	assert.Equal(t, "born", born.Field)
	assert.Equal(t, KindTime, born.Kind)
	assert.True(t, born.Nullable)

	status, _ := d.Lookup("status", false)
	assert.Equal(t, KindEnum, status.Kind)
	assert.Equal(t, []EnumMember{{"Active", 0}, {"Suspended", 1}}, status.Enum)

	home, _ := d.Lookup("home", false)
	require.NotNil(t, home.Nested())
	_, ok = home.Nested().Lookup("city", false)
	assert.True(t, ok)

	history, _ := d.Lookup("history", false)
	assert.Equal(t, KindCollection, history.Kind)
	assert.Same(t, home.Nested(), history.Nested())

	assert.NotContains(t, d.Filterable(), "secret")
	assert.NotContains(t, d.Sortable(), "secret")
}
