package query

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/core/sorting"
)

type tier int

const (
	tierBronze tier = iota
	tierSilver
	tierGold
)

func init() {
	schema.RegisterEnum(map[string]tier{"Bronze": tierBronze, "Silver": tierSilver, "Gold": tierGold})
}

type detail struct {
	Value  string
	Length int
}

type row struct {
	ID      uuid.UUID
	Name    string
	Nick    *string
	Age     int
	Score   float64
	Tier    tier
	Created time.Time
	Detail  *detail
	Items   []detail
}

var (
	rowID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	sample = row{
		ID:      rowID,
		Name:    "Jo Smith",
		Age:     30,
		Score:   1.5,
		Tier:    tierSilver,
		Created: time.Date(2020, 5, 1, 8, 0, 0, 0, time.UTC),
		Detail:  &detail{Value: "abc", Length: 3},
		Items:   []detail{{Value: "x", Length: 1}, {Value: "y", Length: 2}},
	}

	age     = expr.Field{Name: "Age", Kind: schema.KindNumber}
	name    = expr.Field{Name: "Name", Kind: schema.KindString}
	nick    = expr.Field{Name: "Nick", Kind: schema.KindString}
	score   = expr.Field{Name: "Score", Kind: schema.KindNumber}
	length  = expr.Field{Name: "Length", Kind: schema.KindNumber}
	value   = expr.Field{Name: "Value", Kind: schema.KindString}
	created = expr.Field{Name: "Created", Kind: schema.KindTime}
	details = expr.Field{Name: "Detail", Kind: schema.KindObject}
	items   = expr.Field{Name: "Items", Kind: schema.KindCollection}
	tiers   = expr.Field{Name: "Tier", Kind: schema.KindEnum, Enum: []schema.EnumMember{
		{Name: "Bronze", Code: 0}, {Name: "Silver", Code: 1}, {Name: "Gold", Code: 2},
	}}
)

func text(f expr.Field, op expr.TextOp, v string) expr.Text {
	return expr.Text{Field: f, Op: op, Value: v, Fold: true, Culture: language.Und}
}

func TestProcessor_Match(t *testing.T) {
	tests := []struct {
		name string
		pred expr.Predicate
		want bool
	}{
		{"gte", expr.Compare{Field: age, Op: expr.Gte, Value: apd.New(30, 0)}, true},
		{"lt", expr.Compare{Field: age, Op: expr.Lt, Value: apd.New(30, 0)}, false},
		{"null equals nothing", expr.Compare{Field: nick, Op: expr.Eq, Value: "x"}, false},
		{"null differs from everything", expr.Compare{Field: nick, Op: expr.Neq, Value: "x"}, true},
		{"is null", expr.IsNull{Field: nick}, true},
		{"not null", expr.IsNull{Field: name}, false},
		{"navigation not null", expr.IsNull{Field: details}, false},
		{"contains folded", text(name, expr.Contains, "SMITH"), true},
		{"starts with", text(name, expr.StartsWith, "JO "), true},
		{"ends with", text(name, expr.EndsWith, "JO"), false},
		{"equals", text(name, expr.Equals, "JO SMITH"), true},
		{"text on null", text(nick, expr.Contains, ""), false},
		{"negated text on null", expr.Not{Predicate: text(nick, expr.Contains, "A")}, true},
		{"case sensitive", expr.Compare{Field: name, Op: expr.Eq, Value: "jo smith"}, false},
		{"number as text", text(score, expr.Contains, "1.5"), true},
		{"enum order", expr.Compare{Field: tiers, Op: expr.Gt, Value: expr.EnumValue{Name: "Bronze", Code: 0}}, true},
		{"enum equality", expr.Compare{Field: tiers, Op: expr.Eq, Value: expr.EnumValue{Name: "Gold", Code: 2}}, false},
		{"time", expr.Compare{Field: created, Op: expr.Gte, Value: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"uuid", expr.Compare{Field: expr.Field{Name: "ID", Kind: schema.KindUUID}, Op: expr.Eq, Value: rowID}, true},
		{"nested", expr.Nested{Field: details, Predicate: expr.Compare{Field: length, Op: expr.Eq, Value: apd.New(3, 0)}}, true},
		{"any", expr.Any{Field: items, Predicate: text(value, expr.Equals, "Y")}, true},
		{"any none", expr.Any{Field: items, Predicate: expr.Compare{Field: length, Op: expr.Gt, Value: apd.New(5, 0)}}, false},
		{"and", expr.And{Predicates: []expr.Predicate{expr.Const{Value: true}, expr.IsNull{Field: nick}}}, true},
		{"or", expr.Or{Predicates: []expr.Predicate{expr.Const{Value: false}, expr.IsNull{Field: name}}}, false},
	}

	p := NewProcessor(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := p.Match(context.Background(), tt.pred, sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			ok, err = p.Match(context.Background(), tt.pred, &sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok, "pointer records")
		})
	}
}

func TestProcessor_NestedAbsence(t *testing.T) {
	p := NewProcessor(nil)
	orphan := row{Name: "x"}
	nested := expr.Nested{Field: details, Predicate: text(value, expr.Contains, "")}

	ok, err := p.Match(context.Background(), nested, orphan)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Match(context.Background(), expr.Any{Field: items, Predicate: expr.Const{Value: true}}, orphan)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Match(context.Background(), nil, orphan)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Where(ctx, NewProcessor(nil), []row{sample}, expr.Const{Value: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApply(t *testing.T) {
	rows := []row{
		{Name: "Ann", Age: 20, Created: time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Bob", Age: 40, Created: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Cid", Age: 35, Created: time.Date(2000, 12, 31, 23, 59, 0, 0, time.UTC)},
		{Name: "Dee", Age: 50, Created: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	cfg := filter.DefaultConfiguration()
	cfg.Location = time.UTC

	f := filter.New[row]()
	f.SetConfiguration(cfg)
	require.NoError(t, f.AddSyntax("Created", ">=2000,<2001"))
	s := sorting.New[row]()
	require.NoError(t, s.AddSyntax("Age-desc"))

	got, err := Apply(context.Background(), NewProcessor(nil), rows, f.Filter, s.Sort)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cid", got[0].Name)
	assert.Equal(t, "Ann", got[1].Name)

	got, err = Apply(context.Background(), NewProcessor(nil), rows, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestOrderBy(t *testing.T) {
	rows := []row{
		{Name: "b", Detail: &detail{Length: 1}},
		{Name: "a"},
		{Name: "c", Detail: &detail{Length: 1}},
		{Name: "d", Detail: &detail{Length: 5}},
	}
	p := NewProcessor(nil)
	s := sorting.New[row]()
	require.NoError(t, s.AddSyntax("Detail.Length-desc,Name"))

	ordering, err := s.Compile(p)
	require.NoError(t, err)
	got, err := OrderBy(p, rows, ordering)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "c", "a"}, names(got))

	strict := sorting.DefaultConfiguration()
	strict.ConditionalAccess = sorting.ConditionalAccessNever
	ordering, err = s.CompileWith(strict, p)
	require.NoError(t, err)
	_, err = OrderBy(p, rows, ordering)
	assert.ErrorIs(t, err, ErrNullNavigation)
}

func TestOrderBy_ConstantAndSelf(t *testing.T) {
	p := NewProcessor(nil)

	got, err := OrderBy(p, []int{3, 1, 2}, expr.Ordering{{Constant: true}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, got)

	got, err = OrderBy(p, []int{3, 1, 2}, expr.Ordering{{}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = OrderBy(p, []int{3, 1, 2}, expr.Ordering{{Descending: true}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, got)
}

func TestProcessRows_Documents(t *testing.T) {
	def := &schema.SchemaDefinition{
		Name: "people",
		Fields: map[string]*schema.FieldDefinition{
			"name":  {Name: "name", Type: schema.FieldTypeString},
			"age":   {Name: "age", Type: schema.FieldTypeNumber},
			"born":  {Name: "born", Type: schema.FieldTypeDateTime},
			"tier":  {Name: "tier", Type: schema.FieldTypeEnum, Values: []any{"Bronze", "Silver", "Gold"}},
			"home":  {Name: "home", Type: schema.FieldTypeObject, Schema: &schema.FieldSchema{ID: "address"}},
			"trips": {Name: "trips", Type: schema.FieldTypeArray, Schema: &schema.FieldSchema{ID: "address"}},
		},
		NestedSchemas: map[string]*schema.NestedSchemaDefinition{
			"address": {Name: "address", Fields: map[string]*schema.FieldDefinition{
				"city": {Name: "city", Type: schema.FieldTypeString},
			}},
		},
	}
	docs := []schema.Document{
		{"name": "Ann", "age": 31.0, "born": "1990-04-01T00:00:00Z", "tier": "Gold",
			"home": map[string]any{"city": "Oslo"}, "trips": []any{map[string]any{"city": "Rome"}}},
		{"name": "Bob", "age": 25.0, "born": "1995-04-01T00:00:00Z", "tier": "Bronze"},
		{"name": "Cid", "age": nil, "tier": "Silver", "home": map[string]any{"city": "Lima"}},
	}
	d := schema.DescribeSchema(def)
	p := NewProcessor(nil)

	tests := []struct {
		path, syntax string
		want         []string
	}{
		{"age", ">30", []string{"Ann"}},
		{"age", "ISNULL", []string{"Cid"}},
		{"born", "1990", []string{"Ann"}},
		{"tier", ">=Silver", []string{"Ann", "Cid"}},
		{"tier", "!old", []string{"Bob", "Cid"}},
		{"home.city", "~o", []string{"Ann"}},
		{"trips.city", "rome", []string{"Ann"}},
	}
	for _, tt := range tests {
		t.Run(tt.path+tt.syntax, func(t *testing.T) {
			f := filter.NewFilter(d)
			cfg := filter.DefaultConfiguration()
			cfg.Location = time.UTC
			f.SetConfiguration(cfg)
			require.NoError(t, f.AddSyntax(tt.path, tt.syntax))
			got, err := p.ProcessRows(context.Background(), docs, f, nil)
			require.NoError(t, err)
			var names []string
			for _, doc := range got {
				names = append(names, doc["name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}

	s, err := sorting.Parse(d, "tier-desc")
	require.NoError(t, err)
	got, err := p.ProcessRows(context.Background(), docs, nil, s)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got[0]["name"])
	assert.Equal(t, "Cid", got[1]["name"])
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}
