package filter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/sorting"
)

type nestedValue struct {
	Value  string
	Length int
}

type entity struct {
	ID           int
	Value        string
	ValueA       time.Time
	Note         *string
	NestedObject *nestedValue
}

func config() *filter.Configuration {
	cfg := filter.DefaultConfiguration()
	cfg.Location = time.UTC
	cfg.Now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return cfg
}

func run(t *testing.T, records []entity, f *filter.EntityFilter[entity], s *sorting.EntitySort[entity]) []int {
	t.Helper()
	var sort *sorting.Sort
	if s != nil {
		sort = s.Sort
	}
	got, err := query.Apply(context.Background(), query.NewProcessor(nil), records, f.Filter, sort)
	require.NoError(t, err)
	ids := make([]int, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	return ids
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(s string) *string { return &s }

func TestScenario_DateRange(t *testing.T) {
	records := []entity{
		{ID: 1, ValueA: date(1999, 1, 1)},
		{ID: 2, ValueA: date(2000, 1, 1)},
		{ID: 3, ValueA: date(2000, 12, 31)},
		{ID: 4, ValueA: date(2001, 1, 1)},
	}
	f := filter.New[entity]()
	f.SetConfiguration(config())
	require.NoError(t, f.AddSyntax("ValueA", ">=2000,<2001"))
	assert.Equal(t, []int{2, 3}, run(t, records, f, nil))

	require.NoError(t, f.ReplaceSyntax("ValueA", "2000-06_2001"))
	assert.Equal(t, []int{3, 4}, run(t, records, f, nil))
}

func TestScenario_Sort(t *testing.T) {
	records := []entity{
		{ID: 1, Value: "b", NestedObject: &nestedValue{Length: 1}},
		{ID: 2, Value: "a", NestedObject: &nestedValue{Length: 1}},
		{ID: 3, Value: "b", NestedObject: &nestedValue{Length: 7}},
		{ID: 4, Value: "a", NestedObject: &nestedValue{Length: 4}},
	}
	s := sorting.New[entity]()
	require.NoError(t, s.AddSyntax("Value"))
	require.NoError(t, s.AddSyntax("NestedObject.Length-desc"))
	assert.Equal(t, []int{4, 2, 3, 1}, run(t, records, filter.New[entity](), s))
}

func TestScenario_NullSemantics(t *testing.T) {
	records := []entity{
		{ID: 1, Note: nil},
		{ID: 2, Note: ptr("")},
		{ID: 3, Note: ptr("text")},
	}
	tests := []struct {
		name   string
		op     filter.Operator
		values []string
		want   []int
	}{
		{"is null", filter.IsNull, nil, []int{1}},
		{"not null", filter.NotNull, nil, []int{2, 3}},
		{"empty case sensitive", filter.EqualCaseSensitive, []string{""}, []int{2}},
		{"empty case insensitive", filter.EqualCaseInsensitive, []string{""}, []int{2}},
		{"contains", filter.Contains, []string{"ex"}, []int{3}},
		{"does not contain", filter.NotEqual, []string{"ex"}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filter.New[entity]()
			require.NoError(t, f.Add("Note", tt.op, tt.values...))
			assert.Equal(t, tt.want, run(t, records, f, nil))
		})
	}
}

func TestScenario_NestedAbsence(t *testing.T) {
	records := []entity{
		{ID: 1},
		{ID: 2, NestedObject: &nestedValue{Value: "x"}},
	}
	f := filter.New[entity]()
	require.NoError(t, f.AddSyntax("NestedObject.Value", "x"))
	assert.Equal(t, []int{2}, run(t, records, f, nil))

	require.NoError(t, f.ReplaceSyntax("NestedObject.Value", "!x"))
	assert.Empty(t, run(t, records, f, nil))
}

func TestScenario_Idempotence(t *testing.T) {
	records := []entity{
		{ID: 1, Value: "alpha"},
		{ID: 2, Value: "beta"},
		{ID: 3, Value: "gamma"},
	}
	f := filter.New[entity]()
	require.NoError(t, f.AddSyntax("Value", "~ph,et"))
	once := run(t, records, f, nil)

	require.NoError(t, f.Add("Value", filter.Contains, "ph", "et"))
	assert.Equal(t, once, run(t, records, f, nil))
	assert.Equal(t, []int{1, 2}, once)
}

func TestScenario_EmptyFilterMatchesEverything(t *testing.T) {
	records := []entity{{ID: 1}, {ID: 2}}
	f := filter.New[entity]()
	require.NoError(t, f.AddSyntax("Value", "x"))
	f.Clear()
	assert.Equal(t, []int{1, 2}, run(t, records, f, nil))
}
