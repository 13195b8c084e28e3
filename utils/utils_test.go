package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asaidimu/go-sieve/core/schema"
)

type address struct {
	City string `json:"city"`
}

type person struct {
	Name    string    `json:"name"`
	Age     int       `json:"age,omitempty"`
	Born    time.Time `json:"born"`
	Address *address  `json:"address,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
}

func TestToDocument(t *testing.T) {
	born := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	doc, err := ToDocument(&person{Name: "Ann", Born: born, Address: &address{City: "Nairobi"}, Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, schema.Document{
		"name":    "Ann",
		"born":    "1990-04-01T00:00:00Z",
		"address": map[string]any{"city": "Nairobi"},
		"tags":    []any{"a"},
	}, doc)

	back, err := FromDocument[person](doc)
	require.NoError(t, err)
	assert.Equal(t, "Ann", back.Name)
	assert.True(t, born.Equal(back.Born))
	assert.Equal(t, "Nairobi", back.Address.City)
}

func TestToDocument_Errors(t *testing.T) {
	_, err := ToDocument[any](nil)
	assert.Error(t, err)

	_, err = ToDocument[*person](nil)
	assert.Error(t, err)

	_, err = ToDocument(42)
	assert.Error(t, err)

	_, err = FromDocument[int](schema.Document{})
	assert.Error(t, err)

	_, err = FromDocument[person](nil)
	assert.Error(t, err)
}

func TestDocuments(t *testing.T) {
	docs, err := Documents([]any{
		map[string]any{"a": map[any]any{1: "x"}, "b": []any{map[any]any{"c": true}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []schema.Document{{
		"a": map[string]any{"1": "x"},
		"b": []any{map[string]any{"c": true}},
	}}, docs)

	_, err = Documents([]any{"scalar"})
	assert.Error(t, err)
}
