// Package utils converts between Go structs and untyped documents.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/asaidimu/go-sieve/core/schema"
)

// ToDocument converts a struct into a document.
//
// The record is marshaled to JSON and decoded back, so `json:"tag"`
// annotations and omitempty apply. Nested structs become map[string]any,
// slices become []any and times become RFC 3339 strings, which is the shape
// schema.Validator and sqlite.Store expect.
//
// The input record must be a struct or a pointer to a struct.
//
//	type Address struct {
//		City string `json:"city"`
//	}
//	type Person struct {
//		Name    string  `json:"name"`
//		Address Address `json:"address"`
//	}
//	doc, err := ToDocument(Person{Name: "Ann", Address: Address{City: "Nairobi"}})
//	// doc is schema.Document{"name": "Ann", "address": map[string]any{"city": "Nairobi"}}
func ToDocument[T any](record T) (schema.Document, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("ToDocument: failed to marshal input record to JSON: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return nil, fmt.Errorf("ToDocument: failed to unmarshal JSON to document: %w", err)
	}
	return doc, nil
}

// FromDocument converts a document into a new instance of T, the inverse of
// ToDocument. T must be a struct type or a pointer to one.
func FromDocument[T any](doc schema.Document) (T, error) {
	var zero T
	if doc == nil {
		return zero, fmt.Errorf("FromDocument: input document cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("FromDocument: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return zero, fmt.Errorf("FromDocument: failed to marshal input document to JSON: %w", err)
	}
	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("FromDocument: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}

// Normalize rewrites values decoded by YAML or JSON libraries into the
// document shape: maps with non-string keys get string keys and nested
// documents become plain map[string]any.
func Normalize(v any) any {
	switch x := v.(type) {
	case schema.Document:
		return Normalize(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Normalize(item)
		}
		return out
	}
	return v
}

// Documents normalizes a decoded list of records.
func Documents(records []any) ([]schema.Document, error) {
	docs := make([]schema.Document, len(records))
	for i, r := range records {
		m, ok := Normalize(r).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: expected an object, got %T", i, r)
		}
		docs[i] = m
	}
	return docs, nil
}
