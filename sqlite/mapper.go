package sqlite

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asaidimu/go-sieve/core/schema"
)

// CreateTableSQL generates the DDL statement for a table holding documents of
// def. Top-level fields map to columns in name order. Nested objects and
// collections are stored as JSON text.
func CreateTableSQL(def *schema.SchemaDefinition) (string, error) {
	if def == nil || def.Name == "" {
		return "", fmt.Errorf("schema must define a table name")
	}
	if len(def.Fields) == 0 {
		return "", fmt.Errorf("schema '%s' defines no fields", def.Name)
	}

	var columns []string
	for _, name := range sortedFieldNames(def.Fields) {
		columnDef, err := buildColumnDefinition(name, def.Fields[name])
		if err != nil {
			return "", fmt.Errorf("error on field '%s': %w", name, err)
		}
		columns = append(columns, "    "+columnDef)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS " + quoteIdentifier(def.Name) + " (\n")
	sb.WriteString(strings.Join(columns, ",\n"))
	sb.WriteString("\n);")
	return sb.String(), nil
}

// buildColumnDefinition constructs the DDL string for a single column, including its
// name, data type, and any constraints.
func buildColumnDefinition(name string, field *schema.FieldDefinition) (string, error) {
	columnType, err := ColumnType(field.Type)
	if err != nil {
		return "", err
	}
	parts := []string{quoteIdentifier(name), columnType}
	if field.Required != nil && *field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Type == schema.FieldTypeEnum && len(field.Values) > 0 {
		checkValues := make([]string, len(field.Values))
		for i, v := range field.Values {
			checkValues[i] = quoteLiteral(fmt.Sprint(v))
		}
		parts = append(parts, fmt.Sprintf("CHECK(%s IN (%s))", quoteIdentifier(name), strings.Join(checkValues, ", ")))
	}
	return strings.Join(parts, " "), nil
}

// ColumnType maps a schema.FieldType to its corresponding SQLite column type.
func ColumnType(fieldType schema.FieldType) (string, error) {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeEnum, schema.FieldTypeUUID, schema.FieldTypeDateTime:
		return "TEXT", nil
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		return "NUMERIC", nil
	case schema.FieldTypeInteger, schema.FieldTypeBoolean:
		return "INTEGER", nil
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		return "TEXT", nil
	}
	return "", fmt.Errorf("unsupported field type '%s'", fieldType)
}

func sortedFieldNames(fields map[string]*schema.FieldDefinition) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// prepareValue converts a document value to its stored form. Nested values
// are normalized the same way and encoded as JSON.
func (g *Generator) prepareValue(field *schema.FieldDefinition, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	normalized, err := g.normalize(field, value)
	if err != nil {
		return nil, err
	}
	switch field.Type {
	case schema.FieldTypeBoolean:
		if b, ok := normalized.(bool); ok && b {
			return 1, nil
		}
		return 0, nil
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		jsonBytes, err := json.Marshal(normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value to JSON: %w", err)
		}
		return string(jsonBytes), nil
	}
	return normalized, nil
}

// normalize rewrites datetimes, UUIDs and enum codes into their canonical
// text so that stored values compare like bound parameters.
func (g *Generator) normalize(field *schema.FieldDefinition, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch field.Type {
	case schema.FieldTypeDateTime:
		switch v := value.(type) {
		case time.Time:
			return formatTime(v), nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("invalid datetime %q: %w", v, err)
			}
			return formatTime(t), nil
		}
	case schema.FieldTypeUUID:
		switch v := value.(type) {
		case uuid.UUID:
			return v.String(), nil
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("invalid uuid %q: %w", v, err)
			}
			return id.String(), nil
		}
	case schema.FieldTypeEnum:
		if s, ok := value.(string); ok {
			return s, nil
		}
		rv := reflect.ValueOf(value)
		if rv.CanInt() {
			if i := rv.Int(); i >= 0 && int(i) < len(field.Values) {
				return fmt.Sprint(field.Values[i]), nil
			}
		}
		return nil, fmt.Errorf("invalid enum value %v", value)
	case schema.FieldTypeObject:
		data, ok := asMap(value)
		if !ok {
			return nil, fmt.Errorf("expected an object, got %T", value)
		}
		return g.normalizeObject(field.Schema, data)
	case schema.FieldTypeArray, schema.FieldTypeSet:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("expected an array, got %T", value)
		}
		items := make([]any, rv.Len())
		item := &schema.FieldDefinition{Type: schema.FieldTypeRecord, Schema: field.Schema}
		if field.ItemsType != nil {
			item.Type = *field.ItemsType
		}
		for i := range items {
			v, err := g.normalize(item, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = v
		}
		return items, nil
	}
	return value, nil
}

func (g *Generator) normalizeObject(ref *schema.FieldSchema, data map[string]any) (map[string]any, error) {
	var fields map[string]*schema.FieldDefinition
	if ref != nil {
		if ns, ok := g.schema.NestedSchemas[ref.ID]; ok {
			fields = ns.Fields
		}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		fd, ok := fields[k]
		if !ok {
			out[k] = v
			continue
		}
		nv, err := g.normalize(fd, v)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case schema.Document:
		return m, true
	}
	return nil, false
}
