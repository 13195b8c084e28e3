package schema

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Validator checks documents against a schema definition. It reports type
// mismatches, missing required fields and unknown fields as a list of issues.
type Validator struct {
	schema *SchemaDefinition
	issues []Issue
}

// NewValidator creates a Validator for schema. A validator is not safe for
// concurrent use.
func NewValidator(schema *SchemaDefinition) *Validator {
	return &Validator{
		schema: schema,
		issues: make([]Issue, 0),
	}
}

// Validate checks data against the schema. With loose set, missing required
// fields are not reported.
func (v *Validator) Validate(data map[string]any, loose bool) (bool, []Issue) {
	v.issues = make([]Issue, 0)
	v.validateData(data, v.schema.Fields, "")

	finalIssues := v.issues
	if loose {
		filteredIssues := make([]Issue, 0, len(v.issues))
		for _, issue := range v.issues {
			if issue.Code != "REQUIRED_FIELD_MISSING" {
				filteredIssues = append(filteredIssues, issue)
			}
		}
		finalIssues = filteredIssues
	}
	return len(finalIssues) == 0, finalIssues
}

// ValidateDefinition checks the definition itself: field types must be known,
// enum fields need values and nested schema references must resolve.
func (v *Validator) ValidateDefinition() (bool, []Issue) {
	v.issues = make([]Issue, 0)
	if v.schema.Name == "" {
		v.addIssue("MISSING_NAME", "Schema name is required", "")
	}
	v.validateDefinitions(v.schema.Fields, "")
	for id, ns := range v.schema.NestedSchemas {
		v.validateDefinitions(ns.Fields, "$"+id)
	}
	return len(v.issues) == 0, v.issues
}

func (v *Validator) validateDefinitions(fields map[string]*FieldDefinition, path string) {
	for _, name := range sortedKeys(fields) {
		fd := fields[name]
		fieldPath := v.buildPath(path, name)
		if !knownType(fd.Type) {
			v.addIssue("UNKNOWN_FIELD_TYPE", fmt.Sprintf("Unknown field type '%s'", fd.Type), fieldPath)
			continue
		}
		if fd.Type == FieldTypeEnum && len(fd.Values) == 0 {
			v.addIssue("MISSING_ENUM_VALUES", "Enum field must declare its values", fieldPath)
		}
		if fd.ItemsType != nil && !knownType(*fd.ItemsType) {
			v.addIssue("UNKNOWN_FIELD_TYPE", fmt.Sprintf("Unknown items type '%s'", *fd.ItemsType), fieldPath)
		}
		if fd.Schema != nil {
			if _, ok := v.schema.NestedSchemas[fd.Schema.ID]; !ok {
				v.addIssue("NESTED_SCHEMA_NOT_FOUND", fmt.Sprintf("Nested schema '%s' not found", fd.Schema.ID), fieldPath)
			}
		}
	}
}

func (v *Validator) validateData(data map[string]any, fields map[string]*FieldDefinition, path string) {
	for _, fieldName := range sortedKeys(fields) {
		fieldDef := fields[fieldName]
		fieldPath := v.buildPath(path, fieldName)
		value, exists := data[fieldName]

		if isTrue(fieldDef.Required) && !exists {
			v.addIssue("REQUIRED_FIELD_MISSING", fmt.Sprintf("Required field '%s' is missing", fieldName), fieldPath)
			continue
		}
		if !exists {
			continue
		}
		v.validateFieldValue(value, fieldDef, fieldPath)
	}

	for dataKey := range data {
		if _, exists := fields[dataKey]; !exists {
			v.addIssue("UNEXPECTED_FIELD", fmt.Sprintf("Unexpected field '%s' not defined in schema", dataKey), v.buildPath(path, dataKey))
		}
	}
}

func (v *Validator) validateFieldValue(value any, fieldDef *FieldDefinition, path string) {
	if value == nil {
		if isTrue(fieldDef.Required) {
			v.addIssue("NULL_VALUE", "Field cannot be null", path)
		}
		return
	}
	if !v.validateFieldType(value, fieldDef.Type, path) {
		return
	}

	switch fieldDef.Type {
	case FieldTypeEnum:
		v.validateEnumValue(value, fieldDef.Values, path)
	case FieldTypeObject:
		if fieldDef.Schema != nil {
			v.validateNested(value.(map[string]any), fieldDef.Schema, path)
		}
	case FieldTypeArray, FieldTypeSet:
		v.validateArrayField(value, fieldDef, path)
	}
}

func (v *Validator) validateFieldType(value any, expectedType FieldType, path string) bool {
	ok := true
	switch expectedType {
	case FieldTypeString:
		_, ok = value.(string)
	case FieldTypeNumber, FieldTypeDecimal:
		ok = isNumeric(value)
	case FieldTypeInteger:
		ok = isInteger(value)
	case FieldTypeBoolean:
		_, ok = value.(bool)
	case FieldTypeUUID:
		switch x := value.(type) {
		case uuid.UUID:
		case string:
			_, err := uuid.Parse(x)
			ok = err == nil
		default:
			ok = false
		}
	case FieldTypeDateTime:
		switch x := value.(type) {
		case time.Time:
		case string:
			_, err := time.Parse(time.RFC3339Nano, x)
			ok = err == nil
		default:
			ok = false
		}
	case FieldTypeEnum:
		ok = value != nil
	case FieldTypeArray, FieldTypeSet:
		ok = isArray(value)
	case FieldTypeObject, FieldTypeRecord:
		_, ok = value.(map[string]any)
	}
	if !ok {
		v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected %s, got %T", expectedType, value), path)
	}
	return ok
}

func (v *Validator) validateEnumValue(value any, allowedValues []any, path string) {
	name := toName(value)
	for _, allowedValue := range allowedValues {
		if toName(allowedValue) == name {
			return
		}
	}
	v.addIssue("ENUM_VIOLATION", fmt.Sprintf("Value must be one of: %v", allowedValues), path)
}

func (v *Validator) validateArrayField(value any, fieldDef *FieldDefinition, path string) {
	rv := reflect.ValueOf(value)
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	if fieldDef.ItemsType != nil {
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			itemFieldDef := &FieldDefinition{Type: *fieldDef.ItemsType, Schema: fieldDef.Schema, Values: fieldDef.Values}
			v.validateFieldValue(item, itemFieldDef, itemPath)
		}
	}
	if fieldDef.Type == FieldTypeSet {
		v.validateSetUniqueness(items, path)
	}
}

func (v *Validator) validateSetUniqueness(items []any, path string) {
	seen := make(map[string]bool)
	for i, item := range items {
		key := fmt.Sprintf("%v", item)
		if seen[key] {
			v.addIssue("SET_DUPLICATE", fmt.Sprintf("Duplicate value found in set at index %d", i), path)
		}
		seen[key] = true
	}
}

func (v *Validator) validateNested(data map[string]any, fieldSchema *FieldSchema, path string) {
	nestedSchema, exists := v.schema.NestedSchemas[fieldSchema.ID]
	if !exists {
		v.addIssue("NESTED_SCHEMA_NOT_FOUND", fmt.Sprintf("Nested schema '%s' not found", fieldSchema.ID), path)
		return
	}
	v.validateData(data, nestedSchema.Fields, path)
}

func knownType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeInteger, FieldTypeDecimal,
		FieldTypeBoolean, FieldTypeUUID, FieldTypeDateTime, FieldTypeEnum,
		FieldTypeObject, FieldTypeArray, FieldTypeSet, FieldTypeRecord:
		return true
	}
	return false
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func isInteger(value any) bool {
	switch x := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return x == float64(int64(x))
	}
	return false
}

func isArray(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

func sortedKeys(fields map[string]*FieldDefinition) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildPath constructs a dot-separated path string for error reporting.
func (v *Validator) buildPath(basePath, fieldName string) string {
	if basePath == "" {
		return fieldName
	}
	return basePath + "." + fieldName
}

// addIssue adds a new validation issue to the validator's list of issues.
func (v *Validator) addIssue(code, message, path string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	})
}
