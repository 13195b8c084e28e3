// Package schema describes the shape of the records that filters and sorts
// are compiled against. Shapes come either from Go struct types (through
// reflection, see Describe) or from JSON schema definitions for untyped
// documents (see DescribeSchema). Both produce the same Descriptor model.
package schema

// FieldType represents the basic field types supported by schema documents.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeNumber   FieldType = "number"   // Numeric data
	FieldTypeInteger  FieldType = "integer"  // Numeric data
	FieldTypeDecimal  FieldType = "decimal"  // Numeric data
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeUUID     FieldType = "uuid"     // Canonical identifiers
	FieldTypeDateTime FieldType = "datetime" // RFC 3339 timestamps
	FieldTypeEnum     FieldType = "enum"     // One out of a set of pre-defined items
	FieldTypeObject   FieldType = "object"   // Structured data with nested fields
	FieldTypeArray    FieldType = "array"    // Ordered list of items
	FieldTypeSet      FieldType = "set"      // Unordered list with unique items
	FieldTypeRecord   FieldType = "record"   // Unorganized key-value object, resolves to map[string]any
)

// FieldSchema references a nested schema by its key in SchemaDefinition.NestedSchemas.
type FieldSchema struct {
	ID string `json:"id" yaml:"id"`
}

// FieldDefinition defines a field within a schema.
type FieldDefinition struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
	// Required indicates if the field is mandatory. Optional fields are nullable.
	Required *bool `json:"required,omitempty" yaml:"required,omitempty"`
	// Values specifies the allowed member names of an 'enum' field, in code order.
	Values []any `json:"values,omitempty" yaml:"values,omitempty"`
	// Schema specifies the nested schema of 'object' fields and of object items.
	Schema *FieldSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
	// ItemsType specifies the type of items in 'array' or 'set' fields.
	ItemsType *FieldType `json:"itemsType,omitempty" yaml:"itemsType,omitempty"`
	// Alias exposes the field under a different name to filters and sorts.
	Alias *string `json:"alias,omitempty" yaml:"alias,omitempty"`
	// Filterable and Sortable opt a field out of filtering or sorting when false.
	Filterable  *bool   `json:"filterable,omitempty" yaml:"filterable,omitempty"`
	Sortable    *bool   `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NestedSchemaDefinition represents a reusable nested object structure.
type NestedSchemaDefinition struct {
	Name        string                      `json:"name" yaml:"name"`
	Description *string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      map[string]*FieldDefinition `json:"fields" yaml:"fields"`
}

// SchemaDefinition defines a complete document schema.
type SchemaDefinition struct {
	Name          string                             `json:"name" yaml:"name"`
	Version       string                             `json:"version" yaml:"version"`
	Description   *string                            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields        map[string]*FieldDefinition        `json:"fields" yaml:"fields"`
	NestedSchemas map[string]*NestedSchemaDefinition `json:"nestedSchemas,omitempty" yaml:"nestedSchemas,omitempty"`
}

// FindField returns the field stored under name, or the field whose Name is name.
func (s *SchemaDefinition) FindField(name string) *FieldDefinition {
	if field, ok := s.Fields[name]; ok {
		return field
	}
	for _, field := range s.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// Issue represents a validation issue.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"` // e.g., "error", "warning"
}

// Document is an untyped record described by a SchemaDefinition.
type Document map[string]any

func isTrue(b *bool) bool {
	return b != nil && *b
}

func isNotFalse(b *bool) bool {
	return b == nil || *b
}
