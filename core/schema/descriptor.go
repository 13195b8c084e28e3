package schema

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Kind is the value category of a property. Filter strategies are selected by
// kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindBoolean
	KindUUID
	KindEnum
	KindTime
	KindObject
	KindCollection
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindString:     "string",
	KindNumber:     "number",
	KindBoolean:    "boolean",
	KindUUID:       "uuid",
	KindEnum:       "enum",
	KindTime:       "time",
	KindObject:     "object",
	KindCollection: "collection",
}

func (k Kind) String() string {
	return kindNames[k]
}

// IsScalar reports whether values of this kind are compared directly.
func (k Kind) IsScalar() bool {
	return k != KindUnknown && k != KindObject && k != KindCollection
}

// EnumMember is one named value of an enumeration.
type EnumMember struct {
	Name string
	Code int64
}

// Property describes one member of a record type.
type Property struct {
	// Name is the name filters and sorts refer to.
	Name string
	// Field is the Go struct field name or document key used to read the value.
	Field string
	Kind  Kind
	// Nullable reports whether the value can be absent.
	Nullable   bool
	Filterable bool
	Sortable   bool
	// Enum lists the members of enum properties in code order.
	Enum []EnumMember
	// Type is the Go type of the field. It is nil for document properties.
	Type reflect.Type
	// FieldType is the document field type. It is empty for Go properties.
	FieldType FieldType

	nestedID string
	nested   func() *Descriptor
}

// Nested returns the descriptor of an object property, or of the elements of
// a collection property. It returns nil when the property has no nested shape.
func (p *Property) Nested() *Descriptor {
	if p.nested == nil {
		return nil
	}
	return p.nested()
}

// AssignableTo reports whether values of p can be stored in q.
func (p *Property) AssignableTo(q *Property) bool {
	switch {
	case p.Type != nil && q.Type != nil:
		return unwrap(p.Type).AssignableTo(unwrap(q.Type))
	case p.Type == nil && q.Type == nil:
		return p.FieldType == q.FieldType && p.nestedID == q.nestedID
	default:
		return p.Kind == q.Kind && p.Kind.IsScalar()
	}
}

// Descriptor describes a record type.
type Descriptor struct {
	Name string
	// Type is the described Go type, nil for documents.
	Type reflect.Type

	properties []*Property
	byName     map[string]*Property
	byFold     map[string]*Property
}

func newDescriptor(name string, t reflect.Type) *Descriptor {
	return &Descriptor{
		Name:   name,
		Type:   t,
		byName: make(map[string]*Property),
		byFold: make(map[string]*Property),
	}
}

func (d *Descriptor) add(p *Property) {
	d.properties = append(d.properties, p)
	d.byName[p.Name] = p
	if _, exists := d.byFold[strings.ToUpper(p.Name)]; !exists {
		d.byFold[strings.ToUpper(p.Name)] = p
	}
}

// Properties returns the properties in declaration order.
func (d *Descriptor) Properties() []*Property {
	return d.properties
}

// Lookup finds a property by name. Matching is ordinal unless caseInsensitive
// is set.
func (d *Descriptor) Lookup(name string, caseInsensitive bool) (*Property, bool) {
	if d == nil {
		return nil, false
	}
	if p, ok := d.byName[name]; ok {
		return p, true
	}
	if caseInsensitive {
		p, ok := d.byFold[strings.ToUpper(name)]
		return p, ok
	}
	return nil, false
}

// Filterable returns the names of the properties that accept filters.
func (d *Descriptor) Filterable() []string {
	var names []string
	for _, p := range d.properties {
		if p.Filterable {
			names = append(names, p.Name)
		}
	}
	return names
}

// Sortable returns the names of the properties that accept sorts.
func (d *Descriptor) Sortable() []string {
	var names []string
	for _, p := range d.properties {
		if p.Sortable {
			names = append(names, p.Name)
		}
	}
	return names
}

var (
	timeType    = reflect.TypeFor[time.Time]()
	uuidType    = reflect.TypeFor[uuid.UUID]()
	decimalType = reflect.TypeFor[apd.Decimal]()

	descriptors sync.Map // reflect.Type -> *Descriptor
)

// For returns the descriptor of T.
func For[T any]() *Descriptor {
	return Describe(reflect.TypeFor[T]())
}

// Describe returns the cached descriptor of t. Pointer types are described by
// their element type. Non-struct types have no properties.
//
// Exported struct fields become properties named after the field. The struct
// tag `sieve:"name,nofilter,nosort"` renames a property or opts it out of
// filtering or sorting; `sieve:"-"` hides it.
func Describe(t reflect.Type) *Descriptor {
	t = unwrap(t)
	if d, ok := descriptors.Load(t); ok {
		return d.(*Descriptor)
	}
	d := build(t)
	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*Descriptor)
}

func build(t reflect.Type) *Descriptor {
	d := newDescriptor(t.Name(), t)
	if t.Kind() != reflect.Struct {
		return d
	}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, filterable, sortable, skip := parseTag(f)
		if skip {
			continue
		}
		kind, nullable := kindOf(f.Type)
		p := &Property{
			Name:       name,
			Field:      f.Name,
			Kind:       kind,
			Nullable:   nullable,
			Filterable: filterable,
			Sortable:   sortable && kind.IsScalar(),
			Type:       f.Type,
		}
		switch kind {
		case KindEnum:
			p.Enum = enumMembers(unwrap(f.Type))
		case KindObject:
			p.nested = lazyDescribe(unwrap(f.Type))
		case KindCollection:
			elem := unwrap(unwrap(f.Type).Elem())
			if elem.Kind() == reflect.Struct && !isScalarStruct(elem) {
				p.nested = lazyDescribe(elem)
			}
		}
		d.add(p)
	}
	return d
}

func lazyDescribe(t reflect.Type) func() *Descriptor {
	return sync.OnceValue(func() *Descriptor { return Describe(t) })
}

func parseTag(f reflect.StructField) (name string, filterable, sortable, skip bool) {
	name, filterable, sortable = f.Name, true, true
	tag, ok := f.Tag.Lookup("sieve")
	if !ok {
		return name, filterable, sortable, false
	}
	if tag == "-" {
		return "", false, false, true
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "nofilter":
			filterable = false
		case "nosort":
			sortable = false
		}
	}
	return name, filterable, sortable, false
}

// kindOf classifies a Go type after unwrapping pointers.
func kindOf(t reflect.Type) (Kind, bool) {
	nullable := false
	for t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return KindTime, nullable
	case t == uuidType:
		return KindUUID, nullable
	case t == decimalType:
		return KindNumber, nullable
	case isEnum(t):
		return KindEnum, nullable
	}
	switch t.Kind() {
	case reflect.String:
		return KindString, nullable
	case reflect.Bool:
		return KindBoolean, nullable
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber, nullable
	case reflect.Struct:
		return KindObject, nullable
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindUnknown, true
		}
		return KindCollection, true
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindUnknown, nullable
		}
		return KindCollection, nullable
	default:
		return KindUnknown, nullable
	}
}

func isScalarStruct(t reflect.Type) bool {
	return t == timeType || t == decimalType
}

func unwrap(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// DescribeSchema builds a descriptor for documents of def. Nested schemas are
// resolved through def.NestedSchemas.
func DescribeSchema(def *SchemaDefinition) *Descriptor {
	nested := make(map[string]*Descriptor, len(def.NestedSchemas))
	for id, ns := range def.NestedSchemas {
		nested[id] = newDescriptor(ns.Name, nil)
	}
	for id, ns := range def.NestedSchemas {
		addFields(nested[id], ns.Fields, nested)
	}
	d := newDescriptor(def.Name, nil)
	addFields(d, def.Fields, nested)
	return d
}

func addFields(d *Descriptor, fields map[string]*FieldDefinition, nested map[string]*Descriptor) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fd := fields[key]
		name := key
		if fd.Alias != nil && *fd.Alias != "" {
			name = *fd.Alias
		}
		kind := fieldKind(fd)
		p := &Property{
			Name:       name,
			Field:      key,
			Kind:       kind,
			Nullable:   !isTrue(fd.Required) || kind == KindCollection,
			Filterable: isNotFalse(fd.Filterable),
			Sortable:   isNotFalse(fd.Sortable) && kind.IsScalar(),
			FieldType:  fd.Type,
		}
		if fd.ItemsType != nil {
			p.FieldType = fd.Type + "<" + *fd.ItemsType + ">"
		}
		if kind == KindEnum {
			for i, v := range fd.Values {
				p.Enum = append(p.Enum, EnumMember{Name: toName(v), Code: int64(i)})
			}
		}
		if fd.Schema != nil && (kind == KindObject || kind == KindCollection) {
			p.nestedID = fd.Schema.ID
			if nd, ok := nested[fd.Schema.ID]; ok {
				p.nested = func() *Descriptor { return nd }
			}
		}
		d.add(p)
	}
}

func fieldKind(fd *FieldDefinition) Kind {
	switch fd.Type {
	case FieldTypeString:
		return KindString
	case FieldTypeNumber, FieldTypeInteger, FieldTypeDecimal:
		return KindNumber
	case FieldTypeBoolean:
		return KindBoolean
	case FieldTypeUUID:
		return KindUUID
	case FieldTypeDateTime:
		return KindTime
	case FieldTypeEnum:
		return KindEnum
	case FieldTypeObject:
		return KindObject
	case FieldTypeArray, FieldTypeSet:
		return KindCollection
	default:
		return KindUnknown
	}
}
