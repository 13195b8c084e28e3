package query

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/asaidimu/go-sieve/core/expr"
	"github.com/asaidimu/go-sieve/core/schema"
)

var (
	timeType    = reflect.TypeFor[time.Time]()
	uuidType    = reflect.TypeFor[uuid.UUID]()
	decimalType = reflect.TypeFor[apd.Decimal]()
)

// indirect follows pointers and interfaces. It returns the zero Value for
// nil.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// member reads the struct field or document key name from record. A null
// record or a missing key yields the zero Value.
func member(record reflect.Value, name string) reflect.Value {
	v := indirect(record)
	if !v.IsValid() {
		return reflect.Value{}
	}
	switch v.Kind() {
	case reflect.Struct:
		return v.FieldByName(name)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}
		}
		return v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
	}
	return reflect.Value{}
}

func isNull(v reflect.Value) bool {
	v = indirect(v)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}

// normalize converts a raw member value into the comparable form used by
// compiled predicates: string, *apd.Decimal, bool, uuid.UUID, time.Time or
// expr.EnumValue. Null yields nil.
func normalize(v reflect.Value, f expr.Field) (any, error) {
	if isNull(v) {
		return nil, nil
	}
	v = indirect(v)

	switch f.Kind {
	case schema.KindString:
		if v.Kind() == reflect.String {
			return v.String(), nil
		}
	case schema.KindNumber:
		return toDecimal(v)
	case schema.KindBoolean:
		if v.Kind() == reflect.Bool {
			return v.Bool(), nil
		}
	case schema.KindUUID:
		return toUUID(v)
	case schema.KindTime:
		return toTime(v)
	case schema.KindEnum:
		return toEnum(v, f.Enum)
	default:
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("%s: expected %s, got %s", f.Name, f.Kind, v.Type())
}

func toDecimal(v reflect.Value) (*apd.Decimal, error) {
	switch {
	case v.Type() == decimalType:
		d := v.Interface().(apd.Decimal)
		return new(apd.Decimal).Set(&d), nil
	case v.CanInt():
		return apd.New(v.Int(), 0), nil
	case v.CanUint():
		d, _, err := apd.NewFromString(strconv.FormatUint(v.Uint(), 10))
		return d, err
	case v.CanFloat():
		bits := 64
		if v.Kind() == reflect.Float32 {
			bits = 32
		}
		d, _, err := apd.NewFromString(strconv.FormatFloat(v.Float(), 'g', -1, bits))
		return d, err
	case v.Kind() == reflect.String:
		d, _, err := apd.NewFromString(v.String())
		return d, err
	}
	return nil, fmt.Errorf("cannot use %s as a number", v.Type())
}

func toUUID(v reflect.Value) (uuid.UUID, error) {
	switch {
	case v.Type() == uuidType:
		return v.Interface().(uuid.UUID), nil
	case v.Kind() == reflect.String:
		return uuid.Parse(v.String())
	case v.Type().ConvertibleTo(uuidType):
		return v.Convert(uuidType).Interface().(uuid.UUID), nil
	}
	return uuid.Nil, fmt.Errorf("cannot use %s as a uuid", v.Type())
}

func toTime(v reflect.Value) (time.Time, error) {
	switch {
	case v.Type() == timeType:
		return v.Interface().(time.Time), nil
	case v.Kind() == reflect.String:
		return time.Parse(time.RFC3339Nano, v.String())
	}
	return time.Time{}, fmt.Errorf("cannot use %s as a time", v.Type())
}

// toEnum accepts integer codes from Go enums and member names from
// documents. JSON numbers arrive as float64.
func toEnum(v reflect.Value, members []schema.EnumMember) (expr.EnumValue, error) {
	var code int64
	switch {
	case v.CanInt():
		code = v.Int()
	case v.CanUint():
		code = int64(v.Uint())
	case v.CanFloat():
		code = int64(v.Float())
	case v.Kind() == reflect.String:
		c, ok := schema.MemberCode(members, v.String())
		if !ok {
			return expr.EnumValue{}, fmt.Errorf("%q is not a member name", v.String())
		}
		return expr.EnumValue{Name: v.String(), Code: c}, nil
	default:
		return expr.EnumValue{}, fmt.Errorf("cannot use %s as an enum", v.Type())
	}
	name, _ := schema.MemberName(members, code)
	return expr.EnumValue{Name: name, Code: code}, nil
}

// inferField classifies a bare value, used when ordering by the record
// itself.
func inferField(v reflect.Value) expr.Field {
	v = indirect(v)
	if !v.IsValid() {
		return expr.Field{}
	}
	switch {
	case v.Type() == timeType:
		return expr.Field{Kind: schema.KindTime}
	case v.Type() == uuidType:
		return expr.Field{Kind: schema.KindUUID}
	case v.Type() == decimalType, v.CanInt(), v.CanUint(), v.CanFloat():
		return expr.Field{Kind: schema.KindNumber}
	case v.Kind() == reflect.String:
		return expr.Field{Kind: schema.KindString}
	case v.Kind() == reflect.Bool:
		return expr.Field{Kind: schema.KindBoolean}
	}
	return expr.Field{}
}

// compareValues orders two normalized non-null values of the same kind.
func compareValues(a, b any) (int, error) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(norm.NFC.String(x), norm.NFC.String(y)), nil
		}
	case *apd.Decimal:
		if y, ok := b.(*apd.Decimal); ok {
			return x.Cmp(y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:]), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case expr.EnumValue:
		if y, ok := b.(expr.EnumValue); ok {
			return cmp.Compare(x.Code, y.Code), nil
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// textOf renders a normalized value for text matching.
func textOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *apd.Decimal:
		return x.Text('f')
	case bool:
		return strconv.FormatBool(x)
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case expr.EnumValue:
		return x.Name
	}
	return fmt.Sprint(v)
}
