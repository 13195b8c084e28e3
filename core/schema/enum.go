package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32
}

var (
	enumMu sync.RWMutex
	enums  = make(map[reflect.Type][]EnumMember)
)

// RegisterEnum declares the member names of an integer-backed enumeration.
// Properties of type E are described as enums from then on. Registering the
// same type again replaces its members.
//
//	type Status int
//	const (Active Status = iota; Suspended)
//	schema.RegisterEnum(map[string]Status{"Active": Active, "Suspended": Suspended})
func RegisterEnum[E integer](members map[string]E) {
	list := make([]EnumMember, 0, len(members))
	for name, code := range members {
		list = append(list, EnumMember{Name: name, Code: int64(code)})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Code != list[j].Code {
			return list[i].Code < list[j].Code
		}
		return list[i].Name < list[j].Name
	})

	enumMu.Lock()
	enums[reflect.TypeFor[E]()] = list
	enumMu.Unlock()

	// Descriptors built before registration classified E as a number.
	descriptors.Clear()
}

func isEnum(t reflect.Type) bool {
	enumMu.RLock()
	defer enumMu.RUnlock()
	_, ok := enums[t]
	return ok
}

func enumMembers(t reflect.Type) []EnumMember {
	enumMu.RLock()
	defer enumMu.RUnlock()
	return enums[t]
}

// MemberName returns the name of the member with the given code.
func MemberName(members []EnumMember, code int64) (string, bool) {
	for _, m := range members {
		if m.Code == code {
			return m.Name, true
		}
	}
	return "", false
}

// MemberCode returns the code of the member with the given name.
func MemberCode(members []EnumMember, name string) (int64, bool) {
	for _, m := range members {
		if m.Name == name {
			return m.Code, true
		}
	}
	return 0, false
}

func toName(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
