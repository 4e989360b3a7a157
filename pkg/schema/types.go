package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var baseTypes = map[string]reflect.Type{
	"bool":    reflect.TypeOf(false),
	"int8":    reflect.TypeOf(int8(0)),
	"int16":   reflect.TypeOf(int16(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"uint8":   reflect.TypeOf(uint8(0)),
	"byte":    reflect.TypeOf(uint8(0)),
	"uint16":  reflect.TypeOf(uint16(0)),
	"uint32":  reflect.TypeOf(uint32(0)),
	"uint64":  reflect.TypeOf(uint64(0)),
	"float32": reflect.TypeOf(float32(0)),
	"float64": reflect.TypeOf(float64(0)),
	"string":  reflect.TypeOf(""),
	"time":    reflect.TypeOf(time.Time{}),
}

// Type is a parsed field type: a base type name with an optional "[]"
// prefix for arrays.
type Type struct {
	Name string
	Go   reflect.Type
}

// ParseType resolves a schema type name to its Go type.
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	base := strings.TrimPrefix(n, "[]")
	t, ok := baseTypes[base]
	if !ok {
		return Type{}, fmt.Errorf("unknown type %q", name)
	}
	if base != n {
		t = reflect.SliceOf(t)
	}
	return Type{Name: n, Go: t}, nil
}

// IsArray reports whether the type repeats elements.
func (t Type) IsArray() bool { return t.Go.Kind() == reflect.Slice }

// Elem is the element type of an array, or the type itself.
func (t Type) Elem() reflect.Type {
	if t.IsArray() {
		return t.Go.Elem()
	}
	return t.Go
}

// DefaultSize is the element size used when a field does not declare one:
// the native width of numbers and 8 bytes (milliseconds) for time. Text has
// no default.
func (t Type) DefaultSize() int {
	e := t.Elem()
	switch e.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	}
	if e == reflect.TypeOf(time.Time{}) {
		return 8
	}
	return 0
}

// Zero returns a fresh zero value of the type; arrays get length elements.
func (t Type) Zero(length int) any {
	if t.IsArray() {
		return reflect.MakeSlice(t.Go, length, length).Interface()
	}
	return reflect.Zero(t.Go).Interface()
}
