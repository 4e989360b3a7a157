package codec

import (
	"reflect"
	"time"
)

// Category is the coarse field class converters advertise support for.
type Category int

const (
	// Custom covers every type that is not a builtin scalar, a slice of
	// builtin scalars, or a string. Named types land here too.
	Custom Category = iota
	Primitive
	PrimitiveArray
	String
)

func (c Category) String() string {
	switch c {
	case Primitive:
		return "primitive"
	case PrimitiveArray:
		return "primitive_array"
	case String:
		return "string"
	default:
		return "custom"
	}
}

var (
	typeString = reflect.TypeOf("")
	typeTime   = reflect.TypeOf(time.Time{})
)

// nativeWidth is the in-memory width of each builtin scalar type.
var nativeWidth = map[reflect.Type]int{
	reflect.TypeOf(false):      1,
	reflect.TypeOf(int(0)):     8,
	reflect.TypeOf(int8(0)):    1,
	reflect.TypeOf(int16(0)):   2,
	reflect.TypeOf(int32(0)):   4,
	reflect.TypeOf(int64(0)):   8,
	reflect.TypeOf(uint(0)):    8,
	reflect.TypeOf(uint8(0)):   1,
	reflect.TypeOf(uint16(0)):  2,
	reflect.TypeOf(uint32(0)):  4,
	reflect.TypeOf(uint64(0)):  8,
	reflect.TypeOf(float32(0)): 4,
	reflect.TypeOf(float64(0)): 8,
}

func isScalar(t reflect.Type) bool {
	_, ok := nativeWidth[t]
	return ok
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

// IsSignedType reports whether t, or the element type of a slice t, is a
// signed integer. It is the default for a field's Signed flag.
func IsSignedType(t reflect.Type) bool {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// Categorize classifies a Go field type. Only exact builtin types count as
// primitive; a named type such as `type Mode uint8` is Custom and needs a
// converter of its own.
func Categorize(t reflect.Type) Category {
	switch {
	case t == nil:
		return Custom
	case isScalar(t):
		return Primitive
	case t == typeString:
		return String
	case t.Kind() == reflect.Slice && t.Name() == "":
		if isScalar(t.Elem()) {
			return PrimitiveArray
		}
		if t.Elem() == typeString {
			return String
		}
	}
	return Custom
}

func isArrayType(t reflect.Type, c Category) bool {
	return c == PrimitiveArray || (c == String && t.Kind() == reflect.Slice)
}
