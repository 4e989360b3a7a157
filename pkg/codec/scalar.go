package codec

import (
	"fmt"
	"math"
	"reflect"
)

// ScalarConverter handles the builtin bool, integer and float types.
//
// Encoding writes the low-order ElementSize bytes of the value widened to 64
// bits (sign extended for signed Go types). Decoding reads ElementSize bytes,
// sign extends when the field is signed, and converts to the Go type, which
// truncates when the Go type is narrower than ElementSize.
type ScalarConverter struct{}

func (ScalarConverter) Name() string { return "scalar" }

func (ScalarConverter) Supports(t reflect.Type, _ *FieldDescriptor, c Category) bool {
	return c == Primitive && isScalar(t)
}

func (ScalarConverter) Validate(f *FieldDescriptor) error {
	return validateScalarWidth(f.goType, f.elemSize)
}

func (ScalarConverter) Encode(_ any, f *FieldDescriptor, v any) ([]byte, error) {
	bits, ok := scalarBits(v)
	if !ok {
		return nil, valueTypeError(f, v)
	}
	out := make([]byte, f.elemSize)
	putUint(out, f.order, bits)
	return out, nil
}

func (ScalarConverter) Decode(_ any, f *FieldDescriptor, buf []byte, off int) (any, error) {
	raw := readElement(f, f.goType, buf[off:off+f.elemSize])
	return scalarValue(f.goType.Kind(), raw), nil
}

func validateScalarWidth(t reflect.Type, size int) error {
	switch t.Kind() {
	case reflect.Float32:
		if size != 4 {
			return fmt.Errorf("float32 needs an element size of 4, got %d", size)
		}
	case reflect.Float64:
		if size != 8 {
			return fmt.Errorf("float64 needs an element size of 8, got %d", size)
		}
	default:
		if size < 1 || size > 8 {
			return fmt.Errorf("integer element size must be 1..8, got %d", size)
		}
	}
	return nil
}

// readElement reads one element of type elem and applies the field's sign
// rule. Float bit patterns are never sign extended.
func readElement(f *FieldDescriptor, elem reflect.Type, b []byte) uint64 {
	raw := getUint(b, f.order)
	if f.signed && !isFloat(elem) {
		return signExtend(raw, len(b))
	}
	return raw
}

// scalarBits widens a builtin scalar to its 64-bit two's complement or
// IEEE-754 bit pattern.
func scalarBits(v any) (uint64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return uint64(x), true
	case int8:
		return uint64(x), true
	case int16:
		return uint64(x), true
	case int32:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case float32:
		return uint64(math.Float32bits(x)), true
	case float64:
		return math.Float64bits(x), true
	}
	return 0, false
}

func scalarValue(k reflect.Kind, raw uint64) any {
	switch k {
	case reflect.Bool:
		return raw != 0
	case reflect.Int:
		return int(raw)
	case reflect.Int8:
		return int8(raw)
	case reflect.Int16:
		return int16(raw)
	case reflect.Int32:
		return int32(raw)
	case reflect.Int64:
		return int64(raw)
	case reflect.Uint:
		return uint(raw)
	case reflect.Uint8:
		return uint8(raw)
	case reflect.Uint16:
		return uint16(raw)
	case reflect.Uint32:
		return uint32(raw)
	case reflect.Uint64:
		return raw
	case reflect.Float32:
		return math.Float32frombits(uint32(raw))
	case reflect.Float64:
		return math.Float64frombits(raw)
	}
	return nil
}
