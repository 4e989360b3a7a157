package codec

import (
	"math"
	"reflect"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ArrayConverter handles slices of builtin scalars. Each element occupies
// ElementSize bytes and follows the ScalarConverter width rules. Slices
// longer than ArrayLength are truncated; shorter ones are zero padded.
// Decode always yields ArrayLength elements.
type ArrayConverter struct{}

func (ArrayConverter) Name() string { return "array" }

func (ArrayConverter) Supports(t reflect.Type, _ *FieldDescriptor, c Category) bool {
	return c == PrimitiveArray
}

func (ArrayConverter) Validate(f *FieldDescriptor) error {
	return validateScalarWidth(f.goType.Elem(), f.elemSize)
}

func (ArrayConverter) Encode(_ any, f *FieldDescriptor, v any) ([]byte, error) {
	out := make([]byte, f.Size())
	switch s := v.(type) {
	case []bool:
		n := min(len(s), f.arrayLen)
		for i := 0; i < n; i++ {
			if s[i] {
				putUint(element(out, f, i), f.order, 1)
			}
		}
	case []int:
		packIntegers(out, f, s)
	case []int8:
		packIntegers(out, f, s)
	case []int16:
		packIntegers(out, f, s)
	case []int32:
		packIntegers(out, f, s)
	case []int64:
		packIntegers(out, f, s)
	case []uint:
		packIntegers(out, f, s)
	case []uint8:
		packIntegers(out, f, s)
	case []uint16:
		packIntegers(out, f, s)
	case []uint32:
		packIntegers(out, f, s)
	case []uint64:
		packIntegers(out, f, s)
	case []float32:
		n := min(len(s), f.arrayLen)
		for i := 0; i < n; i++ {
			putUint(element(out, f, i), f.order, uint64(math.Float32bits(s[i])))
		}
	case []float64:
		n := min(len(s), f.arrayLen)
		for i := 0; i < n; i++ {
			putUint(element(out, f, i), f.order, math.Float64bits(s[i]))
		}
	default:
		return nil, valueTypeError(f, v)
	}
	return out, nil
}

func (ArrayConverter) Decode(_ any, f *FieldDescriptor, buf []byte, off int) (any, error) {
	b := buf[off : off+f.Size()]
	elem := f.goType.Elem()
	switch elem.Kind() {
	case reflect.Bool:
		out := make([]bool, f.arrayLen)
		for i := range out {
			out[i] = getUint(element(b, f, i), f.order) != 0
		}
		return out, nil
	case reflect.Int:
		return unpackIntegers[int](b, f, elem), nil
	case reflect.Int8:
		return unpackIntegers[int8](b, f, elem), nil
	case reflect.Int16:
		return unpackIntegers[int16](b, f, elem), nil
	case reflect.Int32:
		return unpackIntegers[int32](b, f, elem), nil
	case reflect.Int64:
		return unpackIntegers[int64](b, f, elem), nil
	case reflect.Uint:
		return unpackIntegers[uint](b, f, elem), nil
	case reflect.Uint8:
		return unpackIntegers[uint8](b, f, elem), nil
	case reflect.Uint16:
		return unpackIntegers[uint16](b, f, elem), nil
	case reflect.Uint32:
		return unpackIntegers[uint32](b, f, elem), nil
	case reflect.Uint64:
		return unpackIntegers[uint64](b, f, elem), nil
	case reflect.Float32:
		out := make([]float32, f.arrayLen)
		for i := range out {
			out[i] = math.Float32frombits(uint32(getUint(element(b, f, i), f.order)))
		}
		return out, nil
	case reflect.Float64:
		out := make([]float64, f.arrayLen)
		for i := range out {
			out[i] = math.Float64frombits(getUint(element(b, f, i), f.order))
		}
		return out, nil
	}
	return nil, valueTypeError(f, nil)
}

// element slices the i'th element out of a packed array.
func element(b []byte, f *FieldDescriptor, i int) []byte {
	return b[i*f.elemSize : (i+1)*f.elemSize]
}

func packIntegers[E integer](out []byte, f *FieldDescriptor, s []E) {
	n := min(len(s), f.arrayLen)
	for i := 0; i < n; i++ {
		putUint(element(out, f, i), f.order, uint64(s[i]))
	}
}

func unpackIntegers[E integer](b []byte, f *FieldDescriptor, elem reflect.Type) []E {
	out := make([]E, f.arrayLen)
	for i := range out {
		out[i] = E(readElement(f, elem, element(b, f, i)))
	}
	return out
}
