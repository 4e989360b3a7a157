package codec

import (
	"fmt"
	"reflect"
)

// TypedConverter adapts a pair of functions into a Converter bound to the
// exact Go type V. Encoded output is truncated or zero padded to the field
// width, so EncodeFunc may return fewer bytes.
type TypedConverter[V any] struct {
	ID         string
	EncodeFunc func(f *FieldDescriptor, v V) ([]byte, error)
	DecodeFunc func(f *FieldDescriptor, b []byte) (V, error)
}

func (c TypedConverter[V]) Name() string { return c.ID }

func (c TypedConverter[V]) Supports(t reflect.Type, _ *FieldDescriptor, _ Category) bool {
	return t == reflect.TypeFor[V]()
}

func (c TypedConverter[V]) Encode(_ any, f *FieldDescriptor, v any) ([]byte, error) {
	val, ok := v.(V)
	if !ok {
		return nil, valueTypeError(f, v)
	}
	out, err := c.EncodeFunc(f, val)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.name, err)
	}
	return fitWidth(out, f.Size()), nil
}

func (c TypedConverter[V]) Decode(_ any, f *FieldDescriptor, buf []byte, off int) (any, error) {
	v, err := c.DecodeFunc(f, buf[off:off+f.Size()])
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.name, err)
	}
	return v, nil
}
