package codec

import (
	"fmt"
	"reflect"
	"sync"
)

// Converter translates one field between its Go value and its fixed-width
// byte form. Converters are shared by every descriptor that selected them
// and must be safe for concurrent use.
type Converter interface {
	// Name is the registry key used by WithConverter.
	Name() string
	// Supports is consulted during resolution only.
	Supports(t reflect.Type, f *FieldDescriptor, c Category) bool
	// Encode returns exactly f.Size() bytes.
	Encode(owner any, f *FieldDescriptor, v any) ([]byte, error)
	// Decode reads f.Size() bytes of buf starting at off. A nil value
	// leaves the field untouched.
	Decode(owner any, f *FieldDescriptor, buf []byte, off int) (any, error)
}

// Validator is implemented by converters with width rules of their own.
// Validate runs during resolution after the converter was selected; its
// error becomes a ConfigurationError.
type Validator interface {
	Validate(f *FieldDescriptor) error
}

// Registry is an ordered set of converters. Selection returns the first
// converter whose Supports accepts the field.
type Registry struct {
	mu         sync.RWMutex
	converters []Converter
}

// NewRegistry returns a registry holding converters in the given order.
func NewRegistry(converters ...Converter) *Registry {
	r := &Registry{}
	r.converters = append(r.converters, converters...)
	return r
}

// DefaultRegistry returns a registry with the builtin converters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		TimeConverter{},
		ScalarConverter{},
		ArrayConverter{},
		StringConverter{},
		HexConverter{},
	)
}

// Register adds c ahead of the converters already present, replacing any
// converter with the same name. Descriptors resolved earlier keep the
// converter they were resolved with.
func (r *Registry) Register(c Converter) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("codec: converter must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]Converter, 0, len(r.converters)+1)
	kept = append(kept, c)
	for _, existing := range r.converters {
		if existing.Name() != c.Name() {
			kept = append(kept, existing)
		}
	}
	r.converters = kept
	return nil
}

// Lookup finds a converter by name.
func (r *Registry) Lookup(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.converters {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Select returns the first converter supporting the field.
func (r *Registry) Select(t reflect.Type, f *FieldDescriptor, c Category) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conv := range r.converters {
		if conv.Supports(t, f, c) {
			return conv, true
		}
	}
	return nil, false
}

// Names lists the registered converters in selection order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.converters))
	for i, c := range r.converters {
		names[i] = c.Name()
	}
	return names
}

// fitWidth truncates or zero pads b to n bytes.
func fitWidth(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func valueTypeError(f *FieldDescriptor, v any) error {
	return fmt.Errorf("field %s: unexpected value type %T, want %v", f.name, v, f.goType)
}
