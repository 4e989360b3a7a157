package codec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("codec: configuration error")
	// ErrUnsupportedType matches every *UnsupportedTypeError via errors.Is.
	ErrUnsupportedType = errors.New("codec: unsupported type")
	// ErrOwnerMismatch is returned when an object handed to Encode or
	// DecodeInto is not the type the descriptor was resolved for.
	ErrOwnerMismatch = errors.New("codec: object type does not match descriptor")
)

// ConfigurationError reports a broken layout declaration. It is only ever
// produced while resolving a type.
type ConfigurationError struct {
	Type   string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("codec: invalid layout for ")
	b.WriteString(e.Type)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// UnsupportedTypeError reports a field no converter accepts.
type UnsupportedTypeError struct {
	Type      string
	Field     string
	FieldType reflect.Type
	// Converter is set when the field named an explicit converter.
	Converter string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Converter != "" {
		return fmt.Sprintf("codec: converter %q does not support %s.%s [%v]",
			e.Converter, e.Type, e.Field, e.FieldType)
	}
	return fmt.Sprintf("codec: no converter supports %s.%s [%v]", e.Type, e.Field, e.FieldType)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

func configErr(typeName, field, reason string) error {
	return &ConfigurationError{Type: typeName, Field: field, Reason: reason}
}
