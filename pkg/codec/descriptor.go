package codec

import (
	"reflect"

	"golang.org/x/text/encoding"
)

// FieldDescriptor is the resolved, immutable layout of one field.
type FieldDescriptor struct {
	name      string
	index     int
	goType    reflect.Type
	category  Category
	offset    int
	elemSize  int
	arrayLen  int
	order     ByteOrder
	signed    bool
	charset   string
	enc       encoding.Encoding
	convName  string
	converter Converter

	get func(owner any) any
	set func(owner any, v any)
}

func (f *FieldDescriptor) Name() string         { return f.name }
func (f *FieldDescriptor) Index() int           { return f.index }
func (f *FieldDescriptor) Type() reflect.Type   { return f.goType }
func (f *FieldDescriptor) Category() Category   { return f.category }
func (f *FieldDescriptor) ElementSize() int     { return f.elemSize }
func (f *FieldDescriptor) ArrayLength() int     { return f.arrayLen }
func (f *FieldDescriptor) ByteOrder() ByteOrder { return f.order }
func (f *FieldDescriptor) Signed() bool         { return f.signed }

// Charset is the canonical charset name, empty for non-text fields.
func (f *FieldDescriptor) Charset() string { return f.charset }

// Encoding is the resolved text encoding, nil for non-text fields.
func (f *FieldDescriptor) Encoding() encoding.Encoding { return f.enc }

// ConverterName is the converter the declaration asked for, if any.
func (f *FieldDescriptor) ConverterName() string { return f.convName }

// Converter is the converter chosen during resolution.
func (f *FieldDescriptor) Converter() Converter { return f.converter }

// ExplicitOffset reports the declared absolute offset.
func (f *FieldDescriptor) ExplicitOffset() (int, bool) {
	return f.offset, f.offset >= 0
}

// IsArray reports whether the field repeats ArrayLength elements.
func (f *FieldDescriptor) IsArray() bool {
	return isArrayType(f.goType, f.category)
}

// Size is the total width of the field: ElementSize * max(ArrayLength, 1).
func (f *FieldDescriptor) Size() int {
	return f.elemSize * max(f.arrayLen, 1)
}

// StructDescriptor is the resolved layout of one record type. It is never
// modified after resolution and is safe for concurrent use.
type StructDescriptor struct {
	name      string
	owner     reflect.Type
	fields    []*FieldDescriptor
	size      int
	newObject Instantiator
}

// Name is the record type name used in diagnostics.
func (d *StructDescriptor) Name() string { return d.name }

// OwnerType is the pointer type Encode accepts and Decode returns.
func (d *StructDescriptor) OwnerType() reflect.Type { return d.owner }

// Size is the byte length of one encoded record.
func (d *StructDescriptor) Size() int { return d.size }

// NumField returns the number of declared fields.
func (d *StructDescriptor) NumField() int { return len(d.fields) }

// Field returns the i'th field in declaration order.
func (d *StructDescriptor) Field(i int) *FieldDescriptor { return d.fields[i] }

// Fields returns the fields in declaration order.
func (d *StructDescriptor) Fields() []*FieldDescriptor {
	out := make([]*FieldDescriptor, len(d.fields))
	copy(out, d.fields)
	return out
}

// FieldByName looks a field up by its declared name.
func (d *StructDescriptor) FieldByName(name string) (*FieldDescriptor, bool) {
	for _, f := range d.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// New builds a blank record with the descriptor's instantiator.
func (d *StructDescriptor) New() any { return d.newObject() }

// Offsets returns the offset each field is written at and read from,
// relative to the record start.
func (d *StructDescriptor) Offsets() []int {
	out := make([]int, len(d.fields))
	cursor := 0
	for i, f := range d.fields {
		out[i] = cursor
		if off, ok := f.ExplicitOffset(); ok {
			out[i] = off
		}
		cursor += f.Size()
	}
	return out
}
