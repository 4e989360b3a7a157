package schema

import (
	"fmt"
	"reflect"

	"github.com/ssargent/structkit/pkg/codec"
)

// Compiled is a schema resolved into a codec descriptor for *Record.
type Compiled struct {
	schema *Schema
	desc   *codec.StructDescriptor
	fields []compiledField
	index  map[string]int
}

type compiledField struct {
	name   string
	typ    Type
	length int
}

// FieldInfo describes where a field lands in the encoded record.
type FieldInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Offset      int    `json:"offset"`
	Size        int    `json:"size"`
	ElementSize int    `json:"element_size"`
	ArrayLength int    `json:"array_length,omitempty"`
	ByteOrder   string `json:"byte_order"`
	Signed      bool   `json:"signed"`
	Charset     string `json:"charset,omitempty"`
	Converter   string `json:"converter"`
}

// LayoutInfo describes a compiled record layout.
type LayoutInfo struct {
	Name   string      `json:"name"`
	Size   int         `json:"size"`
	Fields []FieldInfo `json:"fields"`
}

// Compile validates the schema and resolves it with r, or with
// codec.Default() when r is nil. The result is not cached; see Catalog.
func (s *Schema) Compile(r *codec.Resolver) (*Compiled, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = codec.Default()
	}

	defaultOrder, _ := codec.ParseByteOrder(s.ByteOrder)
	c := &Compiled{
		schema: s,
		fields: make([]compiledField, 0, len(s.Fields)),
		index:  make(map[string]int, len(s.Fields)),
	}
	decls := make([]codec.FieldDecl, 0, len(s.Fields))
	for i, f := range s.Fields {
		t, _ := ParseType(f.Type)
		c.fields = append(c.fields, compiledField{name: f.Name, typ: t, length: f.Length})
		c.index[f.Name] = i
		decls = append(decls, s.fieldDecl(f, t, defaultOrder))
	}

	size := s.Size
	if size <= 0 {
		size = codec.AutoSize
	}
	layout := codec.Layout{
		Size:   size,
		New:    func() any { return newRecord(c) },
		Fields: decls,
	}
	d, err := r.Compile(s.Name, reflect.TypeOf(&Record{}), layout)
	if err != nil {
		return nil, err
	}
	c.desc = d
	return c, nil
}

func (s *Schema) fieldDecl(f Field, t Type, defaultOrder codec.ByteOrder) codec.FieldDecl {
	name := f.Name

	size := f.Size
	if size == 0 {
		size = t.DefaultSize()
	}
	order := defaultOrder
	if f.Order != "" {
		order, _ = codec.ParseByteOrder(f.Order)
	}
	offset := codec.Sequential
	if f.Offset != nil {
		offset = *f.Offset
	}
	signed := codec.IsSignedType(t.Go)
	if f.Signed != nil {
		signed = *f.Signed
	}
	charset := f.Charset
	if charset == "" && t.Elem().Kind() == reflect.String {
		charset = s.Charset
	}

	return codec.FieldDecl{
		Name:      name,
		Type:      t.Go,
		Offset:    offset,
		Size:      size,
		ArrayLen:  f.Length,
		Order:     order,
		Signed:    signed,
		Charset:   charset,
		Converter: f.Converter,
		Get: func(owner any) any {
			return owner.(*Record).values[name]
		},
		Set: func(owner any, v any) {
			owner.(*Record).values[name] = v
		},
	}
}

func (c *Compiled) Name() string                       { return c.schema.Name }
func (c *Compiled) Schema() *Schema                    { return c.schema }
func (c *Compiled) Descriptor() *codec.StructDescriptor { return c.desc }
func (c *Compiled) Size() int                          { return c.desc.Size() }

func (c *Compiled) field(name string) (compiledField, bool) {
	i, ok := c.index[name]
	if !ok {
		return compiledField{}, false
	}
	return c.fields[i], true
}

// NewRecord returns a record with every field at its zero value.
func (c *Compiled) NewRecord() *Record { return newRecord(c) }

// Encode serializes rec, which must belong to this schema.
func (c *Compiled) Encode(rec *Record) ([]byte, error) {
	if rec == nil || rec.schema != c {
		return nil, fmt.Errorf("%w: record does not belong to schema %s", codec.ErrOwnerMismatch, c.Name())
	}
	return c.desc.Encode(rec)
}

// EncodeValues builds a record from values and serializes it. Fields not
// in values encode as zero.
func (c *Compiled) EncodeValues(values map[string]any) ([]byte, error) {
	rec := c.NewRecord()
	if err := rec.SetAll(values); err != nil {
		return nil, err
	}
	return c.Encode(rec)
}

// Decode reads a record from buf starting at start. A short buffer leaves
// the trailing fields at zero.
func (c *Compiled) Decode(buf []byte, start int) (*Record, error) {
	obj, err := c.desc.Decode(buf, start)
	if err != nil {
		return nil, err
	}
	return obj.(*Record), nil
}

// Layout describes the resolved layout of every field.
func (c *Compiled) Layout() LayoutInfo {
	offsets := c.desc.Offsets()
	info := LayoutInfo{
		Name:   c.Name(),
		Size:   c.desc.Size(),
		Fields: make([]FieldInfo, c.desc.NumField()),
	}
	for i := range info.Fields {
		f := c.desc.Field(i)
		info.Fields[i] = FieldInfo{
			Name:        f.Name(),
			Type:        c.fields[i].typ.Name,
			Category:    f.Category().String(),
			Offset:      offsets[i],
			Size:        f.Size(),
			ElementSize: f.ElementSize(),
			ArrayLength: f.ArrayLength(),
			ByteOrder:   f.ByteOrder().String(),
			Signed:      f.Signed(),
			Charset:     f.Charset(),
			Converter:   f.Converter().Name(),
		}
	}
	return info
}
