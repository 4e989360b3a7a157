package codec

import "reflect"

// AutoSize lets the resolver size a record from its fields.
const AutoSize = -1

// Sequential marks a field that follows the previous one.
const Sequential = -1

// Instantiator builds the blank object Decode fills in. It must return a
// pointer of the record's owner type.
type Instantiator func() any

// Layout is the record-level declaration: an optional size override, the
// instantiator, and the ordered field declarations.
type Layout struct {
	Size   int
	New    Instantiator
	Fields []FieldDecl
}

// Declarer is implemented by record types that carry their own layout. The
// method is called on the zero value, once per resolver.
type Declarer interface {
	StructLayout() Layout
}

// Struct declares a layout for *T with the default instantiator new(T).
func Struct[T any](fields ...FieldDecl) Layout {
	return Layout{
		Size:   AutoSize,
		New:    func() any { return new(T) },
		Fields: fields,
	}
}

// WithSize returns a copy of l with an explicit record size. The effective
// size is never smaller than what the fields need.
func (l Layout) WithSize(n int) Layout {
	l.Size = n
	return l
}

// WithInstantiator returns a copy of l using fn to build blank records.
func (l Layout) WithInstantiator(fn Instantiator) Layout {
	l.New = fn
	return l
}

// FieldDecl is the field-level declaration. Get and Set are the accessor
// pair the engine uses; they receive the owner pointer.
type FieldDecl struct {
	Name      string
	Type      reflect.Type
	Offset    int
	Size      int
	ArrayLen  int
	Order     ByteOrder
	Signed    bool
	Charset   string
	Converter string

	Get func(owner any) any
	Set func(owner any, v any)
}

// FieldOption adjusts a FieldDecl.
type FieldOption func(*FieldDecl)

// Bind declares a field of *T reached through ref. The accessor closures are
// built here, once, so encode and decode never reflect over the record.
func Bind[T, V any](name string, ref func(*T) *V, opts ...FieldOption) FieldDecl {
	t := reflect.TypeFor[V]()
	d := FieldDecl{
		Name:   name,
		Type:   t,
		Offset: Sequential,
		Order:  BigEndian,
		Signed: IsSignedType(t),
		Get: func(owner any) any {
			return *ref(owner.(*T))
		},
		Set: func(owner any, v any) {
			*ref(owner.(*T)) = v.(V)
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Size sets the byte width of one element.
func Size(n int) FieldOption {
	return func(d *FieldDecl) { d.Size = n }
}

// ArrayLen sets the number of elements of an array field.
func ArrayLen(n int) FieldOption {
	return func(d *FieldDecl) { d.ArrayLen = n }
}

// Offset pins the field to an absolute offset from the record start.
func Offset(n int) FieldOption {
	return func(d *FieldDecl) { d.Offset = n }
}

// Order sets the byte order of multi-byte scalars.
func Order(o ByteOrder) FieldOption {
	return func(d *FieldDecl) { d.Order = o }
}

// Signed controls sign extension when reading narrower integers.
func Signed(signed bool) FieldOption {
	return func(d *FieldDecl) { d.Signed = signed }
}

// Charset names the text encoding of a string field.
func Charset(name string) FieldOption {
	return func(d *FieldDecl) { d.Charset = name }
}

// WithConverter forces a registered converter by name, bypassing selection.
func WithConverter(name string) FieldOption {
	return func(d *FieldDecl) { d.Converter = name }
}
