package codec

import (
	"fmt"
	"reflect"
	"sync"
)

// Resolver turns layout declarations into StructDescriptors and memoizes
// them per record type for its lifetime.
type Resolver struct {
	registry       *Registry
	defaultCharset string

	declared sync.Map // reflect.Type -> Layout
	cache    sync.Map // reflect.Type -> *resolution
}

// resolution holds the outcome of the single discovery walk for one type.
// Failures are kept too: a broken declaration is not retried.
type resolution struct {
	once sync.Once
	desc *StructDescriptor
	err  error
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRegistry sets the converter registry. The default is DefaultRegistry().
func WithRegistry(reg *Registry) ResolverOption {
	return func(r *Resolver) { r.registry = reg }
}

// WithDefaultCharset sets the charset of text fields that do not name one.
func WithDefaultCharset(label string) ResolverOption {
	return func(r *Resolver) {
		if label != "" {
			r.defaultCharset = label
		}
	}
}

// NewResolver creates a resolver with its own descriptor cache.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{defaultCharset: DefaultCharset}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = DefaultRegistry()
	}
	return r
}

var defaultResolver = NewResolver()

// Default returns the process-wide resolver used by Marshal and Unmarshal
// when no resolver is given.
func Default() *Resolver { return defaultResolver }

// Registry returns the converter registry consulted during resolution.
func (r *Resolver) Registry() *Registry { return r.registry }

// Register attaches a layout to t for types that cannot implement Declarer.
// It must happen before t is first resolved.
func (r *Resolver) Register(t reflect.Type, layout Layout) error {
	t = recordType(t)
	if t == nil {
		return configErr("<nil>", "", "cannot register a nil type")
	}
	if _, resolved := r.cache.Load(t); resolved {
		return configErr(t.String(), "", "layout registered after the type was resolved")
	}
	r.declared.Store(t, layout)
	return nil
}

// Resolve returns the descriptor for record type t (T or *T). Every call
// for the same type returns the same *StructDescriptor; concurrent first
// calls run the discovery walk once.
func (r *Resolver) Resolve(t reflect.Type) (*StructDescriptor, error) {
	t = recordType(t)
	if t == nil {
		return nil, configErr("<nil>", "", "cannot resolve a nil type")
	}
	v, ok := r.cache.Load(t)
	if !ok {
		v, _ = r.cache.LoadOrStore(t, &resolution{})
	}
	res := v.(*resolution)
	res.once.Do(func() {
		res.desc, res.err = r.discover(t)
	})
	return res.desc, res.err
}

func (r *Resolver) discover(t reflect.Type) (*StructDescriptor, error) {
	layout, err := r.layoutFor(t)
	if err != nil {
		return nil, err
	}
	d, err := r.Compile(t.String(), reflect.PointerTo(t), layout)
	if err != nil {
		Logger().Debug().Err(err).Str("type", t.String()).Msg("layout resolution failed")
		return nil, err
	}
	return d, nil
}

func (r *Resolver) layoutFor(t reflect.Type) (Layout, error) {
	if v, ok := r.declared.Load(t); ok {
		return v.(Layout), nil
	}
	var decl Declarer
	if d, ok := reflect.Zero(t).Interface().(Declarer); ok {
		decl = d
	} else if d, ok := reflect.New(t).Interface().(Declarer); ok {
		decl = d
	}
	if decl == nil {
		return Layout{}, configErr(t.String(), "", "missing record layout: implement codec.Declarer or call Register")
	}
	var layout Layout
	if err := guard(func() { layout = decl.StructLayout() }); err != nil {
		return Layout{}, &ConfigurationError{Type: t.String(), Reason: "StructLayout failed", Err: err}
	}
	return layout, nil
}

// Compile resolves layout without consulting or filling the cache. owner is
// the pointer type the instantiator must produce; nil accepts whatever the
// instantiator returns.
func (r *Resolver) Compile(name string, owner reflect.Type, layout Layout) (*StructDescriptor, error) {
	if layout.New == nil {
		return nil, configErr(name, "", "missing instantiator")
	}
	var probe any
	if err := guard(func() { probe = layout.New() }); err != nil {
		return nil, &ConfigurationError{Type: name, Reason: "instantiator failed", Err: err}
	}
	if probe == nil {
		return nil, configErr(name, "", "instantiator returned nil")
	}
	if owner == nil {
		owner = reflect.TypeOf(probe)
	} else if got := reflect.TypeOf(probe); got != owner {
		return nil, configErr(name, "", fmt.Sprintf("instantiator returned %v, want %v", got, owner))
	}

	d := &StructDescriptor{
		name:      name,
		owner:     owner,
		fields:    make([]*FieldDescriptor, 0, len(layout.Fields)),
		newObject: layout.New,
	}
	seen := make(map[string]struct{}, len(layout.Fields))
	sum, end := 0, 0
	for i, decl := range layout.Fields {
		f, err := r.resolveField(name, i, decl)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[f.name]; dup {
			return nil, configErr(name, f.name, "duplicate field name")
		}
		seen[f.name] = struct{}{}

		sum += f.Size()
		if off, ok := f.ExplicitOffset(); ok {
			end = max(end, off+f.Size())
		}
		d.fields = append(d.fields, f)
	}
	d.size = max(layout.Size, sum, end)

	Logger().Debug().
		Str("type", name).
		Int("fields", len(d.fields)).
		Int("size", d.size).
		Msg("resolved struct layout")
	return d, nil
}

func (r *Resolver) resolveField(typeName string, index int, decl FieldDecl) (*FieldDescriptor, error) {
	fieldName := decl.Name
	if fieldName == "" {
		fieldName = fmt.Sprintf("#%d", index)
	}
	switch {
	case decl.Name == "":
		return nil, configErr(typeName, fieldName, "field has no name")
	case decl.Type == nil:
		return nil, configErr(typeName, fieldName, "field has no type")
	case decl.Get == nil || decl.Set == nil:
		return nil, configErr(typeName, fieldName, "field has no accessors")
	case decl.Size <= 0:
		return nil, configErr(typeName, fieldName, "element size must be positive")
	case decl.ArrayLen < 0:
		return nil, configErr(typeName, fieldName, "array length must not be negative")
	case decl.Offset < Sequential:
		return nil, configErr(typeName, fieldName, "offset must be -1 or non-negative")
	}

	category := Categorize(decl.Type)
	if isArrayType(decl.Type, category) && decl.ArrayLen <= 0 {
		return nil, configErr(typeName, fieldName, "array field needs a positive array length")
	}
	// only slices and strings repeat their element
	if decl.ArrayLen > 0 && decl.Type.Kind() != reflect.Slice && category != String {
		return nil, configErr(typeName, fieldName, "single value field declares an array length")
	}

	f := &FieldDescriptor{
		name:     decl.Name,
		index:    index,
		goType:   decl.Type,
		category: category,
		offset:   decl.Offset,
		elemSize: decl.Size,
		arrayLen: decl.ArrayLen,
		order:    decl.Order,
		signed:   decl.Signed,
		convName: decl.Converter,
		get:      decl.Get,
		set:      decl.Set,
	}
	if category == String || decl.Charset != "" {
		label := decl.Charset
		if label == "" {
			label = r.defaultCharset
		}
		enc, canonical, err := lookupCharset(label)
		if err != nil {
			return nil, &ConfigurationError{
				Type:   typeName,
				Field:  fieldName,
				Reason: fmt.Sprintf("unknown charset %q", label),
				Err:    err,
			}
		}
		f.enc, f.charset = enc, canonical
	}

	conv, err := r.selectConverter(typeName, f)
	if err != nil {
		return nil, err
	}
	if v, ok := conv.(Validator); ok {
		if err := v.Validate(f); err != nil {
			return nil, &ConfigurationError{Type: typeName, Field: fieldName, Reason: "invalid field width", Err: err}
		}
	}
	f.converter = conv
	return f, nil
}

func (r *Resolver) selectConverter(typeName string, f *FieldDescriptor) (Converter, error) {
	if f.convName != "" {
		conv, ok := r.registry.Lookup(f.convName)
		if !ok {
			return nil, configErr(typeName, f.name, fmt.Sprintf("unknown converter %q", f.convName))
		}
		if !conv.Supports(f.goType, f, f.category) {
			return nil, &UnsupportedTypeError{Type: typeName, Field: f.name, FieldType: f.goType, Converter: f.convName}
		}
		return conv, nil
	}
	conv, ok := r.registry.Select(f.goType, f, f.category)
	if !ok {
		return nil, &UnsupportedTypeError{Type: typeName, Field: f.name, FieldType: f.goType}
	}
	return conv, nil
}

// recordType strips one level of pointer so T and *T share a cache entry.
func recordType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// guard runs fn and turns a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	fn()
	return nil
}

// Resolve is the generic form of (*Resolver).Resolve.
func Resolve[T any](r *Resolver) (*StructDescriptor, error) {
	return r.Resolve(reflect.TypeFor[T]())
}
