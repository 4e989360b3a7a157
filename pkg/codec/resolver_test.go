package codec

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type telemetry struct {
	ID      uint32
	Flag    uint8
	Samples []int16
}

func (telemetry) StructLayout() Layout {
	return Struct[telemetry](
		Bind("id", func(t *telemetry) *uint32 { return &t.ID }, Size(4)),
		Bind("flag", func(t *telemetry) *uint8 { return &t.Flag }, Size(1)),
		Bind("samples", func(t *telemetry) *[]int16 { return &t.Samples }, Size(2), ArrayLen(5)),
	).WithInstantiator(func() any {
		return &telemetry{Samples: make([]int16, 5)}
	})
}

var countedLayouts atomic.Int32

type counted struct {
	A uint16
}

func (counted) StructLayout() Layout {
	countedLayouts.Add(1)
	return Struct[counted](Bind("a", func(c *counted) *uint16 { return &c.A }, Size(2)))
}

type pointerDeclared struct {
	V int8
}

func (*pointerDeclared) StructLayout() Layout {
	return Struct[pointerDeclared](Bind("v", func(p *pointerDeclared) *int8 { return &p.V }, Size(1)))
}

type undeclared struct {
	X, Y int16
}

type mode uint8

type withMode struct {
	Mode mode
}

func (withMode) StructLayout() Layout {
	return Struct[withMode](Bind("mode", func(w *withMode) *mode { return &w.Mode }, Size(1)))
}

func TestResolver_Memoized(t *testing.T) {
	r := NewResolver()

	first, err := r.Resolve(reflect.TypeOf(telemetry{}))
	require.NoError(t, err)
	second, err := r.Resolve(reflect.TypeOf(&telemetry{}))
	require.NoError(t, err)
	third, err := Resolve[telemetry](r)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, third)
	assert.Equal(t, 15, first.Size())
	assert.Equal(t, 3, first.NumField())
	assert.Equal(t, reflect.TypeOf(&telemetry{}), first.OwnerType())
}

func TestResolver_ConcurrentFirstUse(t *testing.T) {
	countedLayouts.Store(0)
	r := NewResolver()

	const workers = 32
	descs := make([]*StructDescriptor, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			d, err := Resolve[counted](r)
			descs[i] = d
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), countedLayouts.Load())
	for _, d := range descs {
		assert.Same(t, descs[0], d)
	}
}

func TestResolver_SeparateResolversHaveSeparateCaches(t *testing.T) {
	a, err := Resolve[telemetry](NewResolver())
	require.NoError(t, err)
	b, err := Resolve[telemetry](NewResolver())
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestResolver_PointerReceiverDeclarer(t *testing.T) {
	d, err := Resolve[pointerDeclared](NewResolver())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Size())
}

func TestResolver_Register(t *testing.T) {
	r := NewResolver()
	layout := Struct[undeclared](
		Bind("x", func(p *undeclared) *int16 { return &p.X }, Size(2)),
		Bind("y", func(p *undeclared) *int16 { return &p.Y }, Size(2)),
	)
	require.NoError(t, r.Register(reflect.TypeOf(undeclared{}), layout))

	d, err := Resolve[undeclared](r)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Size())

	err = r.Register(reflect.TypeOf(undeclared{}), layout)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolver_MissingLayout(t *testing.T) {
	_, err := Resolve[undeclared](NewResolver())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var cfg *ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, "codec.undeclared", cfg.Type)
}

func TestResolver_FailureIsMemoized(t *testing.T) {
	r := NewResolver()
	_, first := Resolve[withMode](r)
	_, second := Resolve[withMode](r)
	require.Error(t, first)
	assert.Same(t, first, second)
}

func TestResolver_UnsupportedType(t *testing.T) {
	_, err := Resolve[withMode](NewResolver())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.NotErrorIs(t, err, ErrConfiguration)

	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "mode", unsupported.Field)
	assert.Equal(t, reflect.TypeOf(mode(0)), unsupported.FieldType)
}

func TestResolver_CustomConverter(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register(TypedConverter[mode]{
		ID: "mode",
		EncodeFunc: func(_ *FieldDescriptor, v mode) ([]byte, error) {
			return []byte{byte(v) | 0x80}, nil
		},
		DecodeFunc: func(_ *FieldDescriptor, b []byte) (mode, error) {
			return mode(b[0] &^ 0x80), nil
		},
	}))
	r := NewResolver(WithRegistry(reg))

	d, err := Resolve[withMode](r)
	require.NoError(t, err)
	assert.Equal(t, "mode", d.Field(0).Converter().Name())
	assert.Equal(t, Custom, d.Field(0).Category())

	out, err := d.Encode(&withMode{Mode: 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x83}, out)

	back, err := d.Decode(out, 0)
	require.NoError(t, err)
	assert.Equal(t, mode(3), back.(*withMode).Mode)
}

func TestResolver_CompileErrors(t *testing.T) {
	type rec struct {
		U  uint32
		F  float32
		A  []uint16
		S  string
		N  int64
		TS []string
		T  time.Time
		M  mode
	}
	u := func(opts ...FieldOption) FieldDecl {
		return Bind("u", func(r *rec) *uint32 { return &r.U }, opts...)
	}

	tests := []struct {
		name     string
		layout   Layout
		sentinel error
	}{
		{
			name:     "missing instantiator",
			layout:   Layout{Size: AutoSize, Fields: []FieldDecl{u(Size(4))}},
			sentinel: ErrConfiguration,
		},
		{
			name:     "instantiator panics",
			layout:   Struct[rec](u(Size(4))).WithInstantiator(func() any { panic("boom") }),
			sentinel: ErrConfiguration,
		},
		{
			name:     "instantiator returns nil",
			layout:   Struct[rec](u(Size(4))).WithInstantiator(func() any { return nil }),
			sentinel: ErrConfiguration,
		},
		{
			name:     "instantiator returns wrong type",
			layout:   Struct[rec](u(Size(4))).WithInstantiator(func() any { return &telemetry{} }),
			sentinel: ErrConfiguration,
		},
		{
			name:     "missing size",
			layout:   Struct[rec](u()),
			sentinel: ErrConfiguration,
		},
		{
			name:     "integer wider than eight bytes",
			layout:   Struct[rec](u(Size(9))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "float with wrong width",
			layout:   Struct[rec](Bind("f", func(r *rec) *float32 { return &r.F }, Size(2))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "array without length",
			layout:   Struct[rec](Bind("a", func(r *rec) *[]uint16 { return &r.A }, Size(2))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "string array without length",
			layout:   Struct[rec](Bind("ts", func(r *rec) *[]string { return &r.TS }, Size(2))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "scalar with array length",
			layout:   Struct[rec](u(Size(4), ArrayLen(2))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "time with array length",
			layout:   Struct[rec](Bind("t", func(r *rec) *time.Time { return &r.T }, Size(8), ArrayLen(3))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "custom scalar with array length",
			layout:   Struct[rec](Bind("m", func(r *rec) *mode { return &r.M }, Size(1), ArrayLen(2))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "negative offset",
			layout:   Struct[rec](u(Size(4), Offset(-3))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "duplicate name",
			layout:   Struct[rec](u(Size(4)), u(Size(4))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "unknown charset",
			layout:   Struct[rec](Bind("s", func(r *rec) *string { return &r.S }, Size(4), Charset("klingon"))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "unknown converter",
			layout:   Struct[rec](u(Size(4), WithConverter("nope"))),
			sentinel: ErrConfiguration,
		},
		{
			name:     "explicit converter does not support field",
			layout:   Struct[rec](Bind("n", func(r *rec) *int64 { return &r.N }, Size(8), WithConverter("hex"))),
			sentinel: ErrUnsupportedType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewResolver().Compile("rec", reflect.TypeOf(&rec{}), tc.layout)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestResolver_SizeOverrideAndExplicitEnd(t *testing.T) {
	type rec struct{ A, B uint8 }
	a := Bind("a", func(r *rec) *uint8 { return &r.A }, Size(1))
	b := Bind("b", func(r *rec) *uint8 { return &r.B }, Size(1), Offset(9))

	r := NewResolver()

	d, err := r.Compile("rec", nil, Struct[rec](a, b))
	require.NoError(t, err)
	assert.Equal(t, 10, d.Size(), "explicit offset extends the record")
	assert.Equal(t, reflect.TypeOf(&rec{}), d.OwnerType())

	d, err = r.Compile("rec", nil, Struct[rec](a, b).WithSize(32))
	require.NoError(t, err)
	assert.Equal(t, 32, d.Size())

	d, err = r.Compile("rec", nil, Struct[rec](a).WithSize(0))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Size(), "override never shrinks the record")
}

func TestResolver_DefaultCharset(t *testing.T) {
	type rec struct{ S string }
	layout := Struct[rec](Bind("s", func(r *rec) *string { return &r.S }, Size(4)))

	d, err := NewResolver().Compile("rec", nil, layout)
	require.NoError(t, err)
	assert.Equal(t, "utf-8", d.Field(0).Charset())

	d, err = NewResolver(WithDefaultCharset("GBK")).Compile("rec", nil, layout)
	require.NoError(t, err)
	assert.Equal(t, "gbk", d.Field(0).Charset())
}

func TestRegistry_RegisterReplacesByName(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{"time", "scalar", "array", "string", "hex"}, reg.Names())

	require.NoError(t, reg.Register(HexConverter{}))
	assert.Equal(t, []string{"hex", "time", "scalar", "array", "string"}, reg.Names())

	assert.Error(t, reg.Register(nil))
	_, ok := reg.Lookup("missing")
	assert.False(t, ok)
}
