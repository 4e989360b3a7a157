package codec

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		value any
		want  Category
	}{
		{uint16(0), Primitive},
		{float64(0), Primitive},
		{false, Primitive},
		{[]int32(nil), PrimitiveArray},
		{[]byte(nil), PrimitiveArray},
		{"", String},
		{[]string(nil), String},
		{mode(0), Custom},
		{[]mode(nil), Custom},
		{time.Time{}, Custom},
		{struct{}{}, Custom},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Categorize(reflect.TypeOf(tc.value)), "%T", tc.value)
	}
}

func TestParseByteOrder(t *testing.T) {
	for _, s := range []string{"", "big", "BE", "Big_Endian"} {
		o, err := ParseByteOrder(s)
		require.NoError(t, err)
		assert.Equal(t, BigEndian, o)
	}
	for _, s := range []string{"little", "LE", "little_endian"} {
		o, err := ParseByteOrder(s)
		require.NoError(t, err)
		assert.Equal(t, LittleEndian, o)
	}
	_, err := ParseByteOrder("middle")
	assert.Error(t, err)
}

type label struct {
	Name  string
	Tags  []string
	Local string
}

func (label) StructLayout() Layout {
	return Struct[label](
		Bind("name", func(l *label) *string { return &l.Name }, Size(8)),
		Bind("tags", func(l *label) *[]string { return &l.Tags }, Size(4), ArrayLen(2)),
		Bind("local", func(l *label) *string { return &l.Local }, Size(6), Charset("gbk")),
	)
}

func TestStringConverter(t *testing.T) {
	r := NewResolver()
	d, err := Resolve[label](r)
	require.NoError(t, err)
	assert.Equal(t, 8+8+6, d.Size())
	assert.Equal(t, "gbk", d.Field(2).Charset())

	in := &label{Name: "hello", Tags: []string{"ab", "cdefg"}, Local: "中文"}
	out, err := d.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\x00\x00\x00"), out[:8])
	assert.Equal(t, []byte("ab\x00\x00cdef"), out[8:16])
	assert.Equal(t, []byte{0xD6, 0xD0, 0xCE, 0xC4, 0x00, 0x00}, out[16:])

	back, err := Unmarshal[label](r, out, 0)
	require.NoError(t, err)
	assert.Equal(t, &label{Name: "hello", Tags: []string{"ab", "cdef"}, Local: "中文"}, back)
}

func TestStringConverter_TruncatesOnRuneBoundary(t *testing.T) {
	type rec struct{ S string }
	d, err := NewResolver().Compile("rec", nil, Struct[rec](
		Bind("s", func(r *rec) *string { return &r.S }, Size(2)),
	))
	require.NoError(t, err)

	out, err := d.Encode(&rec{S: "héllo"})
	require.NoError(t, err)
	assert.Equal(t, []byte{'h', 0}, out)
}

func TestStringConverter_Charsets(t *testing.T) {
	type rec struct{ S string }
	tests := []struct {
		name    string
		charset string
		size    int
		in      string
		encoded []byte
		want    string
	}{
		{"gbk fits", "gbk", 6, "中文", []byte{0xD6, 0xD0, 0xCE, 0xC4, 0x00, 0x00}, "中文"},
		{"gbk truncates on character", "gbk", 5, "中文字", []byte{0xD6, 0xD0, 0xCE, 0xC4, 0x00}, "中文"},
		{"utf-16le keeps trailing zero byte", "utf-16le", 8, "AB", []byte{0x41, 0x00, 0x42, 0x00, 0x00, 0x00, 0x00, 0x00}, "AB"},
		{"utf-16le odd width", "utf-16le", 7, "ABCD", []byte{0x41, 0x00, 0x42, 0x00, 0x43, 0x00, 0x00}, "ABC"},
		{"utf-16be", "utf-16be", 4, "中", []byte{0x4E, 0x2D, 0x00, 0x00}, "中"},
		{"utf-16be truncates on character", "utf-16be", 3, "中文", []byte{0x4E, 0x2D, 0x00}, "中"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewResolver().Compile("rec", nil, Struct[rec](
				Bind("s", func(r *rec) *string { return &r.S }, Size(tc.size), Charset(tc.charset)),
			))
			require.NoError(t, err)

			out, err := d.Encode(&rec{S: tc.in})
			require.NoError(t, err)
			assert.Equal(t, tc.encoded, out)

			back, err := d.Decode(out, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, back.(*rec).S)
		})
	}
}

type stamped struct {
	Secs   time.Time
	Millis time.Time
	Split  time.Time
}

func (stamped) StructLayout() Layout {
	return Struct[stamped](
		Bind("secs", func(s *stamped) *time.Time { return &s.Secs }, Size(4)),
		Bind("millis", func(s *stamped) *time.Time { return &s.Millis }, Size(8), Order(LittleEndian)),
		Bind("split", func(s *stamped) *time.Time { return &s.Split }, Size(6)),
	)
}

func TestTimeConverter(t *testing.T) {
	r := NewResolver()
	at := time.Date(2024, 3, 9, 12, 30, 15, 250*int(time.Millisecond), time.UTC)

	out, err := Marshal(r, &stamped{Secs: at, Millis: at, Split: at})
	require.NoError(t, err)
	require.Len(t, out, 18)
	assert.Equal(t, []byte{0x00, 0xFA}, out[16:], "millisecond part of the split form")

	back, err := Unmarshal[stamped](r, out, 0)
	require.NoError(t, err)
	assert.Equal(t, at.Truncate(time.Second), back.Secs)
	assert.Equal(t, at, back.Millis)
	assert.Equal(t, at, back.Split)

	out, err = Marshal(r, &stamped{})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 18), out)
	back, err = Unmarshal[stamped](r, out, 0)
	require.NoError(t, err)
	assert.True(t, back.Secs.IsZero())
	assert.True(t, back.Split.IsZero())
}

func TestTimeConverter_Range(t *testing.T) {
	type rec struct{ T time.Time }
	compile := func(size int) *StructDescriptor {
		d, err := NewResolver().Compile("rec", nil, Struct[rec](
			Bind("t", func(r *rec) *time.Time { return &r.T }, Size(size)),
		))
		require.NoError(t, err)
		return d
	}
	before := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2107, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, size := range []int{4, 6} {
		d := compile(size)
		_, err := d.Encode(&rec{T: before})
		assert.Error(t, err, "size %d", size)
		_, err = d.Encode(&rec{T: after})
		assert.Error(t, err, "size %d", size)
	}

	d := compile(8)
	out, err := d.Encode(&rec{T: before})
	require.NoError(t, err)
	back, err := d.Decode(out, 0)
	require.NoError(t, err)
	assert.Equal(t, before, back.(*rec).T)

	out, err = compile(4).Encode(&rec{T: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 4), out, "the epoch shares the zero time encoding")
}

func TestTimeConverter_RejectsWidth(t *testing.T) {
	type rec struct{ T time.Time }
	_, err := NewResolver().Compile("rec", nil, Struct[rec](
		Bind("t", func(r *rec) *time.Time { return &r.T }, Size(5)),
	))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestHexConverter(t *testing.T) {
	type rec struct{ Serial string }
	d, err := NewResolver().Compile("rec", nil, Struct[rec](
		Bind("serial", func(r *rec) *string { return &r.Serial }, Size(4), WithConverter("hex")),
	))
	require.NoError(t, err)
	assert.Equal(t, "hex", d.Field(0).Converter().Name())

	out, err := d.Encode(&rec{Serial: "0A1B"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0x1B, 0x00, 0x00}, out)

	obj, err := d.Decode(out, 0)
	require.NoError(t, err)
	assert.Equal(t, "0a1b0000", obj.(*rec).Serial)

	out, err = d.Encode(&rec{Serial: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0xBC, 0x00, 0x00}, out)

	_, err = d.Encode(&rec{Serial: "xyz"})
	assert.Error(t, err)
}

func TestHexConverter_NeverAutoSelected(t *testing.T) {
	type rec struct{ S string }
	d, err := NewResolver().Compile("rec", nil, Struct[rec](
		Bind("s", func(r *rec) *string { return &r.S }, Size(4)),
	))
	require.NoError(t, err)
	assert.Equal(t, "string", d.Field(0).Converter().Name())
}
