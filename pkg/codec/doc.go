// Package codec maps Go structs onto fixed-layout binary records.
//
// A record type declares its layout once, either by implementing Declarer
// or through Resolver.Register. The Resolver validates that declaration
// against the converter Registry and produces an immutable StructDescriptor,
// memoized per type. Encoding and decoding then run over the descriptor
// without reflection.
//
// # Declaring a Layout
//
//	type SensorFrame struct {
//	    ID      uint32
//	    Flag    uint8
//	    Samples []int16
//	}
//
//	func (SensorFrame) StructLayout() codec.Layout {
//	    return codec.Struct[SensorFrame](
//	        codec.Bind("id", func(f *SensorFrame) *uint32 { return &f.ID }, codec.Size(4)),
//	        codec.Bind("flag", func(f *SensorFrame) *uint8 { return &f.Flag }, codec.Size(1)),
//	        codec.Bind("samples", func(f *SensorFrame) *[]int16 { return &f.Samples },
//	            codec.Size(2), codec.ArrayLen(5)),
//	    )
//	}
//
// Encoding {ID: 1, Flag: 2, Samples: [10 -1 0 7 1000]} yields
//
//	00 00 00 01 02 00 0A FF FF 00 00 00 07 03 E8
//
// # Field Layout
//
// Each field occupies ElementSize * max(ArrayLength, 1) bytes. Fields follow
// one another in declaration order unless they declare an explicit Offset,
// which is relative to the record start in both directions. The record size
// is the largest of the declared size, the sum of the field sizes and the
// end of the furthest explicitly placed field.
//
// Integers may be declared narrower or wider than their Go type. Encoding
// keeps the low-order bytes; decoding sign extends when the field is Signed,
// which defaults to the signedness of the Go type.
//
// # Built-in Converters
//
//   - scalar: bool, int*, uint*, float32 (4 bytes), float64 (8 bytes)
//   - array: slices of the scalar types, ArrayLength elements
//   - string: string and []string, NUL padded, any charset known to
//     golang.org/x/text/encoding/htmlindex
//   - time: time.Time as Unix seconds (4), seconds and milliseconds (6) or
//     milliseconds (8)
//   - hex: hex digit strings stored as raw bytes, only with WithConverter("hex")
//
// Other types need a converter of their own, usually a TypedConverter,
// registered before the type is resolved.
//
// # Errors
//
// Broken declarations fail at resolution with a *ConfigurationError, and
// fields no converter accepts fail with an *UnsupportedTypeError. Both are
// memoized like successful resolutions. A buffer shorter than the record is
// not an error: Decode stops at the first field that does not fit and leaves
// the rest as the instantiator made them.
//
// # Thread Safety
//
// Resolvers, descriptors and the built-in converters are safe for concurrent
// use. Concurrent first resolutions of one type run the discovery walk once.
package codec
