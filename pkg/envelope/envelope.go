package envelope

import (
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"time"

	"github.com/ssargent/structkit/pkg/codec"
)

// HeaderSize is the fixed length of an encoded Header.
const HeaderSize = 18

var (
	// ErrShortHeader is returned when data cannot hold a header.
	ErrShortHeader = errors.New("envelope: data too short for header")
	// ErrTruncated is returned when data is shorter than the sizes its
	// header declares.
	ErrTruncated = errors.New("envelope: data too short for declared sizes")
	// ErrChecksum is returned by Validate when the CRC32 does not match.
	ErrChecksum = errors.New("envelope: CRC32 mismatch")
)

// Header is the fixed part of an envelope.
// Format: [CRC32(4)][SchemaLen(2)][PayloadLen(4)][Timestamp(8)], little endian.
type Header struct {
	CRC32      uint32 // CRC32 over everything after this field
	SchemaLen  uint16 // Length of the schema name in bytes
	PayloadLen uint32 // Length of the payload in bytes
	Timestamp  uint64 // Unix timestamp in nanoseconds
}

func (Header) StructLayout() codec.Layout {
	le := codec.Order(codec.LittleEndian)
	return codec.Struct[Header](
		codec.Bind("crc32", func(h *Header) *uint32 { return &h.CRC32 }, codec.Size(4), le),
		codec.Bind("schema_len", func(h *Header) *uint16 { return &h.SchemaLen }, codec.Size(2), le),
		codec.Bind("payload_len", func(h *Header) *uint32 { return &h.PayloadLen }, codec.Size(4), le),
		codec.Bind("timestamp", func(h *Header) *uint64 { return &h.Timestamp }, codec.Size(8), le),
	)
}

// Envelope wraps an encoded record with the name of the schema that
// produced it and an integrity checksum.
type Envelope struct {
	Header
	Schema  string // Schema name
	Payload []byte // Encoded record
}

// New creates an envelope stamped with the current time. The CRC32 is left
// zero until the envelope is encoded.
func New(schema string, payload []byte) (*Envelope, error) {
	return newAt(schema, payload, time.Now())
}

func newAt(schema string, payload []byte, at time.Time) (*Envelope, error) {
	if len(schema) > math.MaxUint16 {
		return nil, fmt.Errorf("schema name too long: %d bytes", len(schema))
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}
	return &Envelope{
		Header: Header{
			SchemaLen:  uint16(len(schema)),
			PayloadLen: uint32(len(payload)),
			Timestamp:  uint64(at.UnixNano()),
		},
		Schema:  schema,
		Payload: payload,
	}, nil
}

// Size returns the total size of the envelope when encoded.
func (e *Envelope) Size() int {
	return HeaderSize + len(e.Schema) + len(e.Payload)
}

// Time returns the envelope timestamp in UTC.
func (e *Envelope) Time() time.Time {
	return time.Unix(0, int64(e.Timestamp)).UTC()
}

// Validate checks the declared sizes and the CRC32.
func (e *Envelope) Validate() error {
	if int(e.SchemaLen) != len(e.Schema) || int(e.PayloadLen) != len(e.Payload) {
		return fmt.Errorf("envelope: size mismatch: header %d/%d, data %d/%d",
			e.SchemaLen, e.PayloadLen, len(e.Schema), len(e.Payload))
	}
	sum, err := e.checksum()
	if err != nil {
		return err
	}
	if e.CRC32 != sum {
		return fmt.Errorf("%w: %d != %d", ErrChecksum, e.CRC32, sum)
	}
	return nil
}

// checksum computes the CRC32 over the header fields after the CRC, the
// schema name and the payload.
func (e *Envelope) checksum() (uint32, error) {
	hdr, err := codec.Marshal(codec.Default(), &e.Header)
	if err != nil {
		return 0, fmt.Errorf("failed to encode header: %w", err)
	}
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write([]byte(e.Schema))
	crc.Write(e.Payload)
	return crc.Sum32(), nil
}

// Codec seals and opens envelopes.
type Codec struct {
	now func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the time source used to stamp new envelopes.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a new envelope codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode wraps payload in an envelope for schema and serializes it.
func (c *Codec) Encode(schema string, payload []byte) ([]byte, error) {
	e, err := newAt(schema, payload, c.now())
	if err != nil {
		return nil, err
	}
	if e.CRC32, err = e.checksum(); err != nil {
		return nil, err
	}
	hdr, err := codec.Marshal(codec.Default(), &e.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	buf := make([]byte, 0, e.Size())
	buf = append(buf, hdr...)
	buf = append(buf, e.Schema...)
	buf = append(buf, e.Payload...)
	return buf, nil
}

// Decode parses an envelope without validating its checksum. The payload
// aliases data.
func (c *Codec) Decode(data []byte) (*Envelope, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	h, err := codec.Unmarshal[Header](codec.Default(), data, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	schemaEnd := HeaderSize + int(h.SchemaLen)
	end := schemaEnd + int(h.PayloadLen)
	if len(data) < end {
		return nil, fmt.Errorf("%w: %d < %d", ErrTruncated, len(data), end)
	}
	return &Envelope{
		Header:  *h,
		Schema:  string(data[HeaderSize:schemaEnd]),
		Payload: data[schemaEnd:end],
	}, nil
}

// Open decodes data and validates the result.
func (c *Codec) Open(data []byte) (*Envelope, error) {
	e, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

var defaultCodec = NewCodec()

// Seal encodes payload for schema with the default codec.
func Seal(schema string, payload []byte) ([]byte, error) {
	return defaultCodec.Encode(schema, payload)
}

// Open decodes and validates data with the default codec.
func Open(data []byte) (*Envelope, error) {
	return defaultCodec.Open(data)
}
