package codec

import (
	"fmt"
	"reflect"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset is used for text fields that do not name one.
const DefaultCharset = "utf-8"

// StringConverter handles fixed-width text. A string field spans
// ElementSize * max(ArrayLength, 1) bytes; each element of a []string field
// spans ElementSize bytes. Encoded text is truncated on a character
// boundary and NUL padded; trailing NUL code units are stripped on decode.
type StringConverter struct{}

func (StringConverter) Name() string { return "string" }

func (StringConverter) Supports(_ reflect.Type, _ *FieldDescriptor, c Category) bool {
	return c == String
}

func (StringConverter) Encode(_ any, f *FieldDescriptor, v any) ([]byte, error) {
	switch s := v.(type) {
	case string:
		return encodeText(f, s, f.Size())
	case []string:
		out := make([]byte, f.Size())
		n := min(len(s), f.arrayLen)
		for i := 0; i < n; i++ {
			b, err := encodeText(f, s[i], f.elemSize)
			if err != nil {
				return nil, err
			}
			copy(element(out, f, i), b)
		}
		return out, nil
	}
	return nil, valueTypeError(f, v)
}

func (StringConverter) Decode(_ any, f *FieldDescriptor, buf []byte, off int) (any, error) {
	b := buf[off : off+f.Size()]
	if f.goType == typeString {
		return decodeText(f, b)
	}
	out := make([]string, f.arrayLen)
	for i := range out {
		s, err := decodeText(f, element(b, f, i))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func encodeText(f *FieldDescriptor, s string, width int) ([]byte, error) {
	if isUTF8(f.enc) {
		raw := []byte(s)
		if len(raw) > width {
			// keep truncated UTF-8 on a rune boundary
			n := width
			for n > 0 && !utf8.RuneStart(raw[n]) {
				n--
			}
			raw = raw[:n]
		}
		return fitWidth(raw, width), nil
	}

	raw, err := transcode(f, s)
	if err != nil {
		return nil, err
	}
	// drop whole characters until the encoded text fits
	for len(raw) > width {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
		if raw, err = transcode(f, s); err != nil {
			return nil, err
		}
	}
	return fitWidth(raw, width), nil
}

func transcode(f *FieldDescriptor, s string) ([]byte, error) {
	out, err := f.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("field %s: encode %s text: %w", f.name, f.charset, err)
	}
	return out, nil
}

func decodeText(f *FieldDescriptor, b []byte) (string, error) {
	b = trimPadding(b, codeUnit(f.charset))
	if isUTF8(f.enc) {
		return string(b), nil
	}
	out, err := f.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("field %s: decode %s text: %w", f.name, f.charset, err)
	}
	return string(out), nil
}

// codeUnit is the width in bytes of the smallest unit of a charset.
func codeUnit(charset string) int {
	switch charset {
	case "utf-16le", "utf-16be":
		return 2
	}
	return 1
}

// trimPadding strips trailing NUL code units. A zero byte that is part of a
// wider unit holding a real character is kept.
func trimPadding(b []byte, unit int) []byte {
	if rest := len(b) % unit; rest > 0 && allZero(b[len(b)-rest:]) {
		b = b[:len(b)-rest]
	}
	for len(b) >= unit && allZero(b[len(b)-unit:]) {
		b = b[:len(b)-unit]
	}
	return b
}

func isUTF8(enc encoding.Encoding) bool {
	return enc == nil || enc == unicode.UTF8
}

// lookupCharset resolves a charset label to its encoding and canonical name.
func lookupCharset(label string) (encoding.Encoding, string, error) {
	if label == "" {
		label = DefaultCharset
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", err
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", err
	}
	return enc, name, nil
}

// CanonicalCharset returns the canonical name of a charset label, or an
// error when the label is unknown.
func CanonicalCharset(label string) (string, error) {
	_, name, err := lookupCharset(label)
	return name, err
}
