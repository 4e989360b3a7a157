package codec

import (
	"encoding/hex"
	"fmt"
	"reflect"
)

// HexConverter stores a string field holding hex digits as the raw bytes
// those digits spell, for identifiers such as device serials. It is never
// picked automatically; declare it with WithConverter("hex").
type HexConverter struct{}

func (HexConverter) Name() string { return "hex" }

func (HexConverter) Supports(t reflect.Type, f *FieldDescriptor, _ Category) bool {
	return t == typeString && f.convName == "hex"
}

func (HexConverter) Encode(_ any, f *FieldDescriptor, v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, valueTypeError(f, v)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.name, err)
	}
	return fitWidth(raw, f.Size()), nil
}

func (HexConverter) Decode(_ any, f *FieldDescriptor, buf []byte, off int) (any, error) {
	return hex.EncodeToString(buf[off : off+f.Size()]), nil
}
