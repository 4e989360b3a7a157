package codec

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// TimeConverter stores time.Time fields as Unix time:
//
//	4 bytes: seconds
//	6 bytes: seconds (4) followed by milliseconds within the second (2)
//	8 bytes: milliseconds
//
// The zero time encodes as all zero bytes and all zero bytes decode to the
// zero time, so an instant that encodes as all zeros (the Unix epoch in the
// 4 and 8 byte forms) decodes as time.Time{}. Other values decode in UTC.
// The 4 and 6 byte forms hold unsigned seconds; times before 1970 or after
// 2106-02-07 06:28:15 UTC fail to encode.
type TimeConverter struct{}

func (TimeConverter) Name() string { return "time" }

func (TimeConverter) Supports(t reflect.Type, _ *FieldDescriptor, _ Category) bool {
	return t == typeTime
}

func (TimeConverter) Validate(f *FieldDescriptor) error {
	switch f.elemSize {
	case 4, 6, 8:
		return nil
	}
	return fmt.Errorf("time needs an element size of 4, 6 or 8, got %d", f.elemSize)
}

func (TimeConverter) Encode(_ any, f *FieldDescriptor, v any) ([]byte, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, valueTypeError(f, v)
	}
	out := make([]byte, f.elemSize)
	if t.IsZero() {
		return out, nil
	}
	if f.elemSize != 8 {
		if sec := t.Unix(); sec < 0 || sec > math.MaxUint32 {
			return nil, fmt.Errorf("field %s: time %s does not fit in %d byte Unix seconds",
				f.name, t.UTC().Format(time.RFC3339), f.elemSize)
		}
	}
	switch f.elemSize {
	case 4:
		putUint(out, f.order, uint64(t.Unix()))
	case 6:
		putUint(out[:4], f.order, uint64(t.Unix()))
		putUint(out[4:], f.order, uint64(t.Nanosecond()/int(time.Millisecond)))
	default:
		putUint(out, f.order, uint64(t.UnixMilli()))
	}
	return out, nil
}

func (TimeConverter) Decode(_ any, f *FieldDescriptor, buf []byte, off int) (any, error) {
	b := buf[off : off+f.elemSize]
	if allZero(b) {
		return time.Time{}, nil
	}
	switch f.elemSize {
	case 4:
		return time.Unix(int64(getUint(b, f.order)), 0).UTC(), nil
	case 6:
		sec := int64(getUint(b[:4], f.order))
		ms := int64(getUint(b[4:], f.order))
		return time.Unix(sec, ms*int64(time.Millisecond)).UTC(), nil
	default:
		return time.UnixMilli(int64(getUint(b, f.order))).UTC(), nil
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
