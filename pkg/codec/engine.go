package codec

import (
	"fmt"
	"reflect"
)

// Encode writes obj into a new buffer of exactly d.Size() bytes. obj must be
// a non-nil pointer of d.OwnerType(). Bytes no field covers stay zero.
func (d *StructDescriptor) Encode(obj any) ([]byte, error) {
	if err := d.checkOwner(obj); err != nil {
		return nil, err
	}
	out := make([]byte, d.size)
	cursor := 0
	for _, f := range d.fields {
		at := cursor
		if off, ok := f.ExplicitOffset(); ok {
			at = off
		}
		size := f.Size()
		cursor += size

		v := f.get(obj)
		if v == nil {
			continue
		}
		b, err := f.converter.Encode(obj, f, v)
		if err != nil {
			return nil, fmt.Errorf("codec: encode %s: %w", d.name, err)
		}
		if len(b) != size {
			return nil, fmt.Errorf("codec: encode %s: converter %s wrote %d bytes for field %s, want %d",
				d.name, f.converter.Name(), len(b), f.name, size)
		}
		copy(out[at:at+size], b)
	}
	return out, nil
}

// Decode builds a blank record with the instantiator and fills it from buf
// starting at start. Fields that do not fit in buf are left as the
// instantiator made them, as is everything after the first such field; a
// short buffer is not an error.
func (d *StructDescriptor) Decode(buf []byte, start int) (any, error) {
	obj := d.newObject()
	if err := d.decodeInto(obj, buf, start); err != nil {
		return nil, err
	}
	return obj, nil
}

// DecodeInto fills an existing record, following the same rules as Decode.
func (d *StructDescriptor) DecodeInto(obj any, buf []byte, start int) error {
	if err := d.checkOwner(obj); err != nil {
		return err
	}
	return d.decodeInto(obj, buf, start)
}

func (d *StructDescriptor) decodeInto(obj any, buf []byte, start int) error {
	if start < 0 || start > len(buf) {
		Logger().Debug().
			Str("type", d.name).
			Int("start", start).
			Int("len", len(buf)).
			Msg("decode start outside buffer")
		return nil
	}
	cursor := start
	for _, f := range d.fields {
		at := cursor
		if off, ok := f.ExplicitOffset(); ok {
			at = start + off
		}
		size := f.Size()
		if at+size > len(buf) {
			Logger().Debug().
				Str("type", d.name).
				Str("field", f.name).
				Int("offset", at).
				Int("size", size).
				Int("len", len(buf)).
				Msg("buffer exhausted, stopping decode")
			return nil
		}
		cursor += size

		v, err := f.converter.Decode(obj, f, buf, at)
		if err != nil {
			return fmt.Errorf("codec: decode %s: %w", d.name, err)
		}
		if v != nil {
			f.set(obj, v)
		}
	}
	return nil
}

func (d *StructDescriptor) checkOwner(obj any) error {
	if obj == nil {
		return fmt.Errorf("%w: got nil, want %v", ErrOwnerMismatch, d.owner)
	}
	if t := reflect.TypeOf(obj); t != d.owner {
		return fmt.Errorf("%w: got %v, want %v", ErrOwnerMismatch, t, d.owner)
	}
	if d.owner.Kind() == reflect.Pointer && reflect.ValueOf(obj).IsNil() {
		return fmt.Errorf("%w: nil %v", ErrOwnerMismatch, d.owner)
	}
	return nil
}

// Marshal encodes v with the descriptor r resolves for T. A nil r uses
// Default().
func Marshal[T any](r *Resolver, v *T) ([]byte, error) {
	if r == nil {
		r = Default()
	}
	d, err := Resolve[T](r)
	if err != nil {
		return nil, err
	}
	return d.Encode(v)
}

// Unmarshal decodes a T from buf starting at start. A nil r uses Default().
func Unmarshal[T any](r *Resolver, buf []byte, start int) (*T, error) {
	if r == nil {
		r = Default()
	}
	d, err := Resolve[T](r)
	if err != nil {
		return nil, err
	}
	obj, err := d.Decode(buf, start)
	if err != nil {
		return nil, err
	}
	return obj.(*T), nil
}
