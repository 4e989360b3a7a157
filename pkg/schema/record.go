package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Record is a map-backed record of one schema. Values always hold the Go
// type the schema declares for the field.
type Record struct {
	schema *Compiled
	values map[string]any
}

func newRecord(c *Compiled) *Record {
	r := &Record{schema: c, values: make(map[string]any, len(c.fields))}
	for _, f := range c.fields {
		r.values[f.name] = f.typ.Zero(f.length)
	}
	return r
}

// Schema is the name of the schema the record belongs to.
func (r *Record) Schema() string { return r.schema.Name() }

// Get returns a field value.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set coerces v to the field type and stores it.
func (r *Record) Set(name string, v any) error {
	f, ok := r.schema.field(name)
	if !ok {
		return fmt.Errorf("schema %s has no field %q", r.Schema(), name)
	}
	coerced, err := Coerce(f.typ.Go, v)
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	r.values[name] = coerced
	return nil
}

// SetAll sets every entry of values, stopping at the first error.
func (r *Record) SetAll(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Values returns a copy of the field values keyed by field name.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// JSONValues returns the field values in their JSON shape.
func (r *Record) JSONValues() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = jsonValue(v)
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.JSONValues())
}
