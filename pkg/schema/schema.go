// Package schema declares record layouts in YAML or TOML files and compiles
// them into codec descriptors for map-backed records.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/structkit/pkg/codec"
)

// Format is the encoding of a schema file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("schema: unknown file format")

// Schema is one record layout as written in a schema file.
type Schema struct {
	Name      string  `yaml:"name" toml:"name" json:"name"`
	Size      int     `yaml:"size,omitempty" toml:"size,omitempty" json:"size,omitempty"`
	ByteOrder string  `yaml:"byte_order,omitempty" toml:"byte_order,omitempty" json:"byte_order,omitempty"`
	Charset   string  `yaml:"charset,omitempty" toml:"charset,omitempty" json:"charset,omitempty"`
	Fields    []Field `yaml:"fields" toml:"fields" json:"fields"`
}

// Field is one field of a schema. Offset and Signed are pointers so that
// an absent key keeps its default.
type Field struct {
	Name      string `yaml:"name" toml:"name" json:"name"`
	Type      string `yaml:"type" toml:"type" json:"type"`
	Size      int    `yaml:"size,omitempty" toml:"size,omitempty" json:"size,omitempty"`
	Length    int    `yaml:"length,omitempty" toml:"length,omitempty" json:"length,omitempty"`
	Offset    *int   `yaml:"offset,omitempty" toml:"offset,omitempty" json:"offset,omitempty"`
	Order     string `yaml:"order,omitempty" toml:"order,omitempty" json:"order,omitempty"`
	Signed    *bool  `yaml:"signed,omitempty" toml:"signed,omitempty" json:"signed,omitempty"`
	Charset   string `yaml:"charset,omitempty" toml:"charset,omitempty" json:"charset,omitempty"`
	Converter string `yaml:"converter,omitempty" toml:"converter,omitempty" json:"converter,omitempty"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Parse decodes and validates a schema.
func Parse(data []byte, format Format) (*Schema, error) {
	var s Schema
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to parse yaml schema: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse toml schema: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse toml schema: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a schema file.
func LoadFile(path string) (*Schema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadDir parses every schema file in dir. Files that fail are reported
// together; the schemas that parsed are returned either way.
func LoadDir(dir string) ([]*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var (
		schemas []*Schema
		result  *multierror.Error
		seen    = make(map[string]string)
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := FormatFromPath(path); err != nil {
			continue
		}
		s, err := LoadFile(path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if prev, dup := seen[s.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("%s: schema %q already declared in %s", path, s.Name, prev))
			continue
		}
		seen[s.Name] = path
		schemas = append(schemas, s)
	}

	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas, result.ErrorOrNil()
}

// Validate reports every problem in the schema at once. Layout problems
// that need the converter registry surface later, from Compile.
func (s *Schema) Validate() error {
	var result *multierror.Error

	if s.Name == "" {
		result = multierror.Append(result, errors.New("schema name is required"))
	}
	if len(s.Fields) == 0 {
		result = multierror.Append(result, errors.New("schema declares no fields"))
	}
	if _, err := codec.ParseByteOrder(s.ByteOrder); err != nil {
		result = multierror.Append(result, err)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		label := f.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			result = multierror.Append(result, fmt.Errorf("field %s: name is required", label))
		} else if _, dup := seen[f.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("field %s: duplicate name", label))
		}
		seen[f.Name] = struct{}{}

		t, err := ParseType(f.Type)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("field %s: %w", label, err))
		} else if t.IsArray() && f.Length <= 0 {
			result = multierror.Append(result, fmt.Errorf("field %s: array type %s needs a positive length", label, f.Type))
		} else if !t.IsArray() && t.Go.Kind() != reflect.String && f.Length > 0 {
			result = multierror.Append(result, fmt.Errorf("field %s: type %s does not take a length", label, f.Type))
		}
		if f.Size < 0 {
			result = multierror.Append(result, fmt.Errorf("field %s: size must not be negative", label))
		}
		if f.Length < 0 {
			result = multierror.Append(result, fmt.Errorf("field %s: length must not be negative", label))
		}
		if f.Offset != nil && *f.Offset < codec.Sequential {
			result = multierror.Append(result, fmt.Errorf("field %s: offset must be -1 or non-negative", label))
		}
		if _, err := codec.ParseByteOrder(f.Order); err != nil {
			result = multierror.Append(result, fmt.Errorf("field %s: %w", label, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid schema %q: %w", s.Name, err)
	}
	return nil
}

// Marshal renders the schema in the given format.
func (s *Schema) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
