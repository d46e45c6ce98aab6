// Package schema defines the column-type model shared by the conversion
// pipeline and the reader side. A Schema is an ordered mapping from column
// name to ColumnType; its order defines the column order of every columnar
// block in a dataset.
package schema

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/abemdxb/shardstream/pkg/errors"
)

// ColumnType is the tagged variant of supported column types.
type ColumnType string

const (
	// TypeInt64 holds 64-bit signed integers
	TypeInt64 ColumnType = "int64"
	// TypeFloat32 holds 32-bit floats
	TypeFloat32 ColumnType = "float32"
	// TypeBool holds booleans, persisted as 0/1 integers
	TypeBool ColumnType = "bool"
	// TypeString holds UTF-8 strings
	TypeString ColumnType = "string"
	// TypeTimestamp holds timestamps persisted as ISO-8601 strings
	TypeTimestamp ColumnType = "timestamp"
)

// Wire tags used by the manifest columns field.
const (
	wireInt   = "int"
	wireFloat = "float"
	wireBool  = "bool"
	wireStr   = "str"
)

// WireTag returns the manifest encoding of the type. Timestamps are declared
// as strings on the wire since their persisted form is the ISO-8601 string.
func (t ColumnType) WireTag() string {
	switch t {
	case TypeInt64:
		return wireInt
	case TypeFloat32:
		return wireFloat
	case TypeBool:
		return wireBool
	default:
		return wireStr
	}
}

// ParseWireTag maps a manifest type tag back to a ColumnType.
func ParseWireTag(tag string) (ColumnType, error) {
	switch tag {
	case wireInt:
		return TypeInt64, nil
	case wireFloat:
		return TypeFloat32, nil
	case wireBool:
		return TypeBool, nil
	case wireStr:
		return TypeString, nil
	default:
		return "", errors.Newf(errors.ErrorTypeCorruptIndex, "unknown column type tag %q", tag)
	}
}

// Column is one named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered list of columns. The zero value is an empty schema.
type Schema struct {
	cols []Column
}

// New creates a schema from columns in the given order.
func New(cols ...Column) *Schema {
	return &Schema{cols: append([]Column(nil), cols...)}
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.cols)
}

// Columns returns the columns in schema order.
func (s *Schema) Columns() []Column {
	return s.cols
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the type of the named column.
func (s *Schema) Lookup(name string) (ColumnType, bool) {
	for _, c := range s.cols {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// Equal reports whether two schemas have the same columns, types, and order.
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, c := range s.cols {
		if other.cols[i] != c {
			return false
		}
	}
	return true
}

// SameColumns reports whether names covers exactly the schema's column set,
// ignoring order. It is the eager check a shard must pass before its contents
// are trusted.
func (s *Schema) SameColumns(names []string) bool {
	if len(names) != len(s.cols) {
		return false
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, c := range s.cols {
		if !seen[c.Name] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the schema as an ordered JSON object of name to wire
// tag. Column order is preserved, which a plain Go map cannot guarantee.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		tag, err := json.Marshal(c.Type.WireTag())
		if err != nil {
			return nil, err
		}
		buf.Write(tag)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an ordered JSON object of name to wire tag. The
// token stream is walked directly so column order survives the round trip.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCorruptIndex, "schema is not a JSON object")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New(errors.ErrorTypeCorruptIndex, "schema is not a JSON object")
	}

	cols := make([]Column, 0, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeCorruptIndex, "malformed schema object")
		}
		name, ok := keyTok.(string)
		if !ok {
			return errors.New(errors.ErrorTypeCorruptIndex, "schema key is not a string")
		}

		var tag string
		if err := dec.Decode(&tag); err != nil {
			return errors.Wrap(err, errors.ErrorTypeCorruptIndex, "schema value is not a string")
		}
		typ, err := ParseWireTag(tag)
		if err != nil {
			return err
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}

	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeCorruptIndex, "unterminated schema object")
	}

	s.cols = cols
	return nil
}
