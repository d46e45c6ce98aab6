package block

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// Format represents a columnar block container format.
type Format string

const (
	// Parquet is Apache Parquet, the default block container
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
)

// Ext returns the filename extension for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case Arrow:
		return ".arrow"
	default:
		return ".parquet"
	}
}

// Encoder serializes a Table into one self-describing block.
type Encoder interface {
	// Encode serializes the whole table as a single block.
	Encode(t *Table) ([]byte, error)
	// Format returns the block format.
	Format() Format
}

// Decoder parses a block back into a Table.
type Decoder interface {
	// Decode parses a block. When expect is non-nil, the block's column set
	// must match it exactly and values are reconstructed using its types;
	// when nil, the schema is derived from the block itself.
	Decode(data []byte, expect *schema.Schema) (*Table, error)
	// Format returns the block format.
	Format() Format
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case Parquet:
		return Parquet, nil
	case Arrow:
		return Arrow, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported block format: %s", name)
	}
}

// NewEncoder creates an encoder for the given block format.
func NewEncoder(f Format) (Encoder, error) {
	switch f {
	case Parquet:
		return &parquetEncoder{}, nil
	case Arrow:
		return &arrowEncoder{}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported block format: %s", f)
	}
}

// NewDecoder creates a decoder for the given block format.
func NewDecoder(f Format) (Decoder, error) {
	switch f {
	case Parquet:
		return &parquetDecoder{}, nil
	case Arrow:
		return &arrowDecoder{}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported block format: %s", f)
	}
}

// FormatForFilename resolves the block format from a shard filename,
// ignoring any trailing codec suffix.
func FormatForFilename(name string) (Format, error) {
	switch {
	case strings.Contains(name, ".parquet"):
		return Parquet, nil
	case strings.Contains(name, ".arrow"):
		return Arrow, nil
	default:
		return "", errors.Newf(errors.ErrorTypeDecode, "no block extension in filename %q", name)
	}
}

// toArrowSchema maps a dataset schema to the arrow schema of its persisted
// blocks. Booleans are persisted as 0/1 int64 and timestamps as strings, so
// both map to those physical types here.
func toArrowSchema(sch *schema.Schema) *arrow.Schema {
	fields := make([]arrow.Field, 0, sch.Len())
	for _, c := range sch.Columns() {
		var typ arrow.DataType
		switch c.Type {
		case schema.TypeInt64, schema.TypeBool:
			typ = arrow.PrimitiveTypes.Int64
		case schema.TypeFloat32:
			typ = arrow.PrimitiveTypes.Float32
		default:
			typ = arrow.BinaryTypes.String
		}
		fields = append(fields, arrow.Field{Name: c.Name, Type: typ, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// fromArrowSchema derives a dataset schema from a block written by an
// external tool, where no manifest schema is available yet.
func fromArrowSchema(as *arrow.Schema) *schema.Schema {
	cols := make([]schema.Column, 0, as.NumFields())
	for i := 0; i < as.NumFields(); i++ {
		f := as.Field(i)
		var typ schema.ColumnType
		switch f.Type.ID() {
		case arrow.BOOL:
			typ = schema.TypeBool
		case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
			arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
			typ = schema.TypeInt64
		case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
			typ = schema.TypeFloat32
		case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
			typ = schema.TypeTimestamp
		default:
			typ = schema.TypeString
		}
		cols = append(cols, schema.Column{Name: f.Name, Type: typ})
	}
	return schema.New(cols...)
}

// buildRecord assembles one arrow record holding the whole table. Boolean
// columns are widened to 0/1 integers on the way in.
func buildRecord(t *Table, as *arrow.Schema, pool memory.Allocator) (arrow.Record, error) {
	rb := array.NewRecordBuilder(pool, as)
	defer rb.Release()

	for i, c := range t.sch.Columns() {
		builder := rb.Field(i)
		for _, v := range t.cols[c.Name] {
			if err := appendValue(builder, v, c.Type); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal,
					"failed to append value for field "+c.Name)
			}
		}
	}

	return rb.NewRecord(), nil
}

func appendValue(builder array.Builder, value interface{}, typ schema.ColumnType) error {
	if value == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			b.Append(v)
		case bool:
			if v {
				b.Append(1)
			} else {
				b.Append(0)
			}
		default:
			b.AppendNull()
		}

	case *array.Float32Builder:
		if v, ok := value.(float32); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}

	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}

	default:
		return errors.Newf(errors.ErrorTypeInternal, "unsupported builder type %T", builder)
	}

	return nil
}

// columnValues extracts one decoded arrow column as storage values for the
// given column type. Boolean columns are reconstructed from their 0/1
// integer persistence by consulting the schema type.
func columnValues(col arrow.Array, typ schema.ColumnType) ([]interface{}, error) {
	n := col.Len()
	out := make([]interface{}, n)

	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			continue
		}
		raw, err := arrowValue(col, i)
		if err != nil {
			return nil, err
		}
		v, err := Coerce(raw, typ)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeDecode, "stored value does not fit schema type")
		}
		out[i] = v
	}

	return out, nil
}

func arrowValue(col arrow.Array, i int) (interface{}, error) {
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i), nil
	case *array.Int32:
		return int64(c.Value(i)), nil
	case *array.Int64:
		return c.Value(i), nil
	case *array.Float32:
		return c.Value(i), nil
	case *array.Float64:
		return c.Value(i), nil
	case *array.String:
		return c.Value(i), nil
	case *array.Timestamp:
		return c.Value(i).ToTime(arrow.Nanosecond), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeDecode, "unsupported column type %T", col)
	}
}
