// Package block provides the self-describing columnar block that backs
// shard files, and the in-memory Table the rest of the system works with.
// A block holds one typed array per schema column; Parquet is the default
// container and Arrow IPC is available as an alternative.
package block

import (
	"fmt"
	"time"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// Table is an in-memory columnar table conforming to a schema. Values are
// stored post-coercion: int64, float32, bool, or string per the column type.
type Table struct {
	sch  *schema.Schema
	cols map[string][]interface{}
	rows int
}

// NewTable creates an empty table for the given schema.
func NewTable(sch *schema.Schema) *Table {
	cols := make(map[string][]interface{}, sch.Len())
	for _, c := range sch.Columns() {
		cols[c.Name] = nil
	}
	return &Table{sch: sch, cols: cols}
}

// Schema returns the table's schema.
func (t *Table) Schema() *schema.Schema {
	return t.sch
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// Column returns the values of the named column in row order.
func (t *Table) Column(name string) []interface{} {
	return t.cols[name]
}

// AppendRow coerces a sample to the schema's column types and appends it.
// Missing columns are stored as nil.
func (t *Table) AppendRow(sample map[string]interface{}) error {
	for _, c := range t.sch.Columns() {
		v, err := Coerce(sample[c.Name], c.Type)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal,
				fmt.Sprintf("column %q row %d", c.Name, t.rows))
		}
		t.cols[c.Name] = append(t.cols[c.Name], v)
	}
	t.rows++
	return nil
}

// AppendColumns appends pre-coerced column slices of equal length. It is
// used by block decoders, which produce whole columns at once.
func (t *Table) AppendColumns(cols map[string][]interface{}, rows int) {
	for _, c := range t.sch.Columns() {
		t.cols[c.Name] = append(t.cols[c.Name], cols[c.Name]...)
	}
	t.rows += rows
}

// Row returns the sample at row i.
func (t *Table) Row(i int) map[string]interface{} {
	sample := make(map[string]interface{}, t.sch.Len())
	for _, c := range t.sch.Columns() {
		sample[c.Name] = t.cols[c.Name][i]
	}
	return sample
}

// Slice returns a copy of rows [lo, hi).
func (t *Table) Slice(lo, hi int) *Table {
	out := NewTable(t.sch)
	for _, c := range t.sch.Columns() {
		out.cols[c.Name] = append(out.cols[c.Name], t.cols[c.Name][lo:hi]...)
	}
	out.rows = hi - lo
	return out
}

// Take returns a new table holding the given rows in the given order.
// Indices may repeat and need not be sorted.
func (t *Table) Take(indices []int) *Table {
	out := NewTable(t.sch)
	for _, c := range t.sch.Columns() {
		src := t.cols[c.Name]
		dst := make([]interface{}, len(indices))
		for i, idx := range indices {
			dst[i] = src[idx]
		}
		out.cols[c.Name] = dst
	}
	out.rows = len(indices)
	return out
}

// AppendTable appends all rows of other, which must share the schema.
func (t *Table) AppendTable(other *Table) error {
	if !t.sch.Equal(other.sch) {
		return errors.New(errors.ErrorTypeSchemaMismatch, "cannot concatenate tables with different schemas")
	}
	t.AppendColumns(other.cols, other.rows)
	return nil
}

// Columns returns a copy of all columns keyed by name, in the batch shape
// consumers receive.
func (t *Table) Columns() map[string][]interface{} {
	out := make(map[string][]interface{}, t.sch.Len())
	for _, c := range t.sch.Columns() {
		col := make([]interface{}, t.rows)
		copy(col, t.cols[c.Name])
		out[c.Name] = col
	}
	return out
}

// Coerce converts a raw value to the storage representation of a column
// type: int64, float32, bool, or string. Booleans reach storage as 0/1
// integers only inside block encoders; in a Table they stay booleans.
// Timestamps become ISO-8601 strings. Nil passes through.
func Coerce(value interface{}, typ schema.ColumnType) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch typ {
	case schema.TypeInt64:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int8:
			return int64(v), nil
		case int16:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case uint:
			return int64(v), nil
		case uint8:
			return int64(v), nil
		case uint16:
			return int64(v), nil
		case uint32:
			return int64(v), nil
		case uint64:
			return int64(v), nil
		case float64:
			return int64(v), nil
		default:
			return nil, fmt.Errorf("cannot store %T as int64", value)
		}

	case schema.TypeFloat32:
		switch v := value.(type) {
		case float32:
			return v, nil
		case float64:
			return float32(v), nil
		case int:
			return float32(v), nil
		case int64:
			return float32(v), nil
		default:
			return nil, fmt.Errorf("cannot store %T as float32", value)
		}

	case schema.TypeBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int:
			return v != 0, nil
		case int64:
			return v != 0, nil
		default:
			return nil, fmt.Errorf("cannot store %T as bool", value)
		}

	case schema.TypeTimestamp:
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Format(time.RFC3339Nano), nil
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("cannot store %T as timestamp", value)
		}

	case schema.TypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case time.Time:
			return v.UTC().Format(time.RFC3339Nano), nil
		default:
			return fmt.Sprintf("%v", value), nil
		}

	default:
		return nil, fmt.Errorf("unknown column type %q", typ)
	}
}
