package schema

import (
	"time"
)

// ClassifyValue maps a single in-memory value to a ColumnType. It is total:
// anything that is not clearly numeric, boolean, or temporal classifies as
// a string, so no column is ever dropped during inference.
func ClassifyValue(value interface{}) ColumnType {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt64
	case float32, float64:
		return TypeFloat32
	case bool:
		return TypeBool
	case time.Time:
		return TypeTimestamp
	default:
		return TypeString
	}
}

// InferColumn classifies a column from its sampled values. The dominant
// classification wins; mixed columns fall back to string. Nil values carry
// no type information and are skipped.
func InferColumn(values []interface{}) ColumnType {
	counts := make(map[ColumnType]int, 4)
	total := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		counts[ClassifyValue(v)]++
		total++
	}
	if total == 0 {
		return TypeString
	}

	var dominant ColumnType
	maxCount := 0
	for typ, count := range counts {
		if count > maxCount {
			maxCount = count
			dominant = typ
		}
	}

	if maxCount == total {
		return dominant
	}

	// Mixed integer and float values promote to float; any other mix must
	// fall back to a string column to carry every value.
	if counts[TypeInt64]+counts[TypeFloat32] == total {
		return TypeFloat32
	}
	return TypeString
}

// Infer derives a schema from named columns of sampled values, preserving
// the given column order.
func Infer(names []string, columns map[string][]interface{}) *Schema {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, Column{
			Name: name,
			Type: InferColumn(columns[name]),
		})
	}
	return New(cols...)
}
