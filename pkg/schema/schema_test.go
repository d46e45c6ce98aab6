package schema

import (
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnType_WireTag(t *testing.T) {
	tests := []struct {
		typ  ColumnType
		want string
	}{
		{TypeInt64, "int"},
		{TypeFloat32, "float"},
		{TypeBool, "bool"},
		{TypeString, "str"},
		{TypeTimestamp, "str"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.WireTag())
	}
}

func TestParseWireTag(t *testing.T) {
	t.Run("known tags", func(t *testing.T) {
		for tag, want := range map[string]ColumnType{
			"int":   TypeInt64,
			"float": TypeFloat32,
			"bool":  TypeBool,
			"str":   TypeString,
		} {
			got, err := ParseWireTag(tag)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := ParseWireTag("decimal")
		assert.Error(t, err)
	})
}

func TestSchema_JSONRoundTrip(t *testing.T) {
	sch := New(
		Column{Name: "id", Type: TypeInt64},
		Column{Name: "score", Type: TypeFloat32},
		Column{Name: "active", Type: TypeBool},
		Column{Name: "name", Type: TypeString},
	)

	data, err := gojson.Marshal(sch)
	require.NoError(t, err)

	// The wire form is an ordered object of name -> tag.
	assert.JSONEq(t, `{"id":"int","score":"float","active":"bool","name":"str"}`, string(data))

	var back Schema
	require.NoError(t, gojson.Unmarshal(data, &back))

	assert.Equal(t, sch.Names(), back.Names())
	assert.True(t, sch.Equal(&back))
}

func TestSchema_UnmarshalPreservesOrder(t *testing.T) {
	var sch Schema
	require.NoError(t, gojson.Unmarshal([]byte(`{"z":"int","a":"str","m":"float"}`), &sch))
	assert.Equal(t, []string{"z", "a", "m"}, sch.Names())
}

func TestSchema_SameColumns(t *testing.T) {
	sch := New(
		Column{Name: "a", Type: TypeInt64},
		Column{Name: "b", Type: TypeString},
	)

	assert.True(t, sch.SameColumns([]string{"a", "b"}))
	assert.True(t, sch.SameColumns([]string{"b", "a"}))
	assert.False(t, sch.SameColumns([]string{"a"}))
	assert.False(t, sch.SameColumns([]string{"a", "c"}))
}

func TestClassifyValue(t *testing.T) {
	assert.Equal(t, TypeInt64, ClassifyValue(int64(7)))
	assert.Equal(t, TypeInt64, ClassifyValue(3))
	assert.Equal(t, TypeFloat32, ClassifyValue(float64(1.5)))
	assert.Equal(t, TypeBool, ClassifyValue(true))
	assert.Equal(t, TypeTimestamp, ClassifyValue(time.Now()))
	assert.Equal(t, TypeString, ClassifyValue("hello"))
}

func TestInferColumn(t *testing.T) {
	t.Run("uniform ints", func(t *testing.T) {
		assert.Equal(t, TypeInt64, InferColumn([]interface{}{int64(1), int64(2), nil}))
	})

	t.Run("int and float mix promotes to float", func(t *testing.T) {
		assert.Equal(t, TypeFloat32, InferColumn([]interface{}{int64(1), 2.5, int64(3)}))
	})

	t.Run("incompatible mix falls back to string", func(t *testing.T) {
		assert.Equal(t, TypeString, InferColumn([]interface{}{int64(1), "two", true}))
	})

	t.Run("all nil falls back to string", func(t *testing.T) {
		assert.Equal(t, TypeString, InferColumn([]interface{}{nil, nil}))
	})
}

func TestInfer(t *testing.T) {
	names := []string{"id", "note"}
	columns := map[string][]interface{}{
		"id":   {int64(1), int64(2)},
		"note": {"x", nil},
	}

	sch := Infer(names, columns)
	require.Equal(t, 2, sch.Len())
	assert.Equal(t, []string{"id", "note"}, sch.Names())

	typ, ok := sch.Lookup("id")
	require.True(t, ok)
	assert.Equal(t, TypeInt64, typ)
}
