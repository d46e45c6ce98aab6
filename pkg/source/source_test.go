package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/schema"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestForPath_UnsupportedExtension(t *testing.T) {
	_, err := ForPath("dataset.xml")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedFormat))
}

func TestRegistry_List(t *testing.T) {
	formats := List()
	assert.Contains(t, formats, "csv")
	assert.Contains(t, formats, "jsonl")
	assert.Contains(t, formats, "parquet")
}

func TestCSVReader_LoadTable(t *testing.T) {
	path := writeTempFile(t, "people.csv", "id,score,active,name\n"+
		"1,0.5,true,alice\n"+
		"2,1.5,false,bob\n"+
		"3,,true,carol\n")

	reader, err := ForPath(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", reader.Format())

	table, err := reader.LoadTable(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, table.NumRows())

	// Header order drives schema order.
	assert.Equal(t, []string{"id", "score", "active", "name"}, table.Schema().Names())

	typ, ok := table.Schema().Lookup("id")
	require.True(t, ok)
	assert.Equal(t, schema.TypeInt64, typ)

	typ, _ = table.Schema().Lookup("score")
	assert.Equal(t, schema.TypeFloat32, typ)

	typ, _ = table.Schema().Lookup("active")
	assert.Equal(t, schema.TypeBool, typ)

	row := table.Row(0)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, float32(0.5), row["score"])
	assert.Equal(t, true, row["active"])
	assert.Equal(t, "alice", row["name"])

	// Empty CSV cells are nulls, not empty strings.
	assert.Nil(t, table.Row(2)["score"])
}

func TestJSONLReader_LoadTable(t *testing.T) {
	path := writeTempFile(t, "events.jsonl", `{"id": 1, "name": "alice"}
{"id": 2, "name": "bob", "score": 2.5}
{"id": 3, "name": "carol"}
`)

	reader, err := ForPath(path)
	require.NoError(t, err)
	assert.Equal(t, "jsonl", reader.Format())

	table, err := reader.LoadTable(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, table.NumRows())

	// Columns appear in first-seen order; rows before a column's first
	// appearance hold nulls.
	assert.Equal(t, []string{"id", "name", "score"}, table.Schema().Names())
	assert.Nil(t, table.Row(0)["score"])
	assert.Equal(t, float32(2.5), table.Row(1)["score"])

	// Whole JSON numbers classify as integers.
	typ, ok := table.Schema().Lookup("id")
	require.True(t, ok)
	assert.Equal(t, schema.TypeInt64, typ)
}

func TestJSONLReader_InvalidLine(t *testing.T) {
	path := writeTempFile(t, "broken.jsonl", `{"id": 1}
{not json}
`)

	reader, err := ForPath(path)
	require.NoError(t, err)

	_, err = reader.LoadTable(context.Background())
	assert.Error(t, err)
}
