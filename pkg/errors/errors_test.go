package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndIsType(t *testing.T) {
	err := Newf(ErrorTypeIndexOutOfRange, "index %d out of range", 42)

	assert.True(t, IsType(err, ErrorTypeIndexOutOfRange))
	assert.False(t, IsType(err, ErrorTypeDecode))
	assert.Contains(t, err.Error(), "index 42 out of range")
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		cause := stderrors.New("disk on fire")
		err := Wrap(cause, ErrorTypeFile, "failed to read shard")

		assert.True(t, IsType(err, ErrorTypeFile))
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "failed to read shard")
	})

	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeFile, "ignored"))
	})

	t.Run("type survives another wrap", func(t *testing.T) {
		inner := New(ErrorTypeCorruptIndex, "bad manifest")
		outer := fmt.Errorf("opening dataset: %w", inner)

		assert.True(t, IsType(outer, ErrorTypeCorruptIndex))
	})
}

func TestWrapf(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrapf(cause, ErrorTypeDecode, "shard %s unreadable", "shard.00003.parquet.zstd")

	assert.True(t, IsType(err, ErrorTypeDecode))
	assert.Contains(t, err.Error(), "shard.00003.parquet.zstd")
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeSchemaMismatch, "column set differs").
		WithDetail("expected", "id,score").
		WithDetail("actual", "id,label")

	require.NotNil(t, err.Details)
	assert.Equal(t, "id,score", err.Details["expected"])
	assert.Equal(t, "id,label", err.Details["actual"])
}
