package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abemdxb/shardstream/pkg/errors"
)

func TestCodec_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("shardstream compresses repeated payloads well. "), 200)

	for _, alg := range []Algorithm{None, Zstd, LZ4, Snappy} {
		t.Run(string(alg), func(t *testing.T) {
			codec, err := NewCodec(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			if alg != None {
				assert.Less(t, len(compressed), len(payload))
			}

			back, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, back)
		})
	}
}

func TestCodec_Levels(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh12345678"), 4096)

	for _, level := range []Level{Fastest, Default, Best} {
		codec, err := NewCodec(&Config{Algorithm: Zstd, Level: level})
		require.NoError(t, err)

		compressed, err := codec.Compress(payload)
		require.NoError(t, err)

		back, err := codec.Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, payload, back)
	}
}

func TestNewCodec_UnknownAlgorithm(t *testing.T) {
	_, err := NewCodec(&Config{Algorithm: "brotli"})
	assert.Error(t, err)
}

func TestCodec_CorruptInput(t *testing.T) {
	for _, alg := range []Algorithm{Zstd, LZ4, Snappy} {
		t.Run(string(alg), func(t *testing.T) {
			codec, err := NewCodec(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)

			_, err = codec.Decompress([]byte("definitely not a compressed frame"))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeDecode))
		})
	}
}

func TestForFilename(t *testing.T) {
	tests := []struct {
		name string
		want Algorithm
	}{
		{"shard.00000.parquet.zstd", Zstd},
		{"shard.00001.parquet.lz4", LZ4},
		{"shard.00002.arrow.snappy", Snappy},
		{"shard.00003.parquet", None},
	}

	for _, tt := range tests {
		codec, err := ForFilename(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, codec.Algorithm())
	}
}
