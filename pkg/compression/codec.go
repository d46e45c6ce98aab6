// Package compression provides whole-block compression codecs for shard
// files. A codec compresses a serialized columnar block before it is
// persisted and decompresses it on read; the codec is recorded as a filename
// suffix so readers can resolve it without any out-of-band state.
//
// Zstd is the production codec. LZ4 and Snappy are available for workloads
// that favor decompression speed over ratio; None disables compression.
package compression

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/abemdxb/shardstream/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// LZ4 represents lz4 compression
	LZ4 Algorithm = "lz4"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio. Only zstd honors levels.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 3
	// Best maximizes compression ratio.
	Best Level = 9
)

// Codec compresses and decompresses whole columnar blocks.
// All implementations are safe for concurrent use.
type Codec interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Ext returns the filename suffix for this codec, including the leading
	// dot, or "" for no compression.
	Ext() string
}

// Config represents codec configuration.
type Config struct {
	Algorithm Algorithm
	Level     Level
}

// DefaultConfig returns the codec configuration used for new datasets:
// zstd at its default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Zstd,
		Level:     Default,
	}
}

// NewCodec creates a codec for the given configuration.
// If config is nil, the default configuration is used.
func NewCodec(config *Config) (Codec, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Algorithm {
	case None:
		return &noneCodec{}, nil
	case Zstd:
		return newZstdCodec(config)
	case LZ4:
		return newLZ4Codec(config)
	case Snappy:
		return newSnappyCodec(config)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

// ForFilename resolves the codec implied by a shard filename suffix.
// A filename without a recognized codec suffix resolves to None.
func ForFilename(name string) (Codec, error) {
	switch {
	case strings.HasSuffix(name, ".zstd"):
		return NewCodec(&Config{Algorithm: Zstd, Level: Default})
	case strings.HasSuffix(name, ".lz4"):
		return NewCodec(&Config{Algorithm: LZ4})
	case strings.HasSuffix(name, ".snappy"):
		return NewCodec(&Config{Algorithm: Snappy})
	default:
		return NewCodec(&Config{Algorithm: None})
	}
}

// None codec (no compression)
type noneCodec struct{}

func (nc *noneCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (nc *noneCodec) Algorithm() Algorithm {
	return None
}

func (nc *noneCodec) Ext() string {
	return ""
}

// Zstd codec
type zstdCodec struct {
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCodec(config *Config) (*zstdCodec, error) {
	level := mapZstdLevel(config.Level)

	zc := &zstdCodec{}

	zc.encoderPool.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		return enc
	}

	zc.decoderPool.New = func() interface{} {
		dec, _ := zstd.NewReader(nil)
		return dec
	}

	return zc, nil
}

func (zc *zstdCodec) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "zstd decompression failed")
	}
	return out, nil
}

func (zc *zstdCodec) Algorithm() Algorithm {
	return Zstd
}

func (zc *zstdCodec) Ext() string {
	return ".zstd"
}

// LZ4 codec
type lz4Codec struct {
	compressionLevel lz4.CompressionLevel
}

func newLZ4Codec(config *Config) (*lz4Codec, error) {
	return &lz4Codec{compressionLevel: mapLZ4Level(config.Level)}, nil
}

func (lc *lz4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)

	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, err
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (lc *lz4Codec) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "lz4 decompression failed")
	}

	return buf.Bytes(), nil
}

func (lc *lz4Codec) Algorithm() Algorithm {
	return LZ4
}

func (lc *lz4Codec) Ext() string {
	return ".lz4"
}

// Snappy codec
type snappyCodec struct{}

func newSnappyCodec(config *Config) (*snappyCodec, error) {
	return &snappyCodec{}, nil
}

func (sc *snappyCodec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (sc *snappyCodec) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "snappy decompression failed")
	}
	return out, nil
}

func (sc *snappyCodec) Algorithm() Algorithm {
	return Snappy
}

func (sc *snappyCodec) Ext() string {
	return ".snappy"
}

// Helper functions to map compression levels

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}
