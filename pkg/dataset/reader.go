package dataset

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/block"
	"github.com/abemdxb/shardstream/pkg/compression"
	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// ShardReader decodes individual shard files of a dataset directory. The
// codec and block format are resolved from the shard file name, so a mixed
// directory (for example after changing codecs between writes) still reads
// correctly shard by shard.
type ShardReader struct {
	dir    string
	expect *schema.Schema
	logger *zap.Logger
}

// NewShardReader returns a reader rooted at dir. Every shard it decodes is
// checked against expect before any rows are handed out, so a schema drift
// between shards surfaces as a SchemaMismatch rather than bad values.
func NewShardReader(dir string, expect *schema.Schema) *ShardReader {
	return &ShardReader{
		dir:    dir,
		expect: expect,
		logger: logger.Get(),
	}
}

// Read loads, decompresses and decodes one shard by file name. The
// decompressed buffer lives only for the duration of the decode; the
// returned table owns its own memory.
func (r *ShardReader) Read(name string) (*block.Table, error) {
	raw, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrorTypeCorruptIndex, "manifest references missing shard %s", name)
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeFile, "failed to read shard %s", name)
	}

	codec, err := compression.ForFilename(name)
	if err != nil {
		return nil, err
	}
	decoded, err := codec.Decompress(raw)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeDecode, "failed to decompress shard %s", name)
	}

	format, err := block.FormatForFilename(name)
	if err != nil {
		return nil, err
	}
	decoder, err := block.NewDecoder(format)
	if err != nil {
		return nil, err
	}

	table, err := decoder.Decode(decoded, r.expect)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("shard decoded",
		zap.String("dataset", r.dir),
		zap.String("shard", name),
		zap.Int("rows", table.NumRows()),
		zap.String("codec", string(codec.Algorithm())))

	return table, nil
}
