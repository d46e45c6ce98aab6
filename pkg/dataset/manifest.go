// Package dataset implements the sharded on-disk dataset: conversion of a
// source table into immutable compressed shard files plus a manifest, and
// consumption through batch iteration and random access. A published
// directory is immutable and safe for any number of concurrent readers.
package dataset

import (
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// IndexFileName is the directory-local index artifact.
const IndexFileName = "index.json"

// Manifest is the single authoritative record of a dataset directory:
// total sample count, column schema, and ordered shard list. It is written
// exactly once, after every shard has been persisted, and read-only after.
type Manifest struct {
	Samples uint64         `json:"samples"`
	Columns *schema.Schema `json:"columns"`
	Shards  []string       `json:"shards"`
}

// manifestWire mirrors Manifest with pointer fields so a missing required
// field is distinguishable from a zero value.
type manifestWire struct {
	Samples *uint64        `json:"samples"`
	Columns *schema.Schema `json:"columns"`
	Shards  *[]string      `json:"shards"`
}

// BuildManifest assembles a manifest from a completed shard write.
func BuildManifest(samples uint64, columns *schema.Schema, shards []string) *Manifest {
	return &Manifest{
		Samples: samples,
		Columns: columns,
		Shards:  shards,
	}
}

// Publish writes the manifest as the directory's index artifact. The write
// goes through a temp file and a rename so a crash can never leave a
// half-written index: the directory either has a valid manifest or none.
func (m *Manifest) Publish(dir string) error {
	data, err := gojson.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal manifest")
	}

	tmp, err := os.CreateTemp(dir, IndexFileName+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create manifest temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write manifest")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close manifest temp file")
	}

	if err := os.Rename(tmpName, filepath.Join(dir, IndexFileName)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to publish manifest")
	}

	logger.Get().Info("manifest published",
		zap.String("dataset", dir),
		zap.Uint64("samples", m.Samples),
		zap.Int("shards", len(m.Shards)))

	return nil
}

// LoadManifest reads and validates the index artifact of a dataset
// directory. A directory without an index is not a dataset.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrorTypeMissingIndex, "no %s in %s", IndexFileName, dir)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read manifest")
	}

	var wire manifestWire
	if err := gojson.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCorruptIndex, "manifest is not valid JSON")
	}

	if wire.Samples == nil {
		return nil, errors.New(errors.ErrorTypeCorruptIndex, "manifest missing samples field")
	}
	if wire.Columns == nil {
		return nil, errors.New(errors.ErrorTypeCorruptIndex, "manifest missing columns field")
	}
	if wire.Shards == nil {
		return nil, errors.New(errors.ErrorTypeCorruptIndex, "manifest missing shards field")
	}
	if *wire.Samples > 0 && len(*wire.Shards) == 0 {
		return nil, errors.New(errors.ErrorTypeCorruptIndex, "manifest declares samples but lists no shards")
	}

	return &Manifest{
		Samples: *wire.Samples,
		Columns: wire.Columns,
		Shards:  *wire.Shards,
	}, nil
}
