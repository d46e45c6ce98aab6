// Package shardstream converts tabular data into sharded, compressed
// streaming datasets and reads them back through shuffled batch iteration
// and random access.
//
// A dataset is a directory of immutable columnar shard files plus an
// index.json manifest recording the sample count, column schema, and shard
// order. See pkg/dataset for the read and write paths, pkg/source for the
// supported input formats, and cmd/shardstream for the CLI.
package shardstream
