package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/config"
	"github.com/abemdxb/shardstream/pkg/dataset"
	"github.com/abemdxb/shardstream/pkg/logger"
	"github.com/abemdxb/shardstream/pkg/objectstore"
	"github.com/abemdxb/shardstream/pkg/source"
)

var version = "0.1.0"

func main() {
	// Load .env if present for MINIO_* credentials
	_ = godotenv.Load()

	var logLevel string

	root := &cobra.Command{
		Use:   "shardstream",
		Short: "Shardstream - streaming dataset toolkit",
		Long: `Shardstream converts tabular sources into sharded, compressed streaming
datasets and serves them back through batch iteration and random access.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			encoding := "console"

			// A dataset config file's observability section governs logging
			// unless --log-level is passed explicitly.
			if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
				cfg := config.NewDatasetConfig()
				if err := config.Load(f.Value.String(), cfg); err != nil {
					return err
				}
				if cfg.Observability.LogLevel != "" && !cmd.Flags().Changed("log-level") {
					level = cfg.Observability.LogLevel
				}
				if cfg.Observability.LogEncoding != "" {
					encoding = cfg.Observability.LogEncoding
				}
			}

			return logger.Init(logger.Config{Level: level, Encoding: encoding})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Shardstream v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List supported source formats",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available source formats:")
			for _, format := range source.List() {
				fmt.Printf("  - %s\n", format)
			}
		},
	})

	root.AddCommand(newConvertCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newIterateCmd())
	root.AddCommand(newPushCmd())
	root.AddCommand(newPullCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConvertCmd() *cobra.Command {
	var configFile string
	var chunkSize, level int
	var blockFormat, codec string

	cmd := &cobra.Command{
		Use:   "convert <source-file> <dataset-dir>",
		Short: "Convert a tabular source into a sharded dataset",
		Long: `Convert loads a CSV, JSONL, Parquet, or Arrow file, infers its schema,
and publishes it as a directory of compressed shards plus an index.

Example:
  shardstream convert events.jsonl ./events-ds --chunk-size 1000 --codec zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewDatasetConfig()
			if configFile != "" {
				if err := config.Load(configFile, cfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("chunk-size") {
				cfg.Layout.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("block-format") {
				cfg.Layout.BlockFormat = blockFormat
			}
			if cmd.Flags().Changed("codec") {
				cfg.Layout.Codec = codec
			}
			if cmd.Flags().Changed("compression-level") {
				cfg.Layout.CompressionLevel = level
			}

			start := time.Now()
			manifest, err := dataset.Convert(context.Background(), args[0], args[1], cfg)
			if err != nil {
				return err
			}

			logger.Get().Info("conversion complete",
				zap.String("dataset", args[1]),
				zap.Duration("elapsed", time.Since(start)))

			fmt.Printf("Published %d samples across %d shards to %s\n",
				manifest.Samples, len(manifest.Shards), args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to dataset configuration YAML file")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "Samples per shard")
	cmd.Flags().StringVar(&blockFormat, "block-format", "parquet", "Columnar block format (parquet, arrow)")
	cmd.Flags().StringVar(&codec, "codec", "zstd", "Shard compression (none, zstd, lz4, snappy)")
	cmd.Flags().IntVar(&level, "compression-level", 3, "Compression level (1 fastest, 9 best)")

	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dataset-dir>",
		Short: "Show a dataset's manifest and schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.Open(args[0])
			if err != nil {
				return err
			}

			manifest := d.Manifest()
			schemaJSON, err := gojson.Marshal(manifest.Columns)
			if err != nil {
				return err
			}

			fmt.Printf("Samples: %d\n", manifest.Samples)
			fmt.Printf("Shards:  %d\n", len(manifest.Shards))
			fmt.Printf("Schema:  %s\n", schemaJSON)
			for _, shard := range manifest.Shards {
				fmt.Printf("  %s\n", shard)
			}
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	var idx int64

	cmd := &cobra.Command{
		Use:   "get <dataset-dir>",
		Short: "Fetch a single sample by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.Open(args[0])
			if err != nil {
				return err
			}

			sample, err := d.Get(context.Background(), idx)
			if err != nil {
				return err
			}

			out, err := gojson.MarshalIndent(sample, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Int64Var(&idx, "index", 0, "Sample index")
	return cmd
}

func newIterateCmd() *cobra.Command {
	var batchSize, limit int
	var shuffle bool
	var seed int64

	cmd := &cobra.Command{
		Use:   "iterate <dataset-dir>",
		Short: "Stream batches from a dataset",
		Long: `Iterate walks the dataset in batches and prints each batch as JSON.
With --shuffle the order is driven by --seed; a zero seed draws a fresh
one so repeated runs differ.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.Open(args[0])
			if err != nil {
				return err
			}

			it := d.NewIterator(config.IterationConfig{
				BatchSize: batchSize,
				Shuffle:   shuffle,
				Seed:      seed,
			})

			ctx := context.Background()
			for n := 0; it.HasNext() && (limit == 0 || n < limit); n++ {
				batch, err := it.Next(ctx)
				if err != nil {
					return err
				}
				out, err := gojson.Marshal(batch)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 32, "Samples per batch")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Shuffle the iteration order")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed (0 draws a fresh one)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many batches (0 = all)")
	return cmd
}

func storeFlags(cmd *cobra.Command, cfg *objectstore.MinioConfig) {
	cmd.Flags().StringVar(&cfg.Endpoint, "endpoint", "", "MinIO endpoint (default MINIO_ENDPOINT or localhost:9000)")
	cmd.Flags().StringVar(&cfg.Bucket, "bucket", "datasets", "Object storage bucket")
	cmd.Flags().StringVar(&cfg.Prefix, "prefix", "", "Key prefix inside the bucket")
	cmd.Flags().BoolVar(&cfg.Secure, "secure", false, "Use HTTPS (default MINIO_SECURE)")
}

func newPushCmd() *cobra.Command {
	var cfg objectstore.MinioConfig

	cmd := &cobra.Command{
		Use:   "push <dataset-dir> <remote-prefix>",
		Short: "Upload a dataset to object storage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := objectstore.NewMinioStore(ctx, cfg)
			if err != nil {
				return err
			}
			return objectstore.SyncUp(ctx, store, args[0], args[1])
		},
	}

	storeFlags(cmd, &cfg)
	return cmd
}

func newPullCmd() *cobra.Command {
	var cfg objectstore.MinioConfig

	cmd := &cobra.Command{
		Use:   "pull <remote-prefix> <dataset-dir>",
		Short: "Download a dataset from object storage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := objectstore.NewMinioStore(ctx, cfg)
			if err != nil {
				return err
			}
			return objectstore.SyncDown(ctx, store, args[0], args[1])
		},
	}

	storeFlags(cmd, &cfg)
	return cmd
}
