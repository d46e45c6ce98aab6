package block

import (
	"bytes"
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// parquetEncoder implements Encoder for Parquet blocks.
//
// Shard-level compression is a whole-block codec applied outside the block,
// so parquet's internal page compression stays off to avoid paying twice.
type parquetEncoder struct{}

func (pe *parquetEncoder) Encode(t *Table) ([]byte, error) {
	pool := memory.NewGoAllocator()
	arrowSchema := toArrowSchema(t.sch)

	var buf bytes.Buffer

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Uncompressed),
		parquet.WithAllocator(pool),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(pool),
	)

	fw, err := pqarrow.NewFileWriter(arrowSchema, &buf, props, arrowProps)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create parquet writer")
	}

	record, err := buildRecord(t, arrowSchema, pool)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	if err := fw.WriteBuffered(record); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record batch")
	}

	if err := fw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to close parquet writer")
	}

	return buf.Bytes(), nil
}

func (pe *parquetEncoder) Format() Format {
	return Parquet
}

// parquetDecoder implements Decoder for Parquet blocks.
type parquetDecoder struct{}

func (pd *parquetDecoder) Decode(data []byte, expect *schema.Schema) (*Table, error) {
	fr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to open parquet block")
	}
	defer fr.Close()

	pool := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, pool)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to create arrow reader")
	}

	arrowSchema, err := arrowReader.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to read parquet schema")
	}

	sch, err := resolveSchema(arrowSchema, expect)
	if err != nil {
		return nil, err
	}

	table := NewTable(sch)

	rr, err := arrowReader.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to read parquet row groups")
	}
	defer rr.Release()

	for rr.Next() {
		record := rr.Record()
		if err := appendRecord(table, record, sch); err != nil {
			return nil, err
		}
	}
	if err := rr.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "parquet record read failed")
	}

	return table, nil
}

func (pd *parquetDecoder) Format() Format {
	return Parquet
}

// resolveSchema checks a block's columns against the expected dataset
// schema, or derives a schema from the block when none is expected. The
// check is eager: a shard never reaches callers with the wrong column set.
func resolveSchema(as *arrow.Schema, expect *schema.Schema) (*schema.Schema, error) {
	if expect == nil {
		return fromArrowSchema(as), nil
	}

	names := make([]string, as.NumFields())
	for i := 0; i < as.NumFields(); i++ {
		names[i] = as.Field(i).Name
	}
	if !expect.SameColumns(names) {
		return nil, errors.New(errors.ErrorTypeSchemaMismatch,
			"shard columns disagree with manifest schema").
			WithDetail("shard_columns", names).
			WithDetail("schema_columns", expect.Names())
	}
	return expect, nil
}

// appendRecord converts one arrow record into table columns, reconstructing
// schema types from their physical storage.
func appendRecord(t *Table, record arrow.Record, sch *schema.Schema) error {
	rows := int(record.NumRows())
	cols := make(map[string][]interface{}, sch.Len())

	recSchema := record.Schema()
	for _, c := range sch.Columns() {
		indices := recSchema.FieldIndices(c.Name)
		if len(indices) == 0 {
			return errors.Newf(errors.ErrorTypeSchemaMismatch, "column %q missing from block", c.Name)
		}
		values, err := columnValues(record.Column(indices[0]), c.Type)
		if err != nil {
			return err
		}
		cols[c.Name] = values
	}

	t.AppendColumns(cols, rows)
	return nil
}
