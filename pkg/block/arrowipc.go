package block

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/schema"
)

// arrowEncoder implements Encoder for Arrow IPC file blocks.
type arrowEncoder struct{}

func (ae *arrowEncoder) Encode(t *Table) ([]byte, error) {
	pool := memory.NewGoAllocator()
	arrowSchema := toArrowSchema(t.sch)

	var buf bytes.Buffer

	fw, err := ipc.NewFileWriter(&buf, ipc.WithSchema(arrowSchema), ipc.WithAllocator(pool))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create arrow writer")
	}

	record, err := buildRecord(t, arrowSchema, pool)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	if err := fw.Write(record); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to write record batch")
	}

	if err := fw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to close arrow writer")
	}

	return buf.Bytes(), nil
}

func (ae *arrowEncoder) Format() Format {
	return Arrow
}

// arrowDecoder implements Decoder for Arrow IPC file blocks.
type arrowDecoder struct{}

func (ad *arrowDecoder) Decode(data []byte, expect *schema.Schema) (*Table, error) {
	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to open arrow block")
	}
	defer fr.Close()

	sch, err := resolveSchema(fr.Schema(), expect)
	if err != nil {
		return nil, err
	}

	table := NewTable(sch)

	for i := 0; i < fr.NumRecords(); i++ {
		record, err := fr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeDecode, "arrow record read failed")
		}
		if err := appendRecord(table, record, sch); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func (ad *arrowDecoder) Format() Format {
	return Arrow
}
