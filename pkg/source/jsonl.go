package source

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/block"
	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
)

func init() {
	// Register line-delimited JSON source factory
	_ = Register("jsonl", NewJSONLReader, ".jsonl", ".ndjson", ".json")
}

// maxLineSize bounds a single JSONL record (1MB).
const maxLineSize = 1024 * 1024

// JSONLReader reads line-delimited JSON (JSONL/NDJSON) files.
type JSONLReader struct {
	path string
}

// NewJSONLReader creates a JSONL source reader for the given file.
func NewJSONLReader(path string) (Reader, error) {
	return &JSONLReader{path: path}, nil
}

// Format returns the format tag.
func (r *JSONLReader) Format() string {
	return "jsonl"
}

// LoadTable decodes one JSON object per line. The column order is the key
// order of the first record; later records may omit keys (stored as nil)
// but unknown keys are appended to the column set as they appear.
func (r *JSONLReader) LoadTable(ctx context.Context) (*block.Table, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open JSONL file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var names []string
	seen := make(map[string]bool)
	columns := make(map[string][]interface{})
	rows := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		row := make(map[string]interface{})
		if err := gojson.Unmarshal(line, &row); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to parse JSONL record")
		}

		// Track newly seen columns, back-filling earlier rows with nil.
		keys, err := orderedKeys(line)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
				columns[key] = make([]interface{}, rows)
			}
		}

		for _, name := range names {
			columns[name] = append(columns[name], normalizeJSONValue(row[name]))
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to scan JSONL file")
	}

	logger.Get().Debug("JSONL source loaded",
		zap.String("file", r.path),
		zap.Int("rows", rows),
		zap.Int("columns", len(names)))

	return buildTable(names, columns, rows)
}

// orderedKeys extracts the key order of one JSON object; plain map decoding
// loses it.
func orderedKeys(line []byte) ([]string, error) {
	dec := gojson.NewDecoder(bytes.NewReader(line))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecode, "JSONL record is not an object")
	}
	if d, ok := tok.(gojson.Delim); !ok || d != '{' {
		return nil, errors.New(errors.ErrorTypeDecode, "JSONL record is not an object")
	}

	var keys []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeDecode, "malformed JSONL record")
		}
		if d, ok := tok.(gojson.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys, nil
				}
				depth--
			}
			continue
		}
		if depth == 0 {
			if key, ok := tok.(string); ok {
				keys = append(keys, key)
				// Skip the value so the next top-level token is a key.
				var discard interface{}
				if err := dec.Decode(&discard); err != nil {
					return nil, errors.Wrap(err, errors.ErrorTypeDecode, "malformed JSONL record")
				}
			}
		}
	}
}

// normalizeJSONValue narrows decoded JSON values: whole float64s become
// int64 and RFC3339 strings become timestamps, matching CSV cell parsing.
func normalizeJSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t
		}
		return val
	default:
		return v
	}
}
