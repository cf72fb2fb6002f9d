package export

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/econlab/regdata/pkg/utils"
)

// Parquet writes t with a schema derived from the first row: float
// columns become OPTIONAL DOUBLE, int columns INT64 and everything else a
// UTF8 string. Column names are lower-cased. Rows are staged as JSON, so
// NaN and ±Inf are written as null.
func Parquet(path string, t Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	schema, kinds, err := parquetSchema(t)
	if err != nil {
		return err
	}

	fh, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fh.Close()

	pw, err := writer.NewJSONWriter(schema, fh, 4)
	if err != nil {
		return fmt.Errorf("parquet writer %s: %w", path, err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_GZIP

	names := columnNames(t.Header)
	for i, row := range t.Rows {
		rec := make(map[string]any, len(names))
		for c, name := range names {
			var v any
			if c < len(row) {
				v = row[c]
			}
			rec[name] = parquetValue(v, kinds[c])
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if err := pw.Write(string(line)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return fh.Close()
}

type columnKind int

const (
	kindString columnKind = iota
	kindDouble
	kindInt
)

type schemaField struct {
	Tag string `json:"Tag"`
}

type schemaRoot struct {
	Tag    string        `json:"Tag"`
	Fields []schemaField `json:"Fields"`
}

func parquetSchema(t Table) (string, []columnKind, error) {
	if len(t.Header) == 0 {
		return "", nil, fmt.Errorf("parquet: table %q has no columns", t.Name)
	}
	kinds := make([]columnKind, len(t.Header))
	if len(t.Rows) > 0 {
		for c := range t.Header {
			if c >= len(t.Rows[0]) {
				continue
			}
			switch t.Rows[0][c].(type) {
			case float64:
				kinds[c] = kindDouble
			case int, int64:
				kinds[c] = kindInt
			}
		}
	}

	root := schemaRoot{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for c, name := range columnNames(t.Header) {
		var tag string
		switch kinds[c] {
		case kindDouble:
			tag = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name)
		case kindInt:
			tag = fmt.Sprintf("name=%s, type=INT64, convertedtype=INT_64, repetitiontype=OPTIONAL", name)
		default:
			tag = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL", name)
		}
		root.Fields = append(root.Fields, schemaField{Tag: tag})
	}
	b, err := json.Marshal(root)
	if err != nil {
		return "", nil, err
	}
	return string(b), kinds, nil
}

// columnNames lower-cases headers for use as Parquet field names.
func columnNames(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "_"))
	}
	return out
}

func parquetValue(v any, kind columnKind) any {
	switch kind {
	case kindDouble:
		x, ok := v.(float64)
		if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case kindInt:
		switch x := v.(type) {
		case int:
			return int64(x)
		case int64:
			return x
		}
		return nil
	default:
		switch x := v.(type) {
		case nil:
			return nil
		case time.Time:
			return utils.FormatDate(x)
		default:
			return FormatCell(x)
		}
	}
}
