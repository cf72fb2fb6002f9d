// Package export writes result tables as flat files. CSV is always
// written; XLSX and Parquet are optional extras.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/econlab/regdata/pkg/utils"
)

// Supported output formats.
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

// Table is a named header plus rows. Cells may be string, float64,
// int, int64 or time.Time. A float NaN is a missing value.
//
// Records, when set, is a slice of csv-tagged structs whose columns match
// Header. CSV marshals it instead of Rows.
type Table struct {
	Name    string
	Header  []string
	Rows    [][]any
	Records any
}

// Float is a float64 CSV cell: NaN is an empty cell.
type Float float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (f Float) MarshalCSV() (string, error) { return FormatCell(float64(f)), nil }

// FormatCell renders one cell for text output: NaN and nil become "",
// infinities are "inf" and "-inf", other floats use the shortest
// round-trip form, dates are YYYY-MM-DD.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		switch {
		case math.IsNaN(x):
			return ""
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return utils.FormatDate(x)
	default:
		return fmt.Sprint(x)
	}
}

// CSV writes t to path, creating parent directories.
func CSV(path string, t Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if t.Records != nil {
		if err := gocsv.MarshalFile(t.Records, f); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return f.Close()
	}

	// Header-driven tables have no fixed struct, so rows go through
	// encoding/csv directly.
	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = FormatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// WriteAll writes t as dir/base.csv plus one file per extra format
// requested. It returns the paths written.
func WriteAll(dir, base string, formats []string, t Table) ([]string, error) {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	csvPath := filepath.Join(dir, stem+".csv")
	if err := CSV(csvPath, t); err != nil {
		return nil, err
	}
	written := []string{csvPath}

	for _, format := range formats {
		switch strings.ToLower(format) {
		case FormatCSV:
			// always written
		case FormatXLSX:
			p := filepath.Join(dir, stem+".xlsx")
			if err := XLSX(p, t); err != nil {
				return written, err
			}
			written = append(written, p)
		case FormatParquet:
			p := filepath.Join(dir, stem+".parquet")
			if err := Parquet(p, t); err != nil {
				return written, err
			}
			written = append(written, p)
		default:
			return written, fmt.Errorf("unknown output format %q", format)
		}
	}
	return written, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
