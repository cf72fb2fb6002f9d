package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Name:   "firms",
		Header: []string{"Ticker", "Period", "Leverage", "Sector"},
		Rows: [][]any{
			{"AAPL", time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), 0.32620965, "Technology"},
			{"MSFT", time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), math.NaN(), ""},
		},
	}
}

func TestFormatCell(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{math.NaN(), ""},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{0.1, "0.1"},
		{1e21, "1000000000000000000000"},
		{-2.5, "-2.5"},
		{42, "42"},
		{int64(7), "7"},
		{time.Date(1980, 1, 31, 0, 0, 0, 0, time.UTC), "1980-01-31"},
		{true, "true"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatCell(c.in))
	}
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, CSV(path, sampleTable()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Ticker,Period,Leverage,Sector\n" +
		"AAPL,2024-09-30,0.32620965,Technology\n" +
		"MSFT,2024-09-30,,\n"
	assert.Equal(t, want, string(b))
}

type sampleRecord struct {
	Ticker   string `csv:"Ticker"`
	Period   string `csv:"Period"`
	Leverage Float  `csv:"Leverage"`
	ROA      Float  `csv:"ROA"`
}

func TestCSVRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	period := "2024-09-30"
	require.NoError(t, CSV(path, Table{
		Header: []string{"Ticker", "Period", "Leverage", "ROA"},
		Records: []sampleRecord{
			{"AAPL", period, 0.25, Float(math.Inf(1))},
			{"MSFT", period, Float(math.NaN()), Float(math.Inf(-1))},
		},
	}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Ticker,Period,Leverage,ROA\n" +
		"AAPL,2024-09-30,0.25,inf\n" +
		"MSFT,2024-09-30,,-inf\n"
	assert.Equal(t, want, string(b))
}

func TestCSVShortRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, CSV(path, Table{Header: []string{"a", "b"}, Rows: [][]any{{"1"}}}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\n", string(b))
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	macro := Table{Name: "macro", Header: []string{"date", "unrate"}, Rows: [][]any{{"1980-01-31", 6.3}}}
	inf := Table{Name: "inf", Header: []string{"x"}, Rows: [][]any{{math.Inf(-1)}}}
	require.NoError(t, XLSX(path, sampleTable(), macro, inf))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"firms", "macro", "inf"}, f.GetSheetList())

	v, err := f.GetCellValue("firms", "A2")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", v)

	v, err = f.GetCellValue("firms", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-30", v)

	v, err = f.GetCellValue("firms", "C3")
	require.NoError(t, err)
	assert.Empty(t, v, "NaN should leave the cell empty")

	v, err = f.GetCellValue("inf", "A2")
	require.NoError(t, err)
	assert.Equal(t, "-inf", v)

	v, err = f.GetCellValue("macro", "B2")
	require.NoError(t, err)
	assert.Equal(t, "6.3", v)
}

func TestParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, Parquet(path, sampleTable()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(b), 8)
	assert.True(t, bytes.HasPrefix(b, []byte("PAR1")), "missing leading magic")
	assert.True(t, bytes.HasSuffix(b, []byte("PAR1")), "missing trailing magic")
}

func TestParquetSchema(t *testing.T) {
	schema, kinds, err := parquetSchema(Table{
		Header: []string{"Ticker", "Log Total Assets", "Count"},
		Rows:   [][]any{{"AAPL", 26.6, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, []columnKind{kindString, kindDouble, kindInt}, kinds)
	assert.Contains(t, schema, "name=log_total_assets, type=DOUBLE, repetitiontype=OPTIONAL")
	assert.Contains(t, schema, "name=ticker, type=BYTE_ARRAY")

	_, _, err = parquetSchema(Table{})
	assert.Error(t, err)
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir, "all_firm_variables.csv", []string{"csv", "xlsx", "parquet"}, sampleTable())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "all_firm_variables.csv"),
		filepath.Join(dir, "all_firm_variables.xlsx"),
		filepath.Join(dir, "all_firm_variables.parquet"),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	_, err = WriteAll(dir, "x", []string{"json"}, sampleTable())
	assert.Error(t, err)
}
