// Package universe loads, scrapes and saves ticker lists for the batch
// firm extractor.
package universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocarina/gocsv"

	"github.com/econlab/regdata/internal/infra"
	"github.com/econlab/regdata/pkg/utils"
)

// SP500URL is the Wikipedia page listing the S&P 500 constituents.
const SP500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// tickerRecord is one row of a ticker file.
type tickerRecord struct {
	Symbol string `csv:"Symbol"`
}

// LoadTickersCSV reads the first column of a CSV with a header row,
// whatever that header is named. Values are trimmed, empty cells dropped
// and duplicates removed keeping the first occurrence.
func LoadTickersCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tickers: %w", err)
	}
	defer f.Close()
	return ReadTickers(f)
}

// ReadTickers is LoadTickersCSV over a reader.
func ReadTickers(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []tickerRecord
	if err := gocsv.UnmarshalCSV(&firstColumnAsSymbol{r: cr}, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tickers: %w", err)
	}

	var out []string
	seen := make(map[string]bool)
	for _, rec := range records {
		sym := strings.TrimSpace(rec.Symbol)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}

// firstColumnAsSymbol renames the first header cell to "Symbol" so any
// ticker file decodes by position.
type firstColumnAsSymbol struct {
	r    *csv.Reader
	seen bool
}

func (f *firstColumnAsSymbol) Read() ([]string, error) {
	rec, err := f.r.Read()
	if err != nil {
		return nil, err
	}
	if !f.seen {
		f.seen = true
		if len(rec) > 0 {
			rec[0] = "Symbol"
		}
	}
	return rec, nil
}

func (f *firstColumnAsSymbol) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := f.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// WriteTickersCSV writes a "Symbol" header and one symbol per row.
func WriteTickersCSV(path string, symbols []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records := make([]tickerRecord, len(symbols))
	for i, s := range symbols {
		records[i] = tickerRecord{Symbol: s}
	}
	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("write tickers: %w", err)
	}
	return f.Close()
}

// Scraper fetches index constituents from Wikipedia.
type Scraper struct {
	url    string
	client *infra.Client
}

// NewScraper creates a Scraper. An empty url uses SP500URL; a nil client
// gets a default one.
func NewScraper(url string, client *infra.Client) *Scraper {
	if url == "" {
		url = SP500URL
	}
	if client == nil {
		client = infra.NewClient(30*time.Second, "")
	}
	return &Scraper{url: url, client: client}
}

// SP500 returns the symbols in the #constituents table, in Yahoo form
// ("BRK.B" -> "BRK-B"), in page order.
func (s *Scraper) SP500(ctx context.Context) ([]string, error) {
	body, err := s.client.Get(ctx, s.url, nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse constituents HTML: %w", err)
	}

	table := doc.Find("table#constituents")
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	var out []string
	seen := make(map[string]bool)
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return // header row
		}
		sym := utils.ToYahooSymbol(cell.Text())
		if sym == "" || seen[sym] {
			return
		}
		seen[sym] = true
		out = append(out, sym)
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("constituents table has no rows")
	}
	return out, nil
}
