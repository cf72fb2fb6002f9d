package universe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econlab/regdata/internal/infra"
)

func TestReadTickers(t *testing.T) {
	in := "Symbol,Name\nAAPL,Apple\n  MSFT ,Microsoft\n,Blank\nAAPL,Apple again\nBRK-B\n"
	got, err := ReadTickers(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK-B"}, got)
}

func TestReadTickersAnyFirstHeader(t *testing.T) {
	in := "Ticker,Name\nAAPL,Apple\nMSFT,Microsoft\n"
	got, err := ReadTickers(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)
}

func TestReadTickersHeaderOnly(t *testing.T) {
	got, err := ReadTickers(strings.NewReader("Symbol\n"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ReadTickers(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadTickersCSVMissingFile(t *testing.T) {
	_, err := LoadTickersCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteThenLoadTickers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "tickers.csv")
	require.NoError(t, WriteTickersCSV(path, []string{"AAPL", "BRK-B"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Symbol\nAAPL\nBRK-B\n", string(b))

	got, err := LoadTickersCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "BRK-B"}, got)
}

const constituentsHTML = `<html><body>
<table class="wikitable" id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th></tr>
<tr><td><a href="#">MMM</a></td><td>3M</td></tr>
<tr><td><a href="#">BRK.B</a>
</td><td>Berkshire Hathaway</td></tr>
<tr><td>BF.B</td><td>Brown-Forman</td></tr>
</tbody>
</table>
<table id="changes"><tbody><tr><td>XYZ</td></tr></tbody></table>
</body></html>`

func TestScraperSP500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(constituentsHTML))
	}))
	defer srv.Close()

	got, err := NewScraper(srv.URL, infra.NewClient(0, "")).SP500(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MMM", "BRK-B", "BF-B"}, got)
}

func TestScraperSP500MissingTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>moved</p></body></html>"))
	}))
	defer srv.Close()

	_, err := NewScraper(srv.URL, nil).SP500(context.Background())
	assert.ErrorContains(t, err, "constituents table not found")
}

func TestScraperSP500HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewScraper(srv.URL, nil).SP500(context.Background())
	var httpErr *infra.ErrHTTP
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}
