package utils

import "strings"

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ToYahooSymbol converts a listing symbol to Yahoo Finance form. Class shares
// use a dash on Yahoo ("BRK.B" -> "BRK-B"); index symbols starting with "^"
// are left alone.
func ToYahooSymbol(symbol string) string {
	s := NormalizeTicker(symbol)
	if strings.HasPrefix(s, "^") {
		return s
	}
	return strings.ReplaceAll(s, ".", "-")
}

// SafeFileName replaces characters that are awkward in file names.
func SafeFileName(s string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "^", "_", " ", "_")
	return r.Replace(s)
}
