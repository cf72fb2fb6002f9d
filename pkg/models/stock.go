// Package models defines the data structures shared by the fetchers and the
// dataset builders.
package models

import (
	"math"
	"time"
)

// OHLCV represents a single daily bar. Missing prices and volumes are NaN.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	AdjClose  float64   `json:"adj_close"`
	Volume    float64   `json:"volume"`
}

// Profile holds the company attributes used as categorical controls.
type Profile struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name,omitempty"`
	Sector            string  `json:"sector,omitempty"`
	Industry          string  `json:"industry,omitempty"`
	SharesOutstanding float64 `json:"shares_outstanding"` // NaN when not reported
}

// Closes returns the non-missing closes of bars, in order.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if !math.IsNaN(b.Close) {
			out = append(out, b.Close)
		}
	}
	return out
}

// Volumes returns the non-missing volumes of bars, in order.
func Volumes(bars []OHLCV) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if !math.IsNaN(b.Volume) {
			out = append(out, b.Volume)
		}
	}
	return out
}
