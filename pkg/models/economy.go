package models

import "time"

// Observation is one FRED data point. Value is NaN where FRED reports the
// "." missing marker.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// SeriesInfo is the FRED series metadata needed to pick a resampling rule.
type SeriesInfo struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Frequency        string    `json:"frequency"`       // e.g. "Daily", "Monthly"
	FrequencyShort   string    `json:"frequency_short"` // e.g. "D", "M", "Q"
	Units            string    `json:"units,omitempty"`
	ObservationStart time.Time `json:"observation_start,omitempty"`
	ObservationEnd   time.Time `json:"observation_end,omitempty"`
}
