// Package timeseries holds the month-end resampling and the small
// date-indexed frame used to assemble the macro panel. Missing values are
// NaN throughout.
package timeseries

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/econlab/regdata/pkg/models"
	"github.com/econlab/regdata/pkg/utils"
)

// Point is one dated value.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is a named, date-sorted sequence of points.
type Series struct {
	Name   string
	Points []Point
}

// FromObservations builds a date-sorted series from FRED observations.
func FromObservations(name string, obs []models.Observation) Series {
	s := Series{Name: name, Points: make([]Point, len(obs))}
	for i, o := range obs {
		s.Points[i] = Point{Date: utils.Day(o.Date), Value: o.Value}
	}
	sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].Date.Before(s.Points[j].Date) })
	return s
}

// IsSubMonthly classifies a FRED frequency_short code. known is false for
// codes it does not recognise.
func IsSubMonthly(freqShort string) (sub, known bool) {
	switch strings.ToUpper(strings.TrimSpace(freqShort)) {
	case "D", "W", "BW":
		return true, true
	case "M", "Q", "SA", "A":
		return false, true
	}
	// FRED also reports weekly variants such as "W-FRI" via the long form.
	if strings.HasPrefix(strings.ToUpper(freqShort), "W") {
		return true, true
	}
	return false, false
}

// InferSubMonthly guesses the frequency from point spacing: a median gap
// of seven days or less counts as sub-monthly.
func InferSubMonthly(s Series) bool {
	if len(s.Points) < 2 {
		return false
	}
	gaps := make([]float64, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		gaps = append(gaps, s.Points[i].Date.Sub(s.Points[i-1].Date).Hours()/24)
	}
	sort.Float64s(gaps)
	n := len(gaps)
	median := gaps[n/2]
	if n%2 == 0 {
		median = (gaps[n/2-1] + gaps[n/2]) / 2
	}
	return median <= 7
}

// LastInMonth resamples a sub-monthly series to month-ends, taking the
// last non-missing value in each month. Every month from the first point
// to the last gets a row; months without a valid value are NaN.
func LastInMonth(s Series) Series {
	out := Series{Name: s.Name}
	if len(s.Points) == 0 {
		return out
	}
	months := utils.MonthsBetween(s.Points[0].Date, s.Points[len(s.Points)-1].Date)
	out.Points = make([]Point, len(months))
	for i, m := range months {
		out.Points[i] = Point{Date: m, Value: math.NaN()}
	}

	idx := 0
	for _, p := range s.Points {
		for idx < len(months) && !utils.SameMonth(months[idx], p.Date) {
			idx++
		}
		if idx < len(months) && !math.IsNaN(p.Value) {
			out.Points[idx].Value = p.Value
		}
	}
	return out
}

// ShiftToMonthEnd moves each point of a monthly or lower-frequency series
// to the last calendar day of its month. Values are kept as is.
func ShiftToMonthEnd(s Series) Series {
	out := Series{Name: s.Name, Points: make([]Point, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = Point{Date: utils.MonthEnd(p.Date), Value: p.Value}
	}
	return out
}

// ToMonthEnd converts s to a month-end index using the rule for its
// frequency.
func ToMonthEnd(s Series, subMonthly bool) Series {
	if subMonthly {
		return LastInMonth(s)
	}
	return ShiftToMonthEnd(s)
}

// PctChange returns the positional percent change over periods rows,
// as a fraction. The column is forward-filled first, so a NaN takes the
// last observed value; leading NaNs stay NaN. The first periods entries are
// NaN. A zero base gives ±Inf, or NaN when the value is also zero.
func PctChange(vals []float64, periods int) []float64 {
	filled := make([]float64, len(vals))
	last := math.NaN()
	for i, v := range vals {
		if !math.IsNaN(v) {
			last = v
		}
		filled[i] = last
	}
	out := make([]float64, len(vals))
	for i := range filled {
		if i < periods {
			out[i] = math.NaN()
			continue
		}
		out[i] = filled[i]/filled[i-periods] - 1
	}
	return out
}

// Scale multiplies every value by k. NaN stays NaN.
func Scale(vals []float64, k float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v * k
	}
	return out
}
