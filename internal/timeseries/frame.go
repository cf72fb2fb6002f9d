package timeseries

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/econlab/regdata/pkg/utils"
)

// Frame is a date-indexed table of float64 columns kept in insertion
// order. Rows are sorted by date ascending.
type Frame struct {
	index []time.Time
	names []string
	cols  map[string][]float64
}

// Align outer-joins the series on date. A series without a value on some
// date gets NaN there. Duplicate dates within one series keep the last.
func Align(series ...Series) *Frame {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, p := range s.Points {
			seen[p.Date] = struct{}{}
		}
	}
	index := make([]time.Time, 0, len(seen))
	for d := range seen {
		index = append(index, d)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	pos := make(map[time.Time]int, len(index))
	for i, d := range index {
		pos[d] = i
	}

	f := &Frame{index: index, cols: make(map[string][]float64, len(series))}
	for _, s := range series {
		col := nanSlice(len(index))
		for _, p := range s.Points {
			col[pos[p.Date]] = p.Value
		}
		f.names = append(f.names, s.Name)
		f.cols[s.Name] = col
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Shape returns rows and columns.
func (f *Frame) Shape() (rows, cols int) { return len(f.index), len(f.names) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return append([]string(nil), f.names...) }

// Index returns the row dates.
func (f *Frame) Index() []time.Time { return append([]time.Time(nil), f.index...) }

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	c, ok := f.cols[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), c...), true
}

// SetColumn adds or replaces a column. vals must have one entry per row.
func (f *Frame) SetColumn(name string, vals []float64) error {
	if len(vals) != len(f.index) {
		return fmt.Errorf("column %q has %d values, frame has %d rows", name, len(vals), len(f.index))
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = append([]float64(nil), vals...)
	return nil
}

// Row returns the date and values of row i in column order.
func (f *Frame) Row(i int) (time.Time, []float64) {
	vals := make([]float64, len(f.names))
	for j, n := range f.names {
		vals[j] = f.cols[n][i]
	}
	return f.index[i], vals
}

// Trim keeps rows with from <= date <= to.
func (f *Frame) Trim(from, to time.Time) *Frame {
	return f.filter(func(i int) bool {
		d := f.index[i]
		return !d.Before(from) && !d.After(to)
	})
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := &Frame{index: append([]time.Time(nil), f.index...), cols: make(map[string][]float64, len(names))}
	for _, n := range names {
		c, ok := f.cols[n]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", n)
		}
		out.names = append(out.names, n)
		out.cols[n] = append([]float64(nil), c...)
	}
	return out, nil
}

// DropNA removes every row that has a NaN in any column.
func (f *Frame) DropNA() *Frame {
	return f.filter(func(i int) bool {
		for _, n := range f.names {
			if math.IsNaN(f.cols[n][i]) {
				return false
			}
		}
		return true
	})
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > len(f.index) {
		n = len(f.index)
	}
	return f.filter(func(i int) bool { return i < n })
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	start := len(f.index) - n
	return f.filter(func(i int) bool { return i >= start })
}

func (f *Frame) filter(keep func(i int) bool) *Frame {
	out := &Frame{names: append([]string(nil), f.names...), cols: make(map[string][]float64, len(f.names))}
	var rows []int
	for i := range f.index {
		if keep(i) {
			rows = append(rows, i)
			out.index = append(out.index, f.index[i])
		}
	}
	for _, n := range f.names {
		src := f.cols[n]
		col := make([]float64, len(rows))
		for j, i := range rows {
			col[j] = src[i]
		}
		out.cols[n] = col
	}
	return out
}

// Format writes the frame as an aligned text table with a leading date
// column. NaN prints as "NaN".
func (f *Frame) Format(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "date\t")
	for _, n := range f.names {
		fmt.Fprint(tw, n, "\t")
	}
	fmt.Fprintln(tw)
	for i := range f.index {
		d, vals := f.Row(i)
		fmt.Fprint(tw, utils.FormatDate(d), "\t")
		for _, v := range vals {
			fmt.Fprint(tw, strconv.FormatFloat(v, 'f', 4, 64), "\t")
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
