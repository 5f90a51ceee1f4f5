package features

import (
    "fmt"
    "math"
    "time"
)

// Frame is a column-major table of float64 features aligned to a date axis.
// Missing values are NaN until DropNull removes the affected rows.
type Frame struct {
    dates []time.Time
    cols  map[string][]float64
    order []string
}

func NewFrame(dates []time.Time) *Frame {
    d := make([]time.Time, len(dates))
    copy(d, dates)
    return &Frame{dates: d, cols: make(map[string][]float64)}
}

func (f *Frame) Len() int { return len(f.dates) }

func (f *Frame) Date(i int) time.Time { return f.dates[i] }

func (f *Frame) Dates() []time.Time {
    out := make([]time.Time, len(f.dates))
    copy(out, f.dates)
    return out
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
    out := make([]string, len(f.order))
    copy(out, f.order)
    return out
}

func (f *Frame) Has(name string) bool {
    _, ok := f.cols[name]
    return ok
}

// AddColumn appends a named column. The length must match the date axis.
func (f *Frame) AddColumn(name string, vals []float64) error {
    if len(vals) != len(f.dates) {
        return fmt.Errorf("features: column %s has %d values, frame has %d rows", name, len(vals), len(f.dates))
    }
    if _, dup := f.cols[name]; dup {
        return fmt.Errorf("features: duplicate column %s", name)
    }
    f.cols[name] = vals
    f.order = append(f.order, name)
    return nil
}

// Column returns the backing slice for a column. Callers must not modify it.
func (f *Frame) Column(name string) ([]float64, bool) {
    vals, ok := f.cols[name]
    return vals, ok
}

// Row assembles one row vector in the given column order.
func (f *Frame) Row(i int, cols []string) ([]float64, error) {
    out := make([]float64, len(cols))
    for j, c := range cols {
        vals, ok := f.cols[c]
        if !ok {
            return nil, fmt.Errorf("features: unknown column %s", c)
        }
        out[j] = vals[i]
    }
    return out, nil
}

// Matrix materializes a row vector for every row in the given column order.
func (f *Frame) Matrix(cols []string) ([][]float64, error) {
    out := make([][]float64, f.Len())
    for i := range out {
        row, err := f.Row(i, cols)
        if err != nil {
            return nil, err
        }
        out[i] = row
    }
    return out, nil
}

// Filter returns a new frame keeping rows where keep[i] is true.
func (f *Frame) Filter(keep []bool) *Frame {
    kept := 0
    for _, k := range keep {
        if k {
            kept++
        }
    }
    out := &Frame{
        dates: make([]time.Time, 0, kept),
        cols:  make(map[string][]float64, len(f.cols)),
        order: append([]string(nil), f.order...),
    }
    for _, name := range f.order {
        out.cols[name] = make([]float64, 0, kept)
    }
    for i, k := range keep {
        if !k {
            continue
        }
        out.dates = append(out.dates, f.dates[i])
        for _, name := range f.order {
            out.cols[name] = append(out.cols[name], f.cols[name][i])
        }
    }
    return out
}

// FilterByDate keeps rows with from <= date <= to. A zero bound is open.
func (f *Frame) FilterByDate(from, to time.Time) *Frame {
    keep := make([]bool, f.Len())
    for i, d := range f.dates {
        if !from.IsZero() && d.Before(from) {
            continue
        }
        if !to.IsZero() && d.After(to) {
            continue
        }
        keep[i] = true
    }
    return f.Filter(keep)
}

// DropNull removes rows carrying NaN in any column.
func (f *Frame) DropNull() *Frame {
    keep := make([]bool, f.Len())
    for i := range keep {
        keep[i] = true
        for _, name := range f.order {
            if math.IsNaN(f.cols[name][i]) {
                keep[i] = false
                break
            }
        }
    }
    return f.Filter(keep)
}
