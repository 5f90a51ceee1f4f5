package features

import (
    "math"
    "testing"
    "time"
)

func frameDates(n int) []time.Time {
    start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
    out := make([]time.Time, n)
    for i := range out {
        out[i] = start.AddDate(0, 0, i)
    }
    return out
}

func TestFrameAddColumnValidation(t *testing.T) {
    f := NewFrame(frameDates(3))
    if err := f.AddColumn("a", []float64{1, 2}); err == nil {
        t.Fatalf("expected length mismatch error")
    }
    if err := f.AddColumn("a", []float64{1, 2, 3}); err != nil {
        t.Fatalf("add: %v", err)
    }
    if err := f.AddColumn("a", []float64{4, 5, 6}); err == nil {
        t.Fatalf("expected duplicate column error")
    }
}

func TestFrameRowUnknownColumn(t *testing.T) {
    f := NewFrame(frameDates(2))
    if err := f.AddColumn("a", []float64{1, 2}); err != nil {
        t.Fatalf("add: %v", err)
    }
    if _, err := f.Row(0, []string{"a", "missing"}); err == nil {
        t.Fatalf("expected unknown column error")
    }
}

func TestFrameDropNull(t *testing.T) {
    f := NewFrame(frameDates(4))
    if err := f.AddColumn("a", []float64{math.NaN(), 1, 2, 3}); err != nil {
        t.Fatalf("add: %v", err)
    }
    if err := f.AddColumn("b", []float64{0, 1, math.NaN(), 3}); err != nil {
        t.Fatalf("add: %v", err)
    }
    got := f.DropNull()
    if got.Len() != 2 {
        t.Fatalf("got %d rows, want 2", got.Len())
    }
    a, _ := got.Column("a")
    if a[0] != 1 || a[1] != 3 {
        t.Fatalf("unexpected kept values %v", a)
    }
}

func TestFrameFilterByDate(t *testing.T) {
    f := NewFrame(frameDates(5))
    if err := f.AddColumn("a", []float64{0, 1, 2, 3, 4}); err != nil {
        t.Fatalf("add: %v", err)
    }
    from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
    to := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
    got := f.FilterByDate(from, to)
    if got.Len() != 3 {
        t.Fatalf("got %d rows, want 3", got.Len())
    }
    if !got.Date(0).Equal(from) || !got.Date(2).Equal(to) {
        t.Fatalf("bounds not inclusive: %v .. %v", got.Date(0), got.Date(2))
    }

    open := f.FilterByDate(time.Time{}, to)
    if open.Len() != 4 {
        t.Fatalf("open lower bound: got %d rows, want 4", open.Len())
    }
}

func TestFrameMatrixOrder(t *testing.T) {
    f := NewFrame(frameDates(2))
    if err := f.AddColumn("a", []float64{1, 2}); err != nil {
        t.Fatalf("add: %v", err)
    }
    if err := f.AddColumn("b", []float64{3, 4}); err != nil {
        t.Fatalf("add: %v", err)
    }
    m, err := f.Matrix([]string{"b", "a"})
    if err != nil {
        t.Fatalf("matrix: %v", err)
    }
    if m[0][0] != 3 || m[0][1] != 1 || m[1][0] != 4 || m[1][1] != 2 {
        t.Fatalf("unexpected matrix %v", m)
    }
}
