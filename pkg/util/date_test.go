package util

import (
    "testing"
    "time"
)

func TestParseDateLayouts(t *testing.T) {
    want := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
    for _, s := range []string{"03/04/2025", "2025-04-03", "03-04-2025"} {
        got, ok := ParseDate(s)
        if !ok {
            t.Fatalf("expected ok for %q", s)
        }
        if !got.Equal(want) {
            t.Fatalf("%q: got %v want %v", s, got, want)
        }
    }
}

func TestParseDateDayFirstWins(t *testing.T) {
    // 03/04/2025 is ambiguous; the day-first layout must win.
    got, ok := ParseDate("03/04/2025")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Month() != time.April || got.Day() != 3 {
        t.Fatalf("expected 3 April, got %v", got)
    }
}

func TestParseDateMonthFirstFallback(t *testing.T) {
    // 04/25/2025 cannot be day-first, so the month-first layout applies.
    got, ok := ParseDate("04/25/2025")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Month() != time.April || got.Day() != 25 {
        t.Fatalf("expected 25 April, got %v", got)
    }
}

func TestParseDateInvalid(t *testing.T) {
    if _, ok := ParseDate("not-a-date"); ok {
        t.Fatalf("expected failure")
    }
    if _, ok := ParseDate(""); ok {
        t.Fatalf("expected failure on empty")
    }
}

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestDaysBetween(t *testing.T) {
    a := time.Date(2025, 1, 1, 13, 30, 0, 0, time.UTC)
    b := time.Date(2025, 1, 14, 2, 0, 0, 0, time.UTC)
    if got := DaysBetween(a, b); got != 14 {
        t.Fatalf("got %d want 14", got)
    }
    if got := DaysBetween(a, a); got != 1 {
        t.Fatalf("same day: got %d want 1", got)
    }
    if got := DaysBetween(b, a); got != 0 {
        t.Fatalf("reversed: got %d want 0", got)
    }
}

func TestNextDay(t *testing.T) {
    d := time.Date(2025, 2, 28, 17, 0, 0, 0, time.UTC)
    got := NextDay(d)
    want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("got %v want %v", got, want)
    }
}
