package util

import (
    "strconv"
    "time"
)

// Layouts accepted by ParseDate, tried in order. Day-first layouts win over
// month-first on ambiguous input such as 03/04/2025.
var dateLayouts = []string{
    "02/01/2006",
    "2006-01-02",
    "01/02/2006",
    "02-01-2006",
}

// ParseDate tries the supported day-level layouts. Returns (d, true) if any worked.
func ParseDate(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    for _, layout := range dateLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t.UTC(), true
        }
    }
    return time.Time{}, false
}

// ParseTime tries RFC3339, the day-level layouts, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, ok := ParseDate(s); ok {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns midnight UTC of the day after t.
func NextDay(t time.Time) time.Time {
    return Day(t).AddDate(0, 0, 1)
}

// DaysBetween counts whole days from a to b inclusive of both endpoints.
// Returns 0 when b is before a.
func DaysBetween(a, b time.Time) int {
    a, b = Day(a), Day(b)
    if b.Before(a) {
        return 0
    }
    return int(b.Sub(a).Hours()/24) + 1
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
    return t.Format("2006-01-02")
}
