package analytics

import (
    "testing"
    "time"

    "EpiCast/internal/domain/models"
)

func surgeRows(sales ...float64) []models.SeriesRow {
    start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
    rows := make([]models.SeriesRow, len(sales))
    for i, s := range sales {
        rows[i] = models.SeriesRow{
            Date:  start.AddDate(0, 0, i),
            Sales: map[string]float64{"Panadol": s / 2, "Calpol": s / 2},
        }
    }
    return rows
}

func TestSalesSurgeDoublesOnConsecutiveRise(t *testing.T) {
    // t-2, t-1, t = 10, 8, 12: 12 > 8 and 12 > 10.
    s := NewSalesSurge(surgeRows(10, 8, 12))
    target := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
    if got := s.Adjust(target, 7); got != 14 {
        t.Fatalf("got %d, want 14", got)
    }
}

func TestSalesSurgeRequiresBothComparisons(t *testing.T) {
    // 10, 15, 12: 12 > 10 but 12 < 15.
    s := NewSalesSurge(surgeRows(10, 15, 12))
    target := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
    if got := s.Adjust(target, 7); got != 7 {
        t.Fatalf("got %d, want 7", got)
    }
}

func TestSalesSurgeEqualSalesDoNotTrigger(t *testing.T) {
    s := NewSalesSurge(surgeRows(12, 8, 12))
    target := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
    if got := s.Adjust(target, 7); got != 7 {
        t.Fatalf("got %d, want 7 (comparison is strict)", got)
    }
}

func TestSalesSurgeMissingDaysReadAsZero(t *testing.T) {
    // Only the current day has sales; 5 > 0 and 5 > 0 triggers.
    s := NewSalesSurge(surgeRows(5))
    target := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
    if got := s.Adjust(target, 3); got != 6 {
        t.Fatalf("got %d, want 6", got)
    }

    // A day with no sales record at all never triggers.
    far := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    if got := s.Adjust(far, 3); got != 3 {
        t.Fatalf("got %d, want 3", got)
    }
}
