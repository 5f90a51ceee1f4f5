package analytics

import (
    "testing"
    "time"

    "EpiCast/internal/domain/models"
)

func day(n int) time.Time {
    return time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestPeakCycleThresholdIsStrict(t *testing.T) {
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)

    // Exactly 100 on day 0 must not mark day 1 as a peak day.
    dates := []time.Time{day(0), day(1), day(2)}
    counts := []float64{100, 10, 10}
    _, keep := p.TrainingColumn(dates, counts)
    for i, k := range keep {
        if k {
            t.Fatalf("row %d kept, but no peak should exist with count exactly 100", i)
        }
    }

    // 101 does mark the following day.
    counts = []float64{101, 10, 10}
    _, keep = p.TrainingColumn(dates, counts)
    if keep[0] {
        t.Fatalf("row 0 has no prior peak and must be dropped")
    }
    if !keep[1] || !keep[2] {
        t.Fatalf("rows after the peak day must be kept: %v", keep)
    }
}

func TestPeakCycleTrainingPredictorFiresOnDayFour(t *testing.T) {
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)

    dates := make([]time.Time, 8)
    counts := make([]float64, 8)
    for i := range dates {
        dates[i] = day(i)
        counts[i] = 10
    }
    counts[0] = 150 // day(1) becomes the peak day

    vals, keep := p.TrainingColumn(dates, counts)
    // Distances from the day(1) peak: rows 1..7 -> 0,1,2,3,4,5,6.
    for i := 1; i < 8; i++ {
        if !keep[i] {
            t.Fatalf("row %d unexpectedly dropped", i)
        }
        want := 0.0
        if i == 5 { // 4 days after the peak day
            want = 1.0
        }
        if vals[i] != want {
            t.Fatalf("row %d predictor = %v, want %v", i, vals[i], want)
        }
    }
}

func TestPeakCyclePredictorWindow(t *testing.T) {
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)
    p.Observe(day(0), 150) // prediction above threshold sets the peak

    if got := p.PredictorValue(day(3)); got != 0 {
        t.Fatalf("day 3 predictor = %v, want 0", got)
    }
    if got := p.PredictorValue(day(4)); got != 1 {
        t.Fatalf("day 4 predictor = %v, want 1", got)
    }
    if got := p.PredictorValue(day(5)); got != 0 {
        t.Fatalf("day 5 predictor = %v, want 0", got)
    }
}

func TestPeakCycleObserveIgnoresThresholdAndBelow(t *testing.T) {
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)
    p.Observe(day(0), 100) // not strictly above
    if got := p.PredictorValue(day(4)); got != 0 {
        t.Fatalf("predictor = %v after non-peak observation, want 0", got)
    }
}

func TestPeakCycleSeedPicksLatestPeakBeforeTrainingEnd(t *testing.T) {
    lab := []models.LabTest{
        {Date: day(0), PositiveTests: 120},
        {Date: day(2), PositiveTests: 180},
        {Date: day(3), PositiveTests: 90},
        {Date: day(6), PositiveTests: 300}, // after training end, ignored
    }
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)
    p.Seed(lab, day(5))

    if got := p.PredictorValue(day(6)); got != 1 {
        t.Fatalf("day(2)+4 predictor = %v, want 1", got)
    }
    if got := p.PredictorValue(day(4)); got != 0 {
        t.Fatalf("day(0)+4 predictor = %v, want 0 (later peak supersedes)", got)
    }
}

func TestPeakCycleNoHistoricalPeak(t *testing.T) {
    lab := []models.LabTest{
        {Date: day(0), PositiveTests: 50},
        {Date: day(1), PositiveTests: 60},
    }
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)
    p.Seed(lab, day(5))

    for i := 0; i < 10; i++ {
        if got := p.PredictorValue(day(i)); got != 0 {
            t.Fatalf("predictor = %v with no peak history, want 0", got)
        }
    }

    // A predicted outbreak restarts the cycle mid-horizon.
    p.Observe(day(10), 200)
    if got := p.PredictorValue(day(14)); got != 1 {
        t.Fatalf("predictor = %v four days after predicted peak, want 1", got)
    }
}
