package analytics

import (
    "time"

    "EpiCast/internal/domain/models"
    domsvc "EpiCast/internal/domain/service"
    "EpiCast/pkg/util"
)

// Peak detection constants derived from the 2024 malaria surge data.
const (
    PeakTestsThreshold = 100.0
    PeakCycleLength    = 4
)

// PeakCycle marks days whose previous day strictly exceeded the peak
// threshold and predicts a follow-up surge exactly cycle days after the most
// recent peak. During a forecast the peak state evolves from the model's own
// predictions, so a predicted outbreak restarts the cycle.
type PeakCycle struct {
    threshold float64
    cycle     int
    lastPeak  time.Time
}

func NewPeakCycle(threshold float64, cycle int) *PeakCycle {
    return &PeakCycle{threshold: threshold, cycle: cycle}
}

// Seed initializes the last-peak state from historical lab actuals: the
// latest date at or before trainingEnd whose count strictly exceeds the
// threshold. No qualifying day leaves the state empty, which keeps the
// predictor at 0 until a prediction itself peaks.
func (p *PeakCycle) Seed(lab []models.LabTest, trainingEnd time.Time) {
    end := util.Day(trainingEnd)
    for _, r := range lab {
        day := util.Day(r.Date)
        if day.After(end) {
            continue
        }
        if float64(r.PositiveTests) > p.threshold && day.After(p.lastPeak) {
            p.lastPeak = day
        }
    }
}

// TrainingColumn computes the predictor for each training row. A row is a
// peak day when the previous row's count strictly exceeded the threshold;
// the predictor is 1 exactly cycle days after the most recent peak at or
// before the row's own date. Rows with no prior peak have an undefined
// distance; keep[i] is false for them and the trainer must drop those rows.
func (p *PeakCycle) TrainingColumn(dates []time.Time, counts []float64) (vals []float64, keep []bool) {
    n := len(dates)
    peaks := make([]time.Time, 0, n)
    for i := 1; i < n; i++ {
        if counts[i-1] > p.threshold {
            peaks = append(peaks, util.Day(dates[i]))
        }
    }

    vals = make([]float64, n)
    keep = make([]bool, n)
    for i := 0; i < n; i++ {
        day := util.Day(dates[i])
        var last time.Time
        for _, pk := range peaks {
            if pk.After(day) {
                break
            }
            last = pk
        }
        if last.IsZero() {
            continue
        }
        keep[i] = true
        if int(day.Sub(last).Hours()/24) == p.cycle {
            vals[i] = 1
        }
    }
    return vals, keep
}

func (p *PeakCycle) PredictorValue(date time.Time) float64 {
    if p.lastPeak.IsZero() {
        return 0
    }
    if int(util.Day(date).Sub(p.lastPeak).Hours()/24) == p.cycle {
        return 1
    }
    return 0
}

func (p *PeakCycle) Adjust(_ time.Time, pred int) int { return pred }

func (p *PeakCycle) Observe(date time.Time, pred int) {
    if float64(pred) > p.threshold {
        p.lastPeak = util.Day(date)
    }
}

var _ domsvc.Adjuster = (*PeakCycle)(nil)
