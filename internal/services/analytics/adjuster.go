package analytics

import (
    "fmt"
    "time"

    "EpiCast/internal/domain/models"
    domsvc "EpiCast/internal/domain/service"
)

// NewAdjuster builds the invocation-local heuristic for one forecast run.
// The peak-cycle heuristic seeds its state from the raw lab series at or
// before the training end; the sales heuristics index the joined series.
func NewAdjuster(spec models.DiseaseSpec, rows []models.SeriesRow, lab []models.LabTest, trainingEnd time.Time) (domsvc.Adjuster, error) {
    switch spec.Heuristic {
    case models.HeuristicPeakCycle:
        p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)
        p.Seed(lab, trainingEnd)
        return p, nil
    case models.HeuristicSalesSurge:
        return NewSalesSurge(rows), nil
    case models.HeuristicSalesRatio:
        return NewSalesRatio(rows), nil
    }
    return nil, fmt.Errorf("analytics: no heuristic registered for %s", spec.Disease)
}

// TrainingPredictor computes the train-time predictor column for diseases
// that carry one, over the training rows in date order. ok is false when the
// disease trains without a predictor column; keep marks rows with a defined
// value, and the trainer drops the rest.
func TrainingPredictor(spec models.DiseaseSpec, dates []time.Time, counts []float64) (vals []float64, keep []bool, ok bool) {
    if spec.PredictorColumn == "" || spec.Heuristic != models.HeuristicPeakCycle {
        return nil, nil, false
    }
    p := NewPeakCycle(PeakTestsThreshold, PeakCycleLength)
    vals, keep = p.TrainingColumn(dates, counts)
    return vals, keep, true
}
