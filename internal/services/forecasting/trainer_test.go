package forecasting

import (
    "context"
    "errors"
    "math"
    "testing"
    "time"

    "EpiCast/internal/domain/models"
    "EpiCast/internal/services/features"
)

func mustSpecOf(t *testing.T, d models.Disease) models.DiseaseSpec {
    t.Helper()
    spec, ok := models.SpecFor(d)
    if !ok {
        t.Fatalf("no spec for %s", d)
    }
    return spec
}

func dayN(i int) time.Time {
    return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// makeRows builds n contiguous days from 2024-01-01. counts gives the
// positive count per day index; sales gives each medicine's units per day.
func makeRows(spec models.DiseaseSpec, n int, counts func(int) float64, sales func(string, int) float64) []models.SeriesRow {
    rows := make([]models.SeriesRow, n)
    for i := 0; i < n; i++ {
        s := make(map[string]float64, len(spec.Medicines))
        for _, m := range spec.Medicines {
            s[m] = sales(m, i)
        }
        rows[i] = models.SeriesRow{Date: dayN(i), PositiveTests: counts(i), Sales: s}
    }
    return rows
}

func labFrom(rows []models.SeriesRow, d models.Disease) []models.LabTest {
    lab := make([]models.LabTest, len(rows))
    for i, r := range rows {
        lab[i] = models.LabTest{
            Date:          r.Date,
            Disease:       d,
            TotalTests:    int(r.PositiveTests) * 2,
            PositiveTests: int(r.PositiveTests),
        }
    }
    return lab
}

func flatSales(string, int) float64 { return 5 }

func TestTrainInsufficientData(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 10, func(i int) float64 { return float64(10 + i) }, flatSales)

    tr := NewTrainer(Config{Trees: 10}, nil)
    _, err := tr.Train(context.Background(), spec, rows, time.Time{}, time.Time{})

    var ide *InsufficientDataError
    if !errors.As(err, &ide) {
        t.Fatalf("want InsufficientDataError, got %v", err)
    }
    if ide.Need != features.DefaultLags+1 {
        t.Fatalf("Need = %d, want %d", ide.Need, features.DefaultLags+1)
    }
    if ide.Rows != 0 {
        t.Fatalf("Rows = %d, want 0", ide.Rows)
    }
}

func TestTrainFeatureColumnsMatchDerivation(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 40, func(i int) float64 { return float64(10 + i%7) }, flatSales)

    tr := NewTrainer(Config{Trees: 10}, nil)
    model, err := tr.Train(context.Background(), spec, rows, time.Time{}, time.Time{})
    if err != nil {
        t.Fatalf("Train: %v", err)
    }

    want := features.ModelColumns(spec, features.DefaultLags)
    if len(model.FeatureColumns) != len(want) {
        t.Fatalf("got %d feature columns, want %d", len(model.FeatureColumns), len(want))
    }
    for i := range want {
        if model.FeatureColumns[i] != want[i] {
            t.Fatalf("column %d: got %s want %s", i, model.FeatureColumns[i], want[i])
        }
    }
    if model.Metrics.TrainSamples != 40-features.DefaultLags {
        t.Fatalf("TrainSamples = %d, want %d", model.Metrics.TrainSamples, 40-features.DefaultLags)
    }
}

func TestTrainMalariaPredictorColumn(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseMalaria)
    counts := func(i int) float64 {
        if i < 20 {
            return 120
        }
        return 50
    }
    rows := makeRows(spec, 45, counts, flatSales)

    tr := NewTrainer(Config{Trees: 10}, nil)
    model, err := tr.Train(context.Background(), spec, rows, time.Time{}, time.Time{})
    if err != nil {
        t.Fatalf("Train: %v", err)
    }

    last := model.FeatureColumns[len(model.FeatureColumns)-1]
    if last != spec.PredictorColumn {
        t.Fatalf("last feature column = %s, want %s", last, spec.PredictorColumn)
    }
    // 45 days less 14 warmup rows, less the one row with no prior peak.
    if model.Metrics.TrainSamples != 30 {
        t.Fatalf("TrainSamples = %d, want 30", model.Metrics.TrainSamples)
    }
}

func TestTrainMalariaNoPeaksIsInsufficient(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseMalaria)
    rows := makeRows(spec, 45, func(int) float64 { return 40 }, flatSales)

    tr := NewTrainer(Config{Trees: 10}, nil)
    _, err := tr.Train(context.Background(), spec, rows, time.Time{}, time.Time{})

    var ide *InsufficientDataError
    if !errors.As(err, &ide) {
        t.Fatalf("want InsufficientDataError when every predictor row drops, got %v", err)
    }
}

func TestTrainConstantSeriesHasZeroMAE(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 40, func(int) float64 { return 30 }, flatSales)

    tr := NewTrainer(Config{Trees: 10}, nil)
    model, err := tr.Train(context.Background(), spec, rows, time.Time{}, time.Time{})
    if err != nil {
        t.Fatalf("Train: %v", err)
    }
    if model.Metrics.TrainMAE > 1e-9 {
        t.Fatalf("TrainMAE = %g, want ~0 for a constant series", model.Metrics.TrainMAE)
    }
}

func TestTrainWindowRestriction(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 60, func(i int) float64 { return float64(10 + i%7) }, flatSales)

    trainEnd := dayN(45)
    tr := NewTrainer(Config{Trees: 10}, nil)
    model, err := tr.Train(context.Background(), spec, rows, time.Time{}, trainEnd)
    if err != nil {
        t.Fatalf("Train: %v", err)
    }

    if model.Metrics.TrainingEnd.After(trainEnd) {
        t.Fatalf("TrainingEnd %s is after the requested end %s", model.Metrics.TrainingEnd, trainEnd)
    }
    if got, want := model.Metrics.TrainingStart, dayN(features.DefaultLags); !got.Equal(want) {
        t.Fatalf("TrainingStart = %s, want first post-warmup day %s", got, want)
    }
    if model.Metrics.TrainSamples != 46-features.DefaultLags {
        t.Fatalf("TrainSamples = %d, want %d", model.Metrics.TrainSamples, 46-features.DefaultLags)
    }
}

func TestTrainCancelledContext(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 40, func(i int) float64 { return float64(10 + i) }, flatSales)

    ctx, cancel := context.WithCancel(context.Background())
    cancel()

    tr := NewTrainer(Config{Trees: 10}, nil)
    if _, err := tr.Train(ctx, spec, rows, time.Time{}, time.Time{}); !errors.Is(err, context.Canceled) {
        t.Fatalf("want context.Canceled, got %v", err)
    }
}

func TestTrainMetricsAlgorithm(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDiarrhoea)
    rows := makeRows(spec, 40, func(i int) float64 { return float64(12 + i%5) }, flatSales)

    tr := NewTrainer(Config{Trees: 25, Seed: 7}, nil)
    model, err := tr.Train(context.Background(), spec, rows, time.Time{}, time.Time{})
    if err != nil {
        t.Fatalf("Train: %v", err)
    }
    if model.Metrics.Algorithm != "RandomForest" {
        t.Fatalf("Algorithm = %q", model.Metrics.Algorithm)
    }
    if model.Metrics.Trees != 25 || model.Metrics.Lags != features.DefaultLags {
        t.Fatalf("Trees/Lags = %d/%d, want 25/%d", model.Metrics.Trees, model.Metrics.Lags, features.DefaultLags)
    }
    if math.IsNaN(model.Metrics.TrainMAE) || model.Metrics.TrainMAE < 0 {
        t.Fatalf("TrainMAE = %g", model.Metrics.TrainMAE)
    }
    if model.Regressor == nil {
        t.Fatal("model has no regressor")
    }
}
