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

// stubRegressor returns scripted log-space outputs and records every
// feature vector it is asked to predict.
type stubRegressor struct {
    outs []float64
    rows [][]float64
}

func (s *stubRegressor) Predict(x []float64) float64 {
    c := make([]float64, len(x))
    copy(c, x)
    s.rows = append(s.rows, c)
    return s.outs[len(s.rows)-1]
}

func approx(t *testing.T, got, want float64, what string) {
    t.Helper()
    if math.Abs(got-want) > 1e-9 {
        t.Fatalf("%s = %v, want %v", what, got, want)
    }
}

// modulo counts shared by the recursion tests: c(i) = 10 + i%7.
func moduloCounts(i int) float64 { return float64(10 + i%7) }

func TestRunShiftChainRewritesLags(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    // Decreasing totals keep the surge heuristic quiet.
    sales := func(m string, i int) float64 {
        if m == "Panadol" {
            return float64(i)
        }
        return float64(100 - 2*i)
    }
    rows := makeRows(spec, 30, moduloCounts, sales)

    stub := &stubRegressor{outs: []float64{math.Log1p(50), math.Log1p(60), math.Log1p(70)}}
    fc := NewForecaster(Config{}, nil)
    res, err := fc.Run(context.Background(), Run{
        Spec:        spec,
        Regressor:   stub,
        Columns:     features.ModelColumns(spec, features.DefaultLags),
        TrainingEnd: dayN(25),
        Rows:        rows,
        Start:       dayN(26),
        End:         dayN(28),
    })
    if err != nil {
        t.Fatalf("Run: %v", err)
    }
    if len(stub.rows) != 3 {
        t.Fatalf("regressor saw %d rows, want 3", len(stub.rows))
    }

    r0, r1, r2 := stub.rows[0], stub.rows[1], stub.rows[2]

    // Day one uses the precomputed actuals-based row untouched.
    approx(t, r0[0], math.Log1p(14), "day1 lag1") // count(25)
    approx(t, r0[1], math.Log1p(13), "day1 lag2") // count(24)

    // Day two: lag1 carries the previous final prediction and the rest of
    // the chain shifts one slot, so lag2 now holds yesterday's actual.
    approx(t, r1[0], math.Log1p(50), "day2 lag1")
    approx(t, r1[1], math.Log1p(15), "day2 lag2") // count(26)
    approx(t, r1[2], math.Log1p(14), "day2 lag3") // count(25)

    // Day three chains off day two's final, not its base.
    approx(t, r2[0], math.Log1p(60), "day3 lag1")
    approx(t, r2[1], math.Log1p(16), "day3 lag2") // count(27)

    // Medicine lags and current-day sales stay actuals-based.
    approx(t, r1[14], 26, "day2 Panadol_lag1")
    approx(t, r1[47], 27, "day2 Panadol")

    // Calendar block: 2024-01-27 is a Saturday.
    approx(t, r0[44], 5, "day1 dow")
    approx(t, r0[45], 27, "day1 dom")
    approx(t, r0[46], 1, "day1 month")

    if got := []int{res.Points[0].Predicted, res.Points[1].Predicted, res.Points[2].Predicted}; got[0] != 50 || got[1] != 60 || got[2] != 70 {
        t.Fatalf("predictions = %v, want [50 60 70]", got)
    }
    if res.MAE == nil {
        t.Fatal("MAE is nil")
    }
    // Actuals are 15, 16, 10.
    approx(t, *res.MAE, 139.0/3.0, "MAE")
}

func TestRunHeadOnlyKeepsDeepLags(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseMalaria)
    sales := func(m string, i int) float64 {
        if m == "Coartem" {
            return float64(i)
        }
        return float64(100 - 2*i)
    }
    rows := makeRows(spec, 30, moduloCounts, sales)
    lab := labFrom(rows, spec.Disease)

    stub := &stubRegressor{outs: []float64{math.Log1p(50), math.Log1p(60), math.Log1p(70)}}
    fc := NewForecaster(Config{}, nil)
    _, err := fc.Run(context.Background(), Run{
        Spec:        spec,
        Regressor:   stub,
        Columns:     features.ModelColumns(spec, features.DefaultLags),
        TrainingEnd: dayN(25),
        Rows:        rows,
        Lab:         lab,
        Start:       dayN(26),
        End:         dayN(28),
    })
    if err != nil {
        t.Fatalf("Run: %v", err)
    }

    r1, r2 := stub.rows[1], stub.rows[2]

    // Only lag1 is rewritten; deeper lags keep their precomputed values.
    approx(t, r1[0], math.Log1p(50), "day2 lag1")
    approx(t, r1[1], math.Log1p(14), "day2 lag2") // count(25), not count(26)
    approx(t, r2[0], math.Log1p(60), "day3 lag1")
    approx(t, r2[1], math.Log1p(15), "day3 lag2") // count(26), not count(27)

    // No peak in history and none predicted: predictor stays 0.
    predIdx := len(features.ModelColumns(spec, features.DefaultLags)) - 1
    for i, r := range stub.rows {
        if r[predIdx] != 0 {
            t.Fatalf("day %d predictor = %v, want 0", i+1, r[predIdx])
        }
    }
}

func TestRunPeakCyclePredictorInjection(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseMalaria)
    counts := func(i int) float64 {
        if i == 23 {
            return 150
        }
        return 20
    }
    rows := makeRows(spec, 30, counts, flatSales)
    lab := labFrom(rows, spec.Disease)

    stub := &stubRegressor{outs: []float64{math.Log1p(20), math.Log1p(20), math.Log1p(20)}}
    fc := NewForecaster(Config{}, nil)
    _, err := fc.Run(context.Background(), Run{
        Spec:        spec,
        Regressor:   stub,
        Columns:     features.ModelColumns(spec, features.DefaultLags),
        TrainingEnd: dayN(25),
        Rows:        rows,
        Lab:         lab,
        Start:       dayN(26),
        End:         dayN(28),
    })
    if err != nil {
        t.Fatalf("Run: %v", err)
    }

    // Last lab peak is day 23; the predictor fires exactly four days later.
    predIdx := len(features.ModelColumns(spec, features.DefaultLags)) - 1
    want := []float64{0, 1, 0}
    for i, r := range stub.rows {
        if r[predIdx] != want[i] {
            t.Fatalf("day %d predictor = %v, want %v", i+1, r[predIdx], want[i])
        }
    }
}

func TestRunSurgeDoublingFeedsRecursion(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    sales := func(m string, i int) float64 {
        if m == "Panadol" && i == 26 {
            return 50
        }
        return 5
    }
    rows := makeRows(spec, 30, moduloCounts, sales)

    stub := &stubRegressor{outs: []float64{math.Log1p(30), math.Log1p(40), math.Log1p(50)}}
    fc := NewForecaster(Config{}, nil)
    res, err := fc.Run(context.Background(), Run{
        Spec:        spec,
        Regressor:   stub,
        Columns:     features.ModelColumns(spec, features.DefaultLags),
        TrainingEnd: dayN(25),
        Rows:        rows,
        Start:       dayN(26),
        End:         dayN(28),
    })
    if err != nil {
        t.Fatalf("Run: %v", err)
    }

    // Sales surge on day 26 doubles the stored prediction and the doubled
    // value is what the next day's lag1 sees.
    if res.Points[0].Predicted != 60 {
        t.Fatalf("day1 predicted = %d, want 60", res.Points[0].Predicted)
    }
    if res.Points[1].Predicted != 40 || res.Points[2].Predicted != 50 {
        t.Fatalf("later days = %d,%d, want 40,50", res.Points[1].Predicted, res.Points[2].Predicted)
    }
    approx(t, stub.rows[1][0], math.Log1p(60), "day2 lag1")
}

func TestRunRatioMultiplierFeedsRecursion(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDiarrhoea)
    sales := func(m string, i int) float64 {
        if m == "Zincat" && i == 26 {
            return 15
        }
        return 5
    }
    rows := makeRows(spec, 30, moduloCounts, sales)

    stub := &stubRegressor{outs: []float64{math.Log1p(10), math.Log1p(8), math.Log1p(9)}}
    fc := NewForecaster(Config{}, nil)
    res, err := fc.Run(context.Background(), Run{
        Spec:        spec,
        Regressor:   stub,
        Columns:     features.ModelColumns(spec, features.DefaultLags),
        TrainingEnd: dayN(25),
        Rows:        rows,
        Start:       dayN(28),
        End:         dayN(28),
    })
    if err != nil {
        t.Fatalf("Run: %v", err)
    }
    // Ratio on day 28 is 10/(80/7) < 2, prediction unchanged.
    if res.Points[0].Predicted != 10 {
        t.Fatalf("day 28 predicted = %d, want 10", res.Points[0].Predicted)
    }

    stub = &stubRegressor{outs: []float64{math.Log1p(10), math.Log1p(8), math.Log1p(9)}}
    res, err = fc.Run(context.Background(), Run{
        Spec:        spec,
        Regressor:   stub,
        Columns:     features.ModelColumns(spec, features.DefaultLags),
        TrainingEnd: dayN(25),
        Rows:        rows,
        Start:       dayN(26),
        End:         dayN(28),
    })
    if err != nil {
        t.Fatalf("Run: %v", err)
    }
    // Day 26 sales are exactly twice the trailing weekly average, so the
    // surge multiplier applies to the rounded base: round(10 * 2.5) = 25.
    if res.Points[0].Predicted != 25 {
        t.Fatalf("day1 predicted = %d, want 25", res.Points[0].Predicted)
    }
    approx(t, stub.rows[1][0], math.Log1p(25), "day2 lag1")
}

func TestRunRefusesWindowPastData(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 30, moduloCounts, flatSales)

    fc := NewForecaster(Config{}, nil)
    _, err := fc.Run(context.Background(), Run{
        Spec:      spec,
        Regressor: &stubRegressor{outs: []float64{0}},
        Columns:   features.ModelColumns(spec, features.DefaultLags),
        Rows:      rows,
        Start:     dayN(26),
        End:       dayN(35),
    })

    var dre *DataRangeError
    if !errors.As(err, &dre) {
        t.Fatalf("want DataRangeError, got %v", err)
    }
    if !dre.Max.Equal(dayN(29)) {
        t.Fatalf("Max = %s, want %s", dre.Max, dayN(29))
    }
    if !dre.Requested.Equal(dayN(35)) {
        t.Fatalf("Requested = %s, want %s", dre.Requested, dayN(35))
    }
}

func TestRunWindowInsideGap(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    all := makeRows(spec, 30, moduloCounts, flatSales)
    rows := append([]models.SeriesRow{}, all[:21]...)
    rows = append(rows, all[25:]...)

    fc := NewForecaster(Config{}, nil)
    _, err := fc.Run(context.Background(), Run{
        Spec:      spec,
        Regressor: &stubRegressor{outs: []float64{0}},
        Columns:   features.ModelColumns(spec, features.DefaultLags),
        Rows:      rows,
        Start:     dayN(21),
        End:       dayN(24),
    })

    var dre *DataRangeError
    if !errors.As(err, &dre) {
        t.Fatalf("want DataRangeError, got %v", err)
    }
    if !dre.Max.IsZero() {
        t.Fatalf("Max = %s, want zero for an empty window", dre.Max)
    }
}

func TestRunInvalidWindow(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 30, moduloCounts, flatSales)

    fc := NewForecaster(Config{}, nil)
    if _, err := fc.Run(context.Background(), Run{
        Spec:      spec,
        Regressor: &stubRegressor{outs: []float64{0}},
        Columns:   features.ModelColumns(spec, features.DefaultLags),
        Rows:      rows,
        Start:     dayN(28),
        End:       dayN(26),
    }); err == nil {
        t.Fatal("want error for reversed window")
    }
}

func TestRunCancelledContext(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 30, moduloCounts, flatSales)

    ctx, cancel := context.WithCancel(context.Background())
    cancel()

    fc := NewForecaster(Config{}, nil)
    _, err := fc.Run(ctx, Run{
        Spec:      spec,
        Regressor: &stubRegressor{outs: []float64{0, 0, 0}},
        Columns:   features.ModelColumns(spec, features.DefaultLags),
        Rows:      rows,
        Start:     dayN(26),
        End:       dayN(28),
    })
    if !errors.Is(err, context.Canceled) {
        t.Fatalf("want context.Canceled, got %v", err)
    }
}

func TestRunMissingLagColumn(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 30, moduloCounts, flatSales)

    cols := features.ModelColumns(spec, features.DefaultLags)
    broken := make([]string, 0, len(cols)-1)
    for _, c := range cols {
        if c == features.LagColumn(features.ColTarget, 5) {
            continue
        }
        broken = append(broken, c)
    }

    fc := NewForecaster(Config{}, nil)
    _, err := fc.Run(context.Background(), Run{
        Spec:      spec,
        Regressor: &stubRegressor{outs: []float64{0}},
        Columns:   broken,
        Rows:      rows,
        Start:     dayN(26),
        End:       dayN(28),
    })

    var fme *FeatureMismatchError
    if !errors.As(err, &fme) {
        t.Fatalf("want FeatureMismatchError, got %v", err)
    }
}

func TestForecastRejectsStaleModel(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    rows := makeRows(spec, 30, moduloCounts, flatSales)

    cols := features.ModelColumns(spec, features.DefaultLags)
    stale := &models.TrainedModel{
        Disease:        spec.Disease,
        FeatureColumns: cols[:len(cols)-1],
    }

    fc := NewForecaster(Config{}, nil)
    _, err := fc.Forecast(context.Background(), stale, rows, nil, dayN(26), dayN(28))

    var fme *FeatureMismatchError
    if !errors.As(err, &fme) {
        t.Fatalf("want FeatureMismatchError, got %v", err)
    }
    if fme.Disease != spec.Disease {
        t.Fatalf("Disease = %s", fme.Disease)
    }
}

func TestTrainThenForecastDeterministic(t *testing.T) {
    spec := mustSpecOf(t, models.DiseaseDengue)
    counts := func(i int) float64 { return float64(20 + 8*(i%5) + i%3) }
    sales := func(m string, i int) float64 {
        if m == "Panadol" {
            return float64(10 + i%4)
        }
        return float64(12 + (i*2)%5)
    }
    rows := makeRows(spec, 60, counts, sales)

    runOnce := func() *models.ForecastResult {
        t.Helper()
        tr := NewTrainer(Config{}, nil)
        model, err := tr.Train(context.Background(), spec, rows, time.Time{}, dayN(45))
        if err != nil {
            t.Fatalf("Train: %v", err)
        }
        if !model.Metrics.TrainingEnd.Equal(dayN(45)) {
            t.Fatalf("TrainingEnd = %s, want %s", model.Metrics.TrainingEnd, dayN(45))
        }
        fc := NewForecaster(Config{}, nil)
        res, err := fc.Forecast(context.Background(), model, rows, nil, dayN(46), dayN(59))
        if err != nil {
            t.Fatalf("Forecast: %v", err)
        }
        return res
    }

    a, b := runOnce(), runOnce()

    if len(a.Points) != 14 || len(b.Points) != 14 {
        t.Fatalf("point counts = %d,%d, want 14", len(a.Points), len(b.Points))
    }
    for i := range a.Points {
        if a.Points[i].Predicted != b.Points[i].Predicted {
            t.Fatalf("day %d diverged: %d vs %d", i, a.Points[i].Predicted, b.Points[i].Predicted)
        }
        if a.Points[i].Predicted < 0 {
            t.Fatalf("day %d negative prediction %d", i, a.Points[i].Predicted)
        }
        if !a.Points[i].Date.Equal(b.Points[i].Date) {
            t.Fatalf("day %d dates diverged", i)
        }
    }
    if a.MAE == nil || b.MAE == nil || *a.MAE != *b.MAE {
        t.Fatal("MAE diverged between identical runs")
    }
    if !a.Start.Equal(dayN(46)) || !a.End.Equal(dayN(59)) {
        t.Fatalf("window = %s..%s", a.Start, a.End)
    }
}
