package forecasting

import (
    "context"
    "fmt"
    "math"
    "time"

    "gonum.org/v1/gonum/stat"

    "EpiCast/internal/domain/models"
    domsvc "EpiCast/internal/domain/service"
    "EpiCast/internal/services/analytics"
    "EpiCast/internal/services/features"
    "EpiCast/pkg/logger"
    "EpiCast/pkg/util"
)

// Run bundles the inputs of one recursive forecast. Forecast builds it from
// a stored model; tests drive Run directly with stub regressors.
type Run struct {
    Spec        models.DiseaseSpec
    Regressor   domsvc.Regressor
    Columns     []string // feature vector layout expected by the regressor
    TrainingEnd time.Time
    Rows        []models.SeriesRow
    Lab         []models.LabTest
    Start       time.Time
    End         time.Time
}

// Forecaster predicts day by day over a window, feeding each final stored
// prediction back into the lag features of the next day. Stateless across
// invocations; all per-run state lives in the heuristic adjuster.
type Forecaster struct {
    cfg    Config
    logger *logger.Logger
}

func NewForecaster(cfg Config, log *logger.Logger) *Forecaster {
    return &Forecaster{cfg: cfg.withDefaults(), logger: log}
}

// Forecast runs a stored model over [start, end]. The model's persisted
// feature columns must match the current derivation exactly; a mismatch
// aborts before any prediction.
func (f *Forecaster) Forecast(ctx context.Context, model *models.TrainedModel, rows []models.SeriesRow, lab []models.LabTest, start, end time.Time) (*models.ForecastResult, error) {
    spec, ok := models.SpecFor(model.Disease)
    if !ok {
        return nil, fmt.Errorf("forecasting: unknown disease %q", model.Disease)
    }
    want := features.ModelColumns(spec, f.cfg.Lags)
    if !equalColumns(model.FeatureColumns, want) {
        return nil, &FeatureMismatchError{Disease: spec.Disease, Want: want, Got: model.FeatureColumns}
    }
    return f.Run(ctx, Run{
        Spec:        spec,
        Regressor:   model.Regressor,
        Columns:     model.FeatureColumns,
        TrainingEnd: model.Metrics.TrainingEnd,
        Rows:        rows,
        Lab:         lab,
        Start:       start,
        End:         end,
    })
}

// Run executes the recursive loop. Forecast days are the joined rows inside
// [Start, End] in date order; gap days simply do not occur. Each day's
// feature row starts from the precomputed actuals-based row, has its target
// lags rewritten from prior predictions per the disease's lag policy, and
// its predictor column set from live heuristic state. The regressor output
// is inverse-transformed, clamped, rounded, heuristic-adjusted, and the
// final value both gets stored and feeds the next day.
func (f *Forecaster) Run(ctx context.Context, r Run) (*models.ForecastResult, error) {
    start, end := util.Day(r.Start), util.Day(r.End)
    if start.IsZero() || end.IsZero() || end.Before(start) {
        return nil, fmt.Errorf("forecasting: invalid forecast window %s to %s",
            r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
    }

    frame, err := features.Build(r.Rows, r.Spec, f.cfg.Lags)
    if err != nil {
        return nil, err
    }
    if frame.Len() == 0 {
        return nil, &InsufficientDataError{Disease: r.Spec.Disease, Rows: 0, Need: f.cfg.MinRows}
    }

    maxDate := frame.Date(frame.Len() - 1)
    if end.After(maxDate) {
        return nil, &DataRangeError{Disease: r.Spec.Disease, Requested: end, Max: maxDate}
    }

    window := frame.FilterByDate(start, end)
    if window.Len() == 0 {
        return nil, &DataRangeError{Disease: r.Spec.Disease, Requested: end}
    }

    adj, err := analytics.NewAdjuster(r.Spec, r.Rows, r.Lab, r.TrainingEnd)
    if err != nil {
        return nil, err
    }

    lagIdx, predIdx, err := columnLayout(r.Spec, r.Columns, f.cfg.Lags)
    if err != nil {
        return nil, err
    }

    if predIdx >= 0 && !window.Has(r.Spec.PredictorColumn) {
        if err := window.AddColumn(r.Spec.PredictorColumn, make([]float64, window.Len())); err != nil {
            return nil, err
        }
    }
    x, err := window.Matrix(r.Columns)
    if err != nil {
        return nil, err
    }
    actuals, _ := window.Column(features.ColTarget)

    points := make([]models.ForecastPoint, 0, window.Len())
    prev := 0
    for i := 0; i < window.Len(); i++ {
        if err := ctx.Err(); err != nil {
            return nil, err
        }
        date := window.Date(i)
        row := x[i]

        if i > 0 {
            if r.Spec.LagUpdate == models.LagUpdateShiftChain {
                for k := f.cfg.Lags; k >= 2; k-- {
                    row[lagIdx[k]] = row[lagIdx[k-1]]
                }
            }
            row[lagIdx[1]] = math.Log1p(float64(prev))
        }
        if predIdx >= 0 {
            row[predIdx] = adj.PredictorValue(date)
        }

        base := int(math.Round(math.Max(0, math.Expm1(r.Regressor.Predict(row)))))
        final := adj.Adjust(date, base)
        adj.Observe(date, final)

        actual := int(math.Round(actuals[i]))
        points = append(points, models.ForecastPoint{Date: date, Predicted: final, Actual: &actual})
        prev = final
    }

    result := &models.ForecastResult{
        Disease: r.Spec.Disease,
        Start:   start,
        End:     end,
        Points:  points,
        MAE:     forecastMAE(points),
    }

    if f.logger != nil {
        f.logger.Info("forecast complete",
            logger.String("disease", r.Spec.Disease.String()),
            logger.Int("days", len(points)),
            logger.Any("mae", result.MAE),
        )
    }
    return result, nil
}

// columnLayout locates the target lag positions and the predictor position
// inside the model's feature vector. Any missing column means the model was
// trained on a different derivation.
func columnLayout(spec models.DiseaseSpec, cols []string, lags int) (lagIdx []int, predIdx int, err error) {
    lagIdx = make([]int, lags+1)
    for k := 1; k <= lags; k++ {
        idx := indexOf(cols, features.LagColumn(features.ColTarget, k))
        if idx < 0 {
            return nil, 0, &FeatureMismatchError{Disease: spec.Disease, Want: features.ModelColumns(spec, lags), Got: cols}
        }
        lagIdx[k] = idx
    }
    predIdx = -1
    if spec.PredictorColumn != "" {
        predIdx = indexOf(cols, spec.PredictorColumn)
        if predIdx < 0 {
            return nil, 0, &FeatureMismatchError{Disease: spec.Disease, Want: features.ModelColumns(spec, lags), Got: cols}
        }
    }
    return lagIdx, predIdx, nil
}

// forecastMAE is the count-space mean absolute error over days with a
// recorded actual, nil when there are none.
func forecastMAE(points []models.ForecastPoint) *float64 {
    abs := make([]float64, 0, len(points))
    for _, p := range points {
        if p.Actual == nil {
            continue
        }
        abs = append(abs, math.Abs(float64(p.Predicted-*p.Actual)))
    }
    if len(abs) == 0 {
        return nil
    }
    mae := stat.Mean(abs, nil)
    return &mae
}

func equalColumns(a, b []string) bool {
    if len(a) != len(b) {
        return false
    }
    for i := range a {
        if a[i] != b[i] {
            return false
        }
    }
    return true
}

func indexOf(cols []string, name string) int {
    for i, c := range cols {
        if c == name {
            return i
        }
    }
    return -1
}
