package forecasting

import (
    "context"
    "math"
    "time"

    "gonum.org/v1/gonum/stat"

    "EpiCast/internal/domain/models"
    "EpiCast/internal/services/analytics"
    "EpiCast/internal/services/features"
    "EpiCast/pkg/logger"
    "EpiCast/pkg/randomforest"
    "EpiCast/pkg/util"
)

// Config carries the tunables shared by the trainer and forecaster. Zero
// values fall back to the pipeline defaults, so an empty Config is usable.
type Config struct {
    Lags    int
    Trees   int
    Seed    int64
    MinRows int
}

func (c Config) withDefaults() Config {
    if c.Lags <= 0 {
        c.Lags = features.DefaultLags
    }
    if c.Trees <= 0 {
        c.Trees = randomforest.DefaultTrees
    }
    if c.Seed == 0 {
        c.Seed = randomforest.DefaultSeed
    }
    if c.MinRows <= 0 {
        c.MinRows = c.Lags + 1
    }
    return c
}

// Trainer fits one seeded random forest per invocation from the joined
// daily series. Stateless and safe for concurrent use.
type Trainer struct {
    cfg    Config
    logger *logger.Logger
}

func NewTrainer(cfg Config, log *logger.Logger) *Trainer {
    return &Trainer{cfg: cfg.withDefaults(), logger: log}
}

// Train derives features from rows, restricts them to the training window
// and fits the forest. A zero trainStart or trainEnd leaves that side of the
// window open. The returned model carries the exact feature column order it
// was fitted on plus count-space training metrics.
func (t *Trainer) Train(ctx context.Context, spec models.DiseaseSpec, rows []models.SeriesRow, trainStart, trainEnd time.Time) (*models.TrainedModel, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }

    if !trainStart.IsZero() {
        start := util.Day(trainStart)
        kept := make([]models.SeriesRow, 0, len(rows))
        for _, r := range rows {
            if !util.Day(r.Date).Before(start) {
                kept = append(kept, r)
            }
        }
        rows = kept
    }

    frame, err := features.Build(rows, spec, t.cfg.Lags)
    if err != nil {
        return nil, err
    }
    if !trainEnd.IsZero() {
        frame = frame.FilterByDate(time.Time{}, util.Day(trainEnd))
    }

    if spec.PredictorColumn != "" {
        counts, _ := frame.Column(features.ColTarget)
        vals, keep, ok := analytics.TrainingPredictor(spec, frame.Dates(), counts)
        if ok {
            if err := frame.AddColumn(spec.PredictorColumn, vals); err != nil {
                return nil, err
            }
            frame = frame.Filter(keep)
        }
    }

    if frame.Len() < t.cfg.MinRows {
        return nil, &InsufficientDataError{Disease: spec.Disease, Rows: frame.Len(), Need: t.cfg.MinRows}
    }

    cols := features.ModelColumns(spec, t.cfg.Lags)
    x, err := frame.Matrix(cols)
    if err != nil {
        return nil, err
    }
    y, _ := frame.Column(features.ColY)

    forest, err := randomforest.Fit(x, y,
        randomforest.WithTrees(t.cfg.Trees),
        randomforest.WithSeed(t.cfg.Seed),
    )
    if err != nil {
        return nil, err
    }

    metrics := models.ModelMetrics{
        Algorithm:     "RandomForest",
        Trees:         t.cfg.Trees,
        Lags:          t.cfg.Lags,
        TrainMAE:      trainMAE(forest, x, y),
        TrainSamples:  frame.Len(),
        TrainingStart: frame.Date(0),
        TrainingEnd:   frame.Date(frame.Len() - 1),
    }

    if t.logger != nil {
        t.logger.Info("model trained",
            logger.String("disease", spec.Disease.String()),
            logger.Int("samples", metrics.TrainSamples),
            logger.Int("trees", metrics.Trees),
            logger.Any("train_mae", metrics.TrainMAE),
        )
    }

    return &models.TrainedModel{
        Disease:        spec.Disease,
        FeatureColumns: cols,
        Metrics:        metrics,
        Regressor:      forest,
        TrainedAt:      time.Now().UTC(),
    }, nil
}

// trainMAE is the in-sample mean absolute error in case counts: predictions
// and targets are inverse-transformed out of log space before differencing.
func trainMAE(forest *randomforest.Forest, x [][]float64, y []float64) float64 {
    if len(x) == 0 {
        return 0
    }
    preds := forest.PredictBatch(x)
    abs := make([]float64, len(preds))
    for i, p := range preds {
        abs[i] = math.Abs(math.Expm1(p) - math.Expm1(y[i]))
    }
    return stat.Mean(abs, nil)
}
