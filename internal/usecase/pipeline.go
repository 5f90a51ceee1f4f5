package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"EpiCast/internal/domain/models"
	drepo "EpiCast/internal/domain/repository"
	"EpiCast/internal/service/registry"
	"EpiCast/internal/services/features"
	"EpiCast/internal/services/forecasting"
	"EpiCast/pkg/cache"
	"EpiCast/pkg/logger"
	"EpiCast/pkg/util"
)

// defaultRegion tags stored forecast rows. The pipeline currently models
// one national series per disease.
const defaultRegion = "Pakistan"

// forecastCachePrefix keys the latest cached result per disease.
const forecastCachePrefix = "forecast:latest"

// TrainingPipeline drives one disease through load, train, save and
// forecast. It is the single body behind queue jobs, the CLI and the daily
// schedule, and holds no per-run state of its own.
type TrainingPipeline struct {
	series     drepo.SeriesStore
	forecasts  drepo.ForecastStore
	sessions   drepo.SessionStore
	modelMeta  drepo.ModelMetaStore
	registry   drepo.ModelRegistry
	trainer    *forecasting.Trainer
	forecaster *forecasting.Forecaster
	metrics    drepo.Metrics
	cache      cache.Service
	cacheTTL   time.Duration
	horizon    int
	logger     *logger.Logger
}

func NewTrainingPipeline(
	series drepo.SeriesStore,
	forecasts drepo.ForecastStore,
	sessions drepo.SessionStore,
	modelMeta drepo.ModelMetaStore,
	registry drepo.ModelRegistry,
	trainer *forecasting.Trainer,
	forecaster *forecasting.Forecaster,
	metrics drepo.Metrics,
	cacheSvc cache.Service,
	cacheTTL time.Duration,
	horizon int,
	log *logger.Logger,
) *TrainingPipeline {
	if horizon <= 0 {
		horizon = 14
	}
	return &TrainingPipeline{
		series:     series,
		forecasts:  forecasts,
		sessions:   sessions,
		modelMeta:  modelMeta,
		registry:   registry,
		trainer:    trainer,
		forecaster: forecaster,
		metrics:    metrics,
		cache:      cacheSvc,
		cacheTTL:   cacheTTL,
		horizon:    horizon,
		logger:     log,
	}
}

// loadJoined reads both input series through `through` and joins them into
// the daily modelling rows. Either series being entirely absent is a typed
// failure, not an empty result.
func (p *TrainingPipeline) loadJoined(ctx context.Context, spec models.DiseaseSpec, through time.Time) ([]models.SeriesRow, []models.LabTest, error) {
	lab, err := p.series.LabTests(ctx, spec.Disease, time.Time{}, through)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: loading lab tests for %s: %w", spec.Disease, err)
	}
	if len(lab) == 0 {
		return nil, nil, &forecasting.MissingSeriesError{Disease: spec.Disease, Series: "lab test"}
	}
	sales, err := p.series.Sales(ctx, spec.Medicines, time.Time{}, through)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: loading sales for %s: %w", spec.Disease, err)
	}
	if len(sales) == 0 {
		return nil, nil, &forecasting.MissingSeriesError{Disease: spec.Disease, Series: "medicine sales"}
	}
	return features.JoinSeries(lab, sales, spec.Medicines), lab, nil
}

// TrainAndForecast trains a fresh model over the training window, publishes
// the artifact and catalog row, and runs the recursive forecast over the
// forecast window. The returned meta row carries the artifact path.
func (p *TrainingPipeline) TrainAndForecast(
	ctx context.Context,
	disease models.Disease,
	trainStart, trainEnd, fcStart, fcEnd time.Time,
	sessionID string,
) (*models.ModelMeta, *models.ForecastResult, error) {
	spec, ok := models.SpecFor(disease)
	if !ok {
		return nil, nil, fmt.Errorf("pipeline: unknown disease %q", disease)
	}

	rows, lab, err := p.loadJoined(ctx, spec, fcEnd)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	model, err := p.trainer.Train(ctx, spec, rows, trainStart, trainEnd)
	if err != nil {
		return nil, nil, err
	}
	p.metrics.RecordLatency("train", time.Since(start).Seconds())

	path, err := p.registry.Save(ctx, model)
	if err != nil {
		return nil, nil, err
	}

	meta, err := p.storeMeta(ctx, model, path, sessionID)
	if err != nil {
		return nil, nil, err
	}

	start = time.Now()
	result, err := p.forecaster.Forecast(ctx, model, rows, lab, fcStart, fcEnd)
	if err != nil {
		return nil, nil, err
	}
	p.metrics.RecordLatency("forecast", time.Since(start).Seconds())

	p.recordForecast(ctx, result)
	return meta, result, nil
}

// RunSession executes one requested train-and-forecast session, driving its
// status from PENDING through TRAINING to COMPLETED or FAILED. The returned
// error mirrors what was written to the session row.
func (p *TrainingPipeline) RunSession(ctx context.Context, sessionID string) error {
	sess, err := p.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("pipeline: loading session %s: %w", sessionID, err)
	}

	sess.Status = models.SessionTraining
	sess.UpdatedAt = time.Now().UTC()
	if err := p.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("pipeline: marking session %s training: %w", sessionID, err)
	}

	meta, result, err := p.TrainAndForecast(ctx,
		sess.Disease, sess.TrainingStart, sess.TrainingEnd, sess.ForecastStart, sess.ForecastEnd, sess.ID)
	if err != nil {
		p.metrics.RecordTrainingRun(sess.Disease.String(), "failed")
		sess.Status = models.SessionFailed
		sess.Error = err.Error()
		sess.UpdatedAt = time.Now().UTC()
		if uerr := p.sessions.Update(ctx, sess); uerr != nil && p.logger != nil {
			p.logger.Error("session failure not recorded", logger.Error(uerr), logger.String("session", sess.ID))
		}
		return err
	}

	records := recordsFrom(result, meta.ID, sess.ID)
	if err := p.forecasts.Store(ctx, records); err != nil {
		return fmt.Errorf("pipeline: storing forecasts for session %s: %w", sess.ID, err)
	}

	sess.Status = models.SessionCompleted
	sess.MAE = result.MAE
	sess.ModelID = meta.ID
	sess.ForecastCount = len(records)
	sess.UpdatedAt = time.Now().UTC()
	if err := p.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("pipeline: completing session %s: %w", sess.ID, err)
	}

	p.metrics.RecordTrainingRun(sess.Disease.String(), "completed")
	if p.logger != nil {
		p.logger.Info("training session completed",
			logger.String("session", sess.ID),
			logger.String("disease", sess.Disease.String()),
			logger.Int("forecasts", len(records)),
			logger.Any("mae", result.MAE),
		)
	}
	return nil
}

// Regenerate refreshes stored forecasts for one disease from its latest
// saved artifact: the horizon after the model's training end, clamped to
// the last date both series cover. Prior rows for the disease are replaced.
func (p *TrainingPipeline) Regenerate(ctx context.Context, disease models.Disease) (int, error) {
	spec, ok := models.SpecFor(disease)
	if !ok {
		return 0, fmt.Errorf("pipeline: unknown disease %q", disease)
	}

	model, err := p.registry.Load(ctx, disease)
	if err != nil {
		return 0, err
	}

	fcStart := util.NextDay(model.Metrics.TrainingEnd)
	fcEnd := fcStart.AddDate(0, 0, p.horizon-1)

	rows, lab, err := p.loadJoined(ctx, spec, fcEnd)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, &forecasting.DataRangeError{Disease: disease, Requested: fcStart}
	}
	if last := rows[len(rows)-1].Date; fcEnd.After(last) {
		fcEnd = last
	}
	if fcEnd.Before(fcStart) {
		return 0, &forecasting.DataRangeError{Disease: disease, Requested: fcStart, Max: fcEnd}
	}

	result, err := p.forecaster.Forecast(ctx, model, rows, lab, fcStart, fcEnd)
	if err != nil {
		return 0, err
	}

	meta, err := p.modelMeta.Latest(ctx, disease)
	modelID := ""
	if err == nil && meta != nil {
		modelID = meta.ID
	}

	records := recordsFrom(result, modelID, "")
	if err := p.forecasts.ReplaceForDisease(ctx, disease, records); err != nil {
		return 0, fmt.Errorf("pipeline: replacing forecasts for %s: %w", disease, err)
	}

	p.recordForecast(ctx, result)
	if p.logger != nil {
		p.logger.Info("forecasts regenerated",
			logger.String("disease", disease.String()),
			logger.Int("days", len(records)),
			logger.Any("mae", result.MAE),
		)
	}
	return len(records), nil
}

// RegenerateAll runs Regenerate for every configured disease. A disease
// without a saved artifact is skipped, not fatal; other failures are
// collected and the first is returned.
func (p *TrainingPipeline) RegenerateAll(ctx context.Context) error {
	var firstErr error
	for _, spec := range models.AllSpecs() {
		_, err := p.Regenerate(ctx, spec.Disease)
		if err == nil {
			continue
		}
		var notFound *registry.ModelNotFoundError
		if errors.As(err, &notFound) {
			if p.logger != nil {
				p.logger.Warn("no saved model, skipping scheduled forecast",
					logger.String("disease", spec.Disease.String()))
			}
			continue
		}
		p.metrics.RecordError("scheduled_forecast")
		if p.logger != nil {
			p.logger.Error("scheduled forecast failed",
				logger.String("disease", spec.Disease.String()), logger.Error(err))
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// storeMeta writes the catalog row for a freshly saved artifact.
func (p *TrainingPipeline) storeMeta(ctx context.Context, model *models.TrainedModel, path, sessionID string) (*models.ModelMeta, error) {
	name := fmt.Sprintf("%s_model", model.Disease)
	version := "1.0"
	if sessionID != "" {
		name = fmt.Sprintf("%s_model_custom_%s", model.Disease, sessionID)
		version = "custom_" + sessionID
	}

	metricsJSON, err := json.Marshal(model.Metrics)
	if err != nil {
		return nil, fmt.Errorf("pipeline: serializing metrics: %w", err)
	}

	meta := &models.ModelMeta{
		ID:           uuid.NewString(),
		Name:         name,
		Version:      version,
		Algorithm:    model.Metrics.Algorithm,
		Disease:      model.Disease,
		ArtifactPath: path,
		Status:       models.ModelTrained,
		TrainMAE:     model.Metrics.TrainMAE,
		MetricsJSON:  string(metricsJSON),
		TrainedAt:    model.TrainedAt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.modelMeta.Store(ctx, meta); err != nil {
		return nil, fmt.Errorf("pipeline: storing model meta: %w", err)
	}
	return meta, nil
}

// recordForecast updates the horizon gauge and caches the latest result.
func (p *TrainingPipeline) recordForecast(ctx context.Context, result *models.ForecastResult) {
	total := 0
	for _, pt := range result.Points {
		total += pt.Predicted
	}
	p.metrics.RecordPredictedCases(result.Disease.String(), float64(total))

	if p.cache == nil {
		return
	}
	key := cache.GenerateKey(forecastCachePrefix, result.Disease.String())
	if err := p.cache.Set(ctx, key, result, p.cacheTTL); err != nil && p.logger != nil {
		p.logger.Warn("forecast cache write failed", logger.Error(err), logger.String("key", key))
	}
}

// CachedForecast returns the most recent cached result for a disease, or
// cache.ErrCacheMiss.
func (p *TrainingPipeline) CachedForecast(ctx context.Context, disease models.Disease) (*models.ForecastResult, error) {
	if p.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	var result models.ForecastResult
	key := cache.GenerateKey(forecastCachePrefix, disease.String())
	if err := p.cache.Get(ctx, key, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func recordsFrom(result *models.ForecastResult, modelID, sessionID string) []models.ForecastRecord {
	now := time.Now().UTC()
	records := make([]models.ForecastRecord, len(result.Points))
	for i, pt := range result.Points {
		records[i] = models.ForecastRecord{
			ID:        uuid.NewString(),
			ModelID:   modelID,
			SessionID: sessionID,
			Disease:   result.Disease,
			Region:    defaultRegion,
			Date:      pt.Date,
			Predicted: pt.Predicted,
			Actual:    pt.Actual,
			MAE:       result.MAE,
			CreatedAt: now,
		}
	}
	return records
}
