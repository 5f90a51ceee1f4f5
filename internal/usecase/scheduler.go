package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"EpiCast/pkg/logger"
)

// ForecastScheduler regenerates every disease's stored forecasts on a cron
// schedule, the daily-forecasting analogue of the training queue.
type ForecastScheduler struct {
	pipeline *TrainingPipeline
	spec     string
	cron     *cron.Cron
	logger   *logger.Logger
}

func NewForecastScheduler(pipeline *TrainingPipeline, spec string, log *logger.Logger) (*ForecastScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	return &ForecastScheduler{pipeline: pipeline, spec: spec, logger: log}, nil
}

// Start registers the job and begins ticking. Runs overlap-safe: cron fires
// in its own goroutine and the pipeline serializes on storage writes.
func (s *ForecastScheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()
		if err := s.pipeline.RegenerateAll(runCtx); err != nil && s.logger != nil {
			s.logger.Error("scheduled forecast run failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: registering job: %w", err)
	}
	s.cron.Start()
	if s.logger != nil {
		s.logger.Info("forecast schedule started", logger.String("spec", s.spec))
	}
	return nil
}

// Stop halts the ticker and waits for a running job to finish.
func (s *ForecastScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
