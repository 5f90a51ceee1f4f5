package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"EpiCast/internal/domain/models"
	drepo "EpiCast/internal/domain/repository"
	"EpiCast/pkg/logger"
	"EpiCast/pkg/queue"
	"EpiCast/pkg/util"
)

// TrainSessionJobType is the queue message type for background training.
const TrainSessionJobType = "forecasting:train_session"

// TrainSessionPayload is the queue message body. Only the session id
// travels; everything else lives on the session row.
type TrainSessionPayload struct {
	SessionID string `json:"session_id"`
}

// TrainSessionJob consumes train-session messages and runs the pipeline.
type TrainSessionJob struct {
	pipeline *TrainingPipeline
	logger   *logger.Logger
}

func NewTrainSessionJob(pipeline *TrainingPipeline, log *logger.Logger) *TrainSessionJob {
	return &TrainSessionJob{pipeline: pipeline, logger: log}
}

func (j *TrainSessionJob) Name() string { return "train-session" }
func (j *TrainSessionJob) Type() string { return TrainSessionJobType }

func (j *TrainSessionJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TrainSessionPayload](payload)
	if err != nil {
		return fmt.Errorf("jobs: parsing train-session payload: %w", err)
	}
	if j.logger != nil {
		j.logger.Info("train-session job started", logger.String("session", p.SessionID))
	}
	return j.pipeline.RunSession(ctx, p.SessionID)
}

var _ queue.Job = (*TrainSessionJob)(nil)

// SessionRequest is a caller-validated ask for a custom train-and-forecast
// run. The forecast must start the day after training ends.
type SessionRequest struct {
	Disease       models.Disease
	TrainingStart time.Time
	TrainingEnd   time.Time
	ForecastStart time.Time
	ForecastEnd   time.Time
}

func (r SessionRequest) validate() error {
	if _, ok := models.SpecFor(r.Disease); !ok {
		return fmt.Errorf("unknown disease %q", r.Disease)
	}
	if r.TrainingStart.IsZero() || r.TrainingEnd.IsZero() || r.ForecastStart.IsZero() || r.ForecastEnd.IsZero() {
		return fmt.Errorf("all four dates are required")
	}
	if r.TrainingEnd.Before(r.TrainingStart) {
		return fmt.Errorf("training end precedes training start")
	}
	if r.ForecastEnd.Before(r.ForecastStart) {
		return fmt.Errorf("forecast end precedes forecast start")
	}
	if !util.Day(r.ForecastStart).Equal(util.NextDay(r.TrainingEnd)) {
		return fmt.Errorf("forecast must start the day after training ends")
	}
	return nil
}

// SessionService creates session rows and hands them to the queue, or runs
// them synchronously when no queue is configured.
type SessionService struct {
	sessions  drepo.SessionStore
	pipeline  *TrainingPipeline
	publisher queue.QueueService // nil means run inline
	logger    *logger.Logger
}

func NewSessionService(sessions drepo.SessionStore, pipeline *TrainingPipeline, publisher queue.QueueService, log *logger.Logger) *SessionService {
	return &SessionService{sessions: sessions, pipeline: pipeline, publisher: publisher, logger: log}
}

// Submit records the session and queues it for a worker. With no queue the
// pipeline runs in the calling goroutine before Submit returns.
func (s *SessionService) Submit(ctx context.Context, req SessionRequest) (*models.TrainingSession, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}

	now := time.Now().UTC()
	sess := &models.TrainingSession{
		ID:            uuid.NewString(),
		Disease:       req.Disease,
		TrainingStart: util.Day(req.TrainingStart),
		TrainingEnd:   util.Day(req.TrainingEnd),
		ForecastStart: util.Day(req.ForecastStart),
		ForecastEnd:   util.Day(req.ForecastEnd),
		Status:        models.SessionPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("sessions: creating session: %w", err)
	}

	if s.publisher == nil {
		if err := s.pipeline.RunSession(ctx, sess.ID); err != nil {
			return sess, err
		}
		return s.sessions.Get(ctx, sess.ID)
	}

	if err := s.publisher.PublishMessage(ctx, TrainSessionJobType, TrainSessionPayload{SessionID: sess.ID}); err != nil {
		return nil, fmt.Errorf("sessions: queueing session %s: %w", sess.ID, err)
	}
	if s.logger != nil {
		s.logger.Info("training session queued",
			logger.String("session", sess.ID),
			logger.String("disease", sess.Disease.String()),
		)
	}
	return sess, nil
}
