package repository

import (
	"context"
	"time"

	"EpiCast/internal/domain/models"
)

// SeriesStore persists and serves the two daily input series. Zero from/to
// bounds mean the full recorded range.
type SeriesStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreLabTests(ctx context.Context, tests []models.LabTest) error
	StoreSales(ctx context.Context, sales []models.MedicineSale) error
	LabTests(ctx context.Context, disease models.Disease, from, to time.Time) ([]models.LabTest, error)
	Sales(ctx context.Context, medicines []string, from, to time.Time) ([]models.MedicineSale, error)
	LabRange(ctx context.Context, disease models.Disease) (time.Time, time.Time, error)
	SalesRange(ctx context.Context, medicines []string) (time.Time, time.Time, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// ForecastStore persists generated forecast rows. ReplaceForDisease is the
// scheduled regeneration path: drop everything for the disease, then insert
// the fresh horizon.
type ForecastStore interface {
	Store(ctx context.Context, records []models.ForecastRecord) error
	ReplaceForDisease(ctx context.Context, disease models.Disease, records []models.ForecastRecord) error
	ByDisease(ctx context.Context, disease models.Disease, from, to time.Time, limit int) ([]models.ForecastRecord, error)
}

// SessionStore tracks requested train-and-forecast sessions through their
// status transitions.
type SessionStore interface {
	Create(ctx context.Context, s *models.TrainingSession) error
	Update(ctx context.Context, s *models.TrainingSession) error
	Get(ctx context.Context, id string) (*models.TrainingSession, error)
	List(ctx context.Context, limit int) ([]models.TrainingSession, error)
}

// ModelMetaStore catalogs every saved artifact.
type ModelMetaStore interface {
	Store(ctx context.Context, meta *models.ModelMeta) error
	Latest(ctx context.Context, disease models.Disease) (*models.ModelMeta, error)
	List(ctx context.Context, disease models.Disease, limit int) ([]models.ModelMeta, error)
}

// ModelRegistry stores and loads trained artifacts, one latest slot per
// disease.
type ModelRegistry interface {
	Save(ctx context.Context, model *models.TrainedModel) (string, error)
	Load(ctx context.Context, disease models.Disease) (*models.TrainedModel, error)
}

// RecordPublisher hands imported records to the streaming backend.
type RecordPublisher interface {
	PublishLabTests(ctx context.Context, tests []models.LabTest) error
	PublishSales(ctx context.Context, sales []models.MedicineSale) error
	Close() error
}

type Metrics interface {
	RecordRecordsStored(backend, kind string, n int)
	RecordError(kind string)
	RecordPredictedCases(disease string, cases float64)
	RecordLatency(op string, seconds float64)
	RecordTrainingRun(disease, status string)
}
