package models

import (
	"time"

	"EpiCast/pkg/randomforest"
)

// ModelMetrics summarizes one training run. TrainMAE is reported in count
// space, after inverse-transforming predictions out of log space.
type ModelMetrics struct {
	Algorithm     string    `json:"algorithm"`
	Trees         int       `json:"trees"`
	Lags          int       `json:"lags"`
	TrainMAE      float64   `json:"train_mae"`
	TrainSamples  int       `json:"train_samples"`
	TrainingStart time.Time `json:"training_start"`
	TrainingEnd   time.Time `json:"training_end"`
}

// TrainedModel is the unit stored in and loaded from the model registry.
// Immutable once created; a retrain produces a new instance. The feature
// column order is part of the artifact and is validated before prediction.
type TrainedModel struct {
	Disease        Disease              `json:"disease"`
	FeatureColumns []string             `json:"feature_columns"`
	Metrics        ModelMetrics         `json:"metrics"`
	Regressor      *randomforest.Forest `json:"regressor"`
	TrainedAt      time.Time            `json:"trained_at"`
}

type ModelStatus string

const (
	ModelPending  ModelStatus = "PENDING"
	ModelTraining ModelStatus = "TRAINING"
	ModelTrained  ModelStatus = "TRAINED"
	ModelFailed   ModelStatus = "FAILED"
	ModelArchived ModelStatus = "ARCHIVED"
)

// ModelMeta is the catalog row kept for every saved artifact.
type ModelMeta struct {
	ID           string
	Name         string
	Version      string
	Algorithm    string
	Disease      Disease
	ArtifactPath string
	Status       ModelStatus
	TrainMAE     float64
	MetricsJSON  string
	TrainedAt    time.Time
	CreatedAt    time.Time
}
