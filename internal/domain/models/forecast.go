package models

import "time"

// ForecastPoint is one predicted day. Actual is nil for dates with no
// recorded ground truth.
type ForecastPoint struct {
	Date      time.Time
	Predicted int
	Actual    *int
}

// ForecastResult is the output of one recursive forecast run. MAE is nil
// when no day in the horizon had an actual value.
type ForecastResult struct {
	Disease Disease
	Start   time.Time
	End     time.Time
	Points  []ForecastPoint
	MAE     *float64
}

// ForecastRecord is the persisted form of one forecast day.
type ForecastRecord struct {
	ID        string
	ModelID   string
	SessionID string // empty for scheduled runs
	Disease   Disease
	Region    string
	Date      time.Time
	Predicted int
	Actual    *int
	MAE       *float64 // horizon-level MAE, repeated on each row
	CreatedAt time.Time
}

type SessionStatus string

const (
	SessionPending   SessionStatus = "PENDING"
	SessionTraining  SessionStatus = "TRAINING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionFailed    SessionStatus = "FAILED"
)

// TrainingSession is one requested train-and-forecast run over custom
// date ranges.
type TrainingSession struct {
	ID            string
	Disease       Disease
	TrainingStart time.Time
	TrainingEnd   time.Time
	ForecastStart time.Time
	ForecastEnd   time.Time
	Status        SessionStatus
	MAE           *float64
	ModelID       string
	Error         string
	ForecastCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
