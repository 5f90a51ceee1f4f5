package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"EpiCast/internal/domain/models"
	"EpiCast/internal/domain/repository"
)

// ClickHouseSessionStore implements SessionStore for ClickHouse. The table
// is a ReplacingMergeTree keyed by id and versioned by updated_at, so every
// status transition is an insert and FINAL reads resolve to the newest row.
type ClickHouseSessionStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSessionStore creates ClickHouse-backed session storage.
func NewClickHouseSessionStore(db *sql.DB, table string) repository.SessionStore {
	return &ClickHouseSessionStore{db: db, table: table}
}

func (s *ClickHouseSessionStore) Create(ctx context.Context, sess *models.TrainingSession) error {
	return s.insert(ctx, sess)
}

func (s *ClickHouseSessionStore) Update(ctx context.Context, sess *models.TrainingSession) error {
	return s.insert(ctx, sess)
}

func (s *ClickHouseSessionStore) insert(ctx context.Context, sess *models.TrainingSession) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("repository: session without id")
	}
	q := fmt.Sprintf("INSERT INTO %s (id, disease, training_start, training_end, forecast_start, forecast_end, status, mae, model_id, error, forecast_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		sess.ID,
		string(sess.Disease),
		sess.TrainingStart,
		sess.TrainingEnd,
		sess.ForecastStart,
		sess.ForecastEnd,
		string(sess.Status),
		nullableFloat(sess.MAE),
		sess.ModelID,
		sess.Error,
		sess.ForecastCount,
		sess.CreatedAt,
		sess.UpdatedAt,
	)
	return err
}

func (s *ClickHouseSessionStore) Get(ctx context.Context, id string) (*models.TrainingSession, error) {
	q := fmt.Sprintf("SELECT id, disease, training_start, training_end, forecast_start, forecast_end, status, mae, model_id, error, forecast_count, created_at, updated_at FROM %s FINAL WHERE id = ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("repository: session %s: %w", id, sql.ErrNoRows)
	}
	sess, err := scanSession(rows)
	if err != nil {
		return nil, err
	}
	return sess, rows.Err()
}

func (s *ClickHouseSessionStore) List(ctx context.Context, limit int) ([]models.TrainingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf("SELECT id, disease, training_start, training_end, forecast_start, forecast_end, status, mae, model_id, error, forecast_count, created_at, updated_at FROM %s FINAL ORDER BY created_at DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.TrainingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func scanSession(rows *sql.Rows) (*models.TrainingSession, error) {
	var sess models.TrainingSession
	var disease, status string
	var mae sql.NullFloat64
	var start, end, fcStart, fcEnd time.Time
	if err := rows.Scan(&sess.ID, &disease, &start, &end, &fcStart, &fcEnd, &status, &mae, &sess.ModelID, &sess.Error, &sess.ForecastCount, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}
	sess.Disease = models.Disease(disease)
	sess.Status = models.SessionStatus(status)
	sess.TrainingStart, sess.TrainingEnd = start, end
	sess.ForecastStart, sess.ForecastEnd = fcStart, fcEnd
	if mae.Valid {
		v := mae.Float64
		sess.MAE = &v
	}
	return &sess, nil
}
