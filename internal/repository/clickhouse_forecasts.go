package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"EpiCast/internal/domain/models"
	"EpiCast/internal/domain/repository"
)

// ClickHouseForecastStore implements ForecastStore for ClickHouse. The table
// is a plain MergeTree; the scheduled regeneration path deletes a disease's
// rows and inserts the fresh horizon.
type ClickHouseForecastStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseForecastStore creates ClickHouse-backed forecast storage.
func NewClickHouseForecastStore(db *sql.DB, table string) repository.ForecastStore {
	return &ClickHouseForecastStore{db: db, table: table}
}

func (s *ClickHouseForecastStore) Store(ctx context.Context, records []models.ForecastRecord) error {
	if len(records) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, r := range records[start:end] {
			if r.ID == "" || r.Date.IsZero() || r.Disease == "" {
				continue
			}
			created := r.CreatedAt
			if created.IsZero() {
				created = time.Now().UTC()
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.ID,
				r.ModelID,
				r.SessionID,
				string(r.Disease),
				r.Region,
				r.Date,
				r.Predicted,
				nullableInt(r.Actual),
				nullableFloat(r.MAE),
				created,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (id, model_id, session_id, disease, region, date, predicted_cases, actual_cases, mae, created_at) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseForecastStore) ReplaceForDisease(ctx context.Context, disease models.Disease, records []models.ForecastRecord) error {
	q := fmt.Sprintf("ALTER TABLE %s DELETE WHERE disease = ?", s.table)
	if _, err := s.db.ExecContext(ctx, q, string(disease)); err != nil {
		return err
	}
	return s.Store(ctx, records)
}

func (s *ClickHouseForecastStore) ByDisease(ctx context.Context, disease models.Disease, from, to time.Time, limit int) ([]models.ForecastRecord, error) {
	q := fmt.Sprintf("SELECT id, model_id, session_id, disease, region, date, predicted_cases, actual_cases, mae, created_at FROM %s WHERE disease = ?", s.table)
	args := []interface{}{string(disease)}
	if !from.IsZero() {
		q += " AND date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND date <= ?"
		args = append(args, to)
	}
	q += " ORDER BY date"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ForecastRecord
	for rows.Next() {
		var r models.ForecastRecord
		var dis string
		var actual sql.NullInt64
		var mae sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.ModelID, &r.SessionID, &dis, &r.Region, &r.Date, &r.Predicted, &actual, &mae, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Disease = models.Disease(dis)
		if actual.Valid {
			v := int(actual.Int64)
			r.Actual = &v
		}
		if mae.Valid {
			v := mae.Float64
			r.MAE = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int32(*v)
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
