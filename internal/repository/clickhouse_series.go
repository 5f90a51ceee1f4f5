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

// ClickHouseSeriesStore implements SeriesStore for ClickHouse. Both tables
// are ReplacingMergeTree keyed by (series key, date), so re-importing a file
// overwrites rather than duplicates.
type ClickHouseSeriesStore struct {
	db         *sql.DB
	labTable   string
	salesTable string
}

// NewClickHouseSeriesStore creates ClickHouse-backed series storage.
func NewClickHouseSeriesStore(db *sql.DB, labTable, salesTable string) repository.SeriesStore {
	return &ClickHouseSeriesStore{db: db, labTable: labTable, salesTable: salesTable}
}

func (s *ClickHouseSeriesStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseSeriesStore) StoreLabTests(ctx context.Context, tests []models.LabTest) error {
	if len(tests) == 0 {
		return nil
	}
	const chunkSize = 2000
	now := time.Now().UTC()
	for start := 0; start < len(tests); start += chunkSize {
		end := start + chunkSize
		if end > len(tests) {
			end = len(tests)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, t := range tests[start:end] {
			if t.Date.IsZero() || t.Disease == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, t.Date, string(t.Disease), t.TotalTests, t.PositiveTests, now)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (date, disease, total_tests, positive_tests, updated_at) VALUES %s",
			s.labTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSeriesStore) StoreSales(ctx context.Context, sales []models.MedicineSale) error {
	if len(sales) == 0 {
		return nil
	}
	const chunkSize = 2000
	now := time.Now().UTC()
	for start := 0; start < len(sales); start += chunkSize {
		end := start + chunkSize
		if end > len(sales) {
			end = len(sales)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, m := range sales[start:end] {
			if m.Date.IsZero() || m.Medicine == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, m.Date, m.Medicine, m.Sale, string(m.DiseaseCategory), now)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (date, medicine, sale, disease_category, updated_at) VALUES %s",
			s.salesTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSeriesStore) LabTests(ctx context.Context, disease models.Disease, from, to time.Time) ([]models.LabTest, error) {
	q := fmt.Sprintf("SELECT date, total_tests, positive_tests FROM %s FINAL WHERE disease = ?", s.labTable)
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

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []models.LabTest
	for rows.Next() {
		t := models.LabTest{Disease: disease}
		if err := rows.Scan(&t.Date, &t.TotalTests, &t.PositiveTests); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (s *ClickHouseSeriesStore) Sales(ctx context.Context, medicines []string, from, to time.Time) ([]models.MedicineSale, error) {
	if len(medicines) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf("SELECT date, medicine, sale, disease_category FROM %s FINAL WHERE medicine IN (%s)",
		s.salesTable, placeholders(len(medicines)))
	args := make([]interface{}, 0, len(medicines)+2)
	for _, m := range medicines {
		args = append(args, m)
	}
	if !from.IsZero() {
		q += " AND date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND date <= ?"
		args = append(args, to)
	}
	q += " ORDER BY date, medicine"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.MedicineSale
	for rows.Next() {
		var m models.MedicineSale
		var category string
		if err := rows.Scan(&m.Date, &m.Medicine, &m.Sale, &category); err != nil {
			return nil, err
		}
		m.DiseaseCategory = models.Disease(category)
		sales = append(sales, m)
	}
	return sales, rows.Err()
}

func (s *ClickHouseSeriesStore) LabRange(ctx context.Context, disease models.Disease) (time.Time, time.Time, error) {
	q := fmt.Sprintf("SELECT min(date), max(date), count() FROM %s FINAL WHERE disease = ?", s.labTable)
	return s.scanRange(ctx, q, string(disease))
}

func (s *ClickHouseSeriesStore) SalesRange(ctx context.Context, medicines []string) (time.Time, time.Time, error) {
	if len(medicines) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	q := fmt.Sprintf("SELECT min(date), max(date), count() FROM %s FINAL WHERE medicine IN (%s)",
		s.salesTable, placeholders(len(medicines)))
	args := make([]interface{}, len(medicines))
	for i, m := range medicines {
		args[i] = m
	}
	return s.scanRange(ctx, q, args...)
}

func (s *ClickHouseSeriesStore) scanRange(ctx context.Context, q string, args ...interface{}) (time.Time, time.Time, error) {
	var from, to time.Time
	var count uint64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&from, &to, &count); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if count == 0 {
		// Aggregates over an empty set yield epoch defaults, not NULL.
		return time.Time{}, time.Time{}, nil
	}
	return from, to, nil
}

func (s *ClickHouseSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSeriesStore) Close() error {
	return nil // Managed by pkg
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
