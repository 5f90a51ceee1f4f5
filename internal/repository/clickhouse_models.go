package repository

import (
	"context"
	"database/sql"
	"fmt"

	"EpiCast/internal/domain/models"
	"EpiCast/internal/domain/repository"
)

// ClickHouseModelMetaStore implements ModelMetaStore for ClickHouse. Every
// saved artifact gets a catalog row; Latest resolves by trained_at.
type ClickHouseModelMetaStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseModelMetaStore creates ClickHouse-backed model metadata storage.
func NewClickHouseModelMetaStore(db *sql.DB, table string) repository.ModelMetaStore {
	return &ClickHouseModelMetaStore{db: db, table: table}
}

func (s *ClickHouseModelMetaStore) Store(ctx context.Context, meta *models.ModelMeta) error {
	if meta == nil || meta.ID == "" {
		return fmt.Errorf("repository: model meta without id")
	}
	q := fmt.Sprintf("INSERT INTO %s (id, name, version, algorithm, disease, artifact_path, status, train_mae, metrics, trained_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		meta.ID,
		meta.Name,
		meta.Version,
		meta.Algorithm,
		string(meta.Disease),
		meta.ArtifactPath,
		string(meta.Status),
		meta.TrainMAE,
		meta.MetricsJSON,
		meta.TrainedAt,
		meta.CreatedAt,
	)
	return err
}

// Latest returns the newest catalog row for a disease, or nil when the
// disease has never been trained.
func (s *ClickHouseModelMetaStore) Latest(ctx context.Context, disease models.Disease) (*models.ModelMeta, error) {
	q := fmt.Sprintf("SELECT id, name, version, algorithm, disease, artifact_path, status, train_mae, metrics, trained_at, created_at FROM %s FINAL WHERE disease = ? ORDER BY trained_at DESC LIMIT 1", s.table)
	rows, err := s.db.QueryContext(ctx, q, string(disease))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	meta, err := scanModelMeta(rows)
	if err != nil {
		return nil, err
	}
	return meta, rows.Err()
}

func (s *ClickHouseModelMetaStore) List(ctx context.Context, disease models.Disease, limit int) ([]models.ModelMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf("SELECT id, name, version, algorithm, disease, artifact_path, status, train_mae, metrics, trained_at, created_at FROM %s FINAL", s.table)
	args := make([]interface{}, 0, 2)
	if disease != "" {
		q += " WHERE disease = ?"
		args = append(args, string(disease))
	}
	q += " ORDER BY trained_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []models.ModelMeta
	for rows.Next() {
		meta, err := scanModelMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, *meta)
	}
	return metas, rows.Err()
}

func scanModelMeta(rows *sql.Rows) (*models.ModelMeta, error) {
	var meta models.ModelMeta
	var disease, status string
	if err := rows.Scan(&meta.ID, &meta.Name, &meta.Version, &meta.Algorithm, &disease, &meta.ArtifactPath, &status, &meta.TrainMAE, &meta.MetricsJSON, &meta.TrainedAt, &meta.CreatedAt); err != nil {
		return nil, err
	}
	meta.Disease = models.Disease(disease)
	meta.Status = models.ModelStatus(status)
	return &meta, nil
}
