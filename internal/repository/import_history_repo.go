package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type ImportHistoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewImportHistoryRepository(db *pgxpool.Pool, logger *zap.Logger) *ImportHistoryRepository {
	return &ImportHistoryRepository{db: db, logger: logger}
}

func (r *ImportHistoryRepository) Insert(ctx context.Context, h *model.ImportHistory) error {
	r.logger.Debug("Recording import start",
		zap.String("import_id", h.ID),
		zap.String("file_name", h.FileName),
	)
	query := `
        INSERT INTO import_history (
            id, entity_type, file_name, file_size, mapping_config, status,
            total_rows, success_count, error_count, skipped_count,
            results, created_by, started_at, completed_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	_, err := r.db.Exec(ctx, query,
		h.ID, h.EntityType, h.FileName, h.FileSize, h.MappingConfig, h.Status,
		h.TotalRows, h.SuccessCount, h.ErrorCount, h.SkippedCount,
		h.Results, h.CreatedBy, h.StartedAt, h.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record import start",
			zap.Error(err),
			zap.String("import_id", h.ID),
		)
		return err
	}
	return nil
}

func (r *ImportHistoryRepository) Update(ctx context.Context, h *model.ImportHistory) error {
	query := `
        UPDATE import_history
        SET status = $2,
            total_rows = $3,
            success_count = $4,
            error_count = $5,
            skipped_count = $6,
            results = $7,
            completed_at = $8
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query,
		h.ID, h.Status, h.TotalRows, h.SuccessCount, h.ErrorCount,
		h.SkippedCount, h.Results, h.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record import completion",
			zap.Error(err),
			zap.String("import_id", h.ID),
		)
		return err
	}
	r.logger.Info("Import recorded",
		zap.String("import_id", h.ID),
		zap.String("status", string(h.Status)),
	)
	return nil
}

func (r *ImportHistoryRepository) List(ctx context.Context, limit int) ([]model.ImportHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, entity_type, file_name, file_size, mapping_config, status,
               total_rows, success_count, error_count, skipped_count,
               results, created_by, started_at, completed_at
        FROM import_history
        ORDER BY started_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list import history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	history := []model.ImportHistory{}
	for rows.Next() {
		var h model.ImportHistory
		if err := rows.Scan(
			&h.ID, &h.EntityType, &h.FileName, &h.FileSize, &h.MappingConfig, &h.Status,
			&h.TotalRows, &h.SuccessCount, &h.ErrorCount, &h.SkippedCount,
			&h.Results, &h.CreatedBy, &h.StartedAt, &h.CompletedAt,
		); err != nil {
			r.logger.Error("Failed to scan import history row", zap.Error(err))
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *ImportHistoryRepository) ByID(ctx context.Context, id string) (*model.ImportHistory, error) {
	query := `
        SELECT id, entity_type, file_name, file_size, mapping_config, status,
               total_rows, success_count, error_count, skipped_count,
               results, created_by, started_at, completed_at
        FROM import_history
        WHERE id = $1
    `
	var h model.ImportHistory
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.EntityType, &h.FileName, &h.FileSize, &h.MappingConfig, &h.Status,
		&h.TotalRows, &h.SuccessCount, &h.ErrorCount, &h.SkippedCount,
		&h.Results, &h.CreatedBy, &h.StartedAt, &h.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find import history",
			zap.Error(err),
			zap.String("import_id", id),
		)
		return nil, err
	}
	return &h, nil
}
