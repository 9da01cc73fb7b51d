package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

// ReferenceRepository serves the import pipeline's lookups. It bundles
// product resolution with expert fuzzy matching so the pipeline wires
// a single store.
type ReferenceRepository struct {
	db       *pgxpool.Pool
	profiles *BusinessProfileRepository
	logger   *zap.Logger
}

func NewReferenceRepository(db *pgxpool.Pool, profiles *BusinessProfileRepository, logger *zap.Logger) *ReferenceRepository {
	return &ReferenceRepository{db: db, profiles: profiles, logger: logger}
}

func (r *ReferenceRepository) FindProductByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
        SELECT id, name
        FROM products
        WHERE id = $1
    `
	return r.scanProduct(ctx, query, id)
}

func (r *ReferenceRepository) FindProductFuzzy(ctx context.Context, q string) (*model.Product, error) {
	query := `
        SELECT id, name
        FROM products
        WHERE name ILIKE '%' || $1 || '%'
        ORDER BY created_at ASC, id ASC
        LIMIT 1
    `
	return r.scanProduct(ctx, query, q)
}

func (r *ReferenceRepository) FindExpertFuzzy(ctx context.Context, q string) (*model.BusinessProfile, error) {
	return r.profiles.FindExpertFuzzy(ctx, q)
}

func (r *ReferenceRepository) scanProduct(ctx context.Context, query, arg string) (*model.Product, error) {
	var p model.Product
	err := r.db.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to resolve product", zap.Error(err))
		return nil, err
	}
	return &p, nil
}
