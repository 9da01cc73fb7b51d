package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type BusinessProfileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBusinessProfileRepository(db *pgxpool.Pool, logger *zap.Logger) *BusinessProfileRepository {
	return &BusinessProfileRepository{db: db, logger: logger}
}

func (r *BusinessProfileRepository) EmailExists(ctx context.Context, entityType model.EntityType, email string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM business_profiles
            WHERE type = $1 AND lower(email) = lower($2)
        )
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, entityType, email).Scan(&exists); err != nil {
		r.logger.Error("Failed to check email uniqueness",
			zap.Error(err),
			zap.String("email", email),
		)
		return false, err
	}
	return exists, nil
}

func (r *BusinessProfileRepository) SIRENExists(ctx context.Context, entityType model.EntityType, siren string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM business_profiles
            WHERE type = $1 AND siren = $2
        )
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, entityType, siren).Scan(&exists); err != nil {
		r.logger.Error("Failed to check siren uniqueness",
			zap.Error(err),
			zap.String("siren", siren),
		)
		return false, err
	}
	return exists, nil
}

func (r *BusinessProfileRepository) Insert(ctx context.Context, p *model.BusinessProfile) error {
	r.logger.Debug("Inserting business profile",
		zap.String("profile_id", p.ID),
		zap.String("type", string(p.Type)),
		zap.String("email", p.Email),
	)
	query := `
        INSERT INTO business_profiles (
            id, type, auth_id, email, first_name, last_name, company_name,
            siren, phone, address, city, postal_code, revenue, employees,
            created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Type, p.AuthID, p.Email, p.FirstName, p.LastName, p.CompanyName,
		p.SIREN, p.Phone, p.Address, p.City, p.PostalCode, p.Revenue, p.Employees,
		p.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert business profile",
			zap.Error(err),
			zap.String("email", p.Email),
		)
		return err
	}
	r.logger.Info("Business profile inserted successfully",
		zap.String("profile_id", p.ID),
		zap.String("type", string(p.Type)),
	)
	return nil
}

// FindExpertFuzzy resolves free text against expert profiles by
// case-insensitive substring on name or email. Oldest profile wins to
// keep repeated imports deterministic.
func (r *BusinessProfileRepository) FindExpertFuzzy(ctx context.Context, query string) (*model.BusinessProfile, error) {
	sql := `
        SELECT id, type, auth_id, email, first_name, last_name, company_name,
               siren, phone, address, city, postal_code, revenue, employees,
               created_at
        FROM business_profiles
        WHERE type = 'expert'
        AND (
            (first_name || ' ' || last_name) ILIKE '%' || $1 || '%'
            OR company_name ILIKE '%' || $1 || '%'
            OR email ILIKE '%' || $1 || '%'
        )
        ORDER BY created_at ASC, id ASC
        LIMIT 1
    `
	var p model.BusinessProfile
	err := r.db.QueryRow(ctx, sql, query).Scan(
		&p.ID, &p.Type, &p.AuthID, &p.Email, &p.FirstName, &p.LastName, &p.CompanyName,
		&p.SIREN, &p.Phone, &p.Address, &p.City, &p.PostalCode, &p.Revenue, &p.Employees,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to resolve expert", zap.Error(err), zap.String("query", query))
		return nil, err
	}
	return &p, nil
}
