package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

func (r *AccountRepository) ActiveByRole(ctx context.Context, role model.Role) ([]*model.Account, error) {
	query := `
        SELECT id, email, name, role, active, auth_id, created_at
        FROM accounts
        WHERE role = $1
        AND active = true
    `
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		r.logger.Error("Failed to query accounts by role",
			zap.Error(err),
			zap.String("role", string(role)),
		)
		return nil, err
	}
	defer rows.Close()

	accounts := []*model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(
			&a.ID, &a.Email, &a.Name, &a.Role, &a.Active, &a.AuthID, &a.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan account row", zap.Error(err))
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) ByID(ctx context.Context, id string) (*model.Account, error) {
	query := `
        SELECT id, email, name, role, active, auth_id, created_at
        FROM accounts
        WHERE id = $1
    `
	var a model.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Email, &a.Name, &a.Role, &a.Active, &a.AuthID, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find account",
			zap.Error(err),
			zap.String("account_id", id),
		)
		return nil, err
	}
	return &a, nil
}

// CreateAccount provisions an auth account for an imported entity and
// returns its id.
func (r *AccountRepository) CreateAccount(ctx context.Context, email, passwordHash, name string, role model.Role) (string, error) {
	id := uuid.New().String()
	r.logger.Debug("Provisioning account",
		zap.String("account_id", id),
		zap.String("email", email),
		zap.String("role", string(role)),
	)
	query := `
        INSERT INTO accounts (id, email, name, role, active, auth_id, password_hash, created_at)
        VALUES ($1, $2, $3, $4, true, $1, $5, NOW())
    `
	_, err := r.db.Exec(ctx, query, id, email, name, role, passwordHash)
	if err != nil {
		r.logger.Error("Failed to provision account",
			zap.Error(err),
			zap.String("email", email),
		)
		return "", err
	}
	r.logger.Info("Account provisioned",
		zap.String("account_id", id),
		zap.String("role", string(role)),
	)
	return id, nil
}

// DeleteAccount is the compensating action when a profile insert fails
// after provisioning.
func (r *AccountRepository) DeleteAccount(ctx context.Context, authID string) error {
	query := `
        DELETE FROM accounts
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, authID)
	if err != nil {
		r.logger.Error("Failed to delete account",
			zap.Error(err),
			zap.String("account_id", authID),
		)
		return err
	}
	r.logger.Info("Account deleted", zap.String("account_id", authID))
	return nil
}
