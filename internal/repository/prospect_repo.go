package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type ProspectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProspectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProspectRepository {
	return &ProspectRepository{db: db, logger: logger}
}

const prospectColumns = `
        id, email, first_name, last_name, company_name, source,
        emailing_status, email_validity, score_priority, metadata,
        created_at, updated_at
`

func (r *ProspectRepository) FindByEmail(ctx context.Context, email string) (*model.Prospect, error) {
	query := `
        SELECT ` + prospectColumns + `
        FROM prospects
        WHERE lower(email) = lower($1)
    `
	p, err := r.scanOne(r.db.QueryRow(ctx, query, email))
	if err != nil {
		r.logger.Error("Failed to find prospect by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, err
	}
	return p, nil
}

func (r *ProspectRepository) FindByID(ctx context.Context, id string) (*model.Prospect, error) {
	query := `
        SELECT ` + prospectColumns + `
        FROM prospects
        WHERE id = $1
    `
	p, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to find prospect by id",
			zap.Error(err),
			zap.String("prospect_id", id),
		)
		return nil, err
	}
	return p, nil
}

func (r *ProspectRepository) FindByEmailDomain(ctx context.Context, domain string) ([]model.Prospect, error) {
	r.logger.Debug("Scanning prospects by email domain", zap.String("domain", domain))
	query := `
        SELECT ` + prospectColumns + `
        FROM prospects
        WHERE lower(split_part(email, '@', 2)) = lower($1)
        ORDER BY created_at ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query, domain)
	if err != nil {
		r.logger.Error("Failed to query prospects by domain",
			zap.Error(err),
			zap.String("domain", domain),
		)
		return nil, err
	}
	defer rows.Close()

	prospects := []model.Prospect{}
	for rows.Next() {
		var p model.Prospect
		var metadata []byte
		if err := rows.Scan(
			&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.CompanyName,
			&p.Source, &p.EmailingStatus, &p.EmailValidity, &p.ScorePriority,
			&metadata, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan prospect row", zap.Error(err))
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
				r.logger.Error("Failed to decode prospect metadata",
					zap.Error(err),
					zap.String("prospect_id", p.ID),
				)
				return nil, err
			}
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}

func (r *ProspectRepository) Create(ctx context.Context, p *model.Prospect) error {
	r.logger.Debug("Inserting prospect",
		zap.String("prospect_id", p.ID),
		zap.String("email", p.Email),
		zap.String("source", p.Source),
	)
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO prospects (
            id, email, first_name, last_name, company_name, source,
            emailing_status, email_validity, score_priority, metadata,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err = r.db.Exec(ctx, query,
		p.ID, p.Email, p.FirstName, p.LastName, p.CompanyName, p.Source,
		p.EmailingStatus, p.EmailValidity, p.ScorePriority, metadata,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert prospect",
			zap.Error(err),
			zap.String("email", p.Email),
		)
		return err
	}
	r.logger.Info("Prospect inserted successfully",
		zap.String("prospect_id", p.ID),
		zap.String("email", p.Email),
	)
	return nil
}

func (r *ProspectRepository) SetReplied(ctx context.Context, id string, replyFrom string, at time.Time) error {
	r.logger.Debug("Setting prospect replied", zap.String("prospect_id", id))
	patch, err := json.Marshal(map[string]any{
		"last_reply_from":  replyFrom,
		"last_reply_at":    at.UTC().Format(time.RFC3339),
		"sequence_stopped": true,
	})
	if err != nil {
		return err
	}
	query := `
        UPDATE prospects
        SET emailing_status = 'replied',
            metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
            updated_at = $3
        WHERE id = $1
    `
	_, err = r.db.Exec(ctx, query, id, patch, at)
	if err != nil {
		r.logger.Error("Failed to set prospect replied",
			zap.Error(err),
			zap.String("prospect_id", id),
		)
		return err
	}
	r.logger.Info("Prospect marked replied", zap.String("prospect_id", id))
	return nil
}

func (r *ProspectRepository) SetBounced(ctx context.Context, id string, validity model.EmailValidity, reason string, at time.Time) error {
	r.logger.Debug("Setting prospect bounced",
		zap.String("prospect_id", id),
		zap.String("validity", string(validity)),
	)
	patch, err := json.Marshal(map[string]any{
		"bounce_reason": reason,
		"bounced_at":    at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	query := `
        UPDATE prospects
        SET emailing_status = 'bounced',
            email_validity = $2,
            metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
            updated_at = $4
        WHERE id = $1
    `
	_, err = r.db.Exec(ctx, query, id, validity, patch, at)
	if err != nil {
		r.logger.Error("Failed to set prospect bounced",
			zap.Error(err),
			zap.String("prospect_id", id),
		)
		return err
	}
	r.logger.Info("Prospect marked bounced",
		zap.String("prospect_id", id),
		zap.String("validity", string(validity)),
	)
	return nil
}

func (r *ProspectRepository) scanOne(row pgx.Row) (*model.Prospect, error) {
	var p model.Prospect
	var metadata []byte
	err := row.Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.CompanyName,
		&p.Source, &p.EmailingStatus, &p.EmailValidity, &p.ScorePriority,
		&metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
