package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type ExpertEmailRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpertEmailRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpertEmailRepository {
	return &ExpertEmailRepository{db: db, logger: logger}
}

func (r *ExpertEmailRepository) FindSentByMessageID(ctx context.Context, messageID string) (*model.ExpertEmail, error) {
	query := `
        SELECT id, expert_id, client_id, client_product_id,
               message_id, subject, status, sent_at
        FROM expert_emails
        WHERE message_id = $1
        AND status = 'sent'
        LIMIT 1
    `
	return r.scanOne(ctx, query, messageID)
}

func (r *ExpertEmailRepository) FindSentByMessageIDContains(ctx context.Context, fragment string) (*model.ExpertEmail, error) {
	query := `
        SELECT id, expert_id, client_id, client_product_id,
               message_id, subject, status, sent_at
        FROM expert_emails
        WHERE message_id LIKE '%' || $1 || '%'
        AND status = 'sent'
        LIMIT 1
    `
	return r.scanOne(ctx, query, fragment)
}

func (r *ExpertEmailRepository) scanOne(ctx context.Context, query, arg string) (*model.ExpertEmail, error) {
	var e model.ExpertEmail
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&e.ID, &e.ExpertID, &e.ClientID, &e.ClientProductID,
		&e.MessageID, &e.Subject, &e.Status, &e.SentAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find expert email", zap.Error(err))
		return nil, err
	}
	return &e, nil
}
