package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type ReceivedEmailRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceivedEmailRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceivedEmailRepository {
	return &ReceivedEmailRepository{db: db, logger: logger}
}

func (r *ReceivedEmailRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM received_emails WHERE message_id = $1
        )
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, messageID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check received email existence",
			zap.Error(err),
			zap.String("message_id", messageID),
		)
		return false, err
	}
	return exists, nil
}

func (r *ReceivedEmailRepository) Insert(ctx context.Context, e *model.ReceivedEmail) error {
	r.logger.Debug("Inserting received email",
		zap.String("received_email_id", e.ID),
		zap.String("message_id", e.MessageID),
		zap.String("prospect_id", e.ProspectID),
	)
	query := `
        INSERT INTO received_emails (
            id, prospect_id, outbound_email_id, message_id, thread_id,
            from_email, from_name, to_email, subject,
            body_html, body_text, snippet, in_reply_to, email_references,
            received_at, is_read, is_replied
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
    `
	_, err := r.db.Exec(ctx, query,
		e.ID, e.ProspectID, e.OutboundEmailID, e.MessageID, e.ThreadID,
		e.FromEmail, e.FromName, e.ToEmail, e.Subject,
		e.BodyHTML, e.BodyText, e.Snippet, e.InReplyTo, e.References,
		e.ReceivedAt, e.IsRead, e.IsReplied,
	)
	if err != nil {
		r.logger.Error("Failed to insert received email",
			zap.Error(err),
			zap.String("message_id", e.MessageID),
		)
		return err
	}
	r.logger.Info("Received email inserted successfully",
		zap.String("received_email_id", e.ID),
		zap.String("prospect_id", e.ProspectID),
	)
	return nil
}

type ExpertReceivedEmailRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpertReceivedEmailRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpertReceivedEmailRepository {
	return &ExpertReceivedEmailRepository{db: db, logger: logger}
}

func (r *ExpertReceivedEmailRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM expert_received_emails WHERE message_id = $1
        )
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, messageID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check expert received email existence",
			zap.Error(err),
			zap.String("message_id", messageID),
		)
		return false, err
	}
	return exists, nil
}

func (r *ExpertReceivedEmailRepository) Insert(ctx context.Context, e *model.ExpertReceivedEmail) error {
	r.logger.Debug("Inserting expert received email",
		zap.String("received_email_id", e.ID),
		zap.String("message_id", e.MessageID),
		zap.String("expert_id", e.ExpertID),
	)
	query := `
        INSERT INTO expert_received_emails (
            id, expert_email_id, expert_id, client_id, client_product_id,
            message_id, thread_id, from_email, from_name, to_email, subject,
            body_html, body_text, snippet, in_reply_to, email_references,
            received_at, is_read, is_replied
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
    `
	_, err := r.db.Exec(ctx, query,
		e.ID, e.ExpertEmailID, e.ExpertID, e.ClientID, e.ClientProductID,
		e.MessageID, e.ThreadID, e.FromEmail, e.FromName, e.ToEmail, e.Subject,
		e.BodyHTML, e.BodyText, e.Snippet, e.InReplyTo, e.References,
		e.ReceivedAt, e.IsRead, e.IsReplied,
	)
	if err != nil {
		r.logger.Error("Failed to insert expert received email",
			zap.Error(err),
			zap.String("message_id", e.MessageID),
		)
		return err
	}
	r.logger.Info("Expert received email inserted successfully",
		zap.String("received_email_id", e.ID),
		zap.String("expert_id", e.ExpertID),
	)
	return nil
}
