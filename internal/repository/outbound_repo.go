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

type OutboundEmailRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewOutboundEmailRepository(db *pgxpool.Pool, logger *zap.Logger) *OutboundEmailRepository {
	return &OutboundEmailRepository{db: db, logger: logger}
}

// LatestUnreplied selects among replied=false rows only; an
// already-replied record must never be re-matched.
func (r *OutboundEmailRepository) LatestUnreplied(ctx context.Context, prospectID string) (*model.OutboundEmail, error) {
	query := `
        SELECT id, prospect_id, step, subject, sent_at,
               replied, replied_at, bounced, bounced_at, metadata
        FROM outbound_emails
        WHERE prospect_id = $1
        AND replied = false
        ORDER BY sent_at DESC
        LIMIT 1
    `
	var e model.OutboundEmail
	var metadata []byte
	err := r.db.QueryRow(ctx, query, prospectID).Scan(
		&e.ID, &e.ProspectID, &e.Step, &e.Subject, &e.SentAt,
		&e.Replied, &e.RepliedAt, &e.Bounced, &e.BouncedAt, &metadata,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find latest unreplied outbound email",
			zap.Error(err),
			zap.String("prospect_id", prospectID),
		)
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func (r *OutboundEmailRepository) MarkReplied(ctx context.Context, id string, meta model.OutboundEmailMetadata, at time.Time) error {
	r.logger.Debug("Marking outbound email replied", zap.String("outbound_email_id", id))
	patch, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	query := `
        UPDATE outbound_emails
        SET replied = true,
            replied_at = $2,
            metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb
        WHERE id = $1
    `
	_, err = r.db.Exec(ctx, query, id, at, patch)
	if err != nil {
		r.logger.Error("Failed to mark outbound email replied",
			zap.Error(err),
			zap.String("outbound_email_id", id),
		)
		return err
	}
	r.logger.Info("Outbound email marked replied", zap.String("outbound_email_id", id))
	return nil
}

func (r *OutboundEmailRepository) MarkAllBounced(ctx context.Context, prospectID string, reason string, at time.Time) error {
	r.logger.Debug("Marking outbound emails bounced", zap.String("prospect_id", prospectID))
	patch, err := json.Marshal(map[string]string{"bounce_reason": reason})
	if err != nil {
		return err
	}
	query := `
        UPDATE outbound_emails
        SET bounced = true,
            bounced_at = $2,
            metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb
        WHERE prospect_id = $1
        AND bounced = false
    `
	result, err := r.db.Exec(ctx, query, prospectID, at, patch)
	if err != nil {
		r.logger.Error("Failed to mark outbound emails bounced",
			zap.Error(err),
			zap.String("prospect_id", prospectID),
		)
		return err
	}
	r.logger.Info("Outbound emails marked bounced",
		zap.String("prospect_id", prospectID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}
