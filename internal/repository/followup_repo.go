package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type FollowUpRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFollowUpRepository(db *pgxpool.Pool, logger *zap.Logger) *FollowUpRepository {
	return &FollowUpRepository{db: db, logger: logger}
}

// CancelPending cancels every scheduled or pending follow-up of the
// prospect in one statement and reports how many rows changed.
func (r *FollowUpRepository) CancelPending(ctx context.Context, prospectID string, meta model.FollowUpMetadata) (int, error) {
	r.logger.Debug("Cancelling scheduled follow-ups", zap.String("prospect_id", prospectID))
	patch, err := json.Marshal(meta)
	if err != nil {
		return 0, err
	}
	query := `
        UPDATE scheduled_follow_ups
        SET status = 'cancelled',
            metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
            updated_at = NOW()
        WHERE prospect_id = $1
        AND status IN ('scheduled', 'pending')
    `
	result, err := r.db.Exec(ctx, query, prospectID, patch)
	if err != nil {
		r.logger.Error("Failed to cancel follow-ups",
			zap.Error(err),
			zap.String("prospect_id", prospectID),
		)
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
