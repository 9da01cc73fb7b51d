package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	r.logger.Debug("Inserting notification",
		zap.String("notification_id", n.ID),
		zap.String("recipient_id", n.RecipientID),
		zap.String("type", string(n.Type)),
	)
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO notifications (
            id, recipient_id, role, type, title, message, priority,
            is_read, action_url, action_label, metadata, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err = r.db.Exec(ctx, query,
		n.ID, n.RecipientID, n.Role, n.Type, n.Title, n.Message, n.Priority,
		n.IsRead, n.ActionURL, n.ActionLabel, metadata, n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.Error(err),
			zap.String("recipient_id", n.RecipientID),
		)
		return err
	}
	return nil
}
