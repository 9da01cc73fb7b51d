package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type RelationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRelationRepository(db *pgxpool.Pool, logger *zap.Logger) *RelationRepository {
	return &RelationRepository{db: db, logger: logger}
}

func (r *RelationRepository) InsertProductLink(ctx context.Context, link *model.ProductLink) error {
	query := `
        INSERT INTO client_products (id, client_id, product_id, expert_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query,
		link.ID, link.ClientID, link.ProductID, link.ExpertID, link.Status, link.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert product link",
			zap.Error(err),
			zap.String("client_id", link.ClientID),
			zap.String("product_id", link.ProductID),
		)
		return err
	}
	r.logger.Info("Product link inserted",
		zap.String("client_id", link.ClientID),
		zap.String("product_id", link.ProductID),
	)
	return nil
}

func (r *RelationRepository) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	query := `
        INSERT INTO appointments (id, client_id, expert_id, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.db.Exec(ctx, query,
		appt.ID, appt.ClientID, appt.ExpertID, appt.ScheduledAt, appt.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert appointment",
			zap.Error(err),
			zap.String("client_id", appt.ClientID),
		)
		return err
	}
	r.logger.Info("Appointment inserted", zap.String("client_id", appt.ClientID))
	return nil
}

func (r *RelationRepository) InsertAssignment(ctx context.Context, assignment *model.ExpertAssignment) error {
	query := `
        INSERT INTO expert_assignments (id, client_id, expert_id, created_at)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.db.Exec(ctx, query,
		assignment.ID, assignment.ClientID, assignment.ExpertID, assignment.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert expert assignment",
			zap.Error(err),
			zap.String("client_id", assignment.ClientID),
		)
		return err
	}
	r.logger.Info("Expert assignment inserted",
		zap.String("client_id", assignment.ClientID),
		zap.String("expert_id", assignment.ExpertID),
	)
	return nil
}
