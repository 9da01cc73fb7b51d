package importer

import (
	"context"

	"prospectflow/internal/model"
)

// ReferenceStore resolves free-text lookups against existing entities.
// Fuzzy lookups return (nil, nil) when nothing matches.
type ReferenceStore interface {
	FindProductByID(ctx context.Context, id string) (*model.Product, error)
	FindProductFuzzy(ctx context.Context, query string) (*model.Product, error)
	FindExpertFuzzy(ctx context.Context, query string) (*model.BusinessProfile, error)
}

// ProfileStore persists business profiles and answers the uniqueness
// checks validation relies on.
type ProfileStore interface {
	EmailExists(ctx context.Context, entityType model.EntityType, email string) (bool, error)
	SIRENExists(ctx context.Context, entityType model.EntityType, siren string) (bool, error)
	Insert(ctx context.Context, profile *model.BusinessProfile) error
}

// IdentityProvider provisions and removes external auth accounts.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, passwordHash, name string, role model.Role) (string, error)
	DeleteAccount(ctx context.Context, authID string) error
}

// RelationStore persists the best-effort rows created after an entity.
type RelationStore interface {
	InsertProductLink(ctx context.Context, link *model.ProductLink) error
	InsertAppointment(ctx context.Context, appt *model.Appointment) error
	InsertAssignment(ctx context.Context, assignment *model.ExpertAssignment) error
}

// HistoryStore records import runs.
type HistoryStore interface {
	Insert(ctx context.Context, h *model.ImportHistory) error
	Update(ctx context.Context, h *model.ImportHistory) error
}
