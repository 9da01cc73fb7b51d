package model

import "time"

type EntityType string

const (
	EntityClient    EntityType = "client"
	EntityExpert    EntityType = "expert"
	EntityApporteur EntityType = "apporteur"
)

// BusinessProfile is an imported business entity (client, expert or
// apporteur row). Each creation pairs with an identity-provider account
// whose id lands in AuthID.
type BusinessProfile struct {
	ID          string
	Type        EntityType
	AuthID      string
	Email       string
	FirstName   string
	LastName    string
	CompanyName string
	SIREN       string
	Phone       string
	Address     string
	City        string
	PostalCode  string
	Revenue     *float64
	Employees   *int
	CreatedAt   time.Time
}

// Product is a referenced eligibility product, resolved during import
// by id or fuzzy name match.
type Product struct {
	ID   string
	Name string
}

// ProductLink marks a client as eligible for a product, optionally with
// a pre-assigned expert.
type ProductLink struct {
	ID        string
	ClientID  string
	ProductID string
	ExpertID  *string
	Status    string
	CreatedAt time.Time
}

// Appointment is a pre-scheduled meeting created from an import row.
type Appointment struct {
	ID          string
	ClientID    string
	ExpertID    *string
	ScheduledAt time.Time
	CreatedAt   time.Time
}

// ExpertAssignment ties an imported client to a resolvable expert.
type ExpertAssignment struct {
	ID        string
	ClientID  string
	ExpertID  string
	CreatedAt time.Time
}
