package model

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleExpert    Role = "expert"
	RoleClient    Role = "client"
	RoleApporteur Role = "apporteur"
)

// Account is a platform user account. AuthID links the account to the
// external identity provider; accounts without one are skipped by the
// notification fan-out.
type Account struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Active    bool
	AuthID    *string
	CreatedAt time.Time
}
