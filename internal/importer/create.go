package importer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"prospectflow/internal/model"
)

// EntityCreator turns one validated row into a business profile plus
// its auth account. The profile insert is the step that can leave a
// dangling identity, so a failed insert triggers a compensating
// account delete.
type EntityCreator struct {
	profiles ProfileStore
	identity IdentityProvider
	logger   *zap.Logger
	now      func() time.Time
}

func NewEntityCreator(profiles ProfileStore, identity IdentityProvider, logger *zap.Logger) *EntityCreator {
	return &EntityCreator{
		profiles: profiles,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// Create provisions the identity, then inserts the profile. The
// returned credentials are nil unless withCredentials is set.
func (c *EntityCreator) Create(ctx context.Context, row *Row, entityType model.EntityType, withCredentials bool) (*model.BusinessProfile, *Credentials, error) {
	email := strings.ToLower(stringValue(row.Fields["email"]))
	if email == "" {
		return nil, nil, fmt.Errorf("row has no email, cannot provision an account")
	}

	password, err := GeneratePassword()
	if err != nil {
		return nil, nil, fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	profile := profileFrom(row, entityType, email)
	profile.CreatedAt = c.now()

	authID, err := c.identity.CreateAccount(ctx, email, string(hash), displayName(profile), roleFor(entityType))
	if err != nil {
		return nil, nil, fmt.Errorf("provisioning account: %w", err)
	}
	profile.AuthID = authID

	if err := c.profiles.Insert(ctx, profile); err != nil {
		if delErr := c.identity.DeleteAccount(ctx, authID); delErr != nil {
			c.logger.Error("compensating account delete failed, identity left dangling",
				zap.String("auth_id", authID), zap.Error(delErr))
			return nil, nil, fmt.Errorf("inserting profile: %w (account %s could not be removed)", err, authID)
		}
		c.logger.Warn("profile insert failed, provisioned account removed",
			zap.String("auth_id", authID), zap.Error(err))
		return nil, nil, fmt.Errorf("inserting profile: %w (provisioned account removed)", err)
	}

	var creds *Credentials
	if withCredentials {
		creds = &Credentials{Email: email, Password: password}
	}
	return profile, creds, nil
}

func profileFrom(row *Row, entityType model.EntityType, email string) *model.BusinessProfile {
	profile := &model.BusinessProfile{
		ID:          uuid.New().String(),
		Type:        entityType,
		Email:       email,
		FirstName:   fieldString(row, "first_name"),
		LastName:    fieldString(row, "last_name"),
		CompanyName: fieldString(row, "company_name"),
		SIREN:       fieldString(row, "siren"),
		Phone:       fieldString(row, "phone"),
		Address:     fieldString(row, "address"),
		City:        fieldString(row, "city"),
		PostalCode:  fieldString(row, "postal_code"),
	}
	if revenue, ok := row.Fields["revenue"].(float64); ok {
		profile.Revenue = &revenue
	}
	if employees, ok := row.Fields["employees"].(float64); ok {
		n := int(math.Trunc(employees))
		profile.Employees = &n
	}
	return profile
}

func fieldString(row *Row, field string) string {
	value := row.Fields[field]
	if IsAbsent(value) {
		return ""
	}
	return stringValue(value)
}

func displayName(p *model.BusinessProfile) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return p.Email
}

func roleFor(entityType model.EntityType) model.Role {
	switch entityType {
	case model.EntityExpert:
		return model.RoleExpert
	case model.EntityApporteur:
		return model.RoleApporteur
	default:
		return model.RoleClient
	}
}
