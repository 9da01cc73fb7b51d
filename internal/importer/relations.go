package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

// RelationBuilder creates the rows that hang off a freshly imported
// client: product-eligibility links, a pre-scheduled appointment and an
// expert assignment. All three are independently best-effort; none can
// undo the entity creation.
type RelationBuilder struct {
	refs      ReferenceStore
	relations RelationStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewRelationBuilder(refs ReferenceStore, relations RelationStore, logger *zap.Logger) *RelationBuilder {
	return &RelationBuilder{
		refs:      refs,
		relations: relations,
		logger:    logger,
		now:       time.Now,
	}
}

// Build creates the client's related rows and returns warnings for the
// row result. Client rows only; other entity types have no relations.
func (b *RelationBuilder) Build(ctx context.Context, row *Row, clientID string) []string {
	var warnings []string

	expertID := b.resolveExpert(ctx, row, &warnings)

	warnings = append(warnings, b.buildProductLinks(ctx, row, clientID, expertID)...)
	warnings = append(warnings, b.buildAppointment(ctx, row, clientID, expertID)...)
	warnings = append(warnings, b.buildAssignment(ctx, row, clientID, expertID)...)
	return warnings
}

func (b *RelationBuilder) resolveExpert(ctx context.Context, row *Row, warnings *[]string) *string {
	value := fieldString(row, "expert")
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err == nil {
		return &value
	}
	expert, err := b.refs.FindExpertFuzzy(ctx, value)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("expert: lookup failed: %v", err))
		return nil
	}
	if expert == nil {
		*warnings = append(*warnings, fmt.Sprintf("expert: no match for %q", value))
		return nil
	}
	return &expert.ID
}

func (b *RelationBuilder) buildProductLinks(ctx context.Context, row *Row, clientID string, expertID *string) []string {
	value := fieldString(row, "products")
	if value == "" {
		return nil
	}

	var warnings []string
	for _, name := range splitMultiValue(value) {
		product, err := b.resolveProduct(ctx, name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("products: %v", err))
			continue
		}
		link := &model.ProductLink{
			ID:        uuid.New().String(),
			ClientID:  clientID,
			ProductID: product.ID,
			ExpertID:  expertID,
			Status:    "eligible",
			CreatedAt: b.now(),
		}
		if err := b.relations.InsertProductLink(ctx, link); err != nil {
			warnings = append(warnings, fmt.Sprintf("products: failed to link %q: %v", product.Name, err))
		}
	}
	return warnings
}

func (b *RelationBuilder) resolveProduct(ctx context.Context, name string) (*model.Product, error) {
	if _, err := uuid.Parse(name); err == nil {
		product, err := b.refs.FindProductByID(ctx, name)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}
	product, err := b.refs.FindProductFuzzy(ctx, name)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("no product matches %q", name)
	}
	return product, nil
}

// buildAppointment needs both a date and a time; anything less is a
// silent skip.
func (b *RelationBuilder) buildAppointment(ctx context.Context, row *Row, clientID string, expertID *string) []string {
	date := fieldString(row, "appointment_date")
	hour := fieldString(row, "appointment_time")
	if date == "" || hour == "" {
		return nil
	}

	scheduledAt, err := parseAppointment(date, hour)
	if err != nil {
		return []string{fmt.Sprintf("appointment: %v", err)}
	}

	appt := &model.Appointment{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		ExpertID:    expertID,
		ScheduledAt: scheduledAt,
		CreatedAt:   b.now(),
	}
	if err := b.relations.InsertAppointment(ctx, appt); err != nil {
		return []string{fmt.Sprintf("appointment: insert failed: %v", err)}
	}
	return nil
}

func (b *RelationBuilder) buildAssignment(ctx context.Context, row *Row, clientID string, expertID *string) []string {
	if fieldString(row, "expert") == "" {
		return nil
	}
	if expertID == nil {
		return []string{"assignment: skipped, expert could not be resolved"}
	}

	assignment := &model.ExpertAssignment{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		ExpertID:  *expertID,
		CreatedAt: b.now(),
	}
	if err := b.relations.InsertAssignment(ctx, assignment); err != nil {
		return []string{fmt.Sprintf("assignment: insert failed: %v", err)}
	}
	return nil
}

func splitMultiValue(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseAppointment(date, hour string) (time.Time, error) {
	hour = strings.ReplaceAll(strings.TrimSpace(hour), "h", ":")
	if !strings.Contains(hour, ":") {
		hour += ":00"
	}
	for _, layout := range []string{"2006-01-02 15:04", "02/01/2006 15:04"} {
		if t, err := time.Parse(layout, date+" "+hour); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q %q as a date and time", date, hour)
}
