package importer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"prospectflow/internal/model"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.\w{2,}$`)
var sirenPattern = regexp.MustCompile(`^\d+$`)

// Validator checks transformed rows against entity constraints. Errors
// accumulate on the row; no row stops another from being validated.
type Validator struct {
	profiles ProfileStore
}

func NewValidator(profiles ProfileStore) *Validator {
	return &Validator{profiles: profiles}
}

func (v *Validator) Validate(ctx context.Context, rows []Row, config *MappingConfig) {
	for i := range rows {
		v.validateRow(ctx, &rows[i], config)
	}
}

func (v *Validator) validateRow(ctx context.Context, row *Row, config *MappingConfig) {
	for _, rule := range config.Rules {
		if rule.Required && IsAbsent(row.Fields[rule.Field]) {
			row.Errors = append(row.Errors, fmt.Sprintf("%s: required field is missing", rule.Field))
		}
	}

	if email := stringValue(row.Fields["email"]); !IsAbsent(row.Fields["email"]) && email != "" {
		v.validateEmail(ctx, row, config.EntityType, email)
	}
	if siren := stringValue(row.Fields["siren"]); !IsAbsent(row.Fields["siren"]) && siren != "" {
		v.validateSIREN(ctx, row, config.EntityType, siren)
	}

	validateNumeric(row, "revenue", false)
	validateNumeric(row, "employees", true)
}

func (v *Validator) validateEmail(ctx context.Context, row *Row, entityType model.EntityType, email string) {
	if !emailPattern.MatchString(email) {
		row.Errors = append(row.Errors, fmt.Sprintf("email: %q is not a valid address", email))
		return
	}
	exists, err := v.profiles.EmailExists(ctx, entityType, strings.ToLower(email))
	if err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("email: uniqueness check failed: %v", err))
		return
	}
	if exists {
		row.Duplicates = append(row.Duplicates, fmt.Sprintf("email: %q already exists", email))
	}
}

func (v *Validator) validateSIREN(ctx context.Context, row *Row, entityType model.EntityType, siren string) {
	cleaned := strings.ReplaceAll(siren, " ", "")
	if !sirenPattern.MatchString(cleaned) || (len(cleaned) != 9 && len(cleaned) != 14) {
		row.Errors = append(row.Errors, fmt.Sprintf("siren: %q must be 9 or 14 digits", siren))
		return
	}
	row.Fields["siren"] = cleaned
	exists, err := v.profiles.SIRENExists(ctx, entityType, cleaned)
	if err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("siren: uniqueness check failed: %v", err))
		return
	}
	if exists {
		row.Duplicates = append(row.Duplicates, fmt.Sprintf("siren: %q already exists", siren))
	}
}

func validateNumeric(row *Row, field string, wantInteger bool) {
	value, ok := row.Fields[field]
	if !ok || IsAbsent(value) {
		return
	}

	var n float64
	switch typed := value.(type) {
	case float64:
		n = typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			row.Errors = append(row.Errors, fmt.Sprintf("%s: %q is not numeric", field, typed))
			return
		}
		n = parsed
		row.Fields[field] = parsed
	default:
		return
	}

	if n < 0 {
		row.Errors = append(row.Errors, fmt.Sprintf("%s: must not be negative", field))
	}
	if wantInteger && n != math.Trunc(n) {
		row.Errors = append(row.Errors, fmt.Sprintf("%s: must be an integer", field))
	}
}
