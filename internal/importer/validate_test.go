package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospectflow/internal/model"
)

func clientConfig(rules ...FieldRule) *MappingConfig {
	return &MappingConfig{EntityType: model.EntityClient, Rules: rules}
}

func TestValidateRequiredRejectsPlaceholder(t *testing.T) {
	v := NewValidator(&fakeProfileStore{})
	rows := []Row{{Index: 2, Fields: map[string]any{"email": "—"}}}

	v.Validate(context.Background(), rows, clientConfig(
		FieldRule{Column: "Email", Field: "email", Required: true},
	))

	require.Len(t, rows[0].Errors, 1)
	assert.Equal(t, "email: required field is missing", rows[0].Errors[0])
}

func TestValidateEmailSyntax(t *testing.T) {
	v := NewValidator(&fakeProfileStore{})
	rows := []Row{
		{Index: 2, Fields: map[string]any{"email": "jane@acme.com"}},
		{Index: 3, Fields: map[string]any{"email": "not-an-address"}},
	}

	v.Validate(context.Background(), rows, clientConfig())

	assert.Empty(t, rows[0].Errors)
	require.Len(t, rows[1].Errors, 1)
	assert.Contains(t, rows[1].Errors[0], "not a valid address")
}

func TestValidateEmailDuplicateIsNotAnError(t *testing.T) {
	profiles := &fakeProfileStore{existingEmails: map[string]bool{"jane@acme.com": true}}
	v := NewValidator(profiles)
	rows := []Row{{Index: 2, Fields: map[string]any{"email": "Jane@Acme.com"}}}

	v.Validate(context.Background(), rows, clientConfig())

	assert.Empty(t, rows[0].Errors)
	require.Len(t, rows[0].Duplicates, 1)
	assert.Contains(t, rows[0].Duplicates[0], "already exists")
}

func TestValidateSIREN(t *testing.T) {
	profiles := &fakeProfileStore{existingSIRENs: map[string]bool{"732829320": true}}
	v := NewValidator(profiles)
	rows := []Row{
		{Index: 2, Fields: map[string]any{"siren": "552 100 554"}},   // 9 digits, spaces stripped
		{Index: 3, Fields: map[string]any{"siren": "55210055400013"}}, // 14-digit SIRET form
		{Index: 4, Fields: map[string]any{"siren": "12345"}},
		{Index: 5, Fields: map[string]any{"siren": "732829320"}},
	}

	v.Validate(context.Background(), rows, clientConfig())

	assert.Empty(t, rows[0].Errors)
	assert.Equal(t, "552100554", rows[0].Fields["siren"])
	assert.Empty(t, rows[1].Errors)
	require.Len(t, rows[2].Errors, 1)
	assert.Contains(t, rows[2].Errors[0], "must be 9 or 14 digits")
	require.Len(t, rows[3].Duplicates, 1)
}

func TestValidateNumericFields(t *testing.T) {
	v := NewValidator(&fakeProfileStore{})
	rows := []Row{
		{Index: 2, Fields: map[string]any{"revenue": 1200.50, "employees": 12.0}},
		{Index: 3, Fields: map[string]any{"revenue": -5.0}},
		{Index: 4, Fields: map[string]any{"employees": 3.5}},
		{Index: 5, Fields: map[string]any{"employees": "8"}},
	}

	v.Validate(context.Background(), rows, clientConfig())

	assert.Empty(t, rows[0].Errors)
	require.Len(t, rows[1].Errors, 1)
	assert.Contains(t, rows[1].Errors[0], "must not be negative")
	require.Len(t, rows[2].Errors, 1)
	assert.Contains(t, rows[2].Errors[0], "must be an integer")
	assert.Empty(t, rows[3].Errors)
	assert.Equal(t, 8.0, rows[3].Fields["employees"])
}
