package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type pipelineFixture struct {
	pipeline *Pipeline
	profiles *fakeProfileStore
	identity *fakeIdentityProvider
	history  *fakeHistoryStore
	events   *fakeEventPublisher
}

func newPipelineFixture(refs *fakeReferenceStore, profiles *fakeProfileStore) *pipelineFixture {
	logger := zap.NewNop()
	identity := &fakeIdentityProvider{}
	history := &fakeHistoryStore{}
	events := &fakeEventPublisher{}
	pipeline := NewPipeline(
		NewTransformer(refs, logger),
		NewValidator(profiles),
		NewEntityCreator(profiles, identity, logger),
		NewRelationBuilder(refs, &fakeRelationStore{}, logger),
		history,
		events,
		logger,
	)
	return &pipelineFixture{pipeline: pipeline, profiles: profiles, identity: identity, history: history, events: events}
}

func defaultOptions() Options {
	return Options{SkipDuplicates: true, GeneratePasswords: true, ContinueOnError: true}
}

var clientsCSV = []byte("Email;Prenom;Nom\n" +
	"jean@acme.fr;Jean;Dupont\n" +
	"—;Marie;Curie\n" +
	"paul@acme.fr;Paul;Martin\n")

func clientsMapping() *MappingConfig {
	return clientConfig(
		FieldRule{Column: "Email", Field: "email", Required: true},
		FieldRule{Column: "Prenom", Field: "first_name"},
		FieldRule{Column: "Nom", Field: "last_name"},
	)
}

func TestExecuteCreatesRowsAndContinuesPastFailures(t *testing.T) {
	f := newPipelineFixture(&fakeReferenceStore{}, &fakeProfileStore{})

	result, err := f.pipeline.Execute(context.Background(), "clients.csv", clientsCSV, clientsMapping(), defaultOptions(), "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Error)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, f.profiles.inserted, 2)
	assert.Equal(t, "jean@acme.fr", f.profiles.inserted[0].Email)
	assert.Equal(t, "paul@acme.fr", f.profiles.inserted[1].Email)

	// The placeholder row failed with a message naming the field.
	failed := result.Rows[1]
	assert.Equal(t, RowError, failed.Status)
	assert.Equal(t, 3, failed.Row)
	require.Len(t, failed.Errors, 1)
	assert.Equal(t, "email: required field is missing", failed.Errors[0])

	// Credentials come back to the caller but never land in history.
	assert.NotNil(t, result.Rows[0].Credentials)
	require.Len(t, f.history.updated, 1)
	record := f.history.updated[0]
	assert.Equal(t, model.ImportCompleted, record.Status)
	assert.Equal(t, 2, record.SuccessCount)
	assert.NotContains(t, string(record.Results), "password")

	require.Len(t, f.events.keys, 1)
	assert.Equal(t, EventImportCompleted, f.events.keys[0])
}

func TestExecuteHaltsWhenContinueOnErrorIsOff(t *testing.T) {
	f := newPipelineFixture(&fakeReferenceStore{}, &fakeProfileStore{})
	opts := defaultOptions()
	opts.ContinueOnError = false

	result, err := f.pipeline.Execute(context.Background(), "clients.csv", clientsCSV, clientsMapping(), opts, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Error)
	assert.Equal(t, 1, result.Skipped)
	halted := result.Rows[2]
	assert.Equal(t, RowSkipped, halted.Status)
	require.Len(t, halted.Warnings, 1)
	assert.Contains(t, halted.Warnings[0], "halted by an earlier error")
	require.Len(t, f.profiles.inserted, 1)
}

func TestExecuteSkipsDuplicates(t *testing.T) {
	profiles := &fakeProfileStore{existingEmails: map[string]bool{"jean@acme.fr": true}}
	f := newPipelineFixture(&fakeReferenceStore{}, profiles)

	result, err := f.pipeline.Execute(context.Background(), "clients.csv", clientsCSV, clientsMapping(), defaultOptions(), "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Skipped)
	skipped := result.Rows[0]
	assert.Equal(t, RowSkipped, skipped.Status)
	require.Len(t, skipped.Warnings, 1)
	assert.Contains(t, skipped.Warnings[0], "already exists")
}

func TestExecuteDuplicatesBecomeErrorsWhenNotSkipping(t *testing.T) {
	profiles := &fakeProfileStore{existingEmails: map[string]bool{"jean@acme.fr": true}}
	f := newPipelineFixture(&fakeReferenceStore{}, profiles)
	opts := defaultOptions()
	opts.SkipDuplicates = false

	result, err := f.pipeline.Execute(context.Background(), "clients.csv", clientsCSV, clientsMapping(), opts, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, RowError, result.Rows[0].Status)
	assert.Equal(t, 2, result.Error)
}

func TestExecuteMarksRunFailedWhenNothingSucceeds(t *testing.T) {
	profiles := &fakeProfileStore{insertErr: errors.New("db down")}
	f := newPipelineFixture(&fakeReferenceStore{}, profiles)

	result, err := f.pipeline.Execute(context.Background(), "clients.csv", clientsCSV, clientsMapping(), defaultOptions(), "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	require.Len(t, f.history.updated, 1)
	assert.Equal(t, model.ImportFailed, f.history.updated[0].Status)
	// Every provisioned account was compensated.
	assert.Equal(t, len(f.identity.created), len(f.identity.deleted))
}

func TestExecuteUnparsableFile(t *testing.T) {
	f := newPipelineFixture(&fakeReferenceStore{}, &fakeProfileStore{})

	_, err := f.pipeline.Execute(context.Background(), "clients.pdf", []byte("%PDF"), clientsMapping(), defaultOptions(), "admin-1")

	require.Error(t, err)
	require.Len(t, f.history.updated, 1)
	assert.Equal(t, model.ImportFailed, f.history.updated[0].Status)
	assert.Empty(t, f.events.keys)
}

func TestPreviewFile(t *testing.T) {
	f := newPipelineFixture(&fakeReferenceStore{}, &fakeProfileStore{})

	preview, err := f.pipeline.PreviewFile("clients.csv", clientsCSV, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Prenom", "Nom"}, preview.Headers)
	assert.Equal(t, 3, preview.RowCount)
	require.Len(t, preview.Sample, 2)
	assert.Equal(t, []string{"jean@acme.fr", "Jean", "Dupont"}, preview.Sample[0])
}

func TestCheckDuplicates(t *testing.T) {
	profiles := &fakeProfileStore{existingEmails: map[string]bool{"paul@acme.fr": true}}
	f := newPipelineFixture(&fakeReferenceStore{}, profiles)

	hits, err := f.pipeline.CheckDuplicates(context.Background(), "clients.csv", clientsCSV, clientsMapping())

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 4, hits[0].Row)
	assert.Contains(t, hits[0].Reasons[0], "paul@acme.fr")
	assert.Empty(t, profiles.inserted)
}
