package importer

import (
	"context"
	"fmt"
	"strings"

	"prospectflow/internal/model"
)

type fakeReferenceStore struct {
	products []*model.Product
	experts  []*model.BusinessProfile
}

func (f *fakeReferenceStore) FindProductByID(ctx context.Context, id string) (*model.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeReferenceStore) FindProductFuzzy(ctx context.Context, query string) (*model.Product, error) {
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeReferenceStore) FindExpertFuzzy(ctx context.Context, query string) (*model.BusinessProfile, error) {
	needle := strings.ToLower(query)
	for _, e := range f.experts {
		haystack := strings.ToLower(e.FirstName + " " + e.LastName + " " + e.CompanyName + " " + e.Email)
		if strings.Contains(haystack, needle) {
			return e, nil
		}
	}
	return nil, nil
}

type fakeProfileStore struct {
	existingEmails map[string]bool
	existingSIRENs map[string]bool
	inserted       []*model.BusinessProfile
	insertErr      error
}

func (f *fakeProfileStore) EmailExists(ctx context.Context, entityType model.EntityType, email string) (bool, error) {
	return f.existingEmails[strings.ToLower(email)], nil
}

func (f *fakeProfileStore) SIRENExists(ctx context.Context, entityType model.EntityType, siren string) (bool, error) {
	return f.existingSIRENs[siren], nil
}

func (f *fakeProfileStore) Insert(ctx context.Context, profile *model.BusinessProfile) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, profile)
	return nil
}

type fakeIdentityProvider struct {
	created   []string
	deleted   []string
	createErr error
	deleteErr error
	seq       int
}

func (f *fakeIdentityProvider) CreateAccount(ctx context.Context, email, passwordHash, name string, role model.Role) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	id := fmt.Sprintf("auth-%d", f.seq)
	f.created = append(f.created, id)
	return id, nil
}

func (f *fakeIdentityProvider) DeleteAccount(ctx context.Context, authID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, authID)
	return nil
}

type fakeRelationStore struct {
	links        []*model.ProductLink
	appointments []*model.Appointment
	assignments  []*model.ExpertAssignment
}

func (f *fakeRelationStore) InsertProductLink(ctx context.Context, link *model.ProductLink) error {
	f.links = append(f.links, link)
	return nil
}

func (f *fakeRelationStore) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	f.appointments = append(f.appointments, appt)
	return nil
}

func (f *fakeRelationStore) InsertAssignment(ctx context.Context, assignment *model.ExpertAssignment) error {
	f.assignments = append(f.assignments, assignment)
	return nil
}

type fakeHistoryStore struct {
	inserted []*model.ImportHistory
	updated  []*model.ImportHistory
}

func (f *fakeHistoryStore) Insert(ctx context.Context, h *model.ImportHistory) error {
	copied := *h
	f.inserted = append(f.inserted, &copied)
	return nil
}

func (f *fakeHistoryStore) Update(ctx context.Context, h *model.ImportHistory) error {
	copied := *h
	f.updated = append(f.updated, &copied)
	return nil
}

type fakeEventPublisher struct {
	keys     []string
	payloads []any
}

func (f *fakeEventPublisher) Publish(routingKey string, payload any) error {
	f.keys = append(f.keys, routingKey)
	f.payloads = append(f.payloads, payload)
	return nil
}
