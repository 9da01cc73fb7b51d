package mailcheck

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"prospectflow/internal/gmail"
	"prospectflow/internal/model"
)

type fakeProspectStore struct {
	prospects []*model.Prospect

	replied map[string]string // prospect id -> reply from
	bounced map[string]model.EmailValidity
	created []*model.Prospect

	findErr error
}

func newFakeProspectStore(prospects ...*model.Prospect) *fakeProspectStore {
	return &fakeProspectStore{
		prospects: prospects,
		replied:   map[string]string{},
		bounced:   map[string]model.EmailValidity{},
	}
}

func (f *fakeProspectStore) FindByEmail(ctx context.Context, email string) (*model.Prospect, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, p := range f.prospects {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProspectStore) FindByID(ctx context.Context, id string) (*model.Prospect, error) {
	for _, p := range f.prospects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProspectStore) FindByEmailDomain(ctx context.Context, domain string) ([]model.Prospect, error) {
	var out []model.Prospect
	for _, p := range f.prospects {
		if EmailDomain(p.Email) == domain {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProspectStore) Create(ctx context.Context, p *model.Prospect) error {
	f.created = append(f.created, p)
	f.prospects = append(f.prospects, p)
	return nil
}

func (f *fakeProspectStore) SetReplied(ctx context.Context, id string, replyFrom string, at time.Time) error {
	f.replied[id] = replyFrom
	return nil
}

func (f *fakeProspectStore) SetBounced(ctx context.Context, id string, validity model.EmailValidity, reason string, at time.Time) error {
	f.bounced[id] = validity
	return nil
}

type fakeOutboundStore struct {
	emails []*model.OutboundEmail

	markedReplied []string
	bouncedFor    []string
}

func (f *fakeOutboundStore) LatestUnreplied(ctx context.Context, prospectID string) (*model.OutboundEmail, error) {
	var latest *model.OutboundEmail
	for _, e := range f.emails {
		if e.ProspectID != prospectID || e.Replied {
			continue
		}
		if latest == nil || e.SentAt.After(latest.SentAt) {
			latest = e
		}
	}
	return latest, nil
}

func (f *fakeOutboundStore) MarkReplied(ctx context.Context, id string, meta model.OutboundEmailMetadata, at time.Time) error {
	f.markedReplied = append(f.markedReplied, id)
	for _, e := range f.emails {
		if e.ID == id {
			e.Replied = true
		}
	}
	return nil
}

func (f *fakeOutboundStore) MarkAllBounced(ctx context.Context, prospectID string, reason string, at time.Time) error {
	f.bouncedFor = append(f.bouncedFor, prospectID)
	for _, e := range f.emails {
		if e.ProspectID == prospectID {
			e.Bounced = true
		}
	}
	return nil
}

type fakeFollowUpStore struct {
	pending map[string]int // prospect id -> scheduled/pending count

	cancelled map[string]model.FollowUpMetadata
}

func newFakeFollowUpStore() *fakeFollowUpStore {
	return &fakeFollowUpStore{
		pending:   map[string]int{},
		cancelled: map[string]model.FollowUpMetadata{},
	}
}

func (f *fakeFollowUpStore) CancelPending(ctx context.Context, prospectID string, meta model.FollowUpMetadata) (int, error) {
	count := f.pending[prospectID]
	f.pending[prospectID] = 0
	f.cancelled[prospectID] = meta
	return count, nil
}

type fakeReceivedStore struct {
	rows      []*model.ReceivedEmail
	insertErr error
}

func (f *fakeReceivedStore) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	for _, row := range f.rows {
		if row.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReceivedStore) Insert(ctx context.Context, e *model.ReceivedEmail) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, e)
	return nil
}

type fakeExpertReceivedStore struct {
	rows []*model.ExpertReceivedEmail
}

func (f *fakeExpertReceivedStore) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	for _, row := range f.rows {
		if row.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExpertReceivedStore) Insert(ctx context.Context, e *model.ExpertReceivedEmail) error {
	f.rows = append(f.rows, e)
	return nil
}

type fakeExpertEmailStore struct {
	emails []*model.ExpertEmail
}

func (f *fakeExpertEmailStore) FindSentByMessageID(ctx context.Context, messageID string) (*model.ExpertEmail, error) {
	for _, e := range f.emails {
		if e.Status == "sent" && e.MessageID == messageID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeExpertEmailStore) FindSentByMessageIDContains(ctx context.Context, fragment string) (*model.ExpertEmail, error) {
	for _, e := range f.emails {
		if e.Status == "sent" && strings.Contains(e.MessageID, fragment) {
			return e, nil
		}
	}
	return nil, nil
}

type notifierCall struct {
	prospectID      string
	receivedEmailID string
	replyFrom       string
	isNewProspect   bool
}

type fakeNotifier struct {
	prospectCalls []notifierCall
	clientCalls   []notifierCall
}

func (f *fakeNotifier) ProspectReplyReceived(ctx context.Context, prospectID, receivedEmailID, replyFrom string, isNewProspect bool) (int, error) {
	f.prospectCalls = append(f.prospectCalls, notifierCall{prospectID, receivedEmailID, replyFrom, isNewProspect})
	return 1, nil
}

func (f *fakeNotifier) ClientReplyReceived(ctx context.Context, expertID, clientID, receivedEmailID, replyFrom string) (int, error) {
	f.clientCalls = append(f.clientCalls, notifierCall{prospectID: clientID, receivedEmailID: receivedEmailID, replyFrom: replyFrom})
	return 1, nil
}

type fakeSource struct {
	messages map[string]*gmail.Message

	listErr error
	read    []string
}

func newFakeSource(messages ...*gmail.Message) *fakeSource {
	byID := map[string]*gmail.Message{}
	for _, m := range messages {
		byID[m.ID] = m
	}
	return &fakeSource{messages: byID}
}

func (f *fakeSource) ListCandidateMessages(ctx context.Context, since time.Time) ([]gmail.MessageRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var refs []gmail.MessageRef
	for id, m := range f.messages {
		refs = append(refs, gmail.MessageRef{ID: id, ThreadID: m.ThreadID})
	}
	return refs, nil
}

func (f *fakeSource) FetchFullMessage(ctx context.Context, id string) (*gmail.Message, error) {
	return f.messages[id], nil
}

func (f *fakeSource) MarkRead(ctx context.Context, id string) error {
	f.read = append(f.read, id)
	return nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.events = append(f.events, routingKey)
	return nil
}

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func textMessage(id, from, to, subject, inReplyTo, body string) *gmail.Message {
	headers := []gmail.Header{
		{Name: "From", Value: from},
		{Name: "To", Value: to},
		{Name: "Subject", Value: subject},
	}
	if inReplyTo != "" {
		headers = append(headers, gmail.Header{Name: "In-Reply-To", Value: inReplyTo})
	}
	return &gmail.Message{
		ID:           id,
		ThreadID:     "thread-" + id,
		InternalDate: time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC).UnixMilli(),
		Snippet:      body,
		Payload: &gmail.Part{
			MimeType: "text/plain",
			Headers:  headers,
			Body:     &gmail.Body{Data: encodeBody(body)},
		},
	}
}
