package mailcheck

import (
	"context"
	"time"

	"prospectflow/internal/model"
)

// Store interfaces are defined on the consumer side; the pgx
// repositories satisfy them. Lookup methods return (nil, nil) when no
// row matches.

type ProspectStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Prospect, error)
	FindByEmailDomain(ctx context.Context, domain string) ([]model.Prospect, error)
	Create(ctx context.Context, p *model.Prospect) error
	SetReplied(ctx context.Context, id string, replyFrom string, at time.Time) error
	SetBounced(ctx context.Context, id string, validity model.EmailValidity, reason string, at time.Time) error
}

type OutboundStore interface {
	LatestUnreplied(ctx context.Context, prospectID string) (*model.OutboundEmail, error)
	MarkReplied(ctx context.Context, id string, meta model.OutboundEmailMetadata, at time.Time) error
	MarkAllBounced(ctx context.Context, prospectID string, reason string, at time.Time) error
}

type FollowUpStore interface {
	// CancelPending cancels every scheduled/pending follow-up of the
	// prospect and returns how many rows changed.
	CancelPending(ctx context.Context, prospectID string, meta model.FollowUpMetadata) (int, error)
}

type ReceivedStore interface {
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	Insert(ctx context.Context, e *model.ReceivedEmail) error
}

type ExpertReceivedStore interface {
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	Insert(ctx context.Context, e *model.ExpertReceivedEmail) error
}

type ExpertEmailStore interface {
	// FindSentByMessageID matches the stored outbound message id
	// exactly against one candidate id.
	FindSentByMessageID(ctx context.Context, messageID string) (*model.ExpertEmail, error)
	// FindSentByMessageIDContains is the fallback for mail clients
	// that mangle reference formatting: substring containment.
	FindSentByMessageIDContains(ctx context.Context, fragment string) (*model.ExpertEmail, error)
}

// Notifier fans business events out as in-app notifications. Failures
// are the emitter's concern; the pipeline never escalates them.
type Notifier interface {
	ProspectReplyReceived(ctx context.Context, prospectID, receivedEmailID, replyFrom string, isNewProspect bool) (int, error)
	ClientReplyReceived(ctx context.Context, expertID, clientID, receivedEmailID, replyFrom string) (int, error)
}

// EventPublisher emits best-effort outcome events. pkg/mq.Publisher
// satisfies it; nil disables publishing.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}
