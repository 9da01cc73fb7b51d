package mailcheck

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"prospectflow/internal/gmail"
	"prospectflow/internal/model"
	"prospectflow/pkg/metrics"
	"prospectflow/pkg/util"
)

// ErrAlreadyRunning is returned when a check is triggered while a
// previous one has not finished.
var ErrAlreadyRunning = errors.New("mail check already running")

const (
	dedupHandler = "mailcheck"

	EventReplyReceived = "prospect.reply.received"
	EventEmailBounced  = "prospect.email.bounced"
)

// Result aggregates one run of the inbox check.
type Result struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Errors    []string `json:"errors"`
}

// Runner drives one pass over the unread inbox: list, fetch, classify,
// match and hand off to the sequence controller. At most one run is
// active at a time.
type Runner struct {
	source         gmail.Source
	classifier     *Classifier
	matcher        *Matcher
	controller     *Controller
	received       ReceivedStore
	expertReceived ExpertReceivedStore
	deduper        *util.Deduper
	events         EventPublisher
	logger         *zap.Logger
	now            func() time.Time

	running atomic.Bool
}

func NewRunner(
	source gmail.Source,
	classifier *Classifier,
	matcher *Matcher,
	controller *Controller,
	received ReceivedStore,
	expertReceived ExpertReceivedStore,
	deduper *util.Deduper,
	events EventPublisher,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		source:         source,
		classifier:     classifier,
		matcher:        matcher,
		controller:     controller,
		received:       received,
		expertReceived: expertReceived,
		deduper:        deduper,
		events:         events,
		logger:         logger,
		now:            time.Now,
	}
}

// Run checks the inbox for messages received since the given time.
// A zero since defaults to the last 24 hours.
func (r *Runner) Run(ctx context.Context, since time.Time) (*Result, error) {
	if r.source == nil {
		return nil, errors.New("mailbox source not configured")
	}
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Warn("mail check triggered while previous run is active, skipping")
		return nil, ErrAlreadyRunning
	}
	defer r.running.Store(false)

	if since.IsZero() {
		since = r.now().Add(-24 * time.Hour)
	}

	refs, err := r.source.ListCandidateMessages(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("listing inbox messages: %w", err)
	}

	result := &Result{Errors: []string{}}
	r.logger.Info("mail check started",
		zap.Time("since", since),
		zap.Int("candidates", len(refs)))

	for _, ref := range refs {
		updated, err := r.processMessage(ctx, ref)
		if err != nil {
			metrics.MessagesProcessed.WithLabelValues("error").Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("message %s: %v", ref.ID, err))
			r.logger.Error("failed to process inbox message",
				zap.String("message_id", ref.ID), zap.Error(err))
			continue
		}
		result.Processed++
		if updated {
			result.Updated++
		}
	}

	r.logger.Info("mail check finished",
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// processMessage handles one inbox message end to end. The bool result
// reports whether any entity was mutated.
func (r *Runner) processMessage(ctx context.Context, ref gmail.MessageRef) (bool, error) {
	if !r.deduper.AcquireOnce(ctx, dedupHandler, ref.ID) {
		// A held key is not proof of success: the store check stays
		// authoritative. Skip only messages that were archived.
		archived, err := r.alreadyArchived(ctx, ref.ID)
		if err != nil {
			return false, err
		}
		if archived {
			r.markRead(ctx, ref.ID)
			metrics.MessagesProcessed.WithLabelValues("skipped").Inc()
			return false, nil
		}
	}

	updated, err := r.ingest(ctx, ref)
	if err != nil {
		// Drop the key so the next poll retries the message.
		r.deduper.Release(ctx, dedupHandler, ref.ID)
		return false, err
	}
	return updated, nil
}

func (r *Runner) alreadyArchived(ctx context.Context, messageID string) (bool, error) {
	exists, err := r.received.ExistsByMessageID(ctx, messageID)
	if err != nil || exists {
		return exists, err
	}
	return r.expertReceived.ExistsByMessageID(ctx, messageID)
}

func (r *Runner) ingest(ctx context.Context, ref gmail.MessageRef) (bool, error) {
	msg, err := r.source.FetchFullMessage(ctx, ref.ID)
	if err != nil {
		return false, fmt.Errorf("fetching message: %w", err)
	}

	content := ExtractContent(msg)
	classification := r.classifier.Classify(msg, content)

	switch classification.Kind {
	case KindBounce:
		return r.handleBounce(ctx, msg, classification.Bounce)
	case KindReply:
		return r.handleReply(ctx, msg, content, classification.Reply)
	case KindSystem:
		// Automated notices are archived read; nothing to mutate.
		r.markRead(ctx, msg.ID)
		metrics.MessagesProcessed.WithLabelValues("skipped").Inc()
		return false, nil
	default:
		// Cold inbound mail stays unread for a human to triage.
		metrics.MessagesProcessed.WithLabelValues("skipped").Inc()
		return false, nil
	}
}

func (r *Runner) handleBounce(ctx context.Context, msg *gmail.Message, bounce *BounceInfo) (bool, error) {
	updated, err := r.controller.HandleBounce(ctx, bounce)
	if err != nil {
		return false, err
	}
	r.markRead(ctx, msg.ID)
	metrics.MessagesProcessed.WithLabelValues("bounce").Inc()
	if updated {
		r.publish(EventEmailBounced, map[string]any{
			"recipient": bounce.Recipient,
			"severity":  string(bounce.Severity),
			"reason":    bounce.Reason,
		})
	}
	return updated, nil
}

func (r *Runner) handleReply(ctx context.Context, msg *gmail.Message, content Content, reply *ReplyInfo) (bool, error) {
	expertMatch, err := r.matcher.MatchExpertThread(ctx, reply)
	if err != nil {
		return false, err
	}
	if expertMatch != nil {
		return r.handleExpertReply(ctx, msg, content, reply, expertMatch)
	}
	return r.handleProspectReply(ctx, msg, content, reply)
}

func (r *Runner) handleExpertReply(ctx context.Context, msg *gmail.Message, content Content, reply *ReplyInfo, match *ExpertMatch) (bool, error) {
	exists, err := r.expertReceived.ExistsByMessageID(ctx, msg.ID)
	if err != nil {
		return false, err
	}
	if exists {
		r.markRead(ctx, msg.ID)
		metrics.MessagesProcessed.WithLabelValues("skipped").Inc()
		return false, nil
	}

	if _, err := r.controller.HandleExpertReply(ctx, msg, content, reply, match); err != nil {
		return false, err
	}
	r.markRead(ctx, msg.ID)
	metrics.MessagesProcessed.WithLabelValues("reply").Inc()
	return true, nil
}

func (r *Runner) handleProspectReply(ctx context.Context, msg *gmail.Message, content Content, reply *ReplyInfo) (bool, error) {
	exists, err := r.received.ExistsByMessageID(ctx, msg.ID)
	if err != nil {
		return false, err
	}
	if exists {
		r.markRead(ctx, msg.ID)
		metrics.MessagesProcessed.WithLabelValues("skipped").Inc()
		return false, nil
	}

	match, err := r.matcher.MatchProspect(ctx, reply.FromAddress)
	if err != nil {
		return false, err
	}

	isNew := false
	if match == nil {
		prospect, err := r.controller.AutoCreateProspect(ctx, reply)
		if err != nil {
			return false, err
		}
		if prospect == nil {
			// System sender that slipped past classification.
			r.markRead(ctx, msg.ID)
			metrics.MessagesProcessed.WithLabelValues("skipped").Inc()
			return false, nil
		}
		isNew = true
		match = &ProspectMatch{
			ProspectID:      prospect.ID,
			OutboundEmailID: model.AutoCreatedOutboundID,
		}
	}

	receivedID, err := r.controller.HandleProspectReply(ctx, msg, content, reply, match, isNew)
	if err != nil {
		return false, err
	}
	r.markRead(ctx, msg.ID)
	metrics.MessagesProcessed.WithLabelValues("reply").Inc()
	r.publish(EventReplyReceived, map[string]any{
		"prospect_id":       match.ProspectID,
		"received_email_id": receivedID,
		"from":              reply.FromAddress,
		"is_new_prospect":   isNew,
	})
	return true, nil
}

func (r *Runner) markRead(ctx context.Context, messageID string) {
	if err := r.source.MarkRead(ctx, messageID); err != nil {
		r.logger.Warn("failed to mark message read",
			zap.String("message_id", messageID), zap.Error(err))
	}
}

func (r *Runner) publish(routingKey string, payload any) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(routingKey, payload); err != nil {
		r.logger.Warn("failed to publish event",
			zap.String("routing_key", routingKey), zap.Error(err))
	}
}
