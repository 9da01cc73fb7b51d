package mailcheck

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prospectflow/internal/gmail"
	"prospectflow/internal/model"
	"prospectflow/pkg/metrics"
)

// Controller applies the state transition for a classified and matched
// message. Mutations are attempted independently: a failed step is
// logged and the remaining steps still run.
type Controller struct {
	prospects      ProspectStore
	outbound       OutboundStore
	followUps      FollowUpStore
	received       ReceivedStore
	expertReceived ExpertReceivedStore
	notifier       Notifier
	classifier     *Classifier
	logger         *zap.Logger
	now            func() time.Time
}

func NewController(
	prospects ProspectStore,
	outbound OutboundStore,
	followUps FollowUpStore,
	received ReceivedStore,
	expertReceived ExpertReceivedStore,
	notifier Notifier,
	classifier *Classifier,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		prospects:      prospects,
		outbound:       outbound,
		followUps:      followUps,
		received:       received,
		expertReceived: expertReceived,
		notifier:       notifier,
		classifier:     classifier,
		logger:         logger,
		now:            time.Now,
	}
}

// HandleBounce marks the prospect bounced and halts its sequence.
// Returns whether any entity was updated.
func (c *Controller) HandleBounce(ctx context.Context, bounce *BounceInfo) (bool, error) {
	if bounce.Recipient == "" {
		c.logger.Warn("bounce without extractable recipient, dropping",
			zap.String("reason", bounce.Reason))
		return false, nil
	}

	prospect, err := c.prospects.FindByEmail(ctx, strings.ToLower(bounce.Recipient))
	if err != nil {
		return false, err
	}
	if prospect == nil {
		c.logger.Info("bounce recipient is not a known prospect",
			zap.String("recipient", bounce.Recipient))
		return false, nil
	}

	now := c.now()
	validity := model.ValidityInvalid
	if bounce.Severity == SeveritySoft {
		validity = model.ValidityRisky
	}

	if err := c.outbound.MarkAllBounced(ctx, prospect.ID, bounce.Reason, now); err != nil {
		c.logger.Error("failed to mark outbound emails bounced",
			zap.String("prospect_id", prospect.ID), zap.Error(err))
	}

	if err := c.prospects.SetBounced(ctx, prospect.ID, validity, bounce.Reason, now); err != nil {
		c.logger.Error("failed to set prospect bounced",
			zap.String("prospect_id", prospect.ID), zap.Error(err))
	}

	c.cancelFollowUps(ctx, prospect.ID, model.FollowUpMetadata{
		CancelledReason: model.CancelReasonBounced,
		CancelledAt:     now.UTC().Format(time.RFC3339),
	})

	return true, nil
}

// HandleProspectReply archives the inbound message, attaches it to the
// matched outbound record and stops the prospect's sequence. The
// archived row id is returned.
func (c *Controller) HandleProspectReply(ctx context.Context, msg *gmail.Message, content Content, reply *ReplyInfo, match *ProspectMatch, isNewProspect bool) (string, error) {
	receivedAt := c.receivedTime(msg)

	row := &model.ReceivedEmail{
		ID:              uuid.New().String(),
		ProspectID:      match.ProspectID,
		OutboundEmailID: match.OutboundEmailID,
		MessageID:       msg.ID,
		ThreadID:        msg.ThreadID,
		FromEmail:       reply.FromAddress,
		FromName:        reply.FromHeader,
		ToEmail:         reply.ToAddress,
		Subject:         reply.Subject,
		BodyHTML:        content.HTML,
		BodyText:        content.Text,
		Snippet:         content.Snippet,
		InReplyTo:       optional(reply.InReplyTo),
		References:      reply.References,
		ReceivedAt:      receivedAt,
	}

	if err := c.received.Insert(ctx, row); err != nil {
		return "", err
	}

	if match.OutboundEmailID != model.AutoCreatedOutboundID {
		meta := model.OutboundEmailMetadata{
			ReplyMessageID:  msg.ID,
			ReplyFrom:       reply.FromAddress,
			ReplySubject:    reply.Subject,
			ReceivedEmailID: row.ID,
		}
		if err := c.outbound.MarkReplied(ctx, match.OutboundEmailID, meta, receivedAt); err != nil {
			c.logger.Error("failed to mark outbound email replied",
				zap.String("outbound_email_id", match.OutboundEmailID), zap.Error(err))
		}
	}

	// A freshly auto-created prospect is already in the replied state
	// and has no sequence to stop.
	if !isNewProspect {
		if err := c.prospects.SetReplied(ctx, match.ProspectID, reply.FromAddress, c.now()); err != nil {
			c.logger.Error("failed to set prospect replied",
				zap.String("prospect_id", match.ProspectID), zap.Error(err))
		}

		c.cancelFollowUps(ctx, match.ProspectID, model.FollowUpMetadata{
			CancelledReason: model.CancelReasonReplied,
			CancelledAt:     c.now().UTC().Format(time.RFC3339),
			ReplyFrom:       reply.FromAddress,
		})
	}

	if _, err := c.notifier.ProspectReplyReceived(ctx, match.ProspectID, row.ID, reply.FromAddress, isNewProspect); err != nil {
		c.logger.Error("failed to notify admins of prospect reply",
			zap.String("prospect_id", match.ProspectID), zap.Error(err))
	}

	return row.ID, nil
}

// HandleExpertReply archives the inbound message on the expert-client
// thread. No sequence cancellation applies there.
func (c *Controller) HandleExpertReply(ctx context.Context, msg *gmail.Message, content Content, reply *ReplyInfo, match *ExpertMatch) (string, error) {
	row := &model.ExpertReceivedEmail{
		ID:              uuid.New().String(),
		ExpertEmailID:   match.ExpertEmailID,
		ExpertID:        match.ExpertID,
		ClientID:        match.ClientID,
		ClientProductID: match.ClientProductID,
		MessageID:       msg.ID,
		ThreadID:        msg.ThreadID,
		FromEmail:       reply.FromAddress,
		FromName:        reply.FromHeader,
		ToEmail:         reply.ToAddress,
		Subject:         reply.Subject,
		BodyHTML:        content.HTML,
		BodyText:        content.Text,
		Snippet:         content.Snippet,
		InReplyTo:       optional(reply.InReplyTo),
		References:      reply.References,
		ReceivedAt:      c.receivedTime(msg),
	}

	if err := c.expertReceived.Insert(ctx, row); err != nil {
		return "", err
	}

	if _, err := c.notifier.ClientReplyReceived(ctx, match.ExpertID, match.ClientID, row.ID, reply.FromAddress); err != nil {
		c.logger.Error("failed to notify expert of client reply",
			zap.String("expert_id", match.ExpertID), zap.Error(err))
	}

	return row.ID, nil
}

// AutoCreateProspect creates a prospect from an unmatched inbound
// reply. System senders never become prospects; callers get (nil, nil)
// and drop the message.
func (c *Controller) AutoCreateProspect(ctx context.Context, reply *ReplyInfo) (*model.Prospect, error) {
	if c.classifier.IsSystemSender(reply.FromAddress) {
		c.logger.Info("suppressing prospect auto-creation for system sender",
			zap.String("from", reply.FromAddress))
		return nil, nil
	}

	first, last := SplitDisplayName(ExtractDisplayName(reply.FromHeader))

	var companyName *string
	if domain := EmailDomain(reply.FromAddress); domain != "" {
		label, _, _ := strings.Cut(domain, ".")
		companyName = &label
	}

	now := c.now()
	prospect := &model.Prospect{
		ID:             uuid.New().String(),
		Email:          strings.ToLower(reply.FromAddress),
		FirstName:      optional(first),
		LastName:       optional(last),
		CompanyName:    companyName,
		Source:         "email_reply",
		EmailingStatus: model.EmailingReplied,
		EmailValidity:  model.ValidityValid,
		ScorePriority:  5, // inbound replies rank high
		Metadata: model.ProspectMetadata{
			CreatedFrom:        "gmail_reply",
			OriginalFromHeader: reply.FromHeader,
			AutoCreated:        true,
			CreatedAt:          now.UTC().Format(time.RFC3339),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.prospects.Create(ctx, prospect); err != nil {
		return nil, err
	}

	c.logger.Info("prospect auto-created from inbound reply",
		zap.String("prospect_id", prospect.ID),
		zap.String("email", prospect.Email))
	return prospect, nil
}

func (c *Controller) cancelFollowUps(ctx context.Context, prospectID string, meta model.FollowUpMetadata) {
	count, err := c.followUps.CancelPending(ctx, prospectID, meta)
	if err != nil {
		c.logger.Error("failed to cancel scheduled follow-ups",
			zap.String("prospect_id", prospectID), zap.Error(err))
		return
	}
	metrics.SequencesCancelled.Add(float64(count))
	c.logger.Info("scheduled follow-ups cancelled",
		zap.String("prospect_id", prospectID),
		zap.Int("count", count),
		zap.String("reason", meta.CancelledReason))
}

func (c *Controller) receivedTime(msg *gmail.Message) time.Time {
	if msg.InternalDate > 0 {
		return time.UnixMilli(msg.InternalDate)
	}
	return c.now()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
