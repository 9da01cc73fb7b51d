package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prospectflow/internal/model"
	"prospectflow/pkg/metrics"
)

// AccountStore lists notification recipients.
type AccountStore interface {
	ActiveByRole(ctx context.Context, role model.Role) ([]*model.Account, error)
	ByID(ctx context.Context, id string) (*model.Account, error)
}

// NotificationStore persists notification rows.
type NotificationStore interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// ProspectReader loads prospect details for notification text.
type ProspectReader interface {
	FindByID(ctx context.Context, id string) (*model.Prospect, error)
}

// Emitter fans notifications out to user accounts. A recipient without
// an identity-provider link is skipped; a failed insert for one
// recipient does not stop delivery to the others.
type Emitter struct {
	accounts      AccountStore
	notifications NotificationStore
	prospects     ProspectReader
	logger        *zap.Logger
	now           func() time.Time
}

func NewEmitter(accounts AccountStore, notifications NotificationStore, prospects ProspectReader, logger *zap.Logger) *Emitter {
	return &Emitter{
		accounts:      accounts,
		notifications: notifications,
		prospects:     prospects,
		logger:        logger,
		now:           time.Now,
	}
}

// ProspectReplyReceived notifies all active admins of an inbound
// prospect reply. Returns how many notifications were created.
func (e *Emitter) ProspectReplyReceived(ctx context.Context, prospectID, receivedEmailID, replyFrom string, isNewProspect bool) (int, error) {
	prospect, err := e.prospects.FindByID(ctx, prospectID)
	if err != nil {
		return 0, fmt.Errorf("loading prospect %s: %w", prospectID, err)
	}
	if prospect == nil {
		return 0, fmt.Errorf("prospect %s not found", prospectID)
	}

	name := prospectDisplayName(prospect)

	notifType := model.NotifProspectReply
	priority := model.PriorityHigh
	title := "Nouvelle réponse prospect"
	message := fmt.Sprintf("%s a répondu à votre email de prospection", name)
	if isNewProspect {
		notifType = model.NotifProspectNewEmail
		priority = model.PriorityUrgent
		title = "Nouveau prospect entrant"
		message = fmt.Sprintf("%s vous a contacté par email", name)
	}

	template := model.Notification{
		Role:        string(model.RoleAdmin),
		Type:        notifType,
		Title:       title,
		Message:     message,
		Priority:    priority,
		ActionURL:   fmt.Sprintf("/admin/prospection/email-reply/%s/%s", prospectID, receivedEmailID),
		ActionLabel: "Voir la réponse",
		Metadata: model.NotificationMetadata{
			ProspectID:      prospectID,
			ReceivedEmailID: receivedEmailID,
			ProspectEmail:   prospect.Email,
			ProspectName:    name,
			ReplyFrom:       replyFrom,
			IsNewProspect:   isNewProspect,
			RepliedAt:       e.now().UTC().Format(time.RFC3339),
		},
	}
	return e.notifyRole(ctx, model.RoleAdmin, template)
}

// ClientReplyReceived notifies an expert that one of their clients
// replied on an expert-sent thread. Returns how many notifications
// were created.
func (e *Emitter) ClientReplyReceived(ctx context.Context, expertID, clientID, receivedEmailID, replyFrom string) (int, error) {
	template := model.Notification{
		Role:        string(model.RoleExpert),
		Type:        model.NotifClientReply,
		Title:       "Réponse client reçue",
		Message:     fmt.Sprintf("Votre client a répondu depuis %s", replyFrom),
		Priority:    model.PriorityHigh,
		ActionURL:   fmt.Sprintf("/expert/messages/%s", receivedEmailID),
		ActionLabel: "Voir le message",
		Metadata: model.NotificationMetadata{
			ClientID:        clientID,
			ReceivedEmailID: receivedEmailID,
			ReplyFrom:       replyFrom,
			RepliedAt:       e.now().UTC().Format(time.RFC3339),
		},
	}
	return e.notifyUser(ctx, expertID, template)
}

// notifyRole delivers one notification per active account holding the
// role and returns how many were created. Accounts without an
// identity-provider link are skipped silently.
func (e *Emitter) notifyRole(ctx context.Context, role model.Role, template model.Notification) (int, error) {
	accounts, err := e.accounts.ActiveByRole(ctx, role)
	if err != nil {
		return 0, fmt.Errorf("listing %s accounts: %w", role, err)
	}

	delivered := 0
	for _, account := range accounts {
		if account.AuthID == nil {
			continue
		}
		if err := e.insertFor(ctx, account.ID, template); err != nil {
			e.logger.Error("failed to insert notification",
				zap.String("recipient_id", account.ID), zap.Error(err))
			continue
		}
		delivered++
	}

	e.logger.Info("notifications delivered",
		zap.String("role", string(role)),
		zap.String("type", string(template.Type)),
		zap.Int("delivered", delivered),
		zap.Int("recipients", len(accounts)))
	return delivered, nil
}

func (e *Emitter) notifyUser(ctx context.Context, accountID string, template model.Notification) (int, error) {
	account, err := e.accounts.ByID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	if account == nil || !account.Active || account.AuthID == nil {
		e.logger.Info("notification recipient unavailable, dropping",
			zap.String("account_id", accountID))
		return 0, nil
	}
	if err := e.insertFor(ctx, account.ID, template); err != nil {
		return 0, err
	}
	return 1, nil
}

func (e *Emitter) insertFor(ctx context.Context, recipientID string, template model.Notification) error {
	n := template
	n.ID = uuid.New().String()
	n.RecipientID = recipientID
	n.CreatedAt = e.now()
	if err := e.notifications.Insert(ctx, &n); err != nil {
		return err
	}
	metrics.NotificationsCreated.Inc()
	return nil
}

func prospectDisplayName(p *model.Prospect) string {
	switch {
	case p.FirstName != nil && p.LastName != nil:
		return *p.FirstName + " " + *p.LastName
	case p.FirstName != nil:
		return *p.FirstName
	case p.LastName != nil:
		return *p.LastName
	case p.CompanyName != nil && *p.CompanyName != "":
		return *p.CompanyName
	default:
		return p.Email
	}
}
