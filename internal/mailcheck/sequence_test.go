package mailcheck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prospectflow/internal/model"
)

type controllerFixture struct {
	prospects      *fakeProspectStore
	outbound       *fakeOutboundStore
	followUps      *fakeFollowUpStore
	received       *fakeReceivedStore
	expertReceived *fakeExpertReceivedStore
	notifier       *fakeNotifier
	controller     *Controller
}

func newControllerFixture(prospects ...*model.Prospect) *controllerFixture {
	f := &controllerFixture{
		prospects:      newFakeProspectStore(prospects...),
		outbound:       &fakeOutboundStore{},
		followUps:      newFakeFollowUpStore(),
		received:       &fakeReceivedStore{},
		expertReceived: &fakeExpertReceivedStore{},
		notifier:       &fakeNotifier{},
	}
	f.controller = NewController(
		f.prospects, f.outbound, f.followUps,
		f.received, f.expertReceived,
		f.notifier, NewClassifier(), zap.NewNop(),
	)
	return f
}

func TestHandleBounceHardSeverity(t *testing.T) {
	f := newControllerFixture(&model.Prospect{ID: "p-1", Email: "jane@acme.com"})
	f.outbound.emails = []*model.OutboundEmail{
		{ID: "out-1", ProspectID: "p-1", SentAt: time.Now()},
	}
	f.followUps.pending["p-1"] = 3

	updated, err := f.controller.HandleBounce(context.Background(), &BounceInfo{
		Recipient: "jane@acme.com",
		Severity:  SeverityHard,
		Reason:    "user unknown",
	})

	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, model.ValidityInvalid, f.prospects.bounced["p-1"])
	assert.Contains(t, f.outbound.bouncedFor, "p-1")
	assert.Zero(t, f.followUps.pending["p-1"])
	assert.Equal(t, model.CancelReasonBounced, f.followUps.cancelled["p-1"].CancelledReason)
}

func TestHandleBounceSoftSeveritySetsRisky(t *testing.T) {
	f := newControllerFixture(&model.Prospect{ID: "p-1", Email: "jane@acme.com"})

	updated, err := f.controller.HandleBounce(context.Background(), &BounceInfo{
		Recipient: "jane@acme.com",
		Severity:  SeveritySoft,
		Reason:    "mailbox full",
	})

	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, model.ValidityRisky, f.prospects.bounced["p-1"])
}

func TestHandleBounceUnknownRecipientIsNoop(t *testing.T) {
	f := newControllerFixture()

	updated, err := f.controller.HandleBounce(context.Background(), &BounceInfo{
		Recipient: "stranger@nowhere.io",
		Severity:  SeverityHard,
		Reason:    "user unknown",
	})

	require.NoError(t, err)
	assert.False(t, updated)
	assert.Empty(t, f.prospects.bounced)
	assert.Empty(t, f.outbound.bouncedFor)
}

func TestHandleProspectReplyFullPath(t *testing.T) {
	f := newControllerFixture(&model.Prospect{ID: "p-1", Email: "jane@acme.com"})
	f.followUps.pending["p-1"] = 2

	msg := textMessage("m-1", "Jane Doe <jane@acme.com>", "me@corp.fr",
		"Re: our offer", "<out-123@corp.fr>", "Interested!")
	reply := &ReplyInfo{
		FromAddress: "jane@acme.com",
		FromHeader:  "Jane Doe <jane@acme.com>",
		ToAddress:   "me@corp.fr",
		Subject:     "Re: our offer",
		InReplyTo:   "<out-123@corp.fr>",
	}

	receivedID, err := f.controller.HandleProspectReply(context.Background(), msg, ExtractContent(msg), reply,
		&ProspectMatch{ProspectID: "p-1", OutboundEmailID: "out-1"}, false)

	require.NoError(t, err)
	require.Len(t, f.received.rows, 1)
	row := f.received.rows[0]
	assert.Equal(t, receivedID, row.ID)
	assert.Equal(t, "m-1", row.MessageID)
	assert.Equal(t, "out-1", row.OutboundEmailID)

	assert.Equal(t, []string{"out-1"}, f.outbound.markedReplied)
	assert.Equal(t, "jane@acme.com", f.prospects.replied["p-1"])
	assert.Zero(t, f.followUps.pending["p-1"])
	assert.Equal(t, model.CancelReasonReplied, f.followUps.cancelled["p-1"].CancelledReason)
	assert.Equal(t, "jane@acme.com", f.followUps.cancelled["p-1"].ReplyFrom)

	require.Len(t, f.notifier.prospectCalls, 1)
	call := f.notifier.prospectCalls[0]
	assert.Equal(t, "p-1", call.prospectID)
	assert.Equal(t, receivedID, call.receivedEmailID)
	assert.False(t, call.isNewProspect)
}

func TestHandleProspectReplyForNewProspectSkipsSequenceUpdates(t *testing.T) {
	f := newControllerFixture(&model.Prospect{ID: "p-new", Email: "bob@newco.com"})

	msg := textMessage("m-1", "Bob Martin <bob@newco.com>", "me@corp.fr",
		"Re: hello", "<whatever@elsewhere>", "Who are you?")
	reply := &ReplyInfo{FromAddress: "bob@newco.com", FromHeader: "Bob Martin <bob@newco.com>", ToAddress: "me@corp.fr"}

	_, err := f.controller.HandleProspectReply(context.Background(), msg, ExtractContent(msg), reply,
		&ProspectMatch{ProspectID: "p-new", OutboundEmailID: model.AutoCreatedOutboundID}, true)

	require.NoError(t, err)
	require.Len(t, f.received.rows, 1)
	assert.Equal(t, model.AutoCreatedOutboundID, f.received.rows[0].OutboundEmailID)

	assert.Empty(t, f.outbound.markedReplied)
	assert.Empty(t, f.prospects.replied)
	assert.Empty(t, f.followUps.cancelled)

	require.Len(t, f.notifier.prospectCalls, 1)
	assert.True(t, f.notifier.prospectCalls[0].isNewProspect)
}

func TestHandleExpertReplyArchivesWithoutCancellation(t *testing.T) {
	f := newControllerFixture()

	msg := textMessage("m-1", "client@firm.fr", "expert@corp.fr",
		"Re: dossier", "<ee-msg@corp.fr>", "Merci, je valide.")
	reply := &ReplyInfo{FromAddress: "client@firm.fr", ToAddress: "expert@corp.fr", Subject: "Re: dossier"}

	receivedID, err := f.controller.HandleExpertReply(context.Background(), msg, ExtractContent(msg), reply,
		&ExpertMatch{ExpertEmailID: "ee-1", ExpertID: "ex-1", ClientID: "cl-1"})

	require.NoError(t, err)
	require.Len(t, f.expertReceived.rows, 1)
	assert.Equal(t, receivedID, f.expertReceived.rows[0].ID)
	assert.Equal(t, "ee-1", f.expertReceived.rows[0].ExpertEmailID)

	assert.Empty(t, f.followUps.cancelled)
	require.Len(t, f.notifier.clientCalls, 1)
}

func TestAutoCreateProspect(t *testing.T) {
	f := newControllerFixture()

	prospect, err := f.controller.AutoCreateProspect(context.Background(), &ReplyInfo{
		FromAddress: "Bob@NewCo.com",
		FromHeader:  "Bob Martin <Bob@NewCo.com>",
	})

	require.NoError(t, err)
	require.NotNil(t, prospect)
	assert.Equal(t, "bob@newco.com", prospect.Email)
	assert.Equal(t, "email_reply", prospect.Source)
	assert.Equal(t, model.EmailingReplied, prospect.EmailingStatus)
	assert.Equal(t, model.ValidityValid, prospect.EmailValidity)
	assert.Equal(t, 5, prospect.ScorePriority)
	require.NotNil(t, prospect.FirstName)
	require.NotNil(t, prospect.LastName)
	assert.Equal(t, "Bob", *prospect.FirstName)
	assert.Equal(t, "Martin", *prospect.LastName)
	require.NotNil(t, prospect.CompanyName)
	assert.Equal(t, "newco", *prospect.CompanyName)
	assert.True(t, prospect.Metadata.AutoCreated)
	assert.Equal(t, "gmail_reply", prospect.Metadata.CreatedFrom)
}

func TestAutoCreateProspectSuppressedForSystemSender(t *testing.T) {
	f := newControllerFixture()

	prospect, err := f.controller.AutoCreateProspect(context.Background(), &ReplyInfo{
		FromAddress: "noreply@saas-tool.io",
		FromHeader:  "noreply@saas-tool.io",
	})

	require.NoError(t, err)
	assert.Nil(t, prospect)
	assert.Empty(t, f.prospects.created)
}
