package mailcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBounceFromSystemSender(t *testing.T) {
	c := NewClassifier()
	msg := textMessage("m1", "Mail Delivery Subsystem <mailer-daemon@googlemail.com>", "me@corp.fr",
		"Delivery Status Notification (Failure)", "",
		"Your message to jane@acme.com was not delivered. 550 user unknown.")

	result := c.Classify(msg, ExtractContent(msg))

	require.Equal(t, KindBounce, result.Kind)
	require.NotNil(t, result.Bounce)
	assert.Equal(t, "jane@acme.com", result.Bounce.Recipient)
	assert.Equal(t, SeverityHard, result.Bounce.Severity)
	assert.Equal(t, "user unknown", result.Bounce.Reason)
}

func TestClassifyBounceRecipientPrefersSubject(t *testing.T) {
	c := NewClassifier()
	msg := textMessage("m1", "postmaster@outlook.com", "me@corp.fr",
		"Undeliverable: offer for bob@target.io", "",
		"Could not reach other@elsewhere.net, mailbox full")

	result := c.Classify(msg, ExtractContent(msg))

	require.Equal(t, KindBounce, result.Kind)
	assert.Equal(t, "bob@target.io", result.Bounce.Recipient)
	assert.Equal(t, SeveritySoft, result.Bounce.Severity)
}

func TestClassifyBounceDefaultsToHardUnknown(t *testing.T) {
	c := NewClassifier()
	msg := textMessage("m1", "bounce@mailer.example.com", "me@corp.fr",
		"Delivery problem", "", "Something went wrong.")

	result := c.Classify(msg, ExtractContent(msg))

	require.Equal(t, KindBounce, result.Kind)
	assert.Equal(t, SeverityHard, result.Bounce.Severity)
	assert.Equal(t, "Unknown", result.Bounce.Reason)
}

func TestClassifySystemSenderIsNotABounce(t *testing.T) {
	c := NewClassifier()
	// An address in an automated notice's subject must not become a
	// bounce victim.
	msg := textMessage("m1", "noreply@calendar.google.com", "me@corp.fr",
		"Reminder: call with jane@acme.com", "", "Your meeting starts in 10 minutes.")

	result := c.Classify(msg, ExtractContent(msg))

	assert.Equal(t, KindSystem, result.Kind)
	assert.Nil(t, result.Bounce)
	assert.Nil(t, result.Reply)
}

func TestClassifySkipsColdInboundMail(t *testing.T) {
	c := NewClassifier()
	msg := textMessage("m1", "someone@random.org", "me@corp.fr",
		"Partnership opportunity", "", "Hello, we sell backlinks.")

	result := c.Classify(msg, ExtractContent(msg))

	assert.Equal(t, KindSkip, result.Kind)
	assert.Nil(t, result.Reply)
	assert.Nil(t, result.Bounce)
}

func TestClassifyThreadedReply(t *testing.T) {
	c := NewClassifier()
	msg := textMessage("m1", "Jane Doe <jane@acme.com>", "me@corp.fr",
		"Re: our offer", "<out-123@mail.corp.fr>", "Sounds interesting, call me.")

	result := c.Classify(msg, ExtractContent(msg))

	require.Equal(t, KindReply, result.Kind)
	require.NotNil(t, result.Reply)
	assert.Equal(t, "jane@acme.com", result.Reply.FromAddress)
	assert.Equal(t, "Jane Doe <jane@acme.com>", result.Reply.FromHeader)
	assert.Equal(t, "me@corp.fr", result.Reply.ToAddress)
	assert.Equal(t, "<out-123@mail.corp.fr>", result.Reply.InReplyTo)
}

func TestIsSystemSender(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.IsSystemSender("MAILER-DAEMON@googlemail.com"))
	assert.True(t, c.IsSystemSender("noreply@service.io"))
	assert.True(t, c.IsSystemSender("no-reply@service.io"))
	assert.False(t, c.IsSystemSender("jane@acme.com"))
}
