package mailcheck

import (
	"strings"

	"prospectflow/internal/gmail"
)

type Kind int

const (
	KindSkip Kind = iota
	KindBounce
	KindReply
	KindSystem
)

type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Classification is the tagged outcome of examining one message.
// Exactly one of Bounce/Reply is set for the matching kind.
type Classification struct {
	Kind   Kind
	Bounce *BounceInfo
	Reply  *ReplyInfo
}

// BounceInfo describes a delivery-failure notice.
type BounceInfo struct {
	Recipient string // original failed recipient, "" when not extractable
	Severity  Severity
	Reason    string
}

// ReplyInfo describes a message threaded onto a tracked outbound email.
type ReplyInfo struct {
	FromAddress string
	FromHeader  string
	ToAddress   string
	Subject     string
	InReplyTo   string
	References  []string
}

// SenderRule is one entry of the injectable system-sender policy:
// a From address containing Pattern is attributed to Outcome.
type SenderRule struct {
	Pattern string
	Outcome string
}

// severityRule maps a diagnostic phrase to a bounce severity.
type severityRule struct {
	phrase   string
	severity Severity
}

// Classifier decides whether a message is a bounce, a tracked reply, or
// noise to skip. Matching rules are data so they can be tested and
// extended without touching the pipeline.
type Classifier struct {
	senderRules   []SenderRule
	severityRules []severityRule
}

func NewClassifier() *Classifier {
	return &Classifier{
		senderRules: []SenderRule{
			{Pattern: "mailer-daemon@", Outcome: "bounce"},
			{Pattern: "postmaster@", Outcome: "bounce"},
			{Pattern: "bounce@", Outcome: "bounce"},
			{Pattern: "bounces@", Outcome: "bounce"},
			{Pattern: "noreply@", Outcome: "system"},
			{Pattern: "no-reply@", Outcome: "system"},
			{Pattern: "donotreply@", Outcome: "system"},
		},
		severityRules: []severityRule{
			{"user unknown", SeverityHard},
			{"no such user", SeverityHard},
			{"address not found", SeverityHard},
			{"recipient address rejected", SeverityHard},
			{"does not exist", SeverityHard},
			{"invalid recipient", SeverityHard},
			{"mailbox full", SeveritySoft},
			{"quota exceeded", SeveritySoft},
			{"temporarily unavailable", SeveritySoft},
			{"try again later", SeveritySoft},
		},
	}
}

// IsSystemSender reports whether the address matches any system-sender
// pattern. Auto-creation of prospects is suppressed for these.
func (c *Classifier) IsSystemSender(address string) bool {
	return c.senderOutcome(address) != ""
}

// senderOutcome returns the outcome of the first matching sender rule,
// or "" for human senders.
func (c *Classifier) senderOutcome(address string) string {
	lower := strings.ToLower(address)
	for _, rule := range c.senderRules {
		if strings.Contains(lower, rule.Pattern) {
			return rule.Outcome
		}
	}
	return ""
}

// Classify runs the two checks of the reply pipeline in order: bounce
// detection, then the reply-thread guard.
func (c *Classifier) Classify(msg *gmail.Message, content Content) Classification {
	fromHeader := msg.Header("From")
	fromAddr := ExtractAddress(fromHeader)

	switch c.senderOutcome(fromAddr) {
	case "bounce":
		return Classification{Kind: KindBounce, Bounce: c.classifyBounce(msg, content)}
	case "system":
		// Automated notices (noreply@ and friends) carry no failed
		// recipient; an address in their subject must not be treated
		// as a bounce victim.
		return Classification{Kind: KindSystem}
	}

	inReplyTo := msg.Header("In-Reply-To")
	references := msg.Header("References")
	if inReplyTo == "" && references == "" {
		// Unsolicited inbound mail: not archived, not processed.
		return Classification{Kind: KindSkip}
	}

	toAddr := ExtractAddress(msg.Header("To"))
	if fromAddr == "" || toAddr == "" {
		return Classification{Kind: KindSkip}
	}

	return Classification{
		Kind: KindReply,
		Reply: &ReplyInfo{
			FromAddress: fromAddr,
			FromHeader:  fromHeader,
			ToAddress:   toAddr,
			Subject:     msg.Header("Subject"),
			InReplyTo:   inReplyTo,
			References:  strings.Fields(references),
		},
	}
}

func (c *Classifier) classifyBounce(msg *gmail.Message, content Content) *BounceInfo {
	subject := msg.Header("Subject")

	// The failed recipient usually appears in the subject; the body is
	// the fallback.
	recipient := FirstAddressIn(subject)
	if recipient == "" && content.Text != nil {
		recipient = FirstAddressIn(*content.Text)
	}

	haystack := strings.ToLower(subject)
	if content.Text != nil {
		haystack += " " + strings.ToLower(*content.Text)
	}

	for _, rule := range c.severityRules {
		if strings.Contains(haystack, rule.phrase) {
			return &BounceInfo{
				Recipient: recipient,
				Severity:  rule.severity,
				Reason:    rule.phrase,
			}
		}
	}

	return &BounceInfo{
		Recipient: recipient,
		Severity:  SeverityHard,
		Reason:    "Unknown",
	}
}
