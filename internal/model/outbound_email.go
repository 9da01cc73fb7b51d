package model

import "time"

// OutboundEmail is one row per prospecting email sent to a prospect.
type OutboundEmail struct {
	ID         string
	ProspectID string
	Step       int
	Subject    string
	SentAt     time.Time
	Replied    bool
	RepliedAt  *time.Time
	Bounced    bool
	BouncedAt  *time.Time
	Metadata   OutboundEmailMetadata
}

type OutboundEmailMetadata struct {
	MessageID       string `json:"message_id,omitempty"`
	ReplyMessageID  string `json:"reply_message_id,omitempty"`
	ReplyFrom       string `json:"reply_from,omitempty"`
	ReplySubject    string `json:"reply_subject,omitempty"`
	ReceivedEmailID string `json:"email_received_id,omitempty"`
	BounceReason    string `json:"bounce_reason,omitempty"`
}
