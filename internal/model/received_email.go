package model

import "time"

// AutoCreatedOutboundID marks a received email whose prospect was
// created on the fly, with no prior outbound record to attach to.
const AutoCreatedOutboundID = "auto-created"

// ReceivedEmail is the immutable record of an inbound prospect reply.
// At most one row exists per source message id.
type ReceivedEmail struct {
	ID              string
	ProspectID      string
	OutboundEmailID string // AutoCreatedOutboundID when no outbound row matched
	MessageID       string
	ThreadID        string
	FromEmail       string
	FromName        string
	ToEmail         string
	Subject         string
	BodyHTML        *string
	BodyText        *string
	Snippet         string
	InReplyTo       *string
	References      []string
	ReceivedAt      time.Time
	IsRead          bool
	IsReplied       bool
}

// ExpertReceivedEmail is the expert-client variant: an inbound reply on
// a thread opened by an expert-sent email. No outreach sequence exists
// for these threads.
type ExpertReceivedEmail struct {
	ID              string
	ExpertEmailID   string
	ExpertID        string
	ClientID        string
	ClientProductID *string
	MessageID       string
	ThreadID        string
	FromEmail       string
	FromName        string
	ToEmail         string
	Subject         string
	BodyHTML        *string
	BodyText        *string
	Snippet         string
	InReplyTo       *string
	References      []string
	ReceivedAt      time.Time
	IsRead          bool
	IsReplied       bool
}
