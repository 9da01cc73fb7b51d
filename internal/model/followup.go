package model

import "time"

type FollowUpStatus string

const (
	FollowUpScheduled FollowUpStatus = "scheduled"
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpSent      FollowUpStatus = "sent"
	FollowUpCancelled FollowUpStatus = "cancelled"
)

// Cancellation reasons recorded on the follow-up metadata.
const (
	CancelReasonBounced = "email_bounced"
	CancelReasonReplied = "prospect_replied"
)

// ScheduledFollowUp is a pending future send in an outreach sequence.
// Once a prospect replies or bounces, none of its rows may remain in
// scheduled or pending state.
type ScheduledFollowUp struct {
	ID           string
	ProspectID   string
	StepNumber   int
	Status       FollowUpStatus
	ScheduledFor time.Time
	Metadata     FollowUpMetadata
	UpdatedAt    time.Time
}

type FollowUpMetadata struct {
	CancelledReason string `json:"cancelled_reason,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	ReplyFrom       string `json:"reply_from,omitempty"`
}
