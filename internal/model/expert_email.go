package model

import "time"

// ExpertEmail links an expert-sent email, identified by its outbound
// message id, to the expert/client pair it belongs to. Used only to
// resolve inbound replies back to the right thread.
type ExpertEmail struct {
	ID              string
	ExpertID        string
	ClientID        string
	ClientProductID *string
	MessageID       string
	Subject         string
	Status          string // only "sent" rows participate in matching
	SentAt          time.Time
}
