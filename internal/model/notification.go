package model

import "time"

type NotificationType string

const (
	NotifProspectReply    NotificationType = "prospect_reply"
	NotifProspectNewEmail NotificationType = "prospect_new_email"
	NotifClientReply      NotificationType = "client_reply"
)

type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is an in-app notification row. Created by this core,
// never mutated (read-state changes belong to the UI).
type Notification struct {
	ID          string
	RecipientID string
	Role        string
	Type        NotificationType
	Title       string
	Message     string
	Priority    NotificationPriority
	IsRead      bool
	ActionURL   string
	ActionLabel string
	Metadata    NotificationMetadata
	CreatedAt   time.Time
}

type NotificationMetadata struct {
	ProspectID      string `json:"prospect_id,omitempty"`
	ClientID        string `json:"client_id,omitempty"`
	ReceivedEmailID string `json:"email_received_id,omitempty"`
	ProspectEmail   string `json:"prospect_email,omitempty"`
	ProspectName    string `json:"prospect_name,omitempty"`
	ReplyFrom       string `json:"reply_from,omitempty"`
	IsNewProspect   bool   `json:"is_new_prospect,omitempty"`
	RepliedAt       string `json:"replied_at,omitempty"`
}
