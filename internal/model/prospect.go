package model

import (
	"encoding/json"
	"time"
)

type EmailingStatus string

const (
	EmailingNotContacted EmailingStatus = "not_contacted"
	EmailingContacted    EmailingStatus = "contacted"
	EmailingSent         EmailingStatus = "sent"
	EmailingReplied      EmailingStatus = "replied"
	EmailingBounced      EmailingStatus = "bounced"
)

type EmailValidity string

const (
	ValidityValid   EmailValidity = "valid"
	ValidityRisky   EmailValidity = "risky"
	ValidityInvalid EmailValidity = "invalid"
)

// Prospect is a potential customer contacted through outbound email.
// Never hard-deleted by this core.
type Prospect struct {
	ID             string
	Email          string
	FirstName      *string
	LastName       *string
	CompanyName    *string
	Source         string
	EmailingStatus EmailingStatus
	EmailValidity  EmailValidity
	ScorePriority  int
	Metadata       ProspectMetadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProspectMetadata is the typed view of the prospect's metadata bag.
// Unknown keys survive a load/store round trip through Extra; they are
// only touched at the serialization boundary.
type ProspectMetadata struct {
	CreatedFrom        string `json:"created_from,omitempty"`
	OriginalFromHeader string `json:"original_from_header,omitempty"`
	AutoCreated        bool   `json:"auto_created,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	LastReplyFrom      string `json:"last_reply_from,omitempty"`
	LastReplyAt        string `json:"last_reply_at,omitempty"`
	SequenceStopped    bool   `json:"sequence_stopped,omitempty"`
	BounceReason       string `json:"bounce_reason,omitempty"`
	BouncedAt          string `json:"bounced_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (m ProspectMetadata) MarshalJSON() ([]byte, error) {
	type alias ProspectMetadata
	known, err := json.Marshal(alias(m))
	if err != nil {
		return nil, err
	}

	if len(m.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(m.Extra)+8)
	for k, v := range m.Extra {
		merged[k] = v
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (m *ProspectMetadata) UnmarshalJSON(data []byte) error {
	type alias ProspectMetadata
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range []string{
		"created_from", "original_from_header", "auto_created", "created_at",
		"last_reply_from", "last_reply_at", "sequence_stopped",
		"bounce_reason", "bounced_at",
	} {
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*m = ProspectMetadata(known)
	m.Extra = raw
	return nil
}
