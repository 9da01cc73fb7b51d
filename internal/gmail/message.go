package gmail

import (
	"encoding/base64"
	"strings"
)

// MessageRef is a lightweight handle returned by a list call.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Message is a fully fetched mailbox message.
type Message struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	Snippet      string   `json:"snippet"`
	InternalDate int64    `json:"internalDate,string"` // epoch millis
	Payload      *Part    `json:"payload"`
}

// Part is one node of the (possibly nested) MIME payload tree.
type Part struct {
	MimeType string   `json:"mimeType"`
	Headers  []Header `json:"headers"`
	Body     *Body    `json:"body"`
	Parts    []*Part  `json:"parts"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Body struct {
	Size int    `json:"size"`
	Data string `json:"data"` // base64url
}

// Header returns the first header with the given name, case-insensitive.
// Empty string when absent.
func (m *Message) Header(name string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// DecodedData returns the body data decoded from base64url.
func (b *Body) DecodedData() string {
	if b == nil || b.Data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(b.Data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}
