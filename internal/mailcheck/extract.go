package mailcheck

import (
	"prospectflow/internal/gmail"
)

// Content is the decoded body of an inbound message. HTML is stored as
// opaque content; no sanitization happens here.
type Content struct {
	HTML    *string
	Text    *string
	Snippet string
}

// ExtractContent walks the payload tree and pulls out the first-level
// html/text bodies plus the source-provided preview snippet.
func ExtractContent(msg *gmail.Message) Content {
	c := Content{Snippet: msg.Snippet}
	if msg.Payload == nil {
		return c
	}

	// Single-part messages carry the body directly on the payload.
	if data := msg.Payload.Body.DecodedData(); data != "" {
		switch msg.Payload.MimeType {
		case "text/html":
			c.HTML = &data
		case "text/plain":
			c.Text = &data
		}
	}

	for _, part := range msg.Payload.Parts {
		extractPart(part, &c)
	}
	return c
}

func extractPart(part *gmail.Part, c *Content) {
	if part == nil {
		return
	}

	if data := part.Body.DecodedData(); data != "" {
		switch part.MimeType {
		case "text/html":
			c.HTML = &data
		case "text/plain":
			c.Text = &data
		}
	}

	for _, sub := range part.Parts {
		extractPart(sub, c)
	}
}
