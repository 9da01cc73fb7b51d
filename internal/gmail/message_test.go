package gmail

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderLookupIsCaseInsensitive(t *testing.T) {
	msg := &Message{Payload: &Part{Headers: []Header{
		{Name: "From", Value: "jane@acme.com"},
		{Name: "In-Reply-To", Value: "<abc@mail.gmail.com>"},
	}}}

	assert.Equal(t, "jane@acme.com", msg.Header("from"))
	assert.Equal(t, "<abc@mail.gmail.com>", msg.Header("IN-REPLY-TO"))
	assert.Empty(t, msg.Header("Subject"))

	var empty *Message
	assert.Empty(t, empty.Header("From"))
	assert.Empty(t, (&Message{}).Header("From"))
}

func TestDecodedData(t *testing.T) {
	body := &Body{Data: base64.RawURLEncoding.EncodeToString([]byte("Bonjour,\nje suis intéressé."))}
	assert.Equal(t, "Bonjour,\nje suis intéressé.", body.DecodedData())

	// Padded variants also decode; garbage quietly yields nothing.
	padded := &Body{Data: base64.URLEncoding.EncodeToString([]byte("ok"))}
	assert.Equal(t, "ok", padded.DecodedData())
	assert.Empty(t, (&Body{Data: "%%%"}).DecodedData())
	var nilBody *Body
	assert.Empty(t, nilBody.DecodedData())
}

func TestMessageUnmarshalsAPIShape(t *testing.T) {
	raw := `{
	  "id": "m-1",
	  "threadId": "t-1",
	  "labelIds": ["INBOX", "UNREAD"],
	  "internalDate": "1755682200000",
	  "payload": {
	    "mimeType": "multipart/alternative",
	    "headers": [{"name": "Subject", "value": "Re: Offre"}],
	    "parts": [
	      {"mimeType": "text/plain", "body": {"size": 4, "data": "dGVzdA"}}
	    ]
	  }
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, "m-1", msg.ID)
	assert.Equal(t, int64(1755682200000), msg.InternalDate)
	assert.Equal(t, "Re: Offre", msg.Header("subject"))
	require.Len(t, msg.Payload.Parts, 1)
	assert.Equal(t, "test", msg.Payload.Parts[0].Body.DecodedData())
}
