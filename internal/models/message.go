package models

import (
	"strconv"
	"strings"
)

const whatsappPrefix = "whatsapp:"

// InboundMessage is a single WhatsApp message delivered by the webhook.
// It is built per request and never persisted.
type InboundMessage struct {
	From     string // sender id, see SenderID
	Body     string
	NumMedia int
	MediaURL string // first attachment, may be empty
}

// NewInboundMessage builds a message from raw transport fields
func NewInboundMessage(from, body, numMedia, mediaURL string) InboundMessage {
	n, err := strconv.Atoi(strings.TrimSpace(numMedia))
	if err != nil || n < 0 {
		n = 0
	}
	return InboundMessage{
		From:     SenderID(from),
		Body:     body,
		NumMedia: n,
		MediaURL: strings.TrimSpace(mediaURL),
	}
}

// SenderID derives the seller id from a transport address such as
// "whatsapp:+233241234567" -> "233241234567".
func SenderID(address string) string {
	id := strings.TrimSpace(address)
	id = strings.TrimPrefix(id, whatsappPrefix)
	return strings.TrimPrefix(id, "+")
}
