package line

import (
	"encoding/json"

	"bakerybot/backend/pkg/errors"
)

// WebhookPayload is the inbound delivery envelope. A delivery can carry
// several events; only the first is processed, matching the upstream
// behavior this service replaces
type WebhookPayload struct {
	Events []Event `json:"events"`
}

// Event is one inbound message event
type Event struct {
	ReplyToken string       `json:"replyToken"`
	Message    EventMessage `json:"message"`
	Source     EventSource  `json:"source"`
}

// EventMessage is the message part of an event
type EventMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EventSource identifies the sender
type EventSource struct {
	UserID string `json:"userId"`
}

// ParseEvent extracts the first usable text event from a webhook body.
// Malformed payloads return ErrMalformedEvent; the HTTP handler still
// acknowledges the delivery so the channel does not retry forever
func ParseEvent(body []byte) (*Event, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewMalformedEvent("body does not parse", err)
	}
	if len(payload.Events) == 0 {
		return nil, errors.NewMalformedEvent("no events in delivery", nil)
	}

	event := payload.Events[0]
	if event.Message.Text == "" {
		return nil, errors.NewMalformedEvent("event has no message text", nil)
	}
	if event.ReplyToken == "" {
		return nil, errors.NewMalformedEvent("event has no reply token", nil)
	}
	if event.Source.UserID == "" {
		return nil, errors.NewMalformedEvent("event has no user id", nil)
	}

	return &event, nil
}
