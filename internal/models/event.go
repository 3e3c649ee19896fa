package models

import (
	"encoding/json"
	"fmt"
)

// Event types carried on the queue
const (
	EventTypeMessage = "message"
	EventTypeComment = "comment"
	EventTypeMention = "mention"
)

// IncomingEvent is the payload the webhook layer pushes onto the work
// queue. It is immutable once enqueued, except for the retry count the
// worker bumps when requeueing a failed event.
type IncomingEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`    // message, comment, mention
	Channel     string `json:"channel"` // instagram, kakao, naver
	UserID      uint   `json:"userId"`
	ChannelID   uint   `json:"channelId"`
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
	Text        string `json:"text"`
	Timestamp   int64  `json:"timestamp"` // epoch millis
	IsTest      bool   `json:"isTest"`
	RetryCount  int    `json:"retryCount"`
	RetryAt     string `json:"retryAt,omitempty"`
}

// Envelope wraps an event the way the ingestion layer serializes it
type Envelope struct {
	Data IncomingEvent `json:"data"`
}

// DecodeEnvelope parses a queue payload into its event
func DecodeEnvelope(payload string) (*IncomingEvent, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	return &env.Data, nil
}

// Encode serializes the event back into its envelope form
func (e *IncomingEvent) Encode() (string, error) {
	b, err := json.Marshal(Envelope{Data: *e})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Validate checks the fields the pipeline dereferences before the first
// retryable step. Anything missing here makes the payload permanently
// unprocessable.
func (e *IncomingEvent) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("missing event type")
	}
	if e.Channel == "" {
		return fmt.Errorf("missing channel")
	}
	if e.UserID == 0 {
		return fmt.Errorf("missing user id")
	}
	if e.ChannelID == 0 {
		return fmt.Errorf("missing channel id")
	}
	if e.SenderID == "" {
		return fmt.Errorf("missing sender id")
	}
	return nil
}
