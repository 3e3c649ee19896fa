package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	payload := `{"data":{"id":"evt-1","type":"message","channel":"instagram","userId":7,"channelId":3,"senderId":"S1","senderName":"Kim","text":"가격이 얼마에요","timestamp":1735689600000,"isTest":false,"retryCount":0}}`

	event, err := DecodeEnvelope(payload)
	require.NoError(t, err)

	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, EventTypeMessage, event.Type)
	assert.Equal(t, ChannelInstagram, event.Channel)
	assert.Equal(t, uint(7), event.UserID)
	assert.Equal(t, uint(3), event.ChannelID)
	assert.Equal(t, "S1", event.SenderID)
	assert.Equal(t, int64(1735689600000), event.Timestamp)
	assert.Equal(t, 0, event.RetryCount)
	require.NoError(t, event.Validate())
}

func TestDecodeEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeEnvelope("{not json")
	assert.Error(t, err)
}

func TestIncomingEvent_Validate(t *testing.T) {
	valid := IncomingEvent{
		Type:      EventTypeMessage,
		Channel:   ChannelInstagram,
		UserID:    1,
		ChannelID: 1,
		SenderID:  "S1",
	}

	tests := []struct {
		name   string
		mutate func(e *IncomingEvent)
	}{
		{"missing type", func(e *IncomingEvent) { e.Type = "" }},
		{"missing channel", func(e *IncomingEvent) { e.Channel = "" }},
		{"missing user id", func(e *IncomingEvent) { e.UserID = 0 }},
		{"missing channel id", func(e *IncomingEvent) { e.ChannelID = 0 }},
		{"missing sender id", func(e *IncomingEvent) { e.SenderID = "" }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid
			tt.mutate(&event)
			assert.Error(t, event.Validate())
		})
	}
}

func TestIncomingEvent_EncodeRoundTrip(t *testing.T) {
	event := &IncomingEvent{
		ID:        "evt-2",
		Type:      EventTypeMessage,
		Channel:   ChannelKakao,
		UserID:    4,
		ChannelID: 9,
		SenderID:  "S9",
		Text:      "hello",
		Timestamp: 1234,
	}

	encoded, err := event.Encode()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(encoded)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}
