package models

import (
	"time"
)

// Response types recorded on a message log entry
const (
	ResponseTypeRule   = "rule"
	ResponseTypeAI     = "ai"
	ResponseTypeManual = "manual"
	ResponseTypeNone   = "none"
)

// MessageLog is the append-only audit record written once per processed
// event. Entries are never updated after creation.
type MessageLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index" json:"user_id"`
	ChannelID        uint      `json:"channel_id"`
	Channel          string    `json:"channel"`
	SenderID         string    `json:"sender_id"`
	SenderName       string    `json:"sender_name,omitempty"`
	ReceivedMessage  string    `gorm:"type:text" json:"received_message"`
	ResponseMessage  *string   `gorm:"type:text" json:"response_message,omitempty"`
	ResponseType     string    `json:"response_type"` // rule, ai, manual, none
	MatchedRuleID    *uint     `json:"matched_rule_id,omitempty"`
	AITokensUsed     int       `gorm:"column:ai_tokens_used;default:0" json:"ai_tokens_used"`
	ProcessingTimeMs int       `json:"processing_time_ms"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
