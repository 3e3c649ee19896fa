package models

import (
	"time"
)

// User owns channels, rules and message logs. Only the fields the pipeline
// reads are modeled here; account management lives in the dashboard service.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex" json:"email"`
	BrandName       string    `json:"brand_name"`
	BusinessHours   string    `json:"business_hours,omitempty"`
	Address         string    `json:"address,omitempty"`
	Description     string    `json:"description,omitempty"`
	ReservationSlug string    `json:"reservation_slug,omitempty"`
	AIEnabled       bool      `gorm:"column:ai_enabled" json:"ai_enabled"`
	AITone          string    `gorm:"column:ai_tone" json:"ai_tone,omitempty"` // friendly, professional, formal, casual
	BannedWords     string    `gorm:"type:text" json:"banned_words,omitempty"` // JSON array of words to redact from AI replies
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
