package models

import (
	"time"
)

// Channel type tags. Outbound senders register under these values.
const (
	ChannelInstagram = "instagram"
	ChannelKakao     = "kakao"
	ChannelNaver     = "naver"
)

// Channel is a connected messaging account for a user. The access token is
// written by the OAuth service; the pipeline only reads it to deliver
// responses.
type Channel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	ChannelType string    `json:"channel_type"` // instagram, kakao, naver
	Name        string    `json:"name"`
	AccountID   string    `gorm:"index" json:"account_id"`
	AccessToken string    `json:"-"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
