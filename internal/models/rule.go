package models

import (
	"regexp"
	"strings"
	"time"
)

// Match types for auto-reply rules
const (
	MatchExact    = "EXACT"
	MatchContains = "CONTAINS"
	MatchRegex    = "REGEX"
)

// RuleChannelAll marks a rule as applicable to every channel
const RuleChannelAll = "ALL"

// AutoRule maps keywords to a canned response. Rules are evaluated in
// ascending priority order; the first match wins.
type AutoRule struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"index" json:"user_id"`
	Name                   string     `json:"name"`
	MatchType              string     `gorm:"default:CONTAINS" json:"match_type"`
	Keywords               string     `gorm:"type:text" json:"keywords"` // comma-separated
	ResponseTemplate       string     `gorm:"type:text" json:"response_template"`
	IncludeReservationLink bool       `json:"include_reservation_link"`
	IncludeEstimateLink    bool       `json:"include_estimate_link"`
	Priority               int        `gorm:"default:100" json:"priority"`
	Channel                string     `json:"channel"` // specific channel or ALL/empty for any
	CooldownSeconds        int        `gorm:"default:60" json:"cooldown_seconds"`
	ActiveHoursStart       string     `json:"active_hours_start,omitempty"` // "HH:MM", empty means always
	ActiveHoursEnd         string     `json:"active_hours_end,omitempty"`
	IsActive               bool       `gorm:"default:true" json:"is_active"`
	TriggerCount           int        `gorm:"default:0" json:"trigger_count"`
	LastTriggeredAt        *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Matches reports whether the message text triggers this rule. The message
// and every keyword are trimmed and lower-cased before comparison. A regex
// keyword that fails to compile never matches; it is not an error.
func (r *AutoRule) Matches(message string) bool {
	if message == "" || r.Keywords == "" {
		return false
	}

	normalized := strings.ToLower(strings.TrimSpace(message))

	for _, keyword := range strings.Split(r.Keywords, ",") {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}

		var matched bool
		switch r.MatchType {
		case MatchExact:
			matched = normalized == keyword
		case MatchRegex:
			re, err := regexp.Compile("(?i)" + keyword)
			if err == nil {
				matched = re.MatchString(normalized)
			}
		default:
			// CONTAINS, also the fallback for unknown match types
			matched = strings.Contains(normalized, keyword)
		}

		if matched {
			return true
		}
	}

	return false
}

// WithinActiveHours reports whether the rule is active right now
func (r *AutoRule) WithinActiveHours() bool {
	return r.WithinActiveHoursAt(time.Now())
}

// WithinActiveHoursAt reports whether the rule is active at the given
// instant. A missing or unparsable bound means the rule is always active.
// Bounds are exclusive on both sides, so a rule with start 22:00 is still
// inactive at exactly 22:00:00. A start after the end wraps past midnight.
func (r *AutoRule) WithinActiveHoursAt(now time.Time) bool {
	start, okStart := parseTimeOfDay(r.ActiveHoursStart)
	end, okEnd := parseTimeOfDay(r.ActiveHoursEnd)
	if !okStart || !okEnd {
		return true
	}

	nowSec := now.Hour()*3600 + now.Minute()*60 + now.Second()

	if start > end {
		return nowSec > start || nowSec < end
	}
	return nowSec > start && nowSec < end
}

// SupportsChannel reports whether the rule applies to the target channel.
// Empty and "ALL" match any channel; otherwise a case-insensitive exact
// match is required.
func (r *AutoRule) SupportsChannel(targetChannel string) bool {
	if r.Channel == "" || strings.EqualFold(r.Channel, RuleChannelAll) {
		return true
	}
	return strings.EqualFold(r.Channel, targetChannel)
}

// parseTimeOfDay converts "HH:MM" or "HH:MM:SS" to seconds since midnight
func parseTimeOfDay(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), true
}
