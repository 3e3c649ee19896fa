package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/internal/repository"
	"github.com/autoreplyx/backend/pkg/kv"
	"github.com/autoreplyx/backend/pkg/logger"
)

// RuleService evaluates a user's auto-reply rules against incoming messages
// and manages per-(rule, sender) cooldown markers.
type RuleService struct {
	rules   repository.RuleRepository
	store   kv.Store
	baseURL string
	log     *logger.Logger
}

func NewRuleService(rules repository.RuleRepository, store kv.Store, baseURL string, log *logger.Logger) *RuleService {
	return &RuleService{
		rules:   rules,
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// FindMatchingRule returns the highest-priority active rule that is within
// its active hours, applies to the channel and matches the message text, or
// nil when nothing matches. Pure evaluation; no counters or cooldowns are
// touched here.
func (s *RuleService) FindMatchingRule(ctx context.Context, userID uint, message, channel string) (*models.AutoRule, error) {
	rules, err := s.rules.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading rules for user %d: %w", userID, err)
	}

	for i := range rules {
		rule := &rules[i]

		if !rule.WithinActiveHours() {
			s.log.Debug("rule outside active hours", "rule_id", rule.ID)
			continue
		}
		if !rule.SupportsChannel(channel) {
			continue
		}
		if rule.Matches(message) {
			s.log.Info("message matched rule", "rule_id", rule.ID, "rule_name", rule.Name)
			return rule, nil
		}
	}

	return nil, nil
}

// cooldownKey builds the marker key. Rule id and sender id together make
// the key collision-free across rules and senders.
func cooldownKey(ruleID uint, senderID string) string {
	return fmt.Sprintf("cooldown:%d:%s", ruleID, senderID)
}

// IsInCooldown reports whether the rule is suppressed for this sender.
// The check and the later SetCooldown are not atomic; two workers handling
// duplicate events in the same instant can both see "not suppressed". The
// window is accepted rather than locked away.
func (s *RuleService) IsInCooldown(ctx context.Context, ruleID uint, senderID string) (bool, error) {
	return s.store.Exists(ctx, cooldownKey(ruleID, senderID))
}

// SetCooldown writes an expiring suppression marker. Minutes of zero or
// less writes nothing, so a cooldown configured under 60 seconds collapses
// to no cooldown once the caller's seconds-to-minutes division floors it.
func (s *RuleService) SetCooldown(ctx context.Context, ruleID uint, senderID string, minutes int) error {
	if minutes <= 0 {
		return nil
	}
	err := s.store.Set(ctx, cooldownKey(ruleID, senderID), "1", time.Duration(minutes)*time.Minute)
	if err != nil {
		return err
	}
	s.log.Debug("cooldown set", "rule_id", ruleID, "sender_id", senderID, "minutes", minutes)
	return nil
}

// IncrementTriggerCount bumps the rule's trigger counter
func (s *RuleService) IncrementTriggerCount(ctx context.Context, ruleID uint) error {
	return s.rules.IncrementTriggerCount(ctx, ruleID)
}

// BuildResponse renders the rule's template and appends booking links when
// the rule asks for them and the user has a reservation slug configured.
func (s *RuleService) BuildResponse(rule *models.AutoRule, user *models.User) string {
	var b strings.Builder
	b.WriteString(rule.ResponseTemplate)

	if rule.IncludeReservationLink && user.ReservationSlug != "" {
		b.WriteString("\n\n📅 예약하기: ")
		b.WriteString(s.baseURL + "/r/" + user.ReservationSlug)
	}
	if rule.IncludeEstimateLink && user.ReservationSlug != "" {
		b.WriteString("\n\n📝 견적 요청: ")
		b.WriteString(s.baseURL + "/e/" + user.ReservationSlug)
	}

	return b.String()
}
