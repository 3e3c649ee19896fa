package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/autoreplyx/backend/internal/models"
)

type RuleRepository interface {
	// FindActiveByUser returns a user's active rules in ascending priority
	// order. Channel and active-hours filtering happens in the matcher so
	// the snapshot stays a pure function over wall-clock time.
	FindActiveByUser(ctx context.Context, userID uint) ([]models.AutoRule, error)
	// IncrementTriggerCount atomically bumps the trigger counter at the
	// storage layer; concurrent workers may hit the same rule.
	IncrementTriggerCount(ctx context.Context, ruleID uint) error
}

type GormRuleRepository struct {
	db *gorm.DB
}

func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

func (r *GormRuleRepository) FindActiveByUser(ctx context.Context, userID uint) ([]models.AutoRule, error) {
	var rules []models.AutoRule
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("priority ASC").
		Find(&rules).Error
	return rules, err
}

func (r *GormRuleRepository) IncrementTriggerCount(ctx context.Context, ruleID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.AutoRule{}).
		Where("id = ?", ruleID).
		Updates(map[string]interface{}{
			"trigger_count":     gorm.Expr("trigger_count + 1"),
			"last_triggered_at": time.Now(),
		}).Error
}
