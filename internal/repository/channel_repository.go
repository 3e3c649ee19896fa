package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/autoreplyx/backend/internal/models"
)

type ChannelRepository interface {
	// FindActiveByID returns the channel only when it exists and is active
	FindActiveByID(ctx context.Context, id uint) (*models.Channel, error)
	FindByAccountID(ctx context.Context, accountID string) (*models.Channel, error)
}

type GormChannelRepository struct {
	db *gorm.DB
}

func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

func (r *GormChannelRepository) FindActiveByID(ctx context.Context, id uint) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *GormChannelRepository) FindByAccountID(ctx context.Context, accountID string) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}
