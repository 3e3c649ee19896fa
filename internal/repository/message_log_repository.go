package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/autoreplyx/backend/internal/models"
)

type MessageLogRepository interface {
	Create(ctx context.Context, entry *models.MessageLog) error
}

type GormMessageLogRepository struct {
	db *gorm.DB
}

func NewGormMessageLogRepository(db *gorm.DB) *GormMessageLogRepository {
	return &GormMessageLogRepository{db: db}
}

func (r *GormMessageLogRepository) Create(ctx context.Context, entry *models.MessageLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
