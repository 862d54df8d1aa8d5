package repository

import (
	"context"

	apperrors "github.com/cleanstream/ai-engine-go/internal/errors"
	"github.com/cleanstream/ai-engine-go/internal/models"
	"gorm.io/gorm"
)

// cleaningResultRepository 清洗结果仓库实现
type cleaningResultRepository struct {
	db *gorm.DB
}

// NewCleaningResultRepository 创建清洗结果仓库
func NewCleaningResultRepository(db *gorm.DB) CleaningResultRepository {
	return &cleaningResultRepository{db: db}
}

// Create 写入一条清洗结果，存储分配的ID写回result.ID
func (r *cleaningResultRepository) Create(ctx context.Context, result *models.CleaningResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return apperrors.NewStorageError("failed to persist cleaning result").WithCause(err)
	}
	return nil
}
