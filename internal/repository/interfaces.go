package repository

import (
	"context"

	"github.com/cleanstream/ai-engine-go/internal/models"
)

// CleaningResultRepository 清洗结果仓库
// 只有Create：结果一旦写入不再修改，也不由本服务删除。
type CleaningResultRepository interface {
	Create(ctx context.Context, result *models.CleaningResult) error
}
