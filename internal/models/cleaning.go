package models

import (
	"time"

	"github.com/google/uuid"
)

// 清洗结果状态。存储层状态始终是processed，失败的语义保存在ai_suggestion内部。
const (
	CleaningStatusProcessed = "processed"
	CleaningStatusError     = "error"
)

// CleaningResult 清洗结果表
// 每个处理过的数据行恰好写入一条记录，创建后不再修改或删除。
// 与tenant_embeddings之间只通过tenant_id关联，没有外键。
type CleaningResult struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	TenantID     string    `gorm:"column:tenant_id;size:255;not null;index:idx_cleaning_results_tenant_dataset,priority:1" json:"tenant_id"`
	DatasetID    uuid.UUID `gorm:"column:dataset_id;type:uuid;not null;index:idx_cleaning_results_tenant_dataset,priority:2" json:"dataset_id"`
	RowData      string    `gorm:"column:row_data;type:json;not null" json:"row_data"`
	AISuggestion string    `gorm:"column:ai_suggestion;type:json;not null" json:"ai_suggestion"`
	Confidence   *float64  `gorm:"column:confidence" json:"confidence"`
	Status       string    `gorm:"column:status;size:50;default:processed" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CleaningResult) TableName() string {
	return "cleaning_results"
}
