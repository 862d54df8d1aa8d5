package models

import (
	"time"
)

// TenantEmbedding 租户嵌入向量表
// 只追加，写入后不再修改。embedding列存储JSON编码的float数组。
type TenantEmbedding struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	TenantID  string    `gorm:"column:tenant_id;size:255;not null;index:idx_tenant_embeddings_tenant" json:"tenant_id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	Embedding string    `gorm:"column:embedding;type:json;not null" json:"embedding"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TenantEmbedding) TableName() string {
	return "tenant_embeddings"
}
