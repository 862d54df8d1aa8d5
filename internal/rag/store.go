package rag

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/cleanstream/ai-engine-go/internal/errors"
	"github.com/cleanstream/ai-engine-go/internal/models"
	"gorm.io/gorm"
)

// EmbeddingRecord 扫描返回的（内容，向量）对
type EmbeddingRecord struct {
	Content string
	Vector  []float32
}

// VectorStore 向量存储抽象
// Append返回即视为已持久化；Scan必须按tenant_id过滤，
// 任何读取都不允许跨租户。
type VectorStore interface {
	Append(ctx context.Context, tenantID, content string, vector []float32) (uint, error)
	Scan(ctx context.Context, tenantID string) ([]EmbeddingRecord, error)
}

// DatabaseVectorStore 基于PostgreSQL的线性扫描向量存储
// 向量以JSON数组形式存储在json列中，排序交给Ranker。
type DatabaseVectorStore struct {
	db *gorm.DB
}

func NewDatabaseVectorStore(db *gorm.DB) VectorStore {
	return &DatabaseVectorStore{db: db}
}

func (s *DatabaseVectorStore) Append(ctx context.Context, tenantID, content string, vector []float32) (uint, error) {
	if len(vector) == 0 {
		return 0, apperrors.NewStorageError("embedding is empty")
	}

	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to encode embedding").WithCause(err)
	}

	record := models.TenantEmbedding{
		TenantID:  tenantID,
		Content:   content,
		Embedding: string(embeddingJSON),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, apperrors.NewStorageError("failed to append embedding").WithCause(err)
	}
	return record.ID, nil
}

func (s *DatabaseVectorStore) Scan(ctx context.Context, tenantID string) ([]EmbeddingRecord, error) {
	var rows []models.TenantEmbedding
	err := s.db.WithContext(ctx).
		Select("content", "embedding").
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to scan embeddings for tenant %s", tenantID)).WithCause(err)
	}

	records := make([]EmbeddingRecord, 0, len(rows))
	for _, row := range rows {
		var vector []float32
		if err := json.Unmarshal([]byte(row.Embedding), &vector); err != nil {
			// 损坏的向量行跳过，不影响整体扫描
			continue
		}
		records = append(records, EmbeddingRecord{
			Content: row.Content,
			Vector:  vector,
		})
	}
	return records, nil
}
