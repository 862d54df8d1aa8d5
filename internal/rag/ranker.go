package rag

import (
	"math"
	"sort"

	apperrors "github.com/cleanstream/ai-engine-go/internal/errors"
)

// DefaultTopK 默认返回的相似内容条数
const DefaultTopK = 3

// normEpsilon 加在每个范数上，避免全零向量导致除零
const normEpsilon = 1e-8

// CosineSimilarity 计算余弦相似度
// 维度不一致说明上游嵌入模型版本变了，直接拒绝而不是按0处理。
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, apperrors.NewDimensionMismatchError(len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return dot / ((math.Sqrt(normA) + normEpsilon) * (math.Sqrt(normB) + normEpsilon)), nil
}

type scoredRecord struct {
	content string
	score   float64
}

// TopK 对租户的全部向量做线性扫描，返回与query最相似的topK条内容
// 按相似度降序，同分时保持扫描顺序（先见者优先），保证结果确定。
// 空集合返回空切片；topK超过集合大小时返回全部，不报错。
func TopK(query []float32, records []EmbeddingRecord, topK int) ([]string, error) {
	if topK <= 0 || len(records) == 0 {
		return []string{}, nil
	}

	scored := make([]scoredRecord, 0, len(records))
	for _, record := range records {
		score, err := CosineSimilarity(query, record.Vector)
		if err != nil {
			return nil, err
		}
		scored = append(scored, scoredRecord{content: record.Content, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	contents := make([]string, topK)
	for i := 0; i < topK; i++ {
		contents[i] = scored[i].content
	}
	return contents, nil
}
