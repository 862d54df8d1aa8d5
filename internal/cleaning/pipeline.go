package cleaning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/cleanstream/ai-engine-go/internal/errors"
	"github.com/cleanstream/ai-engine-go/internal/llm"
	"github.com/cleanstream/ai-engine-go/internal/logger"
	"github.com/cleanstream/ai-engine-go/internal/metrics"
	"github.com/cleanstream/ai-engine-go/internal/models"
	"github.com/cleanstream/ai-engine-go/internal/rag"
	"github.com/cleanstream/ai-engine-go/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage 流水线阶段，用于日志和指标定位失败点
type Stage string

const (
	StageEmbedding   Stage = "embedding"
	StageStoring     Stage = "storing"
	StageRetrieving  Stage = "retrieving"
	StageGenerating  Stage = "generating"
	StageNormalizing Stage = "normalizing"
	StagePersisting  Stage = "persisting"
)

// 检索不到历史样例时的上下文占位符，保证提示词总是良构
const noContextPlaceholder = "No previous examples available."

// 多条上下文之间的分隔符
const contextSeparator = "\n---\n"

// ProcessResult 单行处理结果
type ProcessResult struct {
	ID         uint                   `json:"id"`
	Status     string                 `json:"status"`
	Suggestion map[string]interface{} `json:"suggestion"`
}

// Pipeline 单行清洗流水线编排器
//
// 每次ProcessRow都是无状态的独立调用，多行可以并发处理，
// 彼此之间不需要任何协调。嵌入写入与结果写入是两个独立提交
// 的事务，中途崩溃最多留下一条没有对应结果的嵌入记录。
type Pipeline struct {
	embedder  llm.Embedder
	generator llm.Generator
	vectors   rag.VectorStore
	results   repository.CleaningResultRepository
	topK      int
}

// NewPipeline 创建流水线，所有协作方显式注入，便于测试替换
func NewPipeline(embedder llm.Embedder, generator llm.Generator, vectors rag.VectorStore, results repository.CleaningResultRepository, topK int) *Pipeline {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Pipeline{
		embedder:  embedder,
		generator: generator,
		vectors:   vectors,
		results:   results,
		topK:      topK,
	}
}

// ProcessRow 处理一个数据行
//
// 阶段：嵌入 -> 检索 -> 写入向量 -> 生成 -> 归一化 -> 持久化。
// 嵌入失败和结果持久化失败是致命的；向量写入失败和检索失败
// 只降级（写入只服务于未来的检索，不影响本行的建议生成）；
// 生成失败由协作方自身吸收为固定的错误JSON。
func (p *Pipeline) ProcessRow(ctx context.Context, tenantID string, datasetID uuid.UUID, row map[string]interface{}) (*ProcessResult, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	logger.Info("Processing row",
		zap.String("tenant_id", tenantID),
		zap.String("dataset_id", datasetID.String()))

	// 1. 行的规范文本形式：两空格缩进、键按字典序（encoding/json对map保证）。
	// 这个文本既是嵌入输入也是存入向量库的content。
	rowText, err := canonicalRowText(row)
	if err != nil {
		return nil, apperrors.NewInputError(apperrors.ErrCodeInvalidInput, "row is not serializable").WithCause(err)
	}

	// 2. 生成嵌入。没有向量就无从生成建议，失败直接上抛，不重试。
	vector, err := p.embedder.Embed(ctx, rowText)
	if err != nil {
		metrics.StageFailures.WithLabelValues(string(StageEmbedding)).Inc()
		logger.Error("Embedding generation failed",
			zap.String("tenant_id", tenantID),
			zap.String("dataset_id", datasetID.String()),
			zap.String("stage", string(StageEmbedding)),
			zap.Error(err))
		return nil, apperrors.NewCollaboratorError(apperrors.ErrCodeEmbeddingFailed, "embedding generation failed").WithCause(err)
	}

	// 3. 检索最相似的历史内容。在追加本行之前取快照，这样上下文
	// 只包含历史样例而不是行自身。失败降级为占位符上下文。
	contextText := p.retrieveContext(ctx, tenantID, datasetID, vector)

	// 4. 追加到向量库。写入只为未来行的检索服务，失败不阻塞本行。
	if _, err := p.vectors.Append(ctx, tenantID, rowText, vector); err != nil {
		metrics.StageFailures.WithLabelValues(string(StageStoring)).Inc()
		logger.Warn("Failed to append embedding, continuing degraded",
			zap.String("tenant_id", tenantID),
			zap.String("dataset_id", datasetID.String()),
			zap.String("stage", string(StageStoring)),
			zap.Error(err))
	}

	// 5. 生成清洗建议。协作方约定失败时返回固定错误JSON而非报错，
	// 这里对报错的实现（比如测试替身）做同样的吸收。
	raw, err := p.generator.GenerateSuggestion(ctx, contextText, rowText)
	if err != nil {
		metrics.StageFailures.WithLabelValues(string(StageGenerating)).Inc()
		logger.Error("Suggestion generation failed",
			zap.String("tenant_id", tenantID),
			zap.String("dataset_id", datasetID.String()),
			zap.String("stage", string(StageGenerating)),
			zap.Error(err))
		raw = llm.CannedErrorResponse
	}

	// 6. 归一化，从不失败
	suggestion := NormalizeSuggestion(raw)

	var confidence *float64
	if value, ok := suggestion["confidence"].(float64); ok {
		c := value
		confidence = &c
	}

	// 7. 持久化结果。存储层状态恒为processed，失败语义留在建议内部。
	rowJSON, err := json.Marshal(row)
	if err != nil {
		return nil, apperrors.NewInputError(apperrors.ErrCodeInvalidInput, "row is not serializable").WithCause(err)
	}
	suggestionJSON, err := json.Marshal(suggestion)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to encode suggestion").WithCause(err)
	}

	result := &models.CleaningResult{
		TenantID:     tenantID,
		DatasetID:    datasetID,
		RowData:      string(rowJSON),
		AISuggestion: string(suggestionJSON),
		Confidence:   confidence,
		Status:       models.CleaningStatusProcessed,
	}
	if err := p.results.Create(ctx, result); err != nil {
		metrics.StageFailures.WithLabelValues(string(StagePersisting)).Inc()
		logger.Error("Failed to persist cleaning result",
			zap.String("tenant_id", tenantID),
			zap.String("dataset_id", datasetID.String()),
			zap.String("stage", string(StagePersisting)),
			zap.Error(err))
		return nil, err
	}

	metrics.RowsProcessed.WithLabelValues(result.Status).Inc()
	logger.Info("Cleaning result saved",
		zap.String("tenant_id", tenantID),
		zap.String("dataset_id", datasetID.String()),
		zap.Uint("result_id", result.ID))

	return &ProcessResult{
		ID:         result.ID,
		Status:     result.Status,
		Suggestion: suggestion,
	}, nil
}

// retrieveContext 扫描租户向量并取topK相似内容拼成上下文
// 扫描失败、排序失败（含维度不一致）都降级为占位符上下文——
// 维度不一致意味着嵌入模型换了版本，让整个租户的行全部失败
// 比少一点上下文糟糕得多。
func (p *Pipeline) retrieveContext(ctx context.Context, tenantID string, datasetID uuid.UUID, vector []float32) string {
	records, err := p.vectors.Scan(ctx, tenantID)
	if err != nil {
		metrics.StageFailures.WithLabelValues(string(StageRetrieving)).Inc()
		logger.Warn("Failed to scan tenant embeddings, using empty context",
			zap.String("tenant_id", tenantID),
			zap.String("dataset_id", datasetID.String()),
			zap.String("stage", string(StageRetrieving)),
			zap.Error(err))
		return noContextPlaceholder
	}

	contents, err := rag.TopK(vector, records, p.topK)
	if err != nil {
		metrics.StageFailures.WithLabelValues(string(StageRetrieving)).Inc()
		logger.Warn("Failed to rank tenant embeddings, using empty context",
			zap.String("tenant_id", tenantID),
			zap.String("dataset_id", datasetID.String()),
			zap.String("stage", string(StageRetrieving)),
			zap.Error(err))
		return noContextPlaceholder
	}

	if len(contents) == 0 {
		logger.Warn("No embeddings found for tenant", zap.String("tenant_id", tenantID))
		return noContextPlaceholder
	}

	logger.Debug("Retrieved similar documents for context",
		zap.String("tenant_id", tenantID),
		zap.Int("count", len(contents)))
	return strings.Join(contents, contextSeparator)
}

// canonicalRowText 行的规范文本形式
func canonicalRowText(row map[string]interface{}) (string, error) {
	data, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize row: %w", err)
	}
	return string(data), nil
}
