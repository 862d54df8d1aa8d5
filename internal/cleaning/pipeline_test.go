package cleaning

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/cleanstream/ai-engine-go/internal/errors"
	"github.com/cleanstream/ai-engine-go/internal/llm"
	"github.com/cleanstream/ai-engine-go/internal/models"
	"github.com/cleanstream/ai-engine-go/internal/rag"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 固定向量的嵌入替身
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }
func (f *fakeEmbedder) Ready() bool     { return true }

// fakeGenerator 记录收到的上下文和行文本
type fakeGenerator struct {
	response    string
	err         error
	lastContext string
	lastRow     string
}

func (f *fakeGenerator) GenerateSuggestion(ctx context.Context, context_, rowData string) (string, error) {
	f.lastContext = context_
	f.lastRow = rowData
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// memoryVectorStore 内存向量存储替身
type memoryVectorStore struct {
	records   map[string][]rag.EmbeddingRecord
	appendErr error
	scanErr   error
	nextID    uint
}

func newMemoryVectorStore() *memoryVectorStore {
	return &memoryVectorStore{records: make(map[string][]rag.EmbeddingRecord)}
}

func (s *memoryVectorStore) Append(ctx context.Context, tenantID, content string, vector []float32) (uint, error) {
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	s.records[tenantID] = append(s.records[tenantID], rag.EmbeddingRecord{Content: content, Vector: vector})
	s.nextID++
	return s.nextID, nil
}

func (s *memoryVectorStore) Scan(ctx context.Context, tenantID string) ([]rag.EmbeddingRecord, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return s.records[tenantID], nil
}

// fakeResultRepo 结果仓库替身
type fakeResultRepo struct {
	created []*models.CleaningResult
	err     error
}

func (r *fakeResultRepo) Create(ctx context.Context, result *models.CleaningResult) error {
	if r.err != nil {
		return r.err
	}
	result.ID = uint(len(r.created) + 1)
	r.created = append(r.created, result)
	return nil
}

func newTestPipeline(embedder llm.Embedder, generator llm.Generator, vectors rag.VectorStore, results *fakeResultRepo) *Pipeline {
	return NewPipeline(embedder, generator, vectors, results, 3)
}

func TestProcessRowFirstRowUsesPlaceholderContext(t *testing.T) {
	// 没有历史样例的租户：上下文用占位符，建议原样入库
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"field":"age","issue_type":"missing","suggested_fix":"impute median","confidence":0.9}`}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	datasetID := uuid.New()
	result, err := pipeline.ProcessRow(context.Background(), "t1", datasetID, map[string]interface{}{
		"name": "Jon",
		"age":  "",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(1), result.ID)
	assert.Equal(t, models.CleaningStatusProcessed, result.Status)
	assert.Equal(t, 0.9, result.Suggestion["confidence"])
	assert.Equal(t, "age", result.Suggestion["field"])

	// 历史为空时生成器收到的是占位符
	assert.Equal(t, "No previous examples available.", generator.lastContext)

	// 行文本同时写入了向量库，服务未来的检索
	require.Len(t, vectors.records["t1"], 1)
	assert.Equal(t, generator.lastRow, vectors.records["t1"][0].Content)

	// 结果落库，置信度提取自建议
	require.Len(t, results.created, 1)
	stored := results.created[0]
	assert.Equal(t, "t1", stored.TenantID)
	assert.Equal(t, datasetID, stored.DatasetID)
	require.NotNil(t, stored.Confidence)
	assert.Equal(t, 0.9, *stored.Confidence)
}

func TestProcessRowJoinsRetrievedContext(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	vectors.records["t1"] = []rag.EmbeddingRecord{
		{Content: "prior row A", Vector: []float32{1, 0}},
		{Content: "prior row B", Vector: []float32{0.9, 0.1}},
	}
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, "prior row A\n---\nprior row B", generator.lastContext)
}

func TestProcessRowTenantIsolation(t *testing.T) {
	// 其他租户的向量绝不会进入上下文
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	vectors.records["t2"] = []rag.EmbeddingRecord{
		{Content: "other tenant's row", Vector: []float32{1, 0}},
	}
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, "No previous examples available.", generator.lastContext)
	require.Len(t, vectors.records["t2"], 1)
}

func TestProcessRowEmbeddingFailureIsFatal(t *testing.T) {
	// 嵌入失败：错误上抛，不写任何结果，也不写向量
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.ErrCodeEmbeddingFailed, appErr.Code)
	assert.Empty(t, results.created)
	assert.Empty(t, vectors.records["t1"])
}

func TestProcessRowAppendFailureIsDegraded(t *testing.T) {
	// 向量写入失败只降级，建议照常生成并入库
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	vectors.appendErr = apperrors.NewStorageError("disk full")
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	result, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, models.CleaningStatusProcessed, result.Status)
	assert.Equal(t, "clean", result.Suggestion["status"])
	require.Len(t, results.created, 1)
}

func TestProcessRowScanFailureIsDegraded(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	vectors.scanErr = apperrors.NewStorageError("connection reset")
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, "No previous examples available.", generator.lastContext)
}

func TestProcessRowMalformedGeneratorOutput(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `Sure! {"status": "clean"} thanks`}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	result, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"status": "clean"}, result.Suggestion)
	assert.Nil(t, results.created[0].Confidence)
}

func TestProcessRowCannedGeneratorError(t *testing.T) {
	// 生成协作方吸收失败后的固定JSON被当作普通输出处理，行状态仍是processed
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: llm.CannedErrorResponse}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	result, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, models.CleaningStatusProcessed, result.Status)
	assert.Equal(t, "error", result.Suggestion["status"])
	assert.Equal(t, "LLM API call failed", result.Suggestion["message"])
}

func TestProcessRowGeneratorErrorAbsorbed(t *testing.T) {
	// 报错的生成器实现（测试替身等）也被吸收为固定JSON
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{err: errors.New("network timeout")}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	result, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.NoError(t, err)

	assert.Equal(t, "error", result.Suggestion["status"])
	assert.Equal(t, "LLM API call failed", result.Suggestion["message"])
}

func TestProcessRowPersistFailureIsFatal(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{err: apperrors.NewStorageError("insert failed")}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), map[string]interface{}{"x": 1})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStorage, apperrors.GetAppError(err).Code)
}

func TestProcessRowCanonicalTextIsStable(t *testing.T) {
	// 规范文本键序稳定：同一行重复处理产生完全相同的嵌入输入
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	row := map[string]interface{}{"b": 2, "a": 1, "c": map[string]interface{}{"y": 2, "x": 1}}
	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), row)
	require.NoError(t, err)
	first := generator.lastRow

	_, err = pipeline.ProcessRow(context.Background(), "t1", uuid.New(), row)
	require.NoError(t, err)
	assert.Equal(t, first, generator.lastRow)

	// 行文本是合法JSON且保留原始值
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(first), &decoded))
	assert.Equal(t, float64(1), decoded["a"])
}

func TestProcessRowStoresRowDataVerbatim(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	generator := &fakeGenerator{response: `{"status": "clean"}`}
	vectors := newMemoryVectorStore()
	results := &fakeResultRepo{}
	pipeline := newTestPipeline(embedder, generator, vectors, results)

	row := map[string]interface{}{"name": "Jon", "age": ""}
	_, err := pipeline.ProcessRow(context.Background(), "t1", uuid.New(), row)
	require.NoError(t, err)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(results.created[0].RowData), &stored))
	assert.Equal(t, row, stored)

	var suggestion map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(results.created[0].AISuggestion), &suggestion))
	assert.Equal(t, "clean", suggestion["status"])
}
