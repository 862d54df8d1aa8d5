package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cleanstream/ai-engine-go/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedEmbedder 用Redis缓存嵌入结果的装饰器
// 表格流中相同的行文本会反复出现，缓存命中可以省掉一次API调用。
// 缓存不可用时透传到内层Embedder，绝不让缓存故障影响流水线。
type CachedEmbedder struct {
	inner Embedder
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

// NewCachedEmbedder 包装一个Embedder加上Redis缓存
func NewCachedEmbedder(inner Embedder, rdb *redis.Client, model string, ttlSeconds int) Embedder {
	if rdb == nil {
		return inner
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &CachedEmbedder{
		inner: inner,
		rdb:   rdb,
		model: model,
		ttl:   time.Duration(ttlSeconds) * time.Second,
	}
}

func (e *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey(text)

	if data, err := e.rdb.Get(ctx, key).Bytes(); err == nil {
		var vector []float32
		if err := json.Unmarshal(data, &vector); err == nil && len(vector) > 0 {
			return vector, nil
		}
	} else if err != redis.Nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	}

	vector, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		if err := e.rdb.Set(ctx, key, data, e.ttl).Err(); err != nil {
			logger.Warn("Embedding cache write failed", zap.Error(err))
		}
	}
	return vector, nil
}

func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

func (e *CachedEmbedder) Ready() bool {
	return e.inner.Ready()
}
