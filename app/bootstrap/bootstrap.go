package bootstrap

import (
	"context"
	"log"

	"github.com/cleanstream/ai-engine-go/internal/cleaning"
	"github.com/cleanstream/ai-engine-go/internal/config"
	"github.com/cleanstream/ai-engine-go/internal/database"
	"github.com/cleanstream/ai-engine-go/internal/llm"
	"github.com/cleanstream/ai-engine-go/internal/logger"
	"github.com/cleanstream/ai-engine-go/internal/rag"
	"github.com/cleanstream/ai-engine-go/internal/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error
	pipeline     *cleaning.Pipeline
}

// Pipeline returns the row-cleaning pipeline.
func (a *App) Pipeline() *cleaning.Pipeline {
	return a.pipeline
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// Init bootstraps configuration, logger, database connections and the
// cleaning pipeline with its collaborators.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	app := &App{}

	// Initialize database (schema is auto-migrated on startup).
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks, func() error {
		return database.CloseDB()
	})

	// Initialize Redis (optional, embedding cache only). Failure shouldn't block the app.
	redisAvailable := false
	if cfg.Redis.Host != "" {
		if _, err := database.InitRedis(); err != nil {
			logger.Warn("Failed to initialize Redis, embedding cache disabled", zap.Error(err))
		} else {
			redisAvailable = true
			app.cleanupTasks = append(app.cleanupTasks, func() error {
				return database.CloseRedis()
			})
		}
	}

	// 嵌入客户端，注入而非全局单例，便于测试替换
	embedder := llm.NewOpenAIEmbedder(cfg.Embedding.OpenAIAPIKey, cfg.Embedding.Model)
	if !embedder.Ready() {
		logger.Warn("OpenAI API key not configured, embedding calls will fail")
	}
	if redisAvailable {
		embedder = llm.NewCachedEmbedder(embedder, database.RedisClient, cfg.Embedding.Model, cfg.Redis.TTL)
	}

	// 生成客户端
	generator, err := llm.NewGeminiGenerator(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}
	if !generator.Ready() {
		logger.Warn("⚠️ Gemini API key (GEMINI_API_KEY) is not configured, LLM calls will return the canned error response")
	}
	app.cleanupTasks = append(app.cleanupTasks, generator.Close)

	vectors := rag.NewDatabaseVectorStore(database.DB)
	results := repository.NewCleaningResultRepository(database.DB)

	app.pipeline = cleaning.NewPipeline(embedder, generator, vectors, results, cfg.RAG.TopK)

	globalApp = app
	return app, nil
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
