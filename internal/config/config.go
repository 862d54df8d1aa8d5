package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig `validate:"required"`
	Redis     RedisConfig
	Embedding EmbeddingConfig
	Gemini    GeminiConfig
	RAG       RAGConfig
}

type ServerConfig struct {
	Port string `validate:"required"`
	Env  string
}

type DatabaseConfig struct {
	URL string `validate:"required"`
}

type RedisConfig struct {
	Host string
	Port string
	DB   int
	TTL  int // 缓存过期时间（秒）
}

type EmbeddingConfig struct {
	OpenAIAPIKey string
	Model        string `validate:"required"`
}

type GeminiConfig struct {
	APIKey string
	Model  string `validate:"required"`
}

type RAGConfig struct {
	TopK int `validate:"gte=0"`
}

// AppConfig 全局配置实例
var AppConfig *Config

// LoadConfig 加载配置：默认值 -> 配置文件（可选）-> 环境变量
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 默认值
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("database.url", "postgresql://postgres:@localhost:5432/clean_stream")
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", 3600)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("gemini.model", "gemini-1.5-flash")
	viper.SetDefault("rag.top_k", 3)

	// 配置文件缺失不是错误
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("CLEANSTREAM")
	viper.AutomaticEnv()

	// 从环境变量读取
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if env := os.Getenv("ENV"); env != "" {
		viper.Set("server.env", env)
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		viper.Set("database.url", dbURL)
	}
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		viper.Set("redis.host", redisHost)
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		viper.Set("redis.port", redisPort)
	}
	if openaiKey := os.Getenv("OPENAI_API_KEY"); openaiKey != "" {
		viper.Set("embedding.openai_api_key", openaiKey)
	}
	if embeddingModel := os.Getenv("EMBEDDING_MODEL"); embeddingModel != "" {
		viper.Set("embedding.model", embeddingModel)
	}
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		viper.Set("gemini.api_key", geminiKey)
	}
	if geminiModel := os.Getenv("GEMINI_MODEL"); geminiModel != "" {
		viper.Set("gemini.model", geminiModel)
	}
	if topK := os.Getenv("RAG_TOP_K"); topK != "" {
		viper.Set("rag.top_k", topK)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Database: DatabaseConfig{
			URL: viper.GetString("database.url"),
		},
		Redis: RedisConfig{
			Host: viper.GetString("redis.host"),
			Port: viper.GetString("redis.port"),
			DB:   viper.GetInt("redis.db"),
			TTL:  viper.GetInt("redis.ttl"),
		},
		Embedding: EmbeddingConfig{
			OpenAIAPIKey: viper.GetString("embedding.openai_api_key"),
			Model:        viper.GetString("embedding.model"),
		},
		Gemini: GeminiConfig{
			APIKey: viper.GetString("gemini.api_key"),
			Model:  viper.GetString("gemini.model"),
		},
		RAG: RAGConfig{
			TopK: viper.GetInt("rag.top_k"),
		},
	}

	// 校验配置
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	AppConfig = cfg
	return nil
}
