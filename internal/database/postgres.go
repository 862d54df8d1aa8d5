package database

import (
	"fmt"
	"log"

	"github.com/cleanstream/ai-engine-go/internal/config"
	"github.com/cleanstream/ai-engine-go/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() (*gorm.DB, error) {
	cfg := config.AppConfig
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层的sql.DB设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	// 启动时自动迁移两张追加表
	if err := autoMigrate(db); err != nil {
		log.Printf("⚠️  Database migration warning: %v", err)
	}

	DB = db
	log.Println("✅ Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移tenant_embeddings与cleaning_results
// 两张表相互独立，没有外键，迁移顺序无关紧要。
func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.TenantEmbedding{}); err != nil {
		return fmt.Errorf("failed to migrate tenant_embeddings: %w", err)
	}
	if err := db.AutoMigrate(&models.CleaningResult{}); err != nil {
		return fmt.Errorf("failed to migrate cleaning_results: %w", err)
	}
	return nil
}

func CloseDB() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
