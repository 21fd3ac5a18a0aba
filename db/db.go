package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reviewlens/config"
)

// InitDB opens a gorm connection to PostgreSQL and configures the pool
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	log.Println("🔌 Initializing database connection...")

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig)
	if err != nil {
		log.Printf("❌ Database connection failed: %v", err)
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Println("✅ Successfully connected to PostgreSQL")

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Printf("❌ Failed to get underlying *sql.DB: %v", err)
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	log.Println("⚙️  Configuring connection pool...")
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	log.Println("✅ Connection pool configured")

	return gdb, nil
}
