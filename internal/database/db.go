package database

import (
	"fmt"
	"time"

	"haccp-backend/internal/config"
	"haccp-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open: DATABASE_DSN boşsa (nil, nil) döner; uzak depo yapılandırılmamış demektir.
// Bağlantı açılışta test edilmez.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	if !cfg.RemoteConfigured() {
		log.Warn("uzak veritabanı yapılandırılmamış, yerel kopya ile çalışılıyor")
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanı açılamadı: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("veritabanı havuzu alınamadı: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// Migrate: uzak tabloları oluşturur/günceller
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("uzak veritabanı yapılandırılmamış")
	}
	err := db.AutoMigrate(
		&models.DailyLogRow{},
		&models.TraceabilityRecord{},
		&models.InventoryItem{},
		&models.StockMovement{},
		&models.User{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}
