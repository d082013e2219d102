package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"haccp-backend/internal/auth"
	"haccp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry: tek bir mutasyonun kaydı
type Entry struct {
	EntityType  string // "daily_log", "traceability", "inventory_item", "stock_movement"
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Logger: audit kayıtlarını uzak veritabanına yazar. Veritabanı yoksa hiçbir şey yapmaz.
type Logger struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLogger(db *gorm.DB, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{db: db, log: log}
}

func (l *Logger) Enabled() bool {
	return l != nil && l.db != nil
}

func toJSON(v any) string {
	// PostgreSQL jsonb için boş string yerine "null" kullanılmalı
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (l *Logger) Write(ctx context.Context, userID uint, userName string, e Entry) error {
	if !l.Enabled() {
		return nil
	}

	row := models.AuditLog{
		UserID:      userID,
		UserName:    userName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  toJSON(e.Before),
		AfterData:   toJSON(e.After),
	}

	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// Record: isteği yapan kullanıcı adına yazar; hata isteği bozmaz, sadece loglanır
func (l *Logger) Record(c *fiber.Ctx, e Entry) {
	if !l.Enabled() {
		return
	}
	userID, userName := auth.CurrentUser(c)
	if err := l.Write(c.UserContext(), userID, userName, e); err != nil {
		l.log.Warn("audit kaydı yazılamadı",
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID),
			zap.Error(err))
	}
}
