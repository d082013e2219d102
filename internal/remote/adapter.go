package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Adapter: uzak ilişkisel depo (postgres) + fotoğraf deposu. db nil ise yapılandırılmamıştır.
type Adapter struct {
	db     *gorm.DB
	photos *PhotoStore
}

func New(db *gorm.DB, photos *PhotoStore) *Adapter {
	return &Adapter{db: db, photos: photos}
}

func (a *Adapter) Configured() bool {
	return a != nil && a.db != nil
}

func (a *Adapter) DB() *gorm.DB {
	if a == nil {
		return nil
	}
	return a.db
}

func (a *Adapter) Ping(ctx context.Context) error {
	if !a.Configured() {
		return apperr.E(apperr.KindNotConfigured, "ping", nil)
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return apperr.Classify("ping", err)
	}
	return apperr.Classify("ping", sqlDB.PingContext(ctx))
}

// --- Günlük kayıtlar ---

func (a *Adapter) ListDailyLogs(ctx context.Context) ([]models.DailyLog, error) {
	var rows []models.DailyLogRow
	if err := a.db.WithContext(ctx).Order("date DESC").Find(&rows).Error; err != nil {
		return nil, apperr.Classify("list daily logs", err)
	}

	logs := make([]models.DailyLog, 0, len(rows))
	for _, r := range rows {
		var l models.DailyLog
		if err := json.Unmarshal([]byte(r.Data), &l); err != nil {
			return nil, apperr.Classify("list daily logs", fmt.Errorf("log %s çözümlenemedi: %w", r.Date, err))
		}
		l.ID = r.ID
		l.Date = r.Date
		logs = append(logs, l)
	}
	return logs, nil
}

// UpsertDailyLog: tarih çakışırsa mevcut satırın verisi değiştirilir (tarih başına tek kayıt)
func (a *Adapter) UpsertDailyLog(ctx context.Context, l models.DailyLog) error {
	data, err := json.Marshal(l)
	if err != nil {
		return apperr.E(apperr.KindMalformed, "upsert daily log", err)
	}
	row := models.DailyLogRow{ID: l.ID, Date: l.Date, Data: string(data)}
	err = a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	return apperr.Classify("upsert daily log", err)
}

// --- Traçabilité ---

func (a *Adapter) ListTraceability(ctx context.Context) ([]models.TraceabilityRecord, error) {
	var records []models.TraceabilityRecord
	if err := a.db.WithContext(ctx).Order("date DESC").Find(&records).Error; err != nil {
		return nil, apperr.Classify("list traceability", err)
	}
	return records, nil
}

func (a *Adapter) UpsertTraceability(ctx context.Context, rec models.TraceabilityRecord) error {
	err := a.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	return apperr.Classify("upsert traceability", err)
}

func (a *Adapter) DeleteTraceability(ctx context.Context, id string) error {
	err := a.db.WithContext(ctx).Delete(&models.TraceabilityRecord{}, "id = ?", id).Error
	return apperr.Classify("delete traceability", err)
}

// --- Stok ---

func (a *Adapter) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := a.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperr.Classify("list inventory", err)
	}
	return items, nil
}

// UpsertInventoryItem: kaydın tamamını yazar (kısmi güncelleme yok)
func (a *Adapter) UpsertInventoryItem(ctx context.Context, item models.InventoryItem) error {
	err := a.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error
	return apperr.Classify("upsert inventory item", err)
}

func (a *Adapter) ListMovements(ctx context.Context, limit int) ([]models.StockMovement, error) {
	var movs []models.StockMovement
	if err := a.db.WithContext(ctx).Order("date DESC").Limit(limit).Find(&movs).Error; err != nil {
		return nil, apperr.Classify("list movements", err)
	}
	return movs, nil
}

// InsertMovement: hareketler sadece eklenir; aynı id ikinci kez gelirse yok sayılır
func (a *Adapter) InsertMovement(ctx context.Context, mov models.StockMovement) error {
	err := a.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&mov).Error
	return apperr.Classify("insert movement", err)
}

// ApplyMovement: hareketi ve stok değişimini tek transaction'da yazar.
// Mevcut kalemde miktar sunucu tarafında artırılır (current_quantity + Δ).
func (a *Adapter) ApplyMovement(ctx context.Context, item models.InventoryItem, mov models.StockMovement, created bool) error {
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !created {
			updates := map[string]interface{}{
				"current_quantity": gorm.Expr("current_quantity + ?", mov.Delta()),
				"updated_at":       time.Now().UTC(),
			}
			if mov.Type == models.MovementIn && mov.Temperature != nil {
				updates["last_delivery_temp"] = *mov.Temperature
			}
			res := tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			// Kalem uzakta hiç yoksa (ör: çevrimdışı oluşturulmuş) tam kaydı yaz
			created = res.RowsAffected == 0
		}
		if created {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error; err != nil {
				return err
			}
		}
		return tx.Create(&mov).Error
	})
	return apperr.Classify("apply movement", err)
}

// --- Fotoğraflar ---

func (a *Adapter) UploadPhoto(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if a == nil || a.photos == nil {
		return "", apperr.E(apperr.KindNotConfigured, "upload photo", nil)
	}
	return a.photos.Upload(ctx, name, contentType, data)
}
