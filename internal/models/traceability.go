package models

import "time"

// LotNotSpecified: lot numarası girilmediğinde kullanılan değer
const LotNotSpecified = "Non spécifié"

// TraceabilityRecord: mal kabul kaydı (etiket fotoğrafı ile). Oluşturulduktan sonra sadece silinebilir.
type TraceabilityRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Date       time.Time `gorm:"index;not null" json:"date"`
	ItemName   string    `gorm:"size:200;not null" json:"itemName"`
	LotNumber  string    `gorm:"size:100;not null" json:"lotNumber"`
	ExpiryDate string    `gorm:"size:10;not null" json:"expiryDate"` // "2006-01-02"
	PhotoURL   string    `gorm:"type:text" json:"photoUrl,omitempty"`
}

func (TraceabilityRecord) TableName() string { return "haccp_traceability" }

// Expired: DLC verilen günden önce mi?
func (r TraceabilityRecord) Expired(now time.Time) bool {
	exp, err := time.ParseInLocation("2006-01-02", r.ExpiryDate, now.Location())
	if err != nil {
		return false
	}
	return exp.Before(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
}
