package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// StockMovement: stok giriş/çıkış kaydı (sadece eklenir)
type StockMovement struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	ItemID      string          `gorm:"size:36;index;not null" json:"itemId"`
	ItemName    string          `gorm:"size:200;not null" json:"itemName"` // denormalize
	Type        MovementType    `gorm:"size:3;not null" json:"type"`
	Quantity    decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Date        time.Time       `gorm:"index;not null" json:"date"`
	Reason      string          `gorm:"size:255" json:"reason"` // "Livraison", "Production: Burger", "Perte"...
	Temperature *float64        `json:"temperature,omitempty"`
}

func (StockMovement) TableName() string { return "haccp_movements" }

// Delta: stoğa uygulanacak işaretli miktar
func (m StockMovement) Delta() decimal.Decimal {
	if m.Type == MovementOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
