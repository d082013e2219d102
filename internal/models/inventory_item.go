package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem: stok kalemi. İsim, serbest metin girişiyle eşleştirmede büyük/küçük harf duyarsız anahtardır.
type InventoryItem struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	Name             string          `gorm:"size:200;not null;index" json:"name"`
	CurrentQuantity  decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"currentQuantity"`
	Unit             string          `gorm:"size:20;not null" json:"unit"`
	MinThreshold     decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"minThreshold"`
	Category         string          `gorm:"size:100" json:"category"`
	LastDeliveryTemp *float64        `json:"lastDeliveryTemp,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (InventoryItem) TableName() string { return "haccp_inventory" }

// IsLow: stok minimum eşiğin altında ya da eşit
func (i InventoryItem) IsLow() bool {
	return i.CurrentQuantity.LessThanOrEqual(i.MinThreshold)
}
