package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryOpsService.Valid())
	assert.False(t, Category("bar").Valid())
	assert.Len(t, Categories(), 9)
}

func TestInventoryItemIsLow(t *testing.T) {
	item := InventoryItem{CurrentQuantity: decimal.NewFromInt(1), MinThreshold: decimal.NewFromInt(1)}
	assert.True(t, item.IsLow())

	item.CurrentQuantity = decimal.RequireFromString("1.5")
	assert.False(t, item.IsLow())
}

func TestMovementDelta(t *testing.T) {
	in := StockMovement{Type: MovementIn, Quantity: decimal.NewFromInt(5)}
	out := StockMovement{Type: MovementOut, Quantity: decimal.NewFromInt(5)}

	assert.True(t, in.Delta().Equal(decimal.NewFromInt(5)))
	assert.True(t, out.Delta().Equal(decimal.NewFromInt(-5)))
}

func TestTraceabilityExpired(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	assert.True(t, TraceabilityRecord{ExpiryDate: "2024-06-09"}.Expired(now))
	assert.False(t, TraceabilityRecord{ExpiryDate: "2024-06-10"}.Expired(now))
	assert.False(t, TraceabilityRecord{ExpiryDate: "bientôt"}.Expired(now))
}

func TestDailyLogCompletedCount(t *testing.T) {
	log := DailyLog{Items: []CheckItem{{Completed: true}, {}, {Completed: true}}}
	assert.Equal(t, 2, log.CompletedCount())
}
