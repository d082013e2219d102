package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"haccp-backend/internal/checklist"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSummarize(t *testing.T) {
	tmpl := checklist.DefaultTemplate()
	items := tmpl.NewItems()
	for i := range items {
		if items[i].Category == models.CategoryTemperature {
			items[i].Completed = true
		}
	}

	p := Summarize(items, tmpl)
	assert.Equal(t, 22, p.Total)
	assert.Equal(t, 6, p.Completed)
	assert.Equal(t, 27, p.Percent)

	require.Len(t, p.Categories, 5)
	assert.Equal(t, models.CategoryOpsOpening, p.Categories[0].Category)
	assert.Equal(t, CategoryStatus{Category: models.CategoryTemperature, Label: "Relevés Températures", Done: 6, Total: 6}, p.Categories[1])

	empty := Summarize(nil, tmpl)
	assert.Equal(t, 0, empty.Percent)
	assert.Empty(t, empty.Categories)
}

func TestTrend(t *testing.T) {
	today := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
	logs := []models.DailyLog{
		{Date: "2024-06-03", Items: []models.CheckItem{{Completed: true}, {}}},
		{Date: "2024-06-01", Items: []models.CheckItem{{Completed: true}}},
		{Date: "2024-05-01", Items: []models.CheckItem{{Completed: true}}},
	}
	pts := Trend(logs, today, 3)
	require.Len(t, pts, 3)
	assert.Equal(t, TrendPoint{Date: "2024-06-01", Done: 1, Total: 1, Percent: 100}, pts[0])
	assert.Equal(t, TrendPoint{Date: "2024-06-02"}, pts[1])
	assert.Equal(t, TrendPoint{Date: "2024-06-03", Done: 1, Total: 2, Percent: 50}, pts[2])
}

func TestSummaryHandler(t *testing.T) {
	ctx := context.Background()
	repo := store.New(nil, mirror.NewMemoryStore(), zap.NewNop(), store.Options{Timeout: time.Second})
	_, err := repo.UpsertInventoryItem(ctx, models.InventoryItem{ID: "a", Name: "Lait", CurrentQuantity: decimal.NewFromInt(1), MinThreshold: decimal.NewFromInt(2)})
	require.NoError(t, err)
	_, err = repo.UpsertInventoryItem(ctx, models.InventoryItem{ID: "b", Name: "Farine", CurrentQuantity: decimal.NewFromInt(9), MinThreshold: decimal.NewFromInt(2)})
	require.NoError(t, err)
	_, err = repo.UpsertTraceability(ctx, models.TraceabilityRecord{ID: "t", ItemName: "Saumon", LotNumber: "L1", ExpiryDate: "2024-05-30"})
	require.NoError(t, err)

	svc := NewService(repo, checklist.DefaultTemplate(), time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	app := fiber.New()
	app.Get("/dashboard", SummaryHandler(svc))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard?days=3", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Date           string `json:"date"`
		DateLabel      string `json:"dateLabel"`
		Total          int    `json:"total"`
		ExpiredRecords int    `json:"expiredRecords"`
		Source         string `json:"source"`
		LowStock       []struct {
			Name string `json:"name"`
		} `json:"lowStock"`
		Trend        []TrendPoint `json:"trend"`
		Connectivity Connectivity `json:"connectivity"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "2024-06-01", got.Date)
	assert.Equal(t, "samedi 1 juin 2024", got.DateLabel)
	assert.Equal(t, 22, got.Total)
	assert.Equal(t, 1, got.ExpiredRecords)
	assert.Equal(t, "cached", got.Source)
	require.Len(t, got.LowStock, 1)
	assert.Equal(t, "Lait", got.LowStock[0].Name)
	assert.Len(t, got.Trend, 3)
	assert.False(t, got.Connectivity.Configured)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dashboard?days=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
