package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"haccp-backend/internal/audit"
	"haccp-backend/internal/inventory"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/models"
	"haccp-backend/internal/report"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	require.Len(t, cat.Recipes, 2)
	assert.Len(t, cat.Allergens, 14)
	assert.Len(t, cat.Boards, 6)
	assert.Len(t, cat.Handwashing.Moments, 6)

	burger, ok := cat.Recipe("2")
	require.True(t, ok)
	assert.Equal(t, "Burger Signature", burger.Name)
	assert.Equal(t, 1, burger.ShelfLifeDays)
	require.Len(t, burger.Ingredients, 2)
	assert.True(t, burger.Ingredients[0].Amount.Equal(decimal.NewFromInt(1)))
	assert.Contains(t, burger.Allergens, "Œufs")

	_, ok = cat.Recipe("42")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	cat := Default()
	assert.Len(t, cat.Search(""), 2)
	got := cat.Search("  VEAU ")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Empty(t, cat.Search("tiramisu"))
}

func TestParseRejectsUnknownAllergen(t *testing.T) {
	_, err := Parse([]byte(`
allergens: [Gluten]
recipes:
  - id: x
    name: Pain
    category: plat
    shelfLifeDays: 2
    allergens: [Lait]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lait")

	_, err = Parse([]byte(`
recipes:
  - id: x
    name: Pain
    category: boulangerie
    shelfLifeDays: 2
`))
	require.Error(t, err)
}

func TestHandlers(t *testing.T) {
	ctx := context.Background()
	repo := store.New(nil, mirror.NewMemoryStore(), zap.NewNop(), store.Options{Timeout: time.Second})
	_, err := repo.UpsertInventoryItem(ctx, models.InventoryItem{
		ID: "os", Name: "os de veau", CurrentQuantity: decimal.NewFromInt(12), Unit: "kg", MinThreshold: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	cat := Default()
	inv := inventory.NewService(repo)
	rd := report.NewRenderer(report.Options{Restaurant: "La Oncé", Location: time.UTC})
	al := audit.NewLogger(nil, nil)

	app := fiber.New()
	app.Get("/recipes", ListRecipesHandler(cat))
	app.Get("/recipes/:id", GetRecipeHandler(cat))
	app.Post("/recipes/:id/produce", ProduceHandler(cat, inv, al))
	app.Get("/recipes/:id/label", LabelHandler(cat, rd))
	app.Get("/standards", StandardsHandler(cat))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/recipes?q=burger", nil))
	require.NoError(t, err)
	var recipes []models.Recipe
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recipes))
	require.Len(t, recipes, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/recipes/99", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/recipes/1/produce", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env struct {
		Data inventory.ProduceResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Len(t, env.Data.Movements, 1)
	assert.Equal(t, []string{"Vin rouge"}, env.Data.Unmatched)
	assert.True(t, repo.ListInventory(ctx).Data[0].CurrentQuantity.Equal(decimal.NewFromInt(7)))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/recipes/2/label", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.Contains(resp.Header.Get("Content-Disposition"), "Etiquette_Burger_Signature_"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/standards", nil))
	require.NoError(t, err)
	var std Standards
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&std))
	assert.Len(t, std.Allergens, 14)
	assert.Equal(t, "Rouge", std.Boards[0].Color)
}
