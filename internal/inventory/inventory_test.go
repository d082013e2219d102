package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/audit"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Repository) {
	t.Helper()
	repo := store.New(nil, mirror.NewMemoryStore(), zap.NewNop(), store.Options{Timeout: time.Second})
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func seed(t *testing.T, repo *store.Repository, name string, qty int64) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		ID:              name + "-id",
		Name:            name,
		CurrentQuantity: decimal.NewFromInt(qty),
		Unit:            "kg",
		MinThreshold:    decimal.NewFromInt(5),
		Category:        "Légumes",
	}
	_, err := repo.UpsertInventoryItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyInOnKnownItem(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Tomate", 20)

	temp := 3.5
	res, src, err := svc.Apply(ctx, MovementRequest{ItemName: "tomate", Type: models.MovementIn, Quantity: dec("5"), Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, store.SourceCached, src)
	assert.False(t, res.Created)
	assert.Equal(t, "Tomate-id", res.Item.ID)
	assert.True(t, res.Item.CurrentQuantity.Equal(dec("25")), res.Item.CurrentQuantity.String())
	require.NotNil(t, res.Item.LastDeliveryTemp)
	assert.Equal(t, 3.5, *res.Item.LastDeliveryTemp)

	assert.Equal(t, "Tomate", res.Movement.ItemName)
	assert.Equal(t, ReasonDelivery, res.Movement.Reason)
	assert.Equal(t, fixedNow, res.Movement.Date)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].CurrentQuantity.Equal(dec("25")))

	movs := repo.ListMovements(ctx).Data
	require.Len(t, movs, 1)
	assert.Equal(t, res.Movement.ID, movs[0].ID)
}

func TestApplyOutOnUnknownItemIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Tomate", 20)

	_, _, err := svc.Apply(ctx, MovementRequest{ItemName: "Caviar", Type: models.MovementOut, Quantity: dec("1")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnknownItem, apperr.KindOf(err))
	assert.Equal(t, "Produit inconnu pour une sortie.", apperr.Message(err))

	assert.Len(t, repo.ListInventory(ctx).Data, 1)
	assert.Empty(t, repo.ListMovements(ctx).Data)
}

func TestApplyInOnUnknownItemCreatesIt(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	res, _, err := svc.Apply(ctx, MovementRequest{ItemName: "  Basilic ", Type: models.MovementIn, Quantity: dec("2.5")})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Basilic", res.Item.Name)
	assert.Equal(t, DefaultUnit, res.Item.Unit)
	assert.Equal(t, DefaultCategory, res.Item.Category)
	assert.True(t, res.Item.MinThreshold.Equal(dec("1")))
	assert.True(t, res.Item.CurrentQuantity.Equal(dec("2.5")))
	assert.Equal(t, res.Item.ID, res.Movement.ItemID)

	items := repo.ListInventory(ctx).Data
	require.Len(t, items, 1)
	assert.Equal(t, res.Item.ID, items[0].ID)
}

func TestApplyOutAllowsNegativeStock(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Beurre", 1)

	temp := 8.0
	res, _, err := svc.Apply(ctx, MovementRequest{ItemName: "BEURRE", Type: models.MovementOut, Quantity: dec("3"), Temperature: &temp})
	require.NoError(t, err)
	assert.True(t, res.Item.CurrentQuantity.Equal(dec("-2")))
	assert.Nil(t, res.Item.LastDeliveryTemp)
	assert.Equal(t, ReasonManual, res.Movement.Reason)
}

func TestApplyValidation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Tomate", 20)

	cases := []MovementRequest{
		{ItemName: "", Type: models.MovementIn, Quantity: dec("1")},
		{ItemName: "Tomate", Type: models.MovementIn, Quantity: dec("0")},
		{ItemName: "Tomate", Type: models.MovementOut, Quantity: dec("-4")},
		{ItemName: "Tomate", Type: "MOVE", Quantity: dec("1")},
	}
	for _, req := range cases {
		_, _, err := svc.Apply(ctx, req)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err), "%+v", req)
	}

	assert.Empty(t, repo.ListMovements(ctx).Data)
	assert.True(t, repo.ListInventory(ctx).Data[0].CurrentQuantity.Equal(dec("20")))
}

func TestProduce(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Steak haché", 10)
	seed(t, repo, "Pain burger", 10)

	recipe := models.Recipe{
		Name: "Burger Maison",
		Ingredients: []models.Ingredient{
			{Name: "steak haché", Amount: dec("0.15"), Unit: "kg"},
			{Name: "Pain Burger", Amount: dec("1"), Unit: "u"},
			{Name: "Cheddar", Amount: dec("2"), Unit: "tranches"},
		},
	}
	res, _, err := svc.Produce(ctx, recipe)
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, []string{"Cheddar"}, res.Unmatched)
	for _, m := range res.Movements {
		assert.Equal(t, models.MovementOut, m.Type)
		assert.Equal(t, "Production: Burger Maison", m.Reason)
	}

	byName := map[string]decimal.Decimal{}
	for _, it := range repo.ListInventory(ctx).Data {
		byName[it.Name] = it.CurrentQuantity
	}
	assert.True(t, byName["Steak haché"].Equal(dec("9.85")))
	assert.True(t, byName["Pain burger"].Equal(dec("9")))
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Tomate", 20)
	seed(t, repo, "Oignon", 4)

	threshold := dec("25")
	unit := "caisse"
	item, _, err := svc.UpdateItem(ctx, "Tomate-id", ItemUpdate{MinThreshold: &threshold, Unit: &unit})
	require.NoError(t, err)
	assert.True(t, item.IsLow())
	assert.Equal(t, "caisse", item.Unit)
	assert.True(t, item.CurrentQuantity.Equal(dec("20")))

	name := "oignon"
	_, _, err = svc.UpdateItem(ctx, "Tomate-id", ItemUpdate{Name: &name})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, _, err = svc.UpdateItem(ctx, "nope", ItemUpdate{Unit: &unit})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestWorkbookRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	seed(t, repo, "Tomate", 20)
	_, _, err := svc.Apply(ctx, MovementRequest{ItemName: "Tomate", Type: models.MovementOut, Quantity: dec("2")})
	require.NoError(t, err)

	data, err := ExportWorkbook(repo.ListInventory(ctx).Data, repo.ListMovements(ctx).Data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{SheetStock, SheetMovements}, f.GetSheetList())
	rows, err := f.GetRows(SheetMovements)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "OUT", rows[1][2])
	require.NoError(t, f.Close())

	other, otherRepo := newTestService(t)
	seed(t, otherRepo, "tomate", 3)
	res, _, err := other.ImportWorkbook(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Created)

	items := otherRepo.ListInventory(ctx).Data
	require.Len(t, items, 1)
	assert.True(t, items[0].CurrentQuantity.Equal(dec("18")))
	assert.Equal(t, "kg", items[0].Unit)
}

func TestImportCreatesAndSkips(t *testing.T) {
	ctx := context.Background()
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Nom", "Quantité", "Unité"},
		{"Farine", "12,5", "kg"},
		{"Sel", "beaucoup"},
		{"", "3"},
	}
	for i, r := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	svc, repo := newTestService(t)
	res, _, err := svc.ImportWorkbook(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{"Sel (quantité invalide)"}, res.Skipped)

	items := repo.ListInventory(ctx).Data
	require.Len(t, items, 1)
	assert.Equal(t, "Farine", items[0].Name)
	assert.True(t, items[0].CurrentQuantity.Equal(dec("12.5")))
	assert.Equal(t, DefaultCategory, items[0].Category)
}

func TestHandlers(t *testing.T) {
	svc, repo := newTestService(t)
	seed(t, repo, "Tomate", 20)

	app := fiber.New()
	al := audit.NewLogger(nil, nil)
	app.Get("/inventory", ListHandler(svc))
	app.Get("/inventory/export", ExportHandler(svc))
	app.Post("/inventory/import", ImportHandler(svc, al))
	app.Get("/inventory/movements", ListMovementsHandler(svc))
	app.Post("/inventory/movements", CreateMovementHandler(svc, al))
	app.Put("/inventory/:id", UpdateItemHandler(svc, al))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/inventory/movements", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"itemName":"Tomate","type":"in","quantity":5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(`{"itemName":"Caviar","type":"OUT","quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/inventory?q=tom", nil))
	require.NoError(t, err)
	var env struct {
		Source string         `json:"source"`
		Data   []ItemResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "cached", env.Source)
	require.Len(t, env.Data, 1)
	assert.True(t, env.Data[0].CurrentQuantity.Equal(dec("25")))
	assert.False(t, env.Data[0].Low)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/inventory/export", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("a,b"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/inventory/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
