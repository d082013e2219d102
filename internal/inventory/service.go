package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bilinmeyen ürün girişinde oluşturulan kalemin varsayılanları
const (
	DefaultUnit     = "u"
	DefaultCategory = "Epicerie"

	ReasonDelivery = "Livraison"
	ReasonManual   = "Sortie manuelle"
)

var defaultMinThreshold = decimal.NewFromInt(1)

type Repository interface {
	ListInventory(ctx context.Context) store.Result[models.InventoryItem]
	ListMovements(ctx context.Context) store.Result[models.StockMovement]
	UpsertInventoryItem(ctx context.Context, item models.InventoryItem) (store.Source, error)
	SaveMovement(ctx context.Context, item models.InventoryItem, mov models.StockMovement, created bool) (store.Source, error)
}

type MovementRequest struct {
	ItemName    string              `json:"itemName"`
	Type        models.MovementType `json:"type"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Temperature *float64            `json:"temperature"`
	Reason      string              `json:"reason"`
}

type ApplyResult struct {
	Item     models.InventoryItem   `json:"item"`
	Movement models.StockMovement   `json:"movement"`
	Created  bool                   `json:"created"`
	Items    []models.InventoryItem `json:"items"` // hareket sonrası güncel liste
}

type ProduceResult struct {
	Movements []models.StockMovement `json:"movements"`
	Unmatched []string               `json:"unmatched"` // stokta karşılığı olmayan malzemeler
}

type ItemUpdate struct {
	Name         *string          `json:"name"`
	Unit         *string          `json:"unit"`
	MinThreshold *decimal.Decimal `json:"minThreshold"`
	Category     *string          `json:"category"`
}

type Service struct {
	repo Repository
	now  func() time.Time

	// aynı süreçteki hareketler sırayla uygulanır
	mu sync.Mutex
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func findByName(items []models.InventoryItem, name string) (models.InventoryItem, bool) {
	for _, it := range items {
		if sameName(it.Name, name) {
			return it, true
		}
	}
	return models.InventoryItem{}, false
}

func (s *Service) Items(ctx context.Context) store.Result[models.InventoryItem] {
	return s.repo.ListInventory(ctx)
}

func (s *Service) Movements(ctx context.Context) store.Result[models.StockMovement] {
	return s.repo.ListMovements(ctx)
}

// Apply: hareketi isme göre bulunan kaleme uygular. Bilinmeyen ürün girişte oluşturulur,
// çıkışta reddedilir. Stok eksiye düşebilir.
func (s *Service) Apply(ctx context.Context, req MovementRequest) (ApplyResult, store.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.repo.ListInventory(ctx).Data
	res, src, err := s.apply(ctx, items, req)
	if err != nil {
		return ApplyResult{}, src, err
	}
	res.Items = s.repo.ListInventory(ctx).Data
	return res, src, nil
}

func (s *Service) apply(ctx context.Context, items []models.InventoryItem, req MovementRequest) (ApplyResult, store.Source, error) {
	const op = "apply movement"
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		return ApplyResult{}, store.SourceFailed, apperr.Invalid(op, "Le nom du produit est obligatoire.")
	}
	if !req.Type.Valid() {
		return ApplyResult{}, store.SourceFailed, apperr.Invalid(op, "Type de mouvement attendu : IN ou OUT")
	}
	if !req.Quantity.IsPositive() {
		return ApplyResult{}, store.SourceFailed, apperr.Invalid(op, "La quantité doit être supérieure à 0.")
	}

	now := s.now()
	item, found := findByName(items, name)
	switch {
	case !found && req.Type == models.MovementIn:
		item = models.InventoryItem{
			ID:               uuid.NewString(),
			Name:             name,
			CurrentQuantity:  req.Quantity,
			Unit:             DefaultUnit,
			MinThreshold:     defaultMinThreshold,
			Category:         DefaultCategory,
			LastDeliveryTemp: req.Temperature,
		}
	case !found:
		return ApplyResult{}, store.SourceFailed, apperr.E(apperr.KindUnknownItem, op, errors.New("Produit inconnu pour une sortie."))
	default:
		if req.Type == models.MovementIn {
			item.CurrentQuantity = item.CurrentQuantity.Add(req.Quantity)
			if req.Temperature != nil {
				item.LastDeliveryTemp = req.Temperature
			}
		} else {
			item.CurrentQuantity = item.CurrentQuantity.Sub(req.Quantity)
		}
	}
	item.UpdatedAt = now

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = ReasonManual
		if req.Type == models.MovementIn {
			reason = ReasonDelivery
		}
	}

	mov := models.StockMovement{
		ID:          uuid.NewString(),
		ItemID:      item.ID,
		ItemName:    item.Name,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Date:        now,
		Reason:      reason,
		Temperature: req.Temperature,
	}

	src, err := s.repo.SaveMovement(ctx, item, mov, !found)
	if err != nil {
		return ApplyResult{}, src, err
	}
	return ApplyResult{Item: item, Movement: mov, Created: !found}, src, nil
}

// Produce: tarifin stokta karşılığı olan her malzemesi için bir çıkış hareketi yazar
func (s *Service) Produce(ctx context.Context, recipe models.Recipe) (ProduceResult, store.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := ProduceResult{Movements: []models.StockMovement{}, Unmatched: []string{}}
	src := store.SourceLive
	reason := "Production: " + recipe.Name

	items := s.repo.ListInventory(ctx).Data
	for _, ing := range recipe.Ingredients {
		if _, ok := findByName(items, ing.Name); !ok {
			out.Unmatched = append(out.Unmatched, ing.Name)
			continue
		}
		res, movSrc, err := s.apply(ctx, items, MovementRequest{
			ItemName: ing.Name,
			Type:     models.MovementOut,
			Quantity: ing.Amount,
			Reason:   reason,
		})
		if err != nil {
			return out, movSrc, fmt.Errorf("%s: %w", ing.Name, err)
		}
		if movSrc != store.SourceLive {
			src = movSrc
		}
		items = replaceItem(items, res.Item)
		out.Movements = append(out.Movements, res.Movement)
	}
	return out, src, nil
}

func replaceItem(items []models.InventoryItem, item models.InventoryItem) []models.InventoryItem {
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// UpdateItem: ad, birim, eşik ve kategori düzenlenir. Miktar sadece hareketlerle değişir.
func (s *Service) UpdateItem(ctx context.Context, id string, upd ItemUpdate) (models.InventoryItem, store.Source, error) {
	const op = "update inventory item"
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.repo.ListInventory(ctx).Data
	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.InventoryItem{}, store.SourceFailed, apperr.E(apperr.KindNotFound, op, errors.New("Produit introuvable"))
	}
	item := items[idx]

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return models.InventoryItem{}, store.SourceFailed, apperr.Invalid(op, "Le nom du produit est obligatoire.")
		}
		if other, ok := findByName(items, name); ok && other.ID != id {
			return models.InventoryItem{}, store.SourceFailed, apperr.E(apperr.KindConflict, op, fmt.Errorf("Un produit nommé %q existe déjà.", other.Name))
		}
		item.Name = name
	}
	if upd.Unit != nil {
		unit := strings.TrimSpace(*upd.Unit)
		if unit == "" {
			return models.InventoryItem{}, store.SourceFailed, apperr.Invalid(op, "L'unité est obligatoire.")
		}
		item.Unit = unit
	}
	if upd.MinThreshold != nil {
		if upd.MinThreshold.IsNegative() {
			return models.InventoryItem{}, store.SourceFailed, apperr.Invalid(op, "Le seuil minimum ne peut pas être négatif.")
		}
		item.MinThreshold = *upd.MinThreshold
	}
	if upd.Category != nil {
		item.Category = strings.TrimSpace(*upd.Category)
	}
	item.UpdatedAt = s.now()

	src, err := s.repo.UpsertInventoryItem(ctx, item)
	if err != nil {
		return models.InventoryItem{}, src, err
	}
	return item, src, nil
}
