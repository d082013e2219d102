package inventory

import (
	"fmt"
	"strings"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/audit"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportBytes  = 5 << 20
)

type ItemResponse struct {
	models.InventoryItem
	Low bool `json:"low"`
}

func toResponse(items []models.InventoryItem, term string) []ItemResponse {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		if term != "" && !strings.Contains(strings.ToLower(it.Name), term) {
			continue
		}
		out = append(out, ItemResponse{InventoryItem: it, Low: it.IsLow()})
	}
	return out
}

// GET /api/inventory?q=tom
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := svc.Items(c.UserContext())
		return c.JSON(store.Wrap(res.Source, toResponse(res.Data, c.Query("q"))))
	}
}

// PUT /api/inventory/:id
func UpdateItemHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ItemUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		item, src, err := svc.UpdateItem(c.UserContext(), c.Params("id"), body)
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType:  "inventory_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Fiche produit %s modifiée", item.Name),
			After:       item,
		})

		return c.JSON(store.Wrap(src, ItemResponse{InventoryItem: item, Low: item.IsLow()}))
	}
}

// GET /api/inventory/movements
func ListMovementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(store.WrapResult(svc.Movements(c.UserContext())))
	}
}

// POST /api/inventory/movements
func CreateMovementHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}
		body.Type = models.MovementType(strings.ToUpper(string(body.Type)))

		res, src, err := svc.Apply(c.UserContext(), body)
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType: "stock_movement",
			EntityID:   res.Movement.ID,
			Action:     models.AuditActionCreate,
			Description: fmt.Sprintf("%s %s %s (%s)",
				res.Movement.Type, res.Movement.Quantity.String(), res.Item.Name, res.Movement.Reason),
			After: res.Movement,
		})

		return c.Status(fiber.StatusCreated).JSON(store.Wrap(src, res))
	}
}

// GET /api/inventory/export
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		items := svc.Items(ctx).Data
		movements := svc.Movements(ctx).Data

		data, err := ExportWorkbook(items, movements)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Export Excel impossible")
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="Stock_%s.xlsx"`, svc.now().Format("2006-01-02")))
		return c.Send(data)
	}
}

// POST /api/inventory/import (sadece yönetici, alan adı "file")
func ImportHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier 'file' manquant")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Seuls les fichiers .xlsx sont acceptés")
		}
		if fh.Size > maxImportBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Fichier trop volumineux (5 Mo maximum)")
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier illisible")
		}
		defer f.Close()

		res, src, err := svc.ImportWorkbook(c.UserContext(), f)
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType:  "inventory_item",
			EntityID:    "import",
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Import inventaire : %d créés, %d mis à jour", res.Created, res.Updated),
			After:       res,
		})

		return c.JSON(store.Wrap(src, res))
	}
}
