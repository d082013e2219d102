package checklist

import (
	"fmt"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/audit"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type LockRequest struct {
	Signature string `json:"signature"`
}

type CategoryResponse struct {
	ID    models.Category `json:"id"`
	Label string          `json:"label"`
}

// GET /api/daily-logs
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(store.WrapResult(svc.List(c.UserContext())))
	}
}

// GET /api/daily-logs/categories
func CategoriesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order := svc.Template().CategoryOrder()
		resp := make([]CategoryResponse, 0, len(order))
		for _, cat := range order {
			resp = append(resp, CategoryResponse{ID: cat, Label: svc.Template().Label(cat)})
		}
		return c.JSON(resp)
	}
}

// GET /api/daily-logs/:date (yoksa şablondan açılır)
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l, src, err := svc.EnsureLog(c.UserContext(), c.Params("date"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.JSON(store.Wrap(src, l))
	}
}

// PATCH /api/daily-logs/:date/items/:itemId
func UpdateItemHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ItemUpdate
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		date, itemID := c.Params("date"), c.Params("itemId")
		l, src, err := svc.UpdateItem(c.UserContext(), date, itemID, body)
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType:  "daily_log",
			EntityID:    l.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Registre %s : point %s mis à jour", date, itemID),
			After:       body,
		})

		return c.JSON(store.Wrap(src, l))
	}
}

// POST /api/daily-logs/:date/lock
func LockHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		date := c.Params("date")
		l, src, err := svc.Lock(c.UserContext(), date, body.Signature)
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType:  "daily_log",
			EntityID:    l.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Registre %s signé par %s", date, l.Signature),
			After:       l,
		})

		return c.JSON(store.Wrap(src, l))
	}
}
