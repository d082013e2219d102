package catalog

import (
	"fmt"
	"strings"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/audit"
	"haccp-backend/internal/inventory"
	"haccp-backend/internal/models"
	"haccp-backend/internal/report"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

func findRecipe(cat *Catalog, c *fiber.Ctx) (models.Recipe, error) {
	r, ok := cat.Recipe(c.Params("id"))
	if !ok {
		return models.Recipe{}, fiber.NewError(fiber.StatusNotFound, "Fiche technique introuvable")
	}
	return r, nil
}

// GET /api/recipes?q=burger
func ListRecipesHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(cat.Search(c.Query("q")))
	}
}

// GET /api/recipes/:id
func GetRecipeHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRecipe(cat, c)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// POST /api/recipes/:id/produce
// Stokta karşılığı olan malzemeler düşülür, olmayanlar cevapta listelenir
func ProduceHandler(cat *Catalog, inv *inventory.Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRecipe(cat, c)
		if err != nil {
			return err
		}

		res, src, err := inv.Produce(c.UserContext(), r)
		if err != nil {
			return apperr.Fiber(err)
		}

		if len(res.Movements) > 0 {
			al.Record(c, audit.Entry{
				EntityType:  "stock_movement",
				EntityID:    r.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Production %s : %d ingrédient(s) déduit(s)", r.Name, len(res.Movements)),
				After:       res.Movements,
			})
		}

		return c.JSON(store.Wrap(src, res))
	}
}

// GET /api/recipes/:id/label (60×40 mm étiquette)
func LabelHandler(cat *Catalog, rd *report.Renderer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRecipe(cat, c)
		if err != nil {
			return err
		}

		now := time.Now().In(rd.Location())
		data, err := rd.Label(r, now)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Étiquette impossible à générer")
		}
		name := strings.Join(strings.Fields(r.Name), "_")
		return report.SendPDF(c, fmt.Sprintf("Etiquette_%s_%s.pdf", name, now.Format("02-01-06")), data)
	}
}

// GET /api/standards
func StandardsHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(cat.Standards)
	}
}
