package advisor

import (
	"strings"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/checklist"

	"github.com/gofiber/fiber/v2"
)

type AskRequest struct {
	Question string `json:"question"`
}

// POST /api/assistant/ask
func AskHandler(a *Advisor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AskRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}
		q := strings.TrimSpace(body.Question)
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "La question est vide.")
		}
		return c.JSON(fiber.Map{"answer": a.Ask(c.UserContext(), q)})
	}
}

// POST /api/daily-logs/:date/analysis
func AnalysisHandler(a *Advisor, logs *checklist.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l, ok, err := logs.Find(c.UserContext(), c.Params("date"))
		if err != nil {
			return apperr.Fiber(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Aucun registre pour cette date.")
		}
		return c.JSON(fiber.Map{"date": l.Date, "analysis": a.AnalyzeCompliance(c.UserContext(), l)})
	}
}
