package report

import (
	"fmt"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/checklist"

	"github.com/gofiber/fiber/v2"
)

// SendPDF: PDF'i indirme olarak döner
func SendPDF(c *fiber.Ctx, fileName string, data []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return c.Send(data)
}

// GET /api/daily-logs/:date/pdf
func DailyPDFHandler(logs *checklist.Service, r *Renderer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date := c.Params("date")
		l, ok, err := logs.Find(c.UserContext(), date)
		if err != nil {
			return apperr.Fiber(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "Aucun registre pour cette date.")
		}

		data, err := r.Daily(l)
		if err != nil {
			return apperr.Fiber(err)
		}
		return SendPDF(c, fmt.Sprintf("HACCP_%s.pdf", date), data)
	}
}

// GET /api/daily-logs/history/pdf
func HistoryPDFHandler(logs *checklist.Service, r *Renderer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all := logs.List(c.UserContext()).Data
		if len(all) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Aucun registre à exporter.")
		}

		data, err := r.History(all)
		if err != nil {
			return apperr.Fiber(err)
		}
		return SendPDF(c, fmt.Sprintf("HACCP_Historique_%s.pdf", r.now().In(r.opts.Location).Format("2006-01-02")), data)
	}
}
