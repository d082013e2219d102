package traceability

import (
	"context"
	"fmt"
	"io"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/audit"
	"haccp-backend/internal/models"
	"haccp-backend/internal/report"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type RecordResponse struct {
	models.TraceabilityRecord
	Expired bool `json:"expired"`
}

func toResponse(recs []models.TraceabilityRecord, now time.Time) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, RecordResponse{TraceabilityRecord: r, Expired: r.Expired(now)})
	}
	return out
}

// GET /api/traceability?month=2024-06&group=day
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), c.Query("month"))
		if err != nil {
			return apperr.Fiber(err)
		}
		if c.Query("group") == "day" {
			return c.JSON(store.Wrap(res.Source, GroupByDay(res.Data, svc.loc)))
		}
		return c.JSON(store.Wrap(res.Source, toResponse(res.Data, svc.now())))
	}
}

// POST /api/traceability
func CreateHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body NewRecord
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		rec, src, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType:  "traceability",
			EntityID:    rec.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Réception %s (lot %s, DLC %s)", rec.ItemName, rec.LotNumber, rec.ExpiryDate),
			After:       rec,
		})

		return c.Status(fiber.StatusCreated).JSON(store.Wrap(src, rec))
	}
}

// DELETE /api/traceability/:id (sadece yönetici)
func DeleteHandler(svc *Service, al *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, src, err := svc.Delete(c.UserContext(), c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}

		al.Record(c, audit.Entry{
			EntityType:  "traceability",
			EntityID:    rec.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Suppression réception %s (lot %s)", rec.ItemName, rec.LotNumber),
			Before:      rec,
		})

		return c.JSON(store.Wrap(src, fiber.Map{"id": rec.ID}))
	}
}

// POST /api/photos (multipart, alan adı "file")
func UploadPhotoHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier 'file' manquant")
		}
		if fh.Size > maxPhotoBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Photo trop volumineuse (10 Mo maximum)")
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier illisible")
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier illisible")
		}

		url, src, err := svc.UploadPhoto(c.UserContext(), fh.Filename, fh.Header.Get(fiber.HeaderContentType), data)
		if err != nil {
			return apperr.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(store.Wrap(src, fiber.Map{"url": url}))
	}
}

// GET /api/traceability/report?month=2024-06
func ReportHandler(svc *Service, r *report.Renderer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		month := c.Query("month")
		if month == "" {
			month = svc.now().In(svc.loc).Format("2006-01")
		}

		res, err := svc.List(c.UserContext(), month)
		if err != nil {
			return apperr.Fiber(err)
		}
		if len(res.Data) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Aucun enregistrement pour ce mois.")
		}

		// fotoğrafların tamamı için üst sınır
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Minute)
		defer cancel()

		data, err := r.Traceability(ctx, res.Data, month)
		if err != nil {
			return apperr.Fiber(err)
		}
		return report.SendPDF(c, fmt.Sprintf("Tracabilite_%s.pdf", month), data)
	}
}
