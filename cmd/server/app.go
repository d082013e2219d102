package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"haccp-backend/internal/advisor"
	"haccp-backend/internal/apperr"
	"haccp-backend/internal/audit"
	"haccp-backend/internal/auth"
	"haccp-backend/internal/catalog"
	"haccp-backend/internal/checklist"
	"haccp-backend/internal/config"
	"haccp-backend/internal/dashboard"
	"haccp-backend/internal/database"
	"haccp-backend/internal/inventory"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/remote"
	"haccp-backend/internal/report"
	"haccp-backend/internal/store"
	"haccp-backend/internal/traceability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reportTimezone = "Europe/Paris"
	bodyLimit      = 12 << 20 // fotoğraf + xlsx yüklemeleri
)

// services: sunucu ve export komutlarının paylaştığı bağımlılıklar
type services struct {
	cfg *config.Config
	log *zap.Logger

	db     *gorm.DB
	mirror *mirror.BadgerStore
	repo   *store.Repository

	logs      *checklist.Service
	trace     *traceability.Service
	inventory *inventory.Service
	catalog   *catalog.Catalog
	dashboard *dashboard.Service
	advisor   *advisor.Advisor
	renderer  *report.Renderer
	users     auth.UserStore
	audit     *audit.Logger
}

func buildServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*services, error) {
	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}

	m, err := mirror.OpenBadger(cfg.MirrorPath, log)
	if err != nil {
		return nil, fmt.Errorf("yerel kopya açılamadı: %w", err)
	}

	loc, err := time.LoadLocation(reportTimezone)
	if err != nil {
		log.Warn("saat dilimi yüklenemedi, yerel saat kullanılıyor", zap.Error(err))
		loc = time.Local
	}

	adapter := remote.New(db, remote.NewPhotoStore(cfg.PhotoDir, cfg.PhotoBaseURL))
	repo := store.New(adapter, m, log.Named("store"), store.Options{
		Timeout:       cfg.RemoteTimeout,
		MovementLimit: cfg.MovementLimit,
	})

	tmpl := checklist.DefaultTemplate()
	trace := traceability.NewService(repo, traceability.Options{
		Location:     loc,
		PhotoBaseURL: cfg.PhotoBaseURL,
	})

	var gen advisor.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := advisor.NewGemini(ctx, cfg.GeminiAPIKey, cfg.AdvisorModel)
		if err != nil {
			log.Warn("asistan devre dışı", zap.Error(err))
		} else {
			gen = g
		}
	}

	return &services{
		cfg:       cfg,
		log:       log,
		db:        db,
		mirror:    m,
		repo:      repo,
		logs:      checklist.NewService(repo, tmpl),
		trace:     trace,
		inventory: inventory.NewService(repo),
		catalog:   catalog.Default(),
		dashboard: dashboard.NewService(repo, tmpl, loc),
		advisor:   advisor.New(gen, cfg.AdvisorTimeout, log.Named("advisor")),
		renderer: report.NewRenderer(report.Options{
			Restaurant: cfg.RestaurantName,
			Labels:     tmpl.Labels(),
			Location:   loc,
			Fetcher:    report.NewImageFetcher(cfg.ImageTimeout, cfg.PhotoBaseURL, cfg.PhotoDir, log.Named("images")),
			Logger:     log.Named("report"),
		}),
		users: auth.NewUserStore(db, m),
		audit: audit.NewLogger(db, log.Named("audit")),
	}, nil
}

func (s *services) Close() error {
	var errs []error
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	errs = append(errs, s.mirror.Close())
	return errors.Join(errs...)
}

func newApp(s *services) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if apperr.KindOf(err) != apperr.KindUnknown {
				err = apperr.Fiber(err)
			}
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			s.log.Error("beklenmeyen hata", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Erreur interne du serveur",
			})
		},
	})

	corsOrigins := strings.Split(s.cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	// Yerel fotoğraf deposu
	if strings.HasPrefix(s.cfg.PhotoBaseURL, "/") && s.cfg.PhotoDir != "" {
		app.Static(s.cfg.PhotoBaseURL, s.cfg.PhotoDir)
	}

	registerRoutes(app, s)
	return app
}

func registerRoutes(app *fiber.App, s *services) {
	api := app.Group("/api")

	// Bağlantı göstergesi (auth gerekmez)
	api.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"configured": s.repo.RemoteConfigured(),
			"available":  s.repo.IsAvailable(c.UserContext()),
		})
	})

	// Public auth
	api.Post("/auth/register-manager", auth.RegisterManagerHandler(s.users))
	api.Post("/auth/login", auth.LoginHandler(s.users, s.cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.RequireSession(s.cfg.JWTSecret))
	managerOnly := auth.ManagerOnly()

	protected.Get("/auth/me", auth.MeHandler(s.users))
	protected.Post("/auth/staff", managerOnly, auth.RegisterStaffHandler(s.users))

	// Dashboard
	protected.Get("/dashboard", dashboard.SummaryHandler(s.dashboard))

	// Günlük kontrol listesi
	protected.Get("/daily-logs", checklist.ListHandler(s.logs))
	protected.Get("/daily-logs/categories", checklist.CategoriesHandler(s.logs))
	protected.Get("/daily-logs/history/pdf", report.HistoryPDFHandler(s.logs, s.renderer))
	protected.Get("/daily-logs/:date", checklist.GetHandler(s.logs))
	protected.Patch("/daily-logs/:date/items/:itemId", checklist.UpdateItemHandler(s.logs, s.audit))
	protected.Post("/daily-logs/:date/lock", checklist.LockHandler(s.logs, s.audit))
	protected.Get("/daily-logs/:date/pdf", report.DailyPDFHandler(s.logs, s.renderer))
	protected.Post("/daily-logs/:date/analysis", advisor.AnalysisHandler(s.advisor, s.logs))

	// Traçabilité
	protected.Get("/traceability", traceability.ListHandler(s.trace))
	protected.Post("/traceability", traceability.CreateHandler(s.trace, s.audit))
	protected.Get("/traceability/report", traceability.ReportHandler(s.trace, s.renderer))
	protected.Delete("/traceability/:id", managerOnly, traceability.DeleteHandler(s.trace, s.audit))
	protected.Post("/photos", traceability.UploadPhotoHandler(s.trace))

	// Stok
	protected.Get("/inventory", inventory.ListHandler(s.inventory))
	protected.Get("/inventory/movements", inventory.ListMovementsHandler(s.inventory))
	protected.Post("/inventory/movements", inventory.CreateMovementHandler(s.inventory, s.audit))
	protected.Get("/inventory/export", inventory.ExportHandler(s.inventory))
	protected.Post("/inventory/import", managerOnly, inventory.ImportHandler(s.inventory, s.audit))
	protected.Put("/inventory/:id", inventory.UpdateItemHandler(s.inventory, s.audit))

	// Fiches techniques & normes
	protected.Get("/recipes", catalog.ListRecipesHandler(s.catalog))
	protected.Get("/recipes/:id", catalog.GetRecipeHandler(s.catalog))
	protected.Post("/recipes/:id/produce", catalog.ProduceHandler(s.catalog, s.inventory, s.audit))
	protected.Get("/recipes/:id/label", catalog.LabelHandler(s.catalog, s.renderer))
	protected.Get("/standards", catalog.StandardsHandler(s.catalog))

	// Assistant
	protected.Post("/assistant/ask", advisor.AskHandler(s.advisor))

	// Audit
	protected.Get("/audit-logs", managerOnly, audit.ListAuditLogsHandler(s.audit))
}
