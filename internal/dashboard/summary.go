package dashboard

import (
	"context"
	"math"
	"time"

	"haccp-backend/internal/checklist"
	"haccp-backend/internal/models"
	"haccp-backend/internal/report"
	"haccp-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 31
)

type Repository interface {
	ListDailyLogs(ctx context.Context) store.Result[models.DailyLog]
	ListInventory(ctx context.Context) store.Result[models.InventoryItem]
	ListTraceability(ctx context.Context) store.Result[models.TraceabilityRecord]
	RemoteConfigured() bool
	IsAvailable(ctx context.Context) bool
}

type CategoryStatus struct {
	Category models.Category `json:"category"`
	Label    string          `json:"label"`
	Done     int             `json:"done"`
	Total    int             `json:"total"`
}

type TrendPoint struct {
	Date    string `json:"date"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

type Connectivity struct {
	Configured bool `json:"configured"`
	Available  bool `json:"available"`
}

type Progress struct {
	Completed  int              `json:"completed"`
	Total      int              `json:"total"`
	Percent    int              `json:"percent"`
	Categories []CategoryStatus `json:"categories"`
}

type Summary struct {
	Date      string `json:"date"`
	DateLabel string `json:"dateLabel"` // "samedi 1 juin 2024"
	Locked    bool   `json:"locked"`
	Progress

	LowStock       []models.InventoryItem `json:"lowStock"`
	ExpiredRecords int                    `json:"expiredRecords"` // DLC'si geçmiş mal kabulleri
	Trend          []TrendPoint           `json:"trend"`
	Connectivity   Connectivity           `json:"connectivity"`
	Source         store.Source           `json:"source"`
}

type Service struct {
	repo     Repository
	template *checklist.Template
	loc      *time.Location
	now      func() time.Time
}

func NewService(repo Repository, tmpl *checklist.Template, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, template: tmpl, loc: loc, now: time.Now}
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// Summarize: günün ilerlemesi, kategoriler şablon sırasında; maddesi olmayan kategori atlanır
func Summarize(items []models.CheckItem, tmpl *checklist.Template) Progress {
	done := make(map[models.Category]int)
	total := make(map[models.Category]int)
	p := Progress{Categories: []CategoryStatus{}}
	for _, it := range items {
		total[it.Category]++
		p.Total++
		if it.Completed {
			done[it.Category]++
			p.Completed++
		}
	}
	p.Percent = percent(p.Completed, p.Total)

	for _, cat := range tmpl.CategoryOrder() {
		if total[cat] == 0 {
			continue
		}
		p.Categories = append(p.Categories, CategoryStatus{
			Category: cat,
			Label:    tmpl.Label(cat),
			Done:     done[cat],
			Total:    total[cat],
		})
	}
	return p
}

// Trend: son N günün tamamlanma oranı, eskiden yeniye. Kaydı olmayan gün 0/0.
func Trend(logs []models.DailyLog, today time.Time, days int) []TrendPoint {
	byDate := make(map[string]models.DailyLog, len(logs))
	for _, l := range logs {
		byDate[l.Date] = l
	}

	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, -(days - 1))
	points := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		pt := TrendPoint{Date: date}
		if l, ok := byDate[date]; ok {
			for _, it := range l.Items {
				pt.Total++
				if it.Completed {
					pt.Done++
				}
			}
			pt.Percent = percent(pt.Done, pt.Total)
		}
		points = append(points, pt)
	}
	return points
}

func (s *Service) Summary(ctx context.Context, days int) Summary {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	now := s.now().In(s.loc)
	today := now.Format("2006-01-02")

	logs := s.repo.ListDailyLogs(ctx)
	items := s.template.NewItems()
	locked := false
	for _, l := range logs.Data {
		if l.Date == today {
			items = l.Items
			locked = l.IsLocked
			break
		}
	}

	inv := s.repo.ListInventory(ctx)
	low := make([]models.InventoryItem, 0)
	for _, it := range inv.Data {
		if it.IsLow() {
			low = append(low, it)
		}
	}

	trace := s.repo.ListTraceability(ctx)
	expired := 0
	for _, r := range trace.Data {
		if r.Expired(now) {
			expired++
		}
	}

	src := store.SourceLive
	for _, other := range []store.Source{logs.Source, inv.Source, trace.Source} {
		if other > src {
			src = other
		}
	}

	return Summary{
		Date:           today,
		DateLabel:      report.LongDate(now),
		Locked:         locked,
		Progress:       Summarize(items, s.template),
		LowStock:       low,
		ExpiredRecords: expired,
		Trend:          Trend(logs.Data, now, days),
		Connectivity: Connectivity{
			Configured: s.repo.RemoteConfigured(),
			Available:  s.repo.IsAvailable(ctx),
		},
		Source: src,
	}
}

// GET /api/dashboard?days=7
func SummaryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		days := c.QueryInt("days", defaultTrendDays)
		if days <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Paramètre days invalide")
		}
		return c.JSON(svc.Summary(c.UserContext(), days))
	}
}
