package checklist

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Repository: günlük kayıtlar için ihtiyaç duyulan store metotları
type Repository interface {
	ListDailyLogs(ctx context.Context) store.Result[models.DailyLog]
	UpsertDailyLog(ctx context.Context, l models.DailyLog) (store.Source, error)
}

// ItemUpdate: nil alanlar değişmez
type ItemUpdate struct {
	Completed *bool   `json:"completed"`
	Value     *string `json:"value"`
}

type Service struct {
	repo     Repository
	template *Template
	now      func() time.Time

	mu sync.Mutex
}

func NewService(repo Repository, template *Template) *Service {
	if template == nil {
		template = DefaultTemplate()
	}
	return &Service{repo: repo, template: template, now: time.Now}
}

func (s *Service) Template() *Template { return s.template }

func validDate(op, date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperr.Invalid(op, "Format de date attendu : AAAA-MM-JJ")
	}
	return nil
}

// List: tüm kayıtlar, en yeni tarih başta
func (s *Service) List(ctx context.Context) store.Result[models.DailyLog] {
	res := s.repo.ListDailyLogs(ctx)
	sort.SliceStable(res.Data, func(i, j int) bool { return res.Data[i].Date > res.Data[j].Date })
	return res
}

func find(logs []models.DailyLog, date string) (models.DailyLog, bool) {
	for _, l := range logs {
		if l.Date == date {
			return l, true
		}
	}
	return models.DailyLog{}, false
}

// Find: tarihin kaydı; yoksa oluşturmaz
func (s *Service) Find(ctx context.Context, date string) (models.DailyLog, bool, error) {
	if err := validDate("find log", date); err != nil {
		return models.DailyLog{}, false, err
	}
	l, ok := find(s.repo.ListDailyLogs(ctx).Data, date)
	return l, ok, nil
}

// EnsureLog: tarihin kaydını döner; yoksa şablondan oluşturup kaydeder
func (s *Service) EnsureLog(ctx context.Context, date string) (models.DailyLog, store.Source, error) {
	if err := validDate("ensure log", date); err != nil {
		return models.DailyLog{}, store.SourceFailed, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ctx, date)
}

func (s *Service) ensureLocked(ctx context.Context, date string) (models.DailyLog, store.Source, error) {
	res := s.repo.ListDailyLogs(ctx)
	if l, ok := find(res.Data, date); ok {
		return l, res.Source, nil
	}

	l := models.DailyLog{
		ID:    uuid.NewString(),
		Date:  date,
		Items: s.template.NewItems(),
	}
	src, err := s.repo.UpsertDailyLog(ctx, l)
	if err != nil {
		return models.DailyLog{}, src, err
	}
	return l, src, nil
}

// UpdateItem: maddenin durumunu ya da okunan değeri günceller.
// İşaretlenince zaman damgası atanır, işaret kaldırılınca silinir.
// Değer girilirse madde, değer boş değilse tamamlanmış sayılır.
func (s *Service) UpdateItem(ctx context.Context, date, itemID string, upd ItemUpdate) (models.DailyLog, store.Source, error) {
	const op = "update item"
	if err := validDate(op, date); err != nil {
		return models.DailyLog{}, store.SourceFailed, err
	}
	if upd.Completed == nil && upd.Value == nil {
		return models.DailyLog{}, store.SourceFailed, apperr.Invalid(op, "Aucune modification fournie")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, src, err := s.ensureLocked(ctx, date)
	if err != nil {
		return models.DailyLog{}, src, err
	}
	if l.IsLocked {
		return l, src, apperr.Invalid(op, "Ce registre est verrouillé et ne peut plus être modifié.")
	}

	idx := -1
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return l, src, apperr.E(apperr.KindNotFound, op, errors.New("Point de contrôle introuvable"))
	}

	items := append([]models.CheckItem(nil), l.Items...)
	it := items[idx]
	wasCompleted := it.Completed
	if upd.Value != nil {
		it.Value = *upd.Value
		it.Completed = strings.TrimSpace(*upd.Value) != ""
	}
	if upd.Completed != nil {
		it.Completed = *upd.Completed
	}
	switch {
	case !it.Completed:
		it.Timestamp = nil
	case !wasCompleted || upd.Value != nil:
		now := s.now()
		it.Timestamp = &now
	}
	items[idx] = it
	l.Items = items

	src, err = s.repo.UpsertDailyLog(ctx, l)
	if err != nil {
		return models.DailyLog{}, src, err
	}
	return l, src, nil
}

// Lock: kaydı imzalayıp kilitler; kilitli kayıt bir daha değiştirilemez
func (s *Service) Lock(ctx context.Context, date, signature string) (models.DailyLog, store.Source, error) {
	const op = "lock log"
	if err := validDate(op, date); err != nil {
		return models.DailyLog{}, store.SourceFailed, err
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return models.DailyLog{}, store.SourceFailed, apperr.Invalid(op, "La signature est obligatoire.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, src, err := s.ensureLocked(ctx, date)
	if err != nil {
		return models.DailyLog{}, src, err
	}
	if l.IsLocked {
		return l, src, apperr.Invalid(op, "Ce registre est déjà verrouillé.")
	}
	l.IsLocked = true
	l.Signature = signature

	src, err = s.repo.UpsertDailyLog(ctx, l)
	if err != nil {
		return models.DailyLog{}, src, err
	}
	return l, src, nil
}
