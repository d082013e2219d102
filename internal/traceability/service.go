package traceability

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/models"
	"haccp-backend/internal/report"
	"haccp-backend/internal/store"

	"github.com/google/uuid"
)

type Repository interface {
	ListTraceability(ctx context.Context) store.Result[models.TraceabilityRecord]
	UpsertTraceability(ctx context.Context, rec models.TraceabilityRecord) (store.Source, error)
	DeleteTraceability(ctx context.Context, id string) (store.Source, error)
	UploadPhoto(ctx context.Context, name, contentType string, data []byte) (string, store.Source)
}

type NewRecord struct {
	ItemName   string `json:"itemName"`
	LotNumber  string `json:"lotNumber"`
	ExpiryDate string `json:"expiryDate"` // "2006-01-02"
	PhotoURL   string `json:"photoUrl"`
}

// DayGroup: aynı takvim gününe ait kayıtlar
type DayGroup struct {
	Day     string                      `json:"day"`
	Records []models.TraceabilityRecord `json:"records"`
}

const (
	maxPhotoBytes    = 10 << 20
	maxPhotoURLBytes = (maxPhotoBytes+2)/3*4 + 64 // base64 + "data:image/xxx;base64," öneki
)

type Options struct {
	// Location: ay ve gün gruplamasının yapıldığı saat dilimi (raporla aynı)
	Location *time.Location
	// PhotoBaseURL: kabul edilen fotoğraf adreslerinin öneki ("/photos" ya da https://...)
	PhotoBaseURL string
}

type Service struct {
	repo      Repository
	now       func() time.Time
	loc       *time.Location
	photoBase string
}

func NewService(repo Repository, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		repo:      repo,
		now:       time.Now,
		loc:       opts.Location,
		photoBase: strings.TrimRight(opts.PhotoBaseURL, "/"),
	}
}

// checkPhotoURL: sadece yüklenmiş fotoğraflar (photoBase altı) ya da sınırlı boyutta data:image URL'leri
func (s *Service) checkPhotoURL(op, ref string) error {
	switch {
	case ref == "":
		return nil
	case strings.HasPrefix(ref, "data:image/"):
		if len(ref) > maxPhotoURLBytes {
			return apperr.Invalid(op, "Photo trop volumineuse (10 Mo maximum)")
		}
		return nil
	case s.photoBase != "" && strings.HasPrefix(ref, s.photoBase+"/"):
		// yüklenen dosyalar tek seviyede durur
		name := strings.TrimPrefix(ref, s.photoBase+"/")
		if name != "" && name != ".." && !strings.ContainsAny(name, "/\\") {
			return nil
		}
	}
	return apperr.Invalid(op, "Adresse de photo non autorisée")
}

// Create: ürün adı ve DLC zorunlu; lot girilmezse "Non spécifié"
func (s *Service) Create(ctx context.Context, in NewRecord) (models.TraceabilityRecord, store.Source, error) {
	const op = "create traceability"
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.LotNumber = strings.TrimSpace(in.LotNumber)
	in.ExpiryDate = strings.TrimSpace(in.ExpiryDate)

	if in.ItemName == "" {
		return models.TraceabilityRecord{}, store.SourceFailed, apperr.Invalid(op, "Le nom du produit est obligatoire.")
	}
	if in.ExpiryDate == "" {
		return models.TraceabilityRecord{}, store.SourceFailed, apperr.Invalid(op, "La DLC est obligatoire.")
	}
	if _, err := time.Parse("2006-01-02", in.ExpiryDate); err != nil {
		return models.TraceabilityRecord{}, store.SourceFailed, apperr.Invalid(op, "Format de DLC attendu : AAAA-MM-JJ")
	}
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
	if err := s.checkPhotoURL(op, in.PhotoURL); err != nil {
		return models.TraceabilityRecord{}, store.SourceFailed, err
	}
	if in.LotNumber == "" {
		in.LotNumber = models.LotNotSpecified
	}

	rec := models.TraceabilityRecord{
		ID:         uuid.NewString(),
		Date:       s.now(),
		ItemName:   in.ItemName,
		LotNumber:  in.LotNumber,
		ExpiryDate: in.ExpiryDate,
		PhotoURL:   in.PhotoURL,
	}
	src, err := s.repo.UpsertTraceability(ctx, rec)
	if err != nil {
		return models.TraceabilityRecord{}, src, err
	}
	return rec, src, nil
}

// List: en yeni kayıt başta; month ("2006-01") boş değilse o aya göre süzülür
func (s *Service) List(ctx context.Context, month string) (store.Result[models.TraceabilityRecord], error) {
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return store.Result[models.TraceabilityRecord]{}, apperr.Invalid("list traceability", "Format de mois attendu : AAAA-MM")
		}
	}
	res := s.repo.ListTraceability(ctx)
	if month != "" {
		res.Data = report.FilterMonth(res.Data, month, s.loc)
	}
	sort.SliceStable(res.Data, func(i, j int) bool { return res.Data[i].Date.After(res.Data[j].Date) })
	return res, nil
}

// GroupByDay: kayıtları loc saat dilimindeki güne göre gruplar, en yeni gün başta
func GroupByDay(records []models.TraceabilityRecord, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	byDay := make(map[string][]models.TraceabilityRecord)
	for _, r := range records {
		day := r.Date.In(loc).Format("2006-01-02")
		byDay[day] = append(byDay[day], r)
	}

	groups := make([]DayGroup, 0, len(byDay))
	for day, recs := range byDay {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
		groups = append(groups, DayGroup{Day: day, Records: recs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Day > groups[j].Day })
	return groups
}

// Delete: kaydı siler ve silinen hali döner (audit için)
func (s *Service) Delete(ctx context.Context, id string) (models.TraceabilityRecord, store.Source, error) {
	const op = "delete traceability"
	var found *models.TraceabilityRecord
	for _, r := range s.repo.ListTraceability(ctx).Data {
		if r.ID == id {
			r := r
			found = &r
			break
		}
	}
	if found == nil {
		return models.TraceabilityRecord{}, store.SourceFailed, apperr.E(apperr.KindNotFound, op, errors.New("Enregistrement introuvable"))
	}

	src, err := s.repo.DeleteTraceability(ctx, id)
	if err != nil {
		return models.TraceabilityRecord{}, src, err
	}
	return *found, src, nil
}

// UploadPhoto: sadece resim dosyaları kabul edilir
func (s *Service) UploadPhoto(ctx context.Context, name, contentType string, data []byte) (string, store.Source, error) {
	if len(data) == 0 {
		return "", store.SourceFailed, apperr.Invalid("upload photo", "Fichier vide")
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return "", store.SourceFailed, apperr.Invalid("upload photo", "Seules les images sont acceptées")
	}
	url, src := s.repo.UploadPhoto(ctx, name, contentType, data)
	return url, src, nil
}
