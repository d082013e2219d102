package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/models"

	"go.uber.org/zap"
)

// MovementMirrorCap: yerel kopyada tutulan en fazla hareket sayısı
const MovementMirrorCap = 50

// Source: verinin nereden geldiği
type Source int

const (
	SourceLive   Source = iota // uzak depo cevap verdi
	SourceCached               // uzak depo yok/erişilemedi, yerel kopya kullanıldı
	SourceFailed               // iki katman da başarısız
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceCached:
		return "cached"
	default:
		return "failed"
	}
}

func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result: list() sonucu. Err, düşüş varsa uzak depo hatasıdır.
type Result[T any] struct {
	Data   []T
	Source Source
	Err    error
}

// Remote: uzak depo (remote.Adapter bunu sağlar)
type Remote interface {
	Configured() bool
	Ping(ctx context.Context) error

	ListDailyLogs(ctx context.Context) ([]models.DailyLog, error)
	UpsertDailyLog(ctx context.Context, l models.DailyLog) error

	ListTraceability(ctx context.Context) ([]models.TraceabilityRecord, error)
	UpsertTraceability(ctx context.Context, rec models.TraceabilityRecord) error
	DeleteTraceability(ctx context.Context, id string) error

	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
	UpsertInventoryItem(ctx context.Context, item models.InventoryItem) error

	ListMovements(ctx context.Context, limit int) ([]models.StockMovement, error)
	InsertMovement(ctx context.Context, mov models.StockMovement) error
	ApplyMovement(ctx context.Context, item models.InventoryItem, mov models.StockMovement, created bool) error

	UploadPhoto(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type Options struct {
	Timeout       time.Duration // her uzak çağrı için
	MovementLimit int           // uzaktan okunan hareket sayısı
}

// Repository: uzak depo + yerel kopya. Her mutasyon önce yerel kopyaya yazılır,
// sonra uzak depoya bir kez denenir. Uzak hata yerel yazımı geri almaz.
type Repository struct {
	remote Remote
	mirror mirror.Store
	log    *zap.Logger
	opts   Options

	// yerel kopyadaki oku-değiştir-yaz döngüleri
	mu sync.Mutex
}

func New(remote Remote, m mirror.Store, log *zap.Logger, opts Options) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.MovementLimit <= 0 {
		opts.MovementLimit = 30
	}
	return &Repository{remote: remote, mirror: m, log: log, opts: opts}
}

func (r *Repository) remoteReady() bool {
	return r.remote != nil && r.remote.Configured()
}

// IsAvailable: uzak depo tanımlı ve cevap veriyor mu? Sadece bağlantı göstergesi için.
func (r *Repository) IsAvailable(ctx context.Context) bool {
	if !r.remoteReady() {
		return false
	}
	rctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	return r.remote.Ping(rctx) == nil
}

// RemoteConfigured: uzak depo hiç tanımlanmış mı?
func (r *Repository) RemoteConfigured() bool {
	return r.remoteReady()
}

func (r *Repository) logRemoteFailure(op string, err error) {
	if apperr.KindOf(err) == apperr.KindSchema {
		r.log.Error("uzak şema eksik, 'migrate' komutu çalıştırılmalı", zap.String("op", op), zap.Error(err))
		return
	}
	r.log.Warn("uzak depo işlemi başarısız, yerel kopya kullanılıyor", zap.String("op", op), zap.Error(err))
}

// list: önce uzak depo, olmazsa yerel kopyanın aynısı, o da olmazsa boş liste
func list[T any](ctx context.Context, r *Repository, key string, fetch func(context.Context) ([]T, error)) Result[T] {
	op := "list " + key
	var remoteErr error
	if r.remoteReady() {
		rctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		data, err := fetch(rctx)
		cancel()
		if err == nil {
			if data == nil {
				data = []T{}
			}
			return Result[T]{Data: data, Source: SourceLive}
		}
		remoteErr = apperr.Classify(op, err)
		r.logRemoteFailure(op, remoteErr)
	} else {
		remoteErr = apperr.E(apperr.KindNotConfigured, op, nil)
	}

	local, err := mirror.Load[T](ctx, r.mirror, key)
	if err != nil {
		r.log.Error("yerel kopya okunamadı", zap.String("key", key), zap.Error(err))
		return Result[T]{Data: []T{}, Source: SourceFailed, Err: remoteErr}
	}
	return Result[T]{Data: local, Source: SourceCached, Err: remoteErr}
}

// mutateMirror: mevcut list() sonucunu değiştirip yerel kopyaya yazar
func mutateMirror[T any](ctx context.Context, r *Repository, key string, current Result[T], change func([]T) []T) error {
	if current.Source == SourceFailed {
		return apperr.E(apperr.KindUnavailable, "mirror "+key, errors.New("yerel kopya okunamadı"))
	}
	next := change(append([]T(nil), current.Data...))
	if err := mirror.Save(ctx, r.mirror, key, next); err != nil {
		return apperr.E(apperr.KindUnavailable, "mirror "+key, err)
	}
	return nil
}

// push: uzak depoya tek deneme
func (r *Repository) push(ctx context.Context, op string, fn func(context.Context) error) Source {
	if !r.remoteReady() {
		return SourceCached
	}
	rctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	if err := fn(rctx); err != nil {
		r.logRemoteFailure(op, apperr.Classify(op, err))
		return SourceCached
	}
	return SourceLive
}

// --- Günlük kayıtlar (doğal anahtar: tarih) ---

func (r *Repository) ListDailyLogs(ctx context.Context) Result[models.DailyLog] {
	return list(ctx, r, mirror.KeyDailyLogs, r.remoteListDailyLogs)
}

func (r *Repository) remoteListDailyLogs(ctx context.Context) ([]models.DailyLog, error) {
	return r.remote.ListDailyLogs(ctx)
}

// UpsertDailyLog: aynı tarihli kayıt varsa değiştirir, yoksa başa ekler
func (r *Repository) UpsertDailyLog(ctx context.Context, l models.DailyLog) (Source, error) {
	r.mu.Lock()
	err := mutateMirror(ctx, r, mirror.KeyDailyLogs, r.ListDailyLogs(ctx), func(logs []models.DailyLog) []models.DailyLog {
		for i := range logs {
			if logs[i].Date == l.Date {
				logs[i] = l
				return logs
			}
		}
		return append([]models.DailyLog{l}, logs...)
	})
	r.mu.Unlock()
	if err != nil {
		return SourceFailed, err
	}
	return r.push(ctx, "upsert daily log", func(ctx context.Context) error {
		return r.remote.UpsertDailyLog(ctx, l)
	}), nil
}

// --- Traçabilité ---

func (r *Repository) ListTraceability(ctx context.Context) Result[models.TraceabilityRecord] {
	return list(ctx, r, mirror.KeyTraceability, r.remoteListTraceability)
}

func (r *Repository) remoteListTraceability(ctx context.Context) ([]models.TraceabilityRecord, error) {
	return r.remote.ListTraceability(ctx)
}

func (r *Repository) UpsertTraceability(ctx context.Context, rec models.TraceabilityRecord) (Source, error) {
	r.mu.Lock()
	err := mutateMirror(ctx, r, mirror.KeyTraceability, r.ListTraceability(ctx), func(recs []models.TraceabilityRecord) []models.TraceabilityRecord {
		for i := range recs {
			if recs[i].ID == rec.ID {
				recs[i] = rec
				return recs
			}
		}
		return append([]models.TraceabilityRecord{rec}, recs...)
	})
	r.mu.Unlock()
	if err != nil {
		return SourceFailed, err
	}
	return r.push(ctx, "upsert traceability", func(ctx context.Context) error {
		return r.remote.UpsertTraceability(ctx, rec)
	}), nil
}

func (r *Repository) DeleteTraceability(ctx context.Context, id string) (Source, error) {
	r.mu.Lock()
	err := mutateMirror(ctx, r, mirror.KeyTraceability, r.ListTraceability(ctx), func(recs []models.TraceabilityRecord) []models.TraceabilityRecord {
		out := recs[:0]
		for _, rec := range recs {
			if rec.ID != id {
				out = append(out, rec)
			}
		}
		return out
	})
	r.mu.Unlock()
	if err != nil {
		return SourceFailed, err
	}
	return r.push(ctx, "delete traceability", func(ctx context.Context) error {
		return r.remote.DeleteTraceability(ctx, id)
	}), nil
}

// --- Stok ---

func (r *Repository) ListInventory(ctx context.Context) Result[models.InventoryItem] {
	return list(ctx, r, mirror.KeyInventory, r.remoteListInventory)
}

func (r *Repository) remoteListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	return r.remote.ListInventory(ctx)
}

func upsertItem(items []models.InventoryItem, item models.InventoryItem) []models.InventoryItem {
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func prependMovement(movs []models.StockMovement, mov models.StockMovement) []models.StockMovement {
	for i := range movs {
		if movs[i].ID == mov.ID {
			movs[i] = mov
			return movs
		}
	}
	movs = append([]models.StockMovement{mov}, movs...)
	if len(movs) > MovementMirrorCap {
		movs = movs[:MovementMirrorCap]
	}
	return movs
}

// UpsertInventoryItem: yeni kalem sona eklenir
func (r *Repository) UpsertInventoryItem(ctx context.Context, item models.InventoryItem) (Source, error) {
	r.mu.Lock()
	err := mutateMirror(ctx, r, mirror.KeyInventory, r.ListInventory(ctx), func(items []models.InventoryItem) []models.InventoryItem {
		return upsertItem(items, item)
	})
	r.mu.Unlock()
	if err != nil {
		return SourceFailed, err
	}
	return r.push(ctx, "upsert inventory item", func(ctx context.Context) error {
		return r.remote.UpsertInventoryItem(ctx, item)
	}), nil
}

func (r *Repository) ListMovements(ctx context.Context) Result[models.StockMovement] {
	return list(ctx, r, mirror.KeyMovements, r.remoteListMovements)
}

func (r *Repository) remoteListMovements(ctx context.Context) ([]models.StockMovement, error) {
	return r.remote.ListMovements(ctx, r.opts.MovementLimit)
}

// UpsertMovement: başa eklenir, yerel kopya MovementMirrorCap ile sınırlıdır
func (r *Repository) UpsertMovement(ctx context.Context, mov models.StockMovement) (Source, error) {
	r.mu.Lock()
	err := mutateMirror(ctx, r, mirror.KeyMovements, r.ListMovements(ctx), func(movs []models.StockMovement) []models.StockMovement {
		return prependMovement(movs, mov)
	})
	r.mu.Unlock()
	if err != nil {
		return SourceFailed, err
	}
	return r.push(ctx, "insert movement", func(ctx context.Context) error {
		return r.remote.InsertMovement(ctx, mov)
	}), nil
}

// SaveMovement: kalemin yeni hali + hareket yerel kopyaya yazılır, uzakta tek transaction
func (r *Repository) SaveMovement(ctx context.Context, item models.InventoryItem, mov models.StockMovement, created bool) (Source, error) {
	r.mu.Lock()
	err := mutateMirror(ctx, r, mirror.KeyInventory, r.ListInventory(ctx), func(items []models.InventoryItem) []models.InventoryItem {
		return upsertItem(items, item)
	})
	if err == nil {
		err = mutateMirror(ctx, r, mirror.KeyMovements, r.ListMovements(ctx), func(movs []models.StockMovement) []models.StockMovement {
			return prependMovement(movs, mov)
		})
	}
	r.mu.Unlock()
	if err != nil {
		return SourceFailed, err
	}
	return r.push(ctx, "apply movement", func(ctx context.Context) error {
		return r.remote.ApplyMovement(ctx, item, mov, created)
	}), nil
}

// --- Fotoğraflar ---

// UploadPhoto: uzak depoya yükler; olmazsa fotoğraf data: URL olarak kayda gömülür
func (r *Repository) UploadPhoto(ctx context.Context, name, contentType string, data []byte) (string, Source) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if r.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		url, err := r.remote.UploadPhoto(rctx, name, contentType, data)
		cancel()
		if err == nil {
			return url, SourceLive
		}
		r.log.Warn("fotoğraf yüklenemedi, kayda gömülüyor", zap.String("name", name), zap.Error(err))
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), SourceCached
}
