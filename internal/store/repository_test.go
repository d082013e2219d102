package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/mirror"
	"haccp-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeRemote: bellek içi uzak depo; err doluysa her çağrı o hatayla düşer
type fakeRemote struct {
	mu         sync.Mutex
	configured bool
	err        error
	block      bool // ctx bitene kadar bekle

	logs   []models.DailyLog
	recs   []models.TraceabilityRecord
	items  []models.InventoryItem
	movs   []models.StockMovement
	photos map[string][]byte

	applied []models.StockMovement
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{configured: true, photos: map[string][]byte{}}
}

func (f *fakeRemote) call(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeRemote) Configured() bool { return f.configured }

func (f *fakeRemote) Ping(ctx context.Context) error { return f.call(ctx) }

func (f *fakeRemote) ListDailyLogs(ctx context.Context) ([]models.DailyLog, error) {
	if err := f.call(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DailyLog(nil), f.logs...), nil
}

func (f *fakeRemote) UpsertDailyLog(ctx context.Context, l models.DailyLog) error {
	if err := f.call(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.logs {
		if f.logs[i].Date == l.Date {
			f.logs[i] = l
			return nil
		}
	}
	f.logs = append([]models.DailyLog{l}, f.logs...)
	return nil
}

func (f *fakeRemote) ListTraceability(ctx context.Context) ([]models.TraceabilityRecord, error) {
	if err := f.call(ctx); err != nil {
		return nil, err
	}
	return append([]models.TraceabilityRecord(nil), f.recs...), nil
}

func (f *fakeRemote) UpsertTraceability(ctx context.Context, rec models.TraceabilityRecord) error {
	if err := f.call(ctx); err != nil {
		return err
	}
	f.recs = append([]models.TraceabilityRecord{rec}, f.recs...)
	return nil
}

func (f *fakeRemote) DeleteTraceability(ctx context.Context, id string) error {
	if err := f.call(ctx); err != nil {
		return err
	}
	out := f.recs[:0]
	for _, r := range f.recs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	f.recs = out
	return nil
}

func (f *fakeRemote) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	if err := f.call(ctx); err != nil {
		return nil, err
	}
	return append([]models.InventoryItem(nil), f.items...), nil
}

func (f *fakeRemote) UpsertInventoryItem(ctx context.Context, item models.InventoryItem) error {
	if err := f.call(ctx); err != nil {
		return err
	}
	f.items = upsertItem(f.items, item)
	return nil
}

func (f *fakeRemote) ListMovements(ctx context.Context, limit int) ([]models.StockMovement, error) {
	if err := f.call(ctx); err != nil {
		return nil, err
	}
	if len(f.movs) > limit {
		return append([]models.StockMovement(nil), f.movs[:limit]...), nil
	}
	return append([]models.StockMovement(nil), f.movs...), nil
}

func (f *fakeRemote) InsertMovement(ctx context.Context, mov models.StockMovement) error {
	if err := f.call(ctx); err != nil {
		return err
	}
	f.movs = append([]models.StockMovement{mov}, f.movs...)
	return nil
}

func (f *fakeRemote) ApplyMovement(ctx context.Context, item models.InventoryItem, mov models.StockMovement, _ bool) error {
	if err := f.call(ctx); err != nil {
		return err
	}
	f.items = upsertItem(f.items, item)
	f.movs = append([]models.StockMovement{mov}, f.movs...)
	f.applied = append(f.applied, mov)
	return nil
}

func (f *fakeRemote) UploadPhoto(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := f.call(ctx); err != nil {
		return "", err
	}
	f.photos[name] = data
	return "/photos/" + name, nil
}

// brokenMirror: her okuma/yazma hata verir
type brokenMirror struct{}

func (brokenMirror) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk dolu") }
func (brokenMirror) Set(context.Context, string, []byte) error   { return errors.New("disk dolu") }

func newRepo(remote Remote, m mirror.Store) *Repository {
	return New(remote, m, zap.NewNop(), Options{Timeout: time.Second, MovementLimit: 30})
}

func TestListFallsBackToExactMirrorSnapshot(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryStore()
	snapshot := []models.DailyLog{
		{ID: "2", Date: "2024-06-02", Items: []models.CheckItem{{ID: "a", Label: "Frigo", Category: models.CategoryTemperature}}},
		{ID: "1", Date: "2024-06-01", IsLocked: true, Signature: "Chef"},
	}
	require.NoError(t, mirror.Save(ctx, m, mirror.KeyDailyLogs, snapshot))

	remote := newFakeRemote()
	remote.err = errors.New("connection refused")
	res := newRepo(remote, m).ListDailyLogs(ctx)

	assert.Equal(t, SourceCached, res.Source)
	assert.Equal(t, snapshot, res.Data)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(res.Err))
}

func TestListNotConfiguredUsesMirror(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryStore()
	remote := newFakeRemote()
	remote.configured = false

	res := newRepo(remote, m).ListInventory(ctx)
	assert.Equal(t, SourceCached, res.Source)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, apperr.KindNotConfigured, apperr.KindOf(res.Err))

	res = newRepo(nil, m).ListInventory(ctx)
	assert.Equal(t, SourceCached, res.Source)
}

func TestListBothTiersFailed(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("boom")
	res := newRepo(remote, brokenMirror{}).ListTraceability(context.Background())
	assert.Equal(t, SourceFailed, res.Source)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestListLiveDoesNotTouchMirror(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryStore()
	remote := newFakeRemote()
	remote.logs = []models.DailyLog{{ID: "r", Date: "2024-06-03"}}

	res := newRepo(remote, m).ListDailyLogs(ctx)
	assert.Equal(t, SourceLive, res.Source)
	assert.NoError(t, res.Err)
	require.Len(t, res.Data, 1)

	raw, err := m.Get(ctx, mirror.KeyDailyLogs)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestUpsertSurvivesRemoteFailure(t *testing.T) {
	ctx := context.Background()
	m := mirror.NewMemoryStore()
	remote := newFakeRemote()
	remote.err = &pgconn.PgError{Code: apperr.PgErrUndefinedTable, Message: `relation "haccp_logs" does not exist`}
	repo := newRepo(remote, m)

	log := models.DailyLog{ID: "x", Date: "2024-06-01"}
	src, err := repo.UpsertDailyLog(ctx, log)
	require.NoError(t, err)
	assert.Equal(t, SourceCached, src)

	res := repo.ListDailyLogs(ctx)
	assert.Equal(t, SourceCached, res.Source)
	assert.Equal(t, apperr.KindSchema, apperr.KindOf(res.Err))
	assert.Equal(t, []models.DailyLog{log}, res.Data)
}

func TestUpsertReplacesByNaturalKey(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.configured = false
	repo := newRepo(remote, mirror.NewMemoryStore())

	_, err := repo.UpsertDailyLog(ctx, models.DailyLog{ID: "a", Date: "2024-06-01"})
	require.NoError(t, err)
	_, err = repo.UpsertDailyLog(ctx, models.DailyLog{ID: "b", Date: "2024-06-02"})
	require.NoError(t, err)
	_, err = repo.UpsertDailyLog(ctx, models.DailyLog{ID: "a", Date: "2024-06-01", IsLocked: true})
	require.NoError(t, err)

	res := repo.ListDailyLogs(ctx)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "2024-06-02", res.Data[0].Date)
	assert.True(t, res.Data[1].IsLocked)
}

func TestUpsertLiveReachesRemote(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	repo := newRepo(remote, mirror.NewMemoryStore())

	item := models.InventoryItem{ID: "i1", Name: "Beurre", CurrentQuantity: decimal.NewFromInt(3), Unit: "kg"}
	src, err := repo.UpsertInventoryItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)
	require.Len(t, remote.items, 1)

	// Yerel kopya da yazılmış olmalı
	local, err := mirror.Load[models.InventoryItem](ctx, repo.mirror, mirror.KeyInventory)
	require.NoError(t, err)
	assert.Len(t, local, 1)
}

func TestUpsertMirrorFailureIsReported(t *testing.T) {
	remote := newFakeRemote()
	remote.configured = false
	src, err := newRepo(remote, brokenMirror{}).UpsertTraceability(context.Background(), models.TraceabilityRecord{ID: "r"})
	require.Error(t, err)
	assert.Equal(t, SourceFailed, src)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestDeleteTraceability(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.err = errors.New("offline")
	repo := newRepo(remote, mirror.NewMemoryStore())

	for _, id := range []string{"a", "b"} {
		_, err := repo.UpsertTraceability(ctx, models.TraceabilityRecord{ID: id, ItemName: id})
		require.NoError(t, err)
	}
	src, err := repo.DeleteTraceability(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, SourceCached, src)

	res := repo.ListTraceability(ctx)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "b", res.Data[0].ID)
}

func TestMovementsMirrorIsCapped(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.configured = false
	repo := newRepo(remote, mirror.NewMemoryStore())

	for i := 0; i < MovementMirrorCap+5; i++ {
		_, err := repo.UpsertMovement(ctx, models.StockMovement{ID: fmt.Sprintf("m%02d", i), Type: models.MovementIn, Quantity: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}
	res := repo.ListMovements(ctx)
	require.Len(t, res.Data, MovementMirrorCap)
	assert.Equal(t, fmt.Sprintf("m%02d", MovementMirrorCap+4), res.Data[0].ID)
}

func TestSaveMovementWritesBothCollections(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	repo := newRepo(remote, mirror.NewMemoryStore())

	item := models.InventoryItem{ID: "i1", Name: "Tomate", CurrentQuantity: decimal.NewFromInt(5), Unit: "kg"}
	mov := models.StockMovement{ID: "m1", ItemID: "i1", ItemName: "Tomate", Type: models.MovementIn, Quantity: decimal.NewFromInt(5)}
	src, err := repo.SaveMovement(ctx, item, mov, true)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)
	assert.Len(t, remote.applied, 1)

	remote.err = errors.New("offline")
	assert.Len(t, repo.ListInventory(ctx).Data, 1)
	assert.Len(t, repo.ListMovements(ctx).Data, 1)
}

func TestRemoteCallsAreBoundedByTimeout(t *testing.T) {
	remote := newFakeRemote()
	remote.block = true
	repo := New(remote, mirror.NewMemoryStore(), zap.NewNop(), Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	res := repo.ListDailyLogs(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, SourceCached, res.Source)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(res.Err))
	assert.False(t, repo.IsAvailable(context.Background()))
}

func TestSchemaFailureIsLoggedDistinctly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	remote := newFakeRemote()
	remote.err = &pgconn.PgError{Code: apperr.PgErrUndefinedTable}
	repo := New(remote, mirror.NewMemoryStore(), zap.New(core), Options{Timeout: time.Second})

	repo.ListMovements(context.Background())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)

	remote.err = errors.New("dial tcp: refused")
	repo.ListMovements(context.Background())
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestIsAvailable(t *testing.T) {
	remote := newFakeRemote()
	repo := newRepo(remote, mirror.NewMemoryStore())
	assert.True(t, repo.IsAvailable(context.Background()))

	remote.configured = false
	assert.False(t, repo.IsAvailable(context.Background()))
}

func TestUploadPhotoFallsBackToDataURL(t *testing.T) {
	remote := newFakeRemote()
	repo := newRepo(remote, mirror.NewMemoryStore())

	url, src := repo.UploadPhoto(context.Background(), "a.jpg", "image/jpeg", []byte("abc"))
	assert.Equal(t, SourceLive, src)
	assert.Equal(t, "/photos/a.jpg", url)

	remote.err = errors.New("offline")
	url, src = repo.UploadPhoto(context.Background(), "a.jpg", "image/jpeg", []byte("abc"))
	assert.Equal(t, SourceCached, src)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", url)

	url, _ = repo.UploadPhoto(context.Background(), "a.png", "", []byte("\x89PNG\r\n\x1a\n0000"))
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)
}
