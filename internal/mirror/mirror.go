package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Koleksiyon başına sabit anahtarlar
const (
	KeyDailyLogs    = "haccp_logs"
	KeyTraceability = "haccp_traceability"
	KeyInventory    = "haccp_inventory"
	KeyMovements    = "haccp_movements"
)

// Store: yerel yedek kopya. Get, anahtar yoksa (nil, nil) döner.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Load: koleksiyonun tamamını okur; kayıt yoksa boş slice döner
func Load[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("yerel kopya okunamadı (%s): %w", key, err)
	}
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("yerel kopya çözümlenemedi (%s): %w", key, err)
	}
	return out, nil
}

// Save: koleksiyonun tamamını yazar
func Save[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("yerel kopya serileştirilemedi (%s): %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("yerel kopya yazılamadı (%s): %w", key, err)
	}
	return nil
}

// MemoryStore: süreç içi Store (testler için)
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
