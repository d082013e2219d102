package remote

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"haccp-backend/internal/apperr"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PhotoStore: traçabilité fotoğraflarını klasöre yazar, herkese açık URL döner
type PhotoStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewPhotoStore(dir, baseURL string) *PhotoStore {
	return &PhotoStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (p *PhotoStore) Dir() string { return p.dir }

// Upload: dosya adı "trace-<unix ms>-<temizlenmiş ad>" olur
func (p *PhotoStore) Upload(ctx context.Context, name, _ string, data []byte) (string, error) {
	const op = "upload photo"
	if p.dir == "" {
		return "", apperr.E(apperr.KindNotConfigured, op, nil)
	}
	if err := ctx.Err(); err != nil {
		return "", apperr.Classify(op, err)
	}
	if len(data) == 0 {
		return "", apperr.Invalid(op, "Fichier vide")
	}

	fileName := fmt.Sprintf("trace-%d-%s", p.now().UnixMilli(), SanitizeFileName(name))

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", apperr.E(apperr.KindUnavailable, op, fmt.Errorf("klasör oluşturulamadı: %w", err))
	}
	if err := os.WriteFile(filepath.Join(p.dir, fileName), data, 0o644); err != nil {
		return "", apperr.E(apperr.KindUnavailable, op, fmt.Errorf("fotoğraf yazılamadı: %w", err))
	}

	return p.baseURL + "/" + url.PathEscape(fileName), nil
}

// SanitizeFileName: boşluklar "_" olur, dizin kısmı ve güvensiz karakterler atılır
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "photo"
	}
	return name
}
