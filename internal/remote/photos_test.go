package remote

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "etiquette_saumon.jpg", SanitizeFileName("etiquette saumon.jpg"))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "photo", SanitizeFileName("   "))
	assert.Equal(t, "photo", SanitizeFileName(".."))
}

func TestPhotoStoreUpload(t *testing.T) {
	dir := t.TempDir()
	p := NewPhotoStore(dir, "/photos/")
	p.now = func() time.Time { return time.UnixMilli(1717228800000) }

	url, err := p.Upload(context.Background(), "lot 42.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/photos/trace-1717228800000-lot_42.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "trace-1717228800000-lot_42.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestPhotoStoreRejectsEmptyFile(t *testing.T) {
	p := NewPhotoStore(t.TempDir(), "/photos")
	_, err := p.Upload(context.Background(), "a.jpg", "image/jpeg", nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Fichier vide"))
}

func TestPhotoStoreWithoutDir(t *testing.T) {
	p := NewPhotoStore("", "/photos")
	_, err := p.Upload(context.Background(), "a.jpg", "image/jpeg", []byte{1})
	assert.Error(t, err)
}
