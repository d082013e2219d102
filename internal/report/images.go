package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	maxImageBytes   = 15 << 20
	maxImagePixels  = 40_000_000
	fetchParallel   = 4
	jpegQuality     = 85
	defaultFetchTTL = 15 * time.Second
)

// Photo: PDF'e gömülmeye hazır resim ve fpdf tipi ("JPG" ya da "PNG")
type Photo struct {
	Data []byte
	Type string
}

// ImageFetcher: rapora gömülecek fotoğrafları toplar
type ImageFetcher struct {
	client       *http.Client
	localPrefix  string // ör: "/photos"
	localDir     string // localPrefix altındaki dosyaların klasörü
	remotePrefix string // ör: "https://cdn.exemple.fr/photos"; başka adreslerden indirme yapılmaz
	log          *zap.Logger
}

// NewImageFetcher: photoBaseURL "/" ile başlıyorsa fotoğraflar localDir'den okunur,
// http(s) ise sadece bu önek altındaki adresler indirilir.
func NewImageFetcher(timeout time.Duration, photoBaseURL, localDir string, log *zap.Logger) *ImageFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	f := &ImageFetcher{
		client:   &http.Client{Timeout: timeout},
		localDir: localDir,
		log:      log,
	}
	base := strings.TrimRight(photoBaseURL, "/")
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		f.remotePrefix = base
	} else {
		f.localPrefix = base
	}
	return f
}

// FetchAll: her ref için gömülebilir resim; alınamayan fotoğrafın Data'sı nil kalır, rapor etkilenmez
func (f *ImageFetcher) FetchAll(ctx context.Context, refs []string) []Photo {
	out := make([]Photo, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallel)
	for i, ref := range refs {
		g.Go(func() error {
			p, err := f.Load(gctx, ref)
			if err != nil {
				f.log.Warn("fotoğraf rapora eklenemedi, atlanıyor", zap.String("ref", shortRef(ref)), zap.Error(err))
				return nil
			}
			out[i] = p
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func shortRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}

// Load: data: URL, yerel fotoğraf ya da izin verilen uzak adres
func (f *ImageFetcher) Load(ctx context.Context, ref string) (Photo, error) {
	var raw []byte
	var err error
	switch {
	case strings.HasPrefix(ref, "data:"):
		raw, err = decodeDataURL(ref)
	case f.localPrefix != "" && strings.HasPrefix(ref, f.localPrefix+"/"):
		raw, err = f.readLocal(strings.TrimPrefix(ref, f.localPrefix+"/"))
	case f.remotePrefix != "" && strings.HasPrefix(ref, f.remotePrefix+"/"):
		raw, err = f.download(ctx, ref)
	default:
		err = errors.New("izin verilmeyen fotoğraf adresi")
	}
	if err != nil {
		return Photo{}, err
	}
	return Prepare(raw)
}

func decodeDataURL(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, errors.New("data URL virgül içermiyor")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data URL base64 değil")
	}
	if len(payload) > base64.StdEncoding.EncodedLen(maxImageBytes) {
		return nil, errors.New("fotoğraf çok büyük")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL çözülemedi: %w", err)
	}
	return data, nil
}

func (f *ImageFetcher) readLocal(name string) ([]byte, error) {
	name, err := url.PathUnescape(name)
	if err != nil {
		return nil, err
	}
	if name != filepath.Base(name) {
		return nil, errors.New("geçersiz dosya adı")
	}
	path := filepath.Join(f.localDir, name)
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.Size() > maxImageBytes {
		return nil, errors.New("fotoğraf çok büyük")
	}
	return os.ReadFile(path)
}

func (f *ImageFetcher) download(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP isteği oluşturulamadı: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP isteği başarısız: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP hatası: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fotoğraf okunamadı: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, errors.New("fotoğraf çok büyük")
	}
	return data, nil
}

// inspect: başlığı okur, piksel sayısı sınırı aşan resimleri çözmeden reddeder
func inspect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("boş fotoğraf")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("fotoğraf çözülemedi: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", fmt.Errorf("fotoğraf boyutu kabul edilmiyor: %dx%d", cfg.Width, cfg.Height)
	}
	return format, nil
}

// embeddablePNG: fpdf 16 bit ve interlaced PNG okuyamaz (IHDR: bit derinliği 24, interlace 28. bayt)
func embeddablePNG(data []byte) bool {
	return len(data) > 28 && data[24] <= 8 && data[28] == 0
}

// Prepare: JPEG ve fpdf'in okuyabildiği PNG'ler olduğu gibi, diğerleri JPEG'e çevrilerek döner
func Prepare(data []byte) (Photo, error) {
	format, err := inspect(data)
	if err != nil {
		return Photo{}, err
	}
	switch {
	case format == "jpeg":
		return Photo{Data: data, Type: "JPG"}, nil
	case format == "png" && embeddablePNG(data):
		return Photo{Data: data, Type: "PNG"}, nil
	}
	out, err := encodeJPEG(data)
	if err != nil {
		return Photo{}, err
	}
	return Photo{Data: out, Type: "JPG"}, nil
}

func encodeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fotoğraf çözülemedi: %w", err)
	}
	b := img.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, b, img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("JPEG yazılamadı: %w", err)
	}
	return buf.Bytes(), nil
}
