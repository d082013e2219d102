package checklist

import (
	_ "embed"
	"fmt"

	"haccp-backend/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed template.yaml
var templateYAML []byte

type categoryLabel struct {
	ID    models.Category `yaml:"id"`
	Label string          `yaml:"label"`
}

// Template: yeni günlerin kopyalandığı kontrol maddeleri + kategori başlıkları
type Template struct {
	Categories []categoryLabel     `yaml:"categories"`
	Items      []models.CheckItem `yaml:"items"`
}

var defaultTemplate = mustLoadTemplate()

func mustLoadTemplate() *Template {
	t, err := ParseTemplate(templateYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTemplate: YAML şablonu okur ve kategori/id tutarlılığını kontrol eder
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("kontrol listesi şablonu okunamadı: %w", err)
	}
	seen := make(map[string]bool, len(t.Items))
	for _, it := range t.Items {
		if it.ID == "" || it.Label == "" {
			return nil, fmt.Errorf("şablonda id veya label eksik: %+v", it)
		}
		if !it.Category.Valid() {
			return nil, fmt.Errorf("şablonda bilinmeyen kategori %q (%s)", it.Category, it.ID)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("şablonda tekrar eden id: %s", it.ID)
		}
		seen[it.ID] = true
	}
	return &t, nil
}

// DefaultTemplate: gömülü şablon
func DefaultTemplate() *Template { return defaultTemplate }

// NewItems: şablondan, hiçbiri işaretlenmemiş yeni maddeler
func (t *Template) NewItems() []models.CheckItem {
	items := make([]models.CheckItem, len(t.Items))
	for i, it := range t.Items {
		items[i] = models.CheckItem{ID: it.ID, Label: it.Label, Category: it.Category}
	}
	return items
}

// Label: kategori başlığı; tanımsızsa kategori kodu döner
func (t *Template) Label(c models.Category) string {
	for _, cl := range t.Categories {
		if cl.ID == c {
			return cl.Label
		}
	}
	return string(c)
}

// CategoryOrder: ekranda ve raporlarda kullanılan kategori sırası
func (t *Template) CategoryOrder() []models.Category {
	out := make([]models.Category, 0, len(t.Categories))
	for _, cl := range t.Categories {
		out = append(out, cl.ID)
	}
	return out
}

// Labels: kategori → başlık
func (t *Template) Labels() map[models.Category]string {
	out := make(map[models.Category]string, len(t.Categories))
	for _, cl := range t.Categories {
		out[cl.ID] = cl.Label
	}
	return out
}
