package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"haccp-backend/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Board struct {
	Color string `yaml:"color" json:"color"`
	Usage string `yaml:"usage" json:"usage"`
}

type Handwashing struct {
	Recommendation string   `yaml:"recommendation" json:"recommendation"`
	Moments        []string `yaml:"moments" json:"moments"`
}

// Standards: HACCP hatırlatma ekranının içeriği
type Standards struct {
	Allergens      []string    `yaml:"allergens" json:"allergens"`
	AllergenNotice string      `yaml:"allergenNotice" json:"allergenNotice"`
	Boards         []Board     `yaml:"boards" json:"boards"`
	Handwashing    Handwashing `yaml:"handwashing" json:"handwashing"`
}

type Catalog struct {
	Recipes   []models.Recipe `yaml:"recipes"`
	Standards `yaml:",inline"`
}

var recipeCategories = map[string]bool{"plat": true, "entree": true, "dessert": true, "cocktail": true}

var defaultCatalog = mustLoad()

func mustLoad() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse: tarifleri doğrular; alerjenler listede tanımlı olmalı
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("katalog okunamadı: %w", err)
	}

	known := make(map[string]bool, len(c.Allergens))
	for _, a := range c.Allergens {
		known[a] = true
	}
	seen := make(map[string]bool, len(c.Recipes))
	for _, r := range c.Recipes {
		if r.ID == "" || r.Name == "" {
			return nil, fmt.Errorf("tarifte id veya isim eksik: %+v", r)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("tekrar eden tarif id: %s", r.ID)
		}
		seen[r.ID] = true
		if !recipeCategories[r.Category] {
			return nil, fmt.Errorf("tarif %s: bilinmeyen kategori %q", r.ID, r.Category)
		}
		if r.ShelfLifeDays <= 0 {
			return nil, fmt.Errorf("tarif %s: saklama süresi pozitif olmalı", r.ID)
		}
		for _, a := range r.Allergens {
			if !known[a] {
				return nil, fmt.Errorf("tarif %s: listede olmayan alerjen %q", r.ID, a)
			}
		}
		for _, ing := range r.Ingredients {
			if !ing.Amount.IsPositive() {
				return nil, fmt.Errorf("tarif %s: %s miktarı pozitif olmalı", r.ID, ing.Name)
			}
		}
	}
	return &c, nil
}

func Default() *Catalog { return defaultCatalog }

func (c *Catalog) Recipe(id string) (models.Recipe, bool) {
	for _, r := range c.Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return models.Recipe{}, false
}

// Search: isimde büyük/küçük harf duyarsız arama; boş terim hepsini döner
func (c *Catalog) Search(term string) []models.Recipe {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Recipe, 0, len(c.Recipes))
	for _, r := range c.Recipes {
		if term == "" || strings.Contains(strings.ToLower(r.Name), term) {
			out = append(out, r)
		}
	}
	return out
}
