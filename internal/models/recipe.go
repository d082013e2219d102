package models

import "github.com/shopspring/decimal"

type Ingredient struct {
	Name   string          `json:"name" yaml:"name"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
	Unit   string          `json:"unit" yaml:"unit"`
}

// Recipe: teknik fiş (sabit referans verisi, veritabanında tutulmaz)
type Recipe struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	PrepTime      string       `json:"prepTime" yaml:"prepTime"`
	Category      string       `json:"category" yaml:"category"` // plat | entree | dessert | cocktail
	ShelfLifeDays int          `json:"shelfLifeDays" yaml:"shelfLifeDays"`
	Ingredients   []Ingredient `json:"ingredients" yaml:"ingredients"`
	Steps         []string     `json:"steps" yaml:"steps"`
	Allergens     []string     `json:"allergens" yaml:"allergens"`
}
