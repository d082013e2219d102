package models

// Category: kontrol noktası kategorisi
type Category string

const (
	CategoryTemperature  Category = "temperature"
	CategoryCleaning     Category = "cleaning"
	CategoryDelivery     Category = "delivery"
	CategoryOil          Category = "oil"
	CategoryGeneral      Category = "general"
	CategoryOpsOpening   Category = "ops_opening"
	CategoryOpsClosing   Category = "ops_closing"
	CategoryOpsService   Category = "ops_service"
	CategoryTraceability Category = "traceability"
)

var categories = []Category{
	CategoryTemperature,
	CategoryCleaning,
	CategoryDelivery,
	CategoryOil,
	CategoryGeneral,
	CategoryOpsOpening,
	CategoryOpsClosing,
	CategoryOpsService,
	CategoryTraceability,
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Categories: tanımlı tüm kategoriler, sabit sırada
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
