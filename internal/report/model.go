package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"haccp-backend/internal/models"
)

const (
	StatusDone    = "VALIDE"
	StatusNotDone = "NON FAIT"

	StatusConforming  = "CONFORME"
	StatusIncomplete  = "INCOMPLET"
	TemperatureOK     = "OK"
	TemperatureMissed = "MANQUANT"

	PeriodMorning = "Matin"
	PeriodEvening = "Soir"

	// Günde beklenen sıcaklık kontrolü sayısı (3 dolap × sabah/akşam)
	ExpectedTemperatureChecks = 6

	StorageMention = "À conserver entre 0°C et +4°C"
)

// "Frigo Cuisine - Matin (+2°C/+4°C)" → prefix "Frigo Cuisine", dönem "Matin"
var periodSuffix = regexp.MustCompile(`(?i)^(.*?)\s+-\s+(matin|soir|morning|evening)(?:\s|\(|$)`)

// SplitPeriod: etiketten sabah/akşam ekini ayırır. ok=false ise eşleştirilemez.
func SplitPeriod(label string) (prefix, period string, ok bool) {
	m := periodSuffix.FindStringSubmatch(label)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", "", false
	}
	switch strings.ToLower(m[2]) {
	case "matin", "morning":
		period = PeriodMorning
	default:
		period = PeriodEvening
	}
	return strings.TrimSpace(m[1]), period, true
}

type ItemRow struct {
	ItemID    string
	Category  string
	Label     string
	Status    string
	Value     string
	Time      string
	Completed bool
}

type TemperatureRow struct {
	Location string
	Period   string
	ItemRow
}

type DailyReport struct {
	Date         string
	DateLabel    string
	Temperatures []TemperatureRow
	General      []ItemRow
	Completed    int
	Total        int
	Locked       bool
	Signature    string
}

func itemRow(it models.CheckItem, labels map[models.Category]string, loc *time.Location) ItemRow {
	row := ItemRow{
		ItemID:    it.ID,
		Category:  string(it.Category),
		Label:     it.Label,
		Status:    StatusNotDone,
		Value:     "-",
		Time:      "-",
		Completed: it.Completed,
	}
	if l, ok := labels[it.Category]; ok {
		row.Category = l
	}
	if it.Completed {
		row.Status = StatusDone
	}
	if v := strings.TrimSpace(it.Value); v != "" {
		row.Value = v
		if it.Category == models.CategoryTemperature {
			row.Value += " °C"
		}
	}
	if it.Timestamp != nil {
		row.Time = it.Timestamp.In(loc).Format("15:04")
	}
	return row
}

// BuildDaily: sıcaklık maddeleri yer bazında sabah/akşam eşlenir, kalan her şey genel bloğa gider.
// Her madde iki bloktan tam olarak birinde bir kez yer alır.
func BuildDaily(log models.DailyLog, labels map[models.Category]string, loc *time.Location) DailyReport {
	if loc == nil {
		loc = time.Local
	}
	rep := DailyReport{
		Date:      log.Date,
		DateLabel: log.Date,
		Total:     len(log.Items),
		Completed: log.CompletedCount(),
		Locked:    log.IsLocked,
		Signature: log.Signature,
	}
	if d, err := time.Parse("2006-01-02", log.Date); err == nil {
		rep.DateLabel = LongDate(d)
	}

	var order []string
	byLocation := make(map[string][]TemperatureRow)
	for _, it := range log.Items {
		if it.Category == models.CategoryTemperature {
			if prefix, period, ok := SplitPeriod(it.Label); ok {
				if _, seen := byLocation[prefix]; !seen {
					order = append(order, prefix)
				}
				byLocation[prefix] = append(byLocation[prefix], TemperatureRow{
					Location: prefix,
					Period:   period,
					ItemRow:  itemRow(it, labels, loc),
				})
				continue
			}
		}
		rep.General = append(rep.General, itemRow(it, labels, loc))
	}

	for _, prefix := range order {
		rows := byLocation[prefix]
		// sabah önce; aynı dönemde giriş sırası korunur
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Period == PeriodMorning && rows[j].Period != PeriodMorning
		})
		rep.Temperatures = append(rep.Temperatures, rows...)
	}
	return rep
}

type HistoryRow struct {
	Date              string
	DateLabel         string
	Completed         int
	Total             int
	Conforming        bool
	Status            string
	TemperatureOK     bool
	TemperatureStatus string
}

type HistoryReport struct {
	Rows   []HistoryRow
	Period string
}

// BuildHistory: kayıt başına bir satır, en yeni tarih başta. Girdi değiştirilmez.
func BuildHistory(logs []models.DailyLog) HistoryReport {
	sorted := append([]models.DailyLog(nil), logs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	rep := HistoryReport{Rows: make([]HistoryRow, 0, len(sorted)), Period: "-"}
	for _, l := range sorted {
		conforming := true
		temps := 0
		for _, it := range l.Items {
			if !it.Completed {
				conforming = false
			}
			if it.Category == models.CategoryTemperature && it.Completed {
				temps++
			}
		}
		row := HistoryRow{
			Date:              l.Date,
			DateLabel:         l.Date,
			Completed:         l.CompletedCount(),
			Total:             len(l.Items),
			Conforming:        conforming,
			Status:            StatusIncomplete,
			TemperatureOK:     temps == ExpectedTemperatureChecks,
			TemperatureStatus: TemperatureMissed,
		}
		if d, err := time.Parse("2006-01-02", l.Date); err == nil {
			row.DateLabel = ShortDate(d)
		}
		if row.Conforming {
			row.Status = StatusConforming
		}
		if row.TemperatureOK {
			row.TemperatureStatus = TemperatureOK
		}
		rep.Rows = append(rep.Rows, row)
	}
	if len(sorted) > 0 {
		rep.Period = fmt.Sprintf("du %s au %s", sorted[len(sorted)-1].Date, sorted[0].Date)
	}
	return rep
}

// FilterMonth: loc saat diliminde "2006-01" ayına düşen kayıtlar (sıra korunur)
func FilterMonth(records []models.TraceabilityRecord, month string, loc *time.Location) []models.TraceabilityRecord {
	if loc == nil {
		loc = time.Local
	}
	out := make([]models.TraceabilityRecord, 0, len(records))
	for _, r := range records {
		if r.Date.In(loc).Format("2006-01") == month {
			out = append(out, r)
		}
	}
	return out
}

// MonthLabel: "2024-06" → "Registre juin 2024"
func MonthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "Registre " + month
	}
	return "Registre " + MonthName(t)
}

type TraceabilityRow struct {
	Date      string
	ItemName  string
	LotNumber string
	Expiry    string
	HasPhoto  bool
}

type TraceabilityPhoto struct {
	Caption string
	Ref     string // uzak URL, yerel yol ya da data: URL
}

type TraceabilityReport struct {
	Title  string
	Period string
	Rows   []TraceabilityRow
	Photos []TraceabilityPhoto
}

func BuildTraceability(records []models.TraceabilityRecord, month string, loc *time.Location) TraceabilityReport {
	if loc == nil {
		loc = time.Local
	}
	rep := TraceabilityReport{
		Title:  "REGISTRE DE TRAÇABILITÉ",
		Period: MonthLabel(month),
		Rows:   make([]TraceabilityRow, 0, len(records)),
	}
	for _, r := range records {
		expiry := r.ExpiryDate
		if d, err := time.Parse("2006-01-02", r.ExpiryDate); err == nil {
			expiry = d.Format("02/01/2006")
		}
		rep.Rows = append(rep.Rows, TraceabilityRow{
			Date:      r.Date.In(loc).Format("02/01/2006 15:04"),
			ItemName:  r.ItemName,
			LotNumber: r.LotNumber,
			Expiry:    expiry,
			HasPhoto:  r.PhotoURL != "",
		})
		if r.PhotoURL != "" {
			rep.Photos = append(rep.Photos, TraceabilityPhoto{
				Caption: fmt.Sprintf("%s - Lot %s", r.ItemName, r.LotNumber),
				Ref:     r.PhotoURL,
			})
		}
	}
	return rep
}

// ExpiryDate: üretim tarihi + raf ömrü (gün)
func ExpiryDate(produced time.Time, shelfLifeDays int) time.Time {
	return produced.AddDate(0, 0, shelfLifeDays)
}

type Label struct {
	Restaurant string
	Product    string
	Produced   string
	DLC        string
	Allergens  string
	Storage    string
}

func BuildLabel(recipe models.Recipe, restaurant string, produced time.Time) Label {
	allergens := "Aucun"
	if len(recipe.Allergens) > 0 {
		allergens = strings.Join(recipe.Allergens, ", ")
	}
	return Label{
		Restaurant: strings.ToUpper(restaurant),
		Product:    recipe.Name,
		Produced:   fmt.Sprintf("Fabriqué le : %s à %s", produced.Format("02/01/06"), produced.Format("15:04")),
		DLC:        "DLC : " + ExpiryDate(produced, recipe.ShelfLifeDays).Format("02/01/06"),
		Allergens:  "Allergènes: " + allergens,
		Storage:    StorageMention,
	}
}
