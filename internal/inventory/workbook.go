package inventory

import (
	"context"
	"fmt"
	"io"
	"strings"

	"haccp-backend/internal/apperr"
	"haccp-backend/internal/models"
	"haccp-backend/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetStock     = "Stock"
	SheetMovements = "Mouvements"
)

var (
	stockHeader    = []interface{}{"Produit", "Quantité", "Unité", "Seuil min", "Catégorie", "T° dernière livraison", "Statut"}
	movementHeader = []interface{}{"Date", "Produit", "Type", "Quantité", "Motif", "T°"}
)

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"` // okunamayan satırlar
}

func optionalTemp(t *float64) interface{} {
	if t == nil {
		return ""
	}
	return *t
}

// ExportWorkbook: stok listesi ve son hareketler iki sayfalık .xlsx olarak
func ExportWorkbook(items []models.InventoryItem, movements []models.StockMovement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetStock); err != nil {
		return nil, fmt.Errorf("sayfa adı: %w", err)
	}
	if _, err := f.NewSheet(SheetMovements); err != nil {
		return nil, fmt.Errorf("sayfa oluşturulamadı: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(SheetStock, "A1", &stockHeader); err != nil {
		return nil, err
	}
	for i, it := range items {
		status := "OK"
		if it.IsLow() {
			status = "Bas"
		}
		row := []interface{}{
			it.Name,
			it.CurrentQuantity.InexactFloat64(),
			it.Unit,
			it.MinThreshold.InexactFloat64(),
			it.Category,
			optionalTemp(it.LastDeliveryTemp),
			status,
		}
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetStock, axis, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow(SheetMovements, "A1", &movementHeader); err != nil {
		return nil, err
	}
	for i, m := range movements {
		row := []interface{}{
			m.Date.Format("2006-01-02 15:04"),
			m.ItemName,
			string(m.Type),
			m.Quantity.InexactFloat64(),
			m.Reason,
			optionalTemp(m.Temperature),
		}
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetMovements, axis, &row); err != nil {
			return nil, err
		}
	}

	for _, sheet := range []string{SheetStock, SheetMovements} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx yazılamadı: %w", err)
	}
	return buf.Bytes(), nil
}

// isHeaderRow: "Produit", "Nom", "Name" gibi başlık satırı mı?
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(strings.TrimSpace(row[0]))
	return strings.Contains(first, "PRODUIT") || strings.Contains(first, "PRODUCT") ||
		first == "NOM" || first == "NAME"
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseQuantity(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// ImportWorkbook: sayım dosyası. Sütunlar: ürün, miktar, birim, min eşik, kategori.
// Var olan ürünlerin miktarı dosyadaki değere eşitlenir, olmayanlar oluşturulur.
func (s *Service) ImportWorkbook(ctx context.Context, r io.Reader) (ImportResult, store.Source, error) {
	const op = "import workbook"
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, store.SourceFailed, apperr.Invalid(op, "Fichier Excel illisible")
	}
	defer f.Close()

	sheet := SheetStock
	if idx, _ := f.GetSheetIndex(SheetStock); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return ImportResult{}, store.SourceFailed, apperr.Invalid(op, "Aucune feuille dans le fichier")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return ImportResult{}, store.SourceFailed, apperr.Invalid(op, "Feuille illisible")
	}
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		rows = rows[1:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := ImportResult{Skipped: []string{}}
	src := store.SourceLive
	items := s.repo.ListInventory(ctx).Data
	now := s.now()

	for _, row := range rows {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		qty, err := parseQuantity(cell(row, 1))
		if err != nil {
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s (quantité invalide)", name))
			continue
		}

		item, found := findByName(items, name)
		if !found {
			item = models.InventoryItem{
				ID:           uuid.NewString(),
				Name:         name,
				Unit:         DefaultUnit,
				MinThreshold: defaultMinThreshold,
				Category:     DefaultCategory,
			}
		}
		item.CurrentQuantity = qty
		if unit := cell(row, 2); unit != "" {
			item.Unit = unit
		}
		if v := cell(row, 3); v != "" {
			threshold, err := parseQuantity(v)
			if err != nil || threshold.IsNegative() {
				out.Skipped = append(out.Skipped, fmt.Sprintf("%s (seuil invalide)", name))
				continue
			}
			item.MinThreshold = threshold
		}
		if cat := cell(row, 4); cat != "" {
			item.Category = cat
		}
		item.UpdatedAt = now

		itemSrc, err := s.repo.UpsertInventoryItem(ctx, item)
		if err != nil {
			return out, itemSrc, err
		}
		if itemSrc != store.SourceLive {
			src = itemSrc
		}
		items = replaceItem(items, item)
		if found {
			out.Updated++
		} else {
			out.Created++
		}
	}
	return out, src, nil
}
