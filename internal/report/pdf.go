package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"haccp-backend/internal/models"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	pageMargin   = 14.0
	lineHeight   = 4.5
	cellPadding  = 1.5
	photoCols    = 2
	photoRows    = 3
	photoCaption = 6.0
)

var (
	colorText    = [3]int{44, 62, 80}
	colorMuted   = [3]int{100, 100, 100}
	colorHeader  = [3]int{67, 56, 202}
	colorAltRow  = [3]int{248, 250, 252}
	colorOK      = [3]int{22, 101, 52}
	colorMissing = [3]int{185, 28, 28}
)

type Options struct {
	Restaurant string
	Labels     map[models.Category]string
	Location   *time.Location
	Fetcher    *ImageFetcher
	Logger     *zap.Logger
}

// Renderer: rapor modellerini PDF'e çevirir. Veriyi değiştirmez, yeniden okumaz.
type Renderer struct {
	opts Options
	now  func() time.Time
}

func NewRenderer(opts Options) *Renderer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewImageFetcher(0, "", "", opts.Logger)
	}
	return &Renderer{opts: opts, now: time.Now}
}

func (r *Renderer) Location() *time.Location { return r.opts.Location }

type column struct {
	title string
	width float64
	align string
}

type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument() *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()
	return &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *document) color(c [3]int) {
	d.pdf.SetTextColor(c[0], c[1], c[2])
}

func (d *document) text(x, y float64, s string) {
	d.pdf.Text(x, y, d.tr(s))
}

func (d *document) header(title string, lines ...string) float64 {
	d.pdf.SetFont("Helvetica", "B", 20)
	d.color(colorText)
	d.text(pageMargin, 22, title)

	d.pdf.SetFont("Helvetica", "", 10)
	d.color(colorMuted)
	y := 31.0
	for _, l := range lines {
		d.text(pageMargin, y, l)
		y += 5
	}
	return y + 4
}

func (d *document) tableHeader(cols []column, y float64) float64 {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.SetFillColor(colorHeader[0], colorHeader[1], colorHeader[2])
	d.pdf.SetTextColor(255, 255, 255)
	x := pageMargin
	for _, c := range cols {
		d.pdf.SetXY(x, y)
		d.pdf.CellFormat(c.width, 8, d.tr(c.title), "", 0, "C", true, 0, "")
		x += c.width
	}
	return y + 8
}

// table: satır yükseklikleri en uzun hücreye göre; sayfa dolunca başlık tekrar çizilir
func (d *document) table(cols []column, rows [][]string, y float64, cellColor func(col int, val string) [3]int) float64 {
	_, pageH := d.pdf.GetPageSize()
	y = d.tableHeader(cols, y)

	for i, row := range rows {
		d.pdf.SetFont("Helvetica", "", 9)
		wrapped := make([][][]byte, len(cols))
		lines := 1
		for j, c := range cols {
			wrapped[j] = d.pdf.SplitLines([]byte(d.tr(row[j])), c.width-2*cellPadding)
			if len(wrapped[j]) > lines {
				lines = len(wrapped[j])
			}
		}
		h := float64(lines)*lineHeight + 2*cellPadding

		if y+h > pageH-pageMargin {
			d.pdf.AddPage()
			y = d.tableHeader(cols, pageMargin)
			d.pdf.SetFont("Helvetica", "", 9)
		}

		x := pageMargin
		for j, c := range cols {
			style := "D"
			if i%2 == 1 {
				d.pdf.SetFillColor(colorAltRow[0], colorAltRow[1], colorAltRow[2])
				style = "FD"
			}
			d.pdf.SetDrawColor(220, 220, 220)
			d.pdf.Rect(x, y, c.width, h, style)

			d.color(colorText)
			if cellColor != nil {
				d.color(cellColor(j, row[j]))
			}
			for k, line := range wrapped[j] {
				d.pdf.SetXY(x+cellPadding, y+cellPadding+float64(k)*lineHeight)
				d.pdf.CellFormat(c.width-2*cellPadding, lineHeight, string(line), "", 0, c.align, false, 0, "")
			}
			x += c.width
		}
		y += h
	}
	return y
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF oluşturulamadı: %w", err)
	}
	return buf.Bytes(), nil
}

func statusColor(col int) func(int, string) [3]int {
	return func(j int, val string) [3]int {
		if j != col {
			return colorText
		}
		switch val {
		case StatusDone, StatusConforming, TemperatureOK:
			return colorOK
		default:
			return colorMissing
		}
	}
}

// Daily: günlük HACCP registresi (sıcaklık tablosu + genel kontroller + imza alanı)
func (r *Renderer) Daily(log models.DailyLog) ([]byte, error) {
	rep := BuildDaily(log, r.opts.Labels, r.opts.Location)
	d := newDocument()

	y := d.header("REGISTRE SANITAIRE HACCP",
		"Établissement : "+r.opts.Restaurant,
		"Date du relevé : "+rep.DateLabel,
		"Généré le : "+r.now().In(r.opts.Location).Format("02/01/2006 15:04"),
	)

	if len(rep.Temperatures) > 0 {
		d.pdf.SetFont("Helvetica", "B", 12)
		d.color(colorText)
		d.text(pageMargin, y, "Relevés de températures")
		rows := make([][]string, 0, len(rep.Temperatures))
		prev := ""
		for _, t := range rep.Temperatures {
			location := t.Location
			if location == prev {
				location = ""
			}
			prev = t.Location
			rows = append(rows, []string{location, t.Period, t.Status, t.Value, t.Time})
		}
		y = d.table([]column{
			{"Équipement", 62, "L"},
			{"Moment", 25, "C"},
			{"Statut", 30, "C"},
			{"Valeur", 40, "C"},
			{"Heure", 25, "C"},
		}, rows, y+3, statusColor(2)) + 8
	}

	if len(rep.General) > 0 {
		d.pdf.SetFont("Helvetica", "B", 12)
		d.color(colorText)
		d.text(pageMargin, y, "Contrôles")
		rows := make([][]string, 0, len(rep.General))
		for _, g := range rep.General {
			rows = append(rows, []string{g.Category, g.Label, g.Status, g.Value, g.Time})
		}
		y = d.table([]column{
			{"Catégorie", 35, "L"},
			{"Détail du Contrôle", 77, "L"},
			{"Statut", 25, "C"},
			{"Valeur", 25, "C"},
			{"Heure", 20, "C"},
		}, rows, y+3, statusColor(2))
	}

	_, pageH := d.pdf.GetPageSize()
	if y+70 > pageH-pageMargin {
		d.pdf.AddPage()
		y = pageMargin
	}
	y += 14
	d.pdf.SetFont("Helvetica", "", 11)
	d.color(colorText)
	d.text(pageMargin, y, "Observations éventuelles :")
	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.Line(pageMargin, y+5, 196, y+5)
	d.pdf.Line(pageMargin, y+15, 196, y+15)

	d.pdf.SetFont("Helvetica", "", 10)
	d.text(130, y+30, "Signature du responsable du contrôle :")
	d.pdf.SetDrawColor(100, 100, 100)
	d.pdf.Rect(130, y+35, 60, 25, "D")
	if rep.Signature != "" {
		d.pdf.SetFont("Helvetica", "I", 12)
		d.text(134, y+50, rep.Signature)
	}

	return d.bytes()
}

// History: kayıt başına bir satır
func (r *Renderer) History(logs []models.DailyLog) ([]byte, error) {
	rep := BuildHistory(logs)
	d := newDocument()

	y := d.header("HISTORIQUE DES CONTRÔLES HACCP",
		"Établissement : "+r.opts.Restaurant,
		"Période : "+rep.Period,
	)

	rows := make([][]string, 0, len(rep.Rows))
	for _, h := range rep.Rows {
		rows = append(rows, []string{h.DateLabel, fmt.Sprintf("%d / %d", h.Completed, h.Total), h.Status, h.TemperatureStatus})
	}
	d.table([]column{
		{"Date", 52, "L"},
		{"Contrôles effectués", 45, "C"},
		{"Statut global", 45, "C"},
		{"Temp. Matin/Soir", 40, "C"},
	}, rows, y, func(j int, val string) [3]int {
		if j == 2 || j == 3 {
			return statusColor(j)(j, val)
		}
		return colorText
	})

	return d.bytes()
}

// Traceability: özet tablo + fotoğraf sayfaları (2×3 ızgara)
func (r *Renderer) Traceability(ctx context.Context, records []models.TraceabilityRecord, month string) ([]byte, error) {
	rep := BuildTraceability(records, month, r.opts.Location)
	d := newDocument()

	y := d.header(rep.Title,
		"Établissement : "+r.opts.Restaurant,
		rep.Period,
		fmt.Sprintf("%d réception(s) enregistrée(s)", len(rep.Rows)),
	)

	rows := make([][]string, 0, len(rep.Rows))
	for _, t := range rep.Rows {
		photo := "Non"
		if t.HasPhoto {
			photo = "Oui"
		}
		rows = append(rows, []string{t.Date, t.ItemName, t.LotNumber, t.Expiry, photo})
	}
	d.table([]column{
		{"Date", 35, "L"},
		{"Produit", 62, "L"},
		{"Lot", 35, "L"},
		{"DLC", 25, "C"},
		{"Photo", 25, "C"},
	}, rows, y, nil)

	if len(rep.Photos) == 0 {
		return d.bytes()
	}

	refs := make([]string, len(rep.Photos))
	for i, p := range rep.Photos {
		refs[i] = p.Ref
	}
	images := r.opts.Fetcher.FetchAll(ctx, refs)

	pageW, pageH := d.pdf.GetPageSize()
	cellW := (pageW - 2*pageMargin) / photoCols
	cellH := (pageH - 2*pageMargin - 10) / photoRows
	slot := photoCols * photoRows // yeni sayfa ile başla

	for i, img := range images {
		if img.Data == nil {
			continue
		}
		if slot == photoCols*photoRows {
			d.pdf.AddPage()
			d.pdf.SetFont("Helvetica", "B", 12)
			d.color(colorText)
			d.text(pageMargin, pageMargin+4, "Photos des étiquettes - "+rep.Period)
			slot = 0
		}
		col, row := slot%photoCols, slot/photoCols
		x := pageMargin + float64(col)*cellW
		top := pageMargin + 10 + float64(row)*cellH

		name := fmt.Sprintf("photo-%d", i)
		opt := fpdf.ImageOptions{ImageType: img.Type}
		info := d.pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.Data))
		if info == nil || !d.pdf.Ok() {
			r.opts.Logger.Warn("fotoğraf PDF'e eklenemedi", zap.String("type", img.Type), zap.Error(d.pdf.Error()))
			d.pdf.ClearError()
			continue
		}

		// oranı koruyarak hücreye sığdır
		maxW, maxH := cellW-6, cellH-photoCaption-6
		w, h := info.Width(), info.Height()
		scale := maxW / w
		if h*scale > maxH {
			scale = maxH / h
		}
		w, h = w*scale, h*scale
		d.pdf.ImageOptions(name, x+(cellW-w)/2, top+2, w, h, false, opt, 0, "")

		d.pdf.SetFont("Helvetica", "", 8)
		d.color(colorMuted)
		d.pdf.SetXY(x, top+2+h+1)
		d.pdf.CellFormat(cellW, photoCaption, d.tr(rep.Photos[i].Caption), "", 0, "C", false, 0, "")
		slot++
	}

	return d.bytes()
}

// Label: 60×40 mm üretim etiketi
func (r *Renderer) Label(recipe models.Recipe, produced time.Time) ([]byte, error) {
	lbl := BuildLabel(recipe, r.opts.Restaurant, produced.In(r.opts.Location))

	// boyut dikey verilir, "L" ile 60 mm genişlik × 40 mm yükseklik olur
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 40, Ht: 60},
	})
	pdf.SetMargins(5, 3, 5)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(5, 2)
	pdf.CellFormat(50, 4, d.tr(lbl.Restaurant), "", 0, "C", false, 0, "")
	pdf.Line(5, 6, 55, 6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(5, 8)
	pdf.MultiCell(50, 4, d.tr(lbl.Product), "", "C", false)

	pdf.SetFont("Helvetica", "", 7)
	d.text(5, 20, lbl.Produced)

	pdf.SetFont("Helvetica", "B", 9)
	d.text(5, 26, lbl.DLC)

	pdf.SetFont("Helvetica", "I", 6)
	pdf.SetXY(5, 29)
	pdf.MultiCell(50, 2.5, d.tr(lbl.Allergens), "", "L", false)

	pdf.SetFont("Helvetica", "", 5)
	pdf.SetXY(5, 35)
	pdf.CellFormat(50, 3, d.tr(lbl.Storage), "", 0, "C", false, 0, "")

	return d.bytes()
}
