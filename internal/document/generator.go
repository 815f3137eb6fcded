// Package document формирует PDF-лист накладной.
package document

import (
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/pricing"
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ContentType MIME-тип формируемого документа.
const ContentType = "application/pdf"

const (
	dateLayout = "2006-01-02"
	lineHeight = 8.0
	// ширина изображения подписи, мм; высота по пропорциям
	signatureWidth = 60.0
)

// Generator собирает документ фиксированной раскладки A4.
// Одинаковые поля записи и одинаковые подписи дают побайтно одинаковый результат:
// дата создания берётся из дня записи, id записи в документ не попадает.
type Generator struct {
	Title  string
	Footer string
}

func NewGenerator() *Generator {
	return &Generator{
		Title:  "Lieferschein",
		Footer: "Automatisch erstellt von der Biomasse Abrechnung App.",
	}
}

// Generate возвращает байты PDF. Отсутствующая подпись выводится только подписью-меткой.
func (g *Generator) Generate(rec *model.DeliveryRecord, customer, supplier *Signature) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil delivery record")
	}

	day := recordDay(rec.CreatedAt)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(day)
	pdf.SetModificationDate(day)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetTitle(g.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr(g.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	quantity := pricing.FormatQuantity(pricing.Result{Net: rec.NetQuantity, Unit: rec.Unit})
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"Datum: " + day.Format(dateLayout),
		"Kunde: " + rec.CustomerName,
		"Material: " + rec.MaterialName,
		"Preis-Basis: " + rec.Basis.Label(),
		"Menge: " + quantity,
		"Gesamtpreis: " + pricing.FormatTotal(rec.Total) + " €",
	} {
		pdf.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	g.signatureBlock(pdf, tr, "Unterschrift Kunde:", customer)
	g.signatureBlock(pdf, tr, "Unterschrift Lieferant:", supplier)

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, tr(g.Footer), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) signatureBlock(pdf *fpdf.Fpdf, tr func(string) string, label string, sig *Signature) {
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, lineHeight, tr(label), "", 1, "L", false, 0, "")
	if sig == nil {
		pdf.Ln(lineHeight)
		return
	}

	// имя изображения по содержимому, чтобы одинаковые подписи не меняли вывод
	name := "sig-" + sig.Ref
	opts := fpdf.ImageOptions{ImageType: sig.ImageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(sig.Content))
	left, _, _, _ := pdf.GetMargins()
	pdf.ImageOptions(name, left, pdf.GetY(), signatureWidth, 0, true, opts, 0, "")
	pdf.Ln(2)
}

// recordDay полночь UTC дня записи.
func recordDay(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FileName имя файла вложения.
func FileName(rec *model.DeliveryRecord) string {
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "lieferschein_" + id + ".pdf"
}
