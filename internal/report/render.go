package report

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"insproduce-backend/internal/storage"
)

const (
	fontFamily  = "Helvetica"
	margin      = 15.0
	labelWidth  = 62.0
	rowHeight   = 7.0
	photoMaxW   = 120.0
	photoMaxH   = 90.0
	footerSpace = 15.0
)

// Render draws the report and returns the file bytes with their SHA-256 hex
// digest. Photos that cannot be read or decoded leave a visible line instead
// of failing the document.
func Render(ctx context.Context, d Data, photos []Photo) ([]byte, string, error) {
	return render(ctx, d, photos, true)
}

func render(ctx context.Context, d Data, photos []Photo, compress bool) ([]byte, string, error) {
	stamp := d.Timestamp
	if stamp.IsZero() {
		// fpdf falls back to the wall clock for a zero date.
		stamp = time.Unix(0, 0).UTC()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, footerSpace)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(compress)
	pdf.AliasNbPages("")

	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(r.tr(fmt.Sprintf("Informe de inspección %d", d.InspectionID)), false)
	pdf.SetCreator("insproduce", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, r.tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.title(d)
	r.heading("Identificación")
	r.row("Productor", d.Producer)
	r.row("Lote", d.Lot)
	r.row("Variedad", d.Variety)
	r.row("Calibre", d.Caliber)
	r.row("Código embalaje", d.PackagingCode)
	r.row("Tipo embalaje", d.PackagingType)
	r.row("Fecha embalaje", d.PackagingDate)

	r.heading("Condiciones del lote")
	for _, f := range d.Conditions {
		r.row(f.Label, f.Display())
	}

	if len(d.Sections) == 0 {
		r.heading("Métricas")
		r.note("Sin métricas registradas")
	}
	for _, s := range d.Sections {
		r.heading(s.Title)
		for _, f := range s.Fields {
			r.row(f.Label, f.Display())
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	r.heading("Registro fotográfico")
	if len(photos) == 0 {
		r.note("Sin fotografías")
	}
	for i, p := range photos {
		r.photo(i, p)
	}

	if pdf.Err() {
		return nil, "", fmt.Errorf("render pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("write pdf: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *renderer) title(d Data) {
	r.pdf.SetFont(fontFamily, "B", 16)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.CellFormat(0, 10, r.tr("Informe de Inspección de Calidad"), "", 1, "C", false, 0, "")
	r.pdf.SetFont(fontFamily, "", 11)
	r.pdf.CellFormat(0, 7, r.tr(fmt.Sprintf("%s · Inspección N° %d", d.CommodityName, d.InspectionID)), "", 1, "C", false, 0, "")
	r.pdf.Ln(3)
}

func (r *renderer) heading(s string) {
	r.pdf.Ln(3)
	r.pdf.SetFont(fontFamily, "B", 12)
	r.pdf.SetFillColor(46, 125, 50)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.CellFormat(0, 8, r.tr(s), "", 1, "L", true, 0, "")
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(1)
}

func (r *renderer) row(label, value string) {
	if value == "" {
		value = Placeholder
	}
	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY()+rowHeight > pageH-footerSpace {
		r.pdf.AddPage()
	}
	r.pdf.SetFillColor(238, 238, 238)
	r.pdf.SetFont(fontFamily, "B", 10)
	r.pdf.CellFormat(labelWidth, rowHeight, r.tr(label), "1", 0, "L", true, 0, "")
	r.pdf.SetFont(fontFamily, "", 10)
	r.pdf.MultiCell(0, rowHeight, r.tr(value), "1", "L", false)
}

func (r *renderer) note(s string) {
	r.pdf.SetFont(fontFamily, "I", 10)
	r.pdf.MultiCell(0, 6, r.tr(s), "", "L", false)
}

func (r *renderer) errorLine(s string) {
	r.pdf.SetFont(fontFamily, "B", 10)
	r.pdf.SetTextColor(198, 40, 40)
	r.pdf.MultiCell(0, 6, r.tr(s), "", "L", false)
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *renderer) photo(i int, p Photo) {
	if p.Err != nil {
		if errors.Is(p.Err, storage.ErrNotFound) {
			r.errorLine("Imagen no encontrada: " + p.Name)
		} else {
			r.errorLine("No se pudo cargar imagen: " + p.Name)
		}
		return
	}

	imgType, data, err := prepareImage(p.Data)
	if err != nil {
		r.errorLine("No se pudo cargar imagen: " + p.Name)
		return
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	name := fmt.Sprintf("photo-%d", i)
	info := r.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if r.pdf.Err() || info == nil {
		r.pdf.ClearError()
		r.errorLine("No se pudo cargar imagen: " + p.Name)
		return
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		r.errorLine("No se pudo cargar imagen: " + p.Name)
		return
	}
	scale := math.Min(photoMaxW/iw, photoMaxH/ih)
	w, h := iw*scale, ih*scale

	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY()+h+rowHeight > pageH-footerSpace {
		r.pdf.AddPage()
	}
	pageW, _ := r.pdf.GetPageSize()
	x := (pageW - w) / 2
	y := r.pdf.GetY()
	r.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	r.pdf.SetY(y + h + 1)

	caption := p.Name
	if p.Label != "" {
		caption = p.Label + " · " + p.Name
	}
	r.pdf.SetFont(fontFamily, "I", 9)
	r.pdf.CellFormat(0, 6, r.tr(caption), "", 1, "C", false, 0, "")
	r.pdf.Ln(2)
}
