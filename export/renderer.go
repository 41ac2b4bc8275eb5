package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/xraph/invoicer/document"
)

// Page geometry for the native layout, in millimetres.
const (
	marginX      = 15.0
	marginTop    = 25.0
	marginBottom = 30.0
	lineHeight   = 5.0
	rowHeight    = 7.0
)

// Column widths of the items table. They add up to the printable width.
var columns = []struct {
	title string
	width float64
	align string
}{
	{"S/N", 12, "L"},
	{"QTY", 16, "L"},
	{"UNIT", 18, "L"},
	{"DESCRIPTION", 70, "L"},
	{"RATE (NGN)", 32, "R"},
	{"AMOUNT (NGN)", 32, "R"},
}

type rgb struct{ r, g, b int }

var (
	brandBlue = rgb{30, 58, 138}
	accentRed = rgb{220, 38, 38}
	ruleGray  = rgb{209, 213, 219}
	textDark  = rgb{31, 41, 55}
	white     = rgb{255, 255, 255}
)

// Renderer draws the printable document directly with PDF primitives, for
// hosts that have no browser to rasterize the preview.
type Renderer struct {
	logger     *slog.Logger
	clock      func() time.Time
	issuer     document.Issuer
	letterhead []byte
}

// NewRenderer creates a native PDF renderer.
func NewRenderer(opts ...Option) *Renderer {
	o := buildOptions(opts)
	return &Renderer{
		logger:     o.logger,
		clock:      o.clock,
		issuer:     o.issuer,
		letterhead: o.letterhead,
	}
}

// Name implements plugin.Plugin.
func (r *Renderer) Name() string { return "pdf-renderer" }

// Format implements plugin.DocumentFormatter.
func (r *Renderer) Format() string { return "pdf" }

// ContentType implements plugin.DocumentFormatter.
func (r *Renderer) ContentType() string { return ContentType }

// Render implements plugin.DocumentFormatter.
func (r *Renderer) Render(ctx context.Context, view document.View, w io.Writer) error {
	res, err := r.Export(ctx, view)
	if err != nil {
		return err
	}
	_, err = w.Write(res.Data)
	return err
}

// Export draws view and returns the finished PDF.
func (r *Renderer) Export(ctx context.Context, view document.View) (*Result, error) {
	start := r.clock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := newPDF(view, start)
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(true, marginBottom)

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), rec: view.Record}
	pdf.AddPage()
	if len(r.letterhead) > 0 {
		p.background(r.letterhead)
	}

	p.header()
	p.client()
	p.items()
	p.totals()
	p.amountInWords(view.AmountInWords)
	p.paymentTerms()
	p.signature(r.issuer)

	res, err := finish(pdf, view)
	if err != nil {
		return nil, err
	}
	res.Elapsed = r.clock().Sub(start)

	r.logger.Debug("document rendered",
		"filename", res.Filename,
		"pages", res.Pages,
		"items", len(view.Record.Items),
	)
	return res, nil
}

// page carries drawing state for one Export call.
type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	rec document.Record
}

func (p *page) color(c rgb) { p.pdf.SetTextColor(c.r, c.g, c.b) }

func (p *page) fill(c rgb) { p.pdf.SetFillColor(c.r, c.g, c.b) }

func (p *page) text(w, h float64, s, border string, ln int, align string, fill bool) {
	p.pdf.CellFormat(w, h, p.tr(s), border, ln, align, fill, 0, "")
}

func (p *page) width() float64 {
	w, _ := p.pdf.GetPageSize()
	return w - 2*marginX
}

func (p *page) background(img []byte) {
	raster, err := DecodeRaster(img)
	if err != nil {
		return
	}
	opt := gofpdf.ImageOptions{ImageType: raster.Format}
	p.pdf.RegisterImageOptionsReader("letterhead", opt, bytes.NewReader(raster.Data))
	p.pdf.ImageOptions("letterhead", 0, 0, PageWidthMM, PageHeightMM, false, opt, 0, "")
	p.pdf.SetXY(marginX, marginTop)
}

func (p *page) header() {
	w := p.width()

	p.color(brandBlue)
	p.pdf.SetFont("Helvetica", "B", 18)
	p.text(w, 9, strings.ToUpper(p.rec.Kind.Label()), "", 1, "R", false)

	p.color(textDark)
	p.pdf.SetFont("Helvetica", "", 10)
	p.text(w, lineHeight, "No: "+p.rec.Number, "", 1, "R", false)
	p.text(w, lineHeight, "Date: "+document.DisplayDate(p.rec.IssueDate), "", 1, "R", false)
	if p.rec.ShowsPaymentTerms() {
		p.text(w, lineHeight, "Due Date: "+document.DisplayDate(p.rec.DueDate), "", 1, "R", false)
	}
	p.pdf.Ln(6)
}

func (p *page) client() {
	w := p.width()
	c := p.rec.Client

	p.pdf.SetFont("Helvetica", "B", 11)
	p.text(w, 6, "To:", "", 1, "L", false)

	if c.Title != "" {
		p.pdf.SetFont("Helvetica", "", 10)
		p.text(w, lineHeight, c.Title, "", 1, "L", false)
	}
	p.pdf.SetFont("Helvetica", "B", 10)
	p.text(w, lineHeight, c.Name, "", 1, "L", false)

	p.pdf.SetFont("Helvetica", "", 10)
	if c.Company != "" {
		p.text(w, lineHeight, c.Company, "", 1, "L", false)
	}
	if c.Address != "" {
		p.pdf.MultiCell(w, lineHeight, p.tr(c.Address), "", "L", false)
	}
	if c.Email != "" {
		p.text(w, lineHeight, "Email: "+c.Email, "", 1, "L", false)
	}
	if c.Phone != "" {
		p.text(w, lineHeight, "Phone: "+c.Phone, "", 1, "L", false)
	}
	p.pdf.Ln(6)
}

func (p *page) tableHeader() {
	p.pdf.SetFont("Helvetica", "B", 9)
	p.pdf.SetDrawColor(ruleGray.r, ruleGray.g, ruleGray.b)
	p.fill(brandBlue)
	p.color(white)
	for _, col := range columns {
		p.text(col.width, rowHeight, col.title, "1", 0, col.align, true)
	}
	p.pdf.Ln(-1)
	p.color(textDark)
	p.pdf.SetFont("Helvetica", "", 9)
}

func (p *page) items() {
	p.tableHeader()

	_, pageH := p.pdf.GetPageSize()
	descW := columns[3].width

	for i, it := range p.rec.Items {
		lines := p.pdf.SplitLines([]byte(p.tr(it.Description)), descW-2)
		h := rowHeight
		if n := float64(len(lines)) * lineHeight; n+2 > h {
			h = n + 2
		}
		if p.pdf.GetY()+h > pageH-marginBottom {
			p.pdf.AddPage()
			p.tableHeader()
		}

		cells := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(it.Quantity, 10),
			it.Unit,
			"",
			it.Rate.FormatGrouped(),
			it.Amount.FormatGrouped(),
		}
		x, y := p.pdf.GetXY()
		for c, col := range columns {
			p.text(col.width, h, cells[c], "1", 0, col.align, false)
		}

		// Description wraps inside its bordered cell.
		descX := x + columns[0].width + columns[1].width + columns[2].width
		for l, line := range lines {
			p.pdf.SetXY(descX+1, y+1+float64(l)*lineHeight)
			p.pdf.CellFormat(descW-2, lineHeight, string(line), "", 0, "L", false, 0, "")
		}
		p.pdf.SetXY(x, y+h)
	}
}

func (p *page) totals() {
	blank := 0.0
	for _, col := range columns[:4] {
		blank += col.width
	}
	labelW, valueW := columns[4].width, columns[5].width

	row := func(label, value string, fill bool) {
		p.text(blank, rowHeight, "", "1", 0, "L", false)
		p.text(labelW, rowHeight, label, "1", 0, "R", fill)
		p.text(valueW, rowHeight, value, "1", 1, "R", fill)
	}

	p.pdf.SetFont("Helvetica", "B", 9)
	row("Subtotal", p.rec.Subtotal.FormatGrouped(), false)
	if p.rec.ShowsTax() {
		row("VAT ("+p.rec.TaxRate.String()+"%)", p.rec.Tax.FormatGrouped(), false)
	}

	p.fill(brandBlue)
	p.color(white)
	row("Total", "NGN "+p.rec.Total.FormatGrouped(), true)
	p.color(textDark)
	p.pdf.Ln(6)
}

func (p *page) amountInWords(words string) {
	w := p.width()
	x, y := p.pdf.GetXY()
	p.pdf.Line(x, y, x+w, y)
	p.pdf.Ln(2)

	p.pdf.SetFont("Helvetica", "B", 9)
	label := "AMOUNT IN WORDS: "
	lw := p.pdf.GetStringWidth(label)
	p.text(lw, lineHeight, label, "", 0, "L", false)
	p.pdf.SetFont("Helvetica", "", 9)
	p.pdf.MultiCell(w-lw, lineHeight, p.tr(words), "", "L", false)

	p.pdf.Ln(2)
	x, y = p.pdf.GetXY()
	p.pdf.Line(x, y, x+w, y)
	p.pdf.Ln(6)
}

func (p *page) paymentTerms() {
	if !p.rec.ShowsPaymentTerms() || p.rec.PaymentTerms == "" {
		return
	}
	w := p.width()
	p.pdf.SetFont("Helvetica", "B", 9)
	p.text(w, lineHeight, "Payment Terms:", "", 1, "L", false)
	p.pdf.SetFont("Helvetica", "", 9)
	p.pdf.MultiCell(w, lineHeight, p.tr(p.rec.PaymentTerms), "", "L", false)
	p.pdf.Ln(6)
}

func (p *page) signature(issuer document.Issuer) {
	w := p.width()
	p.pdf.SetFont("Helvetica", "", 9)
	p.text(w, lineHeight, "Thanks,", "", 1, "L", false)

	x, y := p.pdf.GetXY()
	drawn := false
	if sig := p.rec.Signature; sig != nil {
		// Only images the PDF writer can embed are drawn; anything else
		// falls back to the blank line instead of failing the document.
		if data, _, err := sig.Decode(); err == nil {
			if raster, err := DecodeRaster(data); err == nil {
				opt := gofpdf.ImageOptions{ImageType: raster.Format}
				p.pdf.RegisterImageOptionsReader("signature", opt, bytes.NewReader(raster.Data))
				p.pdf.ImageOptions("signature", x, y+1, 0, 16, false, opt, 0, "")
				drawn = true
			}
		}
	}
	if !drawn {
		p.pdf.SetDashPattern([]float64{0.6, 0.8}, 0)
		p.pdf.Line(x, y+12, x+48, y+12)
		p.pdf.SetDashPattern([]float64{}, 0)
	}
	p.pdf.SetXY(x, y+18)

	if issuer.Name != "" {
		p.color(brandBlue)
		p.pdf.SetFont("Helvetica", "B", 9)
		p.text(w, lineHeight, strings.ToUpper(issuer.Name), "", 1, "L", false)
	}
	if issuer.Company != "" {
		p.color(accentRed)
		p.pdf.SetFont("Helvetica", "I", 9)
		p.text(w, lineHeight, issuer.Company, "", 1, "L", false)
	}
	p.color(textDark)
}
