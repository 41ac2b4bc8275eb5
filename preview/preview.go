// Package preview renders a document as a printable A4 HTML page. The page
// is what a browser rasterizes before the image is tiled into a PDF.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/xraph/invoicer/document"
)

// ContentType of every rendered page.
const ContentType = "text/html; charset=utf-8"

// ElementID is the id of the element a rasterizer should capture.
const ElementID = "pdf-content"

// Preview renders documents as HTML.
type Preview struct {
	issuer     document.Issuer
	letterhead string
}

// Option configures a Preview.
type Option func(*Preview)

// WithIssuer sets the name and company printed under the signature.
func WithIssuer(issuer document.Issuer) Option {
	return func(p *Preview) { p.issuer = issuer }
}

// WithLetterhead sets the background image URL of the page.
func WithLetterhead(url string) Option {
	return func(p *Preview) { p.letterhead = url }
}

// New creates a Preview.
func New(opts ...Option) *Preview {
	p := &Preview{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Preview) Name() string { return "html-preview" }

// Format implements plugin.DocumentFormatter.
func (p *Preview) Format() string { return "html" }

// ContentType implements plugin.DocumentFormatter.
func (p *Preview) ContentType() string { return ContentType }

// Render implements plugin.DocumentFormatter. It writes a complete HTML page.
func (p *Preview) Render(ctx context.Context, view document.View, w io.Writer) error {
	return p.Page(view).Render(ctx, w)
}

// Page returns the full HTML page for view.
func (p *Preview) Page(view document.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := view.Record.Kind.Label() + " " + view.Record.Number
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), stylesheet); err != nil {
			return err
		}
		if err := p.Document(view).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// Document returns the printable document element, without a page shell,
// for embedding in another template.
func (p *Preview) Document(view document.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{}
		p.write(h, view)
		if h.err != nil {
			return h.err
		}
		_, err := w.Write(h.buf.Bytes())
		return err
	})
}

func (p *Preview) write(h *html, view document.View) {
	r := view.Record

	style := ""
	if p.letterhead != "" {
		style = fmt.Sprintf(` style="background-image:url('%s')"`, templ.EscapeString(p.letterhead))
	}
	h.raw(`<div id="` + ElementID + `" class="sheet"` + style + `><div class="content">`)

	// Header
	h.raw(`<div class="header"><h2>`)
	h.text(strings.ToUpper(r.Kind.Label()))
	h.raw(`</h2>`)
	h.field("No:", r.Number)
	h.field("Date:", document.DisplayDate(r.IssueDate))
	if r.ShowsPaymentTerms() {
		h.field("Due Date:", document.DisplayDate(r.DueDate))
	}
	h.raw(`</div>`)

	// Client
	c := r.Client
	h.raw(`<div class="client"><h3>To:</h3>`)
	if c.Title != "" {
		h.tag("p", "title", c.Title)
	}
	h.tag("p", "name", c.Name)
	if c.Company != "" {
		h.tag("p", "", c.Company)
	}
	h.tag("p", "address", c.Address)
	if c.Email != "" {
		h.tag("p", "", "Email: "+c.Email)
	}
	if c.Phone != "" {
		h.tag("p", "", "Phone: "+c.Phone)
	}
	h.raw(`</div>`)

	// Items
	symbol := "₦"
	h.raw(`<table class="items"><thead><tr>`)
	for _, th := range []string{"S/N", "QTY", "UNIT", "DESCRIPTION", "RATE (" + symbol + ")", "AMOUNT (" + symbol + ")"} {
		h.tag("th", "", th)
	}
	h.raw(`</tr></thead><tbody>`)
	for i, it := range r.Items {
		h.raw(`<tr>`)
		h.tag("td", "", strconv.Itoa(i+1))
		h.tag("td", "", strconv.FormatInt(it.Quantity, 10))
		h.tag("td", "", it.Unit)
		h.tag("td", "", it.Description)
		h.tag("td", "num", it.Rate.FormatGrouped())
		h.tag("td", "num strong", it.Amount.FormatGrouped())
		h.raw(`</tr>`)
	}
	h.raw(`</tbody><tfoot>`)
	h.totalRow("", "Subtotal", r.Subtotal.FormatGrouped())
	if r.ShowsTax() {
		h.totalRow("", "VAT ("+r.TaxRate.String()+"%)", r.Tax.FormatGrouped())
	}
	h.totalRow("total", "Total", r.Total.String())
	h.raw(`</tfoot></table>`)

	// Amount in words
	h.raw(`<div class="words"><p><strong>AMOUNT IN WORDS:</strong> `)
	h.text(view.AmountInWords)
	h.raw(`</p></div>`)

	if r.ShowsPaymentTerms() && r.PaymentTerms != "" {
		h.raw(`<div class="terms"><h3>Payment Terms:</h3>`)
		h.tag("p", "", r.PaymentTerms)
		h.raw(`</div>`)
	}

	// Signature
	h.raw(`<div class="signature"><p>Thanks,</p>`)
	if r.Signature != nil && r.Signature.Image != "" {
		h.raw(`<img alt="Signature" src="`)
		h.text(r.Signature.Image)
		h.raw(`">`)
	} else {
		h.raw(`<div class="sign-line"></div>`)
	}
	if p.issuer.Name != "" {
		h.tag("p", "issuer", strings.ToUpper(p.issuer.Name))
	}
	if p.issuer.Company != "" {
		h.tag("p", "company", p.issuer.Company)
	}
	h.raw(`</div>`)

	h.raw(`</div></div>`)
}

// html accumulates markup; text is always escaped.
type html struct {
	buf bytes.Buffer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = h.buf.WriteString(s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) tag(name, class, s string) {
	if class != "" {
		h.raw(`<` + name + ` class="` + class + `">`)
	} else {
		h.raw(`<` + name + `>`)
	}
	h.text(s)
	h.raw(`</` + name + `>`)
}

func (h *html) field(label, value string) {
	h.raw(`<p><strong>` + label + `</strong> `)
	h.text(value)
	h.raw(`</p>`)
}

func (h *html) totalRow(class, label, value string) {
	if class != "" {
		h.raw(`<tr class="` + class + `">`)
	} else {
		h.raw(`<tr>`)
	}
	h.raw(`<td colspan="4"></td>`)
	h.tag("td", "num strong", label)
	h.tag("td", "num strong", value)
	h.raw(`</tr>`)
}

const stylesheet = `
body{margin:0;background:#f3f4f6;font-family:'DM Sans',Helvetica,Arial,sans-serif;color:#1f2937}
.sheet{width:210mm;min-height:297mm;margin:0 auto;background:#fff no-repeat center/100% 100%;box-sizing:border-box}
.content{padding:100px 40px 140px}
.header{text-align:right;margin-bottom:24px}
.header h2{margin:0;font-size:24px;color:#1e3a8a}
.header p,.words p,.terms p,.signature p{margin:2px 0;font-size:14px}
.client{margin-bottom:24px}.client h3{margin:0 0 4px;font-size:16px}.client p{margin:2px 0}
.client .name{font-weight:700}
table.items{width:100%;border-collapse:collapse;font-size:14px;margin-bottom:24px}
.items th,.items td{border:1px solid #d1d5db;padding:4px 8px;text-align:left}
.items thead tr,.items tr.total{background:#1e3a8a;color:#fff}
.items .num{text-align:right}.items .strong{font-weight:600}
.words{border-top:1px solid #d1d5db;border-bottom:1px solid #d1d5db;padding:8px 0;margin-bottom:24px}
.terms h3{margin:0 0 4px;font-size:14px}
.signature{margin-top:32px}.signature img{max-height:64px;margin:4px 0}
.sign-line{height:48px;width:192px;margin:4px 0;border-bottom:1px dotted #9ca3af}
.signature .issuer{font-weight:700;color:#1e3a8a}.signature .company{font-style:italic;color:#dc2626}
@media print{body{background:#fff}.sheet{margin:0}}
`
