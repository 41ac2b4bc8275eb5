package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/id"
)

// ContentType is the MIME type of every export.
const ContentType = "application/pdf"

// Result is a finished export. Pages is 0 when the producer cannot tell.
type Result struct {
	ID          id.ExportID   `json:"id"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Pages       int           `json:"pages"`
	Size        int           `json:"size"`
	Elapsed     time.Duration `json:"elapsed"`
	Data        []byte        `json:"-"`
}

// Exporter tiles rendered page images into PDFs.
type Exporter struct {
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures an Exporter or a Renderer.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	clock      func() time.Time
	issuer     document.Issuer
	letterhead []byte
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the time source used to stamp PDF metadata.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIssuer sets the name and company printed under the signature.
// Only the native Renderer uses it.
func WithIssuer(issuer document.Issuer) Option {
	return func(o *options) { o.issuer = issuer }
}

// WithLetterhead sets a full-page PNG or JPEG background drawn behind the
// first page. Only the native Renderer uses it.
func WithLetterhead(image []byte) Option {
	return func(o *options) { o.letterhead = image }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewExporter creates an Exporter.
func NewExporter(opts ...Option) *Exporter {
	o := buildOptions(opts)
	return &Exporter{logger: o.logger, clock: o.clock}
}

// Tile builds a PDF from a raster of the rendered document. The image is
// scaled to the A4 page width; page k shows it shifted up by k page heights.
func (e *Exporter) Tile(ctx context.Context, view document.View, r Raster) (*Result, error) {
	start := e.clock()

	if r.Format == "" || r.Width <= 0 || r.Height <= 0 {
		decoded, err := DecodeRaster(r.Data)
		if err != nil {
			return nil, err
		}
		r = decoded
	}

	layout, err := Paginate(r.Width, r.Height)
	if err != nil {
		return nil, err
	}

	pdf := newPDF(view, e.clock())
	opt := gofpdf.ImageOptions{ImageType: r.Format}
	const name = "page"
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(r.Data))

	for _, offset := range layout.Offsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		pdf.ImageOptions(name, 0, offset, layout.ImageWidth, layout.ImageHeight, false, opt, 0, "")
	}

	res, err := finish(pdf, view)
	if err != nil {
		return nil, err
	}
	res.Elapsed = e.clock().Sub(start)

	e.logger.Debug("raster tiled",
		"filename", res.Filename,
		"pages", res.Pages,
		"raster_width", r.Width,
		"raster_height", r.Height,
	)
	return res, nil
}

// newPDF returns an A4 portrait document with no margins or automatic
// breaks, stamped with the document's metadata.
func newPDF(view document.View, now time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(view.Record.Kind.Label()+" "+view.Record.Number, true)
	pdf.SetSubject(view.AmountInWords, true)
	pdf.SetCreator("invoicer", true)
	pdf.SetCreationDate(now)
	return pdf
}

func finish(pdf *gofpdf.Fpdf, view document.View) (*Result, error) {
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	return &Result{
		ID:          id.NewExportID(),
		Filename:    view.Record.Filename(),
		ContentType: ContentType,
		Pages:       pdf.PageCount(),
		Size:        buf.Len(),
		Data:        buf.Bytes(),
	}, nil
}
