// Package export produces PDF files for a document: by tiling a rendered
// page image across A4 pages, or by drawing the document natively.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
)

// A4 portrait page size in millimetres.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// MaxPages is the most pages a raster may tile into. Taller rasters are
// rejected with ErrInvalidRaster.
const MaxPages = 50

var (
	// ErrInvalidRaster is returned for empty, undecodable or zero-sized images.
	ErrInvalidRaster = errors.New("export: invalid raster")

	// ErrRender is returned when the PDF writer fails.
	ErrRender = errors.New("export: render failed")
)

// Raster is a rendered page image, as captured by a browser or any other
// rasterizer.
type Raster struct {
	Data   []byte
	Format string // "PNG" or "JPG"
	Width  int    // pixels
	Height int    // pixels
}

// DecodeRaster reads the image header of data to fill in format and size.
func DecodeRaster(data []byte) (Raster, error) {
	if len(data) == 0 {
		return Raster{}, fmt.Errorf("%w: empty image", ErrInvalidRaster)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Raster{}, fmt.Errorf("%w: %w", ErrInvalidRaster, err)
	}

	r := Raster{Data: data, Width: cfg.Width, Height: cfg.Height}
	switch format {
	case "png":
		r.Format = "PNG"
	case "jpeg":
		r.Format = "JPG"
	default:
		return Raster{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidRaster, format)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return Raster{}, fmt.Errorf("%w: zero size", ErrInvalidRaster)
	}
	return r, nil
}

// Layout is where a raster lands on each page.
type Layout struct {
	ImageWidth  float64   // mm, always the page width
	ImageHeight float64   // mm, scaled to keep the aspect ratio
	Offsets     []float64 // vertical offset of the image on page k: -k × page height
}

// Pages returns the number of pages.
func (l Layout) Pages() int { return len(l.Offsets) }

// Paginate scales a widthPx × heightPx image to the page width and tiles it
// down sequential pages until its full height is covered. An image that
// would need more than MaxPages pages is rejected.
func Paginate(widthPx, heightPx int) (Layout, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return Layout{}, fmt.Errorf("%w: size %dx%d", ErrInvalidRaster, widthPx, heightPx)
	}

	l := Layout{
		ImageWidth:  PageWidthMM,
		ImageHeight: float64(heightPx) * PageWidthMM / float64(widthPx),
	}
	if l.ImageHeight > MaxPages*PageHeightMM {
		return Layout{}, fmt.Errorf("%w: size %dx%d needs more than %d pages",
			ErrInvalidRaster, widthPx, heightPx, MaxPages)
	}

	l.Offsets = append(l.Offsets, 0)
	left := l.ImageHeight - PageHeightMM
	for k := 1; left > 0; k++ {
		l.Offsets = append(l.Offsets, -float64(k)*PageHeightMM)
		left -= PageHeightMM
	}
	return l, nil
}
