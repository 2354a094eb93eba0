// Package render turns product records into labeled barcode PNGs and caches
// them content-addressed on disk.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/t8nr/plubot/catalog"
	"github.com/t8nr/plubot/metrics"
	"github.com/t8nr/plubot/symbology"
)

// ErrInvalidInput indicates the selected symbology's encoder rejected the
// barcode payload (non-digit payload in a numeric scheme, or an EAN check
// digit mismatch). It is surfaced to the caller, never silently degraded to
// another symbology.
var ErrInvalidInput = errors.New("invalid symbology input")

// Renderer produces the PNG bytes for one product record.
type Renderer interface {
	Render(rec catalog.ProductRecord) ([]byte, error)
}

// ImageRenderer encodes the record's barcode value in the scheme chosen by
// symbology.Select and composes it with the product name above and the raw
// value below, mirroring the printed shelf labels the bot replaces.
type ImageRenderer struct {
	// BarWidth and BarHeight are the scaled barcode dimensions in pixels.
	BarWidth  int
	BarHeight int
}

const (
	defaultBarWidth  = 400
	defaultBarHeight = 160
	marginX          = 10
	captionHeight    = 30
)

// NewImageRenderer returns an ImageRenderer with default dimensions.
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{BarWidth: defaultBarWidth, BarHeight: defaultBarHeight}
}

// Render implements Renderer.
func (r *ImageRenderer) Render(rec catalog.ProductRecord) ([]byte, error) {
	sym := symbology.Select(rec.BarcodeValue)
	start := time.Now()

	code, err := encode(sym, rec.BarcodeValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload %q: %v", ErrInvalidInput, sym, rec.BarcodeValue, err)
	}

	barW, barH := r.BarWidth, r.BarHeight
	if barW <= 0 {
		barW = defaultBarWidth
	}
	if barH <= 0 {
		barH = defaultBarHeight
	}
	scaled, err := barcode.Scale(code, barW, barH)
	if err != nil {
		return nil, fmt.Errorf("scale %s barcode: %w", sym, err)
	}

	img := compose(scaled, rec.Name, rec.BarcodeValue, barW, barH)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	metrics.ObserveRender(string(sym), start)
	return buf.Bytes(), nil
}

func encode(sym symbology.Symbology, value string) (barcode.Barcode, error) {
	switch sym {
	case symbology.EAN13, symbology.EAN8:
		// ean.Encode validates the check digit for full-length payloads.
		return ean.Encode(value)
	default:
		return code128.Encode(value)
	}
}

// compose lays out name caption, barcode, and value caption on a white
// canvas.
func compose(code barcode.Barcode, name, value string, barW, barH int) image.Image {
	width := barW + 2*marginX
	height := barH + 2*captionHeight
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	draw.Draw(img,
		image.Rect(marginX, captionHeight, marginX+barW, captionHeight+barH),
		code, code.Bounds().Min, draw.Over)

	drawCaption(img, name, marginX, captionHeight-10)
	drawCaption(img, value, marginX, height-10)
	return img
}

func drawCaption(img *image.RGBA, text string, x, baseline int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}
