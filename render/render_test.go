package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8nr/plubot/catalog"
)

func TestImageRendererEAN13(t *testing.T) {
	r := NewImageRenderer()
	b, err := r.Render(catalog.ProductRecord{
		Code: "100", Name: "Sugar 1kg", BarcodeValue: "4006381333931",
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, defaultBarWidth+2*marginX, bounds.Dx())
	assert.Equal(t, defaultBarHeight+2*captionHeight, bounds.Dy())
}

func TestImageRendererEAN8(t *testing.T) {
	r := NewImageRenderer()
	b, err := r.Render(catalog.ProductRecord{
		Code: "200", Name: "Tea", BarcodeValue: "96385074",
	})
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(b))
	assert.NoError(t, err)
}

func TestImageRendererCode128(t *testing.T) {
	r := NewImageRenderer()
	b, err := r.Render(catalog.ProductRecord{
		Code: "300", Name: "Promo Pack", BarcodeValue: "ABC-99",
	})
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(b))
	assert.NoError(t, err)
}

func TestImageRendererBadEANChecksum(t *testing.T) {
	r := NewImageRenderer()
	// 13 digits selects EAN13, whose encoder rejects the wrong check digit.
	_, err := r.Render(catalog.ProductRecord{
		Code: "400", Name: "Broken", BarcodeValue: "4006381333930",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImageRendererDeterministic(t *testing.T) {
	r := NewImageRenderer()
	rec := catalog.ProductRecord{Code: "100", Name: "Sugar 1kg", BarcodeValue: "96385074"}

	a, err := r.Render(rec)
	require.NoError(t, err)
	b, err := r.Render(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
