package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8nr/plubot/catalog"
)

func TestPresentRoundTrip(t *testing.T) {
	records := []catalog.ProductRecord{
		{Code: "100", Name: "Sugar 1kg", BarcodeValue: "8991002000017"},
		{Code: "101", Name: "Sugar 2kg", BarcodeValue: "8991002000024"},
		{Code: "102", Name: "Sugar 5kg", BarcodeValue: "8991002000031"},
	}
	c := catalog.New(records)

	opts := Present(records)
	require.Len(t, opts, 3)

	seen := map[string]bool{}
	for i, opt := range opts {
		assert.False(t, seen[opt.Token], "tokens must be distinct")
		seen[opt.Token] = true

		rec, err := ResolveSelection(c, opt.Token)
		require.NoError(t, err)
		assert.Equal(t, records[i], rec)
	}
}

func TestPresentLabelFormat(t *testing.T) {
	opts := Present([]catalog.ProductRecord{{Code: "100", Name: "Sugar 1kg"}})
	require.Len(t, opts, 1)
	assert.Equal(t, "100 — Sugar 1kg", opts[0].Label)
	assert.Equal(t, "100", opts[0].Token)
}

func TestPresentTokenIsCodeNotBarcode(t *testing.T) {
	// Two products sharing a barcode value must still get distinct tokens.
	opts := Present([]catalog.ProductRecord{
		{Code: "100", Name: "Sugar 1kg", BarcodeValue: "8991002000017"},
		{Code: "101", Name: "Sugar 1kg twin", BarcodeValue: "8991002000017"},
	})
	require.Len(t, opts, 2)
	assert.NotEqual(t, opts[0].Token, opts[1].Token)
}

func TestResolveSelectionAgainstChangedCatalog(t *testing.T) {
	// The catalog was reloaded between the two turns and the record is
	// gone; that is expected churn, not a crash.
	c := catalog.New([]catalog.ProductRecord{{Code: "200", Name: "Tea"}})

	_, err := ResolveSelection(c, "100")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelectionNotFound)
}

func TestPresentEmpty(t *testing.T) {
	assert.Empty(t, Present(nil))
}
