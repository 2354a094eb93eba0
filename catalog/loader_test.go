package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(t *testing.T, path string, validity time.Duration) *Loader {
	t.Helper()
	l := NewLoader(path, validity, testLogger())
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLoadCSVComma(t *testing.T) {
	path := writeFile(t, t.TempDir(), "produk.csv",
		"PLU,Nama Produk,Barcode\n100,Sugar 1kg,8991002000017\n101,Sugar 2kg,8991002000024\n")
	l := newTestLoader(t, path, time.Minute)

	c, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, ProductRecord{Code: "100", Name: "Sugar 1kg", BarcodeValue: "8991002000017"}, c.Records()[0])
}

func TestLoadCSVSemicolon(t *testing.T) {
	path := writeFile(t, t.TempDir(), "produk.csv",
		"code;name;barcode\n205;Coffee, Ground;12345678\n")
	l := newTestLoader(t, path, time.Minute)

	c, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Coffee, Ground", c.Records()[0].Name)
}

func TestLoadSkipsBlankRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "produk.csv",
		"plu,name,ean\n100,Sugar 1kg,8991002000017\n,,\n")
	l := newTestLoader(t, path, time.Minute)

	c, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "produk.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"PLU", "Nama Produk", "Barcode"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"100", "Sugar 1kg", "8991002000017"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l := newTestLoader(t, path, time.Minute)
	c, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Sugar 1kg", c.Records()[0].Name)
}

func TestLoadMissingFileIsUnavailable(t *testing.T) {
	l := newTestLoader(t, filepath.Join(t.TempDir(), "nope.csv"), time.Minute)

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoadBadHeaderIsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "produk.csv",
		"foo,bar,baz\n1,2,3\n")
	l := newTestLoader(t, path, time.Minute)

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoadReusesSnapshotWithinValidity(t *testing.T) {
	path := writeFile(t, t.TempDir(), "produk.csv",
		"plu,name,barcode\n100,Sugar 1kg,8991002000017\n")
	l := newTestLoader(t, path, time.Hour)

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadRebuildsAfterExpiry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "produk.csv",
		"plu,name,barcode\n100,Sugar 1kg,8991002000017\n")
	l := newTestLoader(t, path, time.Nanosecond)

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	writeFile(t, dir, "produk.csv",
		"plu,name,barcode\n100,Sugar 1kg,8991002000017\n101,Sugar 2kg,8991002000024\n")
	time.Sleep(10 * time.Millisecond)

	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())
}

func TestLoadServesPreviousSnapshotOnSourceFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "produk.csv",
		"plu,name,barcode\n100,Sugar 1kg,8991002000017\n")
	l := newTestLoader(t, path, time.Nanosecond)

	first, err := l.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	time.Sleep(10 * time.Millisecond)

	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter("a;b;c\n1;2;3"))
	assert.Equal(t, ',', sniffDelimiter("a,b,c"))
	assert.Equal(t, ',', sniffDelimiter("single"))
}

func TestMapColumnsAliases(t *testing.T) {
	cm, ok := mapColumns([]string{"Kode", "Nama", "EAN"})
	require.True(t, ok)
	assert.Equal(t, columnMap{code: 0, name: 1, barcode: 2}, cm)

	_, ok = mapColumns([]string{"Kode", "Nama"})
	assert.False(t, ok)
}
