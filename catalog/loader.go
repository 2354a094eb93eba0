package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/t8nr/plubot/metrics"
)

// DefaultValidity is the snapshot reuse window when none is configured.
const DefaultValidity = 30 * time.Second

// Loader reads the catalog source file and publishes immutable snapshots.
// Loads within the validity window return the previously published snapshot;
// a filesystem event on the source invalidates the window early. Publication
// is load-then-swap, so readers never observe a half-built catalog.
type Loader struct {
	path     string
	validity time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex // serializes slow-path reloads
	current atomic.Pointer[snapshot]
	stale   atomic.Bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

type snapshot struct {
	cat      *Catalog
	loadedAt time.Time
}

// NewLoader creates a Loader for the given source file. A best-effort
// fsnotify watch is installed on the file's directory; if watching fails the
// loader still works, relying on the validity window alone.
func NewLoader(path string, validity time.Duration, log *zap.SugaredLogger) *Loader {
	if validity <= 0 {
		validity = DefaultValidity
	}
	l := &Loader{
		path:     path,
		validity: validity,
		log:      log,
		done:     make(chan struct{}),
	}
	w, err := fsnotify.NewWatcher()
	if err == nil {
		// Watch the directory, not the file: editors and atomic writers
		// replace the file, which drops a direct watch.
		if err = w.Add(filepath.Dir(path)); err == nil {
			l.watcher = w
			go l.watch()
		} else {
			_ = w.Close()
		}
	}
	if l.watcher == nil {
		log.Warnw("catalog watch unavailable, relying on validity window", "path", path, "error", err)
	}
	return l
}

// Close stops the filesystem watch.
func (l *Loader) Close() error {
	close(l.done)
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

func (l *Loader) watch() {
	base := filepath.Base(l.path)
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				l.stale.Store(true)
				l.log.Debugw("catalog source changed", "event", ev.Op.String())
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warnw("catalog watch error", "error", err)
		}
	}
}

// Load returns a consistent catalog snapshot, reloading from the source when
// the cached one has expired or the source changed.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	if s := l.current.Load(); s != nil && !l.stale.Load() && time.Since(s.loadedAt) < l.validity {
		return s.cat, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another caller may have reloaded while we waited.
	if s := l.current.Load(); s != nil && !l.stale.Load() && time.Since(s.loadedAt) < l.validity {
		return s.cat, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := l.read()
	if err != nil {
		metrics.IncCatalogReload("error")
		// Serve the previous snapshot if we have one; always-fresh is a
		// goal, a half-dead source is not a reason to stop answering.
		if s := l.current.Load(); s != nil {
			l.log.Warnw("catalog reload failed, serving previous snapshot", "error", err)
			return s.cat, nil
		}
		return nil, err
	}

	cat := New(records)
	l.current.Store(&snapshot{cat: cat, loadedAt: time.Now()})
	l.stale.Store(false)
	metrics.IncCatalogReload("ok")
	metrics.ObserveCatalogSize(cat.Len())
	l.log.Infow("catalog loaded", "path", l.path, "records", cat.Len())
	return cat, nil
}

func (l *Loader) read() ([]ProductRecord, error) {
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx", ".xlsm":
		return l.readXLSX()
	default:
		return l.readCSV()
	}
}

func (l *Loader) readCSV() ([]ProductRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, l.path, err)
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, l.path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek %s: %v", ErrUnavailable, l.path, err)
	}

	r := csv.NewReader(f)
	r.Comma = sniffDelimiter(string(head[:n]))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, l.path, err)
	}
	return rowsToRecords(rows)
}

func (l *Loader) readXLSX() ([]ProductRecord, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, l.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrMalformed, l.path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnavailable, sheets[0], err)
	}
	return rowsToRecords(rows)
}

// sniffDelimiter picks the CSV delimiter from the header line. Semicolon
// wins when present since comma is common inside product names.
func sniffDelimiter(head string) rune {
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if strings.Count(head, ";") > 0 {
		return ';'
	}
	return ','
}

// Column role aliases, matched case-insensitively against the header row.
// The original source carried Indonesian headers (PLU / Nama Produk / Barcode).
var (
	codeAliases    = []string{"plu", "code", "kode", "kode plu", "product code"}
	nameAliases    = []string{"name", "nama", "nama produk", "product", "product name"}
	barcodeAliases = []string{"barcode", "barcodevalue", "barcode_value", "barcode value", "ean"}
)

type columnMap struct {
	code, name, barcode int
}

func mapColumns(header []string) (columnMap, bool) {
	cm := columnMap{code: -1, name: -1, barcode: -1}
	match := func(cell string, aliases []string) bool {
		cell = strings.ToLower(strings.TrimSpace(cell))
		for _, a := range aliases {
			if cell == a {
				return true
			}
		}
		return false
	}
	for i, cell := range header {
		switch {
		case cm.code < 0 && match(cell, codeAliases):
			cm.code = i
		case cm.name < 0 && match(cell, nameAliases):
			cm.name = i
		case cm.barcode < 0 && match(cell, barcodeAliases):
			cm.barcode = i
		}
	}
	return cm, cm.code >= 0 && cm.name >= 0 && cm.barcode >= 0
}

func rowsToRecords(rows [][]string) ([]ProductRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: source is empty", ErrMalformed)
	}
	cm, ok := mapColumns(rows[0])
	if !ok {
		return nil, fmt.Errorf("%w: header %v lacks code/name/barcode columns", ErrMalformed, rows[0])
	}

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	records := make([]ProductRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := ProductRecord{
			Code:         cell(row, cm.code),
			Name:         cell(row, cm.name),
			BarcodeValue: cell(row, cm.barcode),
		}
		if rec.Code == "" && rec.Name == "" {
			continue // blank padding row
		}
		records = append(records, rec)
	}
	return records, nil
}
