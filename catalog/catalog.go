// Package catalog loads and publishes immutable product catalog snapshots.
package catalog

import "errors"

var (
	// ErrUnavailable indicates the catalog source could not be read or parsed.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrMalformed indicates the source was readable but the required
	// code/name/barcode columns could not be located in any row.
	ErrMalformed = errors.New("catalog malformed")
)

// ProductRecord is one catalog row. Immutable for the lifetime of the
// snapshot that contains it.
type ProductRecord struct {
	Code         string `json:"code" yaml:"code"`
	Name         string `json:"name" yaml:"name"`
	BarcodeValue string `json:"barcode_value" yaml:"barcode_value"`
}

// Catalog is an ordered, read-only snapshot of product records. A snapshot is
// rebuilt wholesale on load; callers never mutate it. Uniqueness of Code is
// assumed but not enforced here.
type Catalog struct {
	records []ProductRecord
}

// New builds a snapshot from records. The slice is copied so later mutation
// by the caller cannot leak into a published snapshot.
func New(records []ProductRecord) *Catalog {
	cp := make([]ProductRecord, len(records))
	copy(cp, records)
	return &Catalog{records: cp}
}

// Len returns the number of records in the snapshot.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns the snapshot's records in catalog order. The returned
// slice must be treated as read-only.
func (c *Catalog) Records() []ProductRecord { return c.records }

// ByCode returns the first record whose Code equals code.
func (c *Catalog) ByCode(code string) (ProductRecord, bool) {
	for _, r := range c.records {
		if r.Code == code {
			return r, true
		}
	}
	return ProductRecord{}, false
}
