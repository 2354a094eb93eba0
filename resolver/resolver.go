// Package resolver matches a free-text or exact-code query against a catalog
// snapshot.
package resolver

import (
	"strings"
	"unicode"

	"github.com/t8nr/plubot/catalog"
)

// Mode names the matching rule a query was resolved under.
type Mode string

const (
	// ModeCode is exact equality against the PLU code, chosen for
	// all-digit queries.
	ModeCode Mode = "code"
	// ModeName is case-insensitive substring containment against the
	// product name, chosen for everything else.
	ModeName Mode = "name"
)

// ModeFor returns the matching mode a query will be resolved under. The two
// modes are mutually exclusive: an all-digit query never falls back to a
// name match, even when it matches no code.
func ModeFor(query string) Mode {
	if isDigits(query) {
		return ModeCode
	}
	return ModeName
}

// Resolve returns the candidate records for query in catalog order. An empty
// result is a valid value, not an error.
func Resolve(c *catalog.Catalog, query string) []catalog.ProductRecord {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var out []catalog.ProductRecord
	switch ModeFor(query) {
	case ModeCode:
		for _, r := range c.Records() {
			if r.Code == query {
				out = append(out, r)
			}
		}
	case ModeName:
		needle := strings.ToLower(query)
		for _, r := range c.Records() {
			if strings.Contains(strings.ToLower(r.Name), needle) {
				out = append(out, r)
			}
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
