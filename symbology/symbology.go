// Package symbology decides which barcode encoding scheme a payload uses.
//
// The decision is a closed tagged variant selected by a pure function, not a
// runtime registry: every payload maps to exactly one of EAN13, EAN8 or
// Code128, and the choice depends only on length and character class. No
// checksum validation happens here; an invalid EAN check digit is an encoder
// failure at render time.
package symbology

// Symbology is a barcode encoding scheme.
type Symbology string

const (
	EAN13   Symbology = "ean13"
	EAN8    Symbology = "ean8"
	Code128 Symbology = "code128"
)

// Select maps a barcode payload to its encoding scheme:
// 13 digits -> EAN13, 8 digits -> EAN8, anything else -> Code128.
func Select(value string) Symbology {
	switch {
	case len(value) == 13 && allDigits(value):
		return EAN13
	case len(value) == 8 && allDigits(value):
		return EAN8
	default:
		return Code128
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
