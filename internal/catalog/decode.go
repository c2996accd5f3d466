package catalog

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"greenledger.io/greenledger/internal/domain"
)

// ErrInvalidDecimal is returned by ParseDecimal for empty or malformed input.
var ErrInvalidDecimal = errors.New("invalid decimal")

// leafRowMarkers lists the spellings of the "Type Ligne" value that mark an
// actual emission factor row. Published files mix accented and unaccented
// forms. Unknown spellings are rejected, not guessed.
var leafRowMarkers = map[string]struct{}{
	"Élément": {},
	"Elément": {},
	"Element": {},
}

// archivedLabels are the published status labels of a withdrawn factor.
var archivedLabels = map[string]struct{}{
	"Archivé": {},
	"Archive": {},
}

// NewDecodingReader wraps r so ISO-8859-1 input is read as UTF-8.
func NewDecodingReader(r io.Reader) io.Reader {
	return charmap.ISO8859_1.NewDecoder().Reader(r)
}

// ParseDecimal parses a comma-decimal number such as "0,0937" or "-12,5".
// A period separator is accepted as well. NaN and infinities are rejected.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidDecimal
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidDecimal
	}
	return v, nil
}

// ParseOptionalDecimal parses an optional comma-decimal field.
// Empty or malformed input yields nil, never zero.
func ParseOptionalDecimal(s string) *float64 {
	v, err := ParseDecimal(s)
	if err != nil {
		return nil
	}
	return &v
}

// IsLeafRow reports whether a "Type Ligne" value marks an emission factor row.
func IsLeafRow(marker string) bool {
	_, ok := leafRowMarkers[strings.TrimSpace(marker)]
	return ok
}

// ParseStatus maps a published status label to a FactorStatus.
func ParseStatus(label string) domain.FactorStatus {
	label = strings.TrimSpace(label)
	if _, ok := archivedLabels[label]; ok {
		return domain.FactorStatusArchived
	}
	// "Valide générique", "Valide spécifique", "Valid"
	if strings.HasPrefix(strings.ToLower(label), "valid") {
		return domain.FactorStatusValid
	}
	return domain.FactorStatusOther
}
