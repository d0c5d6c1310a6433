// Package gstin holds the single structural definition of an Indian GST
// identification number. Every caller that needs to accept or reject a GSTIN
// (verification pre-flight, client record validation, the CLI) goes through
// Valid or Parse so the grammar cannot drift between call sites.
package gstin

import (
	"regexp"

	dErrors "turia/pkg/domain-errors"
)

// Length is the fixed length of a GSTIN.
const Length = 15

// Positions 1-2 state code, 3-7 letters, 8-11 digits, 12 letter (together the
// PAN), 13 entity number (1-9 or A-Z), 14 literal Z, 15 check character.
var pattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// GSTIN is a structurally valid identifier. Obtain one through Parse.
type GSTIN string

// Valid reports whether candidate matches the GSTIN grammar exactly.
// It is case sensitive: lowercase input is rejected, never normalized.
func Valid(candidate string) bool {
	if len(candidate) != Length {
		return false
	}
	return pattern.MatchString(candidate)
}

// Parse validates s and returns it as a GSTIN.
func Parse(s string) (GSTIN, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "GSTIN is required")
	}
	if !Valid(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "Invalid GSTIN format. GSTIN must be 15 characters.")
	}
	return GSTIN(s), nil
}

func (g GSTIN) String() string {
	return string(g)
}

// StateCode returns the two-digit state code prefix.
func (g GSTIN) StateCode() string {
	if len(g) != Length {
		return ""
	}
	return string(g[:2])
}

// PAN returns the embedded ten-character PAN.
func (g GSTIN) PAN() string {
	if len(g) != Length {
		return ""
	}
	return string(g[2:12])
}

// Mask hides the PAN body for logging, keeping the state code and the last
// three characters. Input of the wrong length masks to "***".
func Mask(candidate string) string {
	if len(candidate) != Length {
		return "***"
	}
	return candidate[:2] + "**********" + candidate[12:]
}
