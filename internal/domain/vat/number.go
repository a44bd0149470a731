package vat

import (
	"regexp"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/pkg/omr"
)

// NumberPattern is the Oman VAT registration number format: "OM" followed by
// ten digits.
var NumberPattern = regexp.MustCompile(`^OM\d{10}$`)

var numberCleaner = strings.NewReplacer(" ", "", "-", "", "\u00a0", "", "\t", "")

// NormalizeNumber trims the input, drops spaces and dashes, converts Arabic
// digits and uppercases it.
func NormalizeNumber(raw string) string {
	s := numberCleaner.Replace(strings.TrimSpace(raw))
	return strings.ToUpper(omr.ToLatinDigits(s))
}

// IsValidNumber reports whether raw is a valid number after normalization.
func IsValidNumber(raw string) bool {
	return NumberPattern.MatchString(NormalizeNumber(raw))
}

// ValidateNumber normalizes raw and checks it against NumberPattern.
// field names the input in the INVALID_VAT_NUMBER error.
func ValidateNumber(field, raw string) (string, error) {
	n := NormalizeNumber(raw)
	if n == "" {
		return "", apperror.NewRequiredFields(map[string]string{field: "required"})
	}
	if !NumberPattern.MatchString(n) {
		return "", apperror.NewInvalidVATNumber(field, raw)
	}
	return n, nil
}
