// Package catalogs holds helpers shared by the reference-data catalogs.
package catalogs

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"workshop/internal/core/apperror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone strips formatting and adds the Oman country code to local
// eight-digit numbers: "9123 4567" -> "+96891234567".
func NormalizePhone(raw string) string {
	p := phoneCleaner.Replace(strings.TrimSpace(raw))
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "00"):
		return "+" + p[2:]
	case len(p) == 8 && !strings.HasPrefix(p, "+"):
		return "+968" + p
	}
	return p
}

// ValidatePhone normalizes *p in place and checks it is an E.164 number.
func ValidatePhone(field string, p *string) error {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	*p = NormalizePhone(*p)
	if err := validate.Var(*p, "e164"); err != nil {
		return apperror.NewValidation("invalid phone number").
			WithDetail("field", field).
			WithDetail("value", *p)
	}
	return nil
}

// ValidateEmail trims *e in place and checks its format.
func ValidateEmail(field string, e *string) error {
	if e == nil || strings.TrimSpace(*e) == "" {
		return nil
	}
	*e = strings.ToLower(strings.TrimSpace(*e))
	if err := validate.Var(*e, "email"); err != nil {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", field)
	}
	return nil
}

// CRNumberMaxLen bounds the commercial registration number.
const CRNumberMaxLen = 20

// ValidateCRNumber checks an optional Commercial Registration number: digits
// only, at most CRNumberMaxLen.
func ValidateCRNumber(field string, cr *string) error {
	if cr == nil {
		return nil
	}
	*cr = strings.TrimSpace(*cr)
	if *cr == "" {
		return nil
	}
	if len(*cr) > CRNumberMaxLen {
		return apperror.NewFieldTooLong(field, len(*cr), CRNumberMaxLen)
	}
	if err := validate.Var(*cr, "numeric"); err != nil {
		return apperror.NewValidation("commercial registration number must contain digits only").
			WithDetail("field", field)
	}
	return nil
}
