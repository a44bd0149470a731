// Package currency provides the Currency catalog.
package currency

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/pkg/omr"
)

var isoCodeRE = regexp.MustCompile(`^[A-Z]{3}$`)

// CodeOMR is the accounting currency of every company.
const CodeOMR = "OMR"

// Currency represents a monetary unit.
type Currency struct {
	entity.Catalog

	// ISOCode is the ISO 4217 alphabetic code (e.g., "OMR", "USD")
	ISOCode string `db:"iso_code" json:"isoCode" binding:"required" meta:"label=ISO Code;label_ar=رمز ISO"`

	// ISONumericCode is the ISO 4217 numeric code (512 for OMR)
	ISONumericCode *string `db:"iso_numeric_code" json:"isoNumericCode,omitempty" meta:"label=ISO Numeric Code"`

	Symbol   string `db:"symbol" json:"symbol" meta:"label_ar=الرمز"`
	SymbolAr string `db:"symbol_ar" json:"symbolAr,omitempty" meta:"label=Symbol (Arabic);label_ar=الرمز بالعربية"`

	// MinorUnit names the fraction ("Baisa")
	MinorUnit string `db:"minor_unit" json:"minorUnit,omitempty" meta:"label_ar=الوحدة الفرعية"`

	DecimalPlaces int `db:"decimal_places" json:"decimalPlaces" meta:"label_ar=المنازل العشرية"`

	// IsBase indicates the accounting currency
	IsBase bool `db:"is_base" json:"isBase" meta:"label=Base Currency;label_ar=العملة الأساسية"`
}

// NewCurrency creates a new Currency with two decimal places.
func NewCurrency(isoCode, name, symbol string) *Currency {
	return &Currency{
		Catalog:       entity.NewCatalog(isoCode, name),
		ISOCode:       strings.ToUpper(strings.TrimSpace(isoCode)),
		Symbol:        symbol,
		DecimalPlaces: 2,
	}
}

// NewOMR returns the Omani Rial with Baisa minor units.
func NewOMR() *Currency {
	c := NewCurrency(CodeOMR, "Omani Rial", omr.SymbolEnglish)
	numeric := "512"
	c.ISONumericCode = &numeric
	c.SymbolAr = omr.SymbolArabic
	c.MinorUnit = omr.BaisaEnglish
	c.DecimalPlaces = 3
	c.IsBase = true
	return c
}

// Validate implements entity.Validatable interface.
func (c *Currency) Validate(ctx context.Context) error {
	c.ISOCode = strings.ToUpper(strings.TrimSpace(c.ISOCode))
	if c.Code == "" {
		c.Code = c.ISOCode
	}
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isoCodeRE.MatchString(c.ISOCode) {
		return apperror.NewValidation("ISO code must be 3 uppercase letters").
			WithDetail("field", "isoCode").
			WithDetail("value", c.ISOCode)
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return apperror.NewRequiredFields(map[string]string{"symbol": "required"})
	}
	if c.ISOCode == CodeOMR && c.DecimalPlaces != 3 {
		return apperror.NewValidation("OMR has 3 decimal places").
			WithDetail("field", "decimalPlaces")
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 4 {
		return apperror.NewValidation("decimal places must be between 0 and 4").
			WithDetail("field", "decimalPlaces")
	}
	return nil
}

// Format renders amount for locale. OMR uses the Rial/Baisa formatter.
func (c *Currency) Format(amount decimal.Decimal, locale string) string {
	if c.ISOCode == CodeOMR {
		return omr.Format(amount, omr.Options{Locale: locale})
	}
	s := amount.StringFixed(int32(c.DecimalPlaces))
	if omr.IsArabic(locale) {
		symbol := c.SymbolAr
		if symbol == "" {
			symbol = c.Symbol
		}
		return omr.RLM + omr.ToArabicDigits(s) + " " + symbol
	}
	return c.Symbol + " " + s
}

// Round rounds amount half away from zero to the currency precision.
func (c *Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(int32(c.DecimalPlaces))
}
