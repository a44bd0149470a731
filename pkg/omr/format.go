// Package omr formats and parses Omani Rial amounts.
//
// OMR has three fraction digits (1 OMR = 1000 Baisa). English output uses the
// ISO code before the amount ("OMR 1,234.500"); Arabic output uses
// Arabic-Indic digits, the Arabic decimal and thousands separators and the
// "ر.ع." symbol after the amount, prefixed with a right-to-left mark.
package omr

import (
	"strings"

	"github.com/shopspring/decimal"

	"workshop/internal/core/types"
)

const (
	SymbolEnglish = "OMR"
	SymbolArabic  = "ر.ع."
	BaisaEnglish  = "Baisa"
	BaisaArabic   = "بيسة"

	// RLM is the Unicode RIGHT-TO-LEFT MARK.
	RLM = "\u200f"

	arabicDecimalSep = '\u066b'
	arabicGroupSep   = '\u066c'
)

// Options controls Format.
type Options struct {
	// Locale is a BCP 47 tag; any Arabic tag selects Arabic output
	Locale string
	// HideSymbol omits "OMR" / "ر.ع."
	HideSymbol bool
	// NoGrouping omits thousands separators
	NoGrouping bool
	// BaisaBelowOne renders amounts with |amount| < 1 OMR in Baisa
	BaisaBelowOne bool
	// NoRTLMark omits the leading RLM in Arabic output
	NoRTLMark bool
}

// Format renders amount rounded half away from zero to 3 decimals.
func Format(amount decimal.Decimal, opts Options) string {
	arabic := IsArabic(opts.Locale)
	rounded := types.RoundOMR(amount)

	if opts.BaisaBelowOne && !rounded.IsZero() && rounded.Abs().LessThan(decimal.NewFromInt(1)) {
		return FormatBaisa(types.BaisaFromOMR(rounded), opts.Locale)
	}

	neg := rounded.IsNegative()
	digits := rounded.Abs().StringFixed(types.OMRScale)
	intPart, fracPart, _ := strings.Cut(digits, ".")

	groupSep, decSep := ",", "."
	if arabic {
		groupSep, decSep = string(arabicGroupSep), string(arabicDecimalSep)
	}
	if !opts.NoGrouping {
		intPart = group(intPart, groupSep)
	}

	var b strings.Builder
	if arabic {
		if !opts.NoRTLMark {
			b.WriteString(RLM)
		}
		if neg {
			b.WriteByte('-')
		}
		b.WriteString(ToArabicDigits(intPart))
		b.WriteString(decSep)
		b.WriteString(ToArabicDigits(fracPart))
		if !opts.HideSymbol {
			b.WriteByte(' ')
			b.WriteString(SymbolArabic)
		}
		return b.String()
	}

	if !opts.HideSymbol {
		b.WriteString(SymbolEnglish)
		b.WriteByte(' ')
	}
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(intPart)
	b.WriteString(decSep)
	b.WriteString(fracPart)
	return b.String()
}

// FormatEnglish renders "OMR 1,234.500".
func FormatEnglish(amount decimal.Decimal) string {
	return Format(amount, Options{Locale: LocaleEnglish})
}

// FormatArabic renders "‏١٬٢٣٤٫٥٠٠ ر.ع.".
func FormatArabic(amount decimal.Decimal) string {
	return Format(amount, Options{Locale: LocaleArabic})
}

// FormatBaisa renders minor units with the Baisa suffix: "500 Baisa" or "‏٥٠٠ بيسة".
func FormatBaisa(b types.Baisa, locale string) string {
	sign := ""
	if b.IsNegative() {
		sign = "-"
	}
	n := decimal.NewFromInt(int64(b.Abs())).String()

	if IsArabic(locale) {
		return RLM + sign + ToArabicDigits(n) + " " + BaisaArabic
	}
	return sign + n + " " + BaisaEnglish
}

// Split returns the whole Rials and the remaining Baisa of amount, both
// carrying the sign of amount.
func Split(amount decimal.Decimal) (rials int64, baisa int64) {
	total := int64(types.BaisaFromOMR(amount))
	return total / types.BaisaPerRial, total % types.BaisaPerRial
}

func group(intPart, sep string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String()
}
