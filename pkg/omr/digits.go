package omr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"workshop/internal/core/types"
)

// ToArabicDigits replaces ASCII digits with Arabic-Indic digits (U+0660..U+0669).
func ToArabicDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '\u0660' + (r - '0')
		}
		return r
	}, s)
}

// ToLatinDigits replaces Arabic-Indic and Extended Arabic-Indic (Persian) digits
// with ASCII digits.
func ToLatinDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '\u0660' && r <= '\u0669':
			return '0' + (r - '\u0660')
		case r >= '\u06f0' && r <= '\u06f9':
			return '0' + (r - '\u06f0')
		}
		return r
	}, s)
}

var parseReplacer = strings.NewReplacer(
	"\u200f", "", "\u200e", "", "\u061c", "",
	SymbolArabic, "", "omr", "",
	BaisaArabic, "", "baisa", "",
	string(arabicGroupSep), ",",
	string(arabicDecimalSep), ".",
	"\u2212", "-",
	"\u00a0", "", " ", "",
)

// Parse reads an amount written by Format (either locale), plain decimals with
// either digit set, and Baisa amounts ("250 Baisa", "٢٥٠ بيسة").
// More than 3 fraction digits is an error.
func Parse(s string) (decimal.Decimal, error) {
	work := strings.ToLower(strings.TrimSpace(s))
	if work == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	baisa := strings.Contains(work, "baisa") || strings.Contains(work, BaisaArabic)

	clean := ToLatinDigits(parseReplacer.Replace(work))
	if clean == "" || clean == "-" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	clean, ok := ungroup(clean)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid digit grouping in %q", s)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	if baisa {
		if !d.Equal(d.Truncate(0)) {
			return decimal.Zero, fmt.Errorf("baisa amount %q must be whole", s)
		}
		return types.Baisa(d.IntPart()).OMR(), nil
	}

	if !d.Equal(d.Truncate(types.OMRScale)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimals", s, types.OMRScale)
	}
	return d, nil
}

// ungroup drops thousands separators. They are accepted only between groups
// of three integer digits, so "1,5" is rejected instead of read as 15.
func ungroup(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ",") {
		return "", false
	}

	groups := strings.Split(intPart, ",")
	for i, g := range groups {
		if !allDigits(g) {
			return "", false
		}
		if i == 0 && (len(g) < 1 || len(g) > 3) {
			return "", false
		}
		if i > 0 && len(g) != 3 {
			return "", false
		}
	}

	out := sign + strings.Join(groups, "")
	if hasFrac {
		out += "." + frac
	}
	return out, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
