package omr

import (
	"golang.org/x/text/language"
)

const (
	LocaleEnglish = "en"
	LocaleArabic  = "ar-OM"
)

var (
	supported = []language.Tag{
		language.English,
		language.MustParse(LocaleArabic),
	}
	matcher = language.NewMatcher(supported)
)

// IsArabic reports whether the BCP 47 tag has Arabic as base language.
func IsArabic(locale string) bool {
	if locale == "" {
		return false
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	return base.String() == "ar"
}

// MatchLocale picks the display locale for an Accept-Language header value.
// Unknown or empty input yields English.
func MatchLocale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return LocaleEnglish
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return LocaleEnglish
	}
	if idx == 1 {
		return LocaleArabic
	}
	return LocaleEnglish
}
