package context

import "context"

type localeKey struct{}

// WithLocale stores the negotiated display locale (e.g. "en", "ar-OM").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocale returns the display locale or "en".
func GetLocale(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey{}).(string); ok && v != "" {
		return v
	}
	return "en"
}
