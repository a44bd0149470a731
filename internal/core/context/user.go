// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"
)

// UserContext contains authenticated user information taken from the access token.
type UserContext struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
	// CompanyIDs limits the companies the user may invoice for; empty means all
	CompanyIDs []string
	IsAdmin    bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasPermission reports whether the user holds perm. Admins hold every permission.
func (u *UserContext) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || slices.Contains(u.Permissions, perm)
}

// HasCompanyAccess checks if the user may act for the company.
func HasCompanyAccess(ctx context.Context, companyID string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.IsAdmin || len(u.CompanyIDs) == 0 {
		return true
	}
	return slices.Contains(u.CompanyIDs, companyID)
}
