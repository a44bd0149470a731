package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserPermissions(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetUserID(ctx))
	assert.False(t, HasCompanyAccess(ctx, "c1"))

	user := &UserContext{UserID: "u1", Permissions: []string{"document:sales_invoice:read"}, CompanyIDs: []string{"c1"}}
	ctx = WithUser(ctx, user)

	assert.Equal(t, "u1", GetUserID(ctx))
	assert.True(t, user.HasPermission("document:sales_invoice:read"))
	assert.False(t, user.HasPermission("document:sales_invoice:submit"))
	assert.True(t, HasCompanyAccess(ctx, "c1"))
	assert.False(t, HasCompanyAccess(ctx, "c2"))

	admin := &UserContext{UserID: "root", IsAdmin: true}
	assert.True(t, admin.HasPermission("anything"))
	assert.True(t, HasCompanyAccess(WithUser(context.Background(), admin), "c2"))
}

func TestLocaleDefault(t *testing.T) {
	assert.Equal(t, "en", GetLocale(context.Background()))
	assert.Equal(t, "ar-OM", GetLocale(WithLocale(context.Background(), "ar-OM")))
}

func TestTraceNilSafe(t *testing.T) {
	tr := GetTrace(context.Background())
	assert.Nil(t, tr)
	assert.Equal(t, "", tr.RequestIDOrEmpty())
	assert.Nil(t, tr.LogFields())

	ctx := WithTrace(context.Background(), &TraceContext{TraceID: "4bf92f3577b34da6a3ce929d0e0e4736", RequestID: "req-1"})
	assert.Equal(t, "req-1", GetTrace(ctx).RequestIDOrEmpty())
	assert.Equal(t, []any{"trace_id", "4bf92f3577b34da6a3ce929d0e0e4736", "request_id", "req-1"}, GetTrace(ctx).LogFields())
}
