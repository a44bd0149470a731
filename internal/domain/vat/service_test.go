package vat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/domain"
	"workshop/internal/domain/einvoice"
)

type memRepo struct {
	items map[id.ID]*Configuration
	// calls records LockCompany and ListForCompany in order
	calls []string
}

func newMemRepo() *memRepo { return &memRepo{items: map[id.ID]*Configuration{}} }

func (r *memRepo) LockCompany(_ context.Context, companyID id.ID) error {
	r.calls = append(r.calls, "lock:"+companyID.String())
	return nil
}

func (r *memRepo) Create(_ context.Context, c *Configuration) error {
	r.items[c.ID] = c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, cid id.ID) (*Configuration, error) {
	c, ok := r.items[cid]
	if !ok {
		return nil, apperror.NewNotFound("vat_configuration", cid.String())
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) GetByCode(_ context.Context, code string) (*Configuration, error) {
	for _, c := range r.items {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, apperror.NewNotFound("vat_configuration", code)
}

func (r *memRepo) Update(_ context.Context, c *Configuration) error {
	r.items[c.ID] = c
	return nil
}

func (r *memRepo) SetDeletionMark(_ context.Context, cid id.ID, marked bool) error {
	r.items[cid].DeletionMark = marked
	return nil
}

func (r *memRepo) List(context.Context, domain.ListFilter) (domain.ListResult[*Configuration], error) {
	var res domain.ListResult[*Configuration]
	for _, c := range r.items {
		res.Items = append(res.Items, c)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (r *memRepo) Exists(_ context.Context, cid id.ID) (bool, error) {
	_, ok := r.items[cid]
	return ok, nil
}

func (r *memRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func (r *memRepo) ListForCompany(_ context.Context, companyID id.ID) ([]*Configuration, error) {
	r.calls = append(r.calls, "list:"+companyID.String())
	var out []*Configuration
	for _, c := range r.items {
		if c.CompanyID == companyID && !c.DeletionMark {
			out = append(out, c)
		}
	}
	return out, nil
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestConfigurationValidate(t *testing.T) {
	ctx := context.Background()

	cfg := NewConfiguration(id.New(), "om 1100123456", "Muscat Auto Works LLC", date(2025, 1, 1))
	require.NoError(t, cfg.Validate(ctx))
	assert.Equal(t, "OM1100123456", cfg.VATNumber)
	assert.Equal(t, PeriodQuarterly, cfg.ReturnPeriod)

	bad := NewConfiguration(id.New(), "OM12", "X", date(2025, 1, 1))
	assert.True(t, apperror.HasCode(bad.Validate(ctx), apperror.CodeInvalidVATNumber))

	empty := &Configuration{}
	err := empty.Validate(ctx)
	require.True(t, apperror.HasCode(err, apperror.CodeRequiredField))
	appErr, _ := apperror.AsAppError(err)
	fields := appErr.Details["fields"].(map[string]string)
	assert.Contains(t, fields, "companyId")
	assert.Contains(t, fields, "vatNumber")
	assert.Contains(t, fields, "registrationName")
	assert.Contains(t, fields, "effectiveFrom")

	wrongRate := NewConfiguration(id.New(), "OM1100123456", "X", date(2025, 1, 1))
	wrongRate.Rate = d("0.15")
	assert.True(t, apperror.HasCode(wrongRate.Validate(ctx), apperror.CodeValidation))

	backwards := NewConfiguration(id.New(), "OM1100123456", "X", date(2025, 6, 1))
	to := date(2025, 1, 1)
	backwards.EffectiveTo = &to
	assert.Error(t, backwards.Validate(ctx))
}

func TestConfigurationNamesFitQRField(t *testing.T) {
	ctx := context.Background()

	cfg := NewConfiguration(id.New(), "OM1100123456", "Muscat Auto Works LLC", date(2025, 1, 1))
	cfg.RegistrationNameAr = strings.Repeat("ورشة", 33) // 264 bytes
	err := cfg.Validate(ctx)
	require.True(t, apperror.HasCode(err, apperror.CodeQRFieldTooLong))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "registrationNameAr", appErr.Details["field"])

	cfg.RegistrationNameAr = strings.Repeat("ورشة", 31) // 248 bytes
	require.NoError(t, cfg.Validate(ctx))
	_, err = einvoice.Encode(einvoice.Payload{
		SellerName: cfg.SellerName(),
		VATNumber:  cfg.VATNumber,
		Timestamp:  date(2025, 1, 2),
		Total:      d("105"),
		VATTotal:   d("5"),
	})
	assert.NoError(t, err)

	long := NewConfiguration(id.New(), "OM1100123456", strings.Repeat("A", 256), date(2025, 1, 1))
	assert.True(t, apperror.HasCode(long.Validate(ctx), apperror.CodeQRFieldTooLong))
}

func TestEnsureOpenAndLock(t *testing.T) {
	cfg := NewConfiguration(id.New(), "OM1100123456", "X", date(2025, 1, 1))
	require.NoError(t, cfg.Lock(date(2025, 3, 31)))

	err := cfg.EnsureOpen(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC))
	assert.True(t, apperror.HasCode(err, apperror.CodeVATPeriodLocked))
	assert.NoError(t, cfg.EnsureOpen(date(2025, 4, 1)))

	err = cfg.Lock(date(2025, 2, 28))
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, date(2025, 3, 31), *cfg.LockedUntil)
}

func TestServiceActiveForAndOverlap(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, tx.NoopManager{})
	company := id.New()

	first := NewConfiguration(company, "OM1100123456", "Muscat Auto Works", date(2025, 1, 1))
	end := date(2025, 12, 31)
	first.EffectiveTo = &end
	require.NoError(t, svc.Create(ctx, first))

	overlapping := NewConfiguration(company, "OM1100123456", "Muscat Auto Works", date(2025, 6, 1))
	err := svc.Create(ctx, overlapping)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	next := NewConfiguration(company, "OM1100123456", "Muscat Auto Works", date(2026, 1, 1))
	require.NoError(t, svc.Create(ctx, next))

	got, err := svc.ActiveFor(ctx, company, date(2025, 7, 15))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = svc.ActiveFor(ctx, company, date(2026, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, next.ID, got.ID)

	_, err = svc.ActiveFor(ctx, company, date(2024, 12, 31))
	assert.True(t, apperror.HasCode(err, apperror.CodeVATNotConfigured))
}

func TestServiceLocksCompanyBeforeOverlapCheck(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, tx.NoopManager{})
	company := id.New()

	cfg := NewConfiguration(company, "OM1100123456", "Muscat Auto Works", date(2025, 1, 1))
	require.NoError(t, svc.Create(ctx, cfg))
	require.GreaterOrEqual(t, len(repo.calls), 2)
	assert.Equal(t, []string{"lock:" + company.String(), "list:" + company.String()}, repo.calls[:2])

	repo.calls = nil
	end := date(2025, 6, 30)
	cfg.EffectiveTo = &end
	require.NoError(t, svc.Update(ctx, cfg))
	assert.Equal(t, "lock:"+company.String(), repo.calls[0])
}

func TestServiceLockPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, tx.NoopManager{})
	company := id.New()

	cfg := NewConfiguration(company, "OM1100123456", "Muscat Auto Works", date(2025, 1, 1))
	require.NoError(t, svc.Create(ctx, cfg))

	locked, err := svc.LockPeriod(ctx, cfg.ID, date(2025, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 31), *locked.LockedUntil)

	_, err = svc.EnsureOpen(ctx, company, date(2025, 2, 10))
	assert.True(t, apperror.HasCode(err, apperror.CodeVATPeriodLocked))

	open, err := svc.EnsureOpen(ctx, company, date(2025, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, open.ID)
}
