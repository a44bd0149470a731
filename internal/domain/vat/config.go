package vat

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain/einvoice"
)

// Configuration is the VAT Configuration DocType: the VAT registration of a
// company and the state of its VAT returns.
type Configuration struct {
	entity.Catalog

	CompanyID id.ID `db:"company_id" json:"companyId" meta:"label=Company;label_ar=الشركة;ref=Company;section=registration"`

	VATNumber          string `db:"vat_number" json:"vatNumber" meta:"label=VAT Registration Number;label_ar=رقم التسجيل الضريبي;section=registration"`
	RegistrationName   string `db:"registration_name" json:"registrationName" meta:"label=Registration Name;label_ar=اسم التسجيل;section=registration"`
	RegistrationNameAr string `db:"registration_name_ar" json:"registrationNameAr,omitempty" meta:"label=Registration Name (Arabic);label_ar=اسم التسجيل بالعربية;section=registration"`

	Rate             decimal.Decimal `db:"rate" json:"rate" meta:"label=VAT Rate;label_ar=نسبة الضريبة;section=rates;readonly"`
	PricesIncludeVAT bool            `db:"prices_include_vat" json:"pricesIncludeVat" meta:"label=Prices Include VAT;label_ar=الأسعار شاملة الضريبة;section=rates"`
	ReturnPeriod     ReturnPeriod    `db:"return_period" json:"returnPeriod" meta:"label=Return Period;label_ar=فترة الإقرار;section=returns;options=monthly|quarterly"`

	EffectiveFrom time.Time  `db:"effective_from" json:"effectiveFrom" meta:"label=Effective From;label_ar=ساري من;section=returns"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effectiveTo,omitempty" meta:"label=Effective To;label_ar=ساري حتى;section=returns"`
	// LockedUntil is the last day covered by a filed VAT return
	LockedUntil *time.Time `db:"locked_until" json:"lockedUntil,omitempty" meta:"label=Locked Until;label_ar=مقفل حتى;section=returns;readonly"`
	IsActive    bool       `db:"is_active" json:"isActive" meta:"label=Active;label_ar=نشط;section=returns"`
}

// NewConfiguration creates an active configuration at the standard rate with
// quarterly returns.
func NewConfiguration(companyID id.ID, vatNumber, registrationName string, effectiveFrom time.Time) *Configuration {
	return &Configuration{
		Catalog:          entity.NewCatalog("", registrationName),
		CompanyID:        companyID,
		VATNumber:        NormalizeNumber(vatNumber),
		RegistrationName: strings.TrimSpace(registrationName),
		Rate:             StandardRate,
		ReturnPeriod:     PeriodQuarterly,
		EffectiveFrom:    DateOnly(effectiveFrom),
		IsActive:         true,
	}
}

// Validate implements entity.Validatable. It also normalizes the VAT number.
func (c *Configuration) Validate(ctx context.Context) error {
	if c.Name == "" {
		c.Name = c.RegistrationName
	}

	missing := make(map[string]string)
	if id.IsNil(c.CompanyID) {
		missing["companyId"] = "required"
	}
	if strings.TrimSpace(c.VATNumber) == "" {
		missing["vatNumber"] = "required"
	}
	if strings.TrimSpace(c.RegistrationName) == "" {
		missing["registrationName"] = "required"
	}
	if c.EffectiveFrom.IsZero() {
		missing["effectiveFrom"] = "required"
	}
	if len(missing) > 0 {
		return apperror.NewRequiredFields(missing)
	}

	n, err := ValidateNumber("vatNumber", c.VATNumber)
	if err != nil {
		return err
	}
	c.VATNumber = n

	// either name may become the QR seller name
	c.RegistrationName = strings.TrimSpace(c.RegistrationName)
	c.RegistrationNameAr = strings.TrimSpace(c.RegistrationNameAr)
	for _, f := range [...]struct{ name, value string }{
		{"registrationName", c.RegistrationName},
		{"registrationNameAr", c.RegistrationNameAr},
	} {
		if len(f.value) > einvoice.MaxValueLen {
			return apperror.NewFieldTooLong(f.name, len(f.value), einvoice.MaxValueLen)
		}
	}
	if c.Code == "" {
		c.Code = n + "-" + c.EffectiveFrom.Format("20060102")
	}

	if c.Rate.IsZero() {
		c.Rate = StandardRate
	}
	if !c.Rate.Equal(StandardRate) {
		return apperror.NewValidation("VAT rate is fixed at 5%").
			WithDetail("field", "rate").
			WithDetail("rate", c.Rate.String())
	}
	if c.ReturnPeriod == "" {
		c.ReturnPeriod = PeriodQuarterly
	}
	if !c.ReturnPeriod.IsValid() {
		return apperror.NewValidation("return period must be monthly or quarterly").
			WithDetail("field", "returnPeriod")
	}

	c.EffectiveFrom = DateOnly(c.EffectiveFrom)
	if c.EffectiveTo != nil {
		to := DateOnly(*c.EffectiveTo)
		c.EffectiveTo = &to
		if to.Before(c.EffectiveFrom) {
			return apperror.NewValidation("effective to must not be before effective from").
				WithDetail("field", "effectiveTo")
		}
	}
	return nil
}

// Covers reports whether the configuration is active on date.
func (c *Configuration) Covers(date time.Time) bool {
	if !c.IsActive || c.DeletionMark {
		return false
	}
	d := DateOnly(date)
	if d.Before(c.EffectiveFrom) {
		return false
	}
	return c.EffectiveTo == nil || !d.After(*c.EffectiveTo)
}

// Overlaps reports whether two active configurations share at least one day.
func (c *Configuration) Overlaps(other *Configuration) bool {
	if !c.IsActive || !other.IsActive || c.CompanyID != other.CompanyID {
		return false
	}
	farFuture := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	cEnd, oEnd := farFuture, farFuture
	if c.EffectiveTo != nil {
		cEnd = *c.EffectiveTo
	}
	if other.EffectiveTo != nil {
		oEnd = *other.EffectiveTo
	}
	return !c.EffectiveFrom.After(oEnd) && !other.EffectiveFrom.After(cEnd)
}

// EnsureOpen fails with VAT_PERIOD_LOCKED when date falls into a filed return.
func (c *Configuration) EnsureOpen(date time.Time) error {
	if c.LockedUntil != nil && !DateOnly(date).After(*c.LockedUntil) {
		return apperror.NewVATPeriodLocked(c.LockedUntil.Format(time.DateOnly)).
			WithDetail("date", DateOnly(date).Format(time.DateOnly))
	}
	return nil
}

// Lock marks everything up to until as filed. The lock never moves backwards.
func (c *Configuration) Lock(until time.Time) error {
	u := DateOnly(until)
	if c.LockedUntil != nil && u.Before(*c.LockedUntil) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "VAT lock date cannot move backwards").
			WithDetail("lockedUntil", c.LockedUntil.Format(time.DateOnly)).
			WithDetail("requested", u.Format(time.DateOnly))
	}
	c.LockedUntil = &u
	return nil
}

// SellerName is the name printed on invoices and in the QR payload.
func (c *Configuration) SellerName() string {
	if c.RegistrationNameAr != "" {
		return c.RegistrationNameAr
	}
	return c.RegistrationName
}
