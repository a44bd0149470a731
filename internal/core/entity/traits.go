package entity

import (
	"workshop/internal/core/id"
)

// CurrencyAware is embedded by documents that carry a transaction currency.
type CurrencyAware struct {
	CurrencyID id.ID `db:"currency_id" json:"currencyId"`
}

// HasCurrency reports whether a currency is set.
func (c *CurrencyAware) HasCurrency() bool {
	return !id.IsNil(c.CurrencyID)
}
