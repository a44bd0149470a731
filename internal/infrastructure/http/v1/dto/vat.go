package dto

import "github.com/shopspring/decimal"

// CalculateVATRequest asks for the VAT of one amount.
type CalculateVATRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	PricesIncludeVAT bool            `json:"pricesIncludeVat"`
	Category         string          `json:"category" binding:"omitempty,oneof=standard zero_rated exempt out_of_scope"`
}

// CalculateVATResponse splits an amount into net, VAT and gross.
type CalculateVATResponse struct {
	Category string            `json:"category"`
	Rate     string            `json:"rate"`
	Net      string            `json:"net"`
	VAT      string            `json:"vat"`
	Gross    string            `json:"gross"`
	Display  map[string]string `json:"display"`
}

// ValidateVATNumberRequest carries a number as typed by the user.
type ValidateVATNumberRequest struct {
	VATNumber string `json:"vatNumber" form:"vatNumber"`
}

// ValidateVATNumberResponse reports the normalized number.
type ValidateVATNumberResponse struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized"`
	Message    string `json:"message,omitempty"`
}

// FormatAmountRequest renders an amount in OMR. Amount accepts Latin or
// Arabic-Indic digits.
type FormatAmountRequest struct {
	Amount        string `form:"amount" binding:"required"`
	HideSymbol    bool   `form:"hideSymbol"`
	BaisaBelowOne bool   `form:"baisaBelowOne"`
}

// FormatAmountResponse is the amount in the request locale.
type FormatAmountResponse struct {
	Locale    string `json:"locale"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted"`
	Rials     int64  `json:"rials"`
	Baisa     int64  `json:"baisa"`
}
