package handlers

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/http/v1/dto"
	"workshop/pkg/omr"
)

// VATHandler exposes the VAT arithmetic and OMR formatting used by clients
// before an invoice exists.
type VATHandler struct {
	*BaseHandler
}

// NewVATHandler creates the VAT tools handler.
func NewVATHandler(base *BaseHandler) *VATHandler {
	return &VATHandler{BaseHandler: base}
}

// Calculate handles POST /vat/calculate.
func (h *VATHandler) Calculate(c *gin.Context) {
	var req dto.CalculateVATRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Amount.IsNegative() {
		h.Error(c, apperror.NewValidation("amount must not be negative").WithDetail("field", "amount"))
		return
	}

	category := vat.Category(req.Category)
	if category == "" {
		category = vat.CategoryStandard
	}
	rate := vat.RateFor(category)
	gross := types.RoundOMR(req.Amount)

	var net, tax types.Money
	if req.PricesIncludeVAT {
		net, tax = vat.ExtractInclusive(gross, rate)
	} else {
		net = gross
		tax = vat.CalculateAt(net, rate)
		gross = net.Add(tax)
	}

	opts := omr.Options{Locale: h.Locale(c)}
	h.OK(c, dto.CalculateVATResponse{
		Category: string(category),
		Rate:     rate.Shift(2).StringFixed(2),
		Net:      net.StringFixed(types.OMRScale),
		VAT:      tax.StringFixed(types.OMRScale),
		Gross:    gross.StringFixed(types.OMRScale),
		Display: map[string]string{
			"net":   omr.Format(net, opts),
			"vat":   omr.Format(tax, opts),
			"gross": omr.Format(gross, opts),
		},
	})
}

// ValidateNumber handles POST /vat/validate-number. An invalid number is a
// 200 answer with valid=false.
func (h *VATHandler) ValidateNumber(c *gin.Context) {
	var req dto.ValidateVATNumberRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp := dto.ValidateVATNumberResponse{Normalized: vat.NormalizeNumber(req.VATNumber)}
	if _, err := vat.ValidateNumber("vatNumber", req.VATNumber); err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			resp.Message = appErr.Message
		}
	} else {
		resp.Valid = true
	}
	h.OK(c, resp)
}

// Format handles GET /vat/format?amount=1234.5 in the request locale.
func (h *VATHandler) Format(c *gin.Context) {
	var req dto.FormatAmountRequest
	if !h.BindQuery(c, &req) {
		return
	}

	amount, err := omr.Parse(req.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").
			WithDetail("field", "amount").
			WithDetail("value", req.Amount))
		return
	}

	locale := h.Locale(c)
	rials, baisa := omr.Split(amount)
	h.OK(c, dto.FormatAmountResponse{
		Locale: locale,
		Amount: types.RoundOMR(amount).StringFixed(types.OMRScale),
		Formatted: omr.Format(amount, omr.Options{
			Locale:        locale,
			HideSymbol:    req.HideSymbol,
			BaisaBelowOne: req.BaisaBelowOne,
		}),
		Rials: rials,
		Baisa: baisa,
	})
}
