package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/einvoice"
	"workshop/internal/infrastructure/http/v1/dto"
)

// SalesInvoiceService is the part of sales_invoice.Service used over HTTP.
type SalesInvoiceService interface {
	Create(ctx context.Context, doc *sales_invoice.SalesInvoice) error
	Get(ctx context.Context, docID id.ID) (*sales_invoice.SalesInvoice, error)
	Update(ctx context.Context, doc *sales_invoice.SalesInvoice) error
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, filter sales_invoice.ListFilter) (domain.ListResult[*sales_invoice.SalesInvoice], error)
	Submit(ctx context.Context, docID id.ID) (*sales_invoice.SalesInvoice, error)
	Cancel(ctx context.Context, docID id.ID, reason string) (*sales_invoice.SalesInvoice, error)
	RecordPayment(ctx context.Context, docID id.ID, p sales_invoice.Payment) (*sales_invoice.SalesInvoice, error)
	Payments(ctx context.Context, docID id.ID) ([]sales_invoice.Payment, error)
	QR(ctx context.Context, docID id.ID) (string, einvoice.Payload, error)
	DefaultPricing(ctx context.Context, companyID id.ID, date time.Time) bool
}

// SalesInvoiceHandler serves /document/sales-invoices.
type SalesInvoiceHandler struct {
	*BaseHandler
	service SalesInvoiceService
}

// NewSalesInvoiceHandler creates the sales invoice handler.
func NewSalesInvoiceHandler(base *BaseHandler, service SalesInvoiceService) *SalesInvoiceHandler {
	return &SalesInvoiceHandler{BaseHandler: base, service: service}
}

// List handles GET /document/sales-invoices.
//
// Query: search (number or customer), companyId, customerId, status
// (comma separated), docstatus, from, to, limit, offset, orderBy.
func (h *SalesInvoiceHandler) List(c *gin.Context) {
	filter := sales_invoice.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.DocStatus = c.Query("docstatus")

	for param, dst := range map[string]**id.ID{"companyId": &filter.CompanyID, "customerId": &filter.CustomerID} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid "+param).WithDetail("value", raw))
			return
		}
		*dst = &v
	}
	for param, dst := range map[string]**time.Time{"from": &filter.DateFrom, "to": &filter.DateTo} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date").WithDetail("field", param).WithDetail("value", raw))
			return
		}
		*dst = &t
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, sales_invoice.Status(strings.TrimSpace(s)))
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	locale := h.Locale(c)
	items := make([]*dto.SalesInvoiceResponse, len(result.Items))
	for i, inv := range result.Items {
		items[i] = dto.FromSalesInvoice(inv, locale)
	}
	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /document/sales-invoices/:id.
func (h *SalesInvoiceHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	inv, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(inv, h.Locale(c)))
}

// Create handles POST /document/sales-invoices. With ?submit=true the draft
// is submitted right away.
func (h *SalesInvoiceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSalesInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv := req.ToEntity(func(inv *sales_invoice.SalesInvoice) bool {
		return h.service.DefaultPricing(ctx, inv.CompanyID, inv.Date)
	})
	if err := h.service.Create(ctx, inv); err != nil {
		h.Error(c, err)
		return
	}

	if c.Query("submit") == "true" {
		submitted, err := h.service.Submit(ctx, inv.ID)
		if err != nil {
			h.Error(c, err)
			return
		}
		inv = submitted
	}
	h.Created(c, dto.FromSalesInvoice(inv, h.Locale(c)))
}

// Update handles PUT /document/sales-invoices/:id (drafts only).
func (h *SalesInvoiceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateSalesInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.Get(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(inv)
	if err := h.service.Update(ctx, inv); err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.Get(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(updated, h.Locale(c)))
}

// Delete handles DELETE /document/sales-invoices/:id (drafts only).
func (h *SalesInvoiceHandler) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /document/sales-invoices/:id/submit.
func (h *SalesInvoiceHandler) Submit(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	inv, err := h.service.Submit(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(inv, h.Locale(c)))
}

// Cancel handles POST /document/sales-invoices/:id/cancel.
func (h *SalesInvoiceHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.CancelSalesInvoiceRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.Cancel(c.Request.Context(), docID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesInvoice(inv, h.Locale(c)))
}

// RecordPayment handles POST /document/sales-invoices/:id/payments.
func (h *SalesInvoiceHandler) RecordPayment(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.RecordPayment(c.Request.Context(), docID, req.ToPayment())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSalesInvoice(inv, h.Locale(c)))
}

// Payments handles GET /document/sales-invoices/:id/payments.
func (h *SalesInvoiceHandler) Payments(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	payments, err := h.service.Payments(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = dto.FromPayment(p)
	}
	h.OK(c, gin.H{"items": items})
}

// QR handles GET /document/sales-invoices/:id/qr.
func (h *SalesInvoiceHandler) QR(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	payload, fields, err := h.service.QR(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromQR(payload, fields))
}

// QRImage handles GET /document/sales-invoices/:id/qr.png?size=256.
func (h *SalesInvoiceHandler) QRImage(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	payload, _, err := h.service.QR(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	png, err := einvoice.RenderString(payload, h.ParseIntQuery(c, "size", einvoice.DefaultImageSize))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
