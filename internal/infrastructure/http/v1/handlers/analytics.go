package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AnalyticsService is the part of analytics.Service used over HTTP.
type AnalyticsService interface {
	Dashboard(ctx context.Context, f analytics.Filter) (*analytics.Dashboard, error)
	VATReturn(ctx context.Context, companyID id.ID, date time.Time, period vat.ReturnPeriod) (*analytics.VATReturn, error)
	GenerateSnapshot(ctx context.Context, companyID id.ID, date time.Time, period vat.ReturnPeriod) (*analytics.Snapshot, error)
	GetSnapshot(ctx context.Context, snapshotID id.ID) (*analytics.Snapshot, error)
	ListSnapshots(ctx context.Context, companyID id.ID, limit int) ([]*analytics.Snapshot, error)
	Export(ctx context.Context, f analytics.Filter, w io.Writer) error
}

// ReturnPeriods resolves the filing period of a company.
type ReturnPeriods interface {
	ActiveFor(ctx context.Context, companyID id.ID, date time.Time) (*vat.Configuration, error)
}

// AnalyticsHandler serves /analytics.
type AnalyticsHandler struct {
	*BaseHandler
	service AnalyticsService
	periods ReturnPeriods
	now     func() time.Time
}

// NewAnalyticsHandler creates the analytics handler. periods may be nil;
// requests without a period then use the service default.
func NewAnalyticsHandler(base *BaseHandler, service AnalyticsService, periods ReturnPeriods) *AnalyticsHandler {
	return &AnalyticsHandler{BaseHandler: base, service: service, periods: periods, now: time.Now}
}

func (h *AnalyticsHandler) checkCompany(c *gin.Context, companyID id.ID) bool {
	if !appctx.HasCompanyAccess(c.Request.Context(), companyID.String()) {
		h.Error(c, apperror.NewForbidden("no access to company").WithDetail("companyId", companyID.String()))
		return false
	}
	return true
}

// period returns the requested period or the one of the active VAT
// configuration.
func (h *AnalyticsHandler) period(ctx context.Context, companyID id.ID, date time.Time, requested vat.ReturnPeriod) vat.ReturnPeriod {
	if requested != "" || h.periods == nil {
		return requested
	}
	cfg, err := h.periods.ActiveFor(ctx, companyID, date)
	if err != nil {
		return requested
	}
	return cfg.ReturnPeriod
}

// Dashboard handles GET /analytics/dashboard?companyId=&from=&to=&topN=&asOf=.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	var q dto.DashboardQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f := q.ToFilter()
	if !h.checkCompany(c, f.CompanyID) {
		return
	}

	d, err := h.service.Dashboard(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// VATReturn handles GET /analytics/vat-return?companyId=&date=&period=.
func (h *AnalyticsHandler) VATReturn(c *gin.Context) {
	ctx := c.Request.Context()

	var q dto.PeriodQuery
	if !h.BindQuery(c, &q) {
		return
	}
	companyID, date, period := q.Values(h.now())
	if !h.checkCompany(c, companyID) {
		return
	}

	r, err := h.service.VATReturn(ctx, companyID, date, h.period(ctx, companyID, date, period))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// Export handles GET /analytics/export.xlsx with the dashboard query.
func (h *AnalyticsHandler) Export(c *gin.Context) {
	var q dto.DashboardQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f := q.ToFilter()
	if !h.checkCompany(c, f.CompanyID) {
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), f, &buf); err != nil {
		h.Error(c, err)
		return
	}

	name := fmt.Sprintf("analytics-%s.xlsx", h.now().UTC().Format("20060102"))
	if q.From != "" && q.To != "" {
		name = fmt.Sprintf("analytics-%s-%s.xlsx", q.From, q.To)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ListSnapshots handles GET /analytics/snapshots?companyId=&limit=.
func (h *AnalyticsHandler) ListSnapshots(c *gin.Context) {
	var q dto.SnapshotListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	companyID, _ := id.Parse(q.CompanyID)
	if !h.checkCompany(c, companyID) {
		return
	}

	snaps, err := h.service.ListSnapshots(c.Request.Context(), companyID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.SnapshotSummary, len(snaps))
	for i, s := range snaps {
		items[i] = dto.FromSnapshotSummary(s)
	}
	h.OK(c, gin.H{"items": items})
}

// GenerateSnapshot handles POST /analytics/snapshots {companyId, date, period}.
func (h *AnalyticsHandler) GenerateSnapshot(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PeriodQuery
	if !h.BindJSON(c, &req) {
		return
	}
	companyID, date, period := req.Values(h.now())
	if !h.checkCompany(c, companyID) {
		return
	}

	snap, err := h.service.GenerateSnapshot(ctx, companyID, date, h.period(ctx, companyID, date, period))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, snap)
}

// GetSnapshot handles GET /analytics/snapshots/:id.
func (h *AnalyticsHandler) GetSnapshot(c *gin.Context) {
	snapshotID, ok := h.ParamID(c)
	if !ok {
		return
	}
	snap, err := h.service.GetSnapshot(c.Request.Context(), snapshotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.checkCompany(c, snap.CompanyID) {
		return
	}
	h.OK(c, snap)
}
