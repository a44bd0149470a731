package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/doctypes"
	"workshop/internal/domain"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/einvoice"
	"workshop/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Trace(), middleware.ErrorHandler(), middleware.Locale("en"))
	r.Use(func(c *gin.Context) {
		user := &appctx.UserContext{UserID: "u-1", CompanyIDs: []string{}}
		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Next()
	})
	return r
}

func serve(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestVATCalculate(t *testing.T) {
	r := newTestEngine()
	h := NewVATHandler(NewBaseHandler())
	r.POST("/vat/calculate", h.Calculate)

	tests := []struct {
		name  string
		body  string
		net   string
		vat   string
		gross string
	}{
		{"exclusive", `{"amount":"100"}`, "100.000", "5.000", "105.000"},
		{"inclusive", `{"amount":"105","pricesIncludeVat":true}`, "100.000", "5.000", "105.000"},
		{"zero rated", `{"amount":"40.5","category":"zero_rated"}`, "40.500", "0.000", "40.500"},
		{"baisa rounding", `{"amount":"0.105"}`, "0.105", "0.005", "0.110"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/vat/calculate", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := jsonBody(t, w)
			assert.Equal(t, tt.net, body["net"])
			assert.Equal(t, tt.vat, body["vat"])
			assert.Equal(t, tt.gross, body["gross"])
		})
	}

	w := serve(r, http.MethodPost, "/vat/calculate", `{"amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/vat/calculate", `{"amount":"1","category":"luxury"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := jsonBody(t, w)["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields["category"], "must be one of")
}

func TestVATCalculateArabicDisplay(t *testing.T) {
	r := newTestEngine()
	r.POST("/vat/calculate", NewVATHandler(NewBaseHandler()).Calculate)

	w := serve(r, http.MethodPost, "/vat/calculate", `{"amount":"100"}`, "Accept-Language", "ar-OM")
	require.Equal(t, http.StatusOK, w.Code)
	display := jsonBody(t, w)["display"].(map[string]any)
	assert.Equal(t, "\u200f١٠٥٫٠٠٠ ر.ع.", display["gross"])
}

func TestVATValidateNumber(t *testing.T) {
	r := newTestEngine()
	r.POST("/vat/validate-number", NewVATHandler(NewBaseHandler()).ValidateNumber)

	w := serve(r, http.MethodPost, "/vat/validate-number", `{"vatNumber":"om 1100-0123 45"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "OM1100012345", body["normalized"])

	w = serve(r, http.MethodPost, "/vat/validate-number", `{"vatNumber":"OM12"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = jsonBody(t, w)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["message"])
}

func TestVATFormat(t *testing.T) {
	r := newTestEngine()
	r.GET("/vat/format", NewVATHandler(NewBaseHandler()).Format)

	w := serve(r, http.MethodGet, "/vat/format?amount=1234.5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, "OMR 1,234.500", body["formatted"])
	assert.Equal(t, "1234.500", body["amount"])
	assert.EqualValues(t, 1234, body["rials"])
	assert.EqualValues(t, 500, body["baisa"])

	w = serve(r, http.MethodGet, "/vat/format?amount=0.5&baisaBelowOne=true&locale=ar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "\u200f٥٠٠ بيسة", jsonBody(t, w)["formatted"])

	w = serve(r, http.MethodGet, "/vat/format", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/vat/format?amount=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// fakeInvoices keeps invoices in memory.
type fakeInvoices struct {
	docs       map[id.ID]*sales_invoice.SalesInvoice
	inclusive  bool
	lastFilter sales_invoice.ListFilter
	seq        int
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{docs: map[id.ID]*sales_invoice.SalesInvoice{}}
}

func (f *fakeInvoices) Create(_ context.Context, doc *sales_invoice.SalesInvoice) error {
	if err := doc.Validate(context.Background()); err != nil {
		return err
	}
	f.seq++
	doc.Number = fmt.Sprintf("INV-2025-%05d", f.seq)
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeInvoices) Get(_ context.Context, docID id.ID) (*sales_invoice.SalesInvoice, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sales_invoice", docID.String())
	}
	return doc, nil
}

func (f *fakeInvoices) Update(_ context.Context, doc *sales_invoice.SalesInvoice) error {
	if doc.DocStatus != entity.DocStatusDraft {
		return apperror.NewInvoiceNotDraft(doc.Number, string(doc.DocStatus))
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeInvoices) Delete(_ context.Context, docID id.ID) error {
	delete(f.docs, docID)
	return nil
}

func (f *fakeInvoices) List(_ context.Context, filter sales_invoice.ListFilter) (domain.ListResult[*sales_invoice.SalesInvoice], error) {
	f.lastFilter = filter
	items := make([]*sales_invoice.SalesInvoice, 0, len(f.docs))
	for _, d := range f.docs {
		items = append(items, d)
	}
	return domain.ListResult[*sales_invoice.SalesInvoice]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func (f *fakeInvoices) Submit(ctx context.Context, docID id.ID) (*sales_invoice.SalesInvoice, error) {
	doc, err := f.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.DocStatus = entity.DocStatusSubmitted
	doc.Status = sales_invoice.StatusUnpaid
	doc.QRPayload = "AQRUZXN0"
	return doc, nil
}

func (f *fakeInvoices) Cancel(ctx context.Context, docID id.ID, reason string) (*sales_invoice.SalesInvoice, error) {
	doc, err := f.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.DocStatus = entity.DocStatusCancelled
	doc.Status = sales_invoice.StatusCancelled
	doc.Remarks = reason
	return doc, nil
}

func (f *fakeInvoices) RecordPayment(ctx context.Context, docID id.ID, p sales_invoice.Payment) (*sales_invoice.SalesInvoice, error) {
	doc, err := f.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if p.Amount.GreaterThan(doc.Outstanding) {
		return nil, apperror.NewBusinessRule(apperror.CodePaymentExceedsOutstanding, "payment exceeds outstanding amount")
	}
	doc.PaidAmount = doc.PaidAmount.Add(p.Amount)
	doc.Outstanding = doc.GrandTotal.Sub(doc.PaidAmount)
	doc.Status = sales_invoice.StatusPartlyPaid
	return doc, nil
}

func (f *fakeInvoices) Payments(context.Context, id.ID) ([]sales_invoice.Payment, error) {
	return nil, nil
}

func (f *fakeInvoices) QR(ctx context.Context, docID id.ID) (string, einvoice.Payload, error) {
	doc, err := f.Get(ctx, docID)
	if err != nil {
		return "", einvoice.Payload{}, err
	}
	if doc.QRPayload == "" {
		return "", einvoice.Payload{}, apperror.NewBusinessRule(apperror.CodeInvoiceNotDraft, "invoice is not submitted")
	}
	return doc.QRPayload, einvoice.Payload{SellerName: "Muscat Service Centre", VATNumber: "OM1100012345"}, nil
}

func (f *fakeInvoices) DefaultPricing(context.Context, id.ID, time.Time) bool {
	return f.inclusive
}

func newInvoiceEngine(svc *fakeInvoices) *gin.Engine {
	r := newTestEngine()
	h := NewSalesInvoiceHandler(NewBaseHandler(), svc)
	g := r.Group("/document/sales-invoices")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/payments", h.RecordPayment)
	g.GET("/:id/qr", h.QR)
	g.GET("/:id/qr.png", h.QRImage)
	return r
}

func invoiceBody(companyID, customerID id.ID) map[string]any {
	return map[string]any{
		"companyId":  companyID.String(),
		"customerId": customerID.String(),
		"date":       "2025-03-10",
		"dueDate":    "2025-04-09",
		"lines": []map[string]any{
			{"itemCode": "OIL-5W30", "itemType": "part", "quantity": 2, "rate": "4.250"},
			{"itemCode": "LAB-SRV", "itemType": "labour", "quantity": 1, "rate": "12"},
		},
	}
}

func TestSalesInvoiceCreateAndSubmit(t *testing.T) {
	svc := newFakeInvoices()
	r := newInvoiceEngine(svc)

	w := serve(r, http.MethodPost, "/document/sales-invoices", invoiceBody(id.New(), id.New()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := jsonBody(t, w)
	assert.Equal(t, "20.500", body["netTotal"])
	assert.Equal(t, "1.025", body["vatTotal"])
	assert.Equal(t, "21.525", body["grandTotal"])
	assert.Equal(t, "draft", body["docstatus"])
	assert.Equal(t, "2025-04-09", body["dueDate"])
	assert.Equal(t, "OMR 21.525", body["display"].(map[string]any)["grandTotal"])
	invoiceID := body["id"].(string)

	w = serve(r, http.MethodPost, "/document/sales-invoices/"+invoiceID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "submitted", jsonBody(t, w)["docstatus"])

	w = serve(r, http.MethodGet, "/document/sales-invoices/"+invoiceID+"/qr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AQRUZXN0", jsonBody(t, w)["payload"])

	w = serve(r, http.MethodGet, "/document/sales-invoices/"+invoiceID+"/qr.png?size=128", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	// submitted invoices are read-only
	update := invoiceBody(id.New(), id.New())
	update["version"] = 1
	w = serve(r, http.MethodPut, "/document/sales-invoices/"+invoiceID, update)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeInvoiceNotDraft, jsonBody(t, w)["code"])
}

func TestSalesInvoiceCreateUsesDefaultPricing(t *testing.T) {
	svc := newFakeInvoices()
	svc.inclusive = true
	r := newInvoiceEngine(svc)

	body := invoiceBody(id.New(), id.New())
	body["lines"] = []map[string]any{{"itemCode": "LAB-SRV", "quantity": 1, "rate": "10.500"}}
	w := serve(r, http.MethodPost, "/document/sales-invoices?submit=true", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := jsonBody(t, w)
	assert.Equal(t, true, resp["pricesIncludeVat"])
	assert.Equal(t, "10.000", resp["netTotal"])
	assert.Equal(t, "0.500", resp["vatTotal"])
	assert.Equal(t, "submitted", resp["docstatus"])

	// explicit flag wins
	body["pricesIncludeVat"] = false
	w = serve(r, http.MethodPost, "/document/sales-invoices", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "11.025", jsonBody(t, w)["grandTotal"])
}

func TestSalesInvoiceCreateValidation(t *testing.T) {
	r := newInvoiceEngine(newFakeInvoices())

	w := serve(r, http.MethodPost, "/document/sales-invoices", `{"companyId":"nope","lines":[{"quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	fields := body["details"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "invalid id", fields["companyId"])
	assert.Equal(t, "required", fields["customerId"])
	assert.Equal(t, "required", fields["lines[0].itemCode"])

	w = serve(r, http.MethodPost, "/document/sales-invoices", `{"companyId":"`+id.New().String()+`","customerId":"`+id.New().String()+`","date":"10/03/2025","lines":[{"itemCode":"X","quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields = jsonBody(t, w)["details"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "expected YYYY-MM-DD", fields["date"])
}

func TestSalesInvoicePaymentAndCancel(t *testing.T) {
	svc := newFakeInvoices()
	r := newInvoiceEngine(svc)

	w := serve(r, http.MethodPost, "/document/sales-invoices?submit=true", invoiceBody(id.New(), id.New()))
	require.Equal(t, http.StatusCreated, w.Code)
	invoiceID := jsonBody(t, w)["id"].(string)

	w = serve(r, http.MethodPost, "/document/sales-invoices/"+invoiceID+"/payments", `{"amount":"10","method":"cash"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := jsonBody(t, w)
	assert.Equal(t, "partly_paid", body["status"])
	assert.Equal(t, "11.525", body["outstandingAmount"])

	w = serve(r, http.MethodPost, "/document/sales-invoices/"+invoiceID+"/payments", `{"amount":"50"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodePaymentExceedsOutstanding, jsonBody(t, w)["code"])

	w = serve(r, http.MethodPost, "/document/sales-invoices/"+invoiceID+"/payments", `{"amount":"1","method":"bitcoin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// cancel without a body
	w = serve(r, http.MethodPost, "/document/sales-invoices/"+invoiceID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", jsonBody(t, w)["docstatus"])
}

func TestSalesInvoiceListFilters(t *testing.T) {
	svc := newFakeInvoices()
	r := newInvoiceEngine(svc)
	companyID := id.New()

	w := serve(r, http.MethodGet, "/document/sales-invoices?companyId="+companyID.String()+
		"&status=unpaid,overdue&from=2025-01-01&to=2025-03-31&limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	f := svc.lastFilter
	require.NotNil(t, f.CompanyID)
	assert.Equal(t, companyID, *f.CompanyID)
	assert.Equal(t, []sales_invoice.Status{sales_invoice.StatusUnpaid, sales_invoice.StatusOverdue}, f.Statuses)
	require.NotNil(t, f.DateFrom)
	assert.Equal(t, "2025-01-01", f.DateFrom.Format(time.DateOnly))
	assert.Equal(t, 20, f.Limit)

	w = serve(r, http.MethodGet, "/document/sales-invoices?from=March", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/document/sales-invoices/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/document/sales-invoices/"+id.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetadataEndpoints(t *testing.T) {
	registry, err := doctypes.NewRegistry()
	require.NoError(t, err)

	r := newTestEngine()
	h := NewMetadataHandler(NewBaseHandler(), registry, nil)
	r.GET("/meta", h.ListEntities)
	r.GET("/meta/:name", h.GetEntity)
	r.POST("/meta/:name/validate", h.Validate)
	r.PUT("/meta/:name/customization", h.Customize)

	w := serve(r, http.MethodGet, "/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, jsonBody(t, w)["items"])

	w = serve(r, http.MethodGet, "/meta/"+strings.ReplaceAll(doctypes.SalesInvoice, " ", "%20"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/meta/Nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodPost, "/meta/"+strings.ReplaceAll(doctypes.SalesInvoice, " ", "%20")+"/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeRequiredField, jsonBody(t, w)["code"])

	w = serve(r, http.MethodPut, "/meta/Customer/customization", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestEngine()
	healthy := NewHealthHandler(nil, "workshop", "test", map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return nil }),
	})
	broken := NewHealthHandler(nil, "workshop", "test", map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	r.GET("/live", healthy.Live)
	r.GET("/ready", healthy.Ready)
	r.GET("/info", healthy.Info)
	r.GET("/broken", broken.Ready)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/live", nil).Code)

	w := serve(r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", jsonBody(t, w)["checks"].(map[string]any)["redis"])

	w = serve(r, http.MethodGet, "/broken", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, jsonBody(t, w)["checks"].(map[string]any)["redis"], "connection refused")

	w = serve(r, http.MethodGet, "/info", nil)
	assert.Equal(t, "workshop", jsonBody(t, w)["app"])
}
