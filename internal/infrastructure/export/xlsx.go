// Package export renders analytics workbooks as xlsx.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"workshop/internal/core/types"
	"workshop/internal/domain/analytics"
)

// Sheet names in workbook order.
const (
	SheetSummary      = "Summary"
	SheetMonthlyTrend = "Monthly Trend"
	SheetTopCustomers = "Top Customers"
	SheetVATReturn    = "VAT Return"
	SheetInvoices     = "Invoices"
)

// omrFormat shows three decimals, the Baisa precision of the Omani rial.
const omrFormat = "#,##0.000"

// XLSX implements analytics.Exporter.
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

var _ analytics.Exporter = (*XLSX)(nil)

type sheetWriter struct {
	f      *excelize.File
	name   string
	row    int
	header int
	money  int
	pct    int
}

func (x *XLSX) Write(w io.Writer, wb analytics.Workbook) error {
	f, err := Build(wb)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook.
func Build(wb analytics.Workbook) (*excelize.File, error) {
	if wb.Dashboard == nil {
		return nil, fmt.Errorf("export: dashboard is required")
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetMonthlyTrend, SheetTopCustomers, SheetVATReturn, SheetInvoices} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	format := omrFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		f.Close()
		return nil, err
	}
	pctFormat := "0.00"
	pct, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pctFormat})
	if err != nil {
		f.Close()
		return nil, err
	}

	sheet := func(name string) *sheetWriter {
		if wb.Arabic {
			// right-to-left layout for Arabic readers
			rtl := true
			_ = f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl})
		}
		return &sheetWriter{f: f, name: name, header: header, money: money, pct: pct}
	}

	steps := []func() error{
		func() error { return summary(sheet(SheetSummary), wb) },
		func() error { return monthlyTrend(sheet(SheetMonthlyTrend), wb) },
		func() error { return topCustomers(sheet(SheetTopCustomers), wb) },
		func() error { return vatReturn(sheet(SheetVATReturn), wb) },
		func() error { return invoices(sheet(SheetInvoices), wb) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func label(wb analytics.Workbook, en, ar string) string {
	if wb.Arabic {
		return ar
	}
	return en
}

// headers writes a bold header row.
func (s *sheetWriter) headers(cols ...string) error {
	s.row++
	for i, h := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if err := s.f.SetCellValue(s.name, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), s.row)
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	return s.f.SetCellStyle(s.name, first, last, s.header)
}

// values writes one row. Decimals are stored as numbers with the OMR format.
func (s *sheetWriter) values(vals ...any) error {
	s.row++
	for i, v := range vals {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		style := 0
		switch t := v.(type) {
		case decimal.Decimal:
			v = types.RoundOMR(t).InexactFloat64()
			style = s.money
		case percent:
			v = decimal.Decimal(t).Round(2).InexactFloat64()
			style = s.pct
		case time.Time:
			v = t.Format(time.DateOnly)
		case *time.Time:
			if t == nil {
				v = ""
			} else {
				v = t.Format(time.DateOnly)
			}
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			return err
		}
		if style != 0 {
			if err := s.f.SetCellStyle(s.name, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sheetWriter) widths(width float64, cols int) error {
	last, _ := excelize.ColumnNumberToName(cols)
	return s.f.SetColWidth(s.name, "A", last, width)
}

type percent decimal.Decimal

func summary(s *sheetWriter, wb analytics.Workbook) error {
	d := wb.Dashboard
	if err := s.headers(label(wb, "Metric", "المؤشر"), label(wb, "Value", "القيمة")); err != nil {
		return err
	}
	rows := []struct {
		en, ar string
		v      any
	}{
		{"From", "من", d.From},
		{"To", "إلى", d.To},
		{"Invoices", "عدد الفواتير", d.InvoiceCount},
		{"Net revenue", "صافي الإيرادات", d.NetRevenue},
		{"VAT collected", "ضريبة القيمة المضافة المحصلة", d.VATCollected},
		{"Gross revenue", "إجمالي الإيرادات", d.GrossRevenue},
		{"Collected", "المحصل", d.Collected},
		{"Outstanding", "المستحق", d.Outstanding},
		{"Average invoice", "متوسط الفاتورة", d.AverageInvoice},
		{"Collection rate %", "نسبة التحصيل %", percent(d.CollectionRate)},
		{"Aging: current", "أعمار الديون: غير مستحق", d.Aging.Current},
		{"Aging: 1-30 days", "أعمار الديون: 1-30 يوم", d.Aging.Days1To30},
		{"Aging: 31-60 days", "أعمار الديون: 31-60 يوم", d.Aging.Days31To60},
		{"Aging: 61-90 days", "أعمار الديون: 61-90 يوم", d.Aging.Days61To90},
		{"Aging: over 90 days", "أعمار الديون: أكثر من 90 يوم", d.Aging.Over90},
	}
	for _, r := range rows {
		if err := s.values(label(wb, r.en, r.ar), r.v); err != nil {
			return err
		}
	}

	s.row++
	if err := s.headers(label(wb, "Item type", "نوع البند"), label(wb, "Net", "الصافي"), label(wb, "VAT", "الضريبة"), label(wb, "Share %", "النسبة %")); err != nil {
		return err
	}
	for _, it := range d.ByItemType {
		if err := s.values(it.ItemType, it.Net, it.VAT, percent(it.Share)); err != nil {
			return err
		}
	}
	return s.widths(28, 4)
}

func monthlyTrend(s *sheetWriter, wb analytics.Workbook) error {
	if err := s.headers(label(wb, "Month", "الشهر"), label(wb, "Invoices", "الفواتير"),
		label(wb, "Net", "الصافي"), label(wb, "VAT", "الضريبة"), label(wb, "Gross", "الإجمالي")); err != nil {
		return err
	}
	for _, m := range wb.Dashboard.MonthlyTrend {
		if err := s.values(m.Month, m.InvoiceCount, m.Net, m.VAT, m.Gross); err != nil {
			return err
		}
	}
	return s.widths(16, 5)
}

func topCustomers(s *sheetWriter, wb analytics.Workbook) error {
	if err := s.headers("#", label(wb, "Customer", "العميل"), label(wb, "Invoices", "الفواتير"),
		label(wb, "Gross", "الإجمالي"), label(wb, "Outstanding", "المستحق")); err != nil {
		return err
	}
	for i, c := range wb.Dashboard.TopCustomers {
		if err := s.values(i+1, c.CustomerName, c.InvoiceCount, c.Gross, c.Outstanding); err != nil {
			return err
		}
	}
	return s.widths(22, 5)
}

func vatReturn(s *sheetWriter, wb analytics.Workbook) error {
	r := wb.VATReturn
	if r == nil {
		return nil
	}
	if err := s.headers(label(wb, "Box", "البند"), label(wb, "Amount (OMR)", "المبلغ (ر.ع.)")); err != nil {
		return err
	}
	rows := []struct {
		en, ar string
		v      any
	}{
		{"Period", "الفترة", r.Period},
		{"Invoices", "عدد الفواتير", r.InvoiceCount},
		{"Standard-rated supplies", "التوريدات الخاضعة للنسبة الأساسية", r.StandardRatedSupplies},
		{"Output VAT", "ضريبة المخرجات", r.OutputVAT},
		{"Zero-rated supplies", "التوريدات الخاضعة للنسبة الصفرية", r.ZeroRatedSupplies},
		{"Exempt supplies", "التوريدات المعفاة", r.ExemptSupplies},
		{"Out of scope supplies", "التوريدات خارج النطاق", r.OutOfScopeSupplies},
		{"Total supplies", "إجمالي التوريدات", r.TotalSupplies},
	}
	for _, row := range rows {
		if err := s.values(label(wb, row.en, row.ar), row.v); err != nil {
			return err
		}
	}
	return s.widths(34, 2)
}

func invoices(s *sheetWriter, wb analytics.Workbook) error {
	if err := s.headers(label(wb, "Number", "الرقم"), label(wb, "Date", "التاريخ"), label(wb, "Due date", "تاريخ الاستحقاق"),
		label(wb, "Customer", "العميل"), label(wb, "Net", "الصافي"), label(wb, "VAT", "الضريبة"),
		label(wb, "Grand total", "الإجمالي"), label(wb, "Paid", "المدفوع"), label(wb, "Outstanding", "المستحق")); err != nil {
		return err
	}
	for _, inv := range wb.Invoices {
		if err := s.values(inv.Number, inv.Date, inv.DueDate, inv.CustomerName,
			inv.NetTotal, inv.VATTotal, inv.GrandTotal, inv.PaidAmount, inv.Outstanding); err != nil {
			return err
		}
	}
	if err := s.widths(16, 9); err != nil {
		return err
	}
	if s.row > 1 {
		return s.f.AutoFilter(s.name, fmt.Sprintf("A1:I%d", s.row), nil)
	}
	return nil
}
