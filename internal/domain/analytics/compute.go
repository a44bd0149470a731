package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/id"
	"workshop/internal/core/types"
	"workshop/internal/domain/vat"
)

var hundred = decimal.NewFromInt(100)

// BuildDashboard aggregates invoice and line facts. Facts are expected to be
// filtered by company and date range already.
func BuildDashboard(f Filter, invoices []InvoiceFact, lines []LineFact) *Dashboard {
	d := &Dashboard{
		CompanyID:      f.CompanyID,
		From:           f.From,
		To:             f.To,
		NetRevenue:     decimal.Zero,
		VATCollected:   decimal.Zero,
		GrossRevenue:   decimal.Zero,
		Collected:      decimal.Zero,
		Outstanding:    decimal.Zero,
		AverageInvoice: decimal.Zero,
		CollectionRate: decimal.Zero,
		MonthlyTrend:   make([]MonthPoint, 0),
		TopCustomers:   make([]CustomerRevenue, 0),
		ByItemType:     make([]ItemTypeRevenue, 0),
		Aging:          AgeReceivables(invoices, f.AsOf),
	}

	months := make(map[string]*MonthPoint)
	customers := make(map[id.ID]*CustomerRevenue)
	for _, inv := range invoices {
		d.InvoiceCount++
		d.NetRevenue = d.NetRevenue.Add(inv.NetTotal)
		d.VATCollected = d.VATCollected.Add(inv.VATTotal)
		d.GrossRevenue = d.GrossRevenue.Add(inv.GrandTotal)
		d.Collected = d.Collected.Add(inv.PaidAmount)
		d.Outstanding = d.Outstanding.Add(inv.Outstanding)

		key := inv.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthPoint{Month: key, Net: decimal.Zero, VAT: decimal.Zero, Gross: decimal.Zero}
			months[key] = m
		}
		m.InvoiceCount++
		m.Net = m.Net.Add(inv.NetTotal)
		m.VAT = m.VAT.Add(inv.VATTotal)
		m.Gross = m.Gross.Add(inv.GrandTotal)

		c, ok := customers[inv.CustomerID]
		if !ok {
			c = &CustomerRevenue{CustomerID: inv.CustomerID, CustomerName: inv.CustomerName, Gross: decimal.Zero, Outstanding: decimal.Zero}
			customers[inv.CustomerID] = c
		}
		c.InvoiceCount++
		c.Gross = c.Gross.Add(inv.GrandTotal)
		c.Outstanding = c.Outstanding.Add(inv.Outstanding)
	}

	if d.InvoiceCount > 0 {
		d.AverageInvoice = types.RoundOMR(d.GrossRevenue.Div(decimal.NewFromInt(int64(d.InvoiceCount))))
	}
	if d.GrossRevenue.IsPositive() {
		d.CollectionRate = d.Collected.Mul(hundred).Div(d.GrossRevenue).Round(2)
	}

	for _, m := range months {
		d.MonthlyTrend = append(d.MonthlyTrend, *m)
	}
	slices.SortFunc(d.MonthlyTrend, func(a, b MonthPoint) int { return cmp.Compare(a.Month, b.Month) })

	for _, c := range customers {
		d.TopCustomers = append(d.TopCustomers, *c)
	}
	slices.SortFunc(d.TopCustomers, func(a, b CustomerRevenue) int {
		if c := b.Gross.Cmp(a.Gross); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerName, b.CustomerName)
	})
	topN := f.TopN
	if topN <= 0 {
		topN = 10
	}
	if len(d.TopCustomers) > topN {
		d.TopCustomers = d.TopCustomers[:topN]
	}

	d.ByItemType = revenueByItemType(lines, d.NetRevenue)
	return d
}

func revenueByItemType(lines []LineFact, totalNet types.Money) []ItemTypeRevenue {
	index := make(map[string]int)
	out := make([]ItemTypeRevenue, 0)
	for _, l := range lines {
		i, ok := index[l.ItemType]
		if !ok {
			i = len(out)
			index[l.ItemType] = i
			out = append(out, ItemTypeRevenue{ItemType: l.ItemType, Net: decimal.Zero, VAT: decimal.Zero, Share: decimal.Zero})
		}
		out[i].Net = out[i].Net.Add(l.NetAmount)
		out[i].VAT = out[i].VAT.Add(l.VATAmount)
	}
	for i := range out {
		if totalNet.IsPositive() {
			out[i].Share = out[i].Net.Mul(hundred).Div(totalNet).Round(2)
		}
	}
	slices.SortFunc(out, func(a, b ItemTypeRevenue) int { return b.Net.Cmp(a.Net) })
	return out
}

// AgeReceivables buckets outstanding amounts by days past the due date at
// asOf. Invoices without a due date are due on their invoice date.
func AgeReceivables(invoices []InvoiceFact, asOf time.Time) Aging {
	a := Aging{
		Current:    decimal.Zero,
		Days1To30:  decimal.Zero,
		Days31To60: decimal.Zero,
		Days61To90: decimal.Zero,
		Over90:     decimal.Zero,
	}
	ref := vat.DateOnly(asOf)
	for _, inv := range invoices {
		if !inv.Outstanding.IsPositive() {
			continue
		}
		due := inv.Date
		if inv.DueDate != nil {
			due = *inv.DueDate
		}
		days := int(ref.Sub(vat.DateOnly(due)).Hours() / 24)
		switch {
		case days <= 0:
			a.Current = a.Current.Add(inv.Outstanding)
		case days <= 30:
			a.Days1To30 = a.Days1To30.Add(inv.Outstanding)
		case days <= 60:
			a.Days31To60 = a.Days31To60.Add(inv.Outstanding)
		case days <= 90:
			a.Days61To90 = a.Days61To90.Add(inv.Outstanding)
		default:
			a.Over90 = a.Over90.Add(inv.Outstanding)
		}
	}
	return a
}

// BuildVATReturn sums line facts per VAT category.
func BuildVATReturn(f Filter, invoiceCount int, lines []LineFact) *VATReturn {
	r := &VATReturn{
		CompanyID:             f.CompanyID,
		From:                  f.From,
		To:                    f.To,
		InvoiceCount:          invoiceCount,
		StandardRatedSupplies: decimal.Zero,
		OutputVAT:             decimal.Zero,
		ZeroRatedSupplies:     decimal.Zero,
		ExemptSupplies:        decimal.Zero,
		OutOfScopeSupplies:    decimal.Zero,
	}
	for _, l := range lines {
		switch l.VATCategory {
		case vat.CategoryZeroRated:
			r.ZeroRatedSupplies = r.ZeroRatedSupplies.Add(l.NetAmount)
		case vat.CategoryExempt:
			r.ExemptSupplies = r.ExemptSupplies.Add(l.NetAmount)
		case vat.CategoryOutOfScope:
			r.OutOfScopeSupplies = r.OutOfScopeSupplies.Add(l.NetAmount)
		default:
			r.StandardRatedSupplies = r.StandardRatedSupplies.Add(l.NetAmount)
			r.OutputVAT = r.OutputVAT.Add(l.VATAmount)
		}
	}
	r.TotalSupplies = types.SumOMR(r.StandardRatedSupplies, r.ZeroRatedSupplies, r.ExemptSupplies, r.OutOfScopeSupplies)
	return r
}
