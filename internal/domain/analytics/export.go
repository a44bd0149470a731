package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	appctx "workshop/internal/core/context"
	"workshop/pkg/omr"
)

// Workbook is everything an analytics export contains.
type Workbook struct {
	Dashboard *Dashboard
	VATReturn *VATReturn
	Invoices  []InvoiceFact
	Arabic    bool
}

// Exporter renders a Workbook, e.g. as xlsx.
type Exporter interface {
	Write(w io.Writer, wb Workbook) error
}

// ErrNoExporter is returned by Export when no Exporter is configured.
var ErrNoExporter = errors.New("analytics: no exporter configured")

// Export writes the dashboard, the VAT summary of the same range and the
// invoice register of the filter to w.
func (s *Service) Export(ctx context.Context, f Filter, w io.Writer) error {
	if s.exporter == nil {
		return ErrNoExporter
	}
	f, err := s.normalize(f)
	if err != nil {
		return err
	}

	invoices, err := s.repo.InvoiceFacts(ctx, f)
	if err != nil {
		return fmt.Errorf("invoice facts: %w", err)
	}
	lines, err := s.repo.LineFacts(ctx, f)
	if err != nil {
		return fmt.Errorf("line facts: %w", err)
	}

	d := BuildDashboard(f, invoices, lines)
	d.GeneratedAt = s.now()
	r := BuildVATReturn(f, len(invoices), lines)
	r.Period = f.From.Format(time.DateOnly) + ".." + f.To.Format(time.DateOnly)

	return s.exporter.Write(w, Workbook{
		Dashboard: d,
		VATReturn: r,
		Invoices:  invoices,
		Arabic:    omr.IsArabic(appctx.GetLocale(ctx)),
	})
}
