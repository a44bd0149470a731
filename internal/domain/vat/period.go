package vat

import (
	"fmt"
	"time"
)

// ReturnPeriod is the filing frequency of VAT returns.
type ReturnPeriod string

const (
	PeriodMonthly   ReturnPeriod = "monthly"
	PeriodQuarterly ReturnPeriod = "quarterly"
)

func (p ReturnPeriod) IsValid() bool {
	return p == PeriodMonthly || p == PeriodQuarterly
}

// ReturnPeriodBounds returns the first and last day (UTC midnight) of the
// return period containing date. Unknown periods are treated as quarterly.
func ReturnPeriodBounds(date time.Time, period ReturnPeriod) (start, end time.Time) {
	d := DateOnly(date)
	switch period {
	case PeriodMonthly:
		start = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	default:
		q := (int(d.Month()) - 1) / 3
		start = time.Date(d.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 3, -1)
	}
	return start, end
}

// PeriodLabel names the period containing date: "2025-03" or "2025-Q1".
func PeriodLabel(date time.Time, period ReturnPeriod) string {
	d := DateOnly(date)
	if period == PeriodMonthly {
		return d.Format("2006-01")
	}
	return fmt.Sprintf("%d-Q%d", d.Year(), (int(d.Month())-1)/3+1)
}

// DateOnly drops the clock part, keeping the calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
