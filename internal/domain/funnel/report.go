package funnel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report is an immutable snapshot of the performance metrics of one funnel
type Report struct {
	ID             uuid.UUID       `json:"id"`
	FunnelID       uuid.UUID       `json:"funnel_id"`
	ReportDate     time.Time       `json:"report_date"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	ClosedRevenue  decimal.Decimal `json:"closed_revenue"`
	TotalPipeline  decimal.Decimal `json:"total_pipeline"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewReport snapshots metrics for a funnel at the given time.
// Values are rounded to two decimal places, the precision of the reports table.
func NewReport(funnelID uuid.UUID, m PerformanceMetrics, at time.Time) *Report {
	return &Report{
		ID:             uuid.New(),
		FunnelID:       funnelID,
		ReportDate:     at,
		ConversionRate: m.ConversionRate.Round(2),
		ClosedRevenue:  m.ClosedRevenue.Round(2),
		TotalPipeline:  m.TotalPipeline.Round(2),
		AverageTicket:  m.AverageTicket.Round(2),
		CreatedAt:      at,
	}
}

// ReportView is a report joined with its funnel for listing
type ReportView struct {
	Report
	FunnelName string     `json:"funnel_name"`
	FunnelType FunnelType `json:"funnel_type"`
}

// ReportFilter narrows a report listing
type ReportFilter struct {
	// FunnelID restricts the listing to one funnel
	FunnelID *uuid.UUID
	// Date restricts the listing to reports taken on that calendar day
	Date *time.Time
	// Limit caps the number of rows; zero means no limit
	Limit int
}

// DayRange returns the half-open interval covering the filter date
func (f ReportFilter) DayRange() (from, to time.Time, ok bool) {
	if f.Date == nil {
		return time.Time{}, time.Time{}, false
	}
	d := *f.Date
	from = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return from, from.AddDate(0, 0, 1), true
}
