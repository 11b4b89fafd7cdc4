package funnel

import (
	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/google/uuid"
)

// FunnelSummary is one card of the dashboard overview
type FunnelSummary struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Type     funnel.FunnelType `json:"type"`
	Label    string            `json:"label"`
	Position int               `json:"position"`
}

// FunnelDetail holds everything the funnel detail view renders
type FunnelDetail struct {
	Funnel funnel.Funnel
	// Groups are the per-source stage columns in layout order
	Groups []funnel.SourceGroup
	// Total is the cross-source column, always nine stages
	Total          []funnel.StageRecord
	UnknownSources []string
	Metrics        funnel.PerformanceMetrics
	Financial      funnel.FinancialTable
}

// GeneratedReport is the outcome of a successful report generation
type GeneratedReport struct {
	Funnel funnel.Funnel
	Report funnel.Report
}

func toFunnelSummary(f funnel.Funnel) FunnelSummary {
	return FunnelSummary{
		ID:       f.ID,
		Name:     f.Name,
		Type:     f.Type,
		Label:    f.Type.Label(),
		Position: f.Type.Position(),
	}
}
