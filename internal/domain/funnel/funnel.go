// Package funnel holds the sales funnel domain: funnels, their stage records,
// performance snapshots and the aggregation rules that derive dashboard
// totals and metrics from stage records.
package funnel

import (
	"strings"

	"github.com/funnel/backend/internal/domain/shared"
)

// FunnelType is the acquisition channel category of a funnel
type FunnelType string

const (
	FunnelTypeEventos   FunnelType = "eventos"
	FunnelTypeAds       FunnelType = "ads"
	FunnelTypeOutbound  FunnelType = "outbound"
	FunnelTypeParceiros FunnelType = "parceiros"
	FunnelTypeIndicados FunnelType = "indicados"
)

// AllFunnelTypes lists funnel types in dashboard order
var AllFunnelTypes = []FunnelType{
	FunnelTypeEventos,
	FunnelTypeAds,
	FunnelTypeOutbound,
	FunnelTypeParceiros,
	FunnelTypeIndicados,
}

// IsValid returns true if the funnel type is one of the known categories
func (t FunnelType) IsValid() bool {
	switch t {
	case FunnelTypeEventos, FunnelTypeAds, FunnelTypeOutbound,
		FunnelTypeParceiros, FunnelTypeIndicados:
		return true
	default:
		return false
	}
}

// String returns the string representation of the funnel type
func (t FunnelType) String() string {
	return string(t)
}

// Label returns the dashboard card title for the funnel type
func (t FunnelType) Label() string {
	switch t {
	case FunnelTypeEventos:
		return "Eventos"
	case FunnelTypeAds:
		return "ADS"
	case FunnelTypeOutbound:
		return "Outbound"
	case FunnelTypeParceiros:
		return "Parceiros"
	case FunnelTypeIndicados:
		return "Indicados"
	default:
		return string(t)
	}
}

// Position returns the dashboard order of the funnel type, or -1 if unknown
func (t FunnelType) Position() int {
	for i, ft := range AllFunnelTypes {
		if ft == t {
			return i
		}
	}
	return -1
}

// ParseFunnelType parses a funnel type, ignoring case and surrounding spaces
func ParseFunnelType(s string) (FunnelType, error) {
	t := FunnelType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidFunnelType
	}
	return t, nil
}

// Funnel is a named sales pipeline for one channel category.
// Funnels are seeded externally and are read-only at runtime.
type Funnel struct {
	shared.BaseEntity
	Name string     `json:"name"`
	Type FunnelType `json:"type"`
}
