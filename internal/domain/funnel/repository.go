package funnel

import (
	"context"

	"github.com/google/uuid"
)

// FunnelRepository reads funnel definitions
type FunnelRepository interface {
	// FindByType returns the funnel of a category or ErrFunnelNotFound
	FindByType(ctx context.Context, t FunnelType) (*Funnel, error)
	// FindByID returns a funnel or ErrFunnelNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Funnel, error)
	// List returns all funnels ordered by creation time
	List(ctx context.Context) ([]Funnel, error)
}

// StageRepository reads stage records
type StageRepository interface {
	// FindByFunnel returns the stage records of a funnel ordered by creation time
	FindByFunnel(ctx context.Context, funnelID uuid.UUID) ([]StageRecord, error)
}

// ReportRepository stores and lists performance snapshots
type ReportRepository interface {
	// Insert stores a new report. It is never retried by the repository.
	Insert(ctx context.Context, report *Report) error
	// List returns reports newest first joined with their funnel
	List(ctx context.Context, filter ReportFilter) ([]ReportView, error)
}
