package funnel

import "github.com/funnel/backend/internal/domain/shared"

// Funnel domain errors
var (
	ErrFunnelNotFound    = shared.ErrNotFound.WithMessage("Funnel not found")
	ErrInvalidFunnelType = shared.ErrInvalidInput.WithMessage("Unknown funnel type")
	ErrInvalidStage      = shared.ErrInvalidInput.WithMessage("Unknown stage name")
	ErrNegativeLeadCount = shared.ErrInvalidInput.WithMessage("Lead count must not be negative")
	ErrNegativeValue     = shared.ErrInvalidInput.WithMessage("Total value must not be negative")
)
