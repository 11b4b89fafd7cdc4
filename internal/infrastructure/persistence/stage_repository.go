package persistence

import (
	"context"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStageRepository implements funnel.StageRepository using GORM
type GormStageRepository struct {
	db *gorm.DB
}

// NewGormStageRepository creates a new GormStageRepository
func NewGormStageRepository(db *gorm.DB) *GormStageRepository {
	return &GormStageRepository{db: db}
}

// FindByFunnel returns every stage record of a funnel, oldest first
func (r *GormStageRepository) FindByFunnel(ctx context.Context, funnelID uuid.UUID) ([]funnel.StageRecord, error) {
	var rows []models.StageModel
	if err := r.db.WithContext(ctx).
		Where("funnel_id = ?", funnelID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, shared.NewStoreError("list funnel stages", err)
	}

	records := make([]funnel.StageRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToDomain())
	}
	return records, nil
}

var _ funnel.StageRepository = (*GormStageRepository)(nil)
