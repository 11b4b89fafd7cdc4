package persistence

import (
	"context"
	"errors"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFunnelRepository implements funnel.FunnelRepository using GORM
type GormFunnelRepository struct {
	db *gorm.DB
}

// NewGormFunnelRepository creates a new GormFunnelRepository
func NewGormFunnelRepository(db *gorm.DB) *GormFunnelRepository {
	return &GormFunnelRepository{db: db}
}

// FindByType finds the funnel of a category
func (r *GormFunnelRepository) FindByType(ctx context.Context, t funnel.FunnelType) (*funnel.Funnel, error) {
	var model models.FunnelModel
	if err := r.db.WithContext(ctx).Where("type = ?", string(t)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, funnel.ErrFunnelNotFound
		}
		return nil, shared.NewStoreError("find funnel by type", err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a funnel by its ID
func (r *GormFunnelRepository) FindByID(ctx context.Context, id uuid.UUID) (*funnel.Funnel, error) {
	var model models.FunnelModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, funnel.ErrFunnelNotFound
		}
		return nil, shared.NewStoreError("find funnel", err)
	}
	return model.ToDomain(), nil
}

// List returns all funnels in creation order
func (r *GormFunnelRepository) List(ctx context.Context) ([]funnel.Funnel, error) {
	var rows []models.FunnelModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, shared.NewStoreError("list funnels", err)
	}

	funnels := make([]funnel.Funnel, 0, len(rows))
	for i := range rows {
		funnels = append(funnels, *rows[i].ToDomain())
	}
	return funnels, nil
}

var _ funnel.FunnelRepository = (*GormFunnelRepository)(nil)
