package persistence

import (
	"context"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/funnel/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReportRepository implements funnel.ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// Insert stores a report. Failures are returned as is; callers decide
// whether a retry is safe.
func (r *GormReportRepository) Insert(ctx context.Context, report *funnel.Report) error {
	model := models.ReportModelFromDomain(report)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.NewStoreError("insert report", err)
	}
	return nil
}

// List returns reports newest first, joined with their funnel
func (r *GormReportRepository) List(ctx context.Context, filter funnel.ReportFilter) ([]funnel.ReportView, error) {
	query := r.db.WithContext(ctx).
		Table("reports").
		Select("reports.*, funnels.name AS funnel_name, funnels.type AS funnel_type").
		Joins("JOIN funnels ON funnels.id = reports.funnel_id")

	if filter.FunnelID != nil {
		query = query.Where("reports.funnel_id = ?", *filter.FunnelID)
	}
	if from, to, ok := filter.DayRange(); ok {
		query = query.Where("reports.report_date >= ? AND reports.report_date < ?", from, to)
	}
	query = query.Order("reports.report_date DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.ReportViewRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, shared.NewStoreError("list reports", err)
	}

	views := make([]funnel.ReportView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].ToDomain())
	}
	return views, nil
}

var _ funnel.ReportRepository = (*GormReportRepository)(nil)
