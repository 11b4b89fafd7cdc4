package models

import (
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FunnelModel maps the funnels table
type FunnelModel struct {
	BaseModel
	Name string `gorm:"size:200;not null"`
	Type string `gorm:"size:50;not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (FunnelModel) TableName() string {
	return "funnels"
}

// ToDomain converts the model to a domain Funnel
func (m *FunnelModel) ToDomain() *funnel.Funnel {
	return &funnel.Funnel{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Type:       funnel.FunnelType(m.Type),
	}
}

// FunnelModelFromDomain creates a model from a domain Funnel
func FunnelModelFromDomain(f *funnel.Funnel) *FunnelModel {
	m := &FunnelModel{Name: f.Name, Type: string(f.Type)}
	m.FromDomainBaseEntity(f.BaseEntity)
	return m
}

// StageModel maps the funnel_stages table
type StageModel struct {
	BaseModel
	FunnelID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	StageName  string          `gorm:"size:50;not null"`
	LeadCount  int64           `gorm:"not null;default:0"`
	TotalValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Source     *string         `gorm:"size:100"`
}

// TableName returns the table name for GORM
func (StageModel) TableName() string {
	return "funnel_stages"
}

// ToDomain converts the model to a domain StageRecord
func (m *StageModel) ToDomain() funnel.StageRecord {
	return funnel.StageRecord{
		ID:         m.ID.String(),
		FunnelID:   m.FunnelID,
		StageName:  funnel.StageName(m.StageName),
		LeadCount:  m.LeadCount,
		TotalValue: m.TotalValue,
		Source:     m.Source,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// StageModelFromDomain creates a model from a stored domain StageRecord.
// A record whose ID is not a uuid (a computed total) gets a fresh ID.
func StageModelFromDomain(r funnel.StageRecord) *StageModel {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		id = uuid.New()
	}
	return &StageModel{
		BaseModel: BaseModel{
			ID:        id,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		FunnelID:   r.FunnelID,
		StageName:  string(r.StageName),
		LeadCount:  r.LeadCount,
		TotalValue: r.TotalValue,
		Source:     r.Source,
	}
}

// ReportModel maps the reports table. Reports are insert-only so there is
// no updated_at column.
type ReportModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FunnelID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReportDate     time.Time       `gorm:"not null;index"`
	ConversionRate decimal.Decimal `gorm:"type:decimal(7,2);not null"`
	ClosedRevenue  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalPipeline  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	AverageTicket  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReportModel) TableName() string {
	return "reports"
}

// ToDomain converts the model to a domain Report
func (m *ReportModel) ToDomain() funnel.Report {
	return funnel.Report{
		ID:             m.ID,
		FunnelID:       m.FunnelID,
		ReportDate:     m.ReportDate,
		ConversionRate: m.ConversionRate,
		ClosedRevenue:  m.ClosedRevenue,
		TotalPipeline:  m.TotalPipeline,
		AverageTicket:  m.AverageTicket,
		CreatedAt:      m.CreatedAt,
	}
}

// ReportModelFromDomain creates a model from a domain Report
func ReportModelFromDomain(r *funnel.Report) *ReportModel {
	return &ReportModel{
		ID:             r.ID,
		FunnelID:       r.FunnelID,
		ReportDate:     r.ReportDate,
		ConversionRate: r.ConversionRate,
		ClosedRevenue:  r.ClosedRevenue,
		TotalPipeline:  r.TotalPipeline,
		AverageTicket:  r.AverageTicket,
		CreatedAt:      r.CreatedAt,
	}
}

// ReportViewRow is the result row of the reports-with-funnel listing query
type ReportViewRow struct {
	ReportModel
	FunnelName string
	FunnelType string
}

// ToDomain converts the row to a domain ReportView
func (r *ReportViewRow) ToDomain() funnel.ReportView {
	return funnel.ReportView{
		Report:     r.ReportModel.ToDomain(),
		FunnelName: r.FunnelName,
		FunnelType: funnel.FunnelType(r.FunnelType),
	}
}

// AllModels lists the models managed by AutoMigrate
func AllModels() []any {
	return []any{&FunnelModel{}, &StageModel{}, &ReportModel{}}
}
