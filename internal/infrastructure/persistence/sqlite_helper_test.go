package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSQLiteDB returns an in-memory database with the schema and seeded funnels
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, SeedFunnels(context.Background(), db))
	return db
}

func insertStage(t *testing.T, db *gorm.DB, funnelID uuid.UUID, stage funnel.StageName, leads int64, value int64, source *string, at time.Time) {
	t.Helper()

	m := &models.StageModel{
		BaseModel:  models.BaseModel{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
		FunnelID:   funnelID,
		StageName:  string(stage),
		LeadCount:  leads,
		TotalValue: decimal.NewFromInt(value),
		Source:     source,
	}
	require.NoError(t, db.Create(m).Error)
}

func strPtr(s string) *string {
	return &s
}
