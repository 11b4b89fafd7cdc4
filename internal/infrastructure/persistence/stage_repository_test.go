package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStageRepository_FindByFunnel(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()

	ads, err := NewGormFunnelRepository(db).FindByType(ctx, funnel.FunnelTypeAds)
	require.NoError(t, err)
	outbound, err := NewGormFunnelRepository(db).FindByType(ctx, funnel.FunnelTypeOutbound)
	require.NoError(t, err)

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	insertStage(t, db, ads.ID, funnel.StagePropostas, 4, 2000, strPtr("google"), base.Add(2*time.Minute))
	insertStage(t, db, ads.ID, funnel.StageEmContato, 10, 0, strPtr("meta"), base)
	insertStage(t, db, ads.ID, funnel.StageContratos, 2, 1500, nil, base.Add(time.Minute))
	insertStage(t, db, outbound.ID, funnel.StageEmContato, 99, 0, nil, base)

	repo := NewGormStageRepository(db)

	t.Run("returns only the funnel's records, oldest first", func(t *testing.T) {
		records, err := repo.FindByFunnel(ctx, ads.ID)

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, funnel.StageEmContato, records[0].StageName)
		assert.Equal(t, funnel.StageContratos, records[1].StageName)
		assert.Equal(t, funnel.StagePropostas, records[2].StageName)
		assert.Equal(t, "meta", records[0].SourceKey())
		assert.Equal(t, funnel.DefaultSourceKey, records[1].SourceKey())
		assert.True(t, records[2].TotalValue.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("returns an empty list for a funnel without stages", func(t *testing.T) {
		records, err := repo.FindByFunnel(ctx, uuid.New())

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestGormStageRepository_StoreError(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "funnel_stages" WHERE funnel_id = \$1 ORDER BY created_at ASC`).
		WillReturnError(errors.New("timeout"))

	_, err := NewGormStageRepository(db).FindByFunnel(context.Background(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
