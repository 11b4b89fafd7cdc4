package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/funnel/backend/internal/domain/funnel"
	"github.com/funnel/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultFunnelNames are the display names seeded for each category
var DefaultFunnelNames = map[funnel.FunnelType]string{
	funnel.FunnelTypeEventos:   "Funil de Eventos",
	funnel.FunnelTypeAds:       "Funil de ADS",
	funnel.FunnelTypeOutbound:  "Funil Outbound",
	funnel.FunnelTypeParceiros: "Funil de Parceiros",
	funnel.FunnelTypeIndicados: "Funil de Indicados",
}

// AutoMigrate creates the tables from the GORM models. It is used for the
// sqlite driver; postgres deployments run the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedFunnels inserts the five funnels unless a funnel of that type exists.
// Creation times are staggered so the default listing follows dashboard order.
func SeedFunnels(ctx context.Context, db *gorm.DB) error {
	base := time.Now().UTC()
	for i, t := range funnel.AllFunnelTypes {
		at := base.Add(time.Duration(i) * time.Second)
		m := models.FunnelModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: at, UpdatedAt: at},
			Name:      DefaultFunnelNames[t],
			Type:      string(t),
		}
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "type"}}, DoNothing: true}).
			Create(&m).Error
		if err != nil {
			return fmt.Errorf("seed funnel %s: %w", t, err)
		}
	}
	return nil
}
