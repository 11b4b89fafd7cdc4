package router

import (
	"github.com/funnel/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the endpoint handlers of the dashboard API
type Handlers struct {
	Health  *handler.HealthHandler
	Funnel  *handler.FunnelHandler
	Report  *handler.ReportHandler
	Refresh *handler.RefreshHandler
	Stream  *handler.OutcomeStreamHandler
}

// RouteConfig holds per-route middleware
type RouteConfig struct {
	// RefreshLimit guards the refresh action; nil disables it
	RefreshLimit gin.HandlerFunc
}

// Mount registers the health probe and every /api/v1 route on engine
func Mount(engine *gin.Engine, h Handlers, cfg RouteConfig) {
	engine.GET("/health", h.Health.Check)

	funnels := NewDomainGroup("funnels", "/funnels").
		GET("", h.Funnel.List).
		GET("/:type", h.Funnel.Detail).
		POST("/:type/reports", h.Report.Generate)

	reports := NewDomainGroup("reports", "/reports").
		GET("", h.Report.List)

	refresh := NewDomainGroup("refresh", "/refresh")
	if cfg.RefreshLimit != nil {
		refresh.Use(cfg.RefreshLimit)
	}
	refresh.POST("", h.Refresh.Trigger)

	events := NewDomainGroup("events", "/events").
		GET("/stream", h.Stream.Stream)

	NewRouter(engine).
		Register(funnels, reports, refresh, events).
		Setup()
}
