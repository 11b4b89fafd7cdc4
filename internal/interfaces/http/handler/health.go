package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/funnel/backend/internal/infrastructure/persistence"
	"github.com/funnel/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabaseProber reports database liveness
type DatabaseProber interface {
	Ping(ctx context.Context) error
	Stats() (persistence.ConnectionStats, error)
}

// SchedulerStatus reports the snapshot scheduler state
type SchedulerStatus interface {
	Status() map[string]any
}

// HealthHandler serves the health probe
type HealthHandler struct {
	BaseHandler
	db        DatabaseProber
	scheduler SchedulerStatus
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabaseProber, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// WithScheduler adds the snapshot scheduler state to the health response
func (h *HealthHandler) WithScheduler(s SchedulerStatus) *HealthHandler {
	h.scheduler = s
	return h
}

// HealthResponse is the health probe payload
type HealthResponse struct {
	Status    string                       `json:"status"`
	Version   string                       `json:"version"`
	GoVersion string                       `json:"go_version"`
	Uptime    string                       `json:"uptime"`
	Database  string                       `json:"database"`
	Pool      *persistence.ConnectionStats `json:"pool,omitempty"`
	Scheduler map[string]any               `json:"scheduler,omitempty"`
}

// Check pings the database within two seconds. An unreachable database
// answers 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  "up",
	}
	if h.scheduler != nil {
		resp.Scheduler = h.scheduler.Status()
	}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithData(
			dto.ErrCodeUnavailable,
			"Database is unreachable",
			getRequestID(c),
			resp,
		))
		return
	}

	if stats, err := h.db.Stats(); err == nil {
		resp.Pool = &stats
	}
	h.Success(c, resp)
}
