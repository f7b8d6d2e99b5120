package handler

import (
	"errors"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/config-grid-service/internal/service"
	"github.com/rs/zerolog"
)

// Dependencies is everything Register needs to mount the public routes.
type Dependencies struct {
	Store     Pinger
	Grid      service.GridService
	Logger    zerolog.Logger
	Metrics   *Metrics
	Templates *template.Template

	RateLimitPerMinute int
	RateLimitBurst     int
	ExportMaxRows      int
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, deps Dependencies) error {
	if deps.Grid == nil {
		return errors.New("handler: grid service is required")
	}
	if deps.Templates == nil {
		t, err := PageTemplates()
		if err != nil {
			return err
		}
		deps.Templates = t
	}

	r.Use(RequestID(), RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}
	r.SetHTMLTemplate(deps.Templates)

	h := NewHealthHandler(deps.Store)
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	RegisterDocs(r)

	grid := NewGridHandler(deps.Grid, deps.Templates, deps.Metrics, deps.ExportMaxRows)
	cfg := r.Group(ConfigurationPrefix, RateLimit(deps.RateLimitPerMinute, deps.RateLimitBurst))
	return mount(cfg, GridRoutes(grid))
}
