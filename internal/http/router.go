package http

import (
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	DesiredEvents  *DesiredEventHandler
	TrackedEvents  *TrackedEventHandler
	PersonalEvents *PersonalEventHandler
	Schedule       *ScheduleHandler
	Capacity       *CapacityHandler
	Health         *HealthHandler
	// Auth guards every route except /healthz.
	Auth       gin.HandlerFunc
	Middleware []gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	if cfg.Health != nil {
		router.GET("/healthz", cfg.Health.Get)
	}

	api := router.Group("/")
	if cfg.Auth != nil {
		api.Use(cfg.Auth)
	}

	me := api.Group("/me")
	if cfg.DesiredEvents != nil {
		me.POST("/desired-events", cfg.DesiredEvents.Add)
		me.DELETE("/desired-events/:eventID", cfg.DesiredEvents.Remove)
	}
	if cfg.TrackedEvents != nil {
		me.POST("/tracked-events", cfg.TrackedEvents.Track)
		me.DELETE("/tracked-events/:eventID", cfg.TrackedEvents.Untrack)
	}
	if cfg.PersonalEvents != nil {
		me.POST("/personal-events", cfg.PersonalEvents.Create)
		me.PUT("/personal-events/:id", cfg.PersonalEvents.Update)
		me.DELETE("/personal-events/:id", cfg.PersonalEvents.Delete)
	}
	if cfg.Schedule != nil {
		me.POST("/conflicts", cfg.Schedule.CheckConflicts)
		me.GET("/schedule", cfg.Schedule.List)
		me.GET("/schedule.ics", cfg.Schedule.ExportICS)
	}

	if cfg.Capacity != nil {
		api.GET("/events/:eventID/capacity", cfg.Capacity.Get)
	}

	return router
}
