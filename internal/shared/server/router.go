package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospup-backend/internal/assets"
	"hospup-backend/internal/compose"
	"hospup-backend/internal/renders"
	"hospup-backend/internal/shared/config"
	"hospup-backend/internal/shared/metrics"
	"hospup-backend/internal/shared/server/middleware"
	"hospup-backend/internal/shared/server/respond"
	"hospup-backend/internal/templates"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	TemplateHandler *templates.Handler
	AssetHandler    *assets.Handler
	ComposeHandler  *compose.Handler
	RenderHandler   *renders.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.Identity())

	if deps.TemplateHandler != nil {
		deps.TemplateHandler.RegisterRoutes(api)
	}
	if deps.AssetHandler != nil {
		deps.AssetHandler.RegisterRoutes(api)
	}
	if deps.ComposeHandler != nil {
		deps.ComposeHandler.RegisterRoutes(api)
	}
	if deps.RenderHandler != nil {
		deps.RenderHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
