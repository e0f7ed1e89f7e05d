package routes

import (
	"github.com/gin-gonic/gin"

	"adapta/internal/interfaces/http/handlers"
	"adapta/internal/interfaces/http/middleware"
)

// EntitlementRouteConfig holds dependencies for usage quota routes.
type EntitlementRouteConfig struct {
	EntitlementHandler *handlers.EntitlementHandler
	AuthMiddleware     *middleware.AuthMiddleware
	AnonymousID        gin.HandlerFunc
}

// SetupEntitlementRoutes configures usage quota routes. Both anonymous and
// authenticated callers are served; the caller identity is resolved from
// the access token when present, falling back to the anonymous cookie.
func SetupEntitlementRoutes(engine *gin.Engine, cfg *EntitlementRouteConfig) {
	entitlements := engine.Group("/entitlements")
	entitlements.Use(cfg.AnonymousID, cfg.AuthMiddleware.OptionalAuth())
	{
		entitlements.GET("", cfg.EntitlementHandler.GetEntitlements)
		entitlements.POST("/adaptations", cfg.EntitlementHandler.IncrementAdaptation)
	}
}
