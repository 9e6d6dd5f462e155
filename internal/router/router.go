package router

import (
	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// SetupRouter configures the application routes. Identity is resolved once
// at the group level so the rate limiter sees the caller; per-route
// AuthMiddleware then only enforces that a caller is present. rateLimiter
// may be nil when redis is unavailable.
func SetupRouter(
	authService *service.AuthService,
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	recipeHandler *api.RecipeHandler,
	catalogHandler *api.CatalogHandler,
	rateLimiter *middleware.RateLimiter,
) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/s/:code", recipeHandler.ResolveShortLink)

	root := router.Group("/api")
	root.Use(middleware.OptionalAuthMiddleware(authService))
	if rateLimiter != nil {
		root.Use(rateLimiter.Middleware())
	}

	authHandler.RegisterRoutes(root)
	userHandler.RegisterRoutes(root)
	recipeHandler.RegisterRoutes(root)
	catalogHandler.RegisterRoutes(root)

	return router
}
