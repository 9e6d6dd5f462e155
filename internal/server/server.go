package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
)

// Server wires services, handlers and routes into one HTTP server.
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds the full application. redisClient and s3Config may be nil;
// rate limiting and media uploads are then disabled.
func New(db *gorm.DB, redisClient *redis.Client, s3Config *config.S3Config, cfg *config.Config) *Server {
	var imageService *service.ImageService
	if s3Config != nil {
		imageService = service.NewImageService(s3Config)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	profileService := service.NewProfileService(db, imageService)
	recipeService := service.NewRecipeService(db)
	shoppingService := service.NewShoppingService(db)
	subscriptionService := service.NewSubscriptionService(db)
	catalogService := service.NewCatalogService(db)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Window:    time.Minute,
			Limit:     120,
			KeyPrefix: "ratelimit",
		})
	}

	engine := router.SetupRouter(
		authService,
		api.NewAuthHandler(authService),
		api.NewUserHandler(authService, profileService, subscriptionService),
		api.NewRecipeHandler(authService, recipeService, shoppingService, imageService),
		api.NewCatalogHandler(catalogService),
		rateLimiter,
	)

	return &Server{router: engine}
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Stop shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
