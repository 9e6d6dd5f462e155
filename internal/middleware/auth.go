package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

// AuthMiddleware rejects requests without a valid bearer token and stores
// the authenticated user in the gin context. When an earlier middleware in
// the chain already resolved the caller it is not resolved again.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		user, ok := resolveUser(c, auth)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the caller when a token is present but
// lets anonymous requests through; read paths are open to anyone. Mounted
// group-wide so downstream middleware like the rate limiter sees the caller.
func OptionalAuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			if user, ok := resolveUser(c, auth); ok {
				c.Set("user", user)
				c.Set("user_id", user.ID)
			}
		}
		c.Next()
	}
}

func resolveUser(c *gin.Context, auth *service.AuthService) (*models.User, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}
	claims, err := auth.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}
	user, err := auth.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// CurrentUser returns the authenticated user stored by the auth middleware,
// or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
