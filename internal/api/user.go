package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

type UserHandler struct {
	authService         *service.AuthService
	profileService      *service.ProfileService
	subscriptionService *service.SubscriptionService
}

func NewUserHandler(authService *service.AuthService, profileService *service.ProfileService, subscriptionService *service.SubscriptionService) *UserHandler {
	return &UserHandler{
		authService:         authService,
		profileService:      profileService,
		subscriptionService: subscriptionService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/me", middleware.AuthMiddleware(h.authService), h.Me)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.authService), h.ListSubscriptions)
		users.GET("/:id", h.GetUser)
		users.PUT("/me/avatar", middleware.AuthMiddleware(h.authService), h.SetAvatar)
		users.DELETE("/me/avatar", middleware.AuthMiddleware(h.authService), h.ClearAvatar)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.profileService.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	viewer := middleware.CurrentUser(c)
	views := make([]*UserView, len(users))
	for i := range users {
		subscribed := false
		if viewer != nil {
			subscribed, err = h.subscriptionService.IsSubscribed(c.Request.Context(), viewer.ID, users[i].ID)
			if err != nil {
				respondError(c, err)
				return
			}
		}
		views[i] = toUserView(&users[i], subscribed)
	}
	c.JSON(http.StatusOK, PageView{Count: total, Results: views})
}

func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, toUserView(user, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}
	user, err := h.profileService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	subscribed := false
	if viewer := middleware.CurrentUser(c); viewer != nil {
		subscribed, err = h.subscriptionService.IsSubscribed(c.Request.Context(), viewer.ID, user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toUserView(user, subscribed))
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	url, err := h.profileService.SetAvatar(c.Request.Context(), user.ID, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

func (h *UserHandler) ClearAvatar(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.profileService.ClearAvatar(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}
	follower := middleware.CurrentUser(c)
	author, err := h.subscriptionService.Subscribe(c.Request.Context(), follower.ID, authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserView(author, true))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}
	follower := middleware.CurrentUser(c)
	if err := h.subscriptionService.Unsubscribe(c.Request.Context(), follower.ID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	follower := middleware.CurrentUser(c)
	page, limit := parsePagination(c)

	var recipesLimit *int
	if raw := c.Query("recipes_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"recipes_limit": "must be a non-negative integer"})
			return
		}
		recipesLimit = &n
	}

	subscriptions, total, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), follower.ID, recipesLimit, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]SubscriptionView, len(subscriptions))
	for i, sub := range subscriptions {
		recipes := make([]RecipeShortView, len(sub.Recipes))
		for j := range sub.Recipes {
			recipes[j] = toRecipeShortView(&sub.Recipes[j])
		}
		views[i] = SubscriptionView{
			UserView:     *toUserView(&subscriptions[i].Author, true),
			Recipes:      recipes,
			RecipesCount: sub.RecipesCount,
		}
	}
	c.JSON(http.StatusOK, PageView{Count: total, Results: views})
}

func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
