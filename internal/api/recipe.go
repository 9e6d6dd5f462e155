package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

type RecipeHandler struct {
	authService     *service.AuthService
	recipeService   *service.RecipeService
	shoppingService *service.ShoppingService
	imageService    *service.ImageService
}

func NewRecipeHandler(authService *service.AuthService, recipeService *service.RecipeService, shoppingService *service.ShoppingService, imageService *service.ImageService) *RecipeHandler {
	return &RecipeHandler{
		authService:     authService,
		recipeService:   recipeService,
		shoppingService: shoppingService,
		imageService:    imageService,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.authService), h.DownloadShoppingCart)
		recipes.GET("/:id", h.GetRecipe)
		recipes.GET("/:id/get-link", h.GetLink)
		recipes.POST("", middleware.AuthMiddleware(h.authService), h.CreateRecipe)
		recipes.PATCH("/:id", middleware.AuthMiddleware(h.authService), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.authService), h.DeleteRecipe)
		recipes.POST("/:id/favorite", middleware.AuthMiddleware(h.authService), h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(h.authService), h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	page, limit := parsePagination(c)

	filter := service.RecipeFilter{
		NamePrefix: c.Query("name"),
		TagSlugs:   c.QueryArray("tags"),
		Page:       page,
		Limit:      limit,
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"author": "invalid user id"})
			return
		}
		filter.AuthorID = &authorID
	}
	if viewer != nil {
		if c.Query("is_favorited") == "1" {
			filter.FavoritedBy = &viewer.ID
		}
		if c.Query("is_in_shopping_cart") == "1" {
			filter.InShoppingCartOf = &viewer.ID
		}
	}

	recipes, favorites, carts, total, err := h.recipeService.ListRecipes(c.Request.Context(), filter, viewerID(viewer))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i] = toRecipeView(&recipes[i], favorites[recipes[i].ID], carts[recipes[i].ID])
	}
	c.JSON(http.StatusOK, PageView{Count: total, Results: views})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	viewer := middleware.CurrentUser(c)
	recipe, favorited, inCart, err := h.recipeService.GetRecipe(c.Request.Context(), recipeID, viewerID(viewer))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeView(recipe, favorited, inCart))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user := middleware.CurrentUser(c)

	imageURL, err := h.resolveImage(c, req.Image, "recipes")
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), user.ID, service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		ImageURL:    imageURL,
		TagIDs:      req.Tags,
		Ingredients: toIngredientAmounts(req.Ingredients),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeView(recipe, false, false))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	var req RecipePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user := middleware.CurrentUser(c)

	update := service.RecipeUpdate{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
	}
	if req.Image != nil {
		imageURL, err := h.resolveImage(c, *req.Image, "recipes")
		if err != nil {
			respondError(c, err)
			return
		}
		update.ImageURL = &imageURL
	}
	if req.Ingredients != nil {
		update.Ingredients = toIngredientAmounts(req.Ingredients)
	}

	if _, err := h.recipeService.UpdateRecipe(c.Request.Context(), recipeID, user.ID, user.Role, update); err != nil {
		respondError(c, err)
		return
	}

	recipe, favorited, inCart, err := h.recipeService.GetRecipe(c.Request.Context(), recipeID, viewerID(user))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeView(recipe, favorited, inCart))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), recipeID, user.ID, user.Role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	recipe, err := h.shoppingService.AddFavorite(c.Request.Context(), user.ID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeShortView(recipe))
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.shoppingService.RemoveFavorite(c.Request.Context(), user.ID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	recipe, err := h.shoppingService.AddToCart(c.Request.Context(), user.ID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeShortView(recipe))
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.shoppingService.RemoveFromCart(c.Request.Context(), user.ID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart streams the consolidated list as a plain-text
// attachment, one line per distinct ingredient.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	items, err := h.shoppingService.ShoppingList(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("Shopping list:\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s (%s) — %d\n", item.Name, item.MeasurementUnit, item.TotalAmount)
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(sb.String()))
}

// GetLink returns the recipe's short link, built from the request host.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}
	recipe, _, _, err := h.recipeService.GetRecipe(c.Request.Context(), recipeID, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	c.JSON(http.StatusOK, gin.H{
		"short-link": fmt.Sprintf("%s://%s/s/%s", scheme, c.Request.Host, recipe.ShortCode),
	})
}

// ResolveShortLink redirects a short code to the recipe page.
func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	recipe, err := h.recipeService.GetRecipeByShortCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+recipe.ID.String())
}

// resolveImage uploads data-URI payloads to object storage and passes plain
// URLs through unchanged.
func (h *RecipeHandler) resolveImage(c *gin.Context, image, keyPrefix string) (string, error) {
	if image == "" || !strings.HasPrefix(image, "data:image/") || h.imageService == nil {
		return image, nil
	}
	return h.imageService.StoreDataURI(c.Request.Context(), image, keyPrefix)
}

func parseRecipeID(c *gin.Context) (uuid.UUID, bool) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid recipe id"})
		return uuid.Nil, false
	}
	return recipeID, true
}

func viewerID(user *models.User) *uuid.UUID {
	if user == nil {
		return nil
	}
	return &user.ID
}
