package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

// Request bodies.

type SignupRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

type IngredientAmountRequest struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount" binding:"required"`
}

type RecipeCreateRequest struct {
	Name        string                    `json:"name" binding:"required,max=200"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time" binding:"required"`
	Image       string                    `json:"image" binding:"required"`
	Tags        []uuid.UUID               `json:"tags" binding:"required"`
	Ingredients []IngredientAmountRequest `json:"ingredients" binding:"required"`
}

type RecipePatchRequest struct {
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time"`
	Image       *string                   `json:"image"`
	Tags        []uuid.UUID               `json:"tags"`
	Ingredients []IngredientAmountRequest `json:"ingredients"`
}

// Views. Each projection is an explicit named function rather than a context
// dependent serializer.

type UserView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	IsSubscribed bool      `json:"is_subscribed"`
	Avatar       string    `json:"avatar"`
}

type TagView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type RecipeIngredientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

type RecipeView struct {
	ID               uuid.UUID              `json:"id"`
	Author           *UserView              `json:"author,omitempty"`
	Name             string                 `json:"name"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
	Image            string                 `json:"image"`
	Tags             []TagView              `json:"tags"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	CreatedAt        time.Time              `json:"created_at"`
}

// RecipeShortView is the minimal projection used in nested list contexts.
type RecipeShortView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type SubscriptionView struct {
	UserView
	Recipes      []RecipeShortView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

type PageView struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
}

func toUserView(user *models.User, isSubscribed bool) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         user.Role,
		IsSubscribed: isSubscribed,
		Avatar:       user.AvatarURL,
	}
}

func toTagView(tag models.Tag) TagView {
	return TagView{ID: tag.ID, Name: tag.Name, Slug: tag.Slug}
}

func toRecipeView(recipe *models.Recipe, favorited, inCart bool) RecipeView {
	tags := make([]TagView, len(recipe.Tags))
	for i, t := range recipe.Tags {
		tags[i] = toTagView(t)
	}
	ingredients := make([]RecipeIngredientView, len(recipe.Ingredients))
	for i, ri := range recipe.Ingredients {
		view := RecipeIngredientView{ID: ri.IngredientID, Amount: ri.Amount}
		if ri.Ingredient != nil {
			view.Name = ri.Ingredient.Name
			view.MeasurementUnit = ri.Ingredient.MeasurementUnit
		}
		ingredients[i] = view
	}
	return RecipeView{
		ID:               recipe.ID,
		Author:           toUserView(recipe.Author, false),
		Name:             recipe.Name,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		Image:            recipe.ImageURL,
		Tags:             tags,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		CreatedAt:        recipe.CreatedAt,
	}
}

func toRecipeShortView(recipe *models.Recipe) RecipeShortView {
	return RecipeShortView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func toIngredientAmounts(items []IngredientAmountRequest) []service.IngredientAmount {
	result := make([]service.IngredientAmount, len(items))
	for i, item := range items {
		result[i] = service.IngredientAmount{IngredientID: item.ID, Amount: item.Amount}
	}
	return result
}
