package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// ShoppingService maintains the per-user favorite and cart sets and derives
// the consolidated shopping list.
type ShoppingService struct {
	db *gorm.DB
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

// ShoppingItem is one consolidated line of the shopping list.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}

func (s *ShoppingService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	exists, err := s.pairExists(ctx, &models.Favorite{}, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Reason: "recipe already favorited"}
	}
	entry := models.Favorite{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *ShoppingService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removePair(ctx, &models.Favorite{}, userID, recipeID, "favorite")
}

func (s *ShoppingService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	exists, err := s.pairExists(ctx, &models.ShoppingCart{}, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Reason: "recipe already in shopping cart"}
	}
	entry := models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *ShoppingService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removePair(ctx, &models.ShoppingCart{}, userID, recipeID, "shopping cart entry")
}

// ShoppingList aggregates every recipe in the user's cart with one grouped
// query: cost is proportional to distinct ingredients, not recipes fetched.
// Ordered ascending by ingredient name; empty cart yields an empty slice.
func (s *ShoppingService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ShoppingService) findRecipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "recipe"}
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *ShoppingService) pairExists(ctx context.Context, model interface{}, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

func (s *ShoppingService) removePair(ctx context.Context, model interface{}, userID, recipeID uuid.UUID, resource string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: resource}
	}
	return nil
}
