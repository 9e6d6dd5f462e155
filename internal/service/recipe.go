package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// IngredientAmount is one (ingredient, amount) pair of a recipe submission.
type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

// RecipeInput is a full recipe submission for create.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	ImageURL    string
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipeUpdate is a partial submission for update. Nil slices mean the field
// was omitted; supplied slices replace the full prior association set.
type RecipeUpdate struct {
	Name        *string
	Text        *string
	CookingTime *int
	ImageURL    *string
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipeFilter narrows ListRecipes.
type RecipeFilter struct {
	AuthorID         *uuid.UUID
	TagSlugs         []string
	NamePrefix       string
	FavoritedBy      *uuid.UUID
	InShoppingCartOf *uuid.UUID
	Page             int
	Limit            int
}

// RecipeService owns the recipe aggregate: the recipe row plus its tag and
// ingredient joins, always written in a single transaction.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe validates and persists a recipe with all its joins
// atomically. Either every row exists afterwards or none do.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	verr := &ValidationError{}
	s.validateName(ctx, verr, authorID, uuid.Nil, input.Name)
	if input.CookingTime < 1 {
		verr.Add("cooking_time", "must be at least 1")
	}
	tags := s.validateTags(ctx, verr, input.TagIDs)
	s.validateIngredients(ctx, verr, input.Ingredients)
	if !verr.Empty() {
		return nil, verr
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		ImageURL:    input.ImageURL,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Append(tags); err != nil {
			return err
		}
		return tx.Create(buildJoins(recipe.ID, input.Ingredients)).Error
	})
	if err != nil {
		return nil, err
	}
	return s.loadRecipe(ctx, recipe.ID)
}

// UpdateRecipe applies a partial update. Supplied tag and ingredient sets
// replace the prior sets wholesale (delete-then-insert, last writer wins).
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID uuid.UUID, callerID uuid.UUID, callerRole string, update RecipeUpdate) (*models.Recipe, error) {
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !Authorize(callerRole, recipe.AuthorID, callerID) {
		return nil, &PermissionError{Reason: "only the author may edit this recipe"}
	}

	verr := &ValidationError{}
	if update.Name != nil && *update.Name != recipe.Name {
		s.validateName(ctx, verr, recipe.AuthorID, recipe.ID, *update.Name)
	}
	if update.CookingTime != nil && *update.CookingTime < 1 {
		verr.Add("cooking_time", "must be at least 1")
	}
	var tags []models.Tag
	if update.TagIDs != nil {
		tags = s.validateTags(ctx, verr, update.TagIDs)
	}
	if update.Ingredients != nil {
		s.validateIngredients(ctx, verr, update.Ingredients)
	}
	if !verr.Empty() {
		return nil, verr
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := map[string]interface{}{}
		if update.Name != nil {
			columns["name"] = *update.Name
		}
		if update.Text != nil {
			columns["text"] = *update.Text
		}
		if update.CookingTime != nil {
			columns["cooking_time"] = *update.CookingTime
		}
		if update.ImageURL != nil {
			columns["image_url"] = *update.ImageURL
		}
		if len(columns) > 0 {
			if err := tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(columns).Error; err != nil {
				return err
			}
		}
		if update.TagIDs != nil {
			if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		if update.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := tx.Create(buildJoins(recipe.ID, update.Ingredients)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadRecipe(ctx, recipe.ID)
}

// DeleteRecipe removes the recipe and everything referencing it: joins,
// favorites and cart entries, in one transaction.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID uuid.UUID, callerID uuid.UUID, callerRole string) error {
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if !Authorize(callerRole, recipe.AuthorID, callerID) {
		return &PermissionError{Reason: "only the author may delete this recipe"}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipe.ID).Error
	})
}

// GetRecipe returns the recipe with its associations. viewerID may be nil
// for anonymous callers; the favorited/in-cart flags are then false.
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID uuid.UUID, viewerID *uuid.UUID) (*models.Recipe, bool, bool, error) {
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, false, false, err
	}
	favorited, inCart, err := s.viewerFlags(ctx, recipe.ID, viewerID)
	if err != nil {
		return nil, false, false, err
	}
	return recipe, favorited, inCart, nil
}

// GetRecipeByShortCode resolves a short-link code to its recipe.
func (s *RecipeService) GetRecipeByShortCode(ctx context.Context, code string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "short_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "recipe"}
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns one page of recipes matching the filter plus the total
// match count.
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter, viewerID *uuid.UUID) ([]models.Recipe, map[uuid.UUID]bool, map[uuid.UUID]bool, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if filter.NamePrefix != "" {
		query = query.Where("LOWER(recipes.name) LIKE ? ESCAPE '\\'", likePrefix(filter.NamePrefix))
	}
	if len(filter.TagSlugs) > 0 {
		// Subquery instead of a join so a recipe with several matching tags
		// is not counted or returned twice.
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.FavoritedBy != nil {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", *filter.FavoritedBy)
	}
	if filter.InShoppingCartOf != nil {
		query = query.
			Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
			Where("shopping_carts.user_id = ?", *filter.InShoppingCartOf)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, nil, 0, err
	}

	if filter.Limit > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		query = query.Offset(offset).Limit(filter.Limit)
	}

	var recipes []models.Recipe
	if err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at DESC").
		Find(&recipes).Error; err != nil {
		return nil, nil, nil, 0, err
	}

	favorites, carts, err := s.viewerFlagSets(ctx, recipes, viewerID)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return recipes, favorites, carts, total, nil
}

func (s *RecipeService) loadRecipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "recipe"}
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) validateName(ctx context.Context, verr *ValidationError, authorID, excludeID uuid.UUID, name string) {
	if name == "" {
		verr.Add("name", "must not be empty")
		return
	}
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ? AND name = ?", authorID, name)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err == nil && count > 0 {
		verr.Add("name", "you already have a recipe with this name")
	}
}

func (s *RecipeService) validateTags(ctx context.Context, verr *ValidationError, tagIDs []uuid.UUID) []models.Tag {
	if len(tagIDs) == 0 {
		verr.Add("tags", "at least one tag is required")
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			verr.Add("tags", "duplicate tag")
			return nil
		}
		seen[id] = struct{}{}
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		verr.Add("tags", "could not resolve tags")
		return nil
	}
	if len(tags) != len(tagIDs) {
		verr.Add("tags", "unknown tag")
		return nil
	}
	return tags
}

func (s *RecipeService) validateIngredients(ctx context.Context, verr *ValidationError, ingredients []IngredientAmount) {
	if len(ingredients) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
		return
	}
	seen := make(map[uuid.UUID]struct{}, len(ingredients))
	ids := make([]uuid.UUID, 0, len(ingredients))
	for _, item := range ingredients {
		if _, dup := seen[item.IngredientID]; dup {
			verr.Add("ingredients", "duplicate ingredient")
			return
		}
		seen[item.IngredientID] = struct{}{}
		ids = append(ids, item.IngredientID)
		if item.Amount < 1 {
			verr.Add("ingredients", "amount must be at least 1")
			return
		}
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		verr.Add("ingredients", "could not resolve ingredients")
		return
	}
	if count != int64(len(ids)) {
		verr.Add("ingredients", "unknown ingredient")
	}
}

func (s *RecipeService) viewerFlags(ctx context.Context, recipeID uuid.UUID, viewerID *uuid.UUID) (bool, bool, error) {
	if viewerID == nil {
		return false, false, nil
	}
	var favorited, inCart int64
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", *viewerID, recipeID).Count(&favorited).Error; err != nil {
		return false, false, err
	}
	if err := s.db.WithContext(ctx).Model(&models.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", *viewerID, recipeID).Count(&inCart).Error; err != nil {
		return false, false, err
	}
	return favorited > 0, inCart > 0, nil
}

func (s *RecipeService) viewerFlagSets(ctx context.Context, recipes []models.Recipe, viewerID *uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	favorites := make(map[uuid.UUID]bool)
	carts := make(map[uuid.UUID]bool)
	if viewerID == nil || len(recipes) == 0 {
		return favorites, carts, nil
	}
	ids := make([]uuid.UUID, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	var favRows []models.Favorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, ids).Find(&favRows).Error; err != nil {
		return nil, nil, err
	}
	for _, f := range favRows {
		favorites[f.RecipeID] = true
	}
	var cartRows []models.ShoppingCart
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, ids).Find(&cartRows).Error; err != nil {
		return nil, nil, err
	}
	for _, cr := range cartRows {
		carts[cr.RecipeID] = true
	}
	return favorites, carts, nil
}

func buildJoins(recipeID uuid.UUID, ingredients []IngredientAmount) []models.RecipeIngredient {
	joins := make([]models.RecipeIngredient, len(ingredients))
	for i, item := range ingredients {
		joins[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		}
	}
	return joins
}

// likePrefix builds a prefix pattern with LIKE metacharacters escaped, so a
// literal % or _ in the search term cannot widen the match. Callers must add
// ESCAPE '\' to the clause.
func likePrefix(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return s + "%"
}
