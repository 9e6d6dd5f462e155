package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

func recipeInput(tag *models.Tag, ingredients ...service.IngredientAmount) service.RecipeInput {
	return service.RecipeInput{
		Name:        "Soup",
		Text:        "Boil everything.",
		CookingTime: 30,
		TagIDs:      []uuid.UUID{tag.ID},
		Ingredients: ingredients,
	}
}

func TestCreateRecipe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	water := testhelpers.CreateIngredient(t, db, "water", "ml")

	recipe, err := svc.CreateRecipe(context.Background(), author.ID, recipeInput(tag,
		service.IngredientAmount{IngredientID: salt.ID, Amount: 2},
		service.IngredientAmount{IngredientID: water.ID, Amount: 500},
	))
	require.NoError(t, err)
	assert.Equal(t, "Soup", recipe.Name)
	assert.Len(t, recipe.Tags, 1)
	assert.Len(t, recipe.Ingredients, 2)

	// Re-fetch and compare the submitted sets, order independent.
	fetched, _, _, err := svc.GetRecipe(context.Background(), recipe.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, fetched.Tags[0].ID)
	amounts := map[uuid.UUID]int{}
	for _, ri := range fetched.Ingredients {
		amounts[ri.IngredientID] = ri.Amount
	}
	assert.Equal(t, map[uuid.UUID]int{salt.ID: 2, water.ID: 500}, amounts)
}

func TestCreateRecipeDuplicateName(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	input := recipeInput(tag, service.IngredientAmount{IngredientID: salt.ID, Amount: 2})
	_, err := svc.CreateRecipe(context.Background(), author.ID, input)
	require.NoError(t, err)

	_, err = svc.CreateRecipe(context.Background(), author.ID, input)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	// A different author may reuse the name.
	other := testhelpers.CreateUser(t, db, "bob", models.RoleUser)
	_, err = svc.CreateRecipe(context.Background(), other.ID, input)
	assert.NoError(t, err)
}

func TestCreateRecipeValidation(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	tests := []struct {
		name  string
		input service.RecipeInput
		field string
	}{
		{
			name: "empty tags",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
			},
			field: "tags",
		},
		{
			name: "duplicate tags",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				TagIDs:      []uuid.UUID{tag.ID, tag.ID},
				Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
			},
			field: "tags",
		},
		{
			name: "unknown tag",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				TagIDs:      []uuid.UUID{uuid.New()},
				Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
			},
			field: "tags",
		},
		{
			name: "empty ingredients",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				TagIDs: []uuid.UUID{tag.ID},
			},
			field: "ingredients",
		},
		{
			name: "duplicate ingredients",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				TagIDs: []uuid.UUID{tag.ID},
				Ingredients: []service.IngredientAmount{
					{IngredientID: salt.ID, Amount: 1},
					{IngredientID: salt.ID, Amount: 2},
				},
			},
			field: "ingredients",
		},
		{
			name: "unknown ingredient",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				TagIDs:      []uuid.UUID{tag.ID},
				Ingredients: []service.IngredientAmount{{IngredientID: uuid.New(), Amount: 1}},
			},
			field: "ingredients",
		},
		{
			name: "amount below one",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 10,
				TagIDs:      []uuid.UUID{tag.ID},
				Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 0}},
			},
			field: "ingredients",
		},
		{
			name: "cooking time below one",
			input: service.RecipeInput{
				Name: "A", Text: "t", CookingTime: 0,
				TagIDs:      []uuid.UUID{tag.ID},
				Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
			},
			field: "cooking_time",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRecipe(context.Background(), author.ID, tc.input)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	// Nothing was persisted by any failed create.
	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateRecipePermissions(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	stranger := testhelpers.CreateUser(t, db, "bob", models.RoleUser)
	admin := testhelpers.CreateUser(t, db, "root", models.RoleAdmin)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	recipe, err := svc.CreateRecipe(context.Background(), author.ID, recipeInput(tag,
		service.IngredientAmount{IngredientID: salt.ID, Amount: 2}))
	require.NoError(t, err)

	newName := "Better Soup"
	_, err = svc.UpdateRecipe(context.Background(), recipe.ID, stranger.ID, stranger.Role, service.RecipeUpdate{Name: &newName})
	var perr *service.PermissionError
	assert.ErrorAs(t, err, &perr)

	updated, err := svc.UpdateRecipe(context.Background(), recipe.ID, admin.ID, admin.Role, service.RecipeUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Better Soup", updated.Name)
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	pepper := testhelpers.CreateIngredient(t, db, "pepper", "g")

	recipe, err := svc.CreateRecipe(context.Background(), author.ID, recipeInput(tag,
		service.IngredientAmount{IngredientID: salt.ID, Amount: 2}))
	require.NoError(t, err)

	updated, err := svc.UpdateRecipe(context.Background(), recipe.ID, author.ID, author.Role, service.RecipeUpdate{
		Ingredients: []service.IngredientAmount{{IngredientID: pepper.ID, Amount: 7}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, pepper.ID, updated.Ingredients[0].IngredientID)
	assert.Equal(t, 7, updated.Ingredients[0].Amount)

	// The old association rows are gone, not merged.
	var count int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteRecipeCascades(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	shopping := service.NewShoppingService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	fan := testhelpers.CreateUser(t, db, "bob", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	recipe, err := svc.CreateRecipe(context.Background(), author.ID, recipeInput(tag,
		service.IngredientAmount{IngredientID: salt.ID, Amount: 2}))
	require.NoError(t, err)

	_, err = shopping.AddFavorite(context.Background(), fan.ID, recipe.ID)
	require.NoError(t, err)
	_, err = shopping.AddToCart(context.Background(), fan.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecipe(context.Background(), recipe.ID, author.ID, author.Role))

	for _, model := range []interface{}{&models.Recipe{}, &models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCart{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	var nferr *service.NotFoundError
	_, _, _, err = svc.GetRecipe(context.Background(), recipe.ID, nil)
	assert.ErrorAs(t, err, &nferr)
}

func TestGetRecipeViewerFlags(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	shopping := service.NewShoppingService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	fan := testhelpers.CreateUser(t, db, "bob", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	recipe, err := svc.CreateRecipe(context.Background(), author.ID, recipeInput(tag,
		service.IngredientAmount{IngredientID: salt.ID, Amount: 2}))
	require.NoError(t, err)

	_, err = shopping.AddFavorite(context.Background(), fan.ID, recipe.ID)
	require.NoError(t, err)

	// Anonymous viewer: both flags false.
	_, favorited, inCart, err := svc.GetRecipe(context.Background(), recipe.ID, nil)
	require.NoError(t, err)
	assert.False(t, favorited)
	assert.False(t, inCart)

	_, favorited, inCart, err = svc.GetRecipe(context.Background(), recipe.ID, &fan.ID)
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.False(t, inCart)
}

func TestListRecipesFilters(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	alice := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	bob := testhelpers.CreateUser(t, db, "bob", models.RoleUser)
	dinner := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	vegan := testhelpers.CreateTag(t, db, "Vegan", "vegan")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	mk := func(author uuid.UUID, name string, tag *models.Tag) {
		_, err := svc.CreateRecipe(context.Background(), author, service.RecipeInput{
			Name: name, Text: "t", CookingTime: 5,
			TagIDs:      []uuid.UUID{tag.ID},
			Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
		})
		require.NoError(t, err)
	}
	mk(alice.ID, "Soup", dinner)
	mk(alice.ID, "Salad", vegan)
	mk(bob.ID, "Stew", dinner)

	recipes, _, _, total, err := svc.ListRecipes(context.Background(), service.RecipeFilter{AuthorID: &alice.ID}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, recipes, 2)

	recipes, _, _, total, err = svc.ListRecipes(context.Background(), service.RecipeFilter{TagSlugs: []string{"dinner"}}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, recipes, 2)

	recipes, _, _, total, err = svc.ListRecipes(context.Background(), service.RecipeFilter{NamePrefix: "s"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	recipes, _, _, _, err = svc.ListRecipes(context.Background(), service.RecipeFilter{Limit: 2, Page: 2}, nil)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestListRecipesNameFilterEscapesWildcards(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	for _, name := range []string{"100% rye bread", "1000 layer cake"} {
		_, err := svc.CreateRecipe(context.Background(), author.ID, service.RecipeInput{
			Name: name, Text: "t", CookingTime: 5,
			TagIDs:      []uuid.UUID{tag.ID},
			Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
		})
		require.NoError(t, err)
	}

	recipes, _, _, total, err := svc.ListRecipes(context.Background(), service.RecipeFilter{NamePrefix: "100%"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, "100% rye bread", recipes[0].Name)
}

func TestGetRecipeByShortCode(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db)
	author := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	recipe, err := svc.CreateRecipe(context.Background(), author.ID, recipeInput(tag,
		service.IngredientAmount{IngredientID: salt.ID, Amount: 2}))
	require.NoError(t, err)
	require.NotEmpty(t, recipe.ShortCode)

	found, err := svc.GetRecipeByShortCode(context.Background(), recipe.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, found.ID)

	var nferr *service.NotFoundError
	_, err = svc.GetRecipeByShortCode(context.Background(), "nope1234")
	assert.ErrorAs(t, err, &nferr)
}
