package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewSubscriptionService(db)
	follower := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	author := testhelpers.CreateUser(t, db, "bob", models.RoleUser)

	got, err := svc.Subscribe(context.Background(), follower.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)

	subscribed, err := svc.IsSubscribed(context.Background(), follower.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	// Following is one-directional.
	subscribed, err = svc.IsSubscribed(context.Background(), author.ID, follower.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)

	var cerr *service.ConflictError
	_, err = svc.Subscribe(context.Background(), follower.ID, author.ID)
	assert.ErrorAs(t, err, &cerr)

	var verr *service.ValidationError
	_, err = svc.Subscribe(context.Background(), follower.ID, follower.ID)
	assert.ErrorAs(t, err, &verr)

	var nferr *service.NotFoundError
	_, err = svc.Subscribe(context.Background(), follower.ID, uuid.New())
	assert.ErrorAs(t, err, &nferr)
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewSubscriptionService(db)
	follower := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	author := testhelpers.CreateUser(t, db, "bob", models.RoleUser)

	_, err := svc.Subscribe(context.Background(), follower.ID, author.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Unsubscribe(context.Background(), follower.ID, author.ID))

	var nferr *service.NotFoundError
	err = svc.Unsubscribe(context.Background(), follower.ID, author.ID)
	assert.ErrorAs(t, err, &nferr)
}

func TestListSubscriptions(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewSubscriptionService(db)
	recipes := service.NewRecipeService(db)
	follower := testhelpers.CreateUser(t, db, "carol", models.RoleUser)
	alice := testhelpers.CreateUser(t, db, "alice", models.RoleUser)
	bob := testhelpers.CreateUser(t, db, "bob", models.RoleUser)
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	for i := 0; i < 3; i++ {
		_, err := recipes.CreateRecipe(context.Background(), alice.ID, service.RecipeInput{
			Name: fmt.Sprintf("Soup %d", i), Text: "t", CookingTime: 5,
			TagIDs:      []uuid.UUID{tag.ID},
			Ingredients: []service.IngredientAmount{{IngredientID: salt.ID, Amount: 1}},
		})
		require.NoError(t, err)
	}

	_, err := svc.Subscribe(context.Background(), follower.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.Subscribe(context.Background(), follower.ID, bob.ID)
	require.NoError(t, err)

	authors, total, err := svc.ListSubscriptions(context.Background(), follower.ID, nil, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, authors, 2)
	// Ordered by username.
	assert.Equal(t, "alice", authors[0].Author.Username)
	assert.Equal(t, "bob", authors[1].Author.Username)
	assert.EqualValues(t, 3, authors[0].RecipesCount)
	assert.Len(t, authors[0].Recipes, 3)
	assert.Zero(t, authors[1].RecipesCount)

	limit := 1
	authors, _, err = svc.ListSubscriptions(context.Background(), follower.ID, &limit, 1, 10)
	require.NoError(t, err)
	// recipes_limit truncates the embedded recipes but not the count.
	assert.Len(t, authors[0].Recipes, 1)
	assert.EqualValues(t, 3, authors[0].RecipesCount)
}
