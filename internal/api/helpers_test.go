package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	auth   *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.NewTestDB(t)
	authService := service.NewAuthService(db, "test-secret")
	recipeService := service.NewRecipeService(db)
	shoppingService := service.NewShoppingService(db)
	subscriptionService := service.NewSubscriptionService(db)
	profileService := service.NewProfileService(db, nil)
	catalogService := service.NewCatalogService(db)

	engine := router.SetupRouter(
		authService,
		api.NewAuthHandler(authService),
		api.NewUserHandler(authService, profileService, subscriptionService),
		api.NewRecipeHandler(authService, recipeService, shoppingService, nil),
		api.NewCatalogHandler(catalogService),
		nil,
	)
	return &testEnv{db: db, router: engine, auth: authService}
}

// signup registers a user through the service layer and returns a bearer token.
func (e *testEnv) signup(t *testing.T, email, username string) string {
	t.Helper()
	_, err := e.auth.Register(context.Background(), email, username, "Test", "User", "secret123")
	require.NoError(t, err)
	token, err := e.auth.Login(context.Background(), email, "secret123")
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
