package database

import (
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// AutoMigrate creates or updates the schema for every model, including the
// composite unique indexes the write paths rely on. Production deployments
// use cmd/migrate with versioned SQL files instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCart{},
	)
}
