package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is the aggregate root. Its tag joins and RecipeIngredient rows are
// written and replaced only inside the same transaction as the recipe row.
// The (author_id, name) pair is unique in-schema. ImageURL is TEXT because
// deployments without object storage keep the raw data URI in it.
type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipes_author_name" json:"author_id"`
	Name        string    `gorm:"size:200;not null;uniqueIndex:idx_recipes_author_name" json:"name"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null" json:"cooking_time"`
	ImageURL    string    `gorm:"type:text" json:"image"`
	ShortCode   string    `gorm:"size:16;uniqueIndex" json:"-"`

	Author      *User              `gorm:"foreignKey:AuthorID" json:"-"`
	Tags        []Tag              `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.ShortCode == "" {
		r.ShortCode = newShortCode()
	}
	return nil
}

// newShortCode derives an 8 character code for the recipe's short link. The
// unique index on short_code catches the unlikely collision.
func newShortCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// RecipeIngredient quantifies one ingredient within one recipe. It has no
// lifecycle of its own: replaced wholesale when the recipe is updated.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primarykey" json:"-"`
	RecipeID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredients_pair" json:"-"`
	IngredientID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredients_pair" json:"id"`
	Amount       int       `gorm:"not null" json:"amount"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"-"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}
