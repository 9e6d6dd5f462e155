package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

type ingredientSeed struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type tagSeed struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Loads the ingredient and tag catalogs from data/. Safe to rerun: existing
// rows are matched by name/slug and left alone.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	if err := seedIngredients(db, "data/ingredients.json"); err != nil {
		log.Fatalf("Failed to seed ingredients: %v", err)
	}
	if err := seedTags(db, "data/tags.json"); err != nil {
		log.Fatalf("Failed to seed tags: %v", err)
	}
	log.Println("Seeding complete")
}

func seedIngredients(db *gorm.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seeds []ingredientSeed
	if err := json.Unmarshal(content, &seeds); err != nil {
		return err
	}
	for _, seed := range seeds {
		ingredient := models.Ingredient{Name: seed.Name, MeasurementUnit: seed.MeasurementUnit}
		if err := db.Where("name = ? AND measurement_unit = ?", seed.Name, seed.MeasurementUnit).
			FirstOrCreate(&ingredient).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d ingredients", len(seeds))
	return nil
}

func seedTags(db *gorm.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seeds []tagSeed
	if err := json.Unmarshal(content, &seeds); err != nil {
		return err
	}
	for _, seed := range seeds {
		tag := models.Tag{Name: seed.Name, Slug: seed.Slug}
		if err := db.Where("slug = ?", seed.Slug).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d tags", len(seeds))
	return nil
}
