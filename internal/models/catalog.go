package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag and Ingredient are read-only reference data seeded by cmd/seed.

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	Name string    `gorm:"size:32;not null" json:"name"`
	Slug string    `gorm:"size:32;uniqueIndex;not null" json:"slug"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	Name            string    `gorm:"size:128;not null;index" json:"name"`
	MeasurementUnit string    `gorm:"size:64;not null" json:"measurement_unit"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
