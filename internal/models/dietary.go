package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dietary preference types stored in PreferenceType
const (
	DietVegetarian = "vegetarian"
	DietVegan      = "vegan"
	DietGlutenFree = "gluten-free"
	DietDairyFree  = "dairy-free"
	DietNutFree    = "nut-free"
	DietLowCarb    = "low-carb"
	DietCustom     = "custom"
)

// DietaryPreference represents a user's dietary preference entry.
// Custom entries hold a free-text restriction in CustomName.
type DietaryPreference struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	PreferenceType string         `gorm:"size:30;not null" json:"preference_type"`
	CustomName     string         `gorm:"size:50" json:"custom_name"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DietaryPreference) TableName() string {
	return "dietary_preferences"
}

func (p *DietaryPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Allergen represents an allergen entry for a user.
type Allergen struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	AllergenName  string         `gorm:"size:50;not null" json:"allergen_name"`
	SeverityLevel int            `gorm:"not null" json:"severity_level"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Allergen) TableName() string {
	return "allergens"
}

func (a *Allergen) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
