package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodPreference is a single liked or disliked ingredient
type FoodPreference struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Ingredient string         `gorm:"size:100;not null" json:"ingredient"`
	Liked      bool           `gorm:"not null" json:"liked"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (FoodPreference) TableName() string {
	return "food_preferences"
}

func (p *FoodPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CookingPreference holds one row per user
type CookingPreference struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Frequency         string           `gorm:"size:30" json:"frequency"`
	PreferredDuration string           `gorm:"size:30" json:"preferred_duration"`
	SkillLevel        string           `gorm:"size:30" json:"skill_level"`
	MealTypes         JSONBStringArray `gorm:"type:text" json:"meal_types"`
	HouseholdSize     int              `json:"household_size"`
	ServingSize       int              `json:"serving_size"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (CookingPreference) TableName() string {
	return "cooking_preferences"
}

func (p *CookingPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BudgetPreference holds one row per user
type BudgetPreference struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Frequency string    `gorm:"size:20;not null" json:"frequency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BudgetPreference) TableName() string {
	return "budget_preferences"
}

func (p *BudgetPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
