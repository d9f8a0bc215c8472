package models

import (
	"time"

	"github.com/google/uuid"
)

// RecipeHistory is an append-only record of a recipe a user cooked
type RecipeHistory struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeID string    `gorm:"size:64;not null;index" json:"recipe_id"`
	MealType string    `gorm:"size:20" json:"meal_type"`
	UsedDate time.Time `gorm:"not null;index" json:"used_date"`
}

// TableName specifies the table name for RecipeHistory
func (RecipeHistory) TableName() string {
	return "recipe_history"
}
