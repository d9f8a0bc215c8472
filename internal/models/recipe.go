package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// RawJSON keeps a JSON column undecoded so the loosely-typed ingredient
// records can be interpreted by the catalog source
type RawJSON json.RawMessage

// Value implements the driver.Valuer interface
func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "[]", nil
	}
	return string(r), nil
}

// Scan implements the sql.Scanner interface
func (r *RawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	}
	return nil
}

// MarshalJSON emits the raw column content
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// UnmarshalJSON stores the raw bytes
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// CatalogRecipe is a first-party catalog row. Ingredients are stored as the
// upstream provided them and decoded at read time.
type CatalogRecipe struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Title          string           `gorm:"size:255;not null" json:"title"`
	ImageURL       string           `gorm:"size:512" json:"image_url"`
	ImageKey       string           `gorm:"size:255" json:"image_key"`
	PrepMinutes    int              `json:"prep_time_minutes"`
	CookMinutes    int              `json:"cook_time_minutes"`
	TotalMinutes   int              `json:"total_time_minutes"`
	Servings       int              `json:"num_servings"`
	Ingredients    RawJSON          `gorm:"type:text" json:"ingredients"`
	Instructions   JSONBStringArray `gorm:"type:text" json:"instructions"`
	Tags           JSONBStringArray `gorm:"type:text" json:"tags"`
	Cuisine        string           `gorm:"size:50" json:"cuisine"`
	Calories       *float64         `json:"calories"`
	Protein        *float64         `json:"protein"`
	Fat            *float64         `json:"fat"`
	Carbs          *float64         `json:"carbs"`
	Rating         *float64         `json:"rating"`
	CostPerServing *float64         `json:"cost_per_serving"`
}

func (CatalogRecipe) TableName() string {
	return "catalog_recipes"
}
