package model

import (
	"time"

	"gorm.io/gorm"
)

// Recipe is the top-level entity. Ingredients are owned by the recipe and
// removed with it.
type Recipe struct {
	ID          int          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"type:text;not null" json:"name" validate:"required"`
	Description string       `gorm:"type:text;not null" json:"description" validate:"required"`
	IsFavorite  bool         `gorm:"not null;default:false" json:"isFavorite"`
	Ingredients []Ingredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients" validate:"dive"`
	// Version is bumped on every write and guards the update path against
	// lost updates.
	Version   int       `gorm:"not null;default:1" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AfterFind keeps Ingredients non-nil so it always serializes as a list.
func (r *Recipe) AfterFind(tx *gorm.DB) error {
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	return nil
}

// Ingredient is a named quantity line item owned by exactly one recipe.
type Ingredient struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipeID       int       `gorm:"not null;index" json:"recipeId"`
	IngredientName string    `gorm:"type:text;not null" json:"ingredientName" validate:"required"`
	Quantity       string    `gorm:"type:text;not null" json:"quantity" validate:"required"`
	CreatedAt      time.Time `json:"-"`
}

func (Ingredient) TableName() string {
	return "recipe_ingredients"
}
