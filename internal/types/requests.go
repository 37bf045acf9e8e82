package types

import "github.com/pageza/recipebox/backend/internal/model"

// IngredientRequest is one ingredient line in a recipe payload. ID and
// RecipeID are accepted so clients can echo back what they read, but they
// are never used: ingredients are always stored as new rows.
type IngredientRequest struct {
	ID             int    `json:"id"`
	RecipeID       int    `json:"recipeId"`
	IngredientName string `json:"ingredientName" binding:"required"`
	Quantity       string `json:"quantity" binding:"required"`
}

// CreateRecipeRequest represents the request body for creating a recipe
type CreateRecipeRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description" binding:"required"`
	IsFavorite  bool                `json:"isFavorite"`
	Ingredients []IngredientRequest `json:"ingredients" binding:"dive"`
}

// UpdateRecipeRequest represents the request body for replacing a recipe.
// ID must match the id in the path.
type UpdateRecipeRequest struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description" binding:"required"`
	IsFavorite  bool                `json:"isFavorite"`
	Ingredients []IngredientRequest `json:"ingredients" binding:"dive"`
}

// ToModel converts the request into a recipe ready for the service.
func (r *CreateRecipeRequest) ToModel() *model.Recipe {
	return &model.Recipe{
		Name:        r.Name,
		Description: r.Description,
		IsFavorite:  r.IsFavorite,
		Ingredients: ingredientsToModel(r.Ingredients),
	}
}

// ToModel converts the request into a recipe ready for the service.
// IsFavorite is carried along but not applied by updates.
func (r *UpdateRecipeRequest) ToModel() *model.Recipe {
	return &model.Recipe{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsFavorite:  r.IsFavorite,
		Ingredients: ingredientsToModel(r.Ingredients),
	}
}

// ToModel converts the request into an ingredient without ids.
func (r *IngredientRequest) ToModel() *model.Ingredient {
	return &model.Ingredient{
		IngredientName: r.IngredientName,
		Quantity:       r.Quantity,
	}
}

func ingredientsToModel(reqs []IngredientRequest) []model.Ingredient {
	ingredients := make([]model.Ingredient, 0, len(reqs))
	for _, r := range reqs {
		ingredients = append(ingredients, *r.ToModel())
	}
	return ingredients
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
