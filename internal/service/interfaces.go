package service

import (
	"context"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/store"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context, filter store.Filter) ([]model.Recipe, error)
	GetRecipe(ctx context.Context, id int) (*model.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id int, recipe *model.Recipe) error
	DeleteRecipe(ctx context.Context, id int) error
	ToggleFavorite(ctx context.Context, id int) (*model.Recipe, error)
	AddIngredient(ctx context.Context, recipeID int, ingredient *model.Ingredient) (*model.Ingredient, error)
	DeleteIngredient(ctx context.Context, recipeID, ingredientID int) error
}

// RecipeStore is the persistence the recipe service depends on.
// *store.RecipeStore satisfies it.
type RecipeStore interface {
	FindRecipe(ctx context.Context, id int) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter store.Filter) ([]model.Recipe, error)
	RecipeExists(ctx context.Context, id int) (bool, error)
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	ReplaceRecipe(ctx context.Context, recipe *model.Recipe, expectedVersion int) error
	DeleteRecipe(ctx context.Context, id int) error
	ToggleFavorite(ctx context.Context, id int) (*model.Recipe, error)
	AddIngredient(ctx context.Context, ingredient *model.Ingredient) error
	DeleteIngredient(ctx context.Context, recipeID, ingredientID int) error
}

var (
	_ IRecipeService = (*RecipeService)(nil)
	_ RecipeStore    = (*store.RecipeStore)(nil)
)
