package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/store"
)

// RecipeService handles recipe operations
type RecipeService struct {
	store    RecipeStore
	validate *validator.Validate
	log      *slog.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(s RecipeStore, log *slog.Logger) *RecipeService {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report payload field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &RecipeService{
		store:    s,
		validate: v,
		log:      log,
	}
}

// ListRecipes returns every recipe matching filter with its ingredients.
func (s *RecipeService) ListRecipes(ctx context.Context, filter store.Filter) ([]model.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	return recipes, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id int) (*model.Recipe, error) {
	recipe, err := s.store.FindRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("loading recipe %d: %w", id, err)
	}
	return recipe, nil
}

// CreateRecipe validates and stores a new recipe. Client supplied ids are
// ignored; the stored recipe is returned with its assigned ids.
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	normalize(recipe)
	if err := s.validateStruct(recipe); err != nil {
		return nil, err
	}

	recipe.ID = 0
	if recipe.Ingredients == nil {
		recipe.Ingredients = []model.Ingredient{}
	}
	for i := range recipe.Ingredients {
		recipe.Ingredients[i].ID = 0
		recipe.Ingredients[i].RecipeID = 0
	}

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	s.log.InfoContext(ctx, "recipe created",
		slog.Int("recipe_id", recipe.ID),
		slog.Int("ingredients", len(recipe.Ingredients)))
	return recipe, nil
}

// UpdateRecipe overwrites the name and description of recipe id and replaces
// its ingredient list with recipe.Ingredients. Every submitted ingredient is
// stored as a new row, so ingredient ids change on every update. The
// favorite flag is left as stored.
//
// If another writer changed the recipe after it was loaded, nothing is
// written: ErrRecipeNotFound is returned when the recipe is gone, a
// *ConflictError otherwise.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id int, recipe *model.Recipe) error {
	normalize(recipe)
	if err := s.validateStruct(recipe); err != nil {
		return err
	}

	existing, err := s.GetRecipe(ctx, id)
	if err != nil {
		return err
	}

	replacement := &model.Recipe{
		ID:          existing.ID,
		Name:        recipe.Name,
		Description: recipe.Description,
		Ingredients: make([]model.Ingredient, 0, len(recipe.Ingredients)),
	}
	for _, ing := range recipe.Ingredients {
		replacement.Ingredients = append(replacement.Ingredients, model.Ingredient{
			RecipeID:       existing.ID,
			IngredientName: ing.IngredientName,
			Quantity:       ing.Quantity,
		})
	}

	err = s.store.ReplaceRecipe(ctx, replacement, existing.Version)
	if err == nil {
		s.log.InfoContext(ctx, "recipe updated",
			slog.Int("recipe_id", id),
			slog.Int("removed_ingredients", len(existing.Ingredients)),
			slog.Int("added_ingredients", len(replacement.Ingredients)))
		return nil
	}
	if !errors.Is(err, store.ErrStaleRecipe) {
		return fmt.Errorf("updating recipe %d: %w", id, err)
	}

	exists, existsErr := s.store.RecipeExists(ctx, id)
	if existsErr != nil {
		return fmt.Errorf("checking recipe %d after conflict: %w", id, existsErr)
	}
	if !exists {
		return ErrRecipeNotFound
	}

	s.log.WarnContext(ctx, "concurrent recipe update detected",
		slog.Int("recipe_id", id),
		slog.Int("expected_version", existing.Version))
	return &ConflictError{RecipeID: id, ExpectedVersion: existing.Version}
}

// DeleteRecipe deletes a recipe together with its ingredients.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id int) error {
	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("deleting recipe %d: %w", id, err)
	}
	s.log.InfoContext(ctx, "recipe deleted", slog.Int("recipe_id", id))
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated recipe.
func (s *RecipeService) ToggleFavorite(ctx context.Context, id int) (*model.Recipe, error) {
	recipe, err := s.store.ToggleFavorite(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("toggling favorite on recipe %d: %w", id, err)
	}
	return recipe, nil
}

// AddIngredient attaches a new ingredient to recipe recipeID.
func (s *RecipeService) AddIngredient(ctx context.Context, recipeID int, ingredient *model.Ingredient) (*model.Ingredient, error) {
	ingredient.IngredientName = strings.TrimSpace(ingredient.IngredientName)
	ingredient.Quantity = strings.TrimSpace(ingredient.Quantity)
	if err := s.validateStruct(ingredient); err != nil {
		return nil, err
	}

	ingredient.ID = 0
	ingredient.RecipeID = recipeID
	if err := s.store.AddIngredient(ctx, ingredient); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("adding ingredient to recipe %d: %w", recipeID, err)
	}
	return ingredient, nil
}

// DeleteIngredient removes ingredientID when it belongs to recipeID.
func (s *RecipeService) DeleteIngredient(ctx context.Context, recipeID, ingredientID int) error {
	if err := s.store.DeleteIngredient(ctx, recipeID, ingredientID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrIngredientNotFound
		}
		return fmt.Errorf("deleting ingredient %d of recipe %d: %w", ingredientID, recipeID, err)
	}
	return nil
}

func normalize(recipe *model.Recipe) {
	recipe.Name = strings.TrimSpace(recipe.Name)
	recipe.Description = strings.TrimSpace(recipe.Description)
	for i := range recipe.Ingredients {
		recipe.Ingredients[i].IngredientName = strings.TrimSpace(recipe.Ingredients[i].IngredientName)
		recipe.Ingredients[i].Quantity = strings.TrimSpace(recipe.Ingredients[i].Quantity)
	}
}

// validateStruct returns the first rule violation as a *ValidationError.
func (s *RecipeService) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	// drop the root type name: "Recipe.ingredients[0].quantity" -> "ingredients[0].quantity"
	_, field, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		field = fe.Field()
	}
	msg := "is required"
	if fe.Tag() != "required" {
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ValidationError{Field: field, Message: msg}
}
