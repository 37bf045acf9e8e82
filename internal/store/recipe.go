// Package store persists recipes and their ingredients with gorm.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
)

var (
	// ErrRecordNotFound is returned when the addressed recipe or ingredient
	// does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStaleRecipe is returned by ReplaceRecipe when the stored version no
	// longer matches the one the caller read.
	ErrStaleRecipe = errors.New("recipe version is stale")
)

// Filter narrows ListRecipes. Empty fields match everything.
type Filter struct {
	// Name is a case-insensitive substring of the recipe name.
	Name string
	// Query is a case-insensitive substring of the name or the description.
	Query string
}

// RecipeStore handles recipe persistence
type RecipeStore struct {
	db *gorm.DB
}

// NewRecipeStore creates a new RecipeStore instance
func NewRecipeStore(db *gorm.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func withIngredients(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// FindRecipe loads a recipe with its ingredients.
func (s *RecipeStore) FindRecipe(ctx context.Context, id int) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns every recipe matching the filter, ordered by id.
func (s *RecipeStore) ListRecipes(ctx context.Context, filter Filter) ([]model.Recipe, error) {
	query := withIngredients(s.db.WithContext(ctx))

	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(name))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := likePattern(q)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
	}

	var recipes []model.Recipe
	if err := query.Order("id").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// RecipeExists reports whether a recipe row with the id is present.
func (s *RecipeStore) RecipeExists(ctx context.Context, id int) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountRecipes returns the number of stored recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Recipe{}).Count(&count).Error
	return count, err
}

// CreateRecipe inserts the recipe and its ingredients in one transaction.
// Ids are assigned by the database and written back into recipe.
func (s *RecipeStore) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	recipe.Version = 1
	return s.db.WithContext(ctx).Create(recipe).Error
}

// ReplaceRecipe overwrites name and description and swaps the whole
// ingredient set for recipe.Ingredients, all in one transaction. The row is
// only updated while its version still equals expectedVersion; otherwise
// nothing is written and ErrStaleRecipe is returned.
func (s *RecipeStore) ReplaceRecipe(ctx context.Context, recipe *model.Recipe, expectedVersion int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Recipe{}).
			Where("id = ? AND version = ?", recipe.ID, expectedVersion).
			Updates(map[string]any{
				"name":        recipe.Name,
				"description": recipe.Description,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleRecipe
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&model.Ingredient{}).Error; err != nil {
			return err
		}

		if len(recipe.Ingredients) == 0 {
			return nil
		}
		for i := range recipe.Ingredients {
			recipe.Ingredients[i].ID = 0
			recipe.Ingredients[i].RecipeID = recipe.ID
		}
		return tx.Create(&recipe.Ingredients).Error
	})
}

// DeleteRecipe removes the recipe and all of its ingredients.
func (s *RecipeStore) DeleteRecipe(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// ToggleFavorite flips the favorite flag and returns the updated recipe.
func (s *RecipeStore) ToggleFavorite(ctx context.Context, id int) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Recipe{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"is_favorite": gorm.Expr("NOT is_favorite"),
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return withIngredients(tx).First(&recipe, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// AddIngredient attaches a new ingredient to ingredient.RecipeID. The recipe
// version is bumped so a concurrent replace-all update cannot drop it
// silently.
func (s *RecipeStore) AddIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, ingredient.RecipeID); err != nil {
			return err
		}
		ingredient.ID = 0
		return tx.Create(ingredient).Error
	})
}

// DeleteIngredient removes the ingredient only when it belongs to recipeID.
func (s *RecipeStore) DeleteIngredient(ctx context.Context, recipeID, ingredientID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("recipe_id = ? AND id = ?", recipeID, ingredientID).Delete(&model.Ingredient{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return bumpVersion(tx, recipeID)
	})
}

func bumpVersion(tx *gorm.DB, recipeID int) error {
	res := tx.Model(&model.Recipe{}).
		Where("id = ?", recipeID).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
