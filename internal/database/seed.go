package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pageza/recipebox/backend/internal/model"
)

// RecipeSeeder is the slice of the recipe store that seeding needs.
type RecipeSeeder interface {
	CountRecipes(ctx context.Context) (int64, error)
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
}

// DefaultRecipes returns the recipes inserted into an empty database.
func DefaultRecipes() []model.Recipe {
	return []model.Recipe{
		{
			Name:        "Arepas con Queso",
			Description: "Griddled corn cakes stuffed with melted cheese, a breakfast staple in Colombia and Venezuela.",
			IsFavorite:  true,
			Ingredients: []model.Ingredient{
				{IngredientName: "Precooked corn flour", Quantity: "2 cups"},
				{IngredientName: "Warm water", Quantity: "2.5 cups"},
				{IngredientName: "Salt", Quantity: "1 teaspoon"},
				{IngredientName: "Grated mozzarella", Quantity: "1 cup"},
				{IngredientName: "Butter", Quantity: "2 tablespoons"},
			},
		},
		{
			Name:        "Ceviche Peruano",
			Description: "Raw white fish cured in lime juice with chili, red onion and cilantro.",
			Ingredients: []model.Ingredient{
				{IngredientName: "Fresh white fish", Quantity: "500 g, cubed"},
				{IngredientName: "Lime juice", Quantity: "1 cup"},
				{IngredientName: "Red onion", Quantity: "1, thinly sliced"},
				{IngredientName: "Aji limo", Quantity: "1, seeded and minced"},
				{IngredientName: "Cilantro", Quantity: "1/4 cup, chopped"},
				{IngredientName: "Salt", Quantity: "to taste"},
				{IngredientName: "Toasted cancha corn", Quantity: "to serve"},
				{IngredientName: "Boiled sweet potato", Quantity: "to serve"},
			},
		},
		{
			Name:        "Feijoada",
			Description: "Brazilian black bean stew with pork and beef, served with rice, collard greens and orange.",
			Ingredients: []model.Ingredient{
				{IngredientName: "Dried black beans", Quantity: "500 g"},
				{IngredientName: "Carne seca", Quantity: "200 g"},
				{IngredientName: "Salted pork ribs", Quantity: "200 g"},
				{IngredientName: "Smoked pork loin", Quantity: "150 g"},
				{IngredientName: "Linguica sausage", Quantity: "150 g"},
				{IngredientName: "Smoked bacon", Quantity: "100 g"},
				{IngredientName: "Onion", Quantity: "1 large, chopped"},
				{IngredientName: "Garlic", Quantity: "4 cloves, minced"},
				{IngredientName: "Bay leaves", Quantity: "2"},
				{IngredientName: "Black pepper", Quantity: "to taste"},
			},
		},
	}
}

// Seed inserts DefaultRecipes when no recipe exists yet and returns how many
// recipes were created.
func Seed(ctx context.Context, s RecipeSeeder, log *slog.Logger) (int, error) {
	count, err := s.CountRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	if count > 0 {
		log.DebugContext(ctx, "database already has recipes, skipping seed", slog.Int64("count", count))
		return 0, nil
	}

	recipes := DefaultRecipes()
	for i := range recipes {
		if err := s.CreateRecipe(ctx, &recipes[i]); err != nil {
			return i, fmt.Errorf("seeding %q: %w", recipes[i].Name, err)
		}
	}

	log.InfoContext(ctx, "database seeded with default recipes", slog.Int("count", len(recipes)))
	return len(recipes), nil
}
