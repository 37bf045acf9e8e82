package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebox/backend/internal/model"
)

func TestSetupSQLiteDatabase(t *testing.T) {
	db := SetupSQLiteDatabase(t)
	require.NotNil(t, db)

	recipe := &model.Recipe{
		Name:        "Arepas",
		Description: "Maize cakes",
		Ingredients: []model.Ingredient{{IngredientName: "Corn flour", Quantity: "2 cups"}},
	}
	require.NoError(t, db.Create(recipe).Error)
	assert.NotZero(t, recipe.ID)
	assert.NotZero(t, recipe.Ingredients[0].ID)
}

func TestSetupSQLiteDatabaseIsolated(t *testing.T) {
	first := SetupSQLiteDatabase(t)
	second := SetupSQLiteDatabase(t)

	require.NoError(t, first.Create(&model.Recipe{Name: "Arepas", Description: "Maize cakes"}).Error)

	var count int64
	require.NoError(t, second.Model(&model.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetupPostgresDatabase(t *testing.T) {
	db := SetupPostgresDatabase(t, "../../migrations")

	assert.True(t, db.Migrator().HasTable("recipes"))
	assert.True(t, db.Migrator().HasTable("recipe_ingredients"))
	assert.True(t, db.Migrator().HasTable("schema_migrations"))
}
