package service

import (
	"errors"
	"fmt"
)

var (
	// ErrRecipeNotFound is returned when no recipe has the requested id.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrIngredientNotFound is returned when no ingredient matches both the
	// recipe id and the ingredient id.
	ErrIngredientNotFound = errors.New("ingredient not found")
	// ErrConcurrentModification is matched by every ConflictError.
	ErrConcurrentModification = errors.New("recipe was modified concurrently")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError is returned by UpdateRecipe when another writer changed the
// recipe between the read and the write.
type ConflictError struct {
	RecipeID        int
	ExpectedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("recipe %d was modified concurrently (expected version %d)", e.RecipeID, e.ExpectedVersion)
}

// Is makes errors.Is(err, ErrConcurrentModification) true for conflicts.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConcurrentModification
}
