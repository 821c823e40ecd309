package repositories

import "github.com/vsinha/industry-planner/pkg/domain/entities"

// RecipeCatalog provides read-only access to recipe data.
// Implementations must be safe for concurrent readers.
type RecipeCatalog interface {
	// RecipesFor returns the ordinary (non-reaction) recipes producing an item,
	// in catalog order. An empty result means the item cannot be built.
	RecipesFor(item entities.ItemID) []entities.Recipe

	// IsReactionOnly reports whether the item can only be produced by a reaction recipe.
	IsReactionOnly(item entities.ItemID) bool

	// Recipe looks up a recipe by id, including reaction recipes.
	Recipe(id entities.RecipeID) (entities.Recipe, bool)
}
