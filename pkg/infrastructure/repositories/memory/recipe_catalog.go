package memory

import (
	"fmt"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// RecipeCatalog provides an in-memory recipe catalog. Load it fully before
// sharing it between concurrent planning requests.
type RecipeCatalog struct {
	recipes      []entities.Recipe
	byID         map[entities.RecipeID]int
	byOutput     map[entities.ItemID][]int
	reactionsFor map[entities.ItemID][]int
}

// NewRecipeCatalog creates an empty catalog sized for the expected recipe count
func NewRecipeCatalog(expectedRecipes int) *RecipeCatalog {
	return &RecipeCatalog{
		recipes:      make([]entities.Recipe, 0, expectedRecipes),
		byID:         make(map[entities.RecipeID]int, expectedRecipes),
		byOutput:     make(map[entities.ItemID][]int, expectedRecipes),
		reactionsFor: make(map[entities.ItemID][]int),
	}
}

// Verify interface compliance
var _ repositories.RecipeCatalog = (*RecipeCatalog)(nil)

// LoadRecipes loads recipes into the catalog
func (c *RecipeCatalog) LoadRecipes(recipes []*entities.Recipe) error {
	for _, recipe := range recipes {
		if err := c.AddRecipe(*recipe); err != nil {
			return err
		}
	}
	return nil
}

// AddRecipe adds a recipe, indexing it by id and output item
func (c *RecipeCatalog) AddRecipe(recipe entities.Recipe) error {
	if recipe.RecipeID <= 0 {
		return fmt.Errorf("recipe id must be positive, got %d", recipe.RecipeID)
	}
	if recipe.OutputItem <= 0 {
		return fmt.Errorf("recipe %d has no output item", recipe.RecipeID)
	}
	if _, exists := c.byID[recipe.RecipeID]; exists {
		return fmt.Errorf("duplicate recipe id %d", recipe.RecipeID)
	}

	index := len(c.recipes)
	c.recipes = append(c.recipes, recipe)
	c.byID[recipe.RecipeID] = index
	if recipe.Activity == entities.ActivityReaction {
		c.reactionsFor[recipe.OutputItem] = append(c.reactionsFor[recipe.OutputItem], index)
	} else {
		c.byOutput[recipe.OutputItem] = append(c.byOutput[recipe.OutputItem], index)
	}
	return nil
}

// RecipesFor returns the ordinary recipes producing an item in load order
func (c *RecipeCatalog) RecipesFor(item entities.ItemID) []entities.Recipe {
	indexes := c.byOutput[item]
	if len(indexes) == 0 {
		return nil
	}
	recipes := make([]entities.Recipe, 0, len(indexes))
	for _, index := range indexes {
		recipes = append(recipes, c.recipes[index])
	}
	return recipes
}

// IsReactionOnly reports whether only reaction recipes produce the item
func (c *RecipeCatalog) IsReactionOnly(item entities.ItemID) bool {
	return len(c.reactionsFor[item]) > 0 && len(c.byOutput[item]) == 0
}

// Recipe returns a recipe by id
func (c *RecipeCatalog) Recipe(id entities.RecipeID) (entities.Recipe, bool) {
	index, exists := c.byID[id]
	if !exists {
		return entities.Recipe{}, false
	}
	return c.recipes[index], true
}

// AllRecipes returns every recipe in load order
func (c *RecipeCatalog) AllRecipes() []entities.Recipe {
	recipes := make([]entities.Recipe, len(c.recipes))
	copy(recipes, c.recipes)
	return recipes
}

// Count returns the number of loaded recipes
func (c *RecipeCatalog) Count() int {
	return len(c.recipes)
}
