package planner

import (
	"sort"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// SelectRecipe picks the recipe with the largest output per run.
// Ties keep catalog order. Returns false if no recipes are provided.
func SelectRecipe(recipes []entities.Recipe) (entities.Recipe, bool) {
	if len(recipes) == 0 {
		return entities.Recipe{}, false
	}

	sorted := make([]entities.Recipe, len(recipes))
	copy(sorted, recipes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OutputQtyPerRun > sorted[j].OutputQtyPerRun
	})

	return sorted[0], true
}
