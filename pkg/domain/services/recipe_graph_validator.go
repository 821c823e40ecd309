package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// RecipeGraphValidator checks a recipe catalog for structural problems.
// The planner survives all of them; this exists to report them up front.
type RecipeGraphValidator struct{}

// NewRecipeGraphValidator creates a new recipe graph validator
func NewRecipeGraphValidator() *RecipeGraphValidator {
	return &RecipeGraphValidator{}
}

// ValidationResult contains the results of recipe graph validation
type ValidationResult struct {
	HasCycles       bool
	CyclePaths      [][]entities.ItemID
	DuplicateInputs []DuplicateInput
	InvalidOutputs  []entities.RecipeID
	Errors          []string
}

// DuplicateInput is an input item listed more than once by a recipe
type DuplicateInput struct {
	RecipeID entities.RecipeID
	Item     entities.ItemID
}

// IsValid reports whether no problems were found
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validate performs comprehensive validation on a set of recipes
func (v *RecipeGraphValidator) Validate(recipes []entities.Recipe) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:      make([][]entities.ItemID, 0),
		DuplicateInputs: make([]DuplicateInput, 0),
		InvalidOutputs:  make([]entities.RecipeID, 0),
		Errors:          make([]string, 0),
	}

	adjacencyMap := v.buildAdjacencyMap(recipes)

	cycles := v.detectCycles(adjacencyMap)
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	result.DuplicateInputs = v.detectDuplicateInputs(recipes)

	for _, recipe := range recipes {
		if recipe.OutputQtyPerRun <= 0 {
			result.InvalidOutputs = append(result.InvalidOutputs, recipe.RecipeID)
		}
	}

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("recipe cycle detected: %v", cycle))
	}
	if len(result.DuplicateInputs) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d duplicate recipe inputs", len(result.DuplicateInputs)))
	}
	if len(result.InvalidOutputs) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("recipes with no output per run: %v", result.InvalidOutputs))
	}

	return result
}

// buildAdjacencyMap creates a map of output -> input relationships.
// Reactions are never expanded by the planner, so they are left out.
func (v *RecipeGraphValidator) buildAdjacencyMap(recipes []entities.Recipe) map[entities.ItemID][]entities.ItemID {
	adjacencyMap := make(map[entities.ItemID][]entities.ItemID)

	for _, recipe := range recipes {
		if recipe.Activity == entities.ActivityReaction {
			continue
		}
		inputs := adjacencyMap[recipe.OutputItem]
		for _, input := range recipe.Inputs {
			found := false
			for _, existing := range inputs {
				if existing == input.Item {
					found = true
					break
				}
			}
			if !found {
				inputs = append(inputs, input.Item)
			}
		}
		adjacencyMap[recipe.OutputItem] = inputs
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles, starting from items in id order
func (v *RecipeGraphValidator) detectCycles(adjacencyMap map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	visited := make(map[entities.ItemID]bool)
	recursionStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	starts := make([]entities.ItemID, 0, len(adjacencyMap))
	for item := range adjacencyMap {
		starts = append(starts, item)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	for _, item := range starts {
		if !visited[item] {
			v.dfsDetectCycle(item, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

func (v *RecipeGraphValidator) dfsDetectCycle(
	current entities.ItemID,
	adjacencyMap map[entities.ItemID][]entities.ItemID,
	visited map[entities.ItemID]bool,
	recursionStack map[entities.ItemID]bool,
	path []entities.ItemID,
	cycles *[][]entities.ItemID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, input := range adjacencyMap[current] {
		if !visited[input] {
			v.dfsDetectCycle(input, adjacencyMap, visited, recursionStack, path, cycles)
			continue
		}
		if !recursionStack[input] {
			continue
		}
		for i, item := range path {
			if item == input {
				cycle := make([]entities.ItemID, 0, len(path)-i+1)
				cycle = append(cycle, path[i:]...)
				cycle = append(cycle, input)
				*cycles = append(*cycles, cycle)
				break
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateInputs finds recipes that list the same input item twice
func (v *RecipeGraphValidator) detectDuplicateInputs(recipes []entities.Recipe) []DuplicateInput {
	duplicates := make([]DuplicateInput, 0)

	for _, recipe := range recipes {
		seen := make(map[entities.ItemID]bool, len(recipe.Inputs))
		for _, input := range recipe.Inputs {
			if seen[input.Item] {
				duplicates = append(duplicates, DuplicateInput{RecipeID: recipe.RecipeID, Item: input.Item})
				continue
			}
			seen[input.Item] = true
		}
	}

	return duplicates
}
