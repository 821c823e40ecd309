package entities

import (
	"fmt"
	"time"
)

// RecipeInput is one material line of a recipe
type RecipeInput struct {
	Item      ItemID   `json:"item" yaml:"item"`
	QtyPerRun Quantity `json:"qty_per_run" yaml:"qty_per_run"`
}

// Recipe describes how one run of a blueprint turns inputs into output
type Recipe struct {
	RecipeID        RecipeID      `json:"recipe_id" yaml:"recipe_id"`
	Name            string        `json:"name,omitempty" yaml:"name,omitempty"`
	OutputItem      ItemID        `json:"output_item" yaml:"output_item"`
	OutputQtyPerRun Quantity      `json:"output_qty_per_run" yaml:"output_qty_per_run"`
	Inputs          []RecipeInput `json:"inputs" yaml:"inputs"`
	RunTime         time.Duration `json:"run_time" yaml:"run_time"`
	MaxRunsPerCopy  int64         `json:"max_runs_per_copy" yaml:"max_runs_per_copy"`
	CopyTime        time.Duration `json:"copy_time,omitempty" yaml:"copy_time,omitempty"`
	ResearchMETime  time.Duration `json:"research_me_time,omitempty" yaml:"research_me_time,omitempty"`
	ResearchTETime  time.Duration `json:"research_te_time,omitempty" yaml:"research_te_time,omitempty"`
	Activity        Activity      `json:"activity" yaml:"-"`
}

// NewRecipe creates a validated Recipe
func NewRecipe(
	recipeID RecipeID,
	outputItem ItemID,
	outputQtyPerRun Quantity,
	inputs []RecipeInput,
	runTime time.Duration,
	maxRunsPerCopy int64,
) (*Recipe, error) {
	if recipeID <= 0 {
		return nil, fmt.Errorf("recipe id must be positive, got %d", recipeID)
	}
	if outputItem <= 0 {
		return nil, fmt.Errorf("output item must be positive, got %d", outputItem)
	}
	if outputQtyPerRun <= 0 {
		return nil, fmt.Errorf("output quantity per run must be positive, got %d", outputQtyPerRun)
	}
	for _, input := range inputs {
		if input.Item == outputItem {
			return nil, fmt.Errorf("recipe %d consumes its own output %d", recipeID, outputItem)
		}
	}
	if runTime < 0 {
		return nil, fmt.Errorf("run time cannot be negative, got %v", runTime)
	}
	if maxRunsPerCopy < 0 {
		return nil, fmt.Errorf("max runs per copy cannot be negative, got %d", maxRunsPerCopy)
	}

	return &Recipe{
		RecipeID:        recipeID,
		OutputItem:      outputItem,
		OutputQtyPerRun: outputQtyPerRun,
		Inputs:          inputs,
		RunTime:         runTime,
		MaxRunsPerCopy:  maxRunsPerCopy,
		Activity:        ActivityManufacturing,
	}, nil
}

// BlueprintOwnership is an ownership and efficiency hint for one recipe
type BlueprintOwnership struct {
	RecipeID  RecipeID `json:"recipe_id" yaml:"recipe_id"`
	MEPercent float64  `json:"me_percent" yaml:"me_percent"`
	TEPercent float64  `json:"te_percent" yaml:"te_percent"`
	IsCopy    bool     `json:"is_copy" yaml:"is_copy"`
	Runs      *int64   `json:"runs,omitempty" yaml:"runs,omitempty"`
}
