package costbasis

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// Estimator prices production output from its recipe, job cost and market prices
type Estimator struct {
	catalog repositories.RecipeCatalog
	prices  repositories.PriceOracle
}

// NewEstimator creates a new production unit cost estimator
func NewEstimator(catalog repositories.RecipeCatalog, prices repositories.PriceOracle) *Estimator {
	return &Estimator{catalog: catalog, prices: prices}
}

// EstimateUnitCost returns the record's own unit cost when present, otherwise an estimate:
//
//	manufacturing: (materials at market * runs + job cost) / (output per run * runs)
//	copying, invention: job cost / quantity produced, else the output's market price
//
// The result is empty when the estimate cannot be made.
func (e *Estimator) EstimateUnitCost(record entities.ProductionRecord) decimal.NullDecimal {
	if record.UnitCost.Valid && record.UnitCost.Decimal.IsPositive() {
		return record.UnitCost
	}

	switch record.Activity {
	case entities.ActivityCopying, entities.ActivityInvention:
		return e.estimateFromJobCost(record)
	default:
		return e.estimateFromRecipe(record)
	}
}

func (e *Estimator) estimateFromRecipe(record entities.ProductionRecord) decimal.NullDecimal {
	recipe, ok := e.recipeFor(record)
	if !ok || recipe.OutputQtyPerRun <= 0 {
		return decimal.NullDecimal{}
	}

	runs := decimal.NewFromInt(record.RunCount())
	materials := decimal.Zero
	for _, input := range recipe.Inputs {
		if input.QtyPerRun <= 0 {
			continue
		}
		unit, ok := e.prices.MarketUnitPrice(input.Item)
		if !ok {
			return decimal.NullDecimal{}
		}
		materials = materials.Add(unit.Mul(decimal.NewFromInt(int64(input.QtyPerRun))))
	}

	total := materials.Mul(runs)
	if record.JobCost.Valid && record.JobCost.Decimal.IsPositive() {
		total = total.Add(record.JobCost.Decimal)
	}

	output := decimal.NewFromInt(int64(recipe.OutputQtyPerRun)).Mul(runs)
	unitCost := total.Div(output)
	if !unitCost.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(unitCost)
}

func (e *Estimator) estimateFromJobCost(record entities.ProductionRecord) decimal.NullDecimal {
	if record.QuantityProduced > 0 && record.JobCost.Valid && record.JobCost.Decimal.IsPositive() {
		return decimal.NewNullDecimal(record.JobCost.Decimal.Div(decimal.NewFromInt(int64(record.QuantityProduced))))
	}
	if unit, ok := e.prices.MarketUnitPrice(record.ItemProduced); ok {
		return decimal.NewNullDecimal(unit)
	}
	return decimal.NullDecimal{}
}

// recipeFor prefers the record's own recipe and falls back to the catalog's first recipe for the output
func (e *Estimator) recipeFor(record entities.ProductionRecord) (entities.Recipe, bool) {
	if record.RecipeID > 0 {
		if recipe, ok := e.catalog.Recipe(record.RecipeID); ok && recipe.OutputItem == record.ItemProduced {
			return recipe, true
		}
	}
	recipes := e.catalog.RecipesFor(record.ItemProduced)
	if len(recipes) == 0 {
		return entities.Recipe{}, false
	}
	return recipes[0], true
}
