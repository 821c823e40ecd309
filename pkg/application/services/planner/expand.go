package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// expand decomposes a build of quantity units through recipe and plans every input
func (r *run) expand(
	item entities.ItemID,
	quantity entities.Quantity,
	depth int,
	path []entities.ItemID,
	recipe entities.Recipe,
) (*entities.BuildDetail, []*entities.PlanNode) {
	runs := entities.CeilDiv(quantity, recipe.OutputQtyPerRun)
	efficiency, owned := r.efficiency(recipe.RecipeID)

	childPath := make([]entities.ItemID, len(path), len(path)+1)
	copy(childPath, path)
	childPath = append(childPath, item)

	materialFactor := remainingPercent(efficiency.MaterialPct).Mul(remainingFraction(r.modifiers.MaterialReduction))

	children := make([]*entities.PlanNode, 0, len(recipe.Inputs))
	childrenCost := decimal.NewNullDecimal(decimal.Zero)
	childrenTime := durationPtr(0)
	eiv := decimal.NewNullDecimal(decimal.Zero)

	for _, input := range recipe.Inputs {
		baseQty := input.QtyPerRun * runs
		if baseQty <= 0 {
			continue
		}

		child := r.plan(input.Item, reducedQuantity(baseQty, materialFactor), depth+1, childPath)
		children = append(children, child)

		childrenCost = addNull(childrenCost, child.EffectiveCost)
		if childrenTime != nil && child.EffectiveTime != nil {
			*childrenTime += *child.EffectiveTime
		} else {
			childrenTime = nil
		}

		if basis, ok := r.prices.JobFeeBasisPrice(input.Item); ok && eiv.Valid {
			eiv = decimal.NewNullDecimal(eiv.Decimal.Add(basis.Mul(decimal.NewFromInt(int64(baseQty)))))
		} else {
			eiv = decimal.NullDecimal{}
		}
	}

	timeFactor := remainingPercent(efficiency.TimePct)
	structureTime := remainingFraction(r.modifiers.TimeReduction)

	build := &entities.BuildDetail{
		RecipeID:          recipe.RecipeID,
		RecipeName:        recipe.Name,
		RunsNeeded:        runs,
		OutputQtyPerRun:   recipe.OutputQtyPerRun,
		OutputTotal:       runs * recipe.OutputQtyPerRun,
		Efficiency:        efficiency,
		ChildrenCost:      childrenCost,
		JobFee:            jobFee(eiv, r.indices.Manufacturing, r.modifiers),
		ChildrenTime:      childrenTime,
		ManufacturingTime: scaleDuration(recipe.RunTime*time.Duration(runs), timeFactor, structureTime),
		RecipeOwned:       owned,
	}

	if !owned {
		if price, ok := r.prices.MarketUnitPrice(entities.ItemID(recipe.RecipeID)); ok {
			build.RecipeBuyCost = decimal.NewNullDecimal(price)
		}
		build.CopyOverhead = r.copyOverhead(recipe, runs, eiv)
		build.CopyOverheadIncluded = build.CopyOverhead != nil
	}
	build.ResearchOverhead = r.researchOverhead(recipe, eiv)

	if childrenCost.Valid {
		total := childrenCost.Decimal.Add(orZero(build.JobFee))
		if build.CopyOverheadIncluded {
			total = total.Add(orZero(build.CopyOverhead.CopyFee))
		}
		build.TotalBuildCost = decimal.NewNullDecimal(total)
	}
	if childrenTime != nil {
		total := *childrenTime + build.ManufacturingTime
		if build.CopyOverheadIncluded {
			total += build.CopyOverhead.CopyTime
		}
		build.TotalBuildTime = &total
	}

	return build, children
}

// reducedQuantity applies material efficiency and never rounds a nonzero need down to zero
func reducedQuantity(baseQty entities.Quantity, factor decimal.Decimal) entities.Quantity {
	reduced := decimal.NewFromInt(int64(baseQty)).Mul(factor).Ceil().IntPart()
	if reduced < 1 {
		return 1
	}
	return entities.Quantity(reduced)
}

// efficiency returns the ME/TE to build with and whether the recipe is owned
func (r *run) efficiency(recipeID entities.RecipeID) (entities.Efficiency, bool) {
	hint, owned := r.ownership[recipeID]
	if !owned {
		return entities.Efficiency{
			MaterialPct: r.unownedME,
			TimePct:     r.unownedTE,
			Source:      EfficiencyAssumed,
		}, false
	}

	isCopy := hint.IsCopy
	efficiency := entities.Efficiency{
		MaterialPct: clampPercent(hint.MEPercent),
		TimePct:     clampPercent(hint.TEPercent),
		Source:      EfficiencyOwned,
		OwnedIsCopy: &isCopy,
	}
	if hint.Runs != nil {
		runs := *hint.Runs
		efficiency.OwnedRuns = &runs
	}
	return efficiency, true
}

// copyOverhead estimates a copy job with just enough runs for this build
func (r *run) copyOverhead(recipe entities.Recipe, runs entities.Quantity, eiv decimal.NullDecimal) *entities.CopyOverhead {
	if recipe.CopyTime <= 0 || runs <= 0 {
		return nil
	}

	ratio := one
	if recipe.MaxRunsPerCopy > 0 {
		ratio = decimal.Min(one, decimal.NewFromInt(int64(runs)).Div(decimal.NewFromInt(recipe.MaxRunsPerCopy)))
	}

	overhead := &entities.CopyOverhead{
		MaxRunsPerCopy: recipe.MaxRunsPerCopy,
		CopyTime:       scaleDuration(recipe.CopyTime, ratio, remainingFraction(r.modifiers.TimeReduction)),
	}
	if fee := jobFee(eiv, r.indices.Copying, r.modifiers); fee.Valid {
		overhead.CopyFee = decimal.NewNullDecimal(fee.Decimal.Mul(ratio))
	}
	return overhead
}

// researchOverhead is informational and never enters the build cost
func (r *run) researchOverhead(recipe entities.Recipe, eiv decimal.NullDecimal) *entities.ResearchOverhead {
	if recipe.ResearchMETime <= 0 && recipe.ResearchTETime <= 0 {
		return nil
	}
	structureTime := remainingFraction(r.modifiers.TimeReduction)
	return &entities.ResearchOverhead{
		METime: scaleDuration(recipe.ResearchMETime, structureTime),
		TETime: scaleDuration(recipe.ResearchTETime, structureTime),
		MEFee:  jobFee(eiv, r.indices.ResearchME, r.modifiers),
		TEFee:  jobFee(eiv, r.indices.ResearchTE, r.modifiers),
	}
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
