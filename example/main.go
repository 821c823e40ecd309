package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/application/services/criticalpath"
	"github.com/vsinha/industry-planner/pkg/application/services/orchestration"
	"github.com/vsinha/industry-planner/pkg/application/services/planner"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/industry-planner/pkg/interfaces/cli/output"
)

const (
	tritanium entities.ItemID = 34
	pyerite   entities.ItemID = 35
	mexallon  entities.ItemID = 36
	plating   entities.ItemID = 11399
	rifter    entities.ItemID = 587

	owner entities.OwnerID = 90000001
)

func isk(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func main() {
	ctx := context.Background()

	catalog := memory.NewRecipeCatalog(2)
	events := memory.NewEventStore()
	inventory := memory.NewInventoryRepository()
	setupFrigate(catalog, events, inventory)

	prices := memory.NewPriceBook([]entities.PriceQuote{
		{Item: tritanium, Market: isk(5), JobFeeBasis: isk(4.5)},
		{Item: pyerite, Market: isk(12), JobFeeBasis: isk(11)},
		{Item: mexallon, Market: isk(60), JobFeeBasis: isk(58)},
		{Item: plating, Market: isk(2600), JobFeeBasis: isk(2400)},
		{Item: rifter, Market: isk(450000), JobFeeBasis: isk(400000)},
	})

	orchestrator := orchestration.NewPlanningOrchestrator(
		planner.NewPlanner(catalog),
		criticalpath.NewCriticalPathService(logr.Discard()),
		catalog, events, inventory, prices,
		orchestration.WithBlueprints(events),
	)

	fmt.Println("🚀 Planning 5 Rifters...")
	result, err := orchestrator.Run(ctx, owner,
		[]entities.MaterialRequirement{{Item: rifter, Quantity: 5}},
		orchestration.PlanOptions{
			Modifiers:        dto.Modifiers{MaterialReduction: 0.01, SurchargeRate: 0.04},
			CostIndices:      dto.CostIndices{Manufacturing: 0.05, Copying: 0.05},
			MaxDepth:         3,
			UseFIFOInventory: true,
			CriticalPaths:    1,
		})
	if err != nil {
		fmt.Printf("❌ Planning failed: %v\n", err)
		return
	}

	fmt.Println(result.GetSummary())
	fmt.Println()
	for _, root := range result.Plan.Roots {
		fmt.Print(output.RenderTree(root))
	}

	fmt.Println()
	fmt.Println("💰 Valuing held stock...")
	valuation, err := orchestrator.Valuate(ctx, owner, nil)
	if err != nil {
		fmt.Printf("❌ Valuation failed: %v\n", err)
		return
	}
	for _, record := range valuation.Records {
		cost := "unknown"
		if record.UnitCost.Valid {
			cost = record.UnitCost.Decimal.StringFixed(2)
		}
		fmt.Printf("  Item %d: %d @ %s (%s)\n", record.Item, valuation.OnHand[record.Item], cost, record.Source)
	}
	fmt.Printf("  Total: %s ISK\n", valuation.TotalValue.StringFixed(2))
}

// setupFrigate loads a two level recipe tree, an owned blueprint copy and
// some bought minerals
func setupFrigate(catalog *memory.RecipeCatalog, events *memory.EventStore, inventory *memory.InventoryRepository) {
	recipes := []entities.Recipe{
		{
			RecipeID: 691, Name: "Rifter Blueprint", OutputItem: rifter, OutputQtyPerRun: 1,
			Inputs: []entities.RecipeInput{
				{Item: tritanium, QtyPerRun: 28000},
				{Item: pyerite, QtyPerRun: 6000},
				{Item: plating, QtyPerRun: 4},
			},
			RunTime: time.Hour, MaxRunsPerCopy: 10, CopyTime: 48 * time.Minute,
		},
		{
			RecipeID: 11400, Name: "Armor Plating Blueprint", OutputItem: plating, OutputQtyPerRun: 10,
			Inputs: []entities.RecipeInput{
				{Item: tritanium, QtyPerRun: 2000},
				{Item: mexallon, QtyPerRun: 100},
			},
			RunTime: 20 * time.Minute, MaxRunsPerCopy: 100,
		},
	}
	for _, recipe := range recipes {
		if err := catalog.AddRecipe(recipe); err != nil {
			panic(err)
		}
	}

	runs := int64(10)
	events.AddBlueprints(owner, entities.BlueprintOwnership{RecipeID: 691, MEPercent: 10, TEPercent: 20, IsCopy: true, Runs: &runs})

	buy := true
	bought := func(days int) *time.Time {
		t := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
		return &t
	}
	events.AddTransactions(owner,
		entities.Transaction{Item: tritanium, Quantity: 100000, IsBuy: &buy, UnitPrice: isk(4.2), Timestamp: bought(0), ReferenceID: 1},
		entities.Transaction{Item: tritanium, Quantity: 50000, IsBuy: &buy, UnitPrice: isk(4.8), Timestamp: bought(7), ReferenceID: 2},
		entities.Transaction{Item: pyerite, Quantity: 20000, IsBuy: &buy, UnitPrice: isk(10.5), Timestamp: bought(3), ReferenceID: 3},
	)
	inventory.SetOnHand(owner, tritanium, 120000)
	inventory.SetOnHand(owner, pyerite, 20000)
}
