package planner_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/application/services/ledger"
	"github.com/vsinha/industry-planner/pkg/application/services/planner"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/memory"
)

const (
	product  entities.ItemID   = 1000
	material entities.ItemID   = 2000
	recipeR  entities.RecipeID = 3000
)

func money(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func equalMoney(got decimal.NullDecimal, want float64) {
	GinkgoHelper()
	Expect(got.Valid).To(BeTrue())
	Expect(got.Decimal.Round(2).Equal(decimal.NewFromFloat(want))).To(BeTrue(),
		"expected %v, got %s", want, got.Decimal)
}

var _ = Describe("Build-vs-buy planning", func() {
	var (
		catalog *memory.RecipeCatalog
		p       *planner.Planner
	)

	BeforeEach(func() {
		catalog = memory.NewRecipeCatalog(1)
		Expect(catalog.AddRecipe(entities.Recipe{
			RecipeID:        recipeR,
			Name:            "Product Blueprint",
			OutputItem:      product,
			OutputQtyPerRun: 2,
			Inputs:          []entities.RecipeInput{{Item: material, QtyPerRun: 3}},
			RunTime:         30 * time.Minute,
		})).To(Succeed())
		p = planner.NewPlanner(catalog, planner.WithLogger(testLogger))
	})

	Context("when building beats buying", func() {
		var result *dto.PlanResult

		BeforeEach(func() {
			prices := memory.NewPriceBook([]entities.PriceQuote{
				{Item: product, Market: money(25)},
				{Item: material, Market: money(10), JobFeeBasis: money(10)},
			})

			var err error
			result, err = p.Plan(dto.PlanRequest{
				Requirements: []entities.MaterialRequirement{{Item: product, Quantity: 4}},
				Prices:       prices,
				// EIV is 6 × 10 = 60, so the fee is 60 / 12 = 5
				CostIndices: dto.CostIndices{Manufacturing: 1.0 / 12.0},
				Ownership:   []entities.BlueprintOwnership{{RecipeID: recipeR}},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("decomposes the requirement into whole runs", func() {
			root := result.Roots[0]
			Expect(root.Kind).To(Equal(entities.ExpandedNode))
			Expect(root.Build.RunsNeeded).To(Equal(entities.Quantity(2)))
			Expect(root.Build.OutputTotal).To(Equal(entities.Quantity(4)))
			Expect(root.Children).To(HaveLen(1))
			Expect(root.Children[0].Item).To(Equal(material))
			Expect(root.Children[0].RequiredQuantity).To(Equal(entities.Quantity(6)))
		})

		It("recommends building at children cost plus job fee", func() {
			root := result.Roots[0]
			equalMoney(root.BuyCost, 100)
			equalMoney(root.Build.ChildrenCost, 60)
			equalMoney(root.Build.JobFee, 5)
			equalMoney(root.Build.TotalBuildCost, 65)
			Expect(root.Recommendation).To(Equal(entities.Build))
			equalMoney(root.EffectiveCost, 65)
			equalMoney(root.Savings, 35)
		})

		It("takes build time from the recipe", func() {
			root := result.Roots[0]
			Expect(root.EffectiveTime).NotTo(BeNil())
			Expect(*root.EffectiveTime).To(Equal(time.Hour))
			Expect(result.TotalEffectiveTime).To(Equal(time.Hour))
		})
	})

	Context("when cheaper stock is on hand", func() {
		It("takes the stock instead of buying", func() {
			buy := true
			acquired := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
			stock := ledger.Build(
				[]entities.Transaction{{
					Item: material, Quantity: 5, IsBuy: &buy, UnitPrice: money(8),
					Timestamp: &acquired, ReferenceID: 42,
				}},
				nil,
				map[entities.ItemID]entities.Quantity{material: 5},
				ledger.WithLogger(testLogger),
			)
			prices := memory.NewPriceBook([]entities.PriceQuote{{Item: material, Market: money(10)}})

			result, err := p.Plan(dto.PlanRequest{
				Requirements:     []entities.MaterialRequirement{{Item: material, Quantity: 5}},
				Prices:           prices,
				Inventory:        stock,
				UseFIFOInventory: true,
			})
			Expect(err).NotTo(HaveOccurred())

			root := result.Roots[0]
			Expect(root.Recommendation).To(Equal(entities.Take))
			Expect(root.IsLeaf()).To(BeTrue())
			Expect(root.Inventory.Used).To(Equal(entities.Quantity(5)))
			Expect(root.Inventory.BuyNowQty).To(BeZero())
			equalMoney(decimal.NewNullDecimal(root.Inventory.FIFOCost), 40)
			equalMoney(root.EffectiveCost, 40)
		})

		It("buys when the stock is not cheaper than market", func() {
			buy := true
			stock := ledger.Build(
				[]entities.Transaction{{Item: material, Quantity: 5, IsBuy: &buy, UnitPrice: money(12), ReferenceID: 1}},
				nil,
				map[entities.ItemID]entities.Quantity{material: 5},
			)
			prices := memory.NewPriceBook([]entities.PriceQuote{{Item: material, Market: money(10)}})

			result, err := p.Plan(dto.PlanRequest{
				Requirements:     []entities.MaterialRequirement{{Item: material, Quantity: 5}},
				Prices:           prices,
				Inventory:        stock,
				UseFIFOInventory: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Roots[0].Recommendation).To(Equal(entities.Buy))
			Expect(result.Roots[0].Reason).To(Equal(entities.ReasonNoBlueprintFound))
			equalMoney(result.Roots[0].EffectiveCost, 60)
		})
	})
})
