package commands

import (
	"context"
	encodingcsv "encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/yamlcatalog"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Items        int     // Total number of items to generate
	MaxDepth     int     // Maximum depth of the recipe tree
	Requirements int     // Number of requirement lines
	Inventory    float64 // Stock multiplier of one root's raw materials (0.5 = half coverage)
	OwnedRatio   float64 // Fraction of recipes with an owned blueprint
	OutputDir    string  // Output directory for generated files
	Seed         int64   // Random seed for reproducible generation
	Verbose      bool
	Out          io.Writer

	// Publish, when set, receives the generated price snapshot
	Publish func(ctx context.Context, quotes []entities.PriceQuote) error
}

// GenerateCommand writes a synthetic scenario directory that the plan and
// valuate commands can read
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// RecipeNode is one item of the generated recipe tree
type RecipeNode struct {
	Item     entities.ItemID
	Level    int
	Children []*RecipeNode
	Parents  []*RecipeNode
	Quantity entities.Quantity // per run of each parent
	IsRoot   bool
	IsShared bool
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Items < 2 {
		return fmt.Errorf("need at least 2 items, got %d", cmd.config.Items)
	}
	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out,
			"🔧 Generating scenario with %d items, max depth %d, %d requirements, %.1fx inventory\n",
			cmd.config.Items, cmd.config.MaxDepth, cmd.config.Requirements, cmd.config.Inventory)
		fmt.Fprintf(cmd.config.Out, "📁 Output directory: %s\n", cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	nodes := cmd.generateRecipeTree()
	recipes := cmd.generateRecipes(nodes)
	prices := cmd.generatePrices(nodes, recipes)

	steps := []struct {
		name  string
		write func() error
	}{
		{yamlcatalog.DefaultCatalogFile, func() error { return cmd.writeCatalog(recipes) }},
		{csv.PricesFile, func() error { return cmd.writePrices(prices) }},
		{csv.BlueprintsFile, func() error { return cmd.writeBlueprints(recipes) }},
		{csv.RequirementsFile, func() error { return cmd.writeRequirements(nodes) }},
		{csv.TransactionsFile, func() error { return cmd.writeInventory(nodes, prices) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.write(); err != nil {
			return fmt.Errorf("failed to generate %s: %w", step.name, err)
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.config.Out, "📦 Generated %s\n", step.name)
		}
	}

	if cmd.config.Publish != nil {
		quotes := make([]entities.PriceQuote, 0, len(prices))
		for _, quote := range prices {
			quotes = append(quotes, quote)
		}
		if err := cmd.config.Publish(ctx, quotes); err != nil {
			return fmt.Errorf("failed to publish prices: %w", err)
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.config.Out, "📡 Published %d prices\n", len(quotes))
		}
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out, "✅ Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

// generateRecipeTree creates a layered tree with shared components and no cycles
func (cmd *GenerateCommand) generateRecipeTree() []*RecipeNode {
	var nodes []*RecipeNode
	nextItem := entities.ItemID(20000)
	newNode := func(level int) *RecipeNode {
		node := &RecipeNode{Item: nextItem, Level: level}
		nextItem++
		nodes = append(nodes, node)
		return node
	}

	numRoots := max(1, cmd.config.Items/50+cmd.rand.Intn(3))
	var roots []*RecipeNode
	for i := 0; i < numRoots && len(nodes) < cmd.config.Items; i++ {
		root := newNode(0)
		root.IsRoot = true
		roots = append(roots, root)
	}

	currentLevel := roots
	for level := 1; level <= cmd.config.MaxDepth && len(nodes) < cmd.config.Items; level++ {
		var nextLevel []*RecipeNode
		for _, parent := range currentLevel {
			numChildren := 2 + cmd.rand.Intn(4)
			for c := 0; c < numChildren && len(nodes) < cmd.config.Items; c++ {
				var child *RecipeNode
				// items from the previous level can be reused without creating cycles
				if level > 1 && cmd.rand.Float64() < 0.2 {
					if candidates := shareable(nodes, level, parent); len(candidates) > 0 {
						child = candidates[cmd.rand.Intn(len(candidates))]
						child.IsShared = true
					}
				}
				if child == nil {
					child = newNode(level)
					nextLevel = append(nextLevel, child)
				}
				if hasChild(parent, child) {
					continue
				}
				parent.Children = append(parent.Children, child)
				child.Parents = append(child.Parents, parent)
				child.Quantity = entities.Quantity(1 + cmd.rand.Intn(5+level*5))
			}
		}
		if len(nextLevel) == 0 {
			break
		}
		currentLevel = nextLevel
	}
	return nodes
}

func shareable(nodes []*RecipeNode, level int, parent *RecipeNode) []*RecipeNode {
	var candidates []*RecipeNode
	for _, node := range nodes {
		if node.Level == level && node != parent && len(node.Parents) < 3 {
			candidates = append(candidates, node)
		}
	}
	return candidates
}

func hasChild(parent, child *RecipeNode) bool {
	for _, existing := range parent.Children {
		if existing == child {
			return true
		}
	}
	return false
}

// generateRecipes gives every non-leaf node one manufacturing recipe
func (cmd *GenerateCommand) generateRecipes(nodes []*RecipeNode) []entities.Recipe {
	var recipes []entities.Recipe
	for _, node := range nodes {
		if len(node.Children) == 0 {
			continue
		}
		recipe := entities.Recipe{
			RecipeID:        recipeIDFor(node.Item),
			Name:            fmt.Sprintf("Item %d Blueprint", node.Item),
			OutputItem:      node.Item,
			OutputQtyPerRun: 1,
			RunTime:         time.Duration(10+cmd.rand.Intn(110)) * time.Minute * time.Duration(3-min(2, node.Level)),
			MaxRunsPerCopy:  int64(10 * (1 + cmd.rand.Intn(30))),
			Activity:        entities.ActivityManufacturing,
		}
		if node.Level > 0 && cmd.rand.Float64() < 0.4 {
			recipe.OutputQtyPerRun = entities.Quantity(10 * (1 + cmd.rand.Intn(10)))
		}
		if cmd.rand.Float64() < 0.5 {
			recipe.CopyTime = recipe.RunTime * 4 / 5
		}
		if node.IsRoot {
			recipe.ResearchMETime = recipe.RunTime * 2
			recipe.ResearchTETime = recipe.RunTime * 2
		}
		for _, child := range node.Children {
			recipe.Inputs = append(recipe.Inputs, entities.RecipeInput{Item: child.Item, QtyPerRun: child.Quantity})
		}
		recipes = append(recipes, recipe)
	}
	return recipes
}

func recipeIDFor(item entities.ItemID) entities.RecipeID {
	return entities.RecipeID(item + 1_000_000)
}

// generatePrices prices raw materials directly and built items around their
// material cost, so some builds beat the market and some do not. A few items
// are left without a market price.
func (cmd *GenerateCommand) generatePrices(nodes []*RecipeNode, recipes []entities.Recipe) map[entities.ItemID]entities.PriceQuote {
	byOutput := make(map[entities.ItemID]entities.Recipe, len(recipes))
	for _, recipe := range recipes {
		byOutput[recipe.OutputItem] = recipe
	}

	unit := make(map[entities.ItemID]decimal.Decimal, len(nodes))
	var price func(node *RecipeNode) decimal.Decimal
	price = func(node *RecipeNode) decimal.Decimal {
		if p, ok := unit[node.Item]; ok {
			return p
		}
		recipe, ok := byOutput[node.Item]
		if !ok {
			p := decimal.NewFromFloat(1 + cmd.rand.Float64()*99).Round(2)
			unit[node.Item] = p
			return p
		}
		materials := decimal.Zero
		for _, child := range node.Children {
			materials = materials.Add(price(child).Mul(decimal.NewFromInt(int64(child.Quantity))))
		}
		markup := decimal.NewFromFloat(0.8 + cmd.rand.Float64()*0.6)
		p := materials.Mul(markup).Div(decimal.NewFromInt(int64(recipe.OutputQtyPerRun))).Round(2)
		unit[node.Item] = p
		return p
	}

	quotes := make(map[entities.ItemID]entities.PriceQuote, len(nodes)+len(recipes))
	for _, node := range nodes {
		p := price(node)
		quote := entities.PriceQuote{Item: node.Item, JobFeeBasis: decimal.NewNullDecimal(p.Mul(decimal.NewFromFloat(0.9)).Round(2))}
		if cmd.rand.Float64() >= 0.05 {
			quote.Market = decimal.NewNullDecimal(p)
		}
		quotes[node.Item] = quote
	}
	for _, recipe := range recipes {
		if cmd.rand.Float64() < 0.5 {
			item := entities.ItemID(recipe.RecipeID)
			quotes[item] = entities.PriceQuote{Item: item, Market: decimal.NewNullDecimal(decimal.NewFromInt(int64(1000 + cmd.rand.Intn(100000))))}
		}
	}
	return quotes
}

func (cmd *GenerateCommand) writeCatalog(recipes []entities.Recipe) error {
	data, err := yamlcatalog.Marshal(recipes)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cmd.config.OutputDir, yamlcatalog.DefaultCatalogFile), data, 0644)
}

func (cmd *GenerateCommand) writePrices(quotes map[entities.ItemID]entities.PriceQuote) error {
	items := make([]entities.ItemID, 0, len(quotes))
	for item := range quotes {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	rows := [][]string{{"item", "market_price", "job_fee_basis_price"}}
	for _, item := range items {
		quote := quotes[item]
		rows = append(rows, []string{itoa(int64(item)), nullMoney(quote.Market), nullMoney(quote.JobFeeBasis)})
	}
	return cmd.writeRows(csv.PricesFile, rows)
}

func (cmd *GenerateCommand) writeBlueprints(recipes []entities.Recipe) error {
	rows := [][]string{{"recipe_id", "me_percent", "te_percent", "is_copy", "runs"}}
	for _, recipe := range recipes {
		if cmd.rand.Float64() >= cmd.config.OwnedRatio {
			continue
		}
		isCopy := cmd.rand.Float64() < 0.5
		runs := ""
		if isCopy {
			runs = itoa(int64(1 + cmd.rand.Intn(int(recipe.MaxRunsPerCopy))))
		}
		rows = append(rows, []string{
			itoa(int64(recipe.RecipeID)),
			itoa(int64(cmd.rand.Intn(11))),
			itoa(int64(2 * cmd.rand.Intn(11))),
			strconv.FormatBool(isCopy),
			runs,
		})
	}
	return cmd.writeRows(csv.BlueprintsFile, rows)
}

func (cmd *GenerateCommand) writeRequirements(nodes []*RecipeNode) error {
	var roots []*RecipeNode
	for _, node := range nodes {
		if node.IsRoot {
			roots = append(roots, node)
		}
	}

	rows := [][]string{{"item", "quantity"}}
	for i := 0; i < cmd.config.Requirements; i++ {
		root := roots[cmd.rand.Intn(len(roots))]
		rows = append(rows, []string{itoa(int64(root.Item)), itoa(int64(1 + cmd.rand.Intn(5)))})
	}
	return cmd.writeRows(csv.RequirementsFile, rows)
}

// writeInventory buys raw materials over the past year and records the
// resulting stock, a little of which has since been used up
func (cmd *GenerateCommand) writeInventory(nodes []*RecipeNode, quotes map[entities.ItemID]entities.PriceQuote) error {
	counts := make(map[entities.ItemID]int64)
	for _, node := range nodes {
		if node.IsRoot {
			explode(node, 1, counts)
		}
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	txRows := [][]string{{"item", "quantity", "is_buy", "unit_price", "timestamp", "reference_id"}}
	stockRows := [][]string{{"item", "quantity"}}
	reference := int64(1)

	for _, node := range nodes {
		needed := counts[node.Item]
		bought := int64(float64(needed) * cmd.config.Inventory)
		if len(node.Children) > 0 || bought <= 0 {
			continue
		}

		market := decimal.NewFromInt(10)
		if quote := quotes[node.Item]; quote.Market.Valid {
			market = quote.Market.Decimal
		}

		var stocked int64
		lots := 1 + cmd.rand.Intn(3)
		for lot := 0; lot < lots; lot++ {
			qty := max(1, bought/int64(1+cmd.rand.Intn(3)))
			paid := market.Mul(decimal.NewFromFloat(0.7 + cmd.rand.Float64()*0.5)).Round(2)
			at := base.AddDate(0, 0, -cmd.rand.Intn(365))
			txRows = append(txRows, []string{itoa(int64(node.Item)), itoa(qty), "true", paid.String(), at.Format(time.RFC3339), itoa(reference)})
			reference++
			stocked += qty
		}
		stockRows = append(stockRows, []string{itoa(int64(node.Item)), itoa(stocked - stocked/10)})
	}

	if err := cmd.writeRows(csv.TransactionsFile, txRows); err != nil {
		return err
	}
	return cmd.writeRows(csv.OnHandFile, stockRows)
}

// explode accumulates how many of each item one root needs
func explode(node *RecipeNode, quantity int64, counts map[entities.ItemID]int64) {
	counts[node.Item] += quantity
	for _, child := range node.Children {
		explode(child, quantity*int64(child.Quantity), counts)
	}
}

func (cmd *GenerateCommand) writeRows(name string, rows [][]string) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	w := encodingcsv.NewWriter(file)
	return w.WriteAll(rows)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func nullMoney(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
