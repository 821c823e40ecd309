package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/application/services/orchestration"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	recommendationStyles = map[entities.Recommendation]lipgloss.Style{
		entities.Build:       lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		entities.Buy:         lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
		entities.Take:        lipgloss.NewStyle().Foreground(lipgloss.Color("#B388FF")),
		entities.TakeThenBuy: lipgloss.NewStyle().Foreground(lipgloss.Color("#00BCD4")),
		entities.Unresolved:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
)

func generateTextPlan(result *orchestration.PlanningResult, config Config) error {
	plan := result.Plan
	out := config.writer()

	summary := []string{
		titleStyle.Render("📊 Build-vs-Buy Plan"),
		fmt.Sprintf("Request:        %s", plan.RequestID),
		fmt.Sprintf("Roots:          %d (%d nodes)", len(plan.Roots), plan.NodeCount),
		fmt.Sprintf("Effective cost: %s", plan.TotalEffectiveCost.StringFixed(2)),
		fmt.Sprintf("Effective time: %s", formatDuration(plan.TotalEffectiveTime)),
	}
	if plan.UnknownCostRoots > 0 {
		summary = append(summary, warnStyle.Render(fmt.Sprintf("Unknown cost:   %d roots", plan.UnknownCostRoots)))
	}
	if config.Verbose {
		summary = append(summary, mutedStyle.Render(fmt.Sprintf("Cache: %d hits, %d misses, planned in %s",
			plan.CacheHits, plan.CacheMisses, result.Elapsed)))
	}
	fmt.Fprintln(out, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, summary...)))

	for _, warning := range plan.Warnings {
		fmt.Fprintln(out, warnStyle.Render("⚠️  "+warning))
	}

	for _, root := range plan.Roots {
		fmt.Fprintln(out)
		fmt.Fprint(out, RenderTree(root))
	}

	for _, analysis := range result.CriticalPaths {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("🔍 Critical path for %d", analysis.RootItem)))
		fmt.Fprintln(out, analysis.GetCriticalPathSummary())
		for i, path := range analysis.TopPaths {
			fmt.Fprintf(out, "  %d. %s %s\n", i+1, path.GetPathSummary(), mutedStyle.Render(formatPath(path.Path)))
		}
	}
	return nil
}

// RenderTree draws one plan tree with box-drawing connectors
func RenderTree(root *entities.PlanNode) string {
	var b strings.Builder
	renderNode(&b, root, "", "", true)
	return b.String()
}

func renderNode(b *strings.Builder, node *entities.PlanNode, prefix, connector string, last bool) {
	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(describeNode(node))
	b.WriteString("\n")

	childPrefix := prefix
	if connector != "" {
		if last {
			childPrefix += "   "
		} else {
			childPrefix += "│  "
		}
	}
	for i, child := range node.Children {
		isLast := i == len(node.Children)-1
		next := "├─ "
		if isLast {
			next = "└─ "
		}
		renderNode(b, child, childPrefix, next, isLast)
	}
}

func describeNode(node *entities.PlanNode) string {
	style, ok := recommendationStyles[node.Recommendation]
	if !ok {
		style = lipgloss.NewStyle()
	}

	parts := []string{
		fmt.Sprintf("%d × %d", node.RequiredQuantity, node.Item),
		style.Render(strings.ToUpper(node.Recommendation.String())),
		"cost " + moneyOrUnknown(node.EffectiveCost),
	}
	if node.EffectiveTime != nil && *node.EffectiveTime > 0 {
		parts = append(parts, "time "+formatDuration(*node.EffectiveTime))
	}
	if node.Build != nil {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("[%d runs, build %s vs buy %s]",
			node.Build.RunsNeeded, moneyOrUnknown(node.Build.TotalBuildCost), moneyOrUnknown(node.BuyCost))))
	}
	if node.Inventory != nil && node.Inventory.Used > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("[stock %d, buy %d]", node.Inventory.Used, node.Inventory.BuyNowQty)))
	}
	if node.Reason != entities.ReasonNone {
		parts = append(parts, warnStyle.Render(node.Reason.String()))
	}
	return strings.Join(parts, "  ")
}

func generateTextValuation(result *dto.ValuationResult, config Config) error {
	out := config.writer()

	fmt.Fprintln(out, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("💰 Cost Basis for owner %d", result.Owner)),
		fmt.Sprintf("Items:       %d", len(result.Records)),
		fmt.Sprintf("Total value: %s", result.TotalValue.StringFixed(2)),
		fmt.Sprintf("Unknown:     %d", result.UnknownItems),
	)))

	fmt.Fprintf(out, "%-12s %-10s %-18s %-14s %-20s\n", "Item", "On Hand", "Source", "Unit Cost", "Reference")
	fmt.Fprintf(out, "%-12s %-10s %-18s %-14s %-20s\n",
		"------------", "----------", "------------------", "--------------", "--------------------")
	for _, record := range result.Records {
		reference := ""
		if record.ReferenceType != entities.ReferenceNone {
			reference = fmt.Sprintf("%s:%d", record.ReferenceType, record.ReferenceID)
		}
		fmt.Fprintf(out, "%-12d %-10d %-18s %-14s %-20s\n",
			record.Item,
			result.OnHand[record.Item],
			record.Source,
			moneyOrUnknown(record.UnitCost),
			reference)
	}
	return nil
}

func moneyOrUnknown(v decimal.NullDecimal) string {
	if !v.Valid {
		return "unknown"
	}
	return v.Decimal.StringFixed(2)
}

func formatPath(path []entities.ItemID) string {
	parts := make([]string, len(path))
	for i, item := range path {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, " → ")
}
