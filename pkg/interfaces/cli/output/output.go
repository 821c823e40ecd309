package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/application/services/orchestration"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Writer    io.Writer
	Verbose   bool
	Gantt     bool
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// GeneratePlan renders a planning result in the configured format
func GeneratePlan(result *orchestration.PlanningResult, config Config) error {
	var err error
	switch config.Format {
	case "text":
		err = generateTextPlan(result, config)
	case "json":
		err = writeJSON(result, "plan.json", config)
	case "csv":
		err = writeCSV(planRows(result.Plan.Roots), "plan_nodes.csv", config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
	if err != nil {
		return err
	}

	if config.Gantt {
		return writeGantt(result.Plan.Roots, config)
	}
	return nil
}

// GenerateValuation renders a valuation in the configured format
func GenerateValuation(result *dto.ValuationResult, config Config) error {
	switch config.Format {
	case "text":
		return generateTextValuation(result, config)
	case "json":
		return writeJSON(result, "valuation.json", config)
	case "csv":
		return writeCSV(valuationRows(result), "valuation.csv", config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// writeJSON prints to the writer, or saves a file when an output directory is set
func writeJSON(v interface{}, filename string, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	path, err := outputPath(config, filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", path)
	}
	return nil
}

func writeCSV(rows [][]string, filename string, config Config) error {
	out := config.writer()
	var file *os.File
	if config.OutputDir != "" {
		path, err := outputPath(config, filename)
		if err != nil {
			return err
		}
		file, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer file.Close()
		out = file
	}

	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	if file != nil && config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to: %s\n", file.Name())
	}
	return nil
}

func writeGantt(roots []*entities.PlanNode, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for the build schedule chart")
	}
	path, err := outputPath(config, "build_schedule.svg")
	if err != nil {
		return err
	}
	svg := NewGanttChart().GenerateSVG(Schedule(roots))
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write build schedule: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 Build schedule saved to: %s\n", path)
	}
	return nil
}

func outputPath(config Config, filename string) (string, error) {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(config.OutputDir, filename), nil
}

var planHeader = []string{
	"root", "depth", "item", "quantity", "recommendation", "reason",
	"buy_cost", "build_cost", "effective_cost", "effective_time_seconds", "savings",
	"stock_used", "buy_now",
}

// planRows flattens every tree depth-first, parents before children
func planRows(roots []*entities.PlanNode) [][]string {
	rows := [][]string{planHeader}
	for i, root := range roots {
		root.Walk(func(node *entities.PlanNode) {
			var buildCost decimal.NullDecimal
			if node.Build != nil {
				buildCost = node.Build.TotalBuildCost
			}
			var used, buyNow entities.Quantity
			if node.Inventory != nil {
				used, buyNow = node.Inventory.Used, node.Inventory.BuyNowQty
			}
			rows = append(rows, []string{
				strconv.Itoa(i),
				strconv.Itoa(node.Depth),
				strconv.FormatInt(int64(node.Item), 10),
				strconv.FormatInt(int64(node.RequiredQuantity), 10),
				node.Recommendation.String(),
				node.Reason.String(),
				formatMoney(node.BuyCost),
				formatMoney(buildCost),
				formatMoney(node.EffectiveCost),
				formatSeconds(node.EffectiveTime),
				formatMoney(node.Savings),
				strconv.FormatInt(int64(used), 10),
				strconv.FormatInt(int64(buyNow), 10),
			})
		})
	}
	return rows
}

func valuationRows(result *dto.ValuationResult) [][]string {
	rows := [][]string{{"item", "on_hand", "source", "unit_cost", "reference_type", "reference_id", "acquired_at"}}
	for _, record := range result.Records {
		acquired := ""
		if record.AcquiredAt != nil {
			acquired = record.AcquiredAt.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(record.Item), 10),
			strconv.FormatInt(int64(result.OnHand[record.Item]), 10),
			record.Source.String(),
			formatMoney(record.UnitCost),
			string(record.ReferenceType),
			strconv.FormatInt(record.ReferenceID, 10),
			acquired,
		})
	}
	return rows
}

// formatMoney renders unknown amounts as an empty field
func formatMoney(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}

func formatSeconds(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
