package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/application/dto"
	"github.com/vsinha/industry-planner/pkg/application/services/orchestration"
	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

func money(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func durationPtr(d time.Duration) *time.Duration { return &d }

// samplePlan is a product built from one bought and one built input
func samplePlan() *orchestration.PlanningResult {
	bought := &entities.PlanNode{
		Item: 34, RequiredQuantity: 10, Depth: 1,
		Recommendation: entities.TakeThenBuy,
		Reason:         entities.ReasonNoBlueprintFound,
		BuyCost:        money(40), EffectiveCost: money(40), EffectiveTime: durationPtr(0),
		Inventory: &entities.InventoryUsage{OnHand: 4, Used: 4, BuyNowQty: 6},
	}
	component := &entities.PlanNode{
		Kind: entities.ExpandedNode, Item: 11, RequiredQuantity: 2, Depth: 1,
		Recommendation: entities.Build,
		BuyCost:        money(90), EffectiveCost: money(50), EffectiveTime: durationPtr(2 * time.Hour),
		Build: &entities.BuildDetail{
			RecipeID: 12, RunsNeeded: 2, TotalBuildCost: money(50),
			ManufacturingTime: time.Hour,
			CopyOverhead:      &entities.CopyOverhead{CopyTime: time.Hour}, CopyOverheadIncluded: true,
		},
	}
	root := &entities.PlanNode{
		Kind: entities.ExpandedNode, Item: 587, RequiredQuantity: 1,
		Recommendation: entities.Build,
		BuyCost:        money(200), EffectiveCost: money(100), EffectiveTime: durationPtr(5 * time.Hour),
		Savings:        money(100),
		Build: &entities.BuildDetail{
			RecipeID: 691, RunsNeeded: 1, TotalBuildCost: money(100),
			ManufacturingTime: 3 * time.Hour,
		},
		Children: []*entities.PlanNode{bought, component},
	}

	return &orchestration.PlanningResult{
		Owner: 7,
		Plan: &dto.PlanResult{
			RequestID:          "req-1",
			Roots:              []*entities.PlanNode{root},
			TotalEffectiveCost: decimal.NewFromInt(100),
			TotalEffectiveTime: 5 * time.Hour,
			NodeCount:          3,
		},
		CriticalPaths: []*entities.CriticalPathAnalysis{{
			RootItem: 587,
			CriticalPath: entities.CriticalPath{
				TotalTime: 5 * time.Hour, PathLength: 2, Path: []entities.ItemID{587, 11}, BottleneckItem: 587,
			},
			TopPaths: []entities.CriticalPath{{
				TotalTime: 5 * time.Hour, PathLength: 2, Path: []entities.ItemID{587, 11}, BottleneckItem: 587,
			}},
		}},
	}
}

func TestGeneratePlan_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := GeneratePlan(samplePlan(), Config{Format: "text", Writer: &buf}); err != nil {
		t.Fatalf("Failed to render plan: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"req-1", "1 × 587", "BUILD", "TAKE_THEN_BUY", "no_blueprint_found", "[stock 4, buy 6]", "└─ ", "Critical path for 587"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected text output to contain %q:\n%s", want, out)
		}
	}
}

func TestGeneratePlan_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := GeneratePlan(samplePlan(), Config{Format: "csv", Writer: &buf}); err != nil {
		t.Fatalf("Failed to render plan: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header and 3 nodes, got %d rows", len(rows))
	}
	if rows[1][2] != "587" || rows[2][2] != "34" || rows[3][2] != "11" {
		t.Errorf("Expected parents before children, got %v %v %v", rows[1][2], rows[2][2], rows[3][2])
	}
	if rows[1][7] != "100.00" || rows[1][9] != "18000" {
		t.Errorf("Expected build cost 100.00 and 18000 seconds, got %s and %s", rows[1][7], rows[1][9])
	}
	if rows[2][7] != "" {
		t.Errorf("Expected empty build cost for a bought node, got %q", rows[2][7])
	}
}

func TestGeneratePlan_JSONAndGanttFiles(t *testing.T) {
	dir := t.TempDir()
	if err := GeneratePlan(samplePlan(), Config{Format: "json", OutputDir: dir, Gantt: true}); err != nil {
		t.Fatalf("Failed to render plan: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "plan.json"))
	if err != nil {
		t.Fatalf("Expected plan.json: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !strings.Contains(string(data), `"recommendation": "take_then_buy"`) {
		t.Error("Expected recommendations to be rendered as names")
	}

	svg, err := os.ReadFile(filepath.Join(dir, "build_schedule.svg"))
	if err != nil {
		t.Fatalf("Expected build_schedule.svg: %v", err)
	}
	if !strings.Contains(string(svg), "Build Schedule") {
		t.Error("Expected chart title")
	}
}

func TestGeneratePlan_UnsupportedFormat(t *testing.T) {
	if err := GeneratePlan(samplePlan(), Config{Format: "xml"}); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if err := GeneratePlan(samplePlan(), Config{Format: "text", Writer: &bytes.Buffer{}, Gantt: true}); err == nil {
		t.Error("Expected error for a chart without an output directory")
	}
}

func TestSchedule_InputsBeforeConsumers(t *testing.T) {
	jobs := Schedule(samplePlan().Plan.Roots)

	if len(jobs) != 3 {
		t.Fatalf("Expected copy, component and root jobs, got %d", len(jobs))
	}
	expected := []struct {
		item       entities.ItemID
		kind       JobKind
		start, end time.Duration
	}{
		{11, JobCopy, 0, time.Hour},
		{11, JobManufacturing, time.Hour, 2 * time.Hour},
		{587, JobManufacturing, 2 * time.Hour, 5 * time.Hour},
	}
	for i, want := range expected {
		got := jobs[i]
		if got.Item != want.item || got.Kind != want.kind || got.Start != want.start || got.End != want.end {
			t.Errorf("Job %d: expected %+v, got %+v", i, want, got)
		}
	}

	if svg := NewGanttChart().GenerateSVG(nil); !strings.Contains(svg, "No Build Jobs") {
		t.Error("Expected empty chart message")
	}
}

func TestGenerateValuation(t *testing.T) {
	acquired := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	valuation := &dto.ValuationResult{
		Owner: 7,
		Records: []entities.CostBasisRecord{
			{Item: 34, Source: entities.CostBasisMarketBuy, UnitCost: money(4), ReferenceType: entities.ReferenceWalletTransaction, ReferenceID: 9, AcquiredAt: &acquired},
			{Item: 35, Source: entities.CostBasisUnknown},
		},
		OnHand:       map[entities.ItemID]entities.Quantity{34: 100, 35: 5},
		TotalValue:   decimal.NewFromInt(400),
		UnknownItems: 1,
	}

	var text bytes.Buffer
	if err := GenerateValuation(valuation, Config{Format: "text", Writer: &text}); err != nil {
		t.Fatalf("Failed to render valuation: %v", err)
	}
	for _, want := range []string{"400.00", "wallet_transaction:9", "unknown"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Expected valuation to contain %q:\n%s", want, text.String())
		}
	}

	var buf bytes.Buffer
	if err := GenerateValuation(valuation, Config{Format: "csv", Writer: &buf}); err != nil {
		t.Fatalf("Failed to render valuation: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "100" || rows[1][6] != "2026-02-01T00:00:00Z" || rows[2][3] != "" {
		t.Errorf("Unexpected valuation rows: %v", rows)
	}
}
