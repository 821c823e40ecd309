package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

// Scenario file names inside a scenario directory
const (
	TransactionsFile = "transactions.csv"
	JobsFile         = "jobs.csv"
	OnHandFile       = "on_hand.csv"
	PricesFile       = "prices.csv"
	BlueprintsFile   = "blueprints.csv"
	RequirementsFile = "requirements.csv"
)

// Loader handles loading owner history and price snapshots from CSV files
type Loader struct {
	logger logr.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithLogger sets the logger that reports skipped rows
func WithLogger(logger logr.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a new CSV loader
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: logr.Discard()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Scenario is everything a scenario directory provides besides recipes
type Scenario struct {
	Transactions []entities.Transaction
	Production   []entities.ProductionRecord
	OnHand       map[entities.ItemID]entities.Quantity
	Prices       []entities.PriceQuote
	Blueprints   []entities.BlueprintOwnership
	Requirements []entities.MaterialRequirement
}

// LoadScenario loads every known file from a directory. Missing files are
// treated as empty; unreadable files and header mismatches are errors.
// Malformed transaction and job rows are skipped.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	scenario := &Scenario{OnHand: make(map[entities.ItemID]entities.Quantity)}

	steps := []struct {
		file string
		load func(string) error
	}{
		{TransactionsFile, func(path string) (err error) {
			scenario.Transactions, err = l.LoadTransactions(path)
			return err
		}},
		{JobsFile, func(path string) (err error) {
			scenario.Production, err = l.LoadProductionRecords(path)
			return err
		}},
		{OnHandFile, func(path string) (err error) {
			scenario.OnHand, err = l.LoadOnHand(path)
			return err
		}},
		{PricesFile, func(path string) (err error) {
			scenario.Prices, err = l.LoadPrices(path)
			return err
		}},
		{BlueprintsFile, func(path string) (err error) {
			scenario.Blueprints, err = l.LoadBlueprints(path)
			return err
		}},
		{RequirementsFile, func(path string) (err error) {
			scenario.Requirements, err = l.LoadRequirements(path)
			return err
		}},
	}

	for _, step := range steps {
		path := filepath.Join(dir, step.file)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := step.load(path); err != nil {
			return nil, err
		}
	}

	return scenario, nil
}

// LoadTransactions loads wallet transactions from a CSV file. Rows that do
// not parse are logged and skipped.
func (l *Loader) LoadTransactions(filename string) ([]entities.Transaction, error) {
	expectedHeader := []string{"item", "quantity", "is_buy", "unit_price", "timestamp", "reference_id"}
	records, err := readRecords(filename, "transactions", expectedHeader)
	if err != nil {
		return nil, err
	}

	transactions := make([]entities.Transaction, 0, len(records))
	for i, record := range records {
		tx, err := parseTransaction(record)
		if err != nil {
			l.logger.V(logging.DEBUG).Info("skipping malformed transaction row",
				"file", filename, "row", i+2, "error", err.Error())
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// LoadProductionRecords loads industry jobs from a CSV file. Rows that do
// not parse, including unknown activities, are logged and skipped.
func (l *Loader) LoadProductionRecords(filename string) ([]entities.ProductionRecord, error) {
	expectedHeader := []string{
		"item_produced", "quantity_produced", "unit_cost", "job_cost", "recipe_id",
		"runs", "activity", "status", "completed_at", "reference_id",
	}
	records, err := readRecords(filename, "jobs", expectedHeader)
	if err != nil {
		return nil, err
	}

	production := make([]entities.ProductionRecord, 0, len(records))
	for i, record := range records {
		job, err := parseProductionRecord(record)
		if err != nil {
			l.logger.V(logging.DEBUG).Info("skipping malformed job row",
				"file", filename, "row", i+2, "error", err.Error())
			continue
		}
		production = append(production, job)
	}
	return production, nil
}

// LoadOnHand loads current on-hand quantities from a CSV file. Repeated items are summed.
func (l *Loader) LoadOnHand(filename string) (map[entities.ItemID]entities.Quantity, error) {
	records, err := readRecords(filename, "on-hand", []string{"item", "quantity"})
	if err != nil {
		return nil, err
	}

	onHand := make(map[entities.ItemID]entities.Quantity, len(records))
	for i, record := range records {
		item, err := parseItemID(record[0])
		if err != nil {
			return nil, fmt.Errorf("on-hand CSV row %d: %w", i+2, err)
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("on-hand CSV row %d: invalid quantity: %s", i+2, record[1])
		}
		onHand[item] += entities.Quantity(quantity)
	}
	return onHand, nil
}

// LoadPrices loads a price snapshot from a CSV file
func (l *Loader) LoadPrices(filename string) ([]entities.PriceQuote, error) {
	records, err := readRecords(filename, "prices", []string{"item", "market_price", "job_fee_basis_price"})
	if err != nil {
		return nil, err
	}

	quotes := make([]entities.PriceQuote, 0, len(records))
	for i, record := range records {
		item, err := parseItemID(record[0])
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: %w", i+2, err)
		}
		market, err := parseMoney(record[1])
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: invalid market_price: %w", i+2, err)
		}
		basis, err := parseMoney(record[2])
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: invalid job_fee_basis_price: %w", i+2, err)
		}
		quotes = append(quotes, entities.NewPriceQuote(item, market, basis))
	}
	return quotes, nil
}

// LoadBlueprints loads blueprint ownership hints from a CSV file
func (l *Loader) LoadBlueprints(filename string) ([]entities.BlueprintOwnership, error) {
	records, err := readRecords(filename, "blueprints", []string{"recipe_id", "me_percent", "te_percent", "is_copy", "runs"})
	if err != nil {
		return nil, err
	}

	blueprints := make([]entities.BlueprintOwnership, 0, len(records))
	for i, record := range records {
		blueprint, err := parseBlueprint(record)
		if err != nil {
			return nil, fmt.Errorf("blueprints CSV row %d: %w", i+2, err)
		}
		blueprints = append(blueprints, blueprint)
	}
	return blueprints, nil
}

// LoadRequirements loads the material requirements to plan from a CSV file
func (l *Loader) LoadRequirements(filename string) ([]entities.MaterialRequirement, error) {
	records, err := readRecords(filename, "requirements", []string{"item", "quantity"})
	if err != nil {
		return nil, err
	}

	requirements := make([]entities.MaterialRequirement, 0, len(records))
	for i, record := range records {
		item, err := parseItemID(record[0])
		if err != nil {
			return nil, fmt.Errorf("requirements CSV row %d: %w", i+2, err)
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("requirements CSV row %d: invalid quantity: %s", i+2, record[1])
		}
		requirement, err := entities.NewMaterialRequirement(item, entities.Quantity(quantity))
		if err != nil {
			return nil, fmt.Errorf("requirements CSV row %d: %w", i+2, err)
		}
		requirements = append(requirements, *requirement)
	}
	return requirements, nil
}

// Helper functions for parsing CSV records

// readRecords opens a CSV file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(expectedHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseTransaction(record []string) (entities.Transaction, error) {
	item, err := parseItemID(record[0])
	if err != nil {
		return entities.Transaction{}, err
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return entities.Transaction{}, fmt.Errorf("invalid quantity: %s", record[1])
	}

	isBuy, err := parseOptionalBool(record[2])
	if err != nil {
		return entities.Transaction{}, fmt.Errorf("invalid is_buy: %s", record[2])
	}

	unitPrice, err := parseMoney(record[3])
	if err != nil {
		return entities.Transaction{}, fmt.Errorf("invalid unit_price: %w", err)
	}

	timestamp, err := parseOptionalTime(record[4])
	if err != nil {
		return entities.Transaction{}, err
	}

	referenceID, err := parseOptionalInt(record[5])
	if err != nil {
		return entities.Transaction{}, fmt.Errorf("invalid reference_id: %s", record[5])
	}

	return entities.Transaction{
		Item:        item,
		Quantity:    entities.Quantity(quantity),
		IsBuy:       isBuy,
		UnitPrice:   unitPrice,
		Timestamp:   timestamp,
		ReferenceID: referenceID,
	}, nil
}

func parseProductionRecord(record []string) (entities.ProductionRecord, error) {
	item, err := parseItemID(record[0])
	if err != nil {
		return entities.ProductionRecord{}, err
	}

	quantity, err := parseOptionalInt(record[1])
	if err != nil {
		return entities.ProductionRecord{}, fmt.Errorf("invalid quantity_produced: %s", record[1])
	}

	unitCost, err := parseMoney(record[2])
	if err != nil {
		return entities.ProductionRecord{}, fmt.Errorf("invalid unit_cost: %w", err)
	}

	jobCost, err := parseMoney(record[3])
	if err != nil {
		return entities.ProductionRecord{}, fmt.Errorf("invalid job_cost: %w", err)
	}

	recipeID, err := parseOptionalInt(record[4])
	if err != nil {
		return entities.ProductionRecord{}, fmt.Errorf("invalid recipe_id: %s", record[4])
	}

	runs, err := parseOptionalInt(record[5])
	if err != nil {
		return entities.ProductionRecord{}, fmt.Errorf("invalid runs: %s", record[5])
	}

	activity, err := entities.ParseActivity(record[6])
	if err != nil {
		return entities.ProductionRecord{}, err
	}

	completedAt, err := parseOptionalTime(record[8])
	if err != nil {
		return entities.ProductionRecord{}, err
	}

	referenceID, err := parseOptionalInt(record[9])
	if err != nil {
		return entities.ProductionRecord{}, fmt.Errorf("invalid reference_id: %s", record[9])
	}

	return entities.ProductionRecord{
		ItemProduced:     item,
		QuantityProduced: entities.Quantity(quantity),
		UnitCost:         unitCost,
		JobCost:          jobCost,
		RecipeID:         entities.RecipeID(recipeID),
		Runs:             runs,
		Activity:         activity,
		Status:           strings.TrimSpace(record[7]),
		CompletedAt:      completedAt,
		ReferenceID:      referenceID,
	}, nil
}

func parseBlueprint(record []string) (entities.BlueprintOwnership, error) {
	recipeID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil || recipeID <= 0 {
		return entities.BlueprintOwnership{}, fmt.Errorf("invalid recipe_id: %s", record[0])
	}

	me, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return entities.BlueprintOwnership{}, fmt.Errorf("invalid me_percent: %s", record[1])
	}

	te, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return entities.BlueprintOwnership{}, fmt.Errorf("invalid te_percent: %s", record[2])
	}

	isCopy, err := parseOptionalBool(record[3])
	if err != nil {
		return entities.BlueprintOwnership{}, fmt.Errorf("invalid is_copy: %s", record[3])
	}

	blueprint := entities.BlueprintOwnership{
		RecipeID:  entities.RecipeID(recipeID),
		MEPercent: me,
		TEPercent: te,
		IsCopy:    isCopy != nil && *isCopy,
	}

	if strings.TrimSpace(record[4]) != "" {
		runs, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if err != nil {
			return entities.BlueprintOwnership{}, fmt.Errorf("invalid runs: %s", record[4])
		}
		blueprint.Runs = &runs
	}

	return blueprint, nil
}

func parseItemID(s string) (entities.ItemID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id: %s", s)
	}
	return entities.ItemID(id), nil
}

// parseMoney parses an optional decimal amount; empty cells are null
func parseMoney(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseOptionalInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseOptionalBool(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseOptionalTime accepts RFC 3339 timestamps or YYYY-MM-DD dates
func parseOptionalTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp format: %s (expected RFC 3339 or YYYY-MM-DD)", s)
	}
	return &t, nil
}
