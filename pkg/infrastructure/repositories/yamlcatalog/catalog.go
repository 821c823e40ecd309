package yamlcatalog

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/repositories/memory"
)

// DefaultCatalogFile is the recipe file name inside a scenario directory
const DefaultCatalogFile = "recipes.yaml"

// CatalogFile is the on-disk layout of a recipe catalog
type CatalogFile struct {
	Recipes []RecipeEntry `yaml:"recipes"`
}

// RecipeEntry is one recipe as written in YAML. Durations use Go syntax ("1h30m").
type RecipeEntry struct {
	RecipeID        int64        `yaml:"recipe_id"`
	Name            string       `yaml:"name,omitempty"`
	OutputItem      int64        `yaml:"output_item"`
	OutputQtyPerRun int64        `yaml:"output_qty_per_run"`
	Activity        string       `yaml:"activity,omitempty"`
	RunTime         string       `yaml:"run_time,omitempty"`
	MaxRunsPerCopy  int64        `yaml:"max_runs_per_copy,omitempty"`
	CopyTime        string       `yaml:"copy_time,omitempty"`
	ResearchMETime  string       `yaml:"research_me_time,omitempty"`
	ResearchTETime  string       `yaml:"research_te_time,omitempty"`
	Inputs          []InputEntry `yaml:"inputs"`
}

// InputEntry is one recipe input as written in YAML
type InputEntry struct {
	Item      int64 `yaml:"item"`
	QtyPerRun int64 `yaml:"qty_per_run"`
}

// Validate checks for invalid recipe values
func (e *RecipeEntry) Validate() error {
	if e.RecipeID <= 0 {
		return fmt.Errorf("recipe_id must be positive, got %d", e.RecipeID)
	}
	if e.OutputItem <= 0 {
		return fmt.Errorf("output_item must be positive, got %d", e.OutputItem)
	}
	if e.MaxRunsPerCopy < 0 {
		return fmt.Errorf("max_runs_per_copy must be >= 0, got %d", e.MaxRunsPerCopy)
	}
	for _, input := range e.Inputs {
		if input.Item <= 0 {
			return fmt.Errorf("input item must be positive, got %d", input.Item)
		}
	}
	return nil
}

// ToRecipe converts the entry into a domain recipe
func (e *RecipeEntry) ToRecipe() (entities.Recipe, error) {
	activity, err := entities.ParseActivity(e.Activity)
	if err != nil {
		return entities.Recipe{}, err
	}

	durations := make([]time.Duration, 4)
	for i, raw := range []string{e.RunTime, e.CopyTime, e.ResearchMETime, e.ResearchTETime} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return entities.Recipe{}, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		if d < 0 {
			return entities.Recipe{}, fmt.Errorf("duration cannot be negative, got %s", raw)
		}
		durations[i] = d
	}

	inputs := make([]entities.RecipeInput, 0, len(e.Inputs))
	for _, input := range e.Inputs {
		inputs = append(inputs, entities.RecipeInput{
			Item:      entities.ItemID(input.Item),
			QtyPerRun: entities.Quantity(input.QtyPerRun),
		})
	}

	return entities.Recipe{
		RecipeID:        entities.RecipeID(e.RecipeID),
		Name:            e.Name,
		OutputItem:      entities.ItemID(e.OutputItem),
		OutputQtyPerRun: entities.Quantity(e.OutputQtyPerRun),
		Inputs:          inputs,
		RunTime:         durations[0],
		MaxRunsPerCopy:  e.MaxRunsPerCopy,
		CopyTime:        durations[1],
		ResearchMETime:  durations[2],
		ResearchTETime:  durations[3],
		Activity:        activity,
	}, nil
}

// Parse decodes recipes from YAML. Invalid entries are logged and skipped;
// for duplicate recipe ids the first entry wins.
func Parse(data []byte, logger logr.Logger) ([]entities.Recipe, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recipe catalog: %w", err)
	}

	recipes := make([]entities.Recipe, 0, len(file.Recipes))
	seen := make(map[int64]bool, len(file.Recipes))
	for i, entry := range file.Recipes {
		if err := entry.Validate(); err != nil {
			logger.Info("Invalid recipe entry, skipping", "index", i, "error", err)
			continue
		}
		if seen[entry.RecipeID] {
			logger.Info("Duplicate recipe_id in catalog - first entry wins", "recipe_id", entry.RecipeID)
			continue
		}
		recipe, err := entry.ToRecipe()
		if err != nil {
			logger.Info("Invalid recipe entry, skipping", "recipe_id", entry.RecipeID, "error", err)
			continue
		}
		seen[entry.RecipeID] = true
		recipes = append(recipes, recipe)
	}

	return recipes, nil
}

// LoadCatalog reads a YAML recipe file into an in-memory catalog
func LoadCatalog(path string, logger logr.Logger) (*memory.RecipeCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe catalog %s: %w", path, err)
	}

	recipes, err := Parse(data, logger)
	if err != nil {
		return nil, err
	}

	catalog := memory.NewRecipeCatalog(len(recipes))
	for _, recipe := range recipes {
		if err := catalog.AddRecipe(recipe); err != nil {
			return nil, fmt.Errorf("failed to load recipe catalog %s: %w", path, err)
		}
	}
	return catalog, nil
}

// Marshal renders recipes back into the catalog file layout
func Marshal(recipes []entities.Recipe) ([]byte, error) {
	file := CatalogFile{Recipes: make([]RecipeEntry, 0, len(recipes))}
	for _, recipe := range recipes {
		entry := RecipeEntry{
			RecipeID:        int64(recipe.RecipeID),
			Name:            recipe.Name,
			OutputItem:      int64(recipe.OutputItem),
			OutputQtyPerRun: int64(recipe.OutputQtyPerRun),
			Activity:        recipe.Activity.String(),
			RunTime:         formatDuration(recipe.RunTime),
			MaxRunsPerCopy:  recipe.MaxRunsPerCopy,
			CopyTime:        formatDuration(recipe.CopyTime),
			ResearchMETime:  formatDuration(recipe.ResearchMETime),
			ResearchTETime:  formatDuration(recipe.ResearchTETime),
		}
		for _, input := range recipe.Inputs {
			entry.Inputs = append(entry.Inputs, InputEntry{Item: int64(input.Item), QtyPerRun: int64(input.QtyPerRun)})
		}
		file.Recipes = append(file.Recipes, entry)
	}
	return yaml.Marshal(&file)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
