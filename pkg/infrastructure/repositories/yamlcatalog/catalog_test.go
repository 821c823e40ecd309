package yamlcatalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

const sampleCatalog = `
recipes:
  - recipe_id: 691
    name: Rifter Blueprint
    output_item: 587
    output_qty_per_run: 1
    run_time: 1h
    max_runs_per_copy: 10
    copy_time: 45m
    inputs:
      - item: 34
        qty_per_run: 32000
      - item: 35
        qty_per_run: 6000
  - recipe_id: 46166
    name: Fullerides Reaction
    output_item: 16679
    output_qty_per_run: 3000
    activity: reaction
    run_time: 3h
    inputs:
      - item: 16663
        qty_per_run: 100
  - recipe_id: 691
    name: Duplicate
    output_item: 1
    output_qty_per_run: 1
  - recipe_id: 0
    output_item: 2
  - recipe_id: 900
    output_item: 3
    run_time: soon
`

func TestParse(t *testing.T) {
	recipes, err := Parse([]byte(sampleCatalog), logr.Discard())
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	rifter := recipes[0]
	assert.Equal(t, entities.RecipeID(691), rifter.RecipeID)
	assert.Equal(t, "Rifter Blueprint", rifter.Name)
	assert.Equal(t, entities.ActivityManufacturing, rifter.Activity)
	assert.Equal(t, time.Hour, rifter.RunTime)
	assert.Equal(t, 45*time.Minute, rifter.CopyTime)
	assert.Equal(t, []entities.RecipeInput{{Item: 34, QtyPerRun: 32000}, {Item: 35, QtyPerRun: 6000}}, rifter.Inputs)

	assert.Equal(t, entities.ActivityReaction, recipes[1].Activity)
}

func TestParse_MalformedDocument(t *testing.T) {
	_, err := Parse([]byte("recipes: [unterminated"), logr.Discard())
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultCatalogFile)
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	catalog, err := LoadCatalog(path, logr.Discard())
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Count())
	assert.Len(t, catalog.RecipesFor(587), 1)
	assert.True(t, catalog.IsReactionOnly(16679))

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), logr.Discard())
	assert.Error(t, err)
}

func TestMarshal_ReadsBack(t *testing.T) {
	recipes, err := Parse([]byte(sampleCatalog), logr.Discard())
	require.NoError(t, err)

	data, err := Marshal(recipes)
	require.NoError(t, err)

	again, err := Parse(data, logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, recipes, again)
}
