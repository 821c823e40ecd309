package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

func TestNullDecimal(t *testing.T) {
	text := func(s string) *string { return &s }

	got, err := nullDecimal(nil)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	got, err = nullDecimal(text("12.50"))
	require.NoError(t, err)
	require.True(t, got.Valid)
	assert.Equal(t, "12.5", got.Decimal.String())

	_, err = nullDecimal(text("NaN-ish"))
	assert.Error(t, err)
}

func TestParseJobColumns(t *testing.T) {
	text := func(s string) *string { return &s }

	var record entities.ProductionRecord
	require.NoError(t, parseJobColumns(&record, nil, text("30"), "copying"))
	assert.Equal(t, entities.ActivityCopying, record.Activity)
	assert.False(t, record.UnitCost.Valid)
	assert.Equal(t, "30", record.JobCost.Decimal.String())

	err := parseJobColumns(&entities.ProductionRecord{}, nil, nil, "research_material")
	assert.ErrorContains(t, err, "invalid activity")

	err = parseJobColumns(&entities.ProductionRecord{}, text("x"), nil, "manufacturing")
	assert.ErrorContains(t, err, "unit_cost")
}

func TestStore_WithoutPool(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	_, err := store.Transactions(ctx, 1)
	assert.Error(t, err)
	_, err = store.OnHandAll(ctx, 1)
	assert.Error(t, err)
	assert.Error(t, store.EnsureSchema(ctx))

	_, err = Open(ctx, "")
	assert.Error(t, err)
}

// Requires a disposable database; set PLANNER_TEST_DATABASE_URL to run
func TestStore_ReadsOwnerHistory(t *testing.T) {
	dbURL := os.Getenv("PLANNER_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("PLANNER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, dbURL, WithLogger(logging.NewTestLogger()))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	owner := entities.OwnerID(time.Now().UnixNano() % 1_000_000_000)
	cleanup := func() {
		for _, table := range []string{"wallet_transactions", "industry_jobs", "owner_assets", "owner_blueprints"} {
			_, _ = store.pool.Exec(ctx, "DELETE FROM "+table+" WHERE owner_id = $1", int64(owner))
		}
	}
	cleanup()
	defer cleanup()

	base := int64(owner) * 10
	_, err = store.pool.Exec(ctx, `
		INSERT INTO wallet_transactions (transaction_id, owner_id, type_id, quantity, unit_price, is_buy, occurred_at)
		VALUES ($1, $2, 34, 100, 4.25, TRUE, '2026-02-02T00:00:00Z'),
		       ($3, $2, 34, 10, NULL, NULL, '2026-02-01T00:00:00Z')`,
		base+1, int64(owner), base+2)
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, `
		INSERT INTO industry_jobs (job_id, owner_id, product_type_id, quantity_produced, job_cost, blueprint_id, runs, activity, status, completed_at)
		VALUES ($1, $2, 587, 2, 30, 691, 1, 'manufacturing', 'delivered', '2026-02-03T00:00:00Z'),
		       ($3, $2, 587, 1, 5, 691, 1, 'research_material', 'delivered', '2026-02-04T00:00:00Z')`,
		base+3, int64(owner), base+4)
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, `
		INSERT INTO owner_assets (owner_id, type_id, quantity) VALUES ($1, 34, 60), ($1, 34, 15), ($1, 587, 2)`,
		int64(owner))
	require.NoError(t, err)
	_, err = store.pool.Exec(ctx, `
		INSERT INTO owner_blueprints (owner_id, blueprint_id, me_percent, te_percent, is_copy, runs)
		VALUES ($1, 691, 10, 20, TRUE, 5)`,
		int64(owner))
	require.NoError(t, err)

	txs, err := store.Transactions(ctx, owner)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, base+2, txs[0].ReferenceID)
	assert.Nil(t, txs[0].IsBuy)
	assert.False(t, txs[0].UnitPrice.Valid)
	assert.Equal(t, "4.25", txs[1].UnitPrice.Decimal.String())

	jobs, err := store.ProductionRecords(ctx, owner)
	require.NoError(t, err)
	require.Len(t, jobs, 1, "unknown activity rows are skipped")
	assert.Equal(t, base+3, jobs[0].ReferenceID)
	assert.Equal(t, entities.ActivityManufacturing, jobs[0].Activity)
	assert.Equal(t, entities.RecipeID(691), jobs[0].RecipeID)
	assert.True(t, jobs[0].IsCompleted())

	onHand, err := store.OnHandAll(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, map[entities.ItemID]entities.Quantity{34: 75, 587: 2}, onHand)

	qty, err := store.OnHand(ctx, owner, 34)
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(75), qty)

	blueprints, err := store.Blueprints(ctx, owner)
	require.NoError(t, err)
	require.Len(t, blueprints, 1)
	require.NotNil(t, blueprints[0].Runs)
	assert.Equal(t, int64(5), *blueprints[0].Runs)
}
