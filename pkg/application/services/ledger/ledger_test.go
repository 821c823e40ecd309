package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

const tritanium entities.ItemID = 34

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(hours int) *time.Time {
	t := base.Add(time.Duration(hours) * time.Hour)
	return &t
}

func boolPtr(v bool) *bool { return &v }

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func buy(ref int64, qty entities.Quantity, unit int64, when *time.Time) entities.Transaction {
	return entities.Transaction{Item: tritanium, Quantity: qty, IsBuy: boolPtr(true), UnitPrice: price(unit), Timestamp: when, ReferenceID: ref}
}

func sell(ref int64, qty entities.Quantity, when *time.Time) entities.Transaction {
	return entities.Transaction{Item: tritanium, Quantity: qty, IsBuy: boolPtr(false), UnitPrice: price(99), Timestamp: when, ReferenceID: ref}
}

func refs(lots []entities.Lot) []int64 {
	out := make([]int64, 0, len(lots))
	for _, lot := range lots {
		out = append(out, lot.ReferenceID)
	}
	return out
}

func onHand(qty entities.Quantity) map[entities.ItemID]entities.Quantity {
	return map[entities.ItemID]entities.Quantity{tritanium: qty}
}

func TestBuild_SellsConsumeOldestLotsFirst(t *testing.T) {
	tests := []struct {
		name     string
		txs      []entities.Transaction
		onHand   entities.Quantity
		wantRefs []int64
		wantQty  []entities.Quantity
	}{
		{
			name:     "sell splits the oldest lot",
			txs:      []entities.Transaction{buy(1, 10, 5, at(1)), buy(2, 10, 7, at(2)), sell(3, 4, at(3))},
			onHand:   16,
			wantRefs: []int64{1, 2},
			wantQty:  []entities.Quantity{6, 10},
		},
		{
			name:     "sell exhausts the oldest lot and eats into the next",
			txs:      []entities.Transaction{buy(1, 10, 5, at(1)), buy(2, 10, 7, at(2)), sell(3, 15, at(3))},
			onHand:   5,
			wantRefs: []int64{2},
			wantQty:  []entities.Quantity{5},
		},
		{
			name:     "input order does not matter",
			txs:      []entities.Transaction{sell(3, 15, at(3)), buy(2, 10, 7, at(2)), buy(1, 10, 5, at(1))},
			onHand:   5,
			wantRefs: []int64{2},
			wantQty:  []entities.Quantity{5},
		},
		{
			name:     "sell before any buy consumes nothing",
			txs:      []entities.Transaction{sell(1, 5, at(1)), buy(2, 10, 7, at(2))},
			onHand:   10,
			wantRefs: []int64{2},
			wantQty:  []entities.Quantity{10},
		},
		{
			name:     "missing timestamps sort first",
			txs:      []entities.Transaction{buy(1, 10, 5, at(1)), buy(9, 10, 6, nil), sell(3, 10, at(2))},
			onHand:   10,
			wantRefs: []int64{1},
			wantQty:  []entities.Quantity{10},
		},
		{
			name:     "equal timestamps tie-break on reference id",
			txs:      []entities.Transaction{buy(8, 10, 5, at(1)), buy(4, 10, 6, at(1)), sell(9, 10, at(2))},
			onHand:   10,
			wantRefs: []int64{8},
			wantQty:  []entities.Quantity{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Build(tt.txs, nil, onHand(tt.onHand))

			lots := l.Lots(tritanium)
			require.Equal(t, tt.wantRefs, refs(lots))
			for i, lot := range lots {
				assert.Equal(t, tt.wantQty[i], lot.Quantity, "lot %d", i)
			}
		})
	}
}

func TestBuild_ReconcileTrimsOldestLots(t *testing.T) {
	txs := []entities.Transaction{
		buy(3, 10, 9, at(3)),
		buy(1, 10, 5, at(1)),
		buy(2, 10, 7, at(2)),
	}

	l := Build(txs, nil, onHand(15), WithLogger(logging.NewTestLogger()))

	lots := l.Lots(tritanium)
	require.Equal(t, []int64{2, 3}, refs(lots), "the oldest lot must be trimmed away first")
	assert.Equal(t, entities.Quantity(5), lots[0].Quantity)
	assert.Equal(t, entities.Quantity(10), lots[1].Quantity)
	assert.LessOrEqual(t, entities.TotalQuantity(lots), l.OnHand(tritanium))
}

func TestBuild_ReconcileLeavesShortfall(t *testing.T) {
	l := Build([]entities.Transaction{buy(1, 10, 5, at(1))}, nil, onHand(50))

	lots := l.Lots(tritanium)
	require.Len(t, lots, 1)
	assert.Equal(t, entities.Quantity(10), lots[0].Quantity)
	assert.Equal(t, entities.Quantity(50), l.OnHand(tritanium))
}

func TestBuild_EmptyLotCases(t *testing.T) {
	t.Run("no stock on hand", func(t *testing.T) {
		for _, qty := range []entities.Quantity{0, -3} {
			l := Build([]entities.Transaction{buy(1, 10, 5, at(1))}, nil, onHand(qty))
			assert.Empty(t, l.Lots(tritanium))
			assert.True(t, l.HasItem(tritanium))
		}
	})

	t.Run("stock without history", func(t *testing.T) {
		l := Build(nil, nil, onHand(7))
		assert.True(t, l.HasItem(tritanium))
		assert.Empty(t, l.Lots(tritanium))
		assert.Equal(t, entities.Quantity(7), l.OnHand(tritanium))
	})

	t.Run("history but not held", func(t *testing.T) {
		l := Build([]entities.Transaction{buy(1, 10, 5, at(1))}, nil, nil)
		assert.Empty(t, l.Lots(tritanium))
	})
}

func TestBuild_SkipsMalformedEvents(t *testing.T) {
	txs := []entities.Transaction{
		{Item: tritanium, Quantity: -5, IsBuy: boolPtr(true), UnitPrice: price(5), Timestamp: at(1), ReferenceID: 1},
		{Item: tritanium, Quantity: 5, IsBuy: nil, UnitPrice: price(5), Timestamp: at(1), ReferenceID: 2},
		{Item: tritanium, Quantity: 5, IsBuy: boolPtr(true), Timestamp: at(1), ReferenceID: 3},
		{Item: tritanium, Quantity: 5, IsBuy: boolPtr(true), UnitPrice: price(0), Timestamp: at(1), ReferenceID: 4},
		{Item: tritanium, Quantity: 5, IsBuy: boolPtr(true), UnitPrice: price(-1), Timestamp: at(1), ReferenceID: 5},
		{Item: 0, Quantity: 5, IsBuy: boolPtr(true), UnitPrice: price(5), Timestamp: at(1), ReferenceID: 6},
		{Item: tritanium, Quantity: 0, IsBuy: boolPtr(false), Timestamp: at(2), ReferenceID: 7},
		buy(8, 3, 4, at(3)),
	}

	l := Build(txs, nil, onHand(100))

	require.Equal(t, []int64{8}, refs(l.Lots(tritanium)))
	assert.False(t, l.HasItem(0))
}

type fixedEstimator struct {
	cost decimal.NullDecimal
	seen []int64
}

func (f *fixedEstimator) EstimateUnitCost(record entities.ProductionRecord) decimal.NullDecimal {
	f.seen = append(f.seen, record.ReferenceID)
	return f.cost
}

func TestBuild_ProductionRecordsBecomeLots(t *testing.T) {
	records := []entities.ProductionRecord{
		{ItemProduced: tritanium, QuantityProduced: 4, UnitCost: price(3), Status: "delivered", CompletedAt: at(2), ReferenceID: 20, Activity: entities.ActivityManufacturing},
		{ItemProduced: tritanium, QuantityProduced: 6, Status: "ready", CompletedAt: at(4), ReferenceID: 21, Activity: entities.ActivityCopying},
		{ItemProduced: tritanium, QuantityProduced: 9, UnitCost: price(3), Status: "active", CompletedAt: at(5), ReferenceID: 22},
		{ItemProduced: tritanium, QuantityProduced: 0, UnitCost: price(3), CompletedAt: at(6), ReferenceID: 23},
	}
	txs := []entities.Transaction{buy(10, 5, 8, at(3))}

	t.Run("without estimator unpriced records are skipped", func(t *testing.T) {
		l := Build(txs, records, onHand(100))
		require.Equal(t, []int64{20, 10}, refs(l.Lots(tritanium)))
	})

	t.Run("estimator prices records without a unit cost", func(t *testing.T) {
		estimator := &fixedEstimator{cost: price(2)}
		l := Build(txs, records, onHand(100), WithEstimator(estimator))

		lots := l.Lots(tritanium)
		require.Equal(t, []int64{20, 10, 21}, refs(lots))
		assert.Equal(t, entities.ProvenanceProductionBuild, lots[0].Provenance)
		assert.Equal(t, entities.ReferenceIndustryJob, lots[0].ReferenceType)
		assert.Equal(t, entities.ProvenanceMarketBuy, lots[1].Provenance)
		assert.Equal(t, entities.ProvenanceProductionCopy, lots[2].Provenance)
		assert.True(t, lots[2].UnitCost.Equal(decimal.NewFromInt(2)))
		assert.Equal(t, []int64{21}, estimator.seen)
	})

	t.Run("estimator without an answer skips the record", func(t *testing.T) {
		l := Build(txs, records, onHand(100), WithEstimator(&fixedEstimator{}))
		require.Equal(t, []int64{20, 10}, refs(l.Lots(tritanium)))
	})
}

func TestAllocateFIFO_Conservation(t *testing.T) {
	lots := []entities.Lot{
		{Quantity: 10, UnitCost: decimal.NewFromInt(5), Provenance: entities.ProvenanceMarketBuy},
		{Quantity: 0, UnitCost: decimal.NewFromInt(100)},
		{Quantity: 20, UnitCost: decimal.NewFromInt(7), Provenance: entities.ProvenanceProductionBuild},
	}
	available := entities.TotalQuantity(lots)

	for q := entities.Quantity(-1); q <= available+5; q++ {
		cost, priced := AllocateFIFO(lots, q)

		if q <= 0 {
			assert.Equal(t, entities.Quantity(0), priced, "q=%d", q)
			assert.True(t, cost.IsZero(), "q=%d", q)
			continue
		}
		assert.LessOrEqual(t, priced, q, "q=%d", q)
		if available >= q {
			assert.Equal(t, q, priced, "q=%d", q)
		} else {
			assert.Equal(t, available, priced, "q=%d", q)
		}
	}

	cost, priced := AllocateFIFO(lots, 15)
	assert.Equal(t, entities.Quantity(15), priced)
	assert.True(t, cost.Equal(decimal.NewFromInt(85)), "expected 10*5 + 5*7 = 85, got %s", cost)
}

func TestAllocateFIFOBreakdown_BucketsByProvenance(t *testing.T) {
	lots := []entities.Lot{
		{Quantity: 10, UnitCost: decimal.NewFromInt(5), Provenance: entities.ProvenanceMarketBuy},
		{Quantity: 4, UnitCost: decimal.NewFromInt(2), Provenance: entities.ProvenanceProductionBuild},
		{Quantity: 5, UnitCost: decimal.NewFromInt(6), Provenance: entities.ProvenanceMarketBuy},
	}

	allocation := AllocateFIFOBreakdown(lots, 30)

	assert.Equal(t, entities.Quantity(19), allocation.PricedQty)
	assert.Equal(t, entities.Quantity(11), allocation.UnpricedQty)
	assert.True(t, allocation.TotalCost.Equal(decimal.NewFromInt(88)))
	require.Len(t, allocation.BySource, 2)
	market := allocation.BySource[entities.ProvenanceMarketBuy]
	assert.Equal(t, entities.Quantity(15), market.Quantity)
	assert.True(t, market.Cost.Equal(decimal.NewFromInt(80)))
	built := allocation.BySource[entities.ProvenanceProductionBuild]
	assert.Equal(t, entities.Quantity(4), built.Quantity)
	assert.True(t, built.Cost.Equal(decimal.NewFromInt(8)))

	empty := AllocateFIFOBreakdown(nil, 3)
	assert.Equal(t, entities.Quantity(3), empty.UnpricedQty)
	assert.Empty(t, empty.BySource)
}

func TestLedger_AllocateDoesNotConsume(t *testing.T) {
	l := Build([]entities.Transaction{buy(1, 5, 8, at(1))}, nil, onHand(5))

	for i := 0; i < 3; i++ {
		cost, priced := l.Allocate(tritanium, 5)
		assert.Equal(t, entities.Quantity(5), priced)
		assert.True(t, cost.Equal(decimal.NewFromInt(40)))
	}

	lots := l.Lots(tritanium)
	lots[0] = lots[0].WithQuantity(1)
	assert.Equal(t, entities.Quantity(5), l.Lots(tritanium)[0].Quantity, "Lots must return a copy")
	assert.Equal(t, []entities.ItemID{tritanium}, l.Items())
}
