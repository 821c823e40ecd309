package costbasis

import (
	"sort"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

// Resolver answers what an owner's current holdings of an item cost.
// It prefers the most recent completed production run, then the most recent
// purchases covering the on-hand quantity, and otherwise reports unknown.
type Resolver struct {
	owner        entities.OwnerID
	estimator    *Estimator
	transactions map[entities.ItemID][]entities.Transaction
	latestJob    map[entities.ItemID]entities.ProductionRecord
	logger       logr.Logger
}

// NewResolver indexes an owner's history for point-in-time cost basis lookups
func NewResolver(
	owner entities.OwnerID,
	transactions []entities.Transaction,
	production []entities.ProductionRecord,
	estimator *Estimator,
	logger logr.Logger,
) *Resolver {
	r := &Resolver{
		owner:        owner,
		estimator:    estimator,
		transactions: make(map[entities.ItemID][]entities.Transaction),
		latestJob:    make(map[entities.ItemID]entities.ProductionRecord),
		logger:       logger.WithName("costbasis"),
	}

	for _, tx := range transactions {
		if tx.Item <= 0 {
			continue
		}
		r.transactions[tx.Item] = append(r.transactions[tx.Item], tx)
	}
	for item := range r.transactions {
		sortNewestFirst(r.transactions[item])
	}

	for _, record := range production {
		if record.ItemProduced <= 0 || !record.IsCompleted() {
			continue
		}
		current, ok := r.latestJob[record.ItemProduced]
		if !ok || newerRecord(record, current) {
			r.latestJob[record.ItemProduced] = record
		}
	}
	return r
}

// Resolve returns the cost basis record for one item
func (r *Resolver) Resolve(item entities.ItemID, onHand entities.Quantity) entities.CostBasisRecord {
	record := entities.CostBasisRecord{Owner: r.owner, Item: item, Source: entities.CostBasisUnknown}

	if job, ok := r.latestJob[item]; ok {
		record.Source = entities.CostBasisProductionBuild
		record.ReferenceType = entities.ReferenceIndustryJob
		record.ReferenceID = job.ReferenceID
		record.AcquiredAt = job.CompletedAt
		if r.estimator != nil {
			record.UnitCost = r.estimator.EstimateUnitCost(job)
		} else if job.UnitCost.Valid && job.UnitCost.Decimal.IsPositive() {
			record.UnitCost = job.UnitCost
		}
		if !record.UnitCost.Valid {
			r.logger.V(logging.DEBUG).Info("Production cost basis has no price", "item", item, "job", job.ReferenceID)
		}
		return record
	}

	if unitCost, ref, ok := r.estimateFromTransactions(item, onHand); ok {
		record.Source = entities.CostBasisMarketBuy
		record.UnitCost = decimal.NewNullDecimal(unitCost)
		record.ReferenceType = entities.ReferenceWalletTransaction
		record.ReferenceID = ref.ReferenceID
		record.AcquiredAt = ref.Timestamp
	}
	return record
}

// ResolveAll resolves every item with a positive on-hand quantity, ordered by item id
func (r *Resolver) ResolveAll(onHand map[entities.ItemID]entities.Quantity) []entities.CostBasisRecord {
	items := make([]entities.ItemID, 0, len(onHand))
	for item, qty := range onHand {
		if item > 0 && qty > 0 {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	records := make([]entities.CostBasisRecord, 0, len(items))
	for _, item := range items {
		records = append(records, r.Resolve(item, onHand[item]))
	}
	return records
}

// estimateFromTransactions walks history newest to oldest. Sells mean stock was
// higher before them, so they raise the quantity still to explain; buys then
// cover it. The reference is the newest buy that contributed.
func (r *Resolver) estimateFromTransactions(
	item entities.ItemID,
	onHand entities.Quantity,
) (decimal.Decimal, entities.Transaction, bool) {
	if onHand <= 0 {
		return decimal.Zero, entities.Transaction{}, false
	}

	remaining := onHand
	var allocatedQty entities.Quantity
	allocatedCost := decimal.Zero
	var reference *entities.Transaction

	for i, tx := range r.transactions[item] {
		if tx.Quantity <= 0 || tx.IsBuy == nil {
			continue
		}
		if !*tx.IsBuy {
			remaining += tx.Quantity
			continue
		}
		if !tx.UnitPrice.Valid || !tx.UnitPrice.Decimal.IsPositive() {
			continue
		}

		take := entities.MinQuantity(remaining, tx.Quantity)
		if take <= 0 {
			continue
		}
		allocatedQty += take
		allocatedCost = allocatedCost.Add(tx.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(take))))
		remaining -= take
		if reference == nil {
			reference = &r.transactions[item][i]
		}
		if remaining <= 0 {
			break
		}
	}

	if allocatedQty <= 0 {
		return decimal.Zero, entities.Transaction{}, false
	}
	return allocatedCost.Div(decimal.NewFromInt(int64(allocatedQty))), *reference, true
}

func sortNewestFirst(txs []entities.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		switch {
		case a.Timestamp != nil && b.Timestamp == nil:
			return true
		case a.Timestamp == nil && b.Timestamp != nil:
			return false
		case a.Timestamp != nil && b.Timestamp != nil && !a.Timestamp.Equal(*b.Timestamp):
			return a.Timestamp.After(*b.Timestamp)
		}
		return a.ReferenceID > b.ReferenceID
	})
}

func newerRecord(a, b entities.ProductionRecord) bool {
	switch {
	case a.CompletedAt != nil && b.CompletedAt == nil:
		return true
	case a.CompletedAt == nil && b.CompletedAt != nil:
		return false
	case a.CompletedAt != nil && b.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt):
		return a.CompletedAt.After(*b.CompletedAt)
	}
	return a.ReferenceID > b.ReferenceID
}
