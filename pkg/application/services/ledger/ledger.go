package ledger

import (
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
	"github.com/vsinha/industry-planner/pkg/infrastructure/logging"
)

// UnitCostEstimator prices a production record that carries no explicit unit cost
type UnitCostEstimator interface {
	EstimateUnitCost(record entities.ProductionRecord) decimal.NullDecimal
}

// Option configures a ledger build
type Option func(*buildOptions)

type buildOptions struct {
	estimator UnitCostEstimator
	logger    logr.Logger
}

// WithEstimator prices production records that lack a unit cost
func WithEstimator(estimator UnitCostEstimator) Option {
	return func(o *buildOptions) {
		o.estimator = estimator
	}
}

// WithLogger sets the logger used while rebuilding lots
func WithLogger(logger logr.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// Ledger holds per-item FIFO lot sequences reconciled to on-hand quantities.
// A Ledger is immutable after Build and safe for concurrent readers.
type Ledger struct {
	lots   map[entities.ItemID][]entities.Lot
	onHand map[entities.ItemID]entities.Quantity
}

// Ensure Ledger can be handed to the planner as inventory
var _ repositories.InventorySnapshot = (*Ledger)(nil)

type eventKind int

const (
	acquire eventKind = iota
	dispose
)

type event struct {
	kind          eventKind
	quantity      entities.Quantity
	unitCost      decimal.Decimal
	at            *time.Time
	provenance    entities.Provenance
	referenceType entities.ReferenceType
	referenceID   int64
}

// Build reconstructs FIFO lots from a transaction and production snapshot and
// reconciles them against the current on-hand quantities. Malformed events are
// skipped, never reported as errors.
func Build(
	transactions []entities.Transaction,
	production []entities.ProductionRecord,
	onHand map[entities.ItemID]entities.Quantity,
	opts ...Option,
) *Ledger {
	options := buildOptions{logger: logr.Discard()}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.logger.WithName("ledger")

	eventsByItem := make(map[entities.ItemID][]event)
	skipped := 0

	for _, tx := range transactions {
		ev, ok := transactionEvent(tx)
		if !ok {
			skipped++
			logger.V(logging.TRACE).Info("Skipping transaction", "item", tx.Item, "reference", tx.ReferenceID)
			continue
		}
		eventsByItem[tx.Item] = append(eventsByItem[tx.Item], ev)
	}

	for _, record := range production {
		ev, ok := productionEvent(record, options.estimator)
		if !ok {
			skipped++
			logger.V(logging.TRACE).Info("Skipping production record", "item", record.ItemProduced, "reference", record.ReferenceID)
			continue
		}
		eventsByItem[record.ItemProduced] = append(eventsByItem[record.ItemProduced], ev)
	}

	l := &Ledger{
		lots:   make(map[entities.ItemID][]entities.Lot, len(eventsByItem)+len(onHand)),
		onHand: make(map[entities.ItemID]entities.Quantity, len(onHand)),
	}
	for item, qty := range onHand {
		l.onHand[item] = qty
	}

	for item, events := range eventsByItem {
		sortOldestFirst(events)
		lots := fold(events)

		available := l.onHand[item]
		if available <= 0 {
			l.lots[item] = nil
			continue
		}

		remaining := entities.TotalQuantity(lots)
		if remaining > available {
			excess := remaining - available
			lots, _ = consumeOldest(lots, excess)
			logger.V(logging.DEBUG).Info("Trimmed unexplained consumption",
				"item", item, "reconstructed", remaining, "onHand", available, "trimmed", excess)
		}
		l.lots[item] = lots
	}

	// Items with stock but no usable history have an entirely unknown cost basis
	for item := range l.onHand {
		if _, ok := l.lots[item]; !ok {
			l.lots[item] = nil
		}
	}

	logger.V(logging.DEBUG).Info("Ledger rebuilt",
		"items", len(l.lots), "transactions", len(transactions), "production", len(production), "skipped", skipped)
	return l
}

func transactionEvent(tx entities.Transaction) (event, bool) {
	if tx.Item <= 0 || tx.Quantity <= 0 || tx.IsBuy == nil {
		return event{}, false
	}
	if !*tx.IsBuy {
		return event{
			kind:        dispose,
			quantity:    tx.Quantity,
			at:          tx.Timestamp,
			referenceID: tx.ReferenceID,
		}, true
	}
	if !tx.UnitPrice.Valid || !tx.UnitPrice.Decimal.IsPositive() {
		return event{}, false
	}
	return event{
		kind:          acquire,
		quantity:      tx.Quantity,
		unitCost:      tx.UnitPrice.Decimal,
		at:            tx.Timestamp,
		provenance:    entities.ProvenanceMarketBuy,
		referenceType: entities.ReferenceWalletTransaction,
		referenceID:   tx.ReferenceID,
	}, true
}

func productionEvent(record entities.ProductionRecord, estimator UnitCostEstimator) (event, bool) {
	if record.ItemProduced <= 0 || record.QuantityProduced <= 0 || !record.IsCompleted() {
		return event{}, false
	}
	unitCost := record.UnitCost
	if (!unitCost.Valid || !unitCost.Decimal.IsPositive()) && estimator != nil {
		unitCost = estimator.EstimateUnitCost(record)
	}
	if !unitCost.Valid || !unitCost.Decimal.IsPositive() {
		return event{}, false
	}
	return event{
		kind:          acquire,
		quantity:      record.QuantityProduced,
		unitCost:      unitCost.Decimal,
		at:            record.CompletedAt,
		provenance:    record.Activity.Provenance(),
		referenceType: entities.ReferenceIndustryJob,
		referenceID:   record.ReferenceID,
	}, true
}

// sortOldestFirst orders events by timestamp, events without one first, then by reference id
func sortOldestFirst(events []event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.at == nil && b.at != nil:
			return true
		case a.at != nil && b.at == nil:
			return false
		case a.at != nil && b.at != nil && !a.at.Equal(*b.at):
			return a.at.Before(*b.at)
		}
		return a.referenceID < b.referenceID
	})
}

func fold(events []event) []entities.Lot {
	var lots []entities.Lot
	for _, ev := range events {
		switch ev.kind {
		case acquire:
			lots = append(lots, entities.Lot{
				Quantity:      ev.quantity,
				UnitCost:      ev.unitCost,
				AcquiredAt:    ev.at,
				Provenance:    ev.provenance,
				ReferenceType: ev.referenceType,
				ReferenceID:   ev.referenceID,
			})
		case dispose:
			lots, _ = consumeOldest(lots, ev.quantity)
		}
	}
	return lots
}

// consumeOldest removes quantity from the head of the sequence, replacing a
// partially consumed lot and dropping exhausted ones. It returns the surviving
// lots and whatever quantity could not be consumed.
func consumeOldest(lots []entities.Lot, quantity entities.Quantity) ([]entities.Lot, entities.Quantity) {
	for quantity > 0 && len(lots) > 0 {
		head := lots[0]
		take := entities.MinQuantity(quantity, head.Quantity)
		quantity -= take
		if left := head.Quantity - take; left > 0 {
			lots[0] = head.WithQuantity(left)
		} else {
			lots = lots[1:]
		}
	}
	return lots, quantity
}

// Lots returns a copy of the oldest-first lots for an item
func (l *Ledger) Lots(item entities.ItemID) []entities.Lot {
	lots := l.lots[item]
	if len(lots) == 0 {
		return nil
	}
	out := make([]entities.Lot, len(lots))
	copy(out, lots)
	return out
}

// OnHand returns the on-hand quantity the ledger was reconciled against
func (l *Ledger) OnHand(item entities.ItemID) entities.Quantity {
	if qty := l.onHand[item]; qty > 0 {
		return qty
	}
	return 0
}

// HasItem reports whether the ledger tracked the item at all
func (l *Ledger) HasItem(item entities.ItemID) bool {
	_, ok := l.lots[item]
	return ok
}

// Items returns every tracked item in ascending order
func (l *Ledger) Items() []entities.ItemID {
	items := make([]entities.ItemID, 0, len(l.lots))
	for item := range l.lots {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// Allocate prices the consumption of quantity units of an item oldest-first.
// The ledger itself is left untouched.
func (l *Ledger) Allocate(item entities.ItemID, quantity entities.Quantity) (decimal.Decimal, entities.Quantity) {
	return AllocateFIFO(l.lots[item], quantity)
}

// AllocateBreakdown is Allocate with the consumed cost bucketed by provenance
func (l *Ledger) AllocateBreakdown(item entities.ItemID, quantity entities.Quantity) Allocation {
	return AllocateFIFOBreakdown(l.lots[item], quantity)
}
