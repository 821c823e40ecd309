package memory

import (
	"context"
	"sync"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// InventoryRepository provides in-memory on-hand quantities per owner
type InventoryRepository struct {
	mu     sync.RWMutex
	onHand map[entities.OwnerID]map[entities.ItemID]entities.Quantity
}

// NewInventoryRepository creates a new in-memory inventory repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		onHand: make(map[entities.OwnerID]map[entities.ItemID]entities.Quantity),
	}
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)

// SetOnHand records the current quantity of an item held by an owner
func (r *InventoryRepository) SetOnHand(owner entities.OwnerID, item entities.ItemID, quantity entities.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, ok := r.onHand[owner]
	if !ok {
		items = make(map[entities.ItemID]entities.Quantity)
		r.onHand[owner] = items
	}
	items[item] = quantity
}

// LoadOnHand replaces an owner's quantities
func (r *InventoryRepository) LoadOnHand(owner entities.OwnerID, quantities map[entities.ItemID]entities.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make(map[entities.ItemID]entities.Quantity, len(quantities))
	for item, qty := range quantities {
		items[item] = qty
	}
	r.onHand[owner] = items
}

// OnHand returns the quantity of one item, zero when unknown
func (r *InventoryRepository) OnHand(_ context.Context, owner entities.OwnerID, item entities.ItemID) (entities.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onHand[owner][item], nil
}

// OnHandAll returns a copy of every quantity held by an owner
func (r *InventoryRepository) OnHandAll(_ context.Context, owner entities.OwnerID) (map[entities.ItemID]entities.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[entities.ItemID]entities.Quantity, len(r.onHand[owner]))
	for item, qty := range r.onHand[owner] {
		items[item] = qty
	}
	return items, nil
}
