package repositories

import (
	"context"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// InventoryRepository provides access to current on-hand quantities
type InventoryRepository interface {
	OnHand(ctx context.Context, owner entities.OwnerID, item entities.ItemID) (entities.Quantity, error)
	OnHandAll(ctx context.Context, owner entities.OwnerID) (map[entities.ItemID]entities.Quantity, error)
}

// InventorySnapshot is a point-in-time view of owned stock and its FIFO lots.
// The planner reads it and never mutates it.
type InventorySnapshot interface {
	OnHand(item entities.ItemID) entities.Quantity
	Lots(item entities.ItemID) []entities.Lot
}
