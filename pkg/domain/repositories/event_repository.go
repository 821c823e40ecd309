package repositories

import (
	"context"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
)

// EventRepository provides the raw acquisition history of an owner
type EventRepository interface {
	Transactions(ctx context.Context, owner entities.OwnerID) ([]entities.Transaction, error)
	ProductionRecords(ctx context.Context, owner entities.OwnerID) ([]entities.ProductionRecord, error)
}

// BlueprintRepository provides the recipes an owner holds blueprints for
type BlueprintRepository interface {
	Blueprints(ctx context.Context, owner entities.OwnerID) ([]entities.BlueprintOwnership, error)
}
