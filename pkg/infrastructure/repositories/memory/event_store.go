package memory

import (
	"context"
	"sync"

	"github.com/vsinha/industry-planner/pkg/domain/entities"
	"github.com/vsinha/industry-planner/pkg/domain/repositories"
)

// EventStore keeps transactions, production records and blueprints per owner
type EventStore struct {
	mu           sync.RWMutex
	transactions map[entities.OwnerID][]entities.Transaction
	production   map[entities.OwnerID][]entities.ProductionRecord
	blueprints   map[entities.OwnerID][]entities.BlueprintOwnership
}

// NewEventStore creates an empty event store
func NewEventStore() *EventStore {
	return &EventStore{
		transactions: make(map[entities.OwnerID][]entities.Transaction),
		production:   make(map[entities.OwnerID][]entities.ProductionRecord),
		blueprints:   make(map[entities.OwnerID][]entities.BlueprintOwnership),
	}
}

// Verify interface compliance
var _ repositories.EventRepository = (*EventStore)(nil)
var _ repositories.BlueprintRepository = (*EventStore)(nil)

// AddTransactions appends wallet transactions for an owner
func (s *EventStore) AddTransactions(owner entities.OwnerID, txs ...entities.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[owner] = append(s.transactions[owner], txs...)
}

// AddProductionRecords appends industry jobs for an owner
func (s *EventStore) AddProductionRecords(owner entities.OwnerID, records ...entities.ProductionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.production[owner] = append(s.production[owner], records...)
}

// AddBlueprints appends blueprint ownership hints for an owner
func (s *EventStore) AddBlueprints(owner entities.OwnerID, blueprints ...entities.BlueprintOwnership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blueprints[owner] = append(s.blueprints[owner], blueprints...)
}

// Transactions returns a copy of the owner's transactions in insertion order
func (s *EventStore) Transactions(_ context.Context, owner entities.OwnerID) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Transaction(nil), s.transactions[owner]...), nil
}

// ProductionRecords returns a copy of the owner's production records in insertion order
func (s *EventStore) ProductionRecords(_ context.Context, owner entities.OwnerID) ([]entities.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ProductionRecord(nil), s.production[owner]...), nil
}

// Blueprints returns a copy of the owner's blueprint ownership hints
func (s *EventStore) Blueprints(_ context.Context, owner entities.OwnerID) ([]entities.BlueprintOwnership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.BlueprintOwnership(nil), s.blueprints[owner]...), nil
}
