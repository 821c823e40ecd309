package entities

import "fmt"

// ItemID represents a unique item (type) identifier
type ItemID int64

// RecipeID represents a unique recipe (blueprint) identifier
type RecipeID int64

// OwnerID identifies the character or corporation whose history is valued
type OwnerID int64

// Quantity represents an integer quantity value for discrete units
type Quantity int64

// MaterialRequirement is a single (item, quantity) input to the planner
type MaterialRequirement struct {
	Item     ItemID   `json:"item" yaml:"item"`
	Quantity Quantity `json:"quantity" yaml:"quantity"`
}

// NewMaterialRequirement creates a validated MaterialRequirement
func NewMaterialRequirement(item ItemID, quantity Quantity) (*MaterialRequirement, error) {
	if item <= 0 {
		return nil, fmt.Errorf("item id must be positive, got %d", item)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	return &MaterialRequirement{Item: item, Quantity: quantity}, nil
}

// MinQuantity returns the smaller of two quantities
func MinQuantity(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}

// CeilDiv returns ceil(a / b) for positive b, and 0 otherwise
func CeilDiv(a, b Quantity) Quantity {
	if b <= 0 || a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
