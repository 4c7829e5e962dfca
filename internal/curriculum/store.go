package curriculum

import "context"

// Store provides CRUD operations for inventory definitions.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new inventory definition. The definition is validated
	// before insertion. Returns an error if an inventory with the same ID
	// already exists.
	Create(ctx context.Context, def *InventoryDefinition) error

	// Get retrieves an inventory definition by ID. Returns (nil, nil) if not
	// found.
	Get(ctx context.Context, id string) (*InventoryDefinition, error)

	// Update replaces an existing inventory definition. The definition is
	// validated before the update. Returns an error if the inventory is not
	// found.
	Update(ctx context.Context, def *InventoryDefinition) error

	// Delete removes an inventory definition by ID. Deleting a non-existent
	// inventory is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all inventory definitions, optionally filtered by tenant
	// ID. An empty tenantID returns all definitions.
	List(ctx context.Context, tenantID string) ([]InventoryDefinition, error)

	// Upsert creates or replaces an inventory definition (useful for YAML
	// import). The definition is validated before persistence.
	Upsert(ctx context.Context, def *InventoryDefinition) error
}
