package curriculum

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/readlark/readlark/pkg/phonics"
)

// MemStore is an in-memory [Store] for tests and single-node deployments
// that do not run PostgreSQL. Definitions are deep-copied on the way in and
// out so callers cannot mutate stored state.
type MemStore struct {
	mu   sync.RWMutex
	defs map[string]*InventoryDefinition
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{defs: make(map[string]*InventoryDefinition)}
}

// Create inserts a new inventory definition.
func (s *MemStore) Create(_ context.Context, def *InventoryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.defs[def.ID]; exists {
		return fmt.Errorf("curriculum: inventory with id %q already exists", def.ID)
	}
	now := time.Now().UTC()
	def.CreatedAt = now
	def.UpdatedAt = now
	s.defs[def.ID] = copyDefinition(def)
	return nil
}

// Get retrieves an inventory definition by ID; (nil, nil) if not found.
func (s *MemStore) Get(_ context.Context, id string) (*InventoryDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[id]
	if !ok {
		return nil, nil
	}
	return copyDefinition(def), nil
}

// Update replaces an existing inventory definition.
func (s *MemStore) Update(_ context.Context, def *InventoryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.defs[def.ID]
	if !ok {
		return fmt.Errorf("curriculum: inventory with id %q not found", def.ID)
	}
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now().UTC()
	s.defs[def.ID] = copyDefinition(def)
	return nil
}

// Delete removes an inventory definition by ID. Deleting a non-existent
// inventory is not an error.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, id)
	return nil
}

// List returns all inventory definitions ordered by name, optionally
// filtered by tenant ID.
func (s *MemStore) List(_ context.Context, tenantID string) ([]InventoryDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var defs []InventoryDefinition
	for _, def := range s.defs {
		if tenantID != "" && def.TenantID != tenantID {
			continue
		}
		defs = append(defs, *copyDefinition(def))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// Upsert creates or replaces an inventory definition.
func (s *MemStore) Upsert(_ context.Context, def *InventoryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.defs[def.ID]; ok {
		def.CreatedAt = existing.CreatedAt
	} else {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	s.defs[def.ID] = copyDefinition(def)
	return nil
}

// copyDefinition deep-copies a definition so MemStore state stays isolated
// from caller mutations.
func copyDefinition(def *InventoryDefinition) *InventoryDefinition {
	cp := *def
	cp.GPCs = append([]phonics.GPC(nil), def.GPCs...)
	cp.TrickyWords = append([]string(nil), def.TrickyWords...)
	if def.Attributes != nil {
		cp.Attributes = make(map[string]any, len(def.Attributes))
		for k, v := range def.Attributes {
			cp.Attributes[k] = v
		}
	}
	return &cp
}
