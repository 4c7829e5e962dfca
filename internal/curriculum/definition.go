// Package curriculum provides persistent storage and management for GPC
// inventory variants. An [InventoryDefinition] is the full declarative
// configuration of one teaching scheme — its grapheme-phoneme
// correspondences, tricky words, and metadata — and can be loaded from YAML
// files, stored in a PostgreSQL database, or both.
//
// The primary abstraction is the [Store] interface, which offers CRUD and
// list operations. The reference implementation [PostgresStore] stores
// definitions in a single inventories table using JSONB columns for the
// structured sub-fields; [MemStore] offers the same surface in memory for
// tests and single-node deployments.
//
// [InventoryDefinition.Build] bridges between the storage representation and
// the runtime [phonics.Inventory] used by the decomposer and validator.
package curriculum

import (
	"errors"
	"fmt"
	"time"

	"github.com/readlark/readlark/pkg/phonics"
)

// InventoryDefinition is the full declarative configuration of one GPC
// inventory variant. Different tenants or regions carry different spelling
// conventions, so the system stores any number of named variants side by
// side.
type InventoryDefinition struct {
	// ID is the unique identifier for this inventory (e.g., "uk-ssp").
	ID string `yaml:"id" json:"id"`

	// TenantID groups inventories that belong to the same tenant or region.
	TenantID string `yaml:"tenant_id" json:"tenant_id"`

	// Name is the human-readable display name (e.g., "UK Systematic
	// Synthetic Phonics").
	Name string `yaml:"name" json:"name"`

	// Description is free text describing the scheme and its intended
	// audience.
	Description string `yaml:"description" json:"description"`

	// GPCs is the ordered list of correspondences, earliest-taught first.
	GPCs []phonics.GPC `yaml:"gpcs" json:"gpcs"`

	// TrickyWords are the sight words taught as whole units alongside this
	// inventory.
	TrickyWords []string `yaml:"tricky_words" json:"tricky_words"`

	// Attributes holds arbitrary key-value metadata for the inventory.
	Attributes map[string]any `yaml:"attributes" json:"attributes"`

	// CreatedAt is the time the definition was first persisted.
	CreatedAt time.Time `json:"created_at" yaml:"-"`

	// UpdatedAt is the time the definition was last modified.
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate checks the definition for logical consistency, including the
// structural rules the runtime inventory enforces (non-empty graphemes,
// well-formed split digraphs, no duplicates). It returns a joined error
// describing every violation found, or nil if the definition is valid.
func (d *InventoryDefinition) Validate() error {
	var errs []error

	if d.ID == "" {
		errs = append(errs, fmt.Errorf("curriculum: id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("curriculum: name must not be empty"))
	}
	if len(d.GPCs) == 0 {
		errs = append(errs, fmt.Errorf("curriculum: inventory must define at least one correspondence"))
	} else if _, err := d.Build(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Build converts the stored definition into a runtime [phonics.Inventory].
func (d *InventoryDefinition) Build() (*phonics.Inventory, error) {
	return phonics.NewInventory(d.ID, d.GPCs, phonics.NewTrickyWords(d.TrickyWords...))
}
