package curriculum

import (
	"context"
	"strings"
	"testing"
)

func TestMemStore_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemStore()

	def := validDef("uk-ssp")
	if err := store.Create(ctx, def); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if def.CreatedAt.IsZero() || def.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	// Duplicate create fails.
	err := store.Create(ctx, validDef("uk-ssp"))
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("duplicate Create() err = %v, want 'already exists'", err)
	}

	got, err := store.Get(ctx, "uk-ssp")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got == nil || got.Name != "Test Scheme" {
		t.Fatalf("Get() = %+v, want stored definition", got)
	}

	// Returned copies are isolated from store state.
	got.GPCs[0].Grapheme = "mutated"
	again, _ := store.Get(ctx, "uk-ssp")
	if again.GPCs[0].Grapheme != "s" {
		t.Error("Get() result shares state with the store")
	}

	got2, _ := store.Get(ctx, "uk-ssp")
	got2.Description = "updated"
	if err := store.Update(ctx, got2); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	after, _ := store.Get(ctx, "uk-ssp")
	if after.Description != "updated" {
		t.Errorf("Description = %q, want 'updated'", after.Description)
	}
	if after.CreatedAt != def.CreatedAt {
		t.Error("Update() changed CreatedAt")
	}

	if err := store.Delete(ctx, "uk-ssp"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	gone, err := store.Get(ctx, "uk-ssp")
	if err != nil || gone != nil {
		t.Fatalf("Get() after delete = (%v, %v), want (nil, nil)", gone, err)
	}

	// Deleting a missing inventory is not an error.
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete(missing) unexpected error: %v", err)
	}
}

func TestMemStore_UpdateMissing(t *testing.T) {
	t.Parallel()
	store := NewMemStore()
	err := store.Update(context.Background(), validDef("nope"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Update() err = %v, want 'not found'", err)
	}
}

func TestMemStore_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemStore()

	a := validDef("inv-a")
	a.Name = "Beta"
	a.TenantID = "t-1"
	b := validDef("inv-b")
	b.Name = "Alpha"
	b.TenantID = "t-2"
	for _, def := range []*InventoryDefinition{a, b} {
		if err := store.Create(ctx, def); err != nil {
			t.Fatalf("Create(%s) unexpected error: %v", def.ID, err)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() returned %d defs, want 2", len(all))
	}
	// Ordered by name.
	if all[0].Name != "Alpha" || all[1].Name != "Beta" {
		t.Errorf("List() order = [%s %s], want [Alpha Beta]", all[0].Name, all[1].Name)
	}

	filtered, err := store.List(ctx, "t-1")
	if err != nil {
		t.Fatalf("List(t-1) unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "inv-a" {
		t.Errorf("List(t-1) = %v, want [inv-a]", filtered)
	}
}

func TestMemStore_Upsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemStore()

	def := validDef("uk-ssp")
	if err := store.Upsert(ctx, def); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}
	created := def.CreatedAt

	def.Description = "round two"
	if err := store.Upsert(ctx, def); err != nil {
		t.Fatalf("second Upsert() unexpected error: %v", err)
	}
	if def.CreatedAt != created {
		t.Error("Upsert() replaced CreatedAt on existing definition")
	}

	got, _ := store.Get(ctx, "uk-ssp")
	if got.Description != "round two" {
		t.Errorf("Description = %q, want 'round two'", got.Description)
	}

	if err := store.Upsert(ctx, &InventoryDefinition{}); err == nil {
		t.Fatal("Upsert() expected validation error")
	}
}
