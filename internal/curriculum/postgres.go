package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/readlark/readlark/pkg/phonics"
)

// Schema is the SQL DDL for the inventories table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS inventories (
    id           TEXT PRIMARY KEY,
    tenant_id    TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    gpcs         JSONB NOT NULL DEFAULT '[]',
    tricky_words JSONB NOT NULL DEFAULT '[]',
    attributes   JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_inventories_tenant ON inventories(tenant_id);
CREATE INDEX IF NOT EXISTS idx_inventories_name ON inventories(name);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
// It serialises the correspondence list and tricky words as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// inventories table and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("curriculum: migrate: %w", err)
	}
	return nil
}

// Create inserts a new inventory definition. It validates the definition and
// returns an error if an inventory with the same ID already exists.
func (s *PostgresStore) Create(ctx context.Context, def *InventoryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	gpcsJSON, trickyJSON, attrJSON, err := marshalFields(def)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO inventories (
			id, tenant_id, name, description, gpcs, tricky_words, attributes
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		def.ID, def.TenantID, def.Name, def.Description,
		gpcsJSON, trickyJSON, attrJSON,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("curriculum: inventory with id %q already exists", def.ID)
		}
		return fmt.Errorf("curriculum: create: %w", err)
	}
	return nil
}

// Get retrieves an inventory definition by ID. It returns (nil, nil) if no
// inventory with the given ID exists.
func (s *PostgresStore) Get(ctx context.Context, id string) (*InventoryDefinition, error) {
	const query = `
		SELECT id, tenant_id, name, description, gpcs, tricky_words, attributes,
		       created_at, updated_at
		FROM inventories
		WHERE id = $1`

	var def InventoryDefinition
	var gpcsJSON, trickyJSON, attrJSON []byte

	err := s.db.QueryRow(ctx, query, id).Scan(
		&def.ID, &def.TenantID, &def.Name, &def.Description,
		&gpcsJSON, &trickyJSON, &attrJSON,
		&def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("curriculum: get %q: %w", id, err)
	}

	if err := unmarshalFields(&def, gpcsJSON, trickyJSON, attrJSON); err != nil {
		return nil, err
	}
	return &def, nil
}

// Update replaces an existing inventory definition. It validates the new
// definition and returns an error if the inventory is not found.
func (s *PostgresStore) Update(ctx context.Context, def *InventoryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	gpcsJSON, trickyJSON, attrJSON, err := marshalFields(def)
	if err != nil {
		return err
	}

	const query = `
		UPDATE inventories SET
			tenant_id = $2, name = $3, description = $4,
			gpcs = $5, tricky_words = $6, attributes = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err = s.db.QueryRow(ctx, query,
		def.ID, def.TenantID, def.Name, def.Description,
		gpcsJSON, trickyJSON, attrJSON,
	).Scan(&def.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("curriculum: inventory with id %q not found", def.ID)
		}
		return fmt.Errorf("curriculum: update: %w", err)
	}
	return nil
}

// Delete removes an inventory definition by ID. Deleting a non-existent
// inventory is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM inventories WHERE id = $1`
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("curriculum: delete %q: %w", id, err)
	}
	return nil
}

// List returns all inventory definitions, optionally filtered by tenant ID.
// An empty tenantID returns all definitions.
func (s *PostgresStore) List(ctx context.Context, tenantID string) ([]InventoryDefinition, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if tenantID == "" {
		const query = `
			SELECT id, tenant_id, name, description, gpcs, tricky_words, attributes,
			       created_at, updated_at
			FROM inventories
			ORDER BY name`
		rows, err = s.db.Query(ctx, query)
	} else {
		const query = `
			SELECT id, tenant_id, name, description, gpcs, tricky_words, attributes,
			       created_at, updated_at
			FROM inventories
			WHERE tenant_id = $1
			ORDER BY name`
		rows, err = s.db.Query(ctx, query, tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("curriculum: list: %w", err)
	}
	defer rows.Close()

	var defs []InventoryDefinition
	for rows.Next() {
		var def InventoryDefinition
		var gpcsJSON, trickyJSON, attrJSON []byte

		if err := rows.Scan(
			&def.ID, &def.TenantID, &def.Name, &def.Description,
			&gpcsJSON, &trickyJSON, &attrJSON,
			&def.CreatedAt, &def.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("curriculum: list scan: %w", err)
		}

		if err := unmarshalFields(&def, gpcsJSON, trickyJSON, attrJSON); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("curriculum: list: %w", err)
	}
	return defs, nil
}

// Upsert creates or replaces an inventory definition. This is how YAML
// inventory files are imported. The definition is validated before
// persistence.
func (s *PostgresStore) Upsert(ctx context.Context, def *InventoryDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	gpcsJSON, trickyJSON, attrJSON, err := marshalFields(def)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO inventories (
			id, tenant_id, name, description, gpcs, tricky_words, attributes
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			gpcs = EXCLUDED.gpcs,
			tricky_words = EXCLUDED.tricky_words,
			attributes = EXCLUDED.attributes,
			updated_at = now()
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		def.ID, def.TenantID, def.Name, def.Description,
		gpcsJSON, trickyJSON, attrJSON,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("curriculum: upsert: %w", err)
	}
	return nil
}

// marshalFields serialises the JSONB columns from an [InventoryDefinition].
func marshalFields(def *InventoryDefinition) (gpcs, tricky, attrs []byte, err error) {
	gpcs, err = json.Marshal(emptyGPCs(def.GPCs))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("curriculum: marshal gpcs: %w", err)
	}
	tricky, err = json.Marshal(emptySlice(def.TrickyWords))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("curriculum: marshal tricky_words: %w", err)
	}
	attrs, err = json.Marshal(emptyMap(def.Attributes))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("curriculum: marshal attributes: %w", err)
	}
	return gpcs, tricky, attrs, nil
}

// unmarshalFields deserialises the JSONB columns into the corresponding
// [InventoryDefinition] fields.
func unmarshalFields(def *InventoryDefinition, gpcs, tricky, attrs []byte) error {
	if err := json.Unmarshal(gpcs, &def.GPCs); err != nil {
		return fmt.Errorf("curriculum: unmarshal gpcs: %w", err)
	}
	if err := json.Unmarshal(tricky, &def.TrickyWords); err != nil {
		return fmt.Errorf("curriculum: unmarshal tricky_words: %w", err)
	}
	if err := json.Unmarshal(attrs, &def.Attributes); err != nil {
		return fmt.Errorf("curriculum: unmarshal attributes: %w", err)
	}
	return nil
}

// emptyGPCs returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptyGPCs(s []phonics.GPC) []phonics.GPC {
	if s == nil {
		return []phonics.GPC{}
	}
	return s
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// emptyMap returns m if non-nil, otherwise an empty non-nil map.
func emptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// isDuplicateKeyError checks whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
