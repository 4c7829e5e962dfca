package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/config"
	"github.com/readlark/readlark/internal/curriculum"
	"github.com/readlark/readlark/pkg/phonics"
)

func newInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage GPC inventory variants",
	}
	cmd.AddCommand(newInventoryImportCmd())
	cmd.AddCommand(newInventoryShowCmd())
	return cmd
}

func newInventoryImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert an inventory YAML file into the curriculum store",
		Args:  cobra.ExactArgs(1),
		RunE:  runInventoryImport,
	}
}

func runInventoryImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Storage.PostgresDSN == "" {
		return fmt.Errorf("inventory import needs storage.postgres_dsn in %s", rootConfigPath)
	}

	file, err := phonics.ParseInventoryFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closePool, err := openCurriculumStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePool()

	def := &curriculum.InventoryDefinition{
		ID:          file.Name,
		Name:        file.Name,
		GPCs:        file.GPCs,
		TrickyWords: file.TrickyWords,
	}
	if err := store.Upsert(ctx, def); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported inventory %q (%d GPCs, %d tricky words)\n",
		def.ID, len(def.GPCs), len(def.TrickyWords))
	return nil
}

func newInventoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print an inventory's correspondences and tricky words",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInventoryShow,
	}
}

func runInventoryShow(cmd *cobra.Command, args []string) error {
	id := ""
	if len(args) == 1 {
		id = args[0]
	}

	if id == "" || id == phonics.DefaultInventoryName {
		printInventory(cmd, phonics.DefaultInventory())
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Storage.PostgresDSN == "" {
		return fmt.Errorf("inventory %q is not the built-in one and no storage.postgres_dsn is configured", id)
	}

	ctx := cmd.Context()
	store, closePool, err := openCurriculumStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePool()

	def, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("inventory %q not found", id)
	}
	inv, err := def.Build()
	if err != nil {
		return err
	}
	printInventory(cmd, inv)
	return nil
}

func printInventory(cmd *cobra.Command, inv *phonics.Inventory) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s — %d correspondences, %d tricky words\n\n", inv.Name(), inv.Len(), inv.Tricky().Len())
	for _, gpc := range inv.GPCs() {
		if len(gpc.Examples) > 0 {
			fmt.Fprintf(out, "  %-6s %-8s %v\n", gpc.Grapheme, gpc.Phoneme, gpc.Examples)
		} else {
			fmt.Fprintf(out, "  %-6s %s\n", gpc.Grapheme, gpc.Phoneme)
		}
	}
	if tricky := inv.Tricky().Words(); len(tricky) > 0 {
		fmt.Fprintf(out, "\ntricky: %v\n", tricky)
	}
}

// openCurriculumStore connects to Postgres and runs the curriculum migration.
// The returned func closes the underlying pool.
func openCurriculumStore(ctx context.Context, cfg *config.Config) (curriculum.Store, func(), error) {
	pool, err := archive.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	store := curriculum.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
