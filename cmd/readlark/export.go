package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/export"
	"github.com/readlark/readlark/internal/storygen"
)

var (
	exportStoryFile string
	exportStoryID   string
	exportOut       string
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render an accepted story as a printable HTML book",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	cmd.Flags().StringVar(&exportStoryFile, "story", "", "story JSON file (as written by readlark generate)")
	cmd.Flags().StringVar(&exportStoryID, "id", "", "archived story UUID to fetch from the story archive")
	cmd.Flags().StringVar(&exportOut, "out", "", "output HTML file (default: stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	if (exportStoryFile == "") == (exportStoryID == "") {
		return fmt.Errorf("exactly one of --story and --id is required")
	}

	var book export.Book
	switch {
	case exportStoryFile != "":
		raw, err := os.ReadFile(exportStoryFile)
		if err != nil {
			return fmt.Errorf("read %q: %w", exportStoryFile, err)
		}
		var story storygen.Story
		if err := json.Unmarshal(raw, &story); err != nil {
			return fmt.Errorf("decode story %q: %w", exportStoryFile, err)
		}
		book = export.FromStory(&story)

	default:
		id, err := uuid.Parse(exportStoryID)
		if err != nil {
			return fmt.Errorf("invalid story id %q: %w", exportStoryID, err)
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("--id needs storage.postgres_dsn in %s", rootConfigPath)
		}

		ctx := cmd.Context()
		pool, err := archive.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		dims := cfg.Storage.EmbeddingDimensions
		if dims == 0 {
			dims = 1536
		}
		stored, err := archive.New(pool, dims).Get(ctx, id)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("story %s not found in the archive", id)
		}
		book = export.FromStored(stored)
	}

	if exportOut == "" {
		return book.WriteHTML(cmd.OutOrStdout())
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %q: %w", exportOut, err)
	}
	if err := book.WriteHTML(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportOut)
	return nil
}
