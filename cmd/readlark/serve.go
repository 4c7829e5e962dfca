package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/config"
	"github.com/readlark/readlark/internal/curriculum"
	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/internal/health"
	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/internal/readaloud"
	"github.com/readlark/readlark/internal/resilience"
	"github.com/readlark/readlark/internal/server"
	"github.com/readlark/readlark/internal/storygen"
	"github.com/readlark/readlark/pkg/phonics"
)

// defaultListenAddr is used when neither the config nor --listen supplies an
// address.
const defaultListenAddr = ":8080"

var serveListenAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the readlark HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveListenAddr, "listen", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	addr := cfg.Server.ListenAddr
	if cmd.Flags().Changed("listen") {
		addr = serveListenAddr
	}
	if addr == "" {
		addr = defaultListenAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry first: everything below records against the global providers.
	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "readlark"})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObserve(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	textgenProvider, completer, err := buildTextgen(cfg, reg)
	if err != nil {
		return err
	}
	embedder, err := buildEmbeddings(cfg, reg)
	if err != nil {
		return err
	}

	// ── Storage ───────────────────────────────────────────────────────────────

	var (
		store    curriculum.Store
		arch     *archive.Archive
		checkers []health.Checker
	)
	if cfg.Storage.PostgresDSN != "" {
		pool, err := archive.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		checkers = append(checkers, health.PingChecker("database", pool))

		pg := curriculum.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg

		dims := cfg.Storage.EmbeddingDimensions
		if dims == 0 && embedder != nil {
			dims = embedder.Dimensions()
		}
		if dims == 0 {
			dims = 1536
		}
		arch = archive.New(pool, dims)
		if err := arch.Migrate(ctx); err != nil {
			return err
		}
		slog.Info("postgres storage ready", "embedding_dimensions", dims)
	} else {
		store = curriculum.NewMemStore()
		slog.Info("no postgres_dsn configured — in-memory curriculum store, no story archive")
	}

	// ── Inventory ─────────────────────────────────────────────────────────────

	if cfg.Inventory.Path != "" {
		file, err := phonics.ParseInventoryFile(cfg.Inventory.Path)
		if err != nil {
			return err
		}
		def := &curriculum.InventoryDefinition{
			ID:          file.Name,
			Name:        file.Name,
			GPCs:        file.GPCs,
			TrickyWords: file.TrickyWords,
		}
		if err := store.Upsert(ctx, def); err != nil {
			return fmt.Errorf("import inventory %q: %w", cfg.Inventory.Path, err)
		}
		slog.Info("inventory imported", "id", def.ID, "gpcs", len(def.GPCs))
	}

	inventory := phonics.DefaultInventory()
	if name := cfg.Inventory.Name; name != "" && name != phonics.DefaultInventoryName {
		def, err := store.Get(ctx, name)
		if err != nil {
			return err
		}
		if def == nil {
			return fmt.Errorf("inventory %q not found in the curriculum store", name)
		}
		inventory, err = def.Build()
		if err != nil {
			return err
		}
	}

	// ── Engine ────────────────────────────────────────────────────────────────

	threshold := cfg.Validation.Threshold
	if threshold == 0 {
		threshold = decodability.DefaultThreshold
	}

	var generator *storygen.Generator
	if textgenProvider != nil {
		guarded := resilience.NewTextgenFallback(textgenProvider, cfg.Providers.Textgen.Name, resilience.FallbackConfig{})
		validator := decodability.New(phonics.NewDecomposer(inventory), decodability.WithThreshold(threshold))

		genOpts := []storygen.Option{storygen.WithMetrics(metrics)}
		if cfg.Generation.MaxAttempts > 0 {
			genOpts = append(genOpts, storygen.WithMaxAttempts(cfg.Generation.MaxAttempts))
		}
		if cfg.Generation.AttemptTimeoutSeconds > 0 {
			genOpts = append(genOpts, storygen.WithAttemptTimeout(time.Duration(cfg.Generation.AttemptTimeoutSeconds)*time.Second))
		}
		if cfg.Generation.Temperature != 0 {
			genOpts = append(genOpts, storygen.WithTemperature(cfg.Generation.Temperature))
		}
		generator = storygen.NewGenerator(guarded, validator, inventory.Tricky(), genOpts...)
	}

	var assessorOpts []readaloud.Option
	if cfg.Assessment.OverlapThreshold != 0 {
		assessorOpts = append(assessorOpts, readaloud.WithOverlapThreshold(cfg.Assessment.OverlapThreshold))
	}
	assessor := readaloud.New(assessorOpts...)

	// ── Server ────────────────────────────────────────────────────────────────

	srvOpts := []server.Option{
		server.WithCurriculumStore(store),
		server.WithThreshold(threshold),
		server.WithHealth(health.New(checkers...)),
		server.WithMetrics(metrics),
	}
	if generator != nil {
		srvOpts = append(srvOpts, server.WithGenerator(generator))
	}
	if arch != nil {
		var summariser archive.Summariser
		if completer != nil {
			summariser = archive.NewLLMSummariser(completer)
		}
		var guardedEmbedder = embedder
		if embedder != nil {
			guardedEmbedder = resilience.NewEmbeddingsFallback(embedder, cfg.Providers.Embeddings.Name, resilience.FallbackConfig{})
		}
		srvOpts = append(srvOpts, server.WithArchive(arch, summariser, guardedEmbedder))
	}

	printStartupSummary(cfg, inventory, addr, generator != nil, arch != nil)

	srv := server.New(inventory, assessor, srvOpts...)
	slog.Info("server ready — press Ctrl+C to shut down", "addr", addr)

	var certFile, keyFile string
	if cfg.Server.TLS != nil {
		certFile, keyFile = cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile
	}
	if err := srv.Run(ctx, addr, certFile, keyFile); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("goodbye")
	return nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, inventory *phonics.Inventory, addr string, generation, archiving bool) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        readlark — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printSummaryRow("Textgen", providerLabel(cfg.Providers.Textgen))
	printSummaryRow("Embeddings", providerLabel(cfg.Providers.Embeddings))
	printSummaryRow("Inventory", fmt.Sprintf("%s (%d GPCs)", inventory.Name(), inventory.Len()))
	printSummaryRow("Generation", enabledLabel(generation))
	printSummaryRow("Archive", enabledLabel(archiving))
	printSummaryRow("Listen addr", addr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func providerLabel(entry config.ProviderEntry) string {
	if entry.Name == "" {
		return "(not configured)"
	}
	if entry.Model != "" {
		return entry.Name + " / " + entry.Model
	}
	return entry.Name
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func printSummaryRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", label, value)
}
