// Command readlark is the CLI entrypoint for the readlark decodable-story
// engine: an HTTP/websocket server, one-shot validation and assessment
// commands, the story generation loop, inventory management, book export,
// and an MCP authoring server.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/config"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/provider/embeddings"
	oaembed "github.com/readlark/readlark/pkg/provider/embeddings/openai"
	"github.com/readlark/readlark/pkg/provider/textgen"
	tganyllm "github.com/readlark/readlark/pkg/provider/textgen/anyllm"
	tgopenai "github.com/readlark/readlark/pkg/provider/textgen/openai"
)

var rootConfigPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "readlark",
		Short:         "Decodable story engine for early readers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "config.yaml", "path to the YAML configuration file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDecomposeCmd())
	rootCmd.AddCommand(newAssessCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newInventoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newMCPCmd())

	return rootCmd
}

// loadConfig reads the configured YAML file. A missing file is only an error
// when --config was given explicitly; otherwise the zero config applies and
// every subsystem runs on its built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.Flag("config").Changed {
			return &config.Config{}, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found — copy configs/example.yaml to get started", rootConfigPath)
		}
		return nil, err
	}
	return cfg, nil
}

// loadInventory resolves the inventory used by the one-shot commands: a YAML
// inventory file when path is given, the built-in inventory otherwise.
func loadInventory(path string) (*phonics.Inventory, error) {
	if path == "" {
		return phonics.DefaultInventory(), nil
	}
	return phonics.LoadInventoryFile(path)
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the provider factories that ship with
// readlark into reg. Each factory receives a config.ProviderEntry and
// constructs the provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Textgen ───────────────────────────────────────────────────────────────
	// openai speaks through the native openai-go client; anthropic, gemini,
	// deepseek, mistral, groq, llamacpp, and llamafile share the any-llm-go
	// pattern: optional APIKey + optional BaseURL.
	reg.RegisterTextgen("openai", func(entry config.ProviderEntry) (textgen.Provider, error) {
		var opts []tgopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, tgopenai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, tgopenai.WithOrganization(org))
		}
		return tgopenai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterTextgen(providerName, func(entry config.ProviderEntry) (textgen.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return tganyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterTextgen("ollama", func(entry config.ProviderEntry) (textgen.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return tganyllm.New("ollama", entry.Model, opts...)
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})
}

// buildTextgen instantiates the configured textgen provider, or (nil, nil)
// when none is configured. The second return value is the same provider as a
// plain-text completer when it supports one (the archive summariser wants
// that surface).
func buildTextgen(cfg *config.Config, reg *config.Registry) (textgen.Provider, textgen.Completer, error) {
	name := cfg.Providers.Textgen.Name
	if name == "" {
		return nil, nil, nil
	}
	p, err := reg.CreateTextgen(cfg.Providers.Textgen)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("textgen provider not registered — story generation disabled", "name", name)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create textgen provider %q: %w", name, err)
	}
	slog.Info("provider created", "kind", "textgen", "name", name, "model", cfg.Providers.Textgen.Model)

	completer, _ := p.(textgen.Completer)
	return p, completer, nil
}

// buildEmbeddings instantiates the configured embeddings provider, or
// (nil, nil) when none is configured.
func buildEmbeddings(cfg *config.Config, reg *config.Registry) (embeddings.Provider, error) {
	name := cfg.Providers.Embeddings.Name
	if name == "" {
		return nil, nil
	}
	p, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("embeddings provider not registered — stories archived without similarity vectors", "name", name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
	}
	slog.Info("provider created", "kind", "embeddings", "name", name, "model", p.ModelID())
	return p, nil
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
