package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"textgen":    {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"embeddings": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("textgen", cfg.Providers.Textgen.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)

	if cfg.Providers.Textgen.Name == "" {
		slog.Warn("no textgen provider configured; story generation endpoints will be unavailable")
	}

	// Validation
	if t := cfg.Validation.Threshold; t != 0 && (t <= 0 || t > 1) {
		errs = append(errs, fmt.Errorf("validation.threshold %.2f is out of range (0, 1]", t))
	}

	// Generation
	if cfg.Generation.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("generation.max_attempts must not be negative, got %d", cfg.Generation.MaxAttempts))
	}
	if cfg.Generation.AttemptTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("generation.attempt_timeout_seconds must not be negative, got %d", cfg.Generation.AttemptTimeoutSeconds))
	}
	if temp := cfg.Generation.Temperature; temp < 0 || temp > 2 {
		errs = append(errs, fmt.Errorf("generation.temperature %.2f is out of range [0.0, 2.0]", temp))
	}
	if cfg.Generation.BatchConcurrency < 0 {
		errs = append(errs, fmt.Errorf("generation.batch_concurrency must not be negative, got %d", cfg.Generation.BatchConcurrency))
	}

	// Assessment
	if ot := cfg.Assessment.OverlapThreshold; ot != 0 && (ot <= 0 || ot > 1) {
		errs = append(errs, fmt.Errorf("assessment.overlap_threshold %.2f is out of range (0, 1]", ot))
	}

	// Embeddings ↔ storage dimensions
	if cfg.Providers.Embeddings.Name != "" && cfg.Storage.EmbeddingDimensions <= 0 {
		slog.Warn("providers.embeddings is configured but storage.embedding_dimensions is not set; defaulting to 1536")
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; story archive and custom inventories will not persist")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
