package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/readlark/readlark/internal/config"
	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/internal/storygen"
	"github.com/readlark/readlark/pkg/phonics"
)

var (
	generateFingerprint string
	generateBatch       string
	generateSummaries   []string
	generateInventory   string
	generateThreshold   float64
	generateAttempts    int
	generateTemperature float64
	generateTimeoutSecs int
	generateConcurrency int
	generateOut         string
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the story regeneration loop for one learner or a batch",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	cmd.Flags().StringVar(&generateFingerprint, "fingerprint", "", "learner fingerprint YAML file")
	cmd.Flags().StringVar(&generateBatch, "batch", "", "batch manifest YAML file (mutually exclusive with --fingerprint)")
	cmd.Flags().StringSliceVar(&generateSummaries, "summaries", nil, "prior-story summaries for series freshness")
	cmd.Flags().StringVar(&generateInventory, "inventory", "", "inventory YAML file (default: built-in)")
	cmd.Flags().Float64Var(&generateThreshold, "threshold", decodability.DefaultThreshold, "token-score pass threshold")
	cmd.Flags().IntVar(&generateAttempts, "max-attempts", storygen.DefaultMaxAttempts, "regeneration attempt budget per story")
	cmd.Flags().Float64Var(&generateTemperature, "temperature", 0, "sampling temperature (0 = default)")
	cmd.Flags().IntVar(&generateTimeoutSecs, "attempt-timeout", 0, "per-attempt timeout in seconds (0 = none)")
	cmd.Flags().IntVar(&generateConcurrency, "concurrency", 0, "parallel loops for --batch (0 = default)")
	cmd.Flags().StringVar(&generateOut, "out", "", "write the result JSON to this file instead of stdout")
	return cmd
}

// batchManifest is the YAML shape consumed by --batch: one entry per learner.
type batchManifest struct {
	Items []struct {
		Fingerprint    *phonics.Fingerprint `yaml:"fingerprint"`
		PriorSummaries []string             `yaml:"prior_summaries"`
	} `yaml:"items"`
}

// batchOutput is one line of the batch result document.
type batchOutput struct {
	Index     int             `json:"index"`
	LearnerID string          `json:"learner_id,omitempty"`
	Story     *storygen.Story `json:"story,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if (generateFingerprint == "") == (generateBatch == "") {
		return fmt.Errorf("exactly one of --fingerprint and --batch is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	// Explicit flags win; unset flags fall back to config values.
	applyFloatConfig(cmd, "threshold", &generateThreshold, cfg.Validation.Threshold)
	applyIntConfig(cmd, "max-attempts", &generateAttempts, cfg.Generation.MaxAttempts)
	applyFloatConfig(cmd, "temperature", &generateTemperature, cfg.Generation.Temperature)
	applyIntConfig(cmd, "attempt-timeout", &generateTimeoutSecs, cfg.Generation.AttemptTimeoutSeconds)
	applyIntConfig(cmd, "concurrency", &generateConcurrency, cfg.Generation.BatchConcurrency)

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	provider, _, err := buildTextgen(cfg, reg)
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("no textgen provider configured — set providers.textgen in %s", rootConfigPath)
	}

	inv, err := loadInventory(generateInventory)
	if err != nil {
		return err
	}
	validator := decodability.New(phonics.NewDecomposer(inv), decodability.WithThreshold(generateThreshold))

	genOpts := []storygen.Option{
		storygen.WithMaxAttempts(generateAttempts),
		storygen.WithMetrics(observe.DefaultMetrics()),
	}
	if generateTemperature != 0 {
		genOpts = append(genOpts, storygen.WithTemperature(generateTemperature))
	}
	if generateTimeoutSecs > 0 {
		genOpts = append(genOpts, storygen.WithAttemptTimeout(time.Duration(generateTimeoutSecs)*time.Second))
	}
	generator := storygen.NewGenerator(provider, validator, inv.Tricky(), genOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if generateBatch != "" {
		return runGenerateBatch(cmd, ctx, generator)
	}

	fp, err := phonics.LoadFingerprintFile(generateFingerprint)
	if err != nil {
		return err
	}
	story, err := generator.Generate(ctx, fp, generateSummaries)
	if err != nil {
		var exhausted *storygen.ExhaustedError
		if errors.As(err, &exhausted) {
			fmt.Fprintf(cmd.ErrOrStderr(), "no draft passed after %d attempts (best token score %.2f)\n",
				exhausted.Attempts, exhausted.BestReport.TokenScore)
		}
		return err
	}
	return writeResult(cmd, story)
}

func runGenerateBatch(cmd *cobra.Command, ctx context.Context, generator *storygen.Generator) error {
	f, err := os.Open(generateBatch)
	if err != nil {
		return fmt.Errorf("open batch manifest %q: %w", generateBatch, err)
	}
	defer f.Close()

	var manifest batchManifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return fmt.Errorf("decode batch manifest %q: %w", generateBatch, err)
	}
	if len(manifest.Items) == 0 {
		return fmt.Errorf("batch manifest %q has no items", generateBatch)
	}

	items := make([]storygen.BatchItem, len(manifest.Items))
	for i, entry := range manifest.Items {
		if entry.Fingerprint == nil {
			return fmt.Errorf("batch item %d has no fingerprint", i)
		}
		if err := entry.Fingerprint.Validate(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
		items[i] = storygen.BatchItem{
			Fingerprint:    entry.Fingerprint,
			PriorSummaries: entry.PriorSummaries,
		}
	}

	results, err := generator.GenerateBatch(ctx, items, generateConcurrency)
	if err != nil {
		return err
	}

	out := make([]batchOutput, len(results))
	failed := 0
	for i, res := range results {
		out[i] = batchOutput{Index: res.Index, LearnerID: items[i].Fingerprint.LearnerID, Story: res.Story}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			failed++
		}
	}
	if err := writeResult(cmd, out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stories failed", failed, len(results))
	}
	return nil
}

// writeResult sends v to --out when set, stdout otherwise.
func writeResult(cmd *cobra.Command, v any) error {
	if generateOut == "" {
		return writeJSONOut(cmd, v)
	}
	f, err := os.Create(generateOut)
	if err != nil {
		return fmt.Errorf("create %q: %w", generateOut, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("write %q: %w", generateOut, err)
	}
	return f.Close()
}

// applyIntConfig keeps the flag value when it was set explicitly, otherwise
// adopts a non-zero config value.
func applyIntConfig(cmd *cobra.Command, name string, target *int, value int) {
	if value == 0 || cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func applyFloatConfig(cmd *cobra.Command, name string, target *float64, value float64) {
	if value == 0 || cmd.Flags().Changed(name) {
		return
	}
	*target = value
}
