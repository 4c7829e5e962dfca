package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/readaloud"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/speech"
)

var (
	assessExpected      string
	assessExpectedFile  string
	assessTranscript    string
	assessReadingTimeMs int64
	assessInventory     string
	assessOverlap       float64
)

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score a transcribed read-aloud attempt against its expected text",
		Args:  cobra.NoArgs,
		RunE:  runAssess,
	}
	cmd.Flags().StringVar(&assessExpected, "expected", "", "expected text the child was reading")
	cmd.Flags().StringVar(&assessExpectedFile, "expected-file", "", "file holding the expected text (- for stdin)")
	cmd.Flags().StringVar(&assessTranscript, "transcript", "", "JSON file with the transcribed words ([{word, confidence, timestamp_ms}])")
	cmd.Flags().Int64Var(&assessReadingTimeMs, "reading-time-ms", 0, "attempt duration in milliseconds (0 disables WCPM)")
	cmd.Flags().StringVar(&assessInventory, "inventory", "", "inventory YAML file (default: built-in)")
	cmd.Flags().Float64Var(&assessOverlap, "overlap-threshold", 0, "mispronunciation character-overlap ratio (0 = default)")
	return cmd
}

func runAssess(cmd *cobra.Command, _ []string) error {
	expected, err := readTextInput(assessExpected, assessExpectedFile)
	if err != nil {
		return err
	}
	if assessTranscript == "" {
		return fmt.Errorf("--transcript is required")
	}

	raw, err := os.ReadFile(assessTranscript)
	if err != nil {
		return fmt.Errorf("read transcript %q: %w", assessTranscript, err)
	}
	var spoken []speech.TranscribedWord
	if err := json.Unmarshal(raw, &spoken); err != nil {
		return fmt.Errorf("decode transcript %q: %w", assessTranscript, err)
	}

	inv, err := loadInventory(assessInventory)
	if err != nil {
		return err
	}

	var opts []readaloud.Option
	if assessOverlap != 0 {
		opts = append(opts, readaloud.WithOverlapThreshold(assessOverlap))
	}
	assessor := readaloud.New(opts...)

	wordGPCs := phonics.NewDecomposer(inv).WordGPCs(phonics.Tokenize(expected))
	assessment := assessor.Assess(expected, spoken, assessReadingTimeMs, wordGPCs)
	return writeJSONOut(cmd, assessment)
}
