package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/pkg/phonics"
)

var (
	validateText        string
	validateFile        string
	validateFingerprint string
	validateTaught      []string
	validateTarget      []string
	validateInventory   string
	validateThreshold   float64
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Score a text's decodability against a taught grapheme set",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	cmd.Flags().StringVar(&validateText, "text", "", "story text to validate")
	cmd.Flags().StringVar(&validateFile, "file", "", "file holding the story text (- for stdin)")
	cmd.Flags().StringVar(&validateFingerprint, "fingerprint", "", "fingerprint YAML supplying taught/target graphemes")
	cmd.Flags().StringSliceVar(&validateTaught, "taught", nil, "taught graphemes (comma separated)")
	cmd.Flags().StringSliceVar(&validateTarget, "target", nil, "target graphemes (comma separated)")
	cmd.Flags().StringVar(&validateInventory, "inventory", "", "inventory YAML file (default: built-in)")
	cmd.Flags().Float64Var(&validateThreshold, "threshold", decodability.DefaultThreshold, "token-score pass threshold")
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	text, err := readTextInput(validateText, validateFile)
	if err != nil {
		return err
	}

	taught, target := validateTaught, validateTarget
	if validateFingerprint != "" {
		fp, err := phonics.LoadFingerprintFile(validateFingerprint)
		if err != nil {
			return err
		}
		taught, target = fp.TaughtGraphemes, fp.TargetGraphemes
	}
	if len(taught) == 0 {
		return fmt.Errorf("--taught or --fingerprint is required")
	}

	inv, err := loadInventory(validateInventory)
	if err != nil {
		return err
	}

	validator := decodability.New(phonics.NewDecomposer(inv), decodability.WithThreshold(validateThreshold))
	report := validator.ValidateStory(text, phonics.NewGPCSet(taught...), phonics.NewGPCSet(target...))

	if err := writeJSONOut(cmd, report); err != nil {
		return err
	}
	if !report.Passes {
		return fmt.Errorf("token score %.2f below threshold %.2f", report.TokenScore, report.Threshold)
	}
	return nil
}
