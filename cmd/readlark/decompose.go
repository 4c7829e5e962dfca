package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/pkg/phonics"
)

var (
	decomposeTaught    []string
	decomposeInventory string
)

func newDecomposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decompose <word>",
		Short: "Break a word into its grapheme-phoneme correspondences",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecompose,
	}
	cmd.Flags().StringSliceVar(&decomposeTaught, "taught", nil, "taught graphemes; adds a decodability analysis")
	cmd.Flags().StringVar(&decomposeInventory, "inventory", "", "inventory YAML file (default: built-in)")
	return cmd
}

func runDecompose(cmd *cobra.Command, args []string) error {
	word := phonics.NormalizeWord(args[0])
	if word == "" {
		return fmt.Errorf("%q contains no letters to decompose", args[0])
	}

	inv, err := loadInventory(decomposeInventory)
	if err != nil {
		return err
	}
	dec := phonics.NewDecomposer(inv)

	out := struct {
		Word       string                         `json:"word"`
		GPCs       []phonics.GPC                  `json:"gpcs"`
		TrickyWord bool                           `json:"tricky_word"`
		Analysis   *decodability.WordDecodability `json:"analysis,omitempty"`
	}{
		Word:       word,
		GPCs:       dec.Decompose(word),
		TrickyWord: inv.Tricky().Contains(word),
	}

	if len(decomposeTaught) > 0 {
		analysis := decodability.New(dec).AnalyseWord(word, phonics.NewGPCSet(decomposeTaught...))
		out.Analysis = &analysis
	}
	return writeJSONOut(cmd, out)
}
