package phonics_test

import (
	"reflect"
	"testing"

	"github.com/readlark/readlark/pkg/phonics"
)

func TestDefaultGPCs_PhaseCoverage(t *testing.T) {
	t.Parallel()

	gpcs := phonics.DefaultGPCs()

	// Full phase 2-5 coverage, including the consolidation correspondences.
	if len(gpcs) < 85 {
		t.Errorf("built-in inventory holds %d correspondences, want at least 85", len(gpcs))
	}

	seen := make(map[string]struct{}, len(gpcs))
	for _, g := range gpcs {
		if _, dup := seen[g.Grapheme]; dup {
			t.Errorf("duplicate grapheme %q in built-in data", g.Grapheme)
		}
		seen[g.Grapheme] = struct{}{}
		if g.Phoneme == "" || len(g.Examples) == 0 {
			t.Errorf("grapheme %q missing phoneme or examples", g.Grapheme)
		}
	}

	for _, g := range []string{"sh", "igh", "a_e", "tch", "dge", "kn", "nk", "eigh", "tt"} {
		if _, ok := seen[g]; !ok {
			t.Errorf("built-in inventory missing %q", g)
		}
	}

	// Data must satisfy the inventory invariants.
	if inv := phonics.DefaultInventory(); inv == nil {
		t.Fatal("DefaultInventory returned nil")
	}
}

func TestDecompose_ConsolidationGraphemes(t *testing.T) {
	t.Parallel()

	dec := phonics.NewDecomposer(phonics.DefaultInventory())

	tests := []struct {
		word string
		want []string
	}{
		{word: "catch", want: []string{"c", "a", "tch"}},
		{word: "badge", want: []string{"b", "a", "dge"}},
		{word: "knit", want: []string{"kn", "i", "t"}},
		{word: "little", want: []string{"l", "i", "tt", "le"}},
		{word: "door", want: []string{"d", "oor"}},
		{word: "eight", want: []string{"eigh", "t"}},
		{word: "thank", want: []string{"th", "a", "nk"}},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			got := graphemes(dec.Decompose(tt.word))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decompose(%q) graphemes = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}
