package phonics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Inventory is a fixed, ordered grapheme-phoneme correspondence table plus a
// tricky-word set. It is immutable once constructed and safe to share across
// goroutines; build one with [NewInventory] or [MustInventory] and inject it
// into a [Decomposer].
//
// Literal graphemes are matched longest-first so that "sh" always wins over
// "s" at the same position. Split digraphs ("a_e" family) are indexed by
// their leading vowel and matched by lookahead before literal matching.
type Inventory struct {
	name string

	// literals holds non-split entries sorted by grapheme length descending,
	// ties broken alphabetically. literalRunes is the parallel decoded form.
	literals     []GPC
	literalRunes [][]rune

	// splits maps a leading vowel to its split-digraph entry ('a' → "a_e").
	splits map[rune]GPC

	byGrapheme map[string]GPC
	tricky     TrickyWords
}

// NewInventory validates and builds an Inventory. Grapheme texts are
// lowercased and trimmed; duplicates, empty graphemes, empty phonemes, and
// malformed underscore patterns (anything but vowel + "_e") are rejected.
// All problems are reported together.
func NewInventory(name string, gpcs []GPC, tricky TrickyWords) (*Inventory, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("phonics: inventory name must not be empty")
	}

	inv := &Inventory{
		name:       strings.TrimSpace(name),
		splits:     make(map[rune]GPC),
		byGrapheme: make(map[string]GPC, len(gpcs)),
		tricky:     tricky,
	}

	var errs []error
	for i, g := range gpcs {
		g.Grapheme = strings.ToLower(strings.TrimSpace(g.Grapheme))
		switch {
		case g.Grapheme == "":
			errs = append(errs, fmt.Errorf("phonics: entry %d: grapheme must not be empty", i))
			continue
		case g.Phoneme == "":
			errs = append(errs, fmt.Errorf("phonics: entry %d (%q): phoneme must not be empty", i, g.Grapheme))
			continue
		}
		if _, dup := inv.byGrapheme[g.Grapheme]; dup {
			errs = append(errs, fmt.Errorf("phonics: duplicate grapheme %q", g.Grapheme))
			continue
		}

		if strings.Contains(g.Grapheme, "_") {
			if !g.IsSplitDigraph() {
				errs = append(errs, fmt.Errorf("phonics: grapheme %q is not a valid split digraph (want vowel + %q)", g.Grapheme, "_e"))
				continue
			}
			vowel := []rune(g.Grapheme)[0]
			if _, dup := inv.splits[vowel]; dup {
				errs = append(errs, fmt.Errorf("phonics: duplicate split digraph for vowel %q", vowel))
				continue
			}
			inv.splits[vowel] = g
		} else {
			inv.literals = append(inv.literals, g)
		}
		inv.byGrapheme[g.Grapheme] = g
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Longest-match-first ordering; alphabetical within a length so listing
	// order never depends on construction order.
	sort.SliceStable(inv.literals, func(a, b int) bool {
		la, lb := len([]rune(inv.literals[a].Grapheme)), len([]rune(inv.literals[b].Grapheme))
		if la != lb {
			return la > lb
		}
		return inv.literals[a].Grapheme < inv.literals[b].Grapheme
	})
	inv.literalRunes = make([][]rune, len(inv.literals))
	for i, g := range inv.literals {
		inv.literalRunes[i] = []rune(g.Grapheme)
	}

	return inv, nil
}

// MustInventory is like [NewInventory] but panics on error. Use only for
// statically known data such as the built-in default inventory.
func MustInventory(name string, gpcs []GPC, tricky TrickyWords) *Inventory {
	inv, err := NewInventory(name, gpcs, tricky)
	if err != nil {
		panic(err)
	}
	return inv
}

// Name returns the inventory's identifying name.
func (inv *Inventory) Name() string { return inv.name }

// Len returns the total number of correspondences, split digraphs included.
func (inv *Inventory) Len() int { return len(inv.byGrapheme) }

// Tricky returns the inventory's tricky-word set.
func (inv *Inventory) Tricky() TrickyWords { return inv.tricky }

// Lookup returns the correspondence for a grapheme text (case-insensitive).
func (inv *Inventory) Lookup(grapheme string) (GPC, bool) {
	g, ok := inv.byGrapheme[strings.ToLower(strings.TrimSpace(grapheme))]
	return g, ok
}

// GPCs returns every correspondence in matching order: literals
// longest-first, then split digraphs by vowel. The slice is a copy.
func (inv *Inventory) GPCs() []GPC {
	out := make([]GPC, 0, inv.Len())
	out = append(out, inv.literals...)
	vowels := make([]int, 0, len(inv.splits))
	for v := range inv.splits {
		vowels = append(vowels, int(v))
	}
	sort.Ints(vowels)
	for _, v := range vowels {
		out = append(out, inv.splits[rune(v)])
	}
	return out
}

// splitHead reports the split digraph opened at pos, if any: rs[pos] is a
// vowel with a registered split entry, followed by exactly one consonant
// letter and a terminal "e".
func (inv *Inventory) splitHead(rs []rune, pos int) (GPC, bool) {
	if pos != len(rs)-3 {
		return GPC{}, false
	}
	g, ok := inv.splits[rs[pos]]
	if !ok {
		return GPC{}, false
	}
	if isVowel(rs[pos+1]) || rs[pos+2] != 'e' {
		return GPC{}, false
	}
	return g, true
}

// literalPrefix finds the longest literal grapheme that prefixes rs[pos:],
// never extending past limit. Returns the entry and its consumed length.
func (inv *Inventory) literalPrefix(rs []rune, pos, limit int) (GPC, int, bool) {
	for i, gr := range inv.literalRunes {
		n := len(gr)
		if pos+n > limit {
			continue
		}
		match := true
		for j, r := range gr {
			if rs[pos+j] != r {
				match = false
				break
			}
		}
		if match {
			return inv.literals[i], n, true
		}
	}
	return GPC{}, 0, false
}
