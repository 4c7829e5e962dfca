// Package phonics defines the grapheme-phoneme data model shared by the
// decodability and read-aloud engines: correspondences (GPCs), ordered
// inventories with tricky-word sets, and the total word decomposer.
//
// An [Inventory] is an explicitly constructed, immutable value. Nothing in
// this package holds package-level mutable state, so per-tenant or regional
// inventory variants (e.g. different spelling conventions) are just different
// Inventory values injected into a [Decomposer].
package phonics

import (
	"sort"
	"strings"
	"unicode"
)

// GPC is a single grapheme-phoneme correspondence: a written letter pattern
// mapped to the sound it makes, the atomic unit of phonics instruction.
//
// Split digraphs are written with an underscore ("a_e" as in "make"); their
// two letters are separated by a consonant in actual spellings. All other
// graphemes are literal letter runs ("s", "sh", "igh").
type GPC struct {
	Grapheme string   `yaml:"grapheme" json:"grapheme"`
	Phoneme  string   `yaml:"phoneme" json:"phoneme"`
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// IsSplitDigraph reports whether the grapheme is a split-digraph pattern of
// the form vowel + "_" + "e".
func (g GPC) IsSplitDigraph() bool {
	r := []rune(g.Grapheme)
	return len(r) == 3 && r[1] == '_' && r[2] == 'e' && isVowel(r[0])
}

// Letters returns the letters of the grapheme with any underscore removed.
// For a split digraph this is the two letters it contributes to a spelling
// ("a_e" → "ae"); for literal graphemes it is the grapheme itself.
func (g GPC) Letters() string {
	return strings.ReplaceAll(g.Grapheme, "_", "")
}

// isVowel reports whether r is one of the five vowel letters.
func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// NormalizeWord lowercases a single token and strips every non-letter
// character. Letters outside a-z (accented or non-Latin) are kept; the
// decomposer degrades them to synthetic correspondences.
func NormalizeWord(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize splits free text into lowercase alphabetic words. Any run of
// non-letter characters (whitespace, punctuation, digits) is a delimiter.
// Empty input yields an empty slice.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// GPCSet is a case-insensitive set of graphemes identifying a subset of an
// inventory (a learner's taught set or target set). The zero value is an
// empty set; construct populated sets with [NewGPCSet].
type GPCSet struct {
	members map[string]struct{}
}

// NewGPCSet builds a set from grapheme texts. Entries are lowercased and
// trimmed; empty strings are ignored.
func NewGPCSet(graphemes ...string) GPCSet {
	m := make(map[string]struct{}, len(graphemes))
	for _, g := range graphemes {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		m[g] = struct{}{}
	}
	return GPCSet{members: m}
}

// Contains reports whether the set holds the given grapheme text
// (case-insensitive).
func (s GPCSet) Contains(grapheme string) bool {
	_, ok := s.members[strings.ToLower(strings.TrimSpace(grapheme))]
	return ok
}

// Len returns the number of graphemes in the set.
func (s GPCSet) Len() int { return len(s.members) }

// Graphemes returns the members sorted ascending, for deterministic output.
func (s GPCSet) Graphemes() []string {
	out := make([]string, 0, len(s.members))
	for g := range s.members {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
