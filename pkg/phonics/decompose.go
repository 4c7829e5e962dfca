package phonics

// Decomposer splits single words into ordered correspondence sequences using
// one injected [Inventory]. Decomposition is total and deterministic: it
// never fails for any input string, degrading to synthetic single-character
// correspondences where the inventory has no match.
//
// A Decomposer is stateless between calls and safe for concurrent use.
type Decomposer struct {
	inv *Inventory
}

// NewDecomposer creates a Decomposer over inv. A nil inventory behaves as an
// empty one: every letter decomposes to a synthetic correspondence.
func NewDecomposer(inv *Inventory) *Decomposer {
	if inv == nil {
		inv = &Inventory{
			name:       "empty",
			splits:     map[rune]GPC{},
			byGrapheme: map[string]GPC{},
		}
	}
	return &Decomposer{inv: inv}
}

// Inventory returns the injected inventory.
func (d *Decomposer) Inventory() *Inventory { return d.inv }

// Decompose returns the ordered correspondences spelling word.
//
// The word is normalized with [NormalizeWord] first; an input that
// normalizes to nothing yields an empty sequence. The scan walks left to
// right. At each position a split-digraph lookahead runs first (vowel +
// one consonant + terminal "e"): on a hit the split entry is emitted for the
// vowel alone and the scan advances one letter — the closing "e" is consumed
// by the same rule when the scan reaches it, without a second emission, so
// the pattern's two letters are attributed to one correspondence. Otherwise
// the longest literal grapheme prefixing the remaining text is taken. When
// nothing matches, a synthetic single-character correspondence (grapheme and
// phoneme both that character) is emitted and the scan advances one.
//
// The letters of the returned graphemes, with split digraphs contributing
// both their letters, exactly cover the normalized word.
func (d *Decomposer) Decompose(word string) []GPC {
	rs := []rune(NormalizeWord(word))
	out := make([]GPC, 0, len(rs))

	// openSplit is set once a split-digraph head has been emitted; the
	// terminal "e" then belongs to that correspondence and literal matches
	// in between may not extend into it.
	openSplit := false

	for pos := 0; pos < len(rs); {
		if g, ok := d.inv.splitHead(rs, pos); ok {
			out = append(out, g)
			openSplit = true
			pos++
			continue
		}
		if openSplit && pos == len(rs)-1 {
			pos++
			continue
		}

		limit := len(rs)
		if openSplit {
			limit = len(rs) - 1
		}
		if g, n, ok := d.inv.literalPrefix(rs, pos, limit); ok {
			out = append(out, g)
			pos += n
			continue
		}

		c := string(rs[pos])
		out = append(out, GPC{Grapheme: c, Phoneme: c})
		pos++
	}
	return out
}

// WordGPCs decomposes each distinct word once and returns word →
// correspondences, keyed by the normalized form. Words that normalize to
// nothing are skipped. This is the precomputed map the read-aloud aligner
// consumes.
func (d *Decomposer) WordGPCs(words []string) map[string][]GPC {
	out := make(map[string][]GPC, len(words))
	for _, w := range words {
		n := NormalizeWord(w)
		if n == "" {
			continue
		}
		if _, done := out[n]; done {
			continue
		}
		out[n] = d.Decompose(n)
	}
	return out
}
