package phonics

import "sort"

// TrickyWords is a fixed set of high-frequency words that are taught as
// memorized wholes rather than sounded out ("the", "said", "once"). A tricky
// word is decodable by definition, regardless of GPC coverage.
//
// Membership is case-insensitive and ignores non-letter characters, so
// "The", "the" and `"the,"` all match. The zero value is an empty set.
type TrickyWords struct {
	words map[string]struct{}
}

// NewTrickyWords builds a set from the given words. Each word is normalized
// with [NormalizeWord]; words that normalize to the empty string are ignored.
func NewTrickyWords(words ...string) TrickyWords {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		n := NormalizeWord(w)
		if n == "" {
			continue
		}
		m[n] = struct{}{}
	}
	return TrickyWords{words: m}
}

// Contains reports whether word is in the set after normalization.
func (t TrickyWords) Contains(word string) bool {
	_, ok := t.words[NormalizeWord(word)]
	return ok
}

// Len returns the number of words in the set.
func (t TrickyWords) Len() int { return len(t.words) }

// Words returns the normalized members sorted ascending.
func (t TrickyWords) Words() []string {
	out := make([]string, 0, len(t.words))
	for w := range t.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
