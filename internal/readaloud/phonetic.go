package readaloud

import "github.com/antzucaro/matchr"

// Thresholds for the phonetic-closeness signal. A substituted word that
// shares a Double Metaphone code with the expected word needs only moderate
// string similarity to count as close; without a shared code the bar is
// higher.
const (
	phoneticJWThreshold = 0.70
	fuzzyJWThreshold    = 0.85
)

// phoneticallyClose reports whether the spoken word sounds like the
// expected one. Double Metaphone codes are compared first; Jaro-Winkler
// similarity on the raw strings then confirms (or, at a stricter
// threshold, substitutes for) the phonetic overlap.
//
// This is an annotation for downstream tutors, not part of the
// substitution/mispronunciation classification itself.
func phoneticallyClose(expected, spoken string) bool {
	if expected == "" || spoken == "" {
		return false
	}

	jw := matchr.JaroWinkler(expected, spoken, false)

	ep, es := matchr.DoubleMetaphone(expected)
	sp, ss := matchr.DoubleMetaphone(spoken)
	if codesOverlap(ep, es, sp, ss) {
		return jw >= phoneticJWThreshold
	}
	return jw >= fuzzyJWThreshold
}

// codesOverlap reports whether any non-empty code from the first pair
// equals any non-empty code from the second.
func codesOverlap(a1, a2, b1, b2 string) bool {
	for _, a := range []string{a1, a2} {
		if a == "" {
			continue
		}
		if a == b1 || a == b2 {
			return true
		}
	}
	return false
}
