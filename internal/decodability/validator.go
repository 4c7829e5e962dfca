// Package decodability scores words and full story texts against a
// learner's taught set of grapheme-phoneme correspondences.
//
// A word is decodable when every correspondence in its decomposition is in
// the taught set, or when it is a tricky word (memorized as a whole and
// decodable by definition). A story passes validation when its
// token-weighted decodability score reaches the configured threshold: a
// repeated undecodable word is penalized once per occurrence, proportionally
// to how often a child actually meets it on the page.
//
// The [Validator] is read-only after construction and safe for concurrent
// use. Each ValidateStory call memoizes per-word analysis locally, so a page
// that repeats "cat" twenty times decomposes it once.
package decodability

import (
	"sort"

	"github.com/readlark/readlark/pkg/phonics"
)

// DefaultThreshold is the token-weighted score a story must reach to pass.
const DefaultThreshold = 0.85

// Option is a functional option for configuring a [Validator].
type Option func(*Validator)

// WithThreshold sets the token-weighted pass threshold. Default: 0.85.
func WithThreshold(threshold float64) Option {
	return func(v *Validator) {
		v.threshold = threshold
	}
}

// WordDecodability is the per-word analysis result. It is derived, never
// persisted; recompute it per validation call.
type WordDecodability struct {
	// Word is the normalized word that was analysed.
	Word string `json:"word"`

	// Decodable reports whether the learner can read the word: it is a
	// tricky word, or every required correspondence is taught.
	Decodable bool `json:"decodable"`

	// RequiredGPCs is the word's full decomposition. Empty for tricky words,
	// which bypass decomposition entirely.
	RequiredGPCs []phonics.GPC `json:"required_gpcs,omitempty"`

	// UntaughtGPCs is the subset of RequiredGPCs not in the taught set.
	UntaughtGPCs []phonics.GPC `json:"untaught_gpcs,omitempty"`

	// TrickyWord reports whether the word matched the tricky-word set.
	TrickyWord bool `json:"tricky_word"`
}

// Report aggregates decodability over one text. It is created fresh per
// ValidateStory call and immutable once returned.
type Report struct {
	// TotalWords is the token count of the text.
	TotalWords int `json:"total_words"`

	// UniqueWords is the number of distinct normalized words.
	UniqueWords int `json:"unique_words"`

	// DecodableWords is the number of decodable token occurrences.
	DecodableWords int `json:"decodable_words"`

	// UndecodableWords lists the distinct words that failed, sorted
	// ascending so identical inputs yield identical reports.
	UndecodableWords []string `json:"undecodable_words,omitempty"`

	// TokenScore is decodable token occurrences over total tokens. This is
	// the score that gates acceptance.
	TokenScore float64 `json:"token_score"`

	// UniqueScore is decodable unique words over unique words. Reported for
	// operators and UX; it never gates.
	UniqueScore float64 `json:"unique_score"`

	// TargetCoverage is the fraction of target graphemes the text actually
	// exercises. An empty target set reports full coverage.
	TargetCoverage float64 `json:"target_coverage"`

	// Threshold is the token-score gate the report was judged against.
	Threshold float64 `json:"threshold"`

	// Passes reports TokenScore >= Threshold.
	Passes bool `json:"passes"`
}

// Validator analyses words and texts against taught/target correspondence
// sets using one injected decomposer.
type Validator struct {
	dec       *phonics.Decomposer
	threshold float64
}

// New returns a Validator over the given decomposer, whose inventory also
// supplies the tricky-word set.
func New(dec *phonics.Decomposer, opts ...Option) *Validator {
	v := &Validator{
		dec:       dec,
		threshold: DefaultThreshold,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Threshold returns the configured token-score gate.
func (v *Validator) Threshold() float64 { return v.threshold }

// AnalyseWord analyses a single word against the taught set.
//
// Tricky words short-circuit: they are decodable with empty required and
// untaught lists, because they are taught as sight units and never sounded
// out. Any other word is decomposed and its correspondences partitioned by
// taught-set membership; the word is decodable iff the untaught partition
// is empty. Synthetic correspondences (letters the inventory cannot match)
// land in the untaught partition unless the taught set names them.
func (v *Validator) AnalyseWord(word string, taught phonics.GPCSet) WordDecodability {
	normalized := phonics.NormalizeWord(word)
	if v.dec.Inventory().Tricky().Contains(normalized) {
		return WordDecodability{Word: normalized, Decodable: true, TrickyWord: true}
	}

	required := v.dec.Decompose(normalized)
	var untaught []phonics.GPC
	for _, g := range required {
		if !taught.Contains(g.Grapheme) {
			untaught = append(untaught, g)
		}
	}

	return WordDecodability{
		Word:         normalized,
		Decodable:    len(untaught) == 0,
		RequiredGPCs: required,
		UntaughtGPCs: untaught,
	}
}

// ValidateStory scores a full text against the taught and target sets.
//
// The text is tokenized into lowercase alphabetic words; each distinct word
// is analysed exactly once and its verdict reused for every occurrence.
// Empty text (or text with no alphabetic words) yields a degenerate
// zero-score report rather than an error — an empty page is a valid page,
// it just cannot pass.
func (v *Validator) ValidateStory(text string, taught, target phonics.GPCSet) *Report {
	tokens := phonics.Tokenize(text)

	report := &Report{
		TotalWords: len(tokens),
		Threshold:  v.threshold,
	}

	analysed := make(map[string]WordDecodability)
	seenTargets := make(map[string]struct{})

	for _, tok := range tokens {
		wd, ok := analysed[tok]
		if !ok {
			wd = v.AnalyseWord(tok, taught)
			analysed[tok] = wd
		}
		if wd.Decodable {
			report.DecodableWords++
		}
	}

	decodableUnique := 0
	for word, wd := range analysed {
		if wd.Decodable {
			decodableUnique++
		} else {
			report.UndecodableWords = append(report.UndecodableWords, word)
		}
		for _, g := range wd.RequiredGPCs {
			if target.Contains(g.Grapheme) {
				seenTargets[g.Grapheme] = struct{}{}
			}
		}
	}
	sort.Strings(report.UndecodableWords)

	report.UniqueWords = len(analysed)
	if report.TotalWords > 0 {
		report.TokenScore = float64(report.DecodableWords) / float64(report.TotalWords)
	}
	if report.UniqueWords > 0 {
		report.UniqueScore = float64(decodableUnique) / float64(report.UniqueWords)
	}
	if target.Len() == 0 {
		report.TargetCoverage = 1.0
	} else {
		report.TargetCoverage = float64(len(seenTargets)) / float64(target.Len())
	}
	report.Passes = report.TokenScore >= v.threshold && report.TotalWords > 0

	return report
}
