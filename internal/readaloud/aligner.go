// Package readaloud scores a child's spoken reading attempt against the
// text they were expected to read.
//
// The expected text and the transcribed spoken words (supplied by an
// external ASR collaborator; this package never touches audio) are aligned
// with Levenshtein dynamic programming over word tokens. Each aligned pair
// is judged correct, substitution, mispronunciation, insertion, or omission,
// and errors are rolled up per grapheme-phoneme correspondence so the
// knowledge-tracing consumer can see which sounds need reinforcement.
//
// The [Assessor] is read-only after construction and safe for concurrent
// use; Assess is a pure function of its inputs.
package readaloud

import (
	"math"
	"sort"

	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/speech"
)

// Judgement classifies one aligned word pair.
type Judgement string

const (
	// JudgementCorrect: the spoken word matches the expected word.
	JudgementCorrect Judgement = "correct"
	// JudgementSubstitution: a different word was spoken in place of the
	// expected one.
	JudgementSubstitution Judgement = "substitution"
	// JudgementMispronunciation: a substitution whose characters mostly
	// overlap the expected word — the child attempted the right word but
	// said it wrong.
	JudgementMispronunciation Judgement = "mispronunciation"
	// JudgementInsertion: the child said a word with no counterpart in the
	// expected text.
	JudgementInsertion Judgement = "insertion"
	// JudgementOmission: an expected word was skipped entirely.
	JudgementOmission Judgement = "omission"
)

// defaultOverlapThreshold is the character-overlap fraction above which a
// substitution is reclassified as a mispronunciation.
const defaultOverlapThreshold = 0.60

// Option is a functional option for configuring an [Assessor].
type Option func(*Assessor)

// WithOverlapThreshold sets the character-overlap fraction above which a
// substitution counts as a mispronunciation. Default: 0.60.
func WithOverlapThreshold(threshold float64) Option {
	return func(a *Assessor) {
		a.overlapThreshold = threshold
	}
}

// WordJudgement is the verdict for one aligned position.
type WordJudgement struct {
	// Expected is the reference word, empty for insertions.
	Expected string `json:"expected,omitempty"`

	// Spoken is the transcribed word, empty for omissions.
	Spoken string `json:"spoken,omitempty"`

	// Correct reports whether the pair is an exact match.
	Correct bool `json:"correct"`

	// Judgement classifies the pair.
	Judgement Judgement `json:"judgement"`

	// Confidence is the recognizer's confidence in the spoken word; zero
	// for omissions.
	Confidence float64 `json:"confidence,omitempty"`

	// TimestampMs is when the spoken word started; zero for omissions.
	TimestampMs int64 `json:"timestamp_ms,omitempty"`

	// PhoneticallyClose reports whether a substituted word sounds like the
	// expected one (Double Metaphone / Jaro-Winkler signal). Supplementary
	// reporting only; it never changes the Judgement.
	PhoneticallyClose bool `json:"phonetically_close,omitempty"`
}

// GPCReinforcement is the per-correspondence error tally for one attempt.
type GPCReinforcement struct {
	GPC              phonics.GPC `json:"gpc"`
	ErrorCount       int         `json:"error_count"`
	TotalOccurrences int         `json:"total_occurrences"`
}

// ErrorRate is ErrorCount over TotalOccurrences.
func (r GPCReinforcement) ErrorRate() float64 {
	if r.TotalOccurrences == 0 {
		return 0
	}
	return float64(r.ErrorCount) / float64(r.TotalOccurrences)
}

// Assessment is the scored result of one spoken attempt against one page's
// expected text. It is a pure output; nothing here is persisted.
type Assessment struct {
	// Accuracy is correct words over expected words (0.0-1.0).
	Accuracy float64 `json:"accuracy"`

	// WCPM is words correct per minute, the standard oral fluency metric.
	WCPM int `json:"wcpm"`

	// ReadingTimeMs is the caller-supplied attempt duration.
	ReadingTimeMs int64 `json:"reading_time_ms"`

	// Words is the ordered alignment with one judgement per pair.
	Words []WordJudgement `json:"words"`

	// GPCReinforcement lists correspondences the child got wrong, sorted
	// by error rate descending. Correspondences with zero errors are
	// omitted — reinforcement data for mastered sounds is not actionable.
	GPCReinforcement []GPCReinforcement `json:"gpc_reinforcement,omitempty"`
}

// Assessor aligns and judges spoken reading attempts.
type Assessor struct {
	overlapThreshold float64
}

// New returns an Assessor configured with the supplied options.
func New(opts ...Option) *Assessor {
	a := &Assessor{overlapThreshold: defaultOverlapThreshold}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assess aligns the spoken words against the expected text and scores the
// attempt.
//
// wordGPCs maps each normalized expected word to its decomposition,
// precomputed upstream with [phonics.Decomposer.WordGPCs]; words missing
// from the map simply contribute nothing to the reinforcement tally.
// readingTimeMs at or below zero yields WCPM 0.
//
// Assess is total: any strings, including empty text or an empty spoken
// sequence, produce a well-formed Assessment.
func (a *Assessor) Assess(expectedText string, spoken []speech.TranscribedWord, readingTimeMs int64, wordGPCs map[string][]phonics.GPC) *Assessment {
	expected := phonics.Tokenize(expectedText)

	normSpoken := make([]string, 0, len(spoken))
	kept := make([]speech.TranscribedWord, 0, len(spoken))
	for _, w := range spoken {
		n := phonics.NormalizeWord(w.Word)
		if n == "" {
			continue
		}
		normSpoken = append(normSpoken, n)
		kept = append(kept, w)
	}

	words := a.align(expected, normSpoken, kept)

	correct := 0
	for _, w := range words {
		if w.Correct {
			correct++
		}
	}

	out := &Assessment{
		ReadingTimeMs:    readingTimeMs,
		Words:            words,
		GPCReinforcement: reinforcement(words, wordGPCs),
	}
	if len(expected) > 0 {
		out.Accuracy = float64(correct) / float64(len(expected))
	}
	if readingTimeMs > 0 {
		minutes := float64(readingTimeMs) / 60_000
		out.WCPM = int(math.Round(float64(correct) / minutes))
	}
	return out
}

// align runs the Levenshtein DP over the two token sequences and backtracks
// into an ordered judgement list.
//
// Backtrack tie-break when several paths are equally optimal: diagonal
// (match/substitution) wins over horizontal (insertion), which wins over
// vertical (omission). The order is fixed so identical inputs always yield
// identical alignments.
func (a *Assessor) align(expected, spoken []string, detail []speech.TranscribedWord) []WordJudgement {
	m, n := len(expected), len(spoken)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 1
			if expected[i-1] == spoken[j-1] {
				cost = 0
			}
			best := dp[i-1][j-1] + cost
			if v := dp[i][j-1] + 1; v < best {
				best = v
			}
			if v := dp[i-1][j] + 1; v < best {
				best = v
			}
			dp[i][j] = best
		}
	}

	// Backtrack from (m,n) to (0,0), then reverse.
	var rev []WordJudgement
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && expected[i-1] == spoken[j-1] && dp[i][j] == dp[i-1][j-1]:
			rev = append(rev, WordJudgement{
				Expected:    expected[i-1],
				Spoken:      spoken[j-1],
				Correct:     true,
				Judgement:   JudgementCorrect,
				Confidence:  detail[j-1].Confidence,
				TimestampMs: detail[j-1].TimestampMs,
			})
			i--
			j--
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			rev = append(rev, a.judgeSubstitution(expected[i-1], spoken[j-1], detail[j-1]))
			i--
			j--
		case j > 0 && dp[i][j] == dp[i][j-1]+1:
			rev = append(rev, WordJudgement{
				Spoken:      spoken[j-1],
				Judgement:   JudgementInsertion,
				Confidence:  detail[j-1].Confidence,
				TimestampMs: detail[j-1].TimestampMs,
			})
			j--
		default:
			rev = append(rev, WordJudgement{
				Expected:  expected[i-1],
				Judgement: JudgementOmission,
			})
			i--
		}
	}

	out := make([]WordJudgement, 0, len(rev))
	for k := len(rev) - 1; k >= 0; k-- {
		out = append(out, rev[k])
	}
	return out
}

// judgeSubstitution classifies a non-matching diagonal pair. High character
// overlap means the child attempted the right word and mangled it, which is
// pedagogically different from saying an unrelated word.
func (a *Assessor) judgeSubstitution(expected, spoken string, detail speech.TranscribedWord) WordJudgement {
	j := JudgementSubstitution
	if characterOverlap(expected, spoken) > a.overlapThreshold {
		j = JudgementMispronunciation
	}
	return WordJudgement{
		Expected:          expected,
		Spoken:            spoken,
		Judgement:         j,
		Confidence:        detail.Confidence,
		TimestampMs:       detail.TimestampMs,
		PhoneticallyClose: phoneticallyClose(expected, spoken),
	}
}

// characterOverlap counts the spoken characters present in the expected
// word's character set and divides by the longer word's length.
func characterOverlap(expected, spoken string) float64 {
	if len(expected) == 0 || len(spoken) == 0 {
		return 0
	}
	set := make(map[rune]struct{}, len(expected))
	for _, r := range expected {
		set[r] = struct{}{}
	}
	overlap := 0
	for _, r := range spoken {
		if _, ok := set[r]; ok {
			overlap++
		}
	}
	longer := len([]rune(expected))
	if l := len([]rune(spoken)); l > longer {
		longer = l
	}
	return float64(overlap) / float64(longer)
}

// reinforcement tallies errors per correspondence across the expected-side
// judgements. Insertions carry no expected word and are skipped; every
// occurrence of an expected word counts toward its correspondences' totals,
// and non-correct judgements count as errors.
func reinforcement(words []WordJudgement, wordGPCs map[string][]phonics.GPC) []GPCReinforcement {
	tally := make(map[string]*GPCReinforcement)
	for _, w := range words {
		if w.Expected == "" {
			continue
		}
		for _, g := range wordGPCs[w.Expected] {
			r, ok := tally[g.Grapheme]
			if !ok {
				r = &GPCReinforcement{GPC: g}
				tally[g.Grapheme] = r
			}
			r.TotalOccurrences++
			if !w.Correct {
				r.ErrorCount++
			}
		}
	}

	out := make([]GPCReinforcement, 0, len(tally))
	for _, r := range tally {
		if r.ErrorCount == 0 {
			continue
		}
		out = append(out, *r)
	}
	// Error rate descending; grapheme ascending breaks ties so the order
	// is reproducible.
	sort.Slice(out, func(a, b int) bool {
		ra, rb := out[a].ErrorRate(), out[b].ErrorRate()
		if ra != rb {
			return ra > rb
		}
		return out[a].GPC.Grapheme < out[b].GPC.Grapheme
	})
	return out
}
