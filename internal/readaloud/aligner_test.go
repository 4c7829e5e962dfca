package readaloud_test

import (
	"reflect"
	"testing"

	"github.com/readlark/readlark/internal/readaloud"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/speech"
)

// spokenWords builds a transcribed sequence with descending timestamps at
// one word per 500ms and a flat 0.9 confidence.
func spokenWords(words ...string) []speech.TranscribedWord {
	out := make([]speech.TranscribedWord, len(words))
	for i, w := range words {
		out[i] = speech.TranscribedWord{Word: w, Confidence: 0.9, TimestampMs: int64(i) * 500}
	}
	return out
}

// judgements flattens an assessment to its judgement sequence.
func judgements(a *readaloud.Assessment) []readaloud.Judgement {
	out := make([]readaloud.Judgement, len(a.Words))
	for i, w := range a.Words {
		out[i] = w.Judgement
	}
	return out
}

func TestAssess_PerfectReading(t *testing.T) {
	t.Parallel()

	a := readaloud.New().Assess("The cat sat on a log.", spokenWords("the", "cat", "sat", "on", "a", "log"), 6_000, nil)

	if a.Accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", a.Accuracy)
	}
	for i, w := range a.Words {
		if w.Judgement != readaloud.JudgementCorrect || !w.Correct {
			t.Errorf("word %d (%q) judgement = %q correct=%v, want correct", i, w.Expected, w.Judgement, w.Correct)
		}
	}
	// 6 correct words in 6 seconds is 60 wcpm.
	if a.WCPM != 60 {
		t.Errorf("wcpm = %d, want 60", a.WCPM)
	}
}

func TestAssess_SubstitutionExample(t *testing.T) {
	t.Parallel()

	// "big" shares no characters with "cat", so it is a plain substitution,
	// not a mispronunciation.
	a := readaloud.New().Assess("the cat sat", spokenWords("the", "big", "sat"), 3_000, nil)

	want := []readaloud.Judgement{
		readaloud.JudgementCorrect,
		readaloud.JudgementSubstitution,
		readaloud.JudgementCorrect,
	}
	if got := judgements(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("judgements = %v, want %v", got, want)
	}
	if wantAcc := 2.0 / 3.0; a.Accuracy != wantAcc {
		t.Errorf("accuracy = %v, want %v", a.Accuracy, wantAcc)
	}
	if a.Words[1].PhoneticallyClose {
		t.Error("big/cat flagged phonetically close")
	}
}

func TestAssess_Mispronunciation(t *testing.T) {
	t.Parallel()

	// "sip" vs "ship": all three spoken characters appear in the expected
	// word and the longer word has four, 0.75 > 0.60.
	a := readaloud.New().Assess("ship", spokenWords("sip"), 1_000, nil)

	if got := a.Words[0].Judgement; got != readaloud.JudgementMispronunciation {
		t.Errorf("judgement = %q, want mispronunciation", got)
	}
	if a.Words[0].Correct {
		t.Error("mispronunciation marked correct")
	}
}

func TestAssess_SingleOmission(t *testing.T) {
	t.Parallel()

	a := readaloud.New().Assess("the cat sat on a log", spokenWords("the", "cat", "on", "a", "log"), 5_000, nil)

	omissions := 0
	for _, w := range a.Words {
		if w.Judgement == readaloud.JudgementOmission {
			omissions++
			if w.Expected != "sat" || w.Spoken != "" {
				t.Errorf("omission pair = %q/%q, want sat/", w.Expected, w.Spoken)
			}
		}
	}
	if omissions != 1 {
		t.Fatalf("got %d omissions, want exactly 1", omissions)
	}
	if want := 5.0 / 6.0; a.Accuracy != want {
		t.Errorf("accuracy = %v, want %v", a.Accuracy, want)
	}
}

func TestAssess_Insertion(t *testing.T) {
	t.Parallel()

	a := readaloud.New().Assess("the cat", spokenWords("the", "um", "cat"), 2_000, nil)

	want := []readaloud.Judgement{
		readaloud.JudgementCorrect,
		readaloud.JudgementInsertion,
		readaloud.JudgementCorrect,
	}
	if got := judgements(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("judgements = %v, want %v", got, want)
	}
	// Insertions do not reduce accuracy over the expected words.
	if a.Accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", a.Accuracy)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	t.Parallel()

	assessor := readaloud.New()
	expected := "the cat and the hat sat on the mat"
	spoken := spokenWords("the", "hat", "and", "the", "cat", "on", "mat", "mat")

	first := assessor.Assess(expected, spoken, 8_000, nil)
	for i := 0; i < 5; i++ {
		again := assessor.Assess(expected, spoken, 8_000, nil)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestAssess_WCPMGuards(t *testing.T) {
	t.Parallel()

	assessor := readaloud.New()
	for _, ms := range []int64{0, -100} {
		a := assessor.Assess("the cat", spokenWords("the", "cat"), ms, nil)
		if a.WCPM != 0 {
			t.Errorf("wcpm with readingTimeMs=%d = %d, want 0", ms, a.WCPM)
		}
	}
}

func TestAssess_EmptyInputs(t *testing.T) {
	t.Parallel()

	assessor := readaloud.New()

	a := assessor.Assess("", nil, 1_000, nil)
	if a.Accuracy != 0 || len(a.Words) != 0 {
		t.Errorf("empty inputs: accuracy=%v words=%v, want empty", a.Accuracy, a.Words)
	}

	// Spoken words with no expected text are all insertions.
	a = assessor.Assess("", spokenWords("hello"), 1_000, nil)
	if len(a.Words) != 1 || a.Words[0].Judgement != readaloud.JudgementInsertion {
		t.Errorf("words = %+v, want single insertion", a.Words)
	}
}

func TestAssess_GPCReinforcement(t *testing.T) {
	t.Parallel()

	dec := phonics.NewDecomposer(phonics.DefaultInventory())
	expected := "ship sat ship"
	wordGPCs := dec.WordGPCs(phonics.Tokenize(expected))

	// Both "ship" occurrences misread, "sat" read correctly: sh/i/p error
	// rate 1.0, s/a/t clean and therefore omitted from the tally.
	a := readaloud.New().Assess(expected, spokenWords("sap", "sat", "sop"), 3_000, wordGPCs)

	if len(a.GPCReinforcement) == 0 {
		t.Fatal("no reinforcement entries")
	}
	for _, r := range a.GPCReinforcement {
		switch r.GPC.Grapheme {
		case "sh", "i", "p":
			if r.ErrorCount != 2 || r.TotalOccurrences != 2 {
				t.Errorf("%q tally = %d/%d, want 2/2", r.GPC.Grapheme, r.ErrorCount, r.TotalOccurrences)
			}
		case "s", "a", "t":
			t.Errorf("zero-error grapheme %q present in reinforcement", r.GPC.Grapheme)
		}
	}
}

func TestAssess_ReinforcementSortedByErrorRate(t *testing.T) {
	t.Parallel()

	dec := phonics.NewDecomposer(phonics.DefaultInventory())
	// "chip" misread once; "sat" appears twice, misread once: ch has rate
	// 1.0, s/a/t have rate 0.5, so ch sorts first.
	expected := "chip sat sat"
	wordGPCs := dec.WordGPCs(phonics.Tokenize(expected))

	a := readaloud.New().Assess(expected, spokenWords("lot", "mud", "sat"), 3_000, wordGPCs)

	if len(a.GPCReinforcement) < 2 {
		t.Fatalf("reinforcement too short: %+v", a.GPCReinforcement)
	}
	for i := 1; i < len(a.GPCReinforcement); i++ {
		if a.GPCReinforcement[i-1].ErrorRate() < a.GPCReinforcement[i].ErrorRate() {
			t.Fatalf("reinforcement not sorted descending: %+v", a.GPCReinforcement)
		}
	}
	if a.GPCReinforcement[0].ErrorRate() != 1.0 {
		t.Errorf("top error rate = %v, want 1.0", a.GPCReinforcement[0].ErrorRate())
	}
}
