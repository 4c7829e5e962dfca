package decodability_test

import (
	"reflect"
	"testing"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/pkg/phonics"
)

// newValidator builds a validator over the default inventory.
func newValidator(t *testing.T, opts ...decodability.Option) *decodability.Validator {
	t.Helper()
	return decodability.New(phonics.NewDecomposer(phonics.DefaultInventory()), opts...)
}

// phase2Minimal is the first six correspondences a learner meets.
var phase2Minimal = []string{"s", "a", "t", "p", "i", "n"}

func TestAnalyseWord(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	taught := phonics.NewGPCSet(phase2Minimal...)

	tests := []struct {
		name          string
		word          string
		wantDecodable bool
		wantTricky    bool
		wantUntaught  []string
	}{
		{name: "fully taught", word: "sat", wantDecodable: true},
		{name: "fully taught with punctuation", word: "Pant!", wantDecodable: true},
		{name: "untaught graphemes", word: "quiz", wantUntaught: []string{"qu", "z"}},
		{name: "tricky word bypasses gpc check", word: "the", wantDecodable: true, wantTricky: true},
		{name: "tricky word case-insensitive", word: "The,", wantDecodable: true, wantTricky: true},
		{name: "empty word", word: "", wantDecodable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := v.AnalyseWord(tt.word, taught)
			if got.Decodable != tt.wantDecodable {
				t.Errorf("AnalyseWord(%q).Decodable = %v, want %v", tt.word, got.Decodable, tt.wantDecodable)
			}
			if got.TrickyWord != tt.wantTricky {
				t.Errorf("AnalyseWord(%q).TrickyWord = %v, want %v", tt.word, got.TrickyWord, tt.wantTricky)
			}
			var untaught []string
			for _, g := range got.UntaughtGPCs {
				untaught = append(untaught, g.Grapheme)
			}
			if !reflect.DeepEqual(untaught, tt.wantUntaught) {
				t.Errorf("AnalyseWord(%q) untaught = %v, want %v", tt.word, untaught, tt.wantUntaught)
			}
		})
	}
}

func TestAnalyseWord_TrickyShortCircuitWithEmptyTaughtSet(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	empty := phonics.NewGPCSet()

	for _, word := range phonics.DefaultInventory().Tricky().Words() {
		got := v.AnalyseWord(word, empty)
		if !got.Decodable {
			t.Errorf("tricky word %q not decodable with empty taught set", word)
		}
		if len(got.RequiredGPCs) != 0 || len(got.UntaughtGPCs) != 0 {
			t.Errorf("tricky word %q carries GPC lists: required=%v untaught=%v",
				word, got.RequiredGPCs, got.UntaughtGPCs)
		}
	}
}

func TestAnalyseWord_FullCoverageInvariant(t *testing.T) {
	t.Parallel()

	v := newValidator(t)

	// Teach exactly the graphemes each word needs; the word must then be
	// decodable with nothing left untaught.
	for _, word := range []string{"sat", "ship", "night", "make", "quiz"} {
		var graphemes []string
		for _, g := range phonics.NewDecomposer(phonics.DefaultInventory()).Decompose(word) {
			graphemes = append(graphemes, g.Grapheme)
		}
		got := v.AnalyseWord(word, phonics.NewGPCSet(graphemes...))
		if !got.Decodable || len(got.UntaughtGPCs) != 0 {
			t.Errorf("AnalyseWord(%q) with exact taught set: decodable=%v untaught=%v",
				word, got.Decodable, got.UntaughtGPCs)
		}
	}
}

func TestAnalyseWord_TaughtSetMonotonicity(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	words := []string{"sat", "pin", "ship", "quiz", "make", "xyzzy"}

	small := phonics.NewGPCSet(phase2Minimal...)
	large := phonics.NewGPCSet(append(append([]string{}, phase2Minimal...),
		phonics.GraphemesThroughPhase(5)...)...)

	for _, w := range words {
		before := v.AnalyseWord(w, small)
		after := v.AnalyseWord(w, large)
		if before.Decodable && !after.Decodable {
			t.Errorf("enlarging taught set made %q undecodable", w)
		}
	}
}

func TestValidateStory_WorkedExamples(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	taught := phonics.NewGPCSet(phase2Minimal...)
	target := phonics.NewGPCSet()

	t.Run("sat pat passes at 1.0", func(t *testing.T) {
		t.Parallel()
		r := v.ValidateStory("sat pat", taught, target)
		if r.TokenScore != 1.0 {
			t.Errorf("token score = %v, want 1.0", r.TokenScore)
		}
		if r.UniqueScore != 1.0 {
			t.Errorf("unique score = %v, want 1.0", r.UniqueScore)
		}
		if !r.Passes {
			t.Error("report does not pass threshold 0.85")
		}
	})

	t.Run("quiz fails at two thirds", func(t *testing.T) {
		t.Parallel()
		r := v.ValidateStory("sat pit quiz", taught, target)
		want := 2.0 / 3.0
		if r.TokenScore != want {
			t.Errorf("token score = %v, want %v", r.TokenScore, want)
		}
		if r.Passes {
			t.Error("report passes, want fail")
		}
		if !reflect.DeepEqual(r.UndecodableWords, []string{"quiz"}) {
			t.Errorf("undecodable words = %v, want [quiz]", r.UndecodableWords)
		}
	})
}

func TestValidateStory_TokenWeightingPenalizesRepeats(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	taught := phonics.NewGPCSet(phase2Minimal...)

	// One undecodable word repeated three times out of four tokens: token
	// score 0.25 but unique score 0.5. The token score gates.
	r := v.ValidateStory("sat quiz quiz quiz", taught, phonics.NewGPCSet())
	if r.TokenScore != 0.25 {
		t.Errorf("token score = %v, want 0.25", r.TokenScore)
	}
	if r.UniqueScore != 0.5 {
		t.Errorf("unique score = %v, want 0.5", r.UniqueScore)
	}
	if r.Passes {
		t.Error("report passes, want fail")
	}
}

func TestValidateStory_EmptyText(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	taught := phonics.NewGPCSet(phase2Minimal...)

	for _, text := range []string{"", "   ", "?! 42 --"} {
		r := v.ValidateStory(text, taught, phonics.NewGPCSet())
		if r.TotalWords != 0 || r.TokenScore != 0 || r.Passes {
			t.Errorf("ValidateStory(%q) = %+v, want zero-score non-passing report", text, r)
		}
	}
}

func TestValidateStory_TargetCoverage(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	taught := phonics.NewGPCSet(phonics.GraphemesThroughPhase(3)...)

	tests := []struct {
		name   string
		text   string
		target []string
		want   float64
	}{
		{name: "empty target set is full coverage", text: "sat", target: nil, want: 1.0},
		{name: "one of two targets used", text: "ship shop", target: []string{"sh", "ch"}, want: 0.5},
		{name: "all targets used", text: "chip ship", target: []string{"sh", "ch"}, want: 1.0},
		{name: "no targets used", text: "sat pat", target: []string{"igh"}, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := v.ValidateStory(tt.text, taught, phonics.NewGPCSet(tt.target...))
			if r.TargetCoverage != tt.want {
				t.Errorf("target coverage = %v, want %v", r.TargetCoverage, tt.want)
			}
		})
	}
}

func TestValidateStory_Deterministic(t *testing.T) {
	t.Parallel()

	v := newValidator(t)
	taught := phonics.NewGPCSet(phase2Minimal...)
	target := phonics.NewGPCSet("sh", "ch")
	text := "the quick cat sat on a quiz ship chip quiz zebra"

	first := v.ValidateStory(text, taught, target)
	for i := 0; i < 5; i++ {
		again := v.ValidateStory(text, taught, target)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestValidateStory_CustomThreshold(t *testing.T) {
	t.Parallel()

	v := newValidator(t, decodability.WithThreshold(0.5))
	taught := phonics.NewGPCSet(phase2Minimal...)

	r := v.ValidateStory("sat pit quiz", taught, phonics.NewGPCSet())
	if !r.Passes {
		t.Errorf("token score %v should pass threshold 0.5", r.TokenScore)
	}
	if r.Threshold != 0.5 {
		t.Errorf("report threshold = %v, want 0.5", r.Threshold)
	}
}
