package phonics

import (
	"errors"
	"fmt"
)

// Fingerprint is the learner context supplied by an external phonics-
// tracking collaborator: which correspondences the child has been taught,
// which ones the next story should emphasize, and story preferences. It is
// read-only input — nothing in this module mutates or persists it.
type Fingerprint struct {
	// LearnerID identifies the child in the caller's system. Optional; used
	// only to key archived stories.
	LearnerID string `yaml:"learner_id,omitempty" json:"learner_id,omitempty"`

	// TaughtGraphemes lists every grapheme the learner can already decode.
	TaughtGraphemes []string `yaml:"taught_graphemes" json:"taught_graphemes"`

	// TargetGraphemes lists the graphemes the story should practise. May be
	// empty, in which case target coverage reports as complete.
	TargetGraphemes []string `yaml:"target_graphemes,omitempty" json:"target_graphemes,omitempty"`

	// Phase is the curriculum phase (2-5 for the built-in inventory;
	// 0 means unknown).
	Phase int `yaml:"phase,omitempty" json:"phase,omitempty"`

	// Age in years; used only to pitch story tone. 0 means unknown.
	Age int `yaml:"age,omitempty" json:"age,omitempty"`

	// Themes the child enjoys ("dinosaurs", "space").
	Themes []string `yaml:"themes,omitempty" json:"themes,omitempty"`

	// Characters that should recur across the learner's stories.
	Characters []string `yaml:"characters,omitempty" json:"characters,omitempty"`

	// SeriesID groups stories into an ongoing series. Optional.
	SeriesID string `yaml:"series_id,omitempty" json:"series_id,omitempty"`
}

// TaughtSet returns the taught graphemes as a GPCSet.
func (f *Fingerprint) TaughtSet() GPCSet { return NewGPCSet(f.TaughtGraphemes...) }

// TargetSet returns the target graphemes as a GPCSet.
func (f *Fingerprint) TargetSet() GPCSet { return NewGPCSet(f.TargetGraphemes...) }

// Validate checks the fingerprint is usable for story generation. All
// problems are reported together.
func (f *Fingerprint) Validate() error {
	var errs []error
	if len(f.TaughtGraphemes) == 0 {
		errs = append(errs, errors.New("phonics: fingerprint: taught_graphemes must not be empty"))
	}
	if f.Phase < 0 || f.Phase > 6 {
		errs = append(errs, fmt.Errorf("phonics: fingerprint: phase %d out of range 0-6", f.Phase))
	}
	if f.Age < 0 {
		errs = append(errs, fmt.Errorf("phonics: fingerprint: age must not be negative, got %d", f.Age))
	}
	return errors.Join(errs...)
}
