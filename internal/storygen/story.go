// Package storygen runs the bounded generate-validate-regenerate loop that
// turns an external text-generation collaborator into a source of provably
// decodable stories.
//
// Each attempt sends a prompt built from the learner's phonics fingerprint,
// validates the returned draft with the decodability validator, and — when
// the draft misses the threshold — retries with an explicit avoidance list
// of the previous attempt's undecodable words. A story that never crosses
// the threshold is never materialized; the loop returns an [ExhaustedError]
// carrying the best and last reports instead, because callers must not
// silently accept a sub-threshold story.
//
// The loop is sequential per story (attempt N's prompt depends on attempt
// N-1's report) but independent stories run fully in parallel; see [Batch].
package storygen

import (
	"time"

	"github.com/google/uuid"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/pkg/provider/textgen"
)

// Page is one page of an accepted story.
type Page struct {
	// Number is the 1-based page position.
	Number int `json:"number"`

	// Text is the page's validated story text.
	Text string `json:"text"`
}

// Story is an accepted, threshold-passing generated story. It only exists
// once a regeneration attempt has passed validation.
type Story struct {
	// ID is assigned at acceptance.
	ID uuid.UUID `json:"id"`

	// LearnerID and SeriesID come from the fingerprint; either may be empty.
	LearnerID string `json:"learner_id,omitempty"`
	SeriesID  string `json:"series_id,omitempty"`

	Title      string   `json:"title"`
	Pages      []Page   `json:"pages"`
	Characters []string `json:"characters,omitempty"`

	// Structure is the model's one-line description of the story arc.
	Structure string `json:"structure,omitempty"`

	// Report is the validation report of the accepted attempt.
	Report *decodability.Report `json:"report"`

	// Cost is the token usage summed over every attempt the loop made,
	// including failed ones — each reached the collaborator and cost money.
	Cost textgen.Usage `json:"cost"`

	// Attempts is how many attempts the loop needed, accepted one included.
	Attempts int `json:"attempts"`

	CreatedAt time.Time `json:"created_at"`
}

// Text joins the story's page texts with blank lines.
func (s *Story) Text() string {
	d := textgen.Draft{Pages: make([]textgen.DraftPage, len(s.Pages))}
	for i, p := range s.Pages {
		d.Pages[i] = textgen.DraftPage{Text: p.Text}
	}
	return d.Text()
}
