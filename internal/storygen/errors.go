package storygen

import (
	"fmt"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/pkg/provider/textgen"
)

// ExhaustedError is returned when the loop ran out of attempts without any
// draft crossing the decodability threshold. User-visible as "could not
// produce a story that fits this child's current phonics level".
//
// It carries both the best-scoring and the last attempt's reports: the best
// report tells an operator how close the loop came, the last preserves what
// the final attempt actually produced. Check with errors.As.
type ExhaustedError struct {
	// Attempts is the number of attempts made.
	Attempts int

	// BestReport is the highest token-scoring report seen; the earliest
	// attempt wins ties. Nil only if no attempt produced a report.
	BestReport *decodability.Report

	// LastReport is the final attempt's report.
	LastReport *decodability.Report

	// Cost is the token usage accumulated across all attempts.
	Cost textgen.Usage
}

func (e *ExhaustedError) Error() string {
	best := 0.0
	if e.BestReport != nil {
		best = e.BestReport.TokenScore
	}
	return fmt.Sprintf("storygen: exhausted %d attempts without passing threshold (best token score %.3f)", e.Attempts, best)
}

// CollaboratorError is returned when the text-generation collaborator failed
// on every attempt that reached it, so the loop never had a draft to
// validate. It wraps the last provider error; check with errors.As and
// unwrap for the cause.
type CollaboratorError struct {
	// Attempt is the attempt on which the wrapped error occurred.
	Attempt int

	// Err is the underlying provider error.
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("storygen: collaborator failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
