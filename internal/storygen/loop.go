package storygen

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/provider/textgen"
)

const (
	// DefaultMaxAttempts is the regeneration attempt budget.
	DefaultMaxAttempts = 3

	// defaultTemperature favors varied stories; decodability is enforced by
	// validation, not by decoding determinism.
	defaultTemperature = 0.8
)

// Option is a functional option for configuring a [Generator].
type Option func(*Generator)

// WithMaxAttempts sets the regeneration attempt budget. Default: 3.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each individual collaborator round-trip. A
// timed-out attempt consumes budget like a failed validation; it is not an
// infrastructure retry. Zero means no per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.attemptTimeout = d
	}
}

// WithTemperature sets the sampling temperature for draft requests.
// Default: 0.8.
func WithTemperature(temp float64) Option {
	return func(g *Generator) {
		g.temperature = temp
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// Generator runs the regeneration loop against one collaborator and one
// validator. It is read-only after construction and safe for concurrent use;
// independent stories may be generated in parallel.
type Generator struct {
	provider       textgen.Provider
	validator      *decodability.Validator
	tricky         phonics.TrickyWords
	maxAttempts    int
	attemptTimeout time.Duration
	temperature    float64
	metrics        *observe.Metrics
}

// NewGenerator returns a Generator over the given collaborator and
// validator. tricky is the sight-word set included in prompts — normally the
// validator inventory's tricky set.
func NewGenerator(provider textgen.Provider, validator *decodability.Validator, tricky phonics.TrickyWords, opts ...Option) *Generator {
	g := &Generator{
		provider:    provider,
		validator:   validator,
		tricky:      tricky,
		maxAttempts: DefaultMaxAttempts,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(g)
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	return g
}

// Generate runs the loop for one learner until a draft passes the threshold
// or the attempt budget is exhausted.
//
// priorSummaries are one-line summaries of earlier stories in the learner's
// series, threaded into prompts so the new story stays fresh; pass nil when
// there is no series context.
//
// On success the accepted [Story] is returned with its report and the cost
// summed over every attempt. On failure the error is an [*ExhaustedError]
// (every attempt produced a draft, none passed), a [*CollaboratorError]
// (no attempt produced a usable draft), or the parent context's error if
// the caller cancelled between attempts.
func (g *Generator) Generate(ctx context.Context, fp *phonics.Fingerprint, priorSummaries []string) (*Story, error) {
	ctx, span := observe.StartSpan(ctx, "storygen.Generate")
	defer span.End()

	log := observe.Logger(ctx).With(
		slog.String("learner_id", fp.LearnerID),
		slog.Int("phase", fp.Phase),
	)

	g.metrics.ActiveGenerations.Add(ctx, 1)
	defer g.metrics.ActiveGenerations.Add(ctx, -1)
	loopStart := time.Now()
	defer func() {
		g.metrics.GenerationDuration.Record(ctx, time.Since(loopStart).Seconds())
	}()

	taught := fp.TaughtSet()
	target := fp.TargetSet()

	var (
		cost       textgen.Usage
		bestReport *decodability.Report
		lastReport *decodability.Report
		lastErr    error
		lastErrAt  int
		rc         = RegenerationContext{Attempt: 1}
	)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		// Cancellation is checked between attempts; the collaborator call
		// itself is atomic from this loop's perspective.
		if err := ctx.Err(); err != nil {
			g.metrics.RecordOutcome(ctx, "error")
			return nil, err
		}

		rc.Attempt = attempt
		req := BuildRequest(fp, g.tricky, rc, priorSummaries)
		req.Temperature = g.temperature

		attemptStart := time.Now()
		res, err := g.generateOnce(ctx, req)
		g.metrics.AttemptDuration.Record(ctx, time.Since(attemptStart).Seconds())

		if err != nil {
			// A failed round-trip (provider error, malformed draft, or
			// per-attempt timeout) consumes budget like a failed
			// validation; the avoidance list is left as it was.
			log.Warn("generation attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
			g.metrics.RecordAttempt(ctx, "error")
			lastErr, lastErrAt = err, attempt
			continue
		}
		cost.Add(res.Usage)

		valStart := time.Now()
		report := g.validator.ValidateStory(res.Draft.Text(), taught, target)
		g.metrics.ValidationDuration.Record(ctx, time.Since(valStart).Seconds())

		lastReport = report
		if bestReport == nil || report.TokenScore > bestReport.TokenScore {
			bestReport = report
		}

		if report.Passes {
			log.Info("story accepted",
				slog.Int("attempt", attempt),
				slog.Float64("token_score", report.TokenScore),
				slog.Int("total_tokens", cost.TotalTokens),
			)
			g.metrics.RecordAttempt(ctx, "passed")
			g.metrics.RecordOutcome(ctx, "accepted")
			return materialize(fp, &res.Draft, report, cost, attempt), nil
		}

		log.Debug("attempt below threshold",
			slog.Int("attempt", attempt),
			slog.Float64("token_score", report.TokenScore),
			slog.Any("undecodable", report.UndecodableWords),
		)
		g.metrics.RecordAttempt(ctx, "failed")
		rc.PreviousUndecodableWords = report.UndecodableWords
	}

	if lastReport == nil {
		// Every attempt died before producing a draft to validate.
		g.metrics.RecordOutcome(ctx, "error")
		return nil, &CollaboratorError{Attempt: lastErrAt, Err: lastErr}
	}

	log.Info("generation exhausted",
		slog.Int("attempts", g.maxAttempts),
		slog.Float64("best_token_score", bestReport.TokenScore),
	)
	g.metrics.RecordOutcome(ctx, "exhausted")
	return nil, &ExhaustedError{
		Attempts:   g.maxAttempts,
		BestReport: bestReport,
		LastReport: lastReport,
		Cost:       cost,
	}
}

// generateOnce performs one collaborator round-trip under the per-attempt
// timeout, if configured.
func (g *Generator) generateOnce(ctx context.Context, req textgen.Request) (*textgen.Result, error) {
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}
	return g.provider.Generate(ctx, req)
}

// materialize builds the accepted Story from a passing draft.
func materialize(fp *phonics.Fingerprint, draft *textgen.Draft, report *decodability.Report, cost textgen.Usage, attempts int) *Story {
	pages := make([]Page, len(draft.Pages))
	for i, p := range draft.Pages {
		pages[i] = Page{Number: i + 1, Text: p.Text}
	}
	return &Story{
		ID:         uuid.New(),
		LearnerID:  fp.LearnerID,
		SeriesID:   fp.SeriesID,
		Title:      draft.Title,
		Pages:      pages,
		Characters: draft.Characters,
		Structure:  draft.Structure,
		Report:     report,
		Cost:       cost,
		Attempts:   attempts,
		CreatedAt:  time.Now().UTC(),
	}
}
