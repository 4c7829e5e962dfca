package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/internal/readaloud"
	"github.com/readlark/readlark/internal/storygen"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/speech"
)

// ── POST /v1/validate ────────────────────────────────────────────────────────

type validateRequest struct {
	Text            string   `json:"text"`
	TaughtGraphemes []string `json:"taught_graphemes"`
	TargetGraphemes []string `json:"target_graphemes,omitempty"`
	Inventory       string   `json:"inventory,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.TaughtGraphemes) == 0 {
		writeError(w, http.StatusBadRequest, "taught_graphemes must not be empty")
		return
	}

	validator, _, err := s.resolveValidator(r.Context(), req.Inventory)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	report := validator.ValidateStory(req.Text,
		phonics.NewGPCSet(req.TaughtGraphemes...),
		phonics.NewGPCSet(req.TargetGraphemes...),
	)
	writeJSON(w, http.StatusOK, report)
}

// ── POST /v1/decompose ───────────────────────────────────────────────────────

type decomposeRequest struct {
	Word            string   `json:"word"`
	TaughtGraphemes []string `json:"taught_graphemes,omitempty"`
	Inventory       string   `json:"inventory,omitempty"`
}

type decomposeResponse struct {
	Word       string        `json:"word"`
	GPCs       []phonics.GPC `json:"gpcs"`
	TrickyWord bool          `json:"tricky_word"`

	// Analysis is present when taught_graphemes were supplied.
	Analysis *decodability.WordDecodability `json:"analysis,omitempty"`
}

func (s *Server) handleDecompose(w http.ResponseWriter, r *http.Request) {
	var req decomposeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	word := phonics.NormalizeWord(req.Word)
	if word == "" {
		writeError(w, http.StatusBadRequest, "word must contain at least one letter")
		return
	}

	validator, inv, err := s.resolveValidator(r.Context(), req.Inventory)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	resp := decomposeResponse{
		Word:       word,
		GPCs:       phonics.NewDecomposer(inv).Decompose(word),
		TrickyWord: inv.Tricky().Contains(word),
	}
	if len(req.TaughtGraphemes) > 0 {
		a := validator.AnalyseWord(word, phonics.NewGPCSet(req.TaughtGraphemes...))
		resp.Analysis = &a
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── POST /v1/assess ──────────────────────────────────────────────────────────

type assessRequest struct {
	ExpectedText  string                   `json:"expected_text"`
	Spoken        []speech.TranscribedWord `json:"spoken"`
	ReadingTimeMs int64                    `json:"reading_time_ms,omitempty"`
	Inventory     string                   `json:"inventory,omitempty"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ExpectedText == "" {
		writeError(w, http.StatusBadRequest, "expected_text must not be empty")
		return
	}

	inv, err := s.resolveInventory(r.Context(), req.Inventory)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	assessment := s.assess(inv, req.ExpectedText, req.Spoken, req.ReadingTimeMs)
	writeJSON(w, http.StatusOK, assessment)
}

// assess precomputes the expected words' decompositions and runs the aligner.
// Shared with the live websocket session.
func (s *Server) assess(inv *phonics.Inventory, expectedText string, spoken []speech.TranscribedWord, readingTimeMs int64) *readaloud.Assessment {
	dec := phonics.NewDecomposer(inv)
	wordGPCs := dec.WordGPCs(phonics.Tokenize(expectedText))
	return s.assessor.Assess(expectedText, spoken, readingTimeMs, wordGPCs)
}

// ── POST /v1/stories ─────────────────────────────────────────────────────────

type generateStoryRequest struct {
	Fingerprint    phonics.Fingerprint `json:"fingerprint"`
	PriorSummaries []string            `json:"prior_summaries,omitempty"`
}

type exhaustedResponse struct {
	Error      string               `json:"error"`
	Attempts   int                  `json:"attempts"`
	BestReport *decodability.Report `json:"best_report,omitempty"`
	LastReport *decodability.Report `json:"last_report,omitempty"`
}

func (s *Server) handleGenerateStory(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "no text-generation provider configured")
		return
	}

	var req generateStoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Fingerprint.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	summaries := req.PriorSummaries
	if len(summaries) == 0 && s.archive != nil && req.Fingerprint.SeriesID != "" {
		var err error
		summaries, err = s.archive.RecentSummaries(ctx, req.Fingerprint.LearnerID, req.Fingerprint.SeriesID, 5)
		if err != nil {
			observe.Logger(ctx).Warn("loading prior summaries failed", "error", err)
		}
	}

	story, err := s.generator.Generate(ctx, &req.Fingerprint, summaries)
	if err != nil {
		var exhausted *storygen.ExhaustedError
		var collab *storygen.CollaboratorError
		switch {
		case errors.As(err, &exhausted):
			writeJSON(w, http.StatusUnprocessableEntity, exhaustedResponse{
				Error:      exhausted.Error(),
				Attempts:   exhausted.Attempts,
				BestReport: exhausted.BestReport,
				LastReport: exhausted.LastReport,
			})
		case errors.As(err, &collab):
			writeError(w, http.StatusBadGateway, collab.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.archiveStory(r, story)
	writeJSON(w, http.StatusCreated, story)
}

// archiveStory persists an accepted story when an archive is configured.
// Archival is best-effort: the story was already accepted and returned to
// the caller, so failures are logged, not surfaced.
func (s *Server) archiveStory(r *http.Request, story *storygen.Story) {
	if s.archive == nil {
		return
	}
	ctx := r.Context()
	log := observe.Logger(ctx).With(slog.String("story_id", story.ID.String()))

	var summariser archive.Summariser = archive.TitleSummariser{}
	if s.summariser != nil {
		summariser = s.summariser
	}
	summary, err := summariser.Summarise(ctx, story)
	if err != nil {
		log.Warn("story summarisation failed, archiving without summary", "error", err)
		summary = ""
	}

	var embedding []float32
	if s.embedder != nil && summary != "" {
		embedding, err = s.embedder.Embed(ctx, summary)
		if err != nil {
			log.Warn("summary embedding failed, archiving without vector", "error", err)
			embedding = nil
		}
	}

	if err := s.archive.Save(ctx, story, summary, embedding); err != nil {
		log.Warn("story archival failed", "error", err)
	}
}

// ── GET /v1/stories ──────────────────────────────────────────────────────────

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "story archive not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	stories, err := s.archive.List(r.Context(),
		r.URL.Query().Get("learner_id"),
		r.URL.Query().Get("series_id"),
		limit,
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stories)
}

// ── GET /v1/stories/{id} ─────────────────────────────────────────────────────

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "story archive not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid story id")
		return
	}

	story, err := s.archive.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if story == nil {
		writeError(w, http.StatusNotFound, "story not found")
		return
	}
	writeJSON(w, http.StatusOK, story)
}

// ── GET /v1/inventories ──────────────────────────────────────────────────────

type inventorySummary struct {
	// ID is the identifier accepted by the other endpoints' "inventory"
	// field. Empty for the built-in inventory, which is selected by name.
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	GPCs        int    `json:"gpcs"`
	TrickyWords int    `json:"tricky_words"`
	Source      string `json:"source"`
}

func (s *Server) handleListInventories(w http.ResponseWriter, r *http.Request) {
	out := []inventorySummary{{
		Name:        s.inventory.Name(),
		GPCs:        s.inventory.Len(),
		TrickyWords: s.inventory.Tricky().Len(),
		Source:      "builtin",
	}}

	if s.store != nil {
		defs, err := s.store.List(r.Context(), "")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, d := range defs {
			out = append(out, inventorySummary{
				ID:          d.ID,
				Name:        d.Name,
				GPCs:        len(d.GPCs),
				TrickyWords: len(d.TrickyWords),
				Source:      "store",
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// writeResolveError maps inventory resolution failures to status codes.
func writeResolveError(w http.ResponseWriter, err error) {
	var nf notFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
