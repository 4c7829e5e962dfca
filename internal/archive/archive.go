// Package archive persists accepted stories and answers similarity queries
// over them.
//
// Every accepted story is stored with a one-line summary and, optionally, an
// embedding of that summary. The embedding feeds the novelty guard: before
// drafting the next story in a learner's series, the generator asks "which
// earlier stories resemble what we are about to write" and threads the
// nearest summaries into the prompt so the series stays fresh.
//
// The store is PostgreSQL with the pgvector extension; vectors are indexed
// with HNSW for fast approximate nearest-neighbour search. All methods are
// safe for concurrent use.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/readlark/readlark/internal/storygen"
)

// ddl returns the stories DDL with the embedding dimension substituted.
// The vector dimension is baked into the column type at schema creation time;
// changing it later requires a manual schema update.
func ddl(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS stories (
    id                UUID         PRIMARY KEY,
    learner_id        TEXT         NOT NULL,
    series_id         TEXT         NOT NULL DEFAULT '',
    title             TEXT         NOT NULL,
    pages             JSONB        NOT NULL DEFAULT '[]',
    characters        JSONB        NOT NULL DEFAULT '[]',
    structure         TEXT         NOT NULL DEFAULT '',
    summary           TEXT         NOT NULL DEFAULT '',
    token_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
    attempts          INT          NOT NULL DEFAULT 0,
    total_tokens      INT          NOT NULL DEFAULT 0,
    summary_embedding vector(%d),
    created_at        TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stories_learner
    ON stories (learner_id);

CREATE INDEX IF NOT EXISTS idx_stories_learner_series
    ON stories (learner_id, series_id);

CREATE INDEX IF NOT EXISTS idx_stories_embedding
    ON stories USING hnsw (summary_embedding vector_cosine_ops);
`, embeddingDimensions)
}

// DB is the database interface used by [Archive]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// StoredStory is an archived story row: the accepted story plus its summary
// and validation score at acceptance time.
type StoredStory struct {
	ID          uuid.UUID       `json:"id"`
	LearnerID   string          `json:"learner_id"`
	SeriesID    string          `json:"series_id"`
	Title       string          `json:"title"`
	Pages       []storygen.Page `json:"pages"`
	Characters  []string        `json:"characters"`
	Structure   string          `json:"structure"`
	Summary     string          `json:"summary"`
	TokenScore  float64         `json:"token_score"`
	Attempts    int             `json:"attempts"`
	TotalTokens int             `json:"total_tokens"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SimilarStory is one nearest-neighbour result from [Archive.Similar]:
// a prior story's identity plus its cosine distance from the query embedding
// (smaller is more similar).
type SimilarStory struct {
	ID       uuid.UUID
	Title    string
	Summary  string
	Distance float64
}

// Filter restricts a similarity search. Zero-value fields are ignored.
type Filter struct {
	// LearnerID restricts results to one learner's stories.
	LearnerID string

	// SeriesID restricts results to one series.
	SeriesID string
}

// Archive is the PostgreSQL story archive.
type Archive struct {
	db   DB
	dims int
}

// New creates an [Archive] over the given database connection or pool.
//
// embeddingDimensions must match the output dimension of the embeddings
// provider used to embed summaries (e.g., 1536 for OpenAI
// text-embedding-3-small). The caller is responsible for calling
// [Archive.Migrate] before issuing queries.
func New(db DB, embeddingDimensions int) *Archive {
	return &Archive{db: db, dims: embeddingDimensions}
}

// Migrate creates or ensures the stories table, pgvector extension, and
// indexes exist. It is idempotent and safe to call on every start.
func (a *Archive) Migrate(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, ddl(a.dims)); err != nil {
		return fmt.Errorf("archive: migrate: %w", err)
	}
	return nil
}

// Save persists an accepted story with its summary and summary embedding.
// A nil embedding is allowed; the story is then invisible to Similar but
// still listed by learner and series. Saving the same story ID twice
// replaces the row.
func (a *Archive) Save(ctx context.Context, story *storygen.Story, summary string, embedding []float32) error {
	if story == nil {
		return fmt.Errorf("archive: story must not be nil")
	}
	if story.ID == uuid.Nil {
		return fmt.Errorf("archive: story id must not be zero")
	}

	pagesJSON, err := json.Marshal(story.Pages)
	if err != nil {
		return fmt.Errorf("archive: marshal pages: %w", err)
	}
	charsJSON, err := json.Marshal(emptySlice(story.Characters))
	if err != nil {
		return fmt.Errorf("archive: marshal characters: %w", err)
	}

	var tokenScore float64
	if story.Report != nil {
		tokenScore = story.Report.TokenScore
	}

	var vec any
	if embedding != nil {
		v := pgvector.NewVector(embedding)
		vec = v
	}

	const q = `
		INSERT INTO stories (
			id, learner_id, series_id, title, pages, characters, structure,
			summary, token_score, attempts, total_tokens, summary_embedding, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			learner_id        = EXCLUDED.learner_id,
			series_id         = EXCLUDED.series_id,
			title             = EXCLUDED.title,
			pages             = EXCLUDED.pages,
			characters        = EXCLUDED.characters,
			structure         = EXCLUDED.structure,
			summary           = EXCLUDED.summary,
			token_score       = EXCLUDED.token_score,
			attempts          = EXCLUDED.attempts,
			total_tokens      = EXCLUDED.total_tokens,
			summary_embedding = EXCLUDED.summary_embedding,
			created_at        = EXCLUDED.created_at`

	_, err = a.db.Exec(ctx, q,
		story.ID, story.LearnerID, story.SeriesID, story.Title,
		pagesJSON, charsJSON, story.Structure,
		summary, tokenScore, story.Attempts, story.Cost.TotalTokens,
		vec, story.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive: save: %w", err)
	}
	return nil
}

// Get retrieves an archived story by ID. It returns (nil, nil) if no story
// with the given ID exists.
func (a *Archive) Get(ctx context.Context, id uuid.UUID) (*StoredStory, error) {
	const q = `
		SELECT id, learner_id, series_id, title, pages, characters, structure,
		       summary, token_score, attempts, total_tokens, created_at
		FROM stories
		WHERE id = $1`

	var st StoredStory
	var pagesJSON, charsJSON []byte

	err := a.db.QueryRow(ctx, q, id).Scan(
		&st.ID, &st.LearnerID, &st.SeriesID, &st.Title,
		&pagesJSON, &charsJSON, &st.Structure,
		&st.Summary, &st.TokenScore, &st.Attempts, &st.TotalTokens, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: get %s: %w", id, err)
	}

	if err := json.Unmarshal(pagesJSON, &st.Pages); err != nil {
		return nil, fmt.Errorf("archive: unmarshal pages: %w", err)
	}
	if err := json.Unmarshal(charsJSON, &st.Characters); err != nil {
		return nil, fmt.Errorf("archive: unmarshal characters: %w", err)
	}
	return &st, nil
}

// List returns a learner's archived stories, newest first, optionally
// restricted to one series. limit <= 0 means no limit.
func (a *Archive) List(ctx context.Context, learnerID, seriesID string, limit int) ([]StoredStory, error) {
	q := `
		SELECT id, learner_id, series_id, title, pages, characters, structure,
		       summary, token_score, attempts, total_tokens, created_at
		FROM stories
		WHERE learner_id = $1`
	args := []any{learnerID}
	if seriesID != "" {
		args = append(args, seriesID)
		q += fmt.Sprintf(" AND series_id = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := a.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var stories []StoredStory
	for rows.Next() {
		var st StoredStory
		var pagesJSON, charsJSON []byte

		if err := rows.Scan(
			&st.ID, &st.LearnerID, &st.SeriesID, &st.Title,
			&pagesJSON, &charsJSON, &st.Structure,
			&st.Summary, &st.TokenScore, &st.Attempts, &st.TotalTokens, &st.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("archive: list scan: %w", err)
		}
		if err := json.Unmarshal(pagesJSON, &st.Pages); err != nil {
			return nil, fmt.Errorf("archive: unmarshal pages: %w", err)
		}
		if err := json.Unmarshal(charsJSON, &st.Characters); err != nil {
			return nil, fmt.Errorf("archive: unmarshal characters: %w", err)
		}
		stories = append(stories, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	return stories, nil
}

// RecentSummaries returns the newest story summaries for a learner's series,
// the form the prompt builder consumes as prior-story context. Stories with
// empty summaries are skipped.
func (a *Archive) RecentSummaries(ctx context.Context, learnerID, seriesID string, limit int) ([]string, error) {
	stories, err := a.List(ctx, learnerID, seriesID, limit)
	if err != nil {
		return nil, err
	}
	var summaries []string
	for _, st := range stories {
		if st.Summary != "" {
			summaries = append(summaries, st.Summary)
		}
	}
	return summaries, nil
}

// Similar finds the topK archived stories whose summary embeddings are
// closest (cosine distance) to the supplied query embedding, optionally
// restricted by filter. Stories saved without an embedding are never
// returned.
//
// Results are ordered by ascending cosine distance (most similar first).
func (a *Archive) Similar(ctx context.Context, embedding []float32, topK int, filter Filter) ([]SimilarStory, error) {
	queryVec := pgvector.NewVector(embedding)

	args := []any{queryVec} // $1 = query vector
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"summary_embedding IS NOT NULL"}
	if filter.LearnerID != "" {
		conditions = append(conditions, "learner_id = "+next(filter.LearnerID))
	}
	if filter.SeriesID != "" {
		conditions = append(conditions, "series_id = "+next(filter.SeriesID))
	}

	args = append(args, topK)
	limitArg := fmt.Sprintf("$%d", len(args))

	q := fmt.Sprintf(`
		SELECT id, title, summary,
		       summary_embedding <=> $1 AS distance
		FROM   stories
		WHERE  %s
		ORDER  BY distance
		LIMIT  %s`, strings.Join(conditions, "\n  AND "), limitArg)

	rows, err := a.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: similar: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SimilarStory, error) {
		var ss SimilarStory
		if err := row.Scan(&ss.ID, &ss.Title, &ss.Summary, &ss.Distance); err != nil {
			return SimilarStory{}, err
		}
		return ss, nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: scan rows: %w", err)
	}
	if results == nil {
		results = []SimilarStory{}
	}
	return results, nil
}

// Delete removes an archived story by ID. Deleting a non-existent story is
// not an error.
func (a *Archive) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM stories WHERE id = $1`
	if _, err := a.db.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("archive: delete %s: %w", id, err)
	}
	return nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
