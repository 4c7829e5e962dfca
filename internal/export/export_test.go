package export

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/storygen"
)

func sampleStory() *storygen.Story {
	return &storygen.Story{
		ID:    uuid.New(),
		Title: "Sam Naps",
		Pages: []storygen.Page{
			{Number: 1, Text: "sam sat on a mat"},
			{Number: 2, Text: "sam naps in a *tin*"},
		},
		Characters: []string{"Sam"},
		Structure:  "Sam the cat finds a spot to nap.",
	}
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	html, err := FromStory(sampleStory()).HTML()
	if err != nil {
		t.Fatalf("HTML() unexpected error: %v", err)
	}
	doc := string(html)

	for _, want := range []string{
		"<title>Sam Naps</title>",
		"<h1>Sam Naps</h1>",
		"sam sat on a mat",
		"<em>tin</em>", // markdown emphasis rendered
		"Sam the cat finds a spot to nap.",
		"Starring Sam",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}

	if got := strings.Count(doc, `class="sheet"`); got != 2 {
		t.Errorf("story sheets = %d, want 2", got)
	}
}

func TestWriteHTML_EscapesTitle(t *testing.T) {
	t.Parallel()

	story := sampleStory()
	story.Title = `<script>alert("x")</script>`
	html, err := FromStory(story).HTML()
	if err != nil {
		t.Fatalf("HTML() unexpected error: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Error("title must be HTML-escaped")
	}
}

func TestFromStored(t *testing.T) {
	t.Parallel()

	stored := &archive.StoredStory{
		ID:    uuid.New(),
		Title: "Sam Naps",
		Pages: []storygen.Page{{Number: 1, Text: "sam sat"}},
		// Summary wins over structure when present.
		Structure: "structure line",
		Summary:   "summary line",
	}
	b := FromStored(stored)
	if b.Summary != "summary line" {
		t.Errorf("summary = %q, want the archive summary", b.Summary)
	}

	stored.Summary = ""
	if b := FromStored(stored); b.Summary != "structure line" {
		t.Errorf("summary = %q, want fallback to structure", b.Summary)
	}
}
