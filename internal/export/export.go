// Package export renders accepted stories into a single printable HTML book.
//
// Page text may carry light markdown emphasis (the prompt allows *italics*
// for sounded-out words); it is rendered with goldmark. Everything else is
// HTML-escaped through html/template.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"github.com/readlark/readlark/internal/archive"
	"github.com/readlark/readlark/internal/storygen"
)

// Page is one rendered book page.
type Page struct {
	Number int
	Text   string
}

// Book is the exportable view of a story, independent of whether it came
// fresh from the generator or out of the archive.
type Book struct {
	Title      string
	Characters []string
	Summary    string
	Pages      []Page
}

// FromStory builds a Book from a freshly generated story.
func FromStory(s *storygen.Story) Book {
	pages := make([]Page, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = Page{Number: p.Number, Text: p.Text}
	}
	return Book{
		Title:      s.Title,
		Characters: s.Characters,
		Summary:    s.Structure,
		Pages:      pages,
	}
}

// FromStored builds a Book from an archived story.
func FromStored(s *archive.StoredStory) Book {
	pages := make([]Page, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = Page{Number: p.Number, Text: p.Text}
	}
	summary := s.Summary
	if summary == "" {
		summary = s.Structure
	}
	return Book{
		Title:      s.Title,
		Characters: s.Characters,
		Summary:    summary,
		Pages:      pages,
	}
}

// bookTemplate is the printable shell: one title page, then one sheet per
// story page with a page-break after each.
var bookTemplate = template.Must(template.New("book").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, serif; margin: 0; }
  .sheet { min-height: 100vh; display: flex; flex-direction: column;
           justify-content: center; align-items: center; padding: 2em;
           page-break-after: always; box-sizing: border-box; }
  .title-page h1 { font-size: 3em; margin-bottom: 0.2em; }
  .title-page .summary { font-style: italic; color: #555; }
  .page-text { font-size: 2em; line-height: 1.6; max-width: 22em; }
  .page-number { margin-top: auto; color: #999; }
</style>
</head>
<body>
<section class="sheet title-page">
  <h1>{{.Title}}</h1>
  {{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
  {{if .Characters}}<p class="characters">Starring {{range $i, $c := .Characters}}{{if $i}}, {{end}}{{$c}}{{end}}</p>{{end}}
</section>
{{range .Pages}}
<section class="sheet">
  <div class="page-text">{{.Body}}</div>
  <div class="page-number">{{.Number}}</div>
</section>
{{end}}
</body>
</html>
`))

// renderedPage pairs a page number with its markdown-rendered body.
type renderedPage struct {
	Number int
	Body   template.HTML
}

// WriteHTML renders the book as a standalone HTML document.
func (b Book) WriteHTML(w io.Writer) error {
	md := goldmark.New()

	pages := make([]renderedPage, len(b.Pages))
	for i, p := range b.Pages {
		var buf bytes.Buffer
		if err := md.Convert([]byte(p.Text), &buf); err != nil {
			return fmt.Errorf("export: render page %d: %w", p.Number, err)
		}
		pages[i] = renderedPage{Number: p.Number, Body: template.HTML(buf.String())}
	}

	data := struct {
		Title      string
		Summary    string
		Characters []string
		Pages      []renderedPage
	}{
		Title:      b.Title,
		Summary:    b.Summary,
		Characters: b.Characters,
		Pages:      pages,
	}
	if err := bookTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("export: render book: %w", err)
	}
	return nil
}

// HTML renders the book and returns the document bytes.
func (b Book) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.WriteHTML(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
