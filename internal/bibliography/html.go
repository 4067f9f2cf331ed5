// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

// defaultCitationTemplate formats one citation line. Every field is
// registry-supplied text and is escaped by html/template; only the
// markup written here reaches the output unescaped.
const defaultCitationTemplate = `{{.Authors}}{{if .Year}} ({{.Year}}){{end}} {{.Title}}.` +
	`{{if .Journal}} <em>{{.Journal}}</em>{{end}}` +
	`{{if .Volume}} <strong>{{.Volume}}</strong>{{end}}` +
	`{{if .Pages}}:{{.Pages}}{{end}}` +
	`{{if .DOI}} doi:<a href="https://doi.org/{{.DOI}}">{{.DOI}}</a>{{end}}`

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<title>{{.Title}}</title>
</head>
<body>
{{- range .Bib.Categories}}
<h1>{{.Heading}}</h1>
{{- range .Groups}}
<h2>{{.Heading}}</h2>
<ol>
{{- range .Entries}}
<li>{{citation .}}</li>
{{- end}}
</ol>
{{- end}}
{{- end}}
</body>
</html>
`

// Heading returns the category display heading: the English name for
// known categories, the raw code otherwise.
func (g CategoryGroup) Heading() string {
	if g.Category != types.CategoryUnknown {
		return g.Category.DisplayName()
	}
	return g.Code
}

// Heading returns the year heading, "Undated" for the year-0 bucket.
func (g YearGroup) Heading() string {
	if g.Year == 0 {
		return "Undated"
	}
	return strconv.Itoa(g.Year)
}

// citationData feeds the citation template with pre-formatted strings.
type citationData struct {
	Authors string
	Year    string
	Title   string
	Journal string
	Volume  string
	Pages   string
	DOI     string
}

// Renderer emits a grouped bibliography as a self-contained HTML
// document. It has no side effects; writing the result anywhere is the
// caller's responsibility.
type Renderer struct {
	title string
	doc   *template.Template
	cite  *template.Template
}

// NewRenderer parses the document and citation templates. An empty
// citation template in the config selects the built-in format.
func NewRenderer(cfg types.RenderConfig) (*Renderer, error) {
	citeSrc := cfg.CitationTemplate
	if citeSrc == "" {
		citeSrc = defaultCitationTemplate
	}
	cite, err := template.New("citation").Parse(citeSrc)
	if err != nil {
		return nil, fmt.Errorf("parsing citation template: %w", err)
	}

	r := &Renderer{title: cfg.Title, cite: cite}
	if r.title == "" {
		r.title = "Publications"
	}

	doc, err := template.New("document").Funcs(template.FuncMap{
		"citation": r.citation,
	}).Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	r.doc = doc
	return r, nil
}

// citation renders one entry through the citation template. The result
// is marked trusted HTML: all data flowing into it has already been
// escaped by the citation template itself.
func (r *Renderer) citation(p types.Publication) (template.HTML, error) {
	data := citationData{
		Authors: FormatAuthors(p.Authors),
		Title:   p.Title,
		Journal: p.Journal,
		Volume:  p.Volume,
		Pages:   FormatPages(p),
		DOI:     p.DOI,
	}
	if p.Year > 0 {
		data.Year = strconv.Itoa(p.Year)
	}

	var buf bytes.Buffer
	if err := r.cite.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering citation for %q: %w", p.ID, err)
	}
	return template.HTML(buf.String()), nil
}

// Render returns the complete HTML document for the bibliography. An
// empty bibliography still yields a valid, minimal document.
func (r *Renderer) Render(bib GroupedBibliography) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Title string
		Bib   GroupedBibliography
	}{Title: r.title, Bib: bib}

	if err := r.doc.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering document: %w", err)
	}
	return buf.String(), nil
}
