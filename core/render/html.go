// Package render: flat HTML projector.
// Renders the canvas, strips editor chrome through the extractor and wraps
// the printable root in a standalone page. The only external reference
// left is the web font stylesheet.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/extract"
	"github.com/gaurav-prasanna/smartdoc/core/i18n"
)

type flatView struct {
	Lang       string
	Title      string
	FontsURL   string
	Stylesheet template.CSS
	BodyCSS    template.CSS
	Root       template.HTML
}

// HTMLProjector produces the self-contained flat HTML export.
type HTMLProjector struct {
	extractor *extract.Extractor
}

// NewHTMLProjector creates an HTMLProjector.
func NewHTMLProjector() *HTMLProjector {
	return &HTMLProjector{extractor: extract.New()}
}

// Project renders in and returns the standalone document.
func (p *HTMLProjector) Project(ctx context.Context, in *core.Input) ([]byte, error) {
	root, err := p.Root(ctx, in)
	if err != nil {
		return nil, err
	}

	cat := catalogOf(in)
	bg := in.Background
	if bg == nil {
		bg = cat.BackgroundOrDefault("")
	}
	lang := in.Lang
	if lang == language.Und {
		lang = i18n.Default
	}
	title := "SmartDoc"
	if in.Document != nil {
		title = titleOr(in.Document.Title, title)
	}

	v := flatView{
		Lang:       lang.String(),
		Title:      title,
		FontsURL:   FontsURL,
		Stylesheet: template.CSS(stylesheet),
		BodyCSS:    template.CSS(fmt.Sprintf("font-family:%s;background-color:%s;", cat.FontStack("sans"), bg.Color)),
		Root:       template.HTML(root),
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "flat", v); err != nil {
		return nil, fmt.Errorf("rendering flat HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// Root renders the canvas unscaled and returns the cleaned printable root.
func (p *HTMLProjector) Root(ctx context.Context, in *core.Input) (string, error) {
	view := *in
	view.Zoom = 1
	view.Editor = true
	markup, err := NewCanvasProjector().Project(ctx, &view)
	if err != nil {
		return "", err
	}
	return p.extractor.Extract(string(markup))
}

// Extension returns the file extension for flat HTML output.
func (p *HTMLProjector) Extension() string {
	return ".html"
}
