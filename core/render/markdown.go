// Package render: Markdown projector.
// Converts the flat HTML root into Markdown. Page overlays and decorative
// glyphs are dropped first so only the section flow remains.
package render

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/smartdoc/core"
)

// decorations never carry document text.
var decorations = []string{".sd-overlays", ".sd-texture", ".sd-quote-mark", ".sd-rule"}

// MarkdownProjector writes Markdown.
type MarkdownProjector struct {
	html *HTMLProjector
}

// NewMarkdownProjector creates a MarkdownProjector.
func NewMarkdownProjector() *MarkdownProjector {
	return &MarkdownProjector{html: NewHTMLProjector()}
}

// Project renders the flat HTML root and converts it to Markdown.
func (p *MarkdownProjector) Project(ctx context.Context, in *core.Input) ([]byte, error) {
	root, err := p.html.Root(ctx, in)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(root))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	for _, sel := range decorations {
		doc.Find(sel).Remove()
	}
	content, err := doc.Find(core.RootSelector).Html()
	if err != nil {
		return nil, fmt.Errorf("serializing content: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return []byte(strings.TrimSpace(markdown) + "\n"), nil
}

// Extension returns the file extension for Markdown output.
func (p *MarkdownProjector) Extension() string {
	return ".md"
}
