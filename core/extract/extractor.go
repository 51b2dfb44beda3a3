// Package extract isolates the exportable document from rendered canvas
// markup by:
//  1. Finding the printable root
//  2. Removing editor-only chrome (delete buttons, page guides, scripts)
//  3. Dropping editing attributes so the result is static
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/smartdoc/core"
)

// EditorOnlySelectors mark elements that exist only for editing and never
// reach an export.
var EditorOnlySelectors = []string{
	".delete-section-btn",
	".no-export",
	".editor-only",
	`.print\:hidden`,
	"[data-editor-only]",
	"script",
	"noscript",
}

// editingAttrs are removed from every remaining element.
var editingAttrs = []string{"contenteditable", "spellcheck", "data-placeholder", "data-endpoint", "suppresscontenteditablewarning"}

// Extractor strips editor chrome and returns the printable root.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract takes rendered canvas markup and returns the cleaned outer HTML
// of the printable root.
func (e *Extractor) Extract(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	root := doc.Find(core.RootSelector).First()
	if root.Length() == 0 {
		return "", core.ErrRootNotFound
	}
	Clean(root)

	var b strings.Builder
	for _, n := range root.Nodes {
		if err := html.Render(&b, n); err != nil {
			return "", fmt.Errorf("serializing content: %w", err)
		}
	}
	return b.String(), nil
}

// Clean removes editor-only elements and editing attributes below sel, in
// place.
func Clean(sel *goquery.Selection) {
	for _, s := range EditorOnlySelectors {
		sel.Find(s).Remove()
	}
	all := sel.Find("*").AddSelection(sel)
	for _, attr := range editingAttrs {
		all.RemoveAttr(attr)
	}
}

// Kinds returns the data-kind sequence of the section elements under the
// printable root, in document order.
func Kinds(markup string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	root := doc.Find(core.RootSelector).First()
	if root.Length() == 0 {
		return nil, core.ErrRootNotFound
	}
	var kinds []string
	root.Find("[data-kind]").Each(func(_ int, s *goquery.Selection) {
		kinds = append(kinds, s.AttrOr("data-kind", ""))
	})
	return kinds, nil
}
