package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/smartdoc/core"
)

const canvas = `<html><body>
<div class="toolbar">zoom</div>
<div id="printable-root" contenteditable="true">
  <div class="page-guide editor-only">page 2</div>
  <h1 contenteditable="true" spellcheck="false">Title</h1>
  <section data-kind="paragraph"><p contenteditable="true">Body</p>
    <button class="delete-section-btn no-export">x</button></section>
  <section data-kind="quote"><blockquote>Q</blockquote></section>
  <span class="print:hidden">hint</span>
  <div data-editor-only>ruler</div>
  <script>alert(1)</script>
</div>
</body></html>`

func TestExtract(t *testing.T) {
	out, err := New().Extract(canvas)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find(core.RootSelector).Length())
	assert.Zero(t, doc.Find(".delete-section-btn").Length())
	assert.Zero(t, doc.Find(".editor-only").Length())
	assert.Zero(t, doc.Find("[data-editor-only]").Length())
	assert.Zero(t, doc.Find("script").Length())
	assert.Zero(t, doc.Find("[contenteditable]").Length())
	assert.NotContains(t, out, "hint")
	assert.NotContains(t, out, "toolbar")
	assert.Contains(t, out, "Body")
	assert.Contains(t, out, "<blockquote>Q</blockquote>")
}

func TestExtractMissingRoot(t *testing.T) {
	_, err := New().Extract("<p>nothing</p>")
	assert.ErrorIs(t, err, core.ErrRootNotFound)
}

func TestKinds(t *testing.T) {
	kinds, err := Kinds(canvas)
	require.NoError(t, err)
	assert.Equal(t, []string{"paragraph", "quote"}, kinds)
}
