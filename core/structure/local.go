package structure

import (
	"bufio"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/normalize"
)

// Local structures Markdown-like text without calling a service. Headings,
// lists and block quotes map onto section kinds; "Title:", "Subtitle:" and
// "Author:" lines at the top fill the document fields. The mode is
// accepted but the text is never rewritten.
type Local struct {
	md goldmark.Markdown
}

// NewLocal creates an offline structurer.
func NewLocal() *Local {
	return &Local{md: goldmark.New()}
}

// Structure implements core.Structurer.
func (l *Local) Structure(_ context.Context, input, _ string, _ core.Mode) (*normalize.Candidate, error) {
	c := &normalize.Candidate{Sections: []normalize.RawSection{}}
	body := l.header(input, c)

	src := []byte(body)
	root := l.md.Parser().Parse(text.NewReader(src))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *gmast.Heading:
			t := inlineText(node, src)
			switch {
			case node.Level == 1 && c.Title == nil:
				c.Title = t
			case node.Level <= 2:
				c.Sections = append(c.Sections, raw(model.KindHeading, t))
			default:
				c.Sections = append(c.Sections, raw(model.KindSubheading, t))
			}
		case *gmast.Paragraph:
			t := inlineText(node, src)
			if t == "" || t == "[图片]" {
				continue
			}
			c.Sections = append(c.Sections, raw(model.KindParagraph, t))
		case *gmast.List:
			kind := model.KindBulletList
			if node.IsOrdered() {
				kind = model.KindNumberedList
			}
			var items []any
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				items = append(items, inlineText(item, src))
			}
			c.Sections = append(c.Sections, normalize.RawSection{Type: string(kind), Content: items})
		case *gmast.Blockquote:
			c.Sections = append(c.Sections, raw(model.KindQuote, inlineText(node, src)))
		case *gmast.FencedCodeBlock, *gmast.CodeBlock:
			c.Sections = append(c.Sections, raw(model.KindParagraph, blockLines(n, src)))
		}
	}
	if c.Title == nil {
		c.Title = ""
	}
	return c, nil
}

func raw(kind model.Kind, s string) normalize.RawSection {
	return normalize.RawSection{Type: string(kind), Content: s}
}

// header consumes leading field lines and returns the rest of the input.
func (l *Local) header(input string, c *normalize.Candidate) string {
	var rest strings.Builder
	inHeader := true
	sc := bufio.NewScanner(strings.NewReader(input))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if inHeader {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if v, ok := field(trimmed, "Title:"); ok {
				c.Title = v
				continue
			}
			if v, ok := field(trimmed, "Subtitle:"); ok {
				c.Subtitle = v
				continue
			}
			if v, ok := field(trimmed, "Author:"); ok {
				c.Author = v
				continue
			}
			inHeader = false
		}
		rest.WriteString(line)
		rest.WriteByte('\n')
	}
	return rest.String()
}

func field(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

// inlineText concatenates the text of every inline under n. Soft line
// breaks become spaces.
func inlineText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		case *gmast.AutoLink:
			b.Write(t.URL(src))
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func blockLines(n gmast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimSpace(b.String())
}
