// Package normalize converts the loosely-typed output of the structuring
// service into a canonical model.Document. The service may return kinds in
// any case, lists as pipe-delimited strings, text as arrays and stray
// markup; all of it is coerced here so nothing downstream has to care.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/gaurav-prasanna/smartdoc/core/model"
)

var (
	// ErrMalformed is returned when the response is not a JSON object.
	ErrMalformed = errors.New("malformed structuring response")
	// ErrNoSections is returned when the response has no sections array.
	ErrNoSections = errors.New("structuring response has no sections")
)

// Candidate is the raw response of the structuring service.
type Candidate struct {
	Title    any          `json:"title"`
	Subtitle any          `json:"subtitle"`
	Author   any          `json:"author"`
	Sections []RawSection `json:"sections"`
}

// RawSection is one section before normalization.
type RawSection struct {
	Type    any `json:"type"`
	Content any `json:"content"`
	Alt     any `json:"alt,omitempty"`
}

// Parse decodes a response body. Code fences around the JSON are tolerated.
func Parse(data []byte) (*Candidate, error) {
	data = stripFence(bytes.TrimSpace(data))
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrMalformed
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, ok := probe["sections"]; !ok {
		return nil, ErrNoSections
	}
	var c Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if c.Sections == nil {
		return nil, ErrNoSections
	}
	return &c, nil
}

func stripFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}

// Normalizer applies the coercion rules.
type Normalizer struct {
	policy *bluemonday.Policy
}

// New creates a Normalizer that strips all markup.
func New() *Normalizer {
	return &Normalizer{policy: bluemonday.StrictPolicy()}
}

// Document converts c into a canonical document.
func (n *Normalizer) Document(c *Candidate) (*model.Document, error) {
	if c == nil {
		return nil, ErrMalformed
	}
	if c.Sections == nil {
		return nil, ErrNoSections
	}
	d := &model.Document{
		Title:    n.text(c.Title),
		Subtitle: n.text(c.Subtitle),
		Author:   n.text(c.Author),
		Sections: make([]model.Section, 0, len(c.Sections)),
	}
	for _, raw := range c.Sections {
		d.Sections = append(d.Sections, n.section(raw))
	}
	return d, nil
}

// Normalize parses and converts a response body in one step.
func (n *Normalizer) Normalize(data []byte) (*model.Document, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return n.Document(c)
}

func (n *Normalizer) section(raw RawSection) model.Section {
	kind := model.ParseKind(stringify(raw.Type))
	if kind == "" {
		kind = model.KindParagraph
	}
	s := model.Section{Kind: kind, Alt: n.text(raw.Alt)}
	if kind.IsList() {
		s.Items = n.items(raw.Content)
		return s
	}
	if arr, ok := raw.Content.([]any); ok {
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = stringify(v)
		}
		s.Text = n.clean(strings.Join(parts, " "))
		return s
	}
	s.Text = n.text(raw.Content)
	return s
}

func (n *Normalizer) items(v any) []string {
	switch c := v.(type) {
	case []any:
		out := make([]string, len(c))
		for i, item := range c {
			out[i] = n.text(item)
		}
		return out
	case string:
		out := model.SplitItems(c)
		for i := range out {
			out[i] = n.clean(out[i])
		}
		return out
	default:
		return []string{n.text(v)}
	}
}

func (n *Normalizer) text(v any) string {
	return n.clean(stringify(v))
}

// clean strips injected markup, unescapes entities and applies NFC. Text
// that merely looks like a tag, such as "a<b and c>d" or "<name>", is kept.
func (n *Normalizer) clean(s string) string {
	switch {
	case strings.Contains(s, "<"):
		s = html.UnescapeString(n.policy.Sanitize(markupOnly(s)))
	case strings.Contains(s, "&"):
		s = html.UnescapeString(s)
	}
	return strings.TrimSpace(norm.NFC.String(s))
}

// markupTags are the elements treated as markup. Any other tag-like text
// is prose.
var markupTags = map[string]bool{
	"a": true, "b": true, "blockquote": true, "br": true, "code": true,
	"del": true, "div": true, "em": true, "font": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "i": true, "img": true, "ins": true, "li": true,
	"mark": true, "ol": true, "p": true, "pre": true, "s": true,
	"script": true, "small": true, "span": true, "strong": true, "style": true,
	"sub": true, "sup": true, "table": true, "tbody": true, "td": true,
	"th": true, "thead": true, "tr": true, "u": true, "ul": true,
}

// markupOnly rewrites s so that only well-formed tags of markupTags remain
// as markup; every other byte is escaped and survives sanitizing as text.
func markupOnly(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	consumed := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return html.EscapeString(s)
			}
			break
		}
		raw := string(z.Raw())
		consumed += len(raw)
		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			if isMarkup(z) {
				b.WriteString(raw)
				continue
			}
			b.WriteString(html.EscapeString(html.UnescapeString(raw)))
		case html.CommentToken, html.DoctypeToken:
			b.WriteString(raw)
		default:
			b.WriteString(html.EscapeString(html.UnescapeString(raw)))
		}
	}
	if consumed < len(s) {
		b.WriteString(html.EscapeString(html.UnescapeString(s[consumed:])))
	}
	return b.String()
}

// isMarkup reports whether the current tag is a known element whose
// attributes all carry values.
func isMarkup(z *html.Tokenizer) bool {
	name, hasAttr := z.TagName()
	if !markupTags[string(name)] {
		return false
	}
	for hasAttr {
		var val []byte
		_, val, hasAttr = z.TagAttr()
		if len(val) == 0 {
			return false
		}
	}
	return true
}

// stringify renders a JSON scalar as text. Missing and null values become
// the empty string.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = stringify(p)
		}
		return strings.Join(parts, " ")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
