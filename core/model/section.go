// Package model holds the canonical, backend-agnostic document representation
// shared by pagination, style resolution and every projector.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the structural role of a Section.
type Kind string

const (
	KindHeading      Kind = "heading"
	KindSubheading   Kind = "subheading"
	KindParagraph    Kind = "paragraph"
	KindBulletList   Kind = "bullet_list"
	KindNumberedList Kind = "numbered_list"
	KindQuote        Kind = "quote"
	KindImage        Kind = "image"
)

// Kinds lists the recognized section kinds in declaration order.
var Kinds = []Kind{
	KindHeading, KindSubheading, KindParagraph,
	KindBulletList, KindNumberedList, KindQuote, KindImage,
}

// ParseKind lowercases and trims s. Unrecognized values are kept as-is so
// they can be rendered as a visible placeholder later.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// IsList reports whether sections of this kind carry a sequence of items.
func (k Kind) IsList() bool {
	return k == KindBulletList || k == KindNumberedList
}

// Known reports whether k is one of the recognized kinds.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ItemSeparator delimits list items when list content arrives as one string.
const ItemSeparator = "|"

// SplitItems turns a pipe-delimited string into trimmed list items. The
// result always has 1 + strings.Count(s, "|") elements.
func SplitItems(s string) []string {
	parts := strings.Split(s, ItemSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Content is the payload of a section: Text for every kind except lists,
// Items for bullet_list and numbered_list.
type Content struct {
	Text  string
	Items []string
}

// TextContent wraps a single string.
func TextContent(s string) Content { return Content{Text: s} }

// ItemsContent wraps a list of items.
func ItemsContent(items ...string) Content { return Content{Items: items} }

// Section is one structural unit of the document.
//
// Items is populated if and only if Kind.IsList(); Text otherwise. For
// images Text holds the URL or data reference and Alt the caption.
type Section struct {
	Kind  Kind
	Text  string
	Items []string
	Alt   string
}

// NewSection builds a section of the given kind, coercing content to the
// shape the kind requires.
func NewSection(kind Kind, c Content) Section {
	s := Section{Kind: kind}
	s.SetContent(c)
	return s
}

// NewImage builds an image section.
func NewImage(url, alt string) Section {
	return Section{Kind: KindImage, Text: url, Alt: alt}
}

// SetContent replaces the section payload, keeping the kind/content-shape
// invariant: list kinds split a lone string on "|", other kinds join items
// with a space.
func (s *Section) SetContent(c Content) {
	if s.Kind.IsList() {
		switch {
		case c.Items != nil:
			s.Items = append([]string(nil), c.Items...)
		default:
			s.Items = SplitItems(c.Text)
		}
		s.Text = ""
		return
	}
	if c.Items != nil {
		s.Text = strings.Join(c.Items, " ")
	} else {
		s.Text = c.Text
	}
	s.Items = nil
}

// Content returns the section payload.
func (s Section) Content() Content {
	if s.Kind.IsList() {
		return Content{Items: append([]string(nil), s.Items...)}
	}
	return Content{Text: s.Text}
}

func (s Section) clone() Section {
	if s.Items != nil {
		s.Items = append([]string(nil), s.Items...)
	}
	return s
}

// wireSection is the JSON shape exchanged with collaborators and saved to
// disk: {"type": "...", "content": "..." | [...], "alt": "..."}.
type wireSection struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
	Alt     string          `json:"alt,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Section) MarshalJSON() ([]byte, error) {
	var content any = s.Text
	if s.Kind.IsList() {
		items := s.Items
		if items == nil {
			items = []string{}
		}
		content = items
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireSection{Type: string(s.Kind), Content: raw, Alt: s.Alt})
}

// UnmarshalJSON implements json.Unmarshaler. It accepts either a string or
// an array of strings as content and coerces it to the kind's shape.
func (s *Section) UnmarshalJSON(data []byte) error {
	var w wireSection
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var c Content
	raw := bytes.TrimSpace(w.Content)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &c.Items); err != nil {
			return fmt.Errorf("section content: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &c.Text); err != nil {
			return fmt.Errorf("section content: %w", err)
		}
	}
	kind := ParseKind(w.Type)
	if kind == "" {
		kind = KindParagraph
	}
	*s = NewSection(kind, c)
	s.Alt = w.Alt
	return nil
}
