package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Document is the unit the editing session owns. Rendering code never
// mutates it; edits go through the operations in ops.go which return a
// fresh copy.
type Document struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Author   string    `json:"author,omitempty"`
	Sections []Section `json:"sections"`
}

// Default returns the skeleton a new session starts with.
func Default() *Document {
	return &Document{
		Sections: []Section{NewSection(KindParagraph, TextContent(""))},
	}
}

// Blank returns the skeleton installed by a reset.
func Blank() *Document {
	return &Document{
		Title:    "新文档",
		Sections: []Section{NewSection(KindParagraph, TextContent("在此输入内容..."))},
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Sections = make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		c.Sections[i] = s.clone()
	}
	return &c
}

// Kinds returns the ordered sequence of section kinds.
func (d *Document) Kinds() []Kind {
	kinds := make([]Kind, len(d.Sections))
	for i, s := range d.Sections {
		kinds[i] = s.Kind
	}
	return kinds
}

// PlainText serializes the document into the plain form handed to the
// structuring service: labelled header lines, one block per section, list
// items as "- item" lines and images as a marker.
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", d.Title)
	}
	if d.Subtitle != "" {
		fmt.Fprintf(&b, "Subtitle: %s\n", d.Subtitle)
	}
	if d.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n\n", d.Author)
	}
	for _, s := range d.Sections {
		switch {
		case s.Kind.IsList():
			for _, item := range s.Items {
				fmt.Fprintf(&b, "- %s\n", item)
			}
		case s.Kind == KindImage:
			b.WriteString("\n[图片]\n")
		default:
			fmt.Fprintf(&b, "%s\n\n", s.Text)
		}
	}
	return b.String()
}

// Decode reads a JSON document. A JSON export snapshot, which nests the
// document under "document", is accepted too.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	var snap struct {
		Document json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if len(snap.Document) > 0 && string(snap.Document) != "null" {
		data = snap.Document
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &d, nil
}

// Load reads a JSON document from path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes d to path as indented JSON.
func Save(path string, d *Document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing document %s: %w", path, err)
	}
	return nil
}
