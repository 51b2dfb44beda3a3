// Package docx writes WordprocessingML (.docx) packages from a small
// paragraph/run model. It covers what a formatted document needs: styled
// paragraphs, borders, indents, bullet and decimal lists that restart per
// list, and inline images.
package docx

import "time"

// Units used throughout the package.
const (
	// TwipsPerInch converts inches to twentieths of a point.
	TwipsPerInch = 1440
	// EMUPerPixel converts 96 dpi pixels to English Metric Units.
	EMUPerPixel = 9525
)

// Align is a paragraph justification value.
type Align string

const (
	AlignDefault Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignBoth    Align = "both"
)

// Document is a single-section word-processor document.
type Document struct {
	Title   string
	Creator string
	Created time.Time
	// MarginTwips applies to all four page edges.
	MarginTwips int
	Paragraphs  []Paragraph
}

// Border is a single paragraph border line.
type Border struct {
	Color string // RRGGBB
	Size  int    // eighths of a point
	Space int    // points
}

// List places a paragraph in a list. Paragraphs sharing an Instance
// continue one list; a new Instance restarts numbering.
type List struct {
	Numbered bool
	Instance int
}

// Paragraph is one block of runs.
type Paragraph struct {
	Style         string // paragraph style id, e.g. "Heading2"
	Align         Align
	SpacingBefore int // twips
	SpacingAfter  int // twips
	Line          int // line spacing in 240ths of a line, 0 for default
	IndentLeft    int // twips
	BorderBottom  *Border
	List          *List
	Runs          []Run
}

// Run is a span of uniformly formatted text, or an inline image.
type Run struct {
	Text       string
	Font       string
	SizeHalfPt int
	Bold       bool
	Italic     bool
	Color      string // RRGGBB
	Image      *Image
}

// Image is an inline picture. Width and Height are the display size in
// pixels.
type Image struct {
	Data   []byte
	Ext    string
	Width  int
	Height int
	Descr  string
}

// Text returns the concatenated text of the paragraph's runs.
func (p Paragraph) Text() string {
	var s string
	for _, r := range p.Runs {
		s += r.Text
	}
	return s
}
