// Package style resolves a theme's heading variant and an element role into
// a concrete render contract. Resolution is a table lookup keyed by
// (variant, level) with one explicit entry per combination; it has no
// state and performs no I/O.
package style

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

// Level is the heading level a contract is resolved for.
type Level int

const (
	// MainTitle is the document title.
	MainTitle Level = iota
	// SectionHeading covers heading and subheading sections on the canvas.
	SectionHeading
)

func (l Level) String() string {
	if l == MainTitle {
		return "main-title"
	}
	return "section-heading"
}

// Typographic sizes in points. They are fixed and independent of zoom.
const (
	TitlePt      = 32.0
	SubtitlePt   = 20.0
	AuthorPt     = 14.0
	HeadingPt    = 22.0
	SubheadingPt = 18.0
	BodyPt       = 16.0
	BracketPt    = 18.0
	CaptionPt    = 12.0
	BandPt       = 10.0

	BodyLineHeight = 1.8
)

// Align is a horizontal alignment.
type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignJustify Align = "justify"
)

// BorderSide says where a decorative rule is drawn.
type BorderSide string

const (
	BorderNone   BorderSide = ""
	BorderBottom BorderSide = "bottom"
	BorderLeft   BorderSide = "left"
)

// ColorRole picks a colour from the theme at render time so contracts stay
// theme-independent.
type ColorRole int

const (
	RoleAccent ColorRole = iota
	RoleNeutral
)

// Border is a decorative rule.
type Border struct {
	Side    BorderSide
	WidthPx int
	Color   ColorRole
}

// Brackets are glyphs wrapped around heading text at their own size.
type Brackets struct {
	Open, Close string
	SizePt      float64
}

// Contract is everything a projector needs to draw one heading.
type Contract struct {
	Level   Level
	SizePt  float64
	Align   Align
	Border  Border
	Padding string // CSS padding shorthand, empty for none
	Inline  bool
	// Chip fills the heading with the accent colour and white text.
	Chip     bool
	Brackets *Brackets
}

// Text describes body-level typography.
type Text struct {
	SizePt          float64
	LineHeight      float64
	LetterSpacingEm float64
	Align           Align
}

// Body is the contract for paragraphs, list items and quotes.
func Body() Text {
	return Text{SizePt: BodyPt, LineHeight: BodyLineHeight, LetterSpacingEm: 0.02, Align: AlignJustify}
}

type key struct {
	variant theme.HeadingStyle
	level   Level
}

var (
	mainBase    = Contract{Level: MainTitle, SizePt: TitlePt, Align: AlignLeft}
	sectionBase = Contract{Level: SectionHeading, SizePt: HeadingPt, Align: AlignLeft}
)

func with(base Contract, f func(*Contract)) Contract {
	f(&base)
	return base
}

var table = map[key]Contract{
	{theme.HeadingSimple, MainTitle}:      mainBase,
	{theme.HeadingSimple, SectionHeading}: sectionBase,

	{theme.HeadingUnderlined, MainTitle}: with(mainBase, func(c *Contract) {
		c.Border = Border{Side: BorderBottom, WidthPx: 3, Color: RoleAccent}
		c.Padding = "0 0 12px 0"
	}),
	{theme.HeadingUnderlined, SectionHeading}: with(sectionBase, func(c *Contract) {
		c.Border = Border{Side: BorderBottom, WidthPx: 3, Color: RoleAccent}
		c.Padding = "0 0 12px 0"
	}),

	{theme.HeadingLeftBorder, MainTitle}: with(mainBase, func(c *Contract) {
		c.Border = Border{Side: BorderLeft, WidthPx: 10, Color: RoleAccent}
		c.Padding = "0 0 0 24px"
	}),
	{theme.HeadingLeftBorder, SectionHeading}: with(sectionBase, func(c *Contract) {
		c.Border = Border{Side: BorderLeft, WidthPx: 10, Color: RoleAccent}
		c.Padding = "0 0 0 24px"
	}),

	// boxed: the title stays plain and centered, only section headings
	// become a filled chip.
	{theme.HeadingBoxed, MainTitle}: with(mainBase, func(c *Contract) {
		c.Align = AlignCenter
	}),
	{theme.HeadingBoxed, SectionHeading}: with(sectionBase, func(c *Contract) {
		c.Inline = true
		c.Chip = true
		c.Padding = "8px 24px"
	}),

	{theme.HeadingHighlightBottom, MainTitle}: with(mainBase, func(c *Contract) {
		c.Inline = true
		c.Border = Border{Side: BorderBottom, WidthPx: 8, Color: RoleAccent}
		c.Padding = "0 0 4px 0"
	}),
	{theme.HeadingHighlightBottom, SectionHeading}: with(sectionBase, func(c *Contract) {
		c.Inline = true
		c.Border = Border{Side: BorderBottom, WidthPx: 8, Color: RoleAccent}
		c.Padding = "0 0 4px 0"
	}),

	{theme.HeadingCenteredLine, MainTitle}: with(mainBase, func(c *Contract) {
		c.Align = AlignCenter
		c.Border = Border{Side: BorderBottom, WidthPx: 1, Color: RoleNeutral}
		c.Padding = "0 0 20px 0"
	}),
	{theme.HeadingCenteredLine, SectionHeading}: with(sectionBase, func(c *Contract) {
		c.Align = AlignCenter
		c.Border = Border{Side: BorderBottom, WidthPx: 1, Color: RoleNeutral}
		c.Padding = "0 0 20px 0"
	}),

	// bracket: glyphs only decorate section headings.
	{theme.HeadingBracket, MainTitle}: with(mainBase, func(c *Contract) {
		c.Align = AlignCenter
	}),
	{theme.HeadingBracket, SectionHeading}: with(sectionBase, func(c *Contract) {
		c.Align = AlignCenter
		c.Brackets = &Brackets{Open: "【", Close: "】", SizePt: BracketPt}
	}),

	{theme.HeadingCreativeBlob, MainTitle}:      mainBase,
	{theme.HeadingCreativeBlob, SectionHeading}: sectionBase,
}

// Resolve returns the contract for a variant at a level. Unknown variants
// resolve like simple.
func Resolve(variant theme.HeadingStyle, level Level) Contract {
	if c, ok := table[key{variant, level}]; ok {
		return c
	}
	return table[key{theme.HeadingSimple, level}]
}

// HeaderAlign is the alignment of the title block (title, subtitle,
// author line) as a whole.
func HeaderAlign(variant theme.HeadingStyle) Align {
	if variant == theme.HeadingCenteredLine {
		return AlignCenter
	}
	return AlignLeft
}

// neutralRule is the grey used for RoleNeutral rules.
const neutralRule = "#d1d5db"

// Color resolves a role against a theme.
func Color(role ColorRole, t *theme.Theme) string {
	if role == RoleNeutral {
		return neutralRule
	}
	return t.AccentColor
}

// CSS renders the contract as inline CSS declarations for t.
func (c Contract) CSS(t *theme.Theme, fonts *theme.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "font-family:%s;", fonts.FontStack(t.HeadingFont))
	fmt.Fprintf(&b, "font-size:%gpt;font-weight:700;line-height:1.25;", c.SizePt)
	fmt.Fprintf(&b, "text-align:%s;", c.Align)
	if c.Chip {
		fmt.Fprintf(&b, "color:#ffffff;background-color:%s;border-radius:4px;", t.AccentFill)
	} else {
		fmt.Fprintf(&b, "color:%s;", t.PrimaryColor)
	}
	if c.Border.Side != BorderNone {
		fmt.Fprintf(&b, "border-%s:%dpx solid %s;", c.Border.Side, c.Border.WidthPx, Color(c.Border.Color, t))
	}
	if c.Padding != "" {
		fmt.Fprintf(&b, "padding:%s;", c.Padding)
	}
	if c.Inline {
		b.WriteString("display:inline-block;")
	}
	if c.Level == MainTitle {
		b.WriteString("margin:16px 0 56px 0;")
	} else {
		b.WriteString("margin:48px 0 32px 0;")
	}
	return b.String()
}

// BracketCSS styles the bracket glyphs of c for t.
func (c Contract) BracketCSS(t *theme.Theme) string {
	if c.Brackets == nil {
		return ""
	}
	return fmt.Sprintf("font-size:%gpt;vertical-align:middle;color:%s;margin:0 12px;", c.Brackets.SizePt, t.AccentColor)
}

// CSS renders body typography as inline CSS declarations.
func (x Text) CSS(t *theme.Theme, fonts *theme.Catalog) string {
	return fmt.Sprintf("font-family:%s;color:%s;font-size:%gpt;line-height:%g;letter-spacing:%gem;text-align:%s;",
		fonts.FontStack(t.BodyFont), t.SecondaryColor, x.SizePt, x.LineHeight, x.LetterSpacingEm, x.Align)
}
