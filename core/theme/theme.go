// Package theme holds the immutable visual presets a document is rendered
// with: themes (typography, colours, heading decoration) and page
// backgrounds. Presets are loaded once from the embedded catalog and are
// selected by id, never mutated.
package theme

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// HeadingStyle selects one of the mutually exclusive heading decorations.
type HeadingStyle string

const (
	HeadingSimple          HeadingStyle = "simple"
	HeadingUnderlined      HeadingStyle = "underlined"
	HeadingLeftBorder      HeadingStyle = "left-border"
	HeadingBoxed           HeadingStyle = "boxed"
	HeadingHighlightBottom HeadingStyle = "highlight-bottom"
	HeadingCenteredLine    HeadingStyle = "centered-line"
	HeadingBracket         HeadingStyle = "bracket"
	HeadingCreativeBlob    HeadingStyle = "creative-blob"
)

// HeadingStyles lists every variant.
var HeadingStyles = []HeadingStyle{
	HeadingSimple, HeadingUnderlined, HeadingLeftBorder, HeadingBoxed,
	HeadingHighlightBottom, HeadingCenteredLine, HeadingBracket, HeadingCreativeBlob,
}

// ExportColors are target-neutral hex colours ("#rrggbb") used by the
// word-processor and PDF projectors.
type ExportColors struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
	Accent    string `json:"accent" yaml:"accent"`
}

// Theme is a named bundle of typography and decoration choices.
type Theme struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	Description    string       `json:"description" yaml:"description"`
	HeadingFont    string       `json:"headingFont" yaml:"heading_font"`
	BodyFont       string       `json:"bodyFont" yaml:"body_font"`
	PrimaryColor   string       `json:"primaryColor" yaml:"primary_color"`
	SecondaryColor string       `json:"secondaryColor" yaml:"secondary_color"`
	AccentColor    string       `json:"accentColor" yaml:"accent_color"`
	AccentFill     string       `json:"accentFill" yaml:"accent_fill"`
	Export         ExportColors `json:"export" yaml:"export"`
	HeadingStyle   HeadingStyle `json:"headingStyle" yaml:"heading_style"`
}

// Background is a paint descriptor applied behind the content. It never
// affects layout measurement.
type Background struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Color   string  `json:"color" yaml:"color"`
	Image   string  `json:"image,omitempty" yaml:"image,omitempty"`
	Size    string  `json:"size,omitempty" yaml:"size,omitempty"`
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// Catalog is the set of presets.
type Catalog struct {
	DefaultTheme      string            `json:"defaultTheme" yaml:"default_theme"`
	DefaultBackground string            `json:"defaultBackground" yaml:"default_background"`
	Fonts             map[string]string `json:"fonts" yaml:"fonts"`
	Themes            []Theme           `json:"themes" yaml:"themes"`
	Backgrounds       []Background      `json:"backgrounds" yaml:"backgrounds"`
	StockImages       []StockImage      `json:"stockImages" yaml:"stock_images"`
}

// StockImage is a ready-made picture offered for insertion.
type StockImage struct {
	ID  string `json:"id" yaml:"id"`
	URL string `json:"url" yaml:"url"`
	Alt string `json:"alt" yaml:"alt"`
}

var builtin = mustLoad(catalogYAML)

func mustLoad(data []byte) *Catalog {
	c, err := Load(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Load decodes and checks a catalog. Unknown keys are rejected.
func Load(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding theme catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Themes))
	for _, t := range c.Themes {
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate theme %q", t.ID)
		}
		seen[t.ID] = true
		if !validStyle(t.HeadingStyle) {
			return nil, fmt.Errorf("theme %q: unknown heading style %q", t.ID, t.HeadingStyle)
		}
		for _, f := range []string{t.HeadingFont, t.BodyFont} {
			if _, ok := c.Fonts[f]; !ok {
				return nil, fmt.Errorf("theme %q: unknown font %q", t.ID, f)
			}
		}
	}
	if _, ok := c.Theme(c.DefaultTheme); !ok {
		return nil, fmt.Errorf("default theme %q not in catalog", c.DefaultTheme)
	}
	if _, ok := c.Background(c.DefaultBackground); !ok {
		return nil, fmt.Errorf("default background %q not in catalog", c.DefaultBackground)
	}
	return &c, nil
}

func validStyle(s HeadingStyle) bool {
	for _, v := range HeadingStyles {
		if v == s {
			return true
		}
	}
	return false
}

// Builtin returns the embedded catalog.
func Builtin() *Catalog { return builtin }

// Theme looks a theme up by id.
func (c *Catalog) Theme(id string) (*Theme, bool) {
	for i := range c.Themes {
		if c.Themes[i].ID == id {
			return &c.Themes[i], true
		}
	}
	return nil, false
}

// Background looks a background up by id.
func (c *Catalog) Background(id string) (*Background, bool) {
	for i := range c.Backgrounds {
		if c.Backgrounds[i].ID == id {
			return &c.Backgrounds[i], true
		}
	}
	return nil, false
}

// StockImage looks a stock image up by id.
func (c *Catalog) StockImage(id string) (*StockImage, bool) {
	for i := range c.StockImages {
		if c.StockImages[i].ID == id {
			return &c.StockImages[i], true
		}
	}
	return nil, false
}

// ThemeOrDefault returns the theme with the given id, falling back to the
// catalog default.
func (c *Catalog) ThemeOrDefault(id string) *Theme {
	if t, ok := c.Theme(id); ok {
		return t
	}
	t, _ := c.Theme(c.DefaultTheme)
	return t
}

// BackgroundOrDefault returns the background with the given id, falling
// back to the catalog default.
func (c *Catalog) BackgroundOrDefault(id string) *Background {
	if b, ok := c.Background(id); ok {
		return b
	}
	b, _ := c.Background(c.DefaultBackground)
	return b
}

// FontStack resolves a font key ("sans", "serif", ...) to a CSS
// font-family list.
func (c *Catalog) FontStack(key string) string {
	if s, ok := c.Fonts[key]; ok {
		return s
	}
	return c.Fonts["sans"]
}

// Hex returns a colour without its leading '#', upper-cased, the way
// WordprocessingML expects it.
func Hex(color string) string {
	return strings.ToUpper(strings.TrimPrefix(color, "#"))
}

// RGB parses a "#rrggbb" colour. Malformed values yield black.
func RGB(color string) (r, g, b int) {
	if _, err := fmt.Sscanf(strings.TrimPrefix(color, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0
	}
	return r, g, b
}
