package paginate

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core/i18n"
)

// SlotKind selects what a header or footer slot shows.
type SlotKind string

const (
	SlotNone       SlotKind = "none"
	SlotTitle      SlotKind = "title"
	SlotDate       SlotKind = "date"
	SlotPageNumber SlotKind = "page-number"
	SlotCustom     SlotKind = "custom"
)

// ParseSlotKind validates a slot kind. The empty string means none.
func ParseSlotKind(s string) (SlotKind, error) {
	switch k := SlotKind(s); k {
	case "":
		return SlotNone, nil
	case SlotNone, SlotTitle, SlotDate, SlotPageNumber, SlotCustom:
		return k, nil
	}
	return "", fmt.Errorf("unknown slot kind %q", s)
}

// HeaderFooterConfig describes one band.
type HeaderFooterConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	Left       SlotKind `json:"left" yaml:"left"`
	Center     SlotKind `json:"center" yaml:"center"`
	Right      SlotKind `json:"right" yaml:"right"`
	CustomText string   `json:"customText,omitempty" yaml:"custom_text,omitempty"`
	ShowLine   bool     `json:"showLine" yaml:"show_line"`
}

// Settings are the page-level options for headers and footers.
type Settings struct {
	Header          HeaderFooterConfig `json:"header" yaml:"header"`
	Footer          HeaderFooterConfig `json:"footer" yaml:"footer"`
	MirrorMargins   bool               `json:"mirrorMargins" yaml:"mirror_margins"`
	HideOnFirstPage bool               `json:"hideOnFirstPage" yaml:"hide_on_first_page"`
}

// DefaultSettings has both bands disabled, with a page number footer ready
// to be switched on.
func DefaultSettings() Settings {
	return Settings{
		Header: HeaderFooterConfig{Left: SlotTitle, Center: SlotNone, Right: SlotDate, ShowLine: true},
		Footer: HeaderFooterConfig{Left: SlotNone, Center: SlotPageNumber, Right: SlotNone},
	}
}

// Validate rejects unknown slot kinds.
func (s Settings) Validate() error {
	for name, c := range map[string]HeaderFooterConfig{"header": s.Header, "footer": s.Footer} {
		for _, k := range []SlotKind{c.Left, c.Center, c.Right} {
			if _, err := ParseSlotKind(string(k)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

// Band is a resolved header or footer: three strings ready to draw.
type Band struct {
	Left     string `json:"left"`
	Center   string `json:"center"`
	Right    string `json:"right"`
	ShowLine bool   `json:"showLine"`
}

// Resolver turns slot kinds into text. Now and Lang are injected so the
// date slot is deterministic under test.
type Resolver struct {
	Title string
	Now   func() time.Time
	Lang  language.Tag
}

func (r Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r Resolver) slot(kind SlotKind, page int, custom string) string {
	switch kind {
	case SlotTitle:
		return r.Title
	case SlotDate:
		return i18n.FormatDate(r.now(), r.Lang)
	case SlotPageNumber:
		return strconv.Itoa(page)
	case SlotCustom:
		return custom
	default:
		return ""
	}
}

// Resolve computes the band for page (1-based). It returns nil when the
// band is disabled or hidden on the first page. With mirror set, even pages
// swap the configured left and right kinds before they are resolved.
func (r Resolver) Resolve(c HeaderFooterConfig, page int, s Settings) *Band {
	if !c.Enabled {
		return nil
	}
	if s.HideOnFirstPage && page == 1 {
		return nil
	}
	left, right := c.Left, c.Right
	if s.MirrorMargins && page%2 == 0 {
		left, right = right, left
	}
	return &Band{
		Left:     r.slot(left, page, c.CustomText),
		Center:   r.slot(c.Center, page, c.CustomText),
		Right:    r.slot(right, page, c.CustomText),
		ShowLine: c.ShowLine,
	}
}
