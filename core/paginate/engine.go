// Package paginate derives page count and per-page header and footer bands
// from a measured content height. Bands are overlays positioned at fixed
// page offsets; they never reflow the content underneath.
package paginate

import (
	"math"
	"reflect"
)

const (
	// A4HeightMM is the height of an A4 sheet.
	A4HeightMM = 297.0
	// PxPerMM is the CSS pixel density at 96 dpi.
	PxPerMM = 3.7795
	// A4WidthPx is the canvas width.
	A4WidthPx = 794
)

// PageHeightPx is the A4 page height in CSS pixels, rounded up.
var PageHeightPx = math.Ceil(A4HeightMM * PxPerMM)

// PageCount returns max(1, ceil(height/pageHeight)).
func PageCount(height, pageHeight float64) int {
	if pageHeight <= 0 || height <= 0 {
		return 1
	}
	n := int(math.Ceil(height / pageHeight))
	if n < 1 {
		return 1
	}
	return n
}

// Page is one page of the layout.
type Page struct {
	Number int     `json:"number"`
	TopPx  float64 `json:"topPx"`
	Header *Band   `json:"header,omitempty"`
	Footer *Band   `json:"footer,omitempty"`
}

// Layout is the full pagination result.
type Layout struct {
	HeightPx     float64 `json:"heightPx"`
	PageHeightPx float64 `json:"pageHeightPx"`
	Pages        []Page  `json:"pages"`
}

// PageCount is len(l.Pages).
func (l Layout) PageCount() int { return len(l.Pages) }

// Compute lays out height over pages of pageHeight.
func Compute(height, pageHeight float64, s Settings, r Resolver) Layout {
	n := PageCount(height, pageHeight)
	pages := make([]Page, n)
	for i := range pages {
		p := i + 1
		pages[i] = Page{
			Number: p,
			TopPx:  float64(i) * pageHeight,
			Header: r.Resolve(s.Header, p, s),
			Footer: r.Resolve(s.Footer, p, s),
		}
	}
	return Layout{HeightPx: height, PageHeightPx: pageHeight, Pages: pages}
}

// Engine keeps the current layout and recomputes it when a new height is
// observed or settings change. Subscribers are notified only when the
// layout actually changes. Engine is not safe for concurrent use; the
// owning session serializes calls.
type Engine struct {
	pageHeight float64
	height     float64
	measured   bool
	settings   Settings
	resolver   Resolver
	layout     Layout
	subs       []func(Layout)
}

// NewEngine returns an engine with an unmeasured, one-page layout.
func NewEngine(pageHeight float64, s Settings, r Resolver) *Engine {
	if pageHeight <= 0 {
		pageHeight = PageHeightPx
	}
	e := &Engine{pageHeight: pageHeight, settings: s, resolver: r}
	e.layout = Compute(0, pageHeight, s, r)
	return e
}

// Subscribe registers fn to receive every changed layout.
func (e *Engine) Subscribe(fn func(Layout)) {
	e.subs = append(e.subs, fn)
}

// Layout returns the current layout.
func (e *Engine) Layout() Layout { return e.layout }

// Settings returns the current settings.
func (e *Engine) Settings() Settings { return e.settings }

// Observe records a measured content height. Non-positive heights are
// ignored once a positive height has been seen: a host reports 0 while it
// reflows, and the last layout stands until the next real measurement.
func (e *Engine) Observe(height float64) {
	if height <= 0 && e.measured {
		return
	}
	if height > 0 {
		e.measured = true
	}
	e.height = height
	e.recompute()
}

// SetSettings replaces the page settings.
func (e *Engine) SetSettings(s Settings) {
	e.settings = s
	e.recompute()
}

// SetTitle updates the text used by title slots.
func (e *Engine) SetTitle(title string) {
	e.resolver.Title = title
	e.recompute()
}

func (e *Engine) recompute() {
	next := Compute(e.height, e.pageHeight, e.settings, e.resolver)
	if reflect.DeepEqual(next, e.layout) {
		return
	}
	e.layout = next
	for _, fn := range e.subs {
		fn(next)
	}
}
