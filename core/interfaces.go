// Package core defines the pipeline interfaces for SmartDoc.
// Each collaborator and projector is a small interface so the session can
// be driven by fakes in tests.
package core

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/normalize"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

// RootSelector addresses the printable document root in rendered markup.
const RootSelector = "#printable-root"

// ErrRootNotFound is returned when the printable root is missing from the
// markup handed to an export.
var ErrRootNotFound = errors.New("printable root not found")

// Mode selects how the structuring service treats the input text.
type Mode string

const (
	ModeFormatStrict Mode = "format-strict"
	ModePolish       Mode = "polish"
	ModeExpand       Mode = "expand"
	ModeShorten      Mode = "shorten"
	ModeFix          Mode = "fix"
)

// Modes lists every refine mode.
var Modes = []Mode{ModeFormatStrict, ModePolish, ModeExpand, ModeShorten, ModeFix}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, k := range Modes {
		if m == k {
			return true
		}
	}
	return false
}

// Structurer turns free text into a loosely-typed document candidate.
type Structurer interface {
	Structure(ctx context.Context, text, themeID string, mode Mode) (*normalize.Candidate, error)
}

// Image is a fetched and decoded image ready to embed.
type Image struct {
	Data     []byte
	MimeType string
	Ext      string // without the dot, e.g. "png"
	Width    int
	Height   int
}

// ImageFetcher retrieves image bytes for an image section.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (*Image, error)
}

// CaptureRequest describes a raster capture of rendered markup.
type CaptureRequest struct {
	HTML     string
	Selector string
	Scale    float64
	// Exclude lists selectors hidden before capture.
	Exclude    []string
	Background string
	WidthPx    int
}

// Capturer rasterizes the element matched by Selector into PNG bytes.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) ([]byte, error)
}

// Measurer reports the rendered scroll height of the element matched by
// selector.
type Measurer interface {
	Measure(ctx context.Context, html, selector string) (float64, error)
}

// Viewport is the zoom control of whatever host displays the canvas.
type Viewport interface {
	Zoom() float64
	SetZoom(z float64) error
}

// Input is everything a projector needs.
type Input struct {
	Document   *model.Document
	Theme      *theme.Theme
	Background *theme.Background
	Catalog    *theme.Catalog
	Settings   paginate.Settings
	Layout     paginate.Layout
	Lang       language.Tag
	// Zoom is the display scale of the canvas; 0 and 1 both mean unscaled.
	Zoom float64
	// Editor enables editor-only chrome on the canvas.
	Editor bool
	// Endpoint is the session URL the editor script reports to.
	Endpoint string
	// LocalImages lets image sections reference relative and file: paths.
	LocalImages bool
}

// Projector serializes a document into one output format.
type Projector interface {
	Project(ctx context.Context, in *Input) ([]byte, error)
	// Extension returns the file extension for this projector (e.g. ".docx").
	Extension() string
}
