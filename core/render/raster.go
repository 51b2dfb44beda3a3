// Package render: raster projector.
// Captures the printable root as a high-resolution PNG. The display zoom
// is forced to 1 for the capture and always restored afterwards.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/extract"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
)

const (
	// DefaultSettle is how long the projector waits after resetting the
	// zoom before capturing.
	DefaultSettle = 300 * time.Millisecond
	// CaptureScale is the device pixel ratio of the capture.
	CaptureScale = 3.0
	// FallbackBackground fills transparent areas of the capture.
	FallbackBackground = "#ffffff"
)

// RasterProjector renders PNG images through a Capturer.
type RasterProjector struct {
	capturer core.Capturer
	viewport core.Viewport
	settle   time.Duration
	log      *zap.Logger
}

// NewRasterProjector creates a RasterProjector. A nil viewport gets a fixed
// in-memory one.
func NewRasterProjector(c core.Capturer, vp core.Viewport, log *zap.Logger) *RasterProjector {
	if vp == nil {
		vp = NewFixedViewport(1)
	}
	return &RasterProjector{capturer: c, viewport: vp, settle: DefaultSettle, log: log.Named("raster")}
}

// WithSettle overrides the settle delay.
func (p *RasterProjector) WithSettle(d time.Duration) *RasterProjector {
	p.settle = d
	return p
}

// Extension returns the file extension for raster output.
func (p *RasterProjector) Extension() string {
	return ".png"
}

// Project saves the zoom, resets it to 1, waits for the layout to settle,
// captures at CaptureScale and restores the saved zoom whatever happened.
func (p *RasterProjector) Project(ctx context.Context, in *core.Input) (data []byte, err error) {
	if p.capturer == nil {
		return nil, fmt.Errorf("raster export: no capturer configured")
	}
	saved := p.viewport.Zoom()
	if err := p.viewport.SetZoom(1); err != nil {
		return nil, fmt.Errorf("resetting zoom: %w", err)
	}
	defer func() {
		if rerr := p.viewport.SetZoom(saved); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("restoring zoom: %w", rerr))
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.settle):
	}

	view := *in
	view.Zoom = 1
	view.Editor = false
	markup, err := NewCanvasProjector().Project(ctx, &view)
	if err != nil {
		return nil, err
	}

	bg := FallbackBackground
	if in.Background != nil && in.Background.Color != "" {
		bg = in.Background.Color
	}
	p.log.Debug("Capturing", zap.Float64("savedZoom", saved), zap.Float64("scale", CaptureScale))
	shot, err := p.capturer.Capture(ctx, core.CaptureRequest{
		HTML:       string(markup),
		Selector:   core.RootSelector,
		Scale:      CaptureScale,
		Exclude:    extract.EditorOnlySelectors,
		Background: bg,
		WidthPx:    paginate.A4WidthPx,
	})
	if err != nil {
		return nil, fmt.Errorf("capturing: %w", err)
	}
	return Flatten(shot)
}

// Flatten composites a PNG onto white so the export has no transparency.
func Flatten(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding capture: %w", err)
	}
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	canvas = imaging.Overlay(canvas, img, image.Pt(0, 0), 1)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding capture: %w", err)
	}
	return buf.Bytes(), nil
}

// FixedViewport is an in-memory Viewport used when no display is attached.
type FixedViewport struct {
	mu   sync.Mutex
	zoom float64
}

// NewFixedViewport creates a FixedViewport at zoom z.
func NewFixedViewport(z float64) *FixedViewport {
	return &FixedViewport{zoom: z}
}

// Zoom returns the current zoom.
func (v *FixedViewport) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// SetZoom stores z clamped to the supported range.
func (v *FixedViewport) SetZoom(z float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = ClampZoom(z)
	return nil
}
