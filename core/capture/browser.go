// Package capture rasterizes and measures rendered canvas markup in a
// headless Chrome driven by Rod. One browser process is launched lazily and
// shared; every request gets its own tab.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core"
)

// Config configures the browser.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local one.
	RemoteURL string `yaml:"remote_url"`
	// Bin is the Chrome binary used when launching locally. Empty lets the
	// launcher find or download one.
	Bin string `yaml:"bin"`
	// Timeout bounds one capture or measurement.
	Timeout time.Duration `yaml:"timeout"`
	// ViewportHeight is the initial window height in CSS pixels.
	ViewportHeight int `yaml:"viewport_height"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 1123
	}
}

// Browser implements core.Capturer and core.Measurer.
type Browser struct {
	cfg     Config
	log     *zap.Logger
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

var (
	_ core.Capturer = (*Browser)(nil)
	_ core.Measurer = (*Browser)(nil)
)

// New creates a Browser. Chrome starts on first use.
func New(cfg Config, log *zap.Logger) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg, log: log.Named("capture")}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		if b.cfg.Bin != "" {
			l = l.Bin(b.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launching chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.log.Info("Launched local chrome", zap.String("url", wsURL))
	} else {
		b.log.Info("Connecting to remote chrome", zap.String("url", wsURL))
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}
	b.browser = rb
	return rb, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

// open loads markup into a fresh tab at the given width and scale.
func (b *Browser) open(ctx context.Context, markup string, width int, scale float64) (*rod.Page, error) {
	rb, err := b.connect()
	if err != nil {
		return nil, err
	}
	page, err := rb.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("creating tab: %w", err)
	}
	page = page.Context(ctx)
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: scale,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("setting viewport: %w", err)
	}
	if err := page.SetDocumentContent(markup); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("loading markup: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		b.log.Warn("Wait load failed", zap.Error(err))
	}
	if _, err := page.Eval(`() => document.fonts ? document.fonts.ready.then(() => true) : true`); err != nil {
		b.log.Warn("Waiting for fonts failed", zap.Error(err))
	}
	return page, nil
}

const hideScript = `(sels) => sels.forEach(s => document.querySelectorAll(s).forEach(e => { e.style.display = 'none'; }))`

// Capture renders req.HTML and screenshots the element matched by
// req.Selector over its full scroll height.
func (b *Browser) Capture(ctx context.Context, req core.CaptureRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	width := req.WidthPx
	if width <= 0 {
		width = 794
	}
	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	page, err := b.open(ctx, req.HTML, width, scale)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if len(req.Exclude) > 0 {
		if _, err := page.Eval(hideScript, req.Exclude); err != nil {
			return nil, fmt.Errorf("hiding excluded elements: %w", err)
		}
	}
	if req.Background != "" {
		if _, err := page.Eval(`(c) => { document.body.style.background = c; }`, req.Background); err != nil {
			return nil, fmt.Errorf("setting background: %w", err)
		}
	}

	el, err := page.Element(req.Selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRootNotFound, err)
	}
	shape, err := el.Shape()
	if err != nil {
		return nil, fmt.Errorf("measuring %s: %w", req.Selector, err)
	}
	box := shape.Box()
	b.log.Debug("Capturing element",
		zap.String("selector", req.Selector), zap.Float64("width", box.Width), zap.Float64("height", box.Height))

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:                proto.PageCaptureScreenshotFormatPng,
		Clip:                  &proto.PageViewport{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Scale: 1},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

// Measure renders markup and returns the scroll height of the element
// matched by selector.
func (b *Browser) Measure(ctx context.Context, markup, selector string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	page, err := b.open(ctx, markup, 794, 1)
	if err != nil {
		return 0, err
	}
	defer page.Close()

	el, err := page.Element(selector)
	if err != nil {
		return 0, fmt.Errorf("finding %s: %w", selector, err)
	}
	res, err := el.Eval(`() => this.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("measuring %s: %w", selector, err)
	}
	return res.Value.Num(), nil
}
