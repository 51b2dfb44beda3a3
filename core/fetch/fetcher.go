// Package fetch implements the ImageFetcher interface.
// It resolves image sections (http(s) URLs, data URLs and local files)
// into bytes a word-processor document can embed.
package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gaurav-prasanna/smartdoc/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "SmartDoc/1.0 (https://github.com/gaurav-prasanna/smartdoc)"
	maxImageBytes    = 20 << 20
	// DefaultMaxEdge bounds the longest side of embedded images.
	DefaultMaxEdge = 2000
)

var (
	// ErrNotImage is returned when the fetched bytes are not a decodable image.
	ErrNotImage = errors.New("not an image")
	// ErrLocalFile is returned for file references the fetcher may not read.
	ErrLocalFile = errors.New("local image files are not allowed")
)

// HTTPFetcher fetches images over HTTP, from data URLs and, when enabled,
// from disk.
type HTTPFetcher struct {
	client  *http.Client
	maxEdge int
	log     *zap.Logger

	// anyLocal allows every path; root confines paths to one directory.
	// With neither, local references are refused.
	anyLocal bool
	root     *os.Root
}

// New creates an HTTPFetcher with a sensible timeout.
func New(log *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: defaultTimeout},
		maxEdge: DefaultMaxEdge,
		log:     log.Named("fetch"),
	}
}

// WithMaxEdge sets the longest side images are downscaled to. Zero
// disables downscaling.
func (f *HTTPFetcher) WithMaxEdge(px int) *HTTPFetcher {
	f.maxEdge = px
	return f
}

// AllowLocal lets relative paths, absolute paths and file:// URLs be read
// from anywhere on disk.
func (f *HTTPFetcher) AllowLocal() *HTTPFetcher {
	f.anyLocal, f.root = true, nil
	return f
}

// WithRoot confines local references to root. Paths are resolved inside
// it; absolute paths and paths escaping it are refused.
func (f *HTTPFetcher) WithRoot(root *os.Root) *HTTPFetcher {
	f.anyLocal, f.root = false, root
	return f
}

// LocalFiles reports whether local references are read at all.
func (f *HTTPFetcher) LocalFiles() bool { return f.anyLocal || f.root != nil }

// FetchImage retrieves and prepares the image at ref.
func (f *HTTPFetcher) FetchImage(ctx context.Context, ref string) (*core.Image, error) {
	data, err := f.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return f.prepare(data)
}

func (f *HTTPFetcher) read(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.get(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ref, err)
		}
		return f.readFile(u.Path)
	default:
		return f.readFile(ref)
	}
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case f.anyLocal:
		data, err = os.ReadFile(path)
	case f.root != nil:
		data, err = f.root.ReadFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrLocalFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

// decodeDataURL handles "data:[<mime>][;base64],<payload>".
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data URL: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URL: %w", err)
	}
	return []byte(s), nil
}

// embeddable lists formats word processors display without conversion.
var embeddable = map[string]bool{"png": true, "jpg": true, "gif": true, "bmp": true}

func (f *HTTPFetcher) prepare(data []byte) (*core.Image, error) {
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return nil, ErrNotImage
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	out := &core.Image{
		Data:     data,
		MimeType: kind.MIME.Value,
		Ext:      kind.Extension,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
	}

	changed := false
	if f.maxEdge > 0 && (out.Width > f.maxEdge || out.Height > f.maxEdge) {
		img = imaging.Fit(img, f.maxEdge, f.maxEdge, imaging.Lanczos)
		changed = true
		f.log.Debug("Downscaled image",
			zap.Int("width", out.Width), zap.Int("height", out.Height), zap.Int("max", f.maxEdge))
	}
	if !embeddable[out.Ext] {
		f.log.Debug("Converting image to png", zap.String("format", format))
		changed = true
	}
	if !changed {
		return out, nil
	}

	var buf bytes.Buffer
	if out.Ext == "jpg" {
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	} else {
		err = imaging.Encode(&buf, img, imaging.PNG)
		out.MimeType, out.Ext = "image/png", "png"
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	out.Data = buf.Bytes()
	out.Width = img.Bounds().Dx()
	out.Height = img.Bounds().Dy()
	return out, nil
}

// Fit scales w×h to fit inside maxW×maxH, keeping the aspect ratio. Images
// already inside the box are returned unchanged.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	rw := float64(maxW) / float64(w)
	rh := float64(maxH) / float64(h)
	r := rw
	if rh < r {
		r = rh
	}
	nw, nh := int(float64(w)*r+0.5), int(float64(h)*r+0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
