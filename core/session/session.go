// Package session owns one editing session: the current document, its
// presentation (theme, background, page settings, zoom), the pagination
// engine and the focused section. Every edit goes through a model
// operation and replaces the document atomically.
//
// Format and Export are long-running and guarded by a busy flag: a second
// request while one is in flight fails with ErrBusy instead of queueing.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/normalize"
	"github.com/gaurav-prasanna/smartdoc/core/output"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/render"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

// MinInputRunes is the shortest plain text sent to the structurer.
const MinInputRunes = 2

var (
	// ErrInputTooShort is returned by Format when the document text is
	// shorter than MinInputRunes. No collaborator call is made.
	ErrInputTooShort = errors.New("input too short")
	// ErrCollaborator wraps structurer and normalizer failures. The
	// document is left untouched.
	ErrCollaborator = errors.New("structuring failed")
	// ErrBusy is returned when a format or export is already running, by a
	// second format or export and by document edits.
	ErrBusy = errors.New("session busy")
	// ErrUnknownFormat is returned by Export for formats without a
	// projector.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrUnknownTheme is returned for theme or background ids not in the
	// catalog.
	ErrUnknownTheme = errors.New("unknown theme")
)

// Format names an export target.
type Format string

const (
	FormatPNG      Format = "png"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Formats lists every export target in display order.
var Formats = []Format{FormatDOCX, FormatHTML, FormatPNG, FormatPDF, FormatMarkdown, FormatJSON}

// Artifact is the result of an export.
type Artifact struct {
	Name   string
	Format Format
	Data   []byte
}

// ProjectorFactory maps each export format to its projector.
type ProjectorFactory func(vp core.Viewport) map[Format]core.Projector

// Options wires a session to its collaborators.
type Options struct {
	Catalog    *theme.Catalog
	Structurer core.Structurer
	Normalizer *normalize.Normalizer
	// Projectors builds the per-session projector set. The session is
	// passed as the viewport the raster projector resets during capture.
	Projectors ProjectorFactory
	Lang       language.Tag
	// Slug transliterates artifact names.
	Slug bool
	// LocalImages lets the canvas load images from relative and file:
	// paths. It should match the fetcher's local file access.
	LocalImages bool
	Now  func() time.Time
	Log  *zap.Logger
}

// State is a serializable snapshot of a session.
type State struct {
	ID         string            `json:"id"`
	Document   *model.Document   `json:"document"`
	Theme      string            `json:"theme"`
	Background string            `json:"background"`
	Settings   paginate.Settings `json:"settings"`
	Focus      model.Focus       `json:"focus"`
	Zoom       float64           `json:"zoom"`
	Layout     paginate.Layout   `json:"layout"`
}

// Session is safe for concurrent use.
type Session struct {
	id   string
	opts Options
	log  *zap.Logger

	projectors map[Format]core.Projector

	mu     sync.Mutex
	doc    *model.Document
	theme  *theme.Theme
	bg     *theme.Background
	engine *paginate.Engine
	focus  model.Focus

	busy atomic.Bool

	zmu  sync.Mutex
	zoom float64
}

var _ core.Viewport = (*Session)(nil)

// New creates a session holding the default skeleton document.
func New(opts Options) *Session {
	if opts.Catalog == nil {
		opts.Catalog = theme.Builtin()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.New()
	}
	if opts.Lang == language.Und {
		opts.Lang = language.SimplifiedChinese
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	s := &Session{
		id:    uuid.NewString(),
		opts:  opts,
		doc:   model.Default(),
		theme: opts.Catalog.ThemeOrDefault(""),
		bg:    opts.Catalog.BackgroundOrDefault(""),
		focus: model.NoFocus,
		zoom:  render.DefaultZoom,
	}
	s.log = opts.Log.Named("session").With(zap.String("session", s.id))
	s.engine = paginate.NewEngine(paginate.PageHeightPx, paginate.DefaultSettings(),
		paginate.Resolver{Lang: opts.Lang, Now: opts.Now})
	s.engine.Subscribe(func(l paginate.Layout) {
		s.log.Debug("Layout changed", zap.Int("pages", l.PageCount()), zap.Float64("height", l.HeightPx))
	})
	if opts.Projectors != nil {
		s.projectors = opts.Projectors(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Lang returns the session language.
func (s *Session) Lang() language.Tag { return s.opts.Lang }

func (s *Session) tryAcquire() bool { return s.busy.CompareAndSwap(false, true) }

func (s *Session) release() { s.busy.Store(false) }

// Busy reports whether a format or export is running.
func (s *Session) Busy() bool { return s.busy.Load() }

// Document returns a copy of the current document.
func (s *Session) Document() *model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Focus returns the focused section index.
func (s *Session) Focus() model.Focus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Layout returns the current page layout.
func (s *Session) Layout() paginate.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Layout()
}

// editable rejects document edits while a format or export holds the busy
// flag. Callers hold s.mu, so a format that acquires the flag afterwards
// reads the edited text.
func (s *Session) editable() error {
	if s.Busy() {
		return ErrBusy
	}
	return nil
}

// replace installs doc and keeps the engine's title in step. Callers hold
// s.mu.
func (s *Session) replace(doc *model.Document) {
	s.doc = doc
	s.engine.SetTitle(doc.Title)
}

// Format sends the document's plain text to the structurer and adopts the
// normalized result. Either the whole new document is installed or the
// old one is kept.
func (s *Session) Format(ctx context.Context, mode core.Mode) (*model.Document, error) {
	if !s.tryAcquire() {
		return nil, ErrBusy
	}
	defer s.release()

	if !mode.Valid() {
		mode = core.ModeFormatStrict
	}
	s.mu.Lock()
	text := s.doc.PlainText()
	themeID := s.theme.ID
	s.mu.Unlock()

	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinInputRunes {
		return nil, ErrInputTooShort
	}
	if s.opts.Structurer == nil {
		return nil, fmt.Errorf("%w: no structurer configured", ErrCollaborator)
	}

	start := time.Now()
	candidate, err := s.opts.Structurer.Structure(ctx, text, themeID, mode)
	if err != nil {
		s.log.Error("Structuring failed", zap.String("mode", string(mode)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCollaborator, err)
	}
	doc, err := s.opts.Normalizer.Document(candidate)
	if err != nil {
		s.log.Error("Normalizing response failed", zap.String("mode", string(mode)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCollaborator, err)
	}

	s.mu.Lock()
	s.replace(doc)
	s.focus = model.NoFocus
	s.mu.Unlock()

	s.log.Info("Formatted document",
		zap.String("mode", string(mode)),
		zap.Int("sections", len(doc.Sections)),
		zap.Duration("elapsed", time.Since(start)))
	return doc.Clone(), nil
}

// Input snapshots everything a projector needs.
func (s *Session) Input() *core.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &core.Input{
		Document:   s.doc.Clone(),
		Theme:      s.theme,
		Background: s.bg,
		Catalog:    s.opts.Catalog,
		Settings:   s.engine.Settings(),
		Layout:     s.engine.Layout(),
		Lang:       s.opts.Lang,
		Zoom:       s.Zoom(),

		LocalImages: s.opts.LocalImages,
	}
}

// Export projects the current document onto format.
func (s *Session) Export(ctx context.Context, format Format) (*Artifact, error) {
	p, ok := s.projectors[format]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if !s.tryAcquire() {
		return nil, ErrBusy
	}
	defer s.release()

	in := s.Input()
	start := time.Now()
	data, err := p.Project(ctx, in)
	if err != nil {
		s.log.Error("Export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, fmt.Errorf("exporting %s: %w", format, err)
	}
	names := &output.Writer{Slug: s.opts.Slug}
	a := &Artifact{
		Name:   names.Name(in.Document.Title, p.Extension()),
		Format: format,
		Data:   data,
	}
	s.log.Info("Exported document",
		zap.String("format", string(format)),
		zap.String("name", a.Name),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return a, nil
}

// Canvas renders the editor canvas. Endpoint is where the page's script
// reports heights and edits; empty disables editing.
func (s *Session) Canvas(ctx context.Context, endpoint string) ([]byte, error) {
	in := s.Input()
	in.Editor = endpoint != ""
	in.Endpoint = endpoint
	return render.NewCanvasProjector().Project(ctx, in)
}

// Measure renders the canvas unscaled, asks m for the content height and
// feeds it to the pagination engine.
func (s *Session) Measure(ctx context.Context, m core.Measurer) (paginate.Layout, error) {
	in := s.Input()
	in.Zoom = 1
	markup, err := render.NewCanvasProjector().Project(ctx, in)
	if err != nil {
		return paginate.Layout{}, err
	}
	h, err := m.Measure(ctx, string(markup), "#sd-content")
	if err != nil {
		return paginate.Layout{}, fmt.Errorf("measuring content: %w", err)
	}
	return s.ObserveHeight(h), nil
}

// ObserveHeight pushes a measured content height into the engine. Heights
// of zero or less after a real measurement keep the current layout; see
// [paginate.Engine.Observe].
func (s *Session) ObserveHeight(h float64) paginate.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Observe(h)
	return s.engine.Layout()
}

// UpdateField replaces title, subtitle or author.
func (s *Session) UpdateField(field model.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	doc, err := model.UpdateField(s.doc, field, value)
	if err != nil {
		return err
	}
	s.replace(doc)
	return nil
}

// UpdateSection replaces the content of section i.
func (s *Session) UpdateSection(i int, c model.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	doc, err := model.UpdateSection(s.doc, i, c)
	if err != nil {
		return err
	}
	s.replace(doc)
	return nil
}

// DeleteSection removes section i and rebases the focus.
func (s *Session) DeleteSection(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	doc, err := model.DeleteSection(s.doc, i)
	if err != nil {
		return err
	}
	s.replace(doc)
	s.focus = model.RebaseFocus(s.focus, i)
	return nil
}

// InsertImage adds an image section after the focused one, or at the end,
// and returns its index.
func (s *Session) InsertImage(url, alt string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return 0, err
	}
	doc := model.InsertImageSection(s.doc, url, alt, s.focus)
	at := len(doc.Sections) - 1
	if s.focus.Valid() && int(s.focus) < len(s.doc.Sections) {
		at = int(s.focus) + 1
	}
	s.replace(doc)
	return at, nil
}

// InsertStockImage inserts a catalog stock image by id.
func (s *Session) InsertStockImage(id string) (int, error) {
	img, ok := s.opts.Catalog.StockImage(id)
	if !ok {
		return 0, fmt.Errorf("unknown stock image %q", id)
	}
	return s.InsertImage(img.URL, img.Alt)
}

// SetFocus records the section the user is working in. NoFocus clears it.
func (s *Session) SetFocus(f model.Focus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Valid() && int(f) >= len(s.doc.Sections) {
		return fmt.Errorf("%w: %d of %d", model.ErrIndexOutOfRange, f, len(s.doc.Sections))
	}
	if !f.Valid() {
		f = model.NoFocus
	}
	s.focus = f
	return nil
}

// Reset installs the blank skeleton.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.replace(model.Blank())
	s.focus = model.NoFocus
	s.log.Info("Document reset")
	return nil
}

// SetDocument replaces the document wholesale.
func (s *Session) SetDocument(doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.replace(doc.Clone())
	s.focus = model.NoFocus
	return nil
}

// SetTheme selects a theme by id.
func (s *Session) SetTheme(id string) error {
	t, ok := s.opts.Catalog.Theme(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, id)
	}
	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()
	return nil
}

// SetBackground selects a background by id.
func (s *Session) SetBackground(id string) error {
	b, ok := s.opts.Catalog.Background(id)
	if !ok {
		return fmt.Errorf("%w: background %q", ErrUnknownTheme, id)
	}
	s.mu.Lock()
	s.bg = b
	s.mu.Unlock()
	return nil
}

// SetSettings replaces the page settings.
func (s *Session) SetSettings(ps paginate.Settings) error {
	if err := ps.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetSettings(ps)
	return nil
}

// Zoom returns the canvas display scale.
func (s *Session) Zoom() float64 {
	s.zmu.Lock()
	defer s.zmu.Unlock()
	return s.zoom
}

// SetZoom sets the canvas display scale, clamped to the supported range.
func (s *Session) SetZoom(z float64) error {
	s.zmu.Lock()
	defer s.zmu.Unlock()
	s.zoom = render.ClampZoom(z)
	return nil
}

// State snapshots the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:         s.id,
		Document:   s.doc.Clone(),
		Theme:      s.theme.ID,
		Background: s.bg.ID,
		Settings:   s.engine.Settings(),
		Focus:      s.focus,
		Zoom:       s.Zoom(),
		Layout:     s.engine.Layout(),
	}
}

// Restore creates a session from a saved state. Unknown theme or
// background ids fall back to the catalog defaults.
func Restore(st State, opts Options) *Session {
	s := New(opts)
	if st.ID != "" {
		s.id = st.ID
		s.log = s.opts.Log.Named("session").With(zap.String("session", s.id))
	}
	if st.Document != nil {
		s.replace(st.Document.Clone())
	}
	s.theme = s.opts.Catalog.ThemeOrDefault(st.Theme)
	s.bg = s.opts.Catalog.BackgroundOrDefault(st.Background)
	if st.Settings.Validate() == nil {
		s.engine.SetSettings(st.Settings)
	}
	if st.Layout.HeightPx > 0 {
		s.engine.Observe(st.Layout.HeightPx)
	}
	if st.Focus.Valid() && int(st.Focus) < len(s.doc.Sections) {
		s.focus = st.Focus
	}
	if st.Zoom > 0 {
		s.zoom = render.ClampZoom(st.Zoom)
	}
	return s
}
