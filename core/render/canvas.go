// Package render: Canvas projector.
// Renders the document as the paginated A4 canvas. The content layer stays
// in normal flow and page overlays (bands and guides) sit on top of it at
// fixed page offsets. Every other HTML-based projector starts from this
// markup.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/i18n"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/style"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// FontsURL is the web font stylesheet linked by every HTML output.
const FontsURL = "https://fonts.googleapis.com/css2?family=Noto+Sans+SC:wght@300;400;500;700&family=Noto+Serif+SC:wght@300;400;600;700&family=Zhi+Mang+Xing&family=Inter:wght@300;400;600;700&display=swap"

// Zoom bounds for the editor canvas.
const (
	MinZoom     = 0.3
	MaxZoom     = 1.5
	ZoomStep    = 0.1
	DefaultZoom = 0.8
)

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	switch {
	case z < MinZoom:
		return MinZoom
	case z > MaxZoom:
		return MaxZoom
	}
	return z
}

const stylesheet = `
.sd-body{margin:0;padding:40px 0;background:#e5e7eb;}
#printable-root{position:relative;}
.sd-canvas{position:relative;width:210mm;margin:0 auto;box-shadow:0 25px 50px -12px rgba(0,0,0,.25);}
.sd-texture{position:absolute;inset:0;z-index:0;pointer-events:none;}
.sd-overlays{position:absolute;inset:0;z-index:10;pointer-events:none;overflow:hidden;}
.sd-page{position:absolute;left:0;width:100%;display:flex;flex-direction:column;justify-content:space-between;}
.sd-slot-top{padding-top:10mm;width:100%;}
.sd-slot-bottom{padding-bottom:10mm;width:100%;}
.sd-band{display:flex;align-items:center;justify-content:space-between;box-sizing:border-box;width:100%;height:15mm;padding:0 25.4mm;}
.sd-band>div{flex:1;}
.sd-band-c{text-align:center;}
.sd-band-r{text-align:right;}
.sd-page-guide{position:absolute;bottom:0;width:100%;border-bottom:1px dashed #d1d5db;opacity:.5;}
.sd-content{position:relative;z-index:20;display:flex;flex-direction:column;min-height:50mm;padding:25.4mm 25.4mm 30mm 25.4mm;}
.sd-header{margin-bottom:48px;}
.sd-author{display:flex;align-items:center;gap:12px;}
.sd-rule{display:inline-block;width:32px;height:1px;background:#d1d5db;}
.sd-main{flex-grow:1;}
.sd-section{position:relative;break-inside:avoid;}
.sd-list li{padding-left:8px;margin-bottom:12px;break-inside:avoid;}
.sd-list li::marker{color:var(--sd-primary);font-weight:700;}
.sd-figure{margin:48px 0;display:flex;flex-direction:column;align-items:center;break-inside:avoid;}
.sd-figure img{max-width:100%;max-height:700px;border-radius:4px;}
.sd-unknown{color:#f87171;background:#fef2f2;padding:16px;border-radius:4px;border:1px solid #fecaca;margin-bottom:32px;}
.delete-section-btn{position:absolute;left:-32px;top:50%;transform:translateY(-50%);border:0;background:none;color:#d1d5db;cursor:pointer;opacity:0;}
.sd-section:hover .delete-section-btn{opacity:1;}
.delete-section-btn:hover{color:#ef4444;}
[contenteditable]{outline:none;}
@media print{.sd-body{padding:0;background:none;}.sd-canvas{box-shadow:none;margin:0;}.editor-only,.delete-section-btn,.no-export{display:none!important;}}
`

type bandView struct {
	Left, Center, Right string
	CSS                 template.CSS
}

type pageView struct {
	Number int
	CSS    template.CSS
	Header *bandView
	Footer *bandView
	Guide  bool
}

type headerView struct {
	CSS         template.CSS
	Title       string
	TitleCSS    template.CSS
	Subtitle    string
	SubtitleCSS template.CSS
	Author      string
	AuthorCSS   template.CSS
}

type sectionView struct {
	Index       int
	Kind        string
	Editable    bool
	DeleteLabel string

	Heading    bool
	Tag        string
	Brackets   *style.Brackets
	BracketCSS template.CSS

	Paragraph bool

	List    bool
	Ordered bool
	Items   []string

	Quote   bool
	BoxCSS  template.CSS
	MarkCSS template.CSS

	Image   bool
	Src     template.URL
	Alt     string
	Caption string

	Text string
	CSS  template.CSS
}

type canvasView struct {
	Lang       string
	PageTitle  string
	FontsURL   string
	Stylesheet template.CSS
	BodyCSS    template.CSS
	Editor     bool
	Endpoint   string
	Script     template.JS
	CanvasCSS  template.CSS
	TextureCSS template.CSS
	Pages      []pageView
	Header     headerView
	Sections   []sectionView
}

// CanvasProjector renders the paginated editor canvas.
type CanvasProjector struct{}

// NewCanvasProjector creates a CanvasProjector.
func NewCanvasProjector() *CanvasProjector {
	return &CanvasProjector{}
}

// Project renders the full canvas page.
func (p *CanvasProjector) Project(_ context.Context, in *core.Input) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "canvas", buildCanvas(in)); err != nil {
		return nil, fmt.Errorf("rendering canvas: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for canvas output.
func (p *CanvasProjector) Extension() string {
	return ".html"
}

func catalogOf(in *core.Input) *theme.Catalog {
	if in.Catalog != nil {
		return in.Catalog
	}
	return theme.Builtin()
}

func buildCanvas(in *core.Input) *canvasView {
	cat := catalogOf(in)
	th, bg := in.Theme, in.Background
	if th == nil {
		th = cat.ThemeOrDefault("")
	}
	if bg == nil {
		bg = cat.BackgroundOrDefault("")
	}
	doc := in.Document
	if doc == nil {
		doc = model.Default()
	}
	lang := in.Lang
	if lang == language.Und {
		lang = i18n.Default
	}

	layout := in.Layout
	if len(layout.Pages) == 0 {
		layout = paginate.Compute(0, paginate.PageHeightPx, in.Settings, paginate.Resolver{Title: doc.Title, Lang: lang})
	}

	v := &canvasView{
		Lang:       lang.String(),
		PageTitle:  titleOr(doc.Title, "SmartDoc"),
		FontsURL:   FontsURL,
		Stylesheet: template.CSS(stylesheet),
		BodyCSS:    template.CSS("font-family:" + cat.FontStack("sans") + ";"),
		Editor:     in.Editor,
		Endpoint:   in.Endpoint,
		Script:     template.JS(editorScript),
	}

	var canvas strings.Builder
	fmt.Fprintf(&canvas, "min-height:%gpx;background-color:%s;--sd-primary:%s;", float64(layout.PageCount())*layout.PageHeightPx, bg.Color, th.PrimaryColor)
	if z := in.Zoom; z > 0 && z != 1 {
		fmt.Fprintf(&canvas, "transform:scale(%g);transform-origin:top center;", ClampZoom(z))
	}
	v.CanvasCSS = template.CSS(canvas.String())
	if bg.Image != "" {
		opacity := bg.Opacity
		if opacity == 0 {
			opacity = 0.5
		}
		texture := fmt.Sprintf("background-image:%s;opacity:%g;", bg.Image, opacity)
		if bg.Size != "" {
			texture += "background-size:" + bg.Size + ";"
		}
		v.TextureCSS = template.CSS(texture)
	}

	for i, pg := range layout.Pages {
		pv := pageView{
			Number: pg.Number,
			CSS:    template.CSS(fmt.Sprintf("top:%gpx;height:%gpx;", pg.TopPx, layout.PageHeightPx)),
			Guide:  in.Editor && i < layout.PageCount()-1,
		}
		if pg.Header != nil {
			pv.Header = band(pg.Header, true, th, cat)
		}
		if pg.Footer != nil {
			pv.Footer = band(pg.Footer, false, th, cat)
		}
		v.Pages = append(v.Pages, pv)
	}

	v.Header = header(doc, th, cat, lang)
	deleteLabel := ""
	if in.Editor {
		deleteLabel = i18n.Text(lang, i18n.MsgDeleteSection)
	}
	for i, s := range doc.Sections {
		sv := section(s, th, cat, lang, in.LocalImages)
		sv.Index = i
		sv.Editable = in.Editor
		sv.DeleteLabel = deleteLabel
		v.Sections = append(v.Sections, sv)
	}
	return v
}

func titleOr(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}

func band(b *paginate.Band, top bool, th *theme.Theme, cat *theme.Catalog) *bandView {
	css := fmt.Sprintf("font-size:%gpt;color:%s;font-family:%s;", style.BandPt, th.SecondaryColor, cat.FontStack(th.BodyFont))
	if b.ShowLine {
		side := "bottom"
		if !top {
			side = "top"
		}
		css += "border-" + side + ":1px solid #d1d5db;"
	}
	return &bandView{Left: b.Left, Center: b.Center, Right: b.Right, CSS: template.CSS(css)}
}

func header(doc *model.Document, th *theme.Theme, cat *theme.Catalog, lang language.Tag) headerView {
	align := style.HeaderAlign(th.HeadingStyle)
	h := headerView{
		CSS:      template.CSS("text-align:" + string(align) + ";"),
		Title:    titleOr(doc.Title, i18n.Text(lang, i18n.MsgUntitled)),
		TitleCSS: template.CSS(style.Resolve(th.HeadingStyle, style.MainTitle).CSS(th, cat)),
		Subtitle: doc.Subtitle,
		Author:   doc.Author,
	}
	h.SubtitleCSS = template.CSS(fmt.Sprintf("font-size:%gpt;font-family:%s;color:#6b7280;margin:0 0 40px 0;font-style:italic;font-weight:300;",
		style.SubtitlePt, cat.FontStack(th.BodyFont)))
	justify := "flex-start"
	if align == style.AlignCenter {
		justify = "center"
	}
	h.AuthorCSS = template.CSS(fmt.Sprintf("justify-content:%s;font-size:12pt;text-transform:uppercase;letter-spacing:0.2em;font-family:%s;color:#6b7280;font-weight:700;margin-bottom:40px;",
		justify, cat.FontStack(th.BodyFont)))
	return h
}

func section(s model.Section, th *theme.Theme, cat *theme.Catalog, lang language.Tag, local bool) sectionView {
	sv := sectionView{Kind: string(s.Kind), Text: s.Text}
	body := style.Body().CSS(th, cat)
	switch s.Kind {
	case model.KindHeading, model.KindSubheading:
		c := style.Resolve(th.HeadingStyle, style.SectionHeading)
		sv.Heading = true
		sv.Tag = "h2"
		if s.Kind == model.KindSubheading {
			sv.Tag = "h3"
		}
		sv.CSS = template.CSS(c.CSS(th, cat))
		sv.Brackets = c.Brackets
		sv.BracketCSS = template.CSS(c.BracketCSS(th))
	case model.KindParagraph:
		sv.Paragraph = true
		sv.CSS = template.CSS(body + "margin:0 0 32px 0;")
	case model.KindBulletList, model.KindNumberedList:
		sv.List = true
		sv.Ordered = s.Kind == model.KindNumberedList
		sv.Items = s.Items
		marker := "disc"
		if sv.Ordered {
			marker = "decimal"
		}
		sv.CSS = template.CSS(body + "list-style-type:" + marker + ";padding-left:48px;margin:0 0 40px 0;")
	case model.KindQuote:
		sv.Quote = true
		box := "position:relative;margin:48px 0;padding:40px;"
		if th.ID == "creative" {
			box += "background-color:rgba(240,253,250,0.5);border-radius:12px;"
		} else {
			box += "background-color:rgba(249,250,251,0.8);border-left:6px solid " + th.AccentColor + ";"
		}
		sv.BoxCSS = template.CSS(box)
		sv.MarkCSS = template.CSS("position:absolute;top:16px;left:24px;font-size:40pt;line-height:1;opacity:0.2;color:" + th.PrimaryColor + ";")
		sv.CSS = template.CSS(fmt.Sprintf("position:relative;z-index:10;margin:0;padding-left:40px;font-family:%s;font-size:%gpt;font-style:italic;color:#374151;line-height:1.625;",
			cat.FontStack(th.HeadingFont), style.BodyPt))
	case model.KindImage:
		sv.Image = true
		sv.Src = safeImageURL(s.Text, local)
		sv.Alt = s.Alt
		if sv.Alt == "" {
			sv.Alt = i18n.Text(lang, i18n.MsgDocumentImage)
		}
		sv.Caption = s.Alt
		sv.CSS = template.CSS(fmt.Sprintf("font-size:%gpt;color:#6b7280;margin-top:16px;font-style:italic;", style.CaptionPt))
	default:
		sv.Text = UnknownText(s.Kind)
	}
	return sv
}

// UnknownText is the placeholder shown for a section kind no projector
// recognizes.
func UnknownText(kind model.Kind) string {
	return i18n.Text(i18n.Default, i18n.MsgUnknownSection, string(kind))
}

// safeImageURL allows http(s) and image data URLs, plus relative and file
// paths when local is set.
func safeImageURL(ref string, local bool) template.URL {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "data:") {
		if strings.HasPrefix(ref, "data:image/") {
			return template.URL(ref)
		}
		return "#"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "#"
	}
	switch u.Scheme {
	case "http", "https":
		return template.URL(ref)
	case "", "file":
		if local {
			return template.URL(ref)
		}
	}
	return "#"
}

// editorScript reports the measured content height and edits back to the
// serving session.
const editorScript = `(function () {
  var root = document.getElementById('printable-root');
  var endpoint = root && root.dataset.endpoint;
  if (!endpoint) return;
  function post(path, body, method) {
    return fetch(endpoint + path, {
      method: method || 'POST',
      headers: {'Content-Type': 'application/json'},
      body: body === undefined ? undefined : JSON.stringify(body)
    });
  }
  var content = document.getElementById('sd-content');
  var pages = document.querySelectorAll('.sd-page').length;
  var last = 0;
  new ResizeObserver(function () {
    var h = content.scrollHeight;
    if (h <= 0 || h === last) return;
    last = h;
    post('/height', {height: h}).then(function (r) { return r.json(); }).then(function (layout) {
      if (layout && layout.pages && layout.pages.length !== pages) location.reload();
    });
  }).observe(content);
  document.querySelectorAll('[data-field]').forEach(function (el) {
    el.addEventListener('blur', function () {
      post('/fields/' + el.dataset.field, {value: el.innerText}).then(function () {
        if (el.dataset.field === 'title') location.reload();
      });
    });
  });
  document.querySelectorAll('.sd-section').forEach(function (sec) {
    var i = sec.dataset.index;
    sec.querySelectorAll('[contenteditable]').forEach(function (el) {
      el.addEventListener('focus', function () { post('/focus', {index: +i}); });
      el.addEventListener('blur', function () {
        var items = sec.querySelectorAll('[data-item]');
        var body = items.length
          ? {items: Array.prototype.map.call(items, function (x) { return x.innerText; })}
          : {text: el.innerText};
        post('/sections/' + i, body, 'PUT');
      });
    });
    var del = sec.querySelector('.delete-section-btn');
    if (del) del.addEventListener('click', function () {
      post('/sections/' + i, undefined, 'DELETE').then(function () { location.reload(); });
    });
  });
})();`
