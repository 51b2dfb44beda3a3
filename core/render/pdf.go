// Package render: PDF projector.
// Draws a print rendition of the document with gofpdf: the same section
// sequence as the other projectors, page bands resolved per PDF page, and
// embedded images. Without a UTF-8 font file only Latin-1 text renders
// faithfully.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/fetch"
	"github.com/gaurav-prasanna/smartdoc/core/i18n"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/style"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

const (
	pdfMargin    = 25.4
	pdfBandY     = 10.0
	pdfLineRatio = 0.5 // mm per pt at roughly 1.4 line height
)

// PDFProjector renders documents as PDF.
type PDFProjector struct {
	// FontPath is an optional TrueType font with CJK coverage.
	FontPath string
	fetcher  core.ImageFetcher
	log      *zap.Logger
}

// NewPDFProjector creates a PDFProjector.
func NewPDFProjector(fontPath string, fetcher core.ImageFetcher, log *zap.Logger) *PDFProjector {
	if fetcher == nil {
		fetcher = fetch.New(log)
	}
	return &PDFProjector{FontPath: fontPath, fetcher: fetcher, log: log.Named("pdf")}
}

// Extension returns the file extension for PDF output.
func (p *PDFProjector) Extension() string {
	return ".pdf"
}

type pdfDoc struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
	th     *theme.Theme
}

func (d *pdfDoc) font(weight string, size float64) {
	if d.family != "Helvetica" {
		// UTF-8 fonts are registered for regular only.
		weight = ""
	}
	d.pdf.SetFont(d.family, weight, size)
}

func (d *pdfDoc) color(hex string) {
	r, g, b := theme.RGB(hex)
	d.pdf.SetTextColor(r, g, b)
}

func (d *pdfDoc) text(size float64, s, align string) {
	d.pdf.MultiCell(0, size*pdfLineRatio, d.tr(s), "", align, false)
}

// Project renders in as PDF bytes.
func (p *PDFProjector) Project(ctx context.Context, in *core.Input) ([]byte, error) {
	doc := in.Document
	if doc == nil {
		return nil, fmt.Errorf("rendering pdf: no document")
	}
	th := in.Theme
	if th == nil {
		th = catalogOf(in).ThemeOrDefault("")
	}
	lang := in.Lang
	if lang == language.Und {
		lang = i18n.Default
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+5)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)

	d := &pdfDoc{pdf: pdf, family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor(""), th: th}
	if p.FontPath != "" {
		pdf.AddUTF8Font("body", "", p.FontPath)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("loading font %s: %w", p.FontPath, err)
		}
		d.family = "body"
		d.tr = func(s string) string { return s }
	}

	resolver := paginate.Resolver{Title: doc.Title, Lang: lang}
	pdf.SetHeaderFunc(func() {
		if b := resolver.Resolve(in.Settings.Header, pdf.PageNo(), in.Settings); b != nil {
			d.band(b, pdfBandY, true)
		}
	})
	pdf.SetFooterFunc(func() {
		if b := resolver.Resolve(in.Settings.Footer, pdf.PageNo(), in.Settings); b != nil {
			d.band(b, 297-pdfBandY-5, false)
		}
	})
	pdf.AddPage()

	align := "L"
	if style.HeaderAlign(th.HeadingStyle) == style.AlignCenter {
		align = "C"
	}
	d.font("B", style.TitlePt)
	d.color(th.Export.Primary)
	d.text(style.TitlePt, titleOr(doc.Title, i18n.Text(lang, i18n.MsgUntitled)), align)
	pdf.Ln(4)
	if doc.Subtitle != "" {
		d.font("I", style.SubtitlePt)
		d.color(th.Export.Secondary)
		d.text(style.SubtitlePt, doc.Subtitle, align)
		pdf.Ln(3)
	}
	if doc.Author != "" {
		d.font("", style.AuthorPt)
		d.color("#666666")
		d.text(style.AuthorPt, doc.Author, align)
	}
	pdf.Ln(8)

	for i, s := range doc.Sections {
		switch s.Kind {
		case model.KindHeading, model.KindSubheading:
			size := style.HeadingPt
			if s.Kind == model.KindSubheading {
				size = style.SubheadingPt
			}
			pdf.Ln(5)
			d.font("B", size)
			d.color(th.Export.Primary)
			d.text(size, s.Text, "L")
			if s.Kind == model.KindHeading && th.HeadingStyle == theme.HeadingUnderlined {
				r, g, b := theme.RGB(th.Export.Accent)
				pdf.SetDrawColor(r, g, b)
				pdf.SetLineWidth(0.6)
				y := pdf.GetY() + 1
				pdf.Line(pdfMargin, y, 210-pdfMargin, y)
				pdf.Ln(2)
			}
			pdf.Ln(3)
		case model.KindParagraph:
			d.font("", style.BodyPt)
			d.color(th.Export.Secondary)
			d.text(style.BodyPt, s.Text, "J")
			pdf.Ln(4)
		case model.KindBulletList, model.KindNumberedList:
			d.font("", style.BodyPt)
			d.color(th.Export.Secondary)
			for n, item := range s.Items {
				marker := "- "
				if s.Kind == model.KindNumberedList {
					marker = strconv.Itoa(n+1) + ". "
				}
				d.text(style.BodyPt, marker+item, "L")
				pdf.Ln(1.5)
			}
			pdf.Ln(3)
		case model.KindQuote:
			r, g, b := theme.RGB(th.Export.Accent)
			top := pdf.GetY()
			pdf.SetLeftMargin(pdfMargin + 12.7)
			pdf.SetX(pdfMargin + 12.7)
			d.font("I", style.BodyPt)
			d.color(th.Export.Accent)
			d.text(style.BodyPt, s.Text, "L")
			pdf.SetLeftMargin(pdfMargin)
			pdf.SetFillColor(r, g, b)
			pdf.Rect(pdfMargin+8, top, 1.5, pdf.GetY()-top, "F")
			pdf.Ln(5)
		case model.KindImage:
			if err := p.image(ctx, pdf, i, s); err != nil {
				p.log.Warn("Skipping image section", zap.Int("index", i), zap.Error(err))
			}
		default:
			d.font("I", style.BodyPt)
			d.color("#dc2626")
			d.text(style.BodyPt, UnknownText(s.Kind), "L")
			pdf.Ln(4)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *pdfDoc) band(b *paginate.Band, y float64, top bool) {
	w := (210 - 2*pdfMargin) / 3
	d.pdf.SetY(y)
	d.font("", style.BandPt)
	d.color(d.th.SecondaryColor)
	d.pdf.CellFormat(w, 5, d.tr(b.Left), "", 0, "L", false, 0, "")
	d.pdf.CellFormat(w, 5, d.tr(b.Center), "", 0, "C", false, 0, "")
	d.pdf.CellFormat(w, 5, d.tr(b.Right), "", 1, "R", false, 0, "")
	if b.ShowLine {
		d.pdf.SetDrawColor(209, 213, 219)
		d.pdf.SetLineWidth(0.2)
		ly := y + 6
		if !top {
			ly = y - 1
		}
		d.pdf.Line(pdfMargin, ly, 210-pdfMargin, ly)
	}
}

// pdfImageTypes are the formats gofpdf can embed.
var pdfImageTypes = map[string]string{"png": "PNG", "jpg": "JPG", "gif": "GIF"}

func (p *PDFProjector) image(ctx context.Context, pdf *gofpdf.Fpdf, i int, s model.Section) error {
	img, err := p.fetcher.FetchImage(ctx, s.Text)
	if err != nil {
		return err
	}
	kind, ok := pdfImageTypes[img.Ext]
	if !ok {
		return fmt.Errorf("unsupported image type %q", img.Ext)
	}
	name := "img" + strconv.Itoa(i)
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: kind}, bytes.NewReader(img.Data))
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		return err
	}
	// 500x300 px frame at 96 dpi.
	w, h := fetch.Fit(img.Width, img.Height, imageFrameW, imageFrameH)
	wmm, hmm := float64(w)/paginate.PxPerMM, float64(h)/paginate.PxPerMM
	x := (210 - wmm) / 2
	pdf.Ln(4)
	pdf.ImageOptions(name, x, -1, wmm, hmm, true, gofpdf.ImageOptions{ImageType: kind}, 0, "")
	pdf.Ln(4)
	return nil
}
