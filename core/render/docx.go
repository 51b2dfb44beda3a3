// Package render: DOCX projector.
// Maps sections onto word-processor paragraphs with fixed point sizes,
// CJK fonts and the theme's export colours. Images are fetched and
// embedded; a failed fetch drops that one section and is logged.
package render

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/docx"
	"github.com/gaurav-prasanna/smartdoc/core/fetch"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

// Half-point sizes.
const (
	titleHalfPt      = 64
	subtitleHalfPt   = 40
	authorHalfPt     = 28
	headingHalfPt    = 44
	subheadingHalfPt = 36
	bodyHalfPt       = 32
)

const (
	marginTwips     = docx.TwipsPerInch
	quoteIndent     = docx.TwipsPerInch / 2
	lineOneAndHalf  = 360
	imageFrameW     = 500
	imageFrameH     = 300
	authorColor     = "666666"
	placeholderFill = "DC2626"
)

const (
	fontTitle    = "SimSun"
	fontSubtitle = "FangSong"
	fontHei      = "SimHei"
	fontBody     = "SimSun"
	fontOfficial = "FangSong"
	fontQuote    = "KaiTi"
)

// DOCXProjector writes .docx documents.
type DOCXProjector struct {
	fetcher core.ImageFetcher
	log     *zap.Logger
	now     func() time.Time
}

// NewDOCXProjector creates a DOCXProjector. A nil fetcher gets the default
// HTTP fetcher.
func NewDOCXProjector(fetcher core.ImageFetcher, log *zap.Logger) *DOCXProjector {
	if fetcher == nil {
		fetcher = fetch.New(log)
	}
	return &DOCXProjector{fetcher: fetcher, log: log.Named("docx"), now: time.Now}
}

// Project builds and serializes the document.
func (p *DOCXProjector) Project(ctx context.Context, in *core.Input) ([]byte, error) {
	d, _, err := p.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	data, err := docx.Bytes(d)
	if err != nil {
		return nil, fmt.Errorf("writing docx: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for DOCX output.
func (p *DOCXProjector) Extension() string {
	return ".docx"
}

// Build maps in onto the paragraph model. It also returns the section
// kinds it emitted, in order, so callers can compare projections.
func (p *DOCXProjector) Build(ctx context.Context, in *core.Input) (*docx.Document, []model.Kind, error) {
	doc := in.Document
	if doc == nil {
		return nil, nil, fmt.Errorf("building docx: no document")
	}
	th := in.Theme
	if th == nil {
		th = catalogOf(in).ThemeOrDefault("")
	}

	out := &docx.Document{
		Title:       doc.Title,
		Creator:     doc.Author,
		Created:     p.now().UTC(),
		MarginTwips: marginTwips,
	}
	align := docx.AlignLeft
	if th.HeadingStyle == theme.HeadingCenteredLine {
		align = docx.AlignCenter
	}
	primary := theme.Hex(th.Export.Primary)
	secondary := theme.Hex(th.Export.Secondary)
	accent := theme.Hex(th.Export.Accent)

	if doc.Title != "" {
		out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
			Style: "Heading1", Align: align, SpacingBefore: 400, SpacingAfter: 600,
			Runs: []docx.Run{{Text: doc.Title, Font: fontTitle, SizeHalfPt: titleHalfPt, Bold: true, Color: primary}},
		})
	}
	if doc.Subtitle != "" {
		out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
			Align: align, SpacingAfter: 400,
			Runs: []docx.Run{{Text: doc.Subtitle, Font: fontSubtitle, SizeHalfPt: subtitleHalfPt, Italic: true, Color: secondary}},
		})
	}
	if doc.Author != "" {
		out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
			Align: align, SpacingAfter: 600,
			Runs: []docx.Run{{Text: doc.Author, Font: fontHei, SizeHalfPt: authorHalfPt, Color: authorColor}},
		})
	}

	bodyFont := fontBody
	if th.ID == "official" {
		bodyFont = fontOfficial
	}

	var kinds []model.Kind
	lists := 0
	for i, s := range doc.Sections {
		switch s.Kind {
		case model.KindHeading:
			para := docx.Paragraph{
				Style: "Heading2", Align: docx.AlignLeft, SpacingBefore: 400, SpacingAfter: 300,
				Runs: []docx.Run{{Text: s.Text, Font: fontHei, SizeHalfPt: headingHalfPt, Bold: true, Color: primary}},
			}
			if th.HeadingStyle == theme.HeadingUnderlined {
				para.BorderBottom = &docx.Border{Color: accent, Size: 6, Space: 1}
			}
			out.Paragraphs = append(out.Paragraphs, para)
		case model.KindSubheading:
			out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
				Style: "Heading3", SpacingBefore: 300, SpacingAfter: 200,
				Runs: []docx.Run{{Text: s.Text, Font: fontHei, SizeHalfPt: subheadingHalfPt, Bold: true, Color: primary}},
			})
		case model.KindParagraph:
			out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
				Align: docx.AlignBoth, Line: lineOneAndHalf, SpacingAfter: 300,
				Runs: []docx.Run{{Text: s.Text, Font: bodyFont, SizeHalfPt: bodyHalfPt, Color: secondary}},
			})
		case model.KindBulletList, model.KindNumberedList:
			lists++
			list := &docx.List{Numbered: s.Kind == model.KindNumberedList, Instance: lists}
			for _, item := range s.Items {
				out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
					Style: "ListParagraph", List: list, Line: lineOneAndHalf, SpacingAfter: 150,
					Runs: []docx.Run{{Text: item, Font: fontBody, SizeHalfPt: bodyHalfPt, Color: secondary}},
				})
			}
		case model.KindQuote:
			out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
				IndentLeft: quoteIndent, SpacingBefore: 300, SpacingAfter: 300,
				Runs: []docx.Run{{Text: s.Text, Font: fontQuote, SizeHalfPt: bodyHalfPt, Italic: true, Color: accent}},
			})
		case model.KindImage:
			img, err := p.fetcher.FetchImage(ctx, s.Text)
			if err != nil {
				p.log.Warn("Skipping image section", zap.Int("index", i), zap.String("url", truncate(s.Text, 120)), zap.Error(err))
				continue
			}
			w, h := fetch.Fit(img.Width, img.Height, imageFrameW, imageFrameH)
			out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
				Align: docx.AlignCenter, SpacingBefore: 200, SpacingAfter: 200,
				Runs: []docx.Run{{Image: &docx.Image{Data: img.Data, Ext: img.Ext, Width: w, Height: h, Descr: s.Alt}}},
			})
		default:
			out.Paragraphs = append(out.Paragraphs, docx.Paragraph{
				SpacingAfter: 300,
				Runs:         []docx.Run{{Text: UnknownText(s.Kind), Font: fontBody, SizeHalfPt: bodyHalfPt, Italic: true, Color: placeholderFill}},
			})
		}
		kinds = append(kinds, s.Kind)
	}
	return out, kinds, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
