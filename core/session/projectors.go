package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/render"
)

// ProjectorConfig selects the collaborators behind the standard projector
// set.
type ProjectorConfig struct {
	// Capturer backs PNG export. Nil makes PNG export fail.
	Capturer core.Capturer
	// Fetcher loads images for DOCX and PDF. Nil uses the HTTP fetcher.
	Fetcher core.ImageFetcher
	// PDFFont is a UTF-8 TrueType font for PDF output.
	PDFFont string
	// Settle overrides the raster settle delay when positive.
	Settle time.Duration
	Log    *zap.Logger
}

// StandardProjectors returns a factory producing every export format.
func StandardProjectors(pc ProjectorConfig) ProjectorFactory {
	log := pc.Log
	if log == nil {
		log = zap.NewNop()
	}
	return func(vp core.Viewport) map[Format]core.Projector {
		raster := render.NewRasterProjector(pc.Capturer, vp, log)
		if pc.Settle > 0 {
			raster.WithSettle(pc.Settle)
		}
		return map[Format]core.Projector{
			FormatPNG:      raster,
			FormatHTML:     render.NewHTMLProjector(),
			FormatDOCX:     render.NewDOCXProjector(pc.Fetcher, log),
			FormatMarkdown: render.NewMarkdownProjector(),
			FormatPDF:      render.NewPDFProjector(pc.PDFFont, pc.Fetcher, log),
			FormatJSON:     render.NewJSONProjector(),
		}
	}
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "png", ".png", "image":
		return FormatPNG, true
	case "html", ".html", "htm":
		return FormatHTML, true
	case "docx", ".docx", "word":
		return FormatDOCX, true
	case "md", ".md", "markdown":
		return FormatMarkdown, true
	case "pdf", ".pdf":
		return FormatPDF, true
	case "json", ".json":
		return FormatJSON, true
	}
	return "", false
}

// ContentType is the MIME type of artifacts in format f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}
