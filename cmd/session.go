package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/config"
	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/capture"
	"github.com/gaurav-prasanna/smartdoc/core/fetch"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/session"
	"github.com/gaurav-prasanna/smartdoc/core/structure"
)

// Presentation flags shared by every command that renders.
var (
	flagTheme      string
	flagBackground string
)

// workbench is one CLI editing session plus the browser backing PNG export
// and measurement. The browser starts only when first used.
type workbench struct {
	sess    *session.Session
	browser *capture.Browser
}

func newFetcher() *fetch.HTTPFetcher {
	return fetch.New(log).WithMaxEdge(cfg.Export.ImageMaxEdge)
}

// sessionOptions builds the options every CLI and served session shares.
// The fetcher decides whether image sections may name local files.
func sessionOptions(browser core.Capturer, fetcher *fetch.HTTPFetcher) (session.Options, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Catalog:    cat,
		Structurer: selectStructurer(cfg.Structurer.Provider),
		Projectors: session.StandardProjectors(session.ProjectorConfig{
			Capturer: browser,
			Fetcher:  fetcher,
			PDFFont:  cfg.Export.PDFFontPath,
			Settle:   cfg.Export.RasterSettle,
			Log:      log,
		}),
		Lang:        cfg.Lang(),
		Slug:        cfg.Export.FileNameTransliterate,
		LocalImages: fetcher.LocalFiles(),
		Log:         log,
	}, nil
}

func openWorkbench(doc *model.Document) (*workbench, error) {
	browser := capture.New(cfg.Capture, log)
	// documents on the command line belong to the user running it
	opts, err := sessionOptions(browser, newFetcher().AllowLocal())
	if err != nil {
		return nil, err
	}
	sess := session.New(opts)

	themeID, bgID := cfg.Document.Theme, cfg.Document.Background
	if flagTheme != "" {
		themeID = flagTheme
	}
	if flagBackground != "" {
		bgID = flagBackground
	}
	if err := sess.SetTheme(themeID); err != nil {
		return nil, err
	}
	if err := sess.SetBackground(bgID); err != nil {
		return nil, err
	}
	if err := sess.SetSettings(cfg.Document.Page); err != nil {
		return nil, err
	}
	if doc != nil {
		if err := sess.SetDocument(doc); err != nil {
			return nil, err
		}
	}
	return &workbench{sess: sess, browser: browser}, nil
}

func (w *workbench) Close() {
	if err := w.browser.Close(); err != nil {
		log.Warn("Unable to close browser", zap.Error(err))
	}
}

// selectStructurer creates the structuring client for provider.
func selectStructurer(provider string) core.Structurer {
	if provider == config.ProviderLocal {
		return structure.NewLocal()
	}
	return structure.NewGemini(cfg.Structurer.Endpoint, cfg.Structurer.Model, string(cfg.Structurer.APIKey), log)
}

// readInput loads a document from path. JSON files are decoded as
// documents; anything else is raw text placed in a single paragraph.
// "-" reads stdin.
func readInput(path string) (*model.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return model.Load(path)
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return &model.Document{
		Sections: []model.Section{model.NewSection(model.KindParagraph, model.TextContent(string(data)))},
	}, nil
}
