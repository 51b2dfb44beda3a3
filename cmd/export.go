// Package cmd: export command.
// Loads a document, applies presentation flags, paginates and writes one or
// every export format.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core/output"
	"github.com/gaurav-prasanna/smartdoc/core/session"
)

// Flag variables.
var (
	flagAll       bool
	flagDOCX      bool
	flagHTML      bool
	flagPNG       bool
	flagPDF       bool
	flagMarkdown  bool
	flagJSON      bool
	flagHeight    float64
	flagMeasure   bool
	flagOutputDir string
	flagSlug      bool
)

var exportCmd = &cobra.Command{
	Use:   "export <document>",
	Short: "Export a document to the specified format",
	Long: `Export loads a JSON document (or raw text, placed in a single paragraph),
applies the chosen theme and background, paginates it and writes the result.

Pagination needs the rendered content height. Pass it with --height, or let
--measure render the canvas in headless Chrome.

Examples:
  smartdoc export doc.json --docx
  smartdoc export doc.json --png --theme official --background white
  smartdoc export doc.json --all --measure --output_dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addFormatFlags(exportCmd)
	exportCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default from config, then current directory)")
	exportCmd.Flags().BoolVar(&flagSlug, "slug", false, "Transliterate file names to lowercase ASCII")
}

// addFormatFlags registers the format, presentation and height flags shared
// by export and watch.
func addFormatFlags(cmd *cobra.Command) {
	// Output format flags (mutually exclusive unless --all).
	cmd.Flags().BoolVar(&flagDOCX, "docx", false, "Output Word document")
	cmd.Flags().BoolVar(&flagHTML, "html", false, "Output standalone HTML")
	cmd.Flags().BoolVar(&flagPNG, "png", false, "Output PNG image (requires Chrome)")
	cmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	cmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "Output document JSON")
	cmd.Flags().BoolVar(&flagAll, "all", false, "Output every format")

	cmd.Flags().StringVar(&flagTheme, "theme", "", "Theme id (see 'smartdoc themes')")
	cmd.Flags().StringVar(&flagBackground, "background", "", "Background id")
	cmd.Flags().Float64Var(&flagHeight, "height", 0, "Measured content height in CSS pixels")
	cmd.Flags().BoolVar(&flagMeasure, "measure", false, "Measure content height in headless Chrome")
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}
	formats := selectFormats()

	doc, err := readInput(args[0])
	if err != nil {
		return err
	}
	if flagSlug {
		cfg.Export.FileNameTransliterate = true
	}
	wb, err := openWorkbench(doc)
	if err != nil {
		return err
	}
	defer wb.Close()

	writer, err := newWriter()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := observeHeight(ctx, wb); err != nil {
		return err
	}

	return exportAll(ctx, wb, writer, formats)
}

// exportAll writes every format and reports each result. Failures do not
// stop the remaining formats.
func exportAll(ctx context.Context, wb *workbench, writer *output.Writer, formats []session.Format) error {
	var errs []error
	for _, f := range formats {
		a, err := wb.sess.Export(ctx, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s\n", session.Describe(err, f, wb.sess.Lang()))
			errs = append(errs, err)
			continue
		}
		path, err := writer.Write(wb.sess.Document().Title, a.Data, "."+string(f))
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Write error: %v\n", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(os.Stdout, "✓ Written: %s (%s)\n", path, session.Exported(f, wb.sess.Lang()))
	}
	if len(errs) > 0 && len(formats) > 1 {
		fmt.Fprintf(os.Stderr, "\n%d/%d formats failed\n", len(errs), len(formats))
	}
	return errors.Join(errs...)
}

func newWriter() (*output.Writer, error) {
	dir := flagOutputDir
	if dir == "" {
		dir = cfg.Export.OutputDir
	}
	writer, err := output.New(dir)
	if err != nil {
		return nil, fmt.Errorf("initializing output writer: %w", err)
	}
	writer.Slug = cfg.Export.FileNameTransliterate
	return writer, nil
}

// observeHeight feeds a content height into the session when one is available.
// Without one the document exports as a single page.
func observeHeight(ctx context.Context, wb *workbench) error {
	switch {
	case flagHeight > 0:
		wb.sess.ObserveHeight(flagHeight)
	case flagMeasure:
		layout, err := wb.sess.Measure(ctx, wb.browser)
		if err != nil {
			return err
		}
		log.Debug("Measured document", zap.Float64("height", layout.HeightPx), zap.Int("pages", layout.PageCount()))
	}
	return nil
}

// validateFlags checks that exactly one output format is chosen, or --all.
func validateFlags() error {
	if flagHeight < 0 {
		return fmt.Errorf("--height must be positive")
	}
	formatCount := 0
	for _, set := range []bool{flagDOCX, flagHTML, flagPNG, flagPDF, flagMarkdown, flagJSON} {
		if set {
			formatCount++
		}
	}

	if flagAll {
		if formatCount > 0 {
			return fmt.Errorf("--all cannot be combined with a format flag")
		}
		return nil
	}
	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --docx, --html, --png, --pdf, --markdown, --json, or --all")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}
	return nil
}

// selectFormats returns the formats chosen by flags.
func selectFormats() []session.Format {
	if flagAll {
		return session.Formats
	}
	switch {
	case flagDOCX:
		return []session.Format{session.FormatDOCX}
	case flagHTML:
		return []session.Format{session.FormatHTML}
	case flagPNG:
		return []session.Format{session.FormatPNG}
	case flagPDF:
		return []session.Format{session.FormatPDF}
	case flagMarkdown:
		return []session.Format{session.FormatMarkdown}
	default:
		return []session.Format{session.FormatJSON}
	}
}
