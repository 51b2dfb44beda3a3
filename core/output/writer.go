// Package output handles file naming and writing for exported artifacts.
// Names derive from the document title; a title-less document falls back
// to a per-format default name.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// fallbackNames are used when the title is empty or sanitizes to nothing.
var fallbackNames = map[string]string{
	".png":  "smartdoc_export",
	".html": "document",
}

// DefaultName is the fallback for every other extension.
const DefaultName = "SmartDoc"

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
	// Slug transliterates names to lowercase ASCII.
	Slug bool
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Name returns the file name for a document titled title exported with
// extension ext (including the dot).
func (w *Writer) Name(title, ext string) string {
	name := sanitize(title)
	if w.Slug && name != "" {
		name = slug.Make(name)
	}
	if name == "" {
		name = Fallback(ext)
	}
	return name + ext
}

// Fallback is the base name used for ext when no title is available.
func Fallback(ext string) string {
	if n, ok := fallbackNames[strings.ToLower(ext)]; ok {
		return n
	}
	return DefaultName
}

// Write stores data under the title-derived name and returns the path.
func (w *Writer) Write(title string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, w.Name(title, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// unsafe are characters not allowed in file names on common filesystems.
const unsafe = `/\:*?"<>|`

// sanitize replaces unsafe and control characters with underscores and
// trims surrounding spaces and dots.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(s) {
		if unicode.IsControl(ch) || strings.ContainsRune(unsafe, ch) {
			b.WriteRune('_')
		} else {
			b.WriteRune(ch)
		}
	}
	return strings.Trim(b.String(), " .")
}
