package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/session"
)

func resetFormatFlags() {
	flagAll, flagDOCX, flagHTML, flagPNG, flagPDF, flagMarkdown, flagJSON = false, false, false, false, false, false, false
	flagHeight = 0
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		set     func()
		wantErr bool
		want    []session.Format
	}{
		{"none", func() {}, true, nil},
		{"docx", func() { flagDOCX = true }, false, []session.Format{session.FormatDOCX}},
		{"markdown", func() { flagMarkdown = true }, false, []session.Format{session.FormatMarkdown}},
		{"two", func() { flagDOCX, flagPNG = true, true }, true, nil},
		{"all", func() { flagAll = true }, false, session.Formats},
		{"all plus one", func() { flagAll, flagHTML = true, true }, true, nil},
		{"negative height", func() { flagJSON, flagHeight = true, -1 }, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFormatFlags()
			t.Cleanup(resetFormatFlags)
			tt.set()

			err := validateFlags()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, selectFormats())
		})
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("raw notes"), 0644))
	doc, err := readInput(txt)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, model.KindParagraph, doc.Sections[0].Kind)
	assert.Equal(t, "raw notes", doc.Sections[0].Text)

	js := filepath.Join(dir, "doc.JSON")
	want := &model.Document{
		Title:    "Report",
		Sections: []model.Section{model.NewSection(model.KindBulletList, model.ItemsContent("a", "b"))},
	}
	require.NoError(t, model.Save(js, want))
	doc, err = readInput(js)
	require.NoError(t, err)
	assert.Equal(t, "Report", doc.Title)
	assert.Equal(t, []string{"a", "b"}, doc.Sections[0].Items)

	_, err = readInput(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
