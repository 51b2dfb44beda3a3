package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gaurav-prasanna/smartdoc/config"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/session"
)

// useTestConfig installs the built-in configuration, structuring offline.
func useTestConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvAPIKeyLegacy, "")
	c, err := config.LoadConfiguration("")
	require.NoError(t, err)
	c.Structurer.Provider = config.ProviderLocal
	cfg = c
	log = zaptest.NewLogger(t)
}

func resetEditFlags() {
	flagSetTitle, flagSetSubtitle, flagSetAuthor = "", "", ""
	flagUpdate, flagDelete = nil, nil
	flagImage, flagImageAlt, flagStock = "", "", ""
	flagAfter = -1
	flagReset = false
	flagOut = ""
	for _, name := range []string{"title", "subtitle", "author"} {
		editCmd.Flags().Lookup(name).Changed = false
	}
}

// writeSample saves a document with paragraphs A to D and one list.
func writeSample(t *testing.T) string {
	t.Helper()
	doc := &model.Document{Title: "Notes"}
	for _, s := range []string{"A", "B", "C", "D"} {
		doc.Sections = append(doc.Sections, model.NewSection(model.KindParagraph, model.TextContent(s)))
	}
	doc.Sections = append(doc.Sections, model.NewSection(model.KindBulletList, model.ItemsContent("x")))
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, model.Save(path, doc))
	return path
}

func texts(doc *model.Document) []string {
	var out []string
	for _, s := range doc.Sections {
		if s.Kind.IsList() {
			out = append(out, "list")
			continue
		}
		out = append(out, s.Text)
	}
	return out
}

func TestParseUpdate(t *testing.T) {
	tests := []struct {
		in      string
		index   int
		text    string
		wantErr bool
	}{
		{"1=hello", 1, "hello", false},
		{" 2 =a=b", 2, "a=b", false},
		{"0=", 0, "", false},
		{"hello", 0, "", true},
		{"x=hello", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			i, text, err := parseUpdate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.index, i)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestRunEdit(t *testing.T) {
	tests := []struct {
		name    string
		set     func()
		wantErr bool
		check   func(t *testing.T, doc *model.Document)
	}{
		{
			name: "update text and list",
			set:  func() { flagUpdate = []string{"1=b2", "4=y | z"} },
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, []string{"A", "b2", "C", "D", "list"}, texts(doc))
				assert.Equal(t, []string{"y", "z"}, doc.Sections[4].Items)
			},
		},
		{
			name: "deletes use original numbering",
			set:  func() { flagDelete = []int{0, 2} },
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, []string{"B", "D", "list"}, texts(doc))
			},
		},
		{
			name: "repeated delete removes one section",
			set:  func() { flagDelete = []int{1, 1} },
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, []string{"A", "C", "D", "list"}, texts(doc))
			},
		},
		{
			name: "stock image after section",
			set:  func() { flagStock, flagAfter = "books", 0 },
			check: func(t *testing.T, doc *model.Document) {
				require.Len(t, doc.Sections, 6)
				assert.Equal(t, model.KindImage, doc.Sections[1].Kind)
				assert.Equal(t, "Books Library", doc.Sections[1].Alt)
				assert.Equal(t, "B", doc.Sections[2].Text)
			},
		},
		{
			name: "image appended without after",
			set:  func() { flagImage, flagImageAlt = "https://example.com/a.png", "chart" },
			check: func(t *testing.T, doc *model.Document) {
				last := doc.Sections[len(doc.Sections)-1]
				assert.Equal(t, model.KindImage, last.Kind)
				assert.Equal(t, "https://example.com/a.png", last.Text)
				assert.Equal(t, "chart", last.Alt)
			},
		},
		{
			name: "fields",
			set: func() {
				require.NoError(t, editCmd.Flags().Set("title", "Q3"))
				require.NoError(t, editCmd.Flags().Set("author", ""))
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "Q3", doc.Title)
				assert.Empty(t, doc.Author)
			},
		},
		{
			name: "reset before updates",
			set: func() {
				flagReset = true
				require.NoError(t, editCmd.Flags().Set("title", "Fresh"))
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "Fresh", doc.Title)
				assert.NotContains(t, texts(doc), "A")
			},
		},
		{name: "bad update", set: func() { flagUpdate = []string{"one"} }, wantErr: true},
		{name: "delete out of range", set: func() { flagDelete = []int{9} }, wantErr: true},
		{name: "unknown stock image", set: func() { flagStock = "nope" }, wantErr: true},
		{name: "after out of range", set: func() { flagImage, flagAfter = "https://example.com/a.png", 9 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useTestConfig(t)
			resetEditFlags()
			t.Cleanup(resetEditFlags)
			path := writeSample(t)
			tt.set()

			err := runEdit(editCmd, []string{path})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			doc, err := model.Load(path)
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestRunEditOutput(t *testing.T) {
	useTestConfig(t)
	resetEditFlags()
	t.Cleanup(resetEditFlags)
	path := writeSample(t)
	flagOut = filepath.Join(t.TempDir(), "edited.json")
	flagDelete = []int{0}

	require.NoError(t, runEdit(editCmd, []string{path}))

	edited, err := model.Load(flagOut)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D", "list"}, texts(edited))
	orig, err := model.Load(path)
	require.NoError(t, err)
	assert.Len(t, orig.Sections, 5)
}

func TestRunFormatLocal(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(in, []byte("Title: Plan\nAuthor: Ops\n\n## Goals\n\n- ship\n- rest\n\nWe start Monday.\n"), 0644))

	flagMode, flagLocal, flagOut = "polish", true, filepath.Join(dir, "doc.json")
	t.Cleanup(func() { flagMode, flagLocal, flagOut = "format-strict", false, "" })

	require.NoError(t, runFormat(formatCmd, []string{in}))
	doc, err := model.Load(flagOut)
	require.NoError(t, err)
	assert.Equal(t, "Plan", doc.Title)
	assert.Equal(t, "Ops", doc.Author)
	assert.Equal(t, []model.Kind{model.KindHeading, model.KindBulletList, model.KindParagraph}, doc.Kinds())
	assert.Equal(t, []string{"ship", "rest"}, doc.Sections[1].Items)

	flagMode = "bogus"
	assert.Error(t, runFormat(formatCmd, []string{in}))
}

func TestReexport(t *testing.T) {
	useTestConfig(t)
	resetFormatFlags()
	t.Cleanup(resetFormatFlags)
	path := writeSample(t)
	outDir := t.TempDir()
	flagOutputDir = outDir
	t.Cleanup(func() { flagOutputDir = "" })

	wb, err := openWorkbench(nil)
	require.NoError(t, err)
	defer wb.Close()
	writer, err := newWriter()
	require.NoError(t, err)
	formats := []session.Format{session.FormatMarkdown}

	require.NoError(t, reexport(context.Background(), wb, writer, path, formats))
	md, err := os.ReadFile(filepath.Join(outDir, "Notes.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "B")

	// a save with new content replaces the previous export
	flagUpdate = []string{"1=Revised paragraph"}
	t.Cleanup(resetEditFlags)
	require.NoError(t, runEdit(editCmd, []string{path}))
	require.NoError(t, reexport(context.Background(), wb, writer, path, formats))
	md, err = os.ReadFile(filepath.Join(outDir, "Notes.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Revised paragraph")
}
