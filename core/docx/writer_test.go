package docx

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Document {
	bullet := func(instance int, text string) Paragraph {
		return Paragraph{List: &List{Instance: instance}, Runs: []Run{{Text: text}}}
	}
	numbered := func(instance int, text string) Paragraph {
		return Paragraph{List: &List{Numbered: true, Instance: instance}, Runs: []Run{{Text: text}}}
	}
	return &Document{
		Title:       "Report",
		Creator:     "SmartDoc",
		Created:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		MarginTwips: TwipsPerInch,
		Paragraphs: []Paragraph{
			{Style: "Heading1", Align: AlignCenter, Runs: []Run{{Text: "Report", Font: "SimSun", SizeHalfPt: 64, Bold: true, Color: "111827"}}},
			{Style: "Heading2", BorderBottom: &Border{Color: "DC2626", Size: 6, Space: 1}, Runs: []Run{{Text: "Intro"}}},
			{Align: AlignBoth, Line: 360, Runs: []Run{{Text: " padded "}}},
			numbered(1, "one"),
			numbered(1, "two"),
			bullet(2, "dot"),
			numbered(3, "again"),
			{Align: AlignCenter, Runs: []Run{{Image: &Image{Data: []byte("\x89PNG"), Ext: "png", Width: 500, Height: 300, Descr: "pic"}}}},
		},
	}
}

func readPart(t *testing.T, data []byte, name string) *etree.Document {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			doc := etree.NewDocument()
			_, err = doc.ReadFrom(rc)
			require.NoError(t, err)
			return doc
		}
	}
	t.Fatalf("part %s not found", name)
	return nil
}

func TestWritePackage(t *testing.T) {
	data, err := Bytes(sample())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "[Content_Types].xml")
	assert.Contains(t, names, "word/document.xml")
	assert.Contains(t, names, "word/numbering.xml")
	assert.Contains(t, names, "word/media/image1.png")

	ct := readPart(t, data, "[Content_Types].xml")
	assert.NotNil(t, ct.FindElement(`//Default[@Extension='png']`))

	rels := readPart(t, data, "word/_rels/document.xml.rels")
	var targets []string
	for _, r := range rels.FindElements("//Relationship") {
		targets = append(targets, r.SelectAttrValue("Target", ""))
	}
	assert.Contains(t, targets, "media/image1.png")

	core := readPart(t, data, "docProps/core.xml")
	assert.Equal(t, "Report", core.FindElement("//dc:title").Text())
	assert.Equal(t, "2024-01-02T03:04:05Z", core.FindElement("//dcterms:created").Text())
}

func TestDocumentBody(t *testing.T) {
	data, err := Bytes(sample())
	require.NoError(t, err)
	doc := readPart(t, data, "word/document.xml")

	pgMar := doc.FindElement("//w:sectPr/w:pgMar")
	require.NotNil(t, pgMar)
	assert.Equal(t, "1440", pgMar.SelectAttrValue("w:top", ""))
	assert.Equal(t, "1440", pgMar.SelectAttrValue("w:left", ""))

	bottom := doc.FindElement("//w:pBdr/w:bottom")
	require.NotNil(t, bottom)
	assert.Equal(t, "DC2626", bottom.SelectAttrValue("w:color", ""))

	var padded *etree.Element
	for _, el := range doc.FindElements("//w:t") {
		if el.Text() == " padded " {
			padded = el
		}
	}
	require.NotNil(t, padded)
	assert.Equal(t, "preserve", padded.SelectAttrValue("xml:space", ""))

	extent := doc.FindElement("//wp:extent")
	require.NotNil(t, extent)
	assert.Equal(t, "4762500", extent.SelectAttrValue("cx", ""))
	assert.Equal(t, "2857500", extent.SelectAttrValue("cy", ""))
}

func TestListsRestartPerInstance(t *testing.T) {
	data, err := Bytes(sample())
	require.NoError(t, err)

	paras, err := Inspect(data)
	require.NoError(t, err)
	require.Len(t, paras, 8)
	assert.Equal(t, "1", paras[3].NumID)
	assert.Equal(t, "1", paras[4].NumID)
	assert.Equal(t, "2", paras[5].NumID)
	assert.Equal(t, "3", paras[6].NumID)

	numbering := readPart(t, data, "word/numbering.xml")
	nums := numbering.FindElements("//w:num")
	require.Len(t, nums, 3)
	abs := func(i int) string {
		return nums[i].FindElement("w:abstractNumId").SelectAttrValue("w:val", "")
	}
	assert.Equal(t, "1", abs(0))
	assert.Equal(t, "0", abs(1))
	assert.Equal(t, "1", abs(2))
	for _, n := range nums {
		assert.Equal(t, "1", n.FindElement("w:lvlOverride/w:startOverride").SelectAttrValue("w:val", ""))
	}
}

func TestInspect(t *testing.T) {
	data, err := Bytes(sample())
	require.NoError(t, err)
	paras, err := Inspect(data)
	require.NoError(t, err)

	assert.Equal(t, "Heading1", paras[0].Style)
	assert.Equal(t, "center", paras[0].Align)
	assert.Equal(t, "Report", paras[0].Text)
	assert.Equal(t, []string{"SimSun"}, paras[0].Fonts)
	assert.Equal(t, 1, paras[7].Images)

	_, err = Inspect([]byte("not a zip"))
	assert.Error(t, err)
}
