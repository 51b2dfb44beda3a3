package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOfficeDoc = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relAppProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	ctDocument  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles    = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ctCore      = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp       = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRels      = "application/vnd.openxmlformats-package.relationships+xml"
)

var imageTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

// abstract numbering ids
const (
	absBullet  = 0
	absDecimal = 1
)

type media struct {
	relID string
	name  string
	img   *Image
}

type listKey struct {
	numbered bool
	instance int
}

// writer carries the state collected while emitting document.xml.
type writer struct {
	media   []media
	lists   map[listKey]int
	listSeq []listKey
	drawing int
}

// Write serializes d as a .docx package.
func Write(w io.Writer, d *Document) error {
	st := &writer{lists: map[listKey]int{}}
	body := st.document(d)

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		doc  *etree.Document
	}{
		{"[Content_Types].xml", st.contentTypes()},
		{"_rels/.rels", packageRels()},
		{"word/document.xml", body},
		{"word/_rels/document.xml.rels", st.documentRels()},
		{"word/styles.xml", styles()},
		{"word/numbering.xml", st.numbering()},
		{"docProps/core.xml", coreProps(d)},
		{"docProps/app.xml", appProps()},
	}
	for _, p := range parts {
		if err := writeXMLToZip(zw, p.name, p.doc); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	for _, m := range st.media {
		if err := writeDataToZip(zw, "word/media/"+m.name, m.img.Data); err != nil {
			return fmt.Errorf("writing %s: %w", m.name, err)
		}
	}
	return zw.Close()
}

// Bytes serializes d into memory.
func Bytes(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newXML() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func val(parent *etree.Element, tag string, v string) *etree.Element {
	el := parent.CreateElement(tag)
	el.CreateAttr("w:val", v)
	return el
}

func (st *writer) document(d *Document) *etree.Document {
	doc := newXML()
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateAttr("xmlns:a", nsA)
	root.CreateAttr("xmlns:pic", nsPic)

	body := root.CreateElement("w:body")
	for i := range d.Paragraphs {
		st.paragraph(body, &d.Paragraphs[i])
	}

	margin := strconv.Itoa(d.MarginTwips)
	sect := body.CreateElement("w:sectPr")
	pgSz := sect.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", "11906")
	pgSz.CreateAttr("w:h", "16838")
	pgMar := sect.CreateElement("w:pgMar")
	for _, side := range []string{"top", "right", "bottom", "left"} {
		pgMar.CreateAttr("w:"+side, margin)
	}
	pgMar.CreateAttr("w:header", "720")
	pgMar.CreateAttr("w:footer", "720")
	pgMar.CreateAttr("w:gutter", "0")
	return doc
}

func (st *writer) paragraph(body *etree.Element, p *Paragraph) {
	el := body.CreateElement("w:p")
	pPr := el.CreateElement("w:pPr")
	if p.Style != "" {
		val(pPr, "w:pStyle", p.Style)
	}
	if p.List != nil {
		numPr := pPr.CreateElement("w:numPr")
		val(numPr, "w:ilvl", "0")
		val(numPr, "w:numId", strconv.Itoa(st.numID(*p.List)))
	}
	if p.BorderBottom != nil {
		bdr := pPr.CreateElement("w:pBdr")
		bottom := val(bdr, "w:bottom", "single")
		bottom.CreateAttr("w:sz", strconv.Itoa(p.BorderBottom.Size))
		bottom.CreateAttr("w:space", strconv.Itoa(p.BorderBottom.Space))
		bottom.CreateAttr("w:color", p.BorderBottom.Color)
	}
	if p.SpacingBefore > 0 || p.SpacingAfter > 0 || p.Line > 0 {
		sp := pPr.CreateElement("w:spacing")
		if p.SpacingBefore > 0 {
			sp.CreateAttr("w:before", strconv.Itoa(p.SpacingBefore))
		}
		if p.SpacingAfter > 0 {
			sp.CreateAttr("w:after", strconv.Itoa(p.SpacingAfter))
		}
		if p.Line > 0 {
			sp.CreateAttr("w:line", strconv.Itoa(p.Line))
			sp.CreateAttr("w:lineRule", "auto")
		}
	}
	if p.IndentLeft > 0 {
		ind := pPr.CreateElement("w:ind")
		ind.CreateAttr("w:left", strconv.Itoa(p.IndentLeft))
	}
	if p.Align != AlignDefault {
		val(pPr, "w:jc", string(p.Align))
	}
	for i := range p.Runs {
		st.run(el, &p.Runs[i])
	}
}

func (st *writer) run(p *etree.Element, r *Run) {
	el := p.CreateElement("w:r")
	rPr := el.CreateElement("w:rPr")
	if r.Font != "" {
		fonts := rPr.CreateElement("w:rFonts")
		for _, a := range []string{"w:ascii", "w:hAnsi", "w:eastAsia", "w:cs"} {
			fonts.CreateAttr(a, r.Font)
		}
	}
	if r.Bold {
		rPr.CreateElement("w:b")
	}
	if r.Italic {
		rPr.CreateElement("w:i")
	}
	if r.Color != "" {
		val(rPr, "w:color", r.Color)
	}
	if r.SizeHalfPt > 0 {
		val(rPr, "w:sz", strconv.Itoa(r.SizeHalfPt))
		val(rPr, "w:szCs", strconv.Itoa(r.SizeHalfPt))
	}
	if r.Image != nil {
		st.drawingXML(el, r.Image)
		return
	}
	for i, line := range strings.Split(r.Text, "\n") {
		if i > 0 {
			el.CreateElement("w:br")
		}
		t := el.CreateElement("w:t")
		if strings.TrimSpace(line) != line {
			t.CreateAttr("xml:space", "preserve")
		}
		t.SetText(line)
	}
}

func (st *writer) numID(l List) int {
	k := listKey{l.Numbered, l.Instance}
	if id, ok := st.lists[k]; ok {
		return id
	}
	id := len(st.listSeq) + 1
	st.lists[k] = id
	st.listSeq = append(st.listSeq, k)
	return id
}

func (st *writer) drawingXML(run *etree.Element, img *Image) {
	st.drawing++
	ext := strings.ToLower(img.Ext)
	if ext == "jpeg" {
		ext = "jpg"
	}
	m := media{
		relID: "rIdImg" + strconv.Itoa(st.drawing),
		name:  fmt.Sprintf("image%d.%s", st.drawing, ext),
		img:   img,
	}
	st.media = append(st.media, m)

	cx := strconv.Itoa(img.Width * EMUPerPixel)
	cy := strconv.Itoa(img.Height * EMUPerPixel)
	id := strconv.Itoa(st.drawing)

	drawing := run.CreateElement("w:drawing")
	inline := drawing.CreateElement("wp:inline")
	for _, a := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(a, "0")
	}
	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", cx)
	extent.CreateAttr("cy", cy)
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", id)
	docPr.CreateAttr("name", "Picture "+id)
	docPr.CreateAttr("descr", img.Descr)

	graphic := inline.CreateElement("a:graphic")
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", nsPic)
	pic := data.CreateElement("pic:pic")
	nv := pic.CreateElement("pic:nvPicPr")
	cNv := nv.CreateElement("pic:cNvPr")
	cNv.CreateAttr("id", id)
	cNv.CreateAttr("name", m.name)
	nv.CreateElement("pic:cNvPicPr")
	fill := pic.CreateElement("pic:blipFill")
	blip := fill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", m.relID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")
	sp := pic.CreateElement("pic:spPr")
	xfrm := sp.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	aext := xfrm.CreateElement("a:ext")
	aext.CreateAttr("cx", cx)
	aext.CreateAttr("cy", cy)
	geom := sp.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
}

func (st *writer) contentTypes() *etree.Document {
	doc := newXML()
	types := doc.CreateElement("Types")
	types.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
	def := func(ext, ct string) {
		el := types.CreateElement("Default")
		el.CreateAttr("Extension", ext)
		el.CreateAttr("ContentType", ct)
	}
	def("rels", ctRels)
	def("xml", "application/xml")
	seen := map[string]bool{}
	for _, m := range st.media {
		ext := m.name[strings.LastIndexByte(m.name, '.')+1:]
		if seen[ext] {
			continue
		}
		seen[ext] = true
		ct, ok := imageTypes[ext]
		if !ok {
			ct = "application/octet-stream"
		}
		def(ext, ct)
	}
	override := func(part, ct string) {
		el := types.CreateElement("Override")
		el.CreateAttr("PartName", part)
		el.CreateAttr("ContentType", ct)
	}
	override("/word/document.xml", ctDocument)
	override("/word/styles.xml", ctStyles)
	override("/word/numbering.xml", ctNumbering)
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctApp)
	return doc
}

func relationships(rels [][3]string) *etree.Document {
	doc := newXML()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRel)
	for _, r := range rels {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", r[0])
		el.CreateAttr("Type", r[1])
		el.CreateAttr("Target", r[2])
	}
	return doc
}

func packageRels() *etree.Document {
	return relationships([][3]string{
		{"rId1", relOfficeDoc, "word/document.xml"},
		{"rId2", relCoreProps, "docProps/core.xml"},
		{"rId3", relAppProps, "docProps/app.xml"},
	})
}

func (st *writer) documentRels() *etree.Document {
	rels := [][3]string{
		{"rId1", relStyles, "styles.xml"},
		{"rId2", relNumbering, "numbering.xml"},
	}
	for _, m := range st.media {
		rels = append(rels, [3]string{m.relID, relImage, "media/" + m.name})
	}
	return relationships(rels)
}

func styles() *etree.Document {
	doc := newXML()
	root := doc.CreateElement("w:styles")
	root.CreateAttr("xmlns:w", nsW)

	defaults := root.CreateElement("w:docDefaults")
	rPr := defaults.CreateElement("w:rPrDefault").CreateElement("w:rPr")
	fonts := rPr.CreateElement("w:rFonts")
	fonts.CreateAttr("w:ascii", "SimSun")
	fonts.CreateAttr("w:hAnsi", "SimSun")
	fonts.CreateAttr("w:eastAsia", "SimSun")
	val(rPr, "w:sz", "24")
	val(rPr, "w:lang", "zh-CN")

	normal := root.CreateElement("w:style")
	normal.CreateAttr("w:type", "paragraph")
	normal.CreateAttr("w:default", "1")
	normal.CreateAttr("w:styleId", "Normal")
	val(normal, "w:name", "Normal")

	for level := 1; level <= 3; level++ {
		s := root.CreateElement("w:style")
		s.CreateAttr("w:type", "paragraph")
		s.CreateAttr("w:styleId", "Heading"+strconv.Itoa(level))
		val(s, "w:name", "heading "+strconv.Itoa(level))
		val(s, "w:basedOn", "Normal")
		val(s, "w:next", "Normal")
		s.CreateElement("w:qFormat")
		pPr := s.CreateElement("w:pPr")
		pPr.CreateElement("w:keepNext")
		val(pPr, "w:outlineLvl", strconv.Itoa(level-1))
		s.CreateElement("w:rPr").CreateElement("w:b")
	}

	list := root.CreateElement("w:style")
	list.CreateAttr("w:type", "paragraph")
	list.CreateAttr("w:styleId", "ListParagraph")
	val(list, "w:name", "List Paragraph")
	val(list, "w:basedOn", "Normal")
	return doc
}

func (st *writer) numbering() *etree.Document {
	doc := newXML()
	root := doc.CreateElement("w:numbering")
	root.CreateAttr("xmlns:w", nsW)

	abstract := func(id int, format, text string) {
		a := root.CreateElement("w:abstractNum")
		a.CreateAttr("w:abstractNumId", strconv.Itoa(id))
		val(a, "w:multiLevelType", "singleLevel")
		lvl := a.CreateElement("w:lvl")
		lvl.CreateAttr("w:ilvl", "0")
		val(lvl, "w:start", "1")
		val(lvl, "w:numFmt", format)
		val(lvl, "w:lvlText", text)
		val(lvl, "w:lvlJc", "left")
		ind := lvl.CreateElement("w:pPr").CreateElement("w:ind")
		ind.CreateAttr("w:left", "720")
		ind.CreateAttr("w:hanging", "360")
	}
	abstract(absBullet, "bullet", "•")
	abstract(absDecimal, "decimal", "%1.")

	for i, k := range st.listSeq {
		num := root.CreateElement("w:num")
		num.CreateAttr("w:numId", strconv.Itoa(i+1))
		abs := absBullet
		if k.numbered {
			abs = absDecimal
		}
		val(num, "w:abstractNumId", strconv.Itoa(abs))
		override := num.CreateElement("w:lvlOverride")
		override.CreateAttr("w:ilvl", "0")
		val(override, "w:startOverride", "1")
	}
	return doc
}

func coreProps(d *Document) *etree.Document {
	doc := newXML()
	root := doc.CreateElement("cp:coreProperties")
	root.CreateAttr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	root.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	root.CreateAttr("xmlns:dcterms", "http://purl.org/dc/terms/")
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	root.CreateElement("dc:title").SetText(d.Title)
	root.CreateElement("dc:creator").SetText(d.Creator)
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}
	c := root.CreateElement("dcterms:created")
	c.CreateAttr("xsi:type", "dcterms:W3CDTF")
	c.SetText(created.UTC().Format(time.RFC3339))
	return doc
}

func appProps() *etree.Document {
	doc := newXML()
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	root.CreateElement("Application").SetText("SmartDoc")
	return doc
}
