package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Summary is a read-back view of one paragraph in document.xml.
type Summary struct {
	Style  string
	Align  string
	NumID  string
	Text   string
	Images int
	Fonts  []string
}

// Inspect reads the body paragraphs of a .docx package.
func Inspect(data []byte) ([]Summary, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}
	var f *zip.File
	for _, zf := range zr.File {
		if zf.Name == "word/document.xml" {
			f = zf
			break
		}
	}
	if f == nil {
		return nil, fmt.Errorf("word/document.xml missing")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parsing document.xml: %w", err)
	}
	var out []Summary
	for _, p := range doc.FindElements("//w:body/w:p") {
		s := Summary{}
		if el := p.FindElement("w:pPr/w:pStyle"); el != nil {
			s.Style = el.SelectAttrValue("w:val", "")
		}
		if el := p.FindElement("w:pPr/w:jc"); el != nil {
			s.Align = el.SelectAttrValue("w:val", "")
		}
		if el := p.FindElement("w:pPr/w:numPr/w:numId"); el != nil {
			s.NumID = el.SelectAttrValue("w:val", "")
		}
		var text strings.Builder
		for _, r := range p.SelectElements("w:r") {
			if el := r.FindElement("w:rPr/w:rFonts"); el != nil {
				s.Fonts = append(s.Fonts, el.SelectAttrValue("w:eastAsia", ""))
			}
			if r.FindElement("w:drawing") != nil {
				s.Images++
			}
			for _, t := range r.SelectElements("w:t") {
				text.WriteString(t.Text())
			}
		}
		s.Text = text.String()
		out = append(out, s)
	}
	return out, nil
}
