package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Document {
	return &Document{
		Title: "Doc",
		Sections: []Section{
			NewSection(KindHeading, TextContent("A")),
			NewSection(KindParagraph, TextContent("B")),
			NewSection(KindParagraph, TextContent("C")),
		},
	}
}

func TestSplitItems(t *testing.T) {
	tests := []string{
		"a|b",
		" a | b |c ",
		"single",
		"",
		"||",
		"第一项|第二项|第三项",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			items := SplitItems(in)
			require.Len(t, items, 1+strings.Count(in, "|"))
			for _, it := range items {
				assert.Equal(t, strings.TrimSpace(it), it)
			}
		})
	}
}

func TestNewSectionKeepsContentShape(t *testing.T) {
	list := NewSection(KindBulletList, TextContent("x | y"))
	assert.Equal(t, []string{"x", "y"}, list.Items)
	assert.Empty(t, list.Text)

	para := NewSection(KindParagraph, ItemsContent("x", "y"))
	assert.Equal(t, "x y", para.Text)
	assert.Nil(t, para.Items)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindBulletList, ParseKind(" Bullet_List "))
	assert.True(t, ParseKind("HEADING").Known())
	assert.False(t, ParseKind("foo").Known())
}

func TestSectionJSON(t *testing.T) {
	in := `{"title":"T","sections":[
		{"type":"Numbered_List","content":"one|two"},
		{"type":"paragraph","content":["a","b"]},
		{"type":"image","content":"http://x/y.png","alt":"cap"},
		{"type":"foo","content":"kept"}
	]}`
	d, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, d.Sections, 4)
	assert.Equal(t, KindNumberedList, d.Sections[0].Kind)
	assert.Equal(t, []string{"one", "two"}, d.Sections[0].Items)
	assert.Equal(t, "a b", d.Sections[1].Text)
	assert.Equal(t, "cap", d.Sections[2].Alt)
	assert.Equal(t, Kind("foo"), d.Sections[3].Kind)
	assert.Equal(t, "kept", d.Sections[3].Text)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	again, err := Decode(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestUpdateField(t *testing.T) {
	d := sample()
	out, err := UpdateField(d, FieldSubtitle, "sub")
	require.NoError(t, err)
	assert.Equal(t, "sub", out.Subtitle)
	assert.Empty(t, d.Subtitle, "input must not be mutated")

	out, err = UpdateField(out, FieldTitle, "")
	require.NoError(t, err)
	assert.Empty(t, out.Title)

	_, err = UpdateField(d, Field("body"), "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateSection(t *testing.T) {
	d := sample()
	out, err := UpdateSection(d, 1, TextContent("changed"))
	require.NoError(t, err)
	assert.Equal(t, "changed", out.Sections[1].Text)
	assert.Equal(t, KindParagraph, out.Sections[1].Kind)
	assert.Equal(t, "B", d.Sections[1].Text)

	_, err = UpdateSection(d, 3, TextContent("x"))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = UpdateSection(d, -1, TextContent("x"))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeleteSection(t *testing.T) {
	d := sample()
	out, err := DeleteSection(d, 1)
	require.NoError(t, err)
	require.Len(t, out.Sections, 2)
	assert.Equal(t, "A", out.Sections[0].Text)
	assert.Equal(t, "C", out.Sections[1].Text)
	assert.Len(t, d.Sections, 3)

	// Focus on C (index 2) follows C to index 1.
	assert.Equal(t, Focus(1), RebaseFocus(2, 1))
	assert.Equal(t, NoFocus, RebaseFocus(1, 1))
	assert.Equal(t, Focus(0), RebaseFocus(0, 1))
	assert.Equal(t, NoFocus, RebaseFocus(NoFocus, 0))

	_, err = DeleteSection(d, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestInsertImageSection(t *testing.T) {
	d := sample()

	out := InsertImageSection(d, "u", "alt", 0)
	require.Len(t, out.Sections, 4)
	assert.Equal(t, KindImage, out.Sections[1].Kind)
	assert.Equal(t, "u", out.Sections[1].Text)
	assert.Equal(t, "alt", out.Sections[1].Alt)

	out = InsertImageSection(d, "u", "", NoFocus)
	assert.Equal(t, KindImage, out.Sections[3].Kind)

	out = InsertImageSection(d, "u", "", 99)
	assert.Equal(t, KindImage, out.Sections[3].Kind)
}

func TestPlainText(t *testing.T) {
	d := &Document{
		Title:  "T",
		Author: "me",
		Sections: []Section{
			NewSection(KindParagraph, TextContent("Hello")),
			NewSection(KindBulletList, ItemsContent("a", "b")),
			NewImage("u", ""),
		},
	}
	assert.Equal(t, "Title: T\nAuthor: me\n\nHello\n\n- a\n- b\n\n[图片]\n", d.PlainText())
	assert.Equal(t, "\n\n", Default().PlainText())
}

func TestDecodeSnapshot(t *testing.T) {
	in := `{"document": {"title": "Nested", "sections": [{"type": "quote", "content": "q"}]}, "theme": "fresh"}`
	d, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "Nested", d.Title)
	require.Len(t, d.Sections, 1)
	assert.Equal(t, KindQuote, d.Sections[0].Kind)

	_, err = Decode(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
}
