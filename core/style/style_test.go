package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

func TestTableIsComplete(t *testing.T) {
	for _, v := range theme.HeadingStyles {
		for _, l := range []Level{MainTitle, SectionHeading} {
			_, ok := table[key{v, l}]
			assert.True(t, ok, "missing entry for %s/%s", v, l)
		}
	}
	assert.Len(t, table, 2*len(theme.HeadingStyles))
}

func TestSizes(t *testing.T) {
	for _, v := range theme.HeadingStyles {
		assert.Equal(t, TitlePt, Resolve(v, MainTitle).SizePt, v)
		assert.Equal(t, HeadingPt, Resolve(v, SectionHeading).SizePt, v)
	}
	body := Body()
	assert.Equal(t, 16.0, body.SizePt)
	assert.Equal(t, 1.8, body.LineHeight)
}

func TestBoxedAsymmetry(t *testing.T) {
	title := Resolve(theme.HeadingBoxed, MainTitle)
	assert.False(t, title.Chip)
	assert.False(t, title.Inline)
	assert.Equal(t, AlignCenter, title.Align)

	heading := Resolve(theme.HeadingBoxed, SectionHeading)
	assert.True(t, heading.Chip)
	assert.True(t, heading.Inline)
	assert.Equal(t, AlignLeft, heading.Align)
}

func TestBracketOnlyOnSectionHeadings(t *testing.T) {
	title := Resolve(theme.HeadingBracket, MainTitle)
	assert.Nil(t, title.Brackets)
	assert.Equal(t, AlignCenter, title.Align)

	heading := Resolve(theme.HeadingBracket, SectionHeading)
	require.NotNil(t, heading.Brackets)
	assert.Equal(t, "【", heading.Brackets.Open)
	assert.Equal(t, "】", heading.Brackets.Close)
	assert.NotEqual(t, heading.SizePt, heading.Brackets.SizePt)

	for _, v := range theme.HeadingStyles {
		if v != theme.HeadingBracket {
			assert.Nil(t, Resolve(v, SectionHeading).Brackets, v)
		}
	}
}

func TestAlignment(t *testing.T) {
	assert.Equal(t, AlignCenter, Resolve(theme.HeadingCenteredLine, MainTitle).Align)
	assert.Equal(t, AlignCenter, Resolve(theme.HeadingCenteredLine, SectionHeading).Align)
	assert.Equal(t, AlignLeft, Resolve(theme.HeadingSimple, MainTitle).Align)
	assert.Equal(t, AlignCenter, HeaderAlign(theme.HeadingCenteredLine))
	assert.Equal(t, AlignLeft, HeaderAlign(theme.HeadingUnderlined))
}

func TestResolveIsDeterministic(t *testing.T) {
	a := Resolve(theme.HeadingUnderlined, SectionHeading)
	b := Resolve(theme.HeadingUnderlined, SectionHeading)
	assert.Equal(t, a, b)
	assert.Equal(t, Resolve(theme.HeadingSimple, MainTitle), Resolve("unknown", MainTitle))
}

func TestCSS(t *testing.T) {
	cat := theme.Builtin()
	official, _ := cat.Theme("official")
	css := Resolve(official.HeadingStyle, SectionHeading).CSS(official, cat)
	assert.Contains(t, css, "font-size:22pt")
	assert.Contains(t, css, "border-bottom:3px solid #dc2626")

	corporate, _ := cat.Theme("corporate")
	css = Resolve(corporate.HeadingStyle, SectionHeading).CSS(corporate, cat)
	assert.Contains(t, css, "color:#ffffff")
	assert.Contains(t, css, "display:inline-block")

	purple, _ := cat.Theme("purple")
	assert.Contains(t, Resolve(purple.HeadingStyle, SectionHeading).BracketCSS(purple), "font-size:18pt")
	assert.Empty(t, Resolve(purple.HeadingStyle, MainTitle).BracketCSS(purple))
}
