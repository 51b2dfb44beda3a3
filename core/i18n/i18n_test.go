package i18n

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestText(t *testing.T) {
	assert.Equal(t, "内容太少，无法处理", Text(language.SimplifiedChinese, MsgInputTooShort))
	assert.Equal(t, "内容太少，无法处理", Text(language.MustParse("zh-CN"), MsgInputTooShort))
	assert.Equal(t, MsgInputTooShort, Text(language.English, MsgInputTooShort))
	assert.Equal(t, "Unknown format type: foo", Text(language.SimplifiedChinese, MsgUnknownSection, "foo"))
}

func TestEveryMessageRegistered(t *testing.T) {
	for key, text := range zh {
		if strings.Contains(text, "%") {
			continue
		}
		assert.Equal(t, text, Text(language.SimplifiedChinese, key), key)
		assert.Equal(t, key, Text(language.English, key), key)
	}
}

func TestFormatDate(t *testing.T) {
	day := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		tag  string
		want string
	}{
		{"zh-CN", "2024/3/5"},
		{"en-US", "3/5/2024"},
		{"en-GB", "05/03/2024"},
		{"de-DE", "5.3.2024"},
		{"sw", "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(day, language.MustParse(tt.tag)))
		})
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, Default, Parse("not a tag!"))
	assert.Equal(t, language.English, Parse("en"))
}
