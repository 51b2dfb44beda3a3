// Package i18n holds user-facing messages and locale-dependent formatting.
package i18n

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The key doubles as the English text.
const (
	MsgInputTooShort   = "Not enough content to process"
	MsgFormatFailed    = "Processing failed, check the network or try again later"
	MsgEmptyDocument   = "The AI returned an empty document"
	MsgRootNotFound    = "No document content found to export"
	MsgBusy            = "Another operation is still running"
	MsgImageFailed     = "Image generation failed, please retry"
	MsgWordFailed      = "Word export failed"
	MsgExportFailed    = "Export failed"
	MsgWordExported    = "Word export succeeded!"
	MsgImageExported   = "Image export succeeded!"
	MsgHTMLExported    = "HTML export succeeded!"
	MsgExported        = "Export succeeded!"
	MsgImageInserted   = "Image inserted"
	MsgFormatDone      = "Formatting complete!"
	MsgPolishDone      = "Polishing complete!"
	MsgExpandDone      = "Expansion complete!"
	MsgShortenDone     = "Condensing complete!"
	MsgFixDone         = "Corrections complete!"
	MsgUntitled        = "Untitled document"
	MsgDeleteSection   = "Delete this section"
	MsgDocumentImage   = "Document Image"
	MsgUnknownSection  = "Unknown format type: %s"
	MsgResetConfirmed  = "Document reset"
	MsgGeneratingWord  = "Generating Word document..."
	MsgGeneratingImage = "Generating high-resolution image (A4)..."
)

var zh = map[string]string{
	MsgInputTooShort:   "内容太少，无法处理",
	MsgFormatFailed:    "处理失败，请检查网络或稍后重试。",
	MsgEmptyDocument:   "AI 返回了空文档",
	MsgRootNotFound:    "未找到可导出的文档内容",
	MsgBusy:            "上一个操作尚未完成",
	MsgImageFailed:     "图片生成失败，请重试",
	MsgWordFailed:      "Word 导出失败",
	MsgExportFailed:    "导出失败",
	MsgWordExported:    "Word 导出成功！",
	MsgImageExported:   "图片导出成功！",
	MsgHTMLExported:    "HTML 导出成功！",
	MsgExported:        "导出成功！",
	MsgImageInserted:   "图片已插入",
	MsgFormatDone:      "排版完成！",
	MsgPolishDone:      "润色完成！",
	MsgExpandDone:      "扩写完成！",
	MsgShortenDone:     "缩写完成！",
	MsgFixDone:         "纠错完成！",
	MsgUntitled:        "无标题文档",
	MsgDeleteSection:   "删除此段落",
	MsgDocumentImage:   "文档图片",
	MsgUnknownSection:  "Unknown format type: %s",
	MsgResetConfirmed:  "文档已清空",
	MsgGeneratingWord:  "正在生成 Word 文档...",
	MsgGeneratingImage: "正在生成高清图片(A4尺寸)...",
}

var (
	// Default is the language used when none is configured.
	Default = language.SimplifiedChinese

	supported = []language.Tag{language.SimplifiedChinese, language.English}
	matcher   = language.NewMatcher(supported)
)

func init() {
	for key, text := range zh {
		mustSet(language.SimplifiedChinese, key, text)
		mustSet(language.English, key, key)
	}
}

func mustSet(tag language.Tag, key, msg string) {
	if err := message.SetString(tag, key, msg); err != nil {
		panic(fmt.Errorf("i18n: registering %q for %s: %w", key, tag, err))
	}
}

// Match maps any tag onto a supported language.
func Match(tag language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Parse parses a BCP 47 tag, falling back to Default.
func Parse(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return Default
	}
	return tag
}

// Text returns the message for key in the language closest to tag.
func Text(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(Match(tag)).Sprintf(key, args...)
}

// dateLayouts follows the short date form browsers produce for
// toLocaleDateString in the common locales.
var dateLayouts = map[string]string{
	"zh":    "2006/1/2",
	"ja":    "2006/1/2",
	"ko":    "2006. 1. 2.",
	"en":    "1/2/2006",
	"en-GB": "02/01/2006",
	"de":    "2.1.2006",
	"fr":    "02/01/2006",
	"ru":    "02.01.2006",
}

// FormatDate renders t as a short locale-specific date.
func FormatDate(t time.Time, tag language.Tag) string {
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.Exact {
		if layout, ok := dateLayouts[base.String()+"-"+region.String()]; ok {
			return t.Format(layout)
		}
	}
	if layout, ok := dateLayouts[base.String()]; ok {
		return t.Format(layout)
	}
	return t.Format("2006-01-02")
}
