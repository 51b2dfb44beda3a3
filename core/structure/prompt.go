// Package structure implements the Structurer interface: it sends free
// text to a generative-language service and returns the document
// candidate it produces. An offline structurer covers the same contract
// without network access.
package structure

import (
	"fmt"

	"github.com/gaurav-prasanna/smartdoc/core"
)

const basePrompt = `角色：专业文档编辑与排版专家。
任务：%s

输入文本：
%s

排版要求：
1. **纠正标点**：修正文中不规范的标点符号，确保符合中文出版规范（如全角标点）。
2. **层级梳理**：识别并提取一级标题(heading)、二级标题(subheading)。
3. **段落重组**：将过长的段落合理拆分，将零散的句子合并为段落(paragraph)。
4. **列表识别**：如果内容包含步骤、清单或要点，请务必转换为列表(bullet_list 或 numbered_list)，列表项用竖线 '|' 分隔。
5. **重点突出**：如果有名言或重要引用，使用引用块(quote)。
6. %s
当前主题：%s
`

var tasks = map[core.Mode][2]string{
	core.ModeFormatStrict: {
		"将输入的文本整理成一篇结构清晰、标点正确、排版美观的文档。",
		"**保持原意**：不要删减核心内容，仅做润色和结构化处理。",
	},
	core.ModePolish: {
		"润色输入的文本，使语言更流畅、专业，并整理成结构清晰的文档。",
		"**提升表达**：优化措辞和句式，但不改变原意。",
	},
	core.ModeExpand: {
		"扩写输入的文本，补充细节、论据和例子，并整理成结构清晰的文档。",
		"**丰富内容**：在原意基础上适当扩展，篇幅约为原文的两倍。",
	},
	core.ModeShorten: {
		"精简输入的文本，保留要点，并整理成结构清晰的文档。",
		"**提炼要点**：删除冗余内容，篇幅约为原文的一半。",
	},
	core.ModeFix: {
		"纠正输入文本中的错别字、语法和标点错误，并整理成结构清晰的文档。",
		"**最小改动**：只修正错误，不改写内容。",
	},
}

// Prompt builds the instruction sent for mode. Unknown modes fall back to
// format-strict.
func Prompt(text, themeID string, mode core.Mode) string {
	t, ok := tasks[mode]
	if !ok {
		t = tasks[core.ModeFormatStrict]
	}
	return fmt.Sprintf(basePrompt, t[0], text, t[1], themeID)
}
