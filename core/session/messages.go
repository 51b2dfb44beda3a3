package session

import (
	"errors"

	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/i18n"
)

var doneMessages = map[core.Mode]string{
	core.ModeFormatStrict: i18n.MsgFormatDone,
	core.ModePolish:       i18n.MsgPolishDone,
	core.ModeExpand:       i18n.MsgExpandDone,
	core.ModeShorten:      i18n.MsgShortenDone,
	core.ModeFix:          i18n.MsgFixDone,
}

// Done is the notice shown after a successful Format in mode.
func Done(mode core.Mode, lang language.Tag) string {
	key, ok := doneMessages[mode]
	if !ok {
		key = i18n.MsgFormatDone
	}
	return i18n.Text(lang, key)
}

var exportedMessages = map[Format]string{
	FormatDOCX: i18n.MsgWordExported,
	FormatPNG:  i18n.MsgImageExported,
	FormatHTML: i18n.MsgHTMLExported,
}

// Exported is the notice shown after a successful export.
func Exported(f Format, lang language.Tag) string {
	if key, ok := exportedMessages[f]; ok {
		return i18n.Text(lang, key)
	}
	return i18n.Text(lang, i18n.MsgExported)
}

// Describe turns an error from a session operation into the user-facing
// message for lang. Every failure is recoverable by retrying.
func Describe(err error, f Format, lang language.Tag) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputTooShort):
		return i18n.Text(lang, i18n.MsgInputTooShort)
	case errors.Is(err, ErrBusy):
		return i18n.Text(lang, i18n.MsgBusy)
	case errors.Is(err, ErrCollaborator):
		return i18n.Text(lang, i18n.MsgFormatFailed)
	case errors.Is(err, core.ErrRootNotFound):
		return i18n.Text(lang, i18n.MsgRootNotFound)
	case f == FormatDOCX:
		return i18n.Text(lang, i18n.MsgWordFailed)
	case f == FormatPNG:
		return i18n.Text(lang, i18n.MsgImageFailed)
	}
	return i18n.Text(lang, i18n.MsgExportFailed)
}
