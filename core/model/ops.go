package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrIndexOutOfRange is returned when a section index does not address
	// an existing section.
	ErrIndexOutOfRange = errors.New("section index out of range")
	// ErrUnknownField is returned by UpdateField for names other than
	// title, subtitle and author.
	ErrUnknownField = errors.New("unknown document field")
)

// Field names a top-level document text field.
type Field string

const (
	FieldTitle    Field = "title"
	FieldSubtitle Field = "subtitle"
	FieldAuthor   Field = "author"
)

// Focus is the index of the section the user last interacted with, or
// NoFocus.
type Focus int

// NoFocus means no section is focused.
const NoFocus Focus = -1

// Valid reports whether f points at a section.
func (f Focus) Valid() bool { return f >= 0 }

// UpdateField replaces title, subtitle or author wholesale. Empty values
// are allowed.
func UpdateField(d *Document, field Field, value string) (*Document, error) {
	out := d.Clone()
	switch field {
	case FieldTitle:
		out.Title = value
	case FieldSubtitle:
		out.Subtitle = value
	case FieldAuthor:
		out.Author = value
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return out, nil
}

// UpdateSection replaces the content of the section at index, keeping its
// kind.
func UpdateSection(d *Document, index int, c Content) (*Document, error) {
	if index < 0 || index >= len(d.Sections) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(d.Sections))
	}
	out := d.Clone()
	out.Sections[index].SetContent(c)
	return out, nil
}

// DeleteSection removes the section at index; later sections shift down
// by one. Callers holding a Focus should pass it through RebaseFocus.
func DeleteSection(d *Document, index int) (*Document, error) {
	if index < 0 || index >= len(d.Sections) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(d.Sections))
	}
	out := d.Clone()
	out.Sections = slices.Delete(out.Sections, index, index+1)
	return out, nil
}

// InsertImageSection inserts an image section right after the focused
// section, or appends it when nothing is focused. A stale focus beyond the
// end also appends.
func InsertImageSection(d *Document, url, alt string, after Focus) *Document {
	out := d.Clone()
	at := len(out.Sections)
	if after.Valid() && int(after) < len(out.Sections) {
		at = int(after) + 1
	}
	out.Sections = slices.Insert(out.Sections, at, NewImage(url, alt))
	return out
}

// RebaseFocus adjusts focus after the section at deleted was removed:
// focus before the deleted index is unchanged, focus on it is cleared and
// focus after it moves down by one.
func RebaseFocus(focus Focus, deleted int) Focus {
	switch {
	case !focus.Valid():
		return NoFocus
	case int(focus) == deleted:
		return NoFocus
	case int(focus) > deleted:
		return focus - 1
	default:
		return focus
	}
}
