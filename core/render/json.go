// Package render: JSON projector.
// Emits the document together with the presentation it was rendered
// with: theme, background, page settings and the computed layout.
package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
)

// Snapshot is the JSON export shape.
type Snapshot struct {
	Document   *model.Document   `json:"document"`
	Theme      string            `json:"theme"`
	Background string            `json:"background"`
	Settings   paginate.Settings `json:"settings"`
	Layout     paginate.Layout   `json:"layout"`
	Structure  Structure         `json:"structure"`
}

// Structure summarizes the section flow.
type Structure struct {
	Kinds     []model.Kind `json:"kinds"`
	Unknown   int          `json:"unknown"`
	Images    int          `json:"images"`
	PlainText string       `json:"plainText"`
}

// JSONProjector produces the JSON snapshot.
type JSONProjector struct{}

// NewJSONProjector creates a JSONProjector.
func NewJSONProjector() *JSONProjector {
	return &JSONProjector{}
}

// Project marshals a Snapshot of in.
func (p *JSONProjector) Project(_ context.Context, in *core.Input) ([]byte, error) {
	doc := in.Document
	if doc == nil {
		doc = model.Blank()
	}
	snap := Snapshot{
		Document: doc,
		Settings: in.Settings,
		Layout:   in.Layout,
		Structure: Structure{
			Kinds:     doc.Kinds(),
			PlainText: doc.PlainText(),
		},
	}
	if in.Theme != nil {
		snap.Theme = in.Theme.ID
	}
	if in.Background != nil {
		snap.Background = in.Background.ID
	}
	for _, s := range doc.Sections {
		switch {
		case s.Kind == model.KindImage:
			snap.Structure.Images++
		case !s.Kind.Known():
			snap.Structure.Unknown++
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (p *JSONProjector) Extension() string {
	return ".json"
}
