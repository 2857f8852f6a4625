// Package form turns the field schema and a content document into an
// editable form, and turns submitted values plus staged images back into a
// merge update for the content document.
package form

import (
	"github.com/lovenotes/anniversary/internal/content"
)

// Control is one editable field as the admin page renders it.
type Control struct {
	FieldID   string       `json:"fieldId"`
	Label     string       `json:"label"`
	Kind      content.Kind `json:"-"`
	KindName  string       `json:"kind"`
	Key       string       `json:"key"`
	FileKey   string       `json:"fileKey,omitempty"`
	InputType string       `json:"inputType"`
	Value     string       `json:"value"`
}

// SectionForm is a collapsible group of controls.
type SectionForm struct {
	Title    string    `json:"title"`
	Open     bool      `json:"open"`
	Controls []Control `json:"controls"`
}

// Form is the whole editable surface.
type Form struct {
	Sections []SectionForm `json:"sections"`
}

// InputKey is the control key of a text, multiline or date-time field.
func InputKey(id string) string { return "input-" + id }

// PreviewKey is the control key of an image field's preview.
func PreviewKey(id string) string { return "preview-" + id }

// FileKey is the key of an image field's file picker.
func FileKey(id string) string { return "file-" + id }

// Build materializes one control per schema field. Values come from doc,
// falling back to field defaults.
func Build(schema content.Schema, doc content.Document) Form {
	f := Form{Sections: make([]SectionForm, 0, len(schema.Sections))}
	for i, sec := range schema.Sections {
		sf := SectionForm{Title: sec.Title, Open: i == 0, Controls: make([]Control, 0, len(sec.Fields))}
		for _, field := range sec.Fields {
			sf.Controls = append(sf.Controls, buildControl(field, doc))
		}
		f.Sections = append(f.Sections, sf)
	}
	return f
}

func buildControl(field content.FieldSpec, doc content.Document) Control {
	c := Control{
		FieldID:   field.ID,
		Label:     field.Label,
		Kind:      field.Kind,
		KindName:  field.Kind.String(),
		InputType: field.Kind.InputType(),
		Value:     doc.Value(field),
	}
	switch field.Kind {
	case content.KindImage:
		c.Key = PreviewKey(field.ID)
		c.FileKey = FileKey(field.ID)
	case content.KindMultilineText:
		c.Key = InputKey(field.ID)
		c.Value = content.ToEditable(c.Value)
	case content.KindDateTime:
		c.Key = InputKey(field.ID)
		c.Value = content.EditableDateTime(c.Value)
	case content.KindText:
		c.Key = InputKey(field.ID)
	}
	return c
}

// Control returns the control for a field id.
func (f Form) Control(id string) (Control, bool) {
	for _, s := range f.Sections {
		for _, c := range s.Controls {
			if c.FieldID == id {
				return c, true
			}
		}
	}
	return Control{}, false
}

// Collect reads the submitted value of every non-image field. values is keyed
// by field id; fields without a submitted value are left out of the update.
// Values are stored as submitted: multiline controls already hold line breaks.
func Collect(schema content.Schema, values map[string]string) content.Document {
	out := make(content.Document)
	for _, field := range schema.Fields() {
		if field.Kind == content.KindImage {
			continue
		}
		if v, ok := values[field.ID]; ok {
			out[field.ID] = v
		}
	}
	return out
}
