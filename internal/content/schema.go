package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind is the closed set of field kinds. It decides both the form control
// and the view projection for a field.
type Kind int

const (
	KindText Kind = iota
	KindMultilineText
	KindImage
	KindDateTime
)

// String returns the schema-file name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMultilineText:
		return "textarea"
	case KindImage:
		return "image"
	case KindDateTime:
		return "datetime-local"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// InputType returns the HTML control type used to edit the field.
func (k Kind) InputType() string {
	switch k {
	case KindMultilineText:
		return "textarea"
	case KindImage:
		return "file"
	case KindDateTime:
		return "datetime-local"
	default:
		return "text"
	}
}

// ParseKind maps a schema-file name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text":
		return KindText, nil
	case "textarea", "multiline":
		return KindMultilineText, nil
	case "image":
		return KindImage, nil
	case "datetime-local", "datetime":
		return KindDateTime, nil
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// FieldSpec describes one editable piece of page content. ID is the
// display binding, the form control key and the document key at once.
type FieldSpec struct {
	ID      string `yaml:"id" json:"id"`
	Label   string `yaml:"label" json:"label"`
	Kind    Kind   `yaml:"type" json:"type"`
	Default string `yaml:"default" json:"default"`
	// Raw opts the field out of HTML escaping on the view page.
	Raw bool `yaml:"raw,omitempty" json:"raw,omitempty"`
}

// Section groups fields on the admin page. It has no runtime identity.
type Section struct {
	Title  string      `yaml:"title" json:"title"`
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

// Schema is the ordered list of sections.
type Schema struct {
	Sections []Section `yaml:"sections" json:"sections"`
}

//go:embed schema.yaml
var defaultSchemaYAML []byte

var defaultSchema = mustParseSchema(defaultSchemaYAML)

// DefaultSchema returns the built-in page schema.
func DefaultSchema() Schema {
	return defaultSchema
}

func mustParseSchema(b []byte) Schema {
	s, err := ParseSchema(b)
	if err != nil {
		panic("content: embedded schema: " + err.Error())
	}
	return s
}

// ParseSchema decodes and validates a YAML schema.
func ParseSchema(b []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// LoadSchema reads a schema file. An empty path yields the default schema.
func LoadSchema(path string) (Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(b)
}

// Validate checks that every field id is present and globally unique.
func (s Schema) Validate() error {
	seen := make(map[string]string)
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.ID == "" {
				return fmt.Errorf("section %q: field with empty id", sec.Title)
			}
			if prev, ok := seen[f.ID]; ok {
				return fmt.Errorf("duplicate field id %q in sections %q and %q", f.ID, prev, sec.Title)
			}
			if f.Kind < KindText || f.Kind > KindDateTime {
				return fmt.Errorf("field %q: invalid kind %d", f.ID, int(f.Kind))
			}
			seen[f.ID] = sec.Title
		}
	}
	return nil
}

// Fields returns every field in display order.
func (s Schema) Fields() []FieldSpec {
	var out []FieldSpec
	for _, sec := range s.Sections {
		out = append(out, sec.Fields...)
	}
	return out
}

// Field looks up a field by id.
func (s Schema) Field(id string) (FieldSpec, bool) {
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return FieldSpec{}, false
}

// Defaults returns a document holding every field's default value.
func (s Schema) Defaults() Document {
	d := make(Document)
	for _, f := range s.Fields() {
		d[f.ID] = f.Default
	}
	return d
}
