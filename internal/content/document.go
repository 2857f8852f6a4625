package content

// Document is the single persisted content record: field id -> value.
type Document map[string]string

// Value resolves the field's value, falling back to its default when the key
// is missing or empty.
func (d Document) Value(f FieldSpec) string {
	if v := d[f.ID]; v != "" {
		return v
	}
	return f.Default
}

// Clone returns an independent copy. A nil document clones to an empty one.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge copies every key of other into d, leaving keys absent from other
// untouched.
func (d Document) Merge(other Document) {
	for k, v := range other {
		d[k] = v
	}
}

// Resolve returns a document holding the resolved value of every schema field.
func (d Document) Resolve(s Schema) Document {
	out := make(Document)
	for _, f := range s.Fields() {
		out[f.ID] = d.Value(f)
	}
	return out
}
