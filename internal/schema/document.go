// Package schema parses and edits model-block schema documents. A Document
// is an immutable snapshot of the text; every edit returns a new Document
// whose text differs from the original only inside the blocks it touched.
package schema

import (
	"strings"
)

// Model is one model block of a document.
type Model struct {
	Name   string
	Fields []Field

	// Start is the offset of the "model" keyword and End the offset of the
	// closing brace, inclusive.
	Start, End int
	Line       int

	indent string
	eol    string
}

// Field returns the field with exactly the given name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether a field with exactly the given name exists.
func (m *Model) HasField(name string) bool {
	_, ok := m.Field(name)
	return ok
}

// FieldNames returns the field names in declaration order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Document is a parsed schema document.
type Document struct {
	text   string
	eol    string
	models []*Model
	types  TypeMap
}

// Option configures Parse.
type Option func(*Document)

// WithTypes overlays entries on the default type table. Keys are matched
// case-insensitively.
func WithTypes(overrides map[string]string) Option {
	return func(d *Document) {
		for k, v := range overrides {
			d.types[strings.ToLower(k)] = v
		}
	}
}

// Parse builds a Document from text.
func Parse(text string, opts ...Option) (*Document, error) {
	d := &Document{types: DefaultTypes()}
	for _, o := range opts {
		o(d)
	}
	if err := d.load(text); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) load(text string) error {
	blocks, err := Extract(text)
	if err != nil {
		return err
	}

	d.text = text
	d.eol = lineEnding(text, "\n")
	d.models = make([]*Model, 0, len(blocks))
	for _, b := range blocks {
		m := &Model{
			Name:   b.Name,
			Start:  b.Start,
			End:    b.End,
			Line:   b.Line,
			Fields: ParseFields(b.Body, b.Open+1),
		}
		m.indent = detectIndent(text, m)
		m.eol = lineEnding(text[m.Start:m.End], d.eol)
		d.models = append(d.models, m)
	}
	d.classify()
	return nil
}

// reparse builds a sibling document that shares the type table.
func (d *Document) reparse(text string) (*Document, error) {
	nd := &Document{types: d.types}
	if err := nd.load(text); err != nil {
		return nil, err
	}
	return nd, nil
}

// classify assigns field kinds once every model name is known.
func (d *Document) classify() {
	names := make(map[string]bool, len(d.models))
	for _, m := range d.models {
		names[m.Name] = true
	}

	for _, m := range d.models {
		for i := range m.Fields {
			f := &m.Fields[i]
			if names[f.Type] {
				if f.List {
					f.Kind = RelationList
				} else {
					f.Kind = RelationSingle
				}
			}
		}

		fks := make(map[string]bool)
		for _, f := range m.Fields {
			if f.Kind != RelationSingle {
				continue
			}
			fks[f.Name+"Id"] = true
			if attr, ok := f.Attribute("relation"); ok {
				for _, n := range relationFields(attr) {
					fks[n] = true
				}
			}
		}
		for i := range m.Fields {
			if f := &m.Fields[i]; f.Kind == Scalar && fks[f.Name] {
				f.Kind = ForeignKey
			}
		}
	}
}

// detectIndent returns the leading whitespace of the first field that
// starts its own line, or two spaces.
func detectIndent(text string, m *Model) string {
	for _, f := range m.Fields {
		if f.Start == 0 || text[f.Start-1] != '\n' {
			continue
		}
		line := text[f.Start:f.End]
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return "  "
}

// lineEnding returns the terminator of the first line of s, or fallback
// when s holds no line break.
func lineEnding(s, fallback string) string {
	i := strings.IndexByte(s, '\n')
	switch {
	case i < 0:
		return fallback
	case i > 0 && s[i-1] == '\r':
		return "\r\n"
	}
	return "\n"
}

// Text returns the document text.
func (d *Document) Text() string { return d.text }

// Render serializes the document. Documents are snapshots, so this is the
// exact text the document was parsed from or produced by an edit.
func (d *Document) Render() string { return d.text }

// Types returns the type table in effect.
func (d *Document) Types() TypeMap { return d.types }

// Models returns the models in document order.
func (d *Document) Models() []*Model {
	out := make([]*Model, len(d.models))
	copy(out, d.models)
	return out
}

// ModelNames returns the model names in document order.
func (d *Document) ModelNames() []string {
	names := make([]string, len(d.models))
	for i, m := range d.models {
		names[i] = m.Name
	}
	return names
}

// Model looks a model up by name. An exact match wins; otherwise names are
// compared case-insensitively.
func (d *Document) Model(name string) (*Model, bool) {
	for _, m := range d.models {
		if m.Name == name {
			return m, true
		}
	}
	for _, m := range d.models {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// Block returns the raw text of a model block.
func (d *Document) Block(m *Model) string {
	return d.text[m.Start : m.End+1]
}

// ReferencingModels returns the other models that declare a field typed as
// name.
func (d *Document) ReferencingModels(name string) []string {
	var refs []string
	for _, m := range d.models {
		if m.Name == name {
			continue
		}
		for _, f := range m.Fields {
			if f.Type == name {
				refs = append(refs, m.Name)
				break
			}
		}
	}
	return refs
}

// ResolveRelated derives the model a reference field points at. The
// PascalCase field name is used when such a model exists; a plural name
// falls back to its singular form.
func (d *Document) ResolveRelated(field string) string {
	name := NormalizeModelName(field)
	if m, ok := d.Model(name); ok {
		return m.Name
	}
	if isPlural(field) {
		single := NormalizeModelName(strings.TrimSuffix(field, "s"))
		if m, ok := d.Model(single); ok {
			return m.Name
		}
		return single
	}
	return name
}
