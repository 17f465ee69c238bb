package schema

import (
	"fmt"
	"strings"
)

// FieldRef names a field of a model.
type FieldRef struct {
	Model string `json:"model"`
	Field string `json:"field"`
}

func (r FieldRef) String() string { return r.Model + "." + r.Field }

// Result describes an applied edit.
type Result struct {
	// Doc is the document after the edit. It is the receiver itself when
	// nothing changed.
	Doc      *Document  `json:"-"`
	Model    string     `json:"model"`
	Added    []FieldRef `json:"added,omitempty"`
	Removed  []FieldRef `json:"removed,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	Changed  bool       `json:"changed"`
}

// AddedIn returns the names of the fields added to model.
func (r *Result) AddedIn(model string) []string {
	var names []string
	for _, a := range r.Added {
		if a.Model == model {
			names = append(names, a.Field)
		}
	}
	return names
}

type pendingField struct {
	name string
	decl string
}

// txn stages the edits of one operation against an unchanging document.
// Nothing is visible until commit renders every staged change in one pass.
type txn struct {
	doc      *Document
	res      *Result
	inserts  map[string][]pendingField
	removed  map[string]map[string]bool
	dropped  map[string]bool
	appended []string
}

func (d *Document) begin(model string) *txn {
	return &txn{
		doc:     d,
		res:     &Result{Model: model},
		inserts: make(map[string][]pendingField),
		removed: make(map[string]map[string]bool),
		dropped: make(map[string]bool),
	}
}

func (t *txn) warnf(format string, args ...any) {
	t.res.Warnings = append(t.res.Warnings, fmt.Sprintf(format, args...))
}

// hasField reports whether m would have the field after the staged edits.
func (t *txn) hasField(m *Model, name string) bool {
	for _, p := range t.inserts[m.Name] {
		if p.name == name {
			return true
		}
	}
	return m.HasField(name) && !t.removed[m.Name][name]
}

// addField stages a field unless the name is already taken, in which case
// it records a warning and reports false.
func (t *txn) addField(m *Model, name, decl string) bool {
	if t.hasField(m, name) {
		t.warnf("field %q already exists on model %q", name, m.Name)
		return false
	}
	t.inserts[m.Name] = append(t.inserts[m.Name], pendingField{name: name, decl: decl})
	t.res.Added = append(t.res.Added, FieldRef{Model: m.Name, Field: name})
	return true
}

func (t *txn) removeField(m *Model, name string) {
	if !t.hasField(m, name) {
		return
	}
	if t.removed[m.Name] == nil {
		t.removed[m.Name] = make(map[string]bool)
	}
	t.removed[m.Name][name] = true
	t.res.Removed = append(t.res.Removed, FieldRef{Model: m.Name, Field: name})
}

// backReference stages the list field that makes a reference from origin
// navigable from target.
func (t *txn) backReference(target, origin string) {
	tm, ok := t.doc.Model(target)
	if !ok {
		t.warnf("model %q not found; back-reference from %q skipped", target, origin)
		return
	}
	name := backReferenceName(origin)
	t.addField(tm, name, name+" "+origin+"[]")
}

// commit renders the staged edits into a new document.
func (t *txn) commit() (*Result, error) {
	var splices []Splice
	text := t.doc.text
	for _, m := range t.doc.models {
		if t.dropped[m.Name] {
			splices = append(splices, removal(text, m))
			continue
		}
		for _, f := range m.Fields {
			if t.removed[m.Name][f.Name] {
				splices = append(splices, Splice{Start: f.Start, End: f.End})
			}
		}
		if pending := t.inserts[m.Name]; len(pending) > 0 {
			lines := make([]string, len(pending))
			for i, p := range pending {
				lines[i] = p.decl
			}
			splices = append(splices, insertion(text, m, lines))
		}
	}

	if len(splices) == 0 && len(t.appended) == 0 {
		t.res.Doc = t.doc
		return t.res, nil
	}

	out, err := Apply(text, splices)
	if err != nil {
		return nil, err
	}
	for _, block := range t.appended {
		out = appendBlock(out, block, t.doc.eol)
	}

	nd, err := t.doc.reparse(out)
	if err != nil {
		return nil, fmt.Errorf("schema: edit produced an unparsable document: %w", err)
	}
	t.res.Doc = nd
	t.res.Changed = out != text
	return t.res, nil
}

func (d *Document) mustModel(name string) (*Model, error) {
	m, ok := d.Model(NormalizeModelName(name))
	if !ok {
		m, ok = d.Model(name)
	}
	if !ok {
		return nil, &EditError{Kind: KindModelNotFound, Model: NormalizeModelName(name)}
	}
	return m, nil
}

// AddModel appends a new model block. Every new model carries an id field
// and createdAt/updatedAt timestamps around the requested fields. Relation
// specs are resolved against the models that already exist.
func (d *Document) AddModel(name string, specs []FieldSpec) (*Result, error) {
	modelName := NormalizeModelName(name)
	if !IsIdentifier(modelName) {
		return nil, &EditError{Kind: KindInvalidName, Model: name, Message: fmt.Sprintf("%q is not a valid model name", name)}
	}
	if existing, ok := d.Model(modelName); ok {
		return nil, &EditError{Kind: KindDuplicateModel, Model: existing.Name}
	}

	t := d.begin(modelName)
	idType := d.types.Resolve("string")
	timeType := d.types.Resolve("datetime")

	taken := map[string]bool{"id": true, "createdAt": true, "updatedAt": true}
	lines := []string{"id " + idType + " @id @default(uuid())"}
	var fks []string
	for _, s := range specs {
		if taken[s.Name] {
			t.warnf("field %q already exists on model %q", s.Name, modelName)
			continue
		}
		taken[s.Name] = true

		if !s.IsRelation() {
			lines = append(lines, s.Name+" "+d.types.Resolve(s.Type))
			t.res.Added = append(t.res.Added, FieldRef{Model: modelName, Field: s.Name})
			continue
		}

		target := d.ResolveRelated(s.Name)
		if isPlural(s.Name) {
			lines = append(lines, s.Name+" "+target+"[]")
		} else {
			fk := s.Name + "Id"
			lines = append(lines, relationDecl(s.Name, target, fk, false))
			if !taken[fk] {
				taken[fk] = true
				fks = append(fks, fk+" "+idType)
			}
		}
		t.res.Added = append(t.res.Added, FieldRef{Model: modelName, Field: s.Name})
		t.backReference(target, modelName)
	}
	lines = append(lines, fks...)
	lines = append(lines,
		"createdAt "+timeType+" @default(now())",
		"updatedAt "+timeType+" @updatedAt",
	)

	t.appended = append(t.appended, renderBlock(modelName, "  ", d.eol, lines))
	return t.commit()
}

// RemoveModel deletes a model block. It is rejected while any other model
// still declares a field of that type.
func (d *Document) RemoveModel(name string) (*Result, error) {
	m, err := d.mustModel(name)
	if err != nil {
		return nil, err
	}
	if refs := d.ReferencingModels(m.Name); len(refs) > 0 {
		return nil, &EditError{Kind: KindReferencedBy, Model: m.Name, Names: refs}
	}

	t := d.begin(m.Name)
	t.dropped[m.Name] = true
	return t.commit()
}

// AddField appends fields to an existing model. Specs naming a field that
// already exists are skipped with a warning; the rest are applied.
func (d *Document) AddField(modelName string, specs []FieldSpec) (*Result, error) {
	m, err := d.mustModel(modelName)
	if err != nil {
		return nil, err
	}

	t := d.begin(m.Name)
	idType := d.types.Resolve("string")
	for _, s := range specs {
		if t.hasField(m, s.Name) {
			t.warnf("field %q already exists on model %q", s.Name, m.Name)
			continue
		}
		if !s.IsRelation() {
			t.addField(m, s.Name, s.Name+" "+d.types.Resolve(s.Type))
			continue
		}

		target := d.ResolveRelated(s.Name)
		if isPlural(s.Name) {
			t.addField(m, s.Name, s.Name+" "+target+"[]")
		} else {
			fk := s.Name + "Id"
			t.addField(m, s.Name, relationDecl(s.Name, target, fk, false))
			t.addField(m, fk, fk+" "+idType)
		}
		t.backReference(target, m.Name)
	}
	return t.commit()
}

// RemoveField deletes a field together with its "<field>Id" foreign key,
// then drops the back-reference on the related model if there is one.
func (d *Document) RemoveField(modelName, fieldName string) (*Result, error) {
	m, err := d.mustModel(modelName)
	if err != nil {
		return nil, err
	}
	fieldName = strings.TrimSpace(fieldName)
	if !m.HasField(fieldName) {
		return nil, &EditError{Kind: KindFieldNotFound, Model: m.Name, Field: fieldName}
	}

	t := d.begin(m.Name)
	t.removeField(m, fieldName)
	t.removeField(m, fieldName+"Id")

	if rm, ok := d.Model(d.ResolveRelated(fieldName)); ok {
		back := backReferenceName(m.Name)
		if !(rm == m && back == fieldName) {
			t.removeField(rm, back)
		}
	}
	return t.commit()
}

func relationDecl(field, target, fk string, cascade bool) string {
	attr := "@relation(fields: [" + fk + "], references: [id]"
	if cascade {
		attr += ", onDelete: Cascade"
	}
	return field + " " + target + " " + attr + ")"
}
