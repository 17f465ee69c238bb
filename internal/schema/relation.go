package schema

import (
	"fmt"
	"strings"
)

// RelationKind is the cardinality of a relation between two models.
type RelationKind int

const (
	OneToOne RelationKind = iota
	OneToMany
	ManyToOne
	ManyToMany
)

func (k RelationKind) String() string {
	switch k {
	case OneToOne:
		return "1to1"
	case OneToMany:
		return "1toM"
	case ManyToOne:
		return "Mto1"
	case ManyToMany:
		return "MtoM"
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// RelationKindNames lists the accepted short spellings.
var RelationKindNames = []string{"1to1", "1toM", "Mto1", "MtoM"}

var relationKindAliases = map[string]RelationKind{
	"1to1":         OneToOne,
	"one-to-one":   OneToOne,
	"1tom":         OneToMany,
	"one-to-many":  OneToMany,
	"mto1":         ManyToOne,
	"many-to-one":  ManyToOne,
	"mtom":         ManyToMany,
	"many-to-many": ManyToMany,
}

// ParseRelationKind accepts 1to1, 1toM, Mto1, MtoM in any case, and the
// hyphenated long forms.
func ParseRelationKind(s string) (RelationKind, error) {
	if k, ok := relationKindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, &EditError{
		Kind:    KindInvalidRelationKind,
		Message: fmt.Sprintf("unknown relation type %q (valid: %s)", s, strings.Join(RelationKindNames, ", ")),
	}
}

// CreateRelation links two existing models. Both sides are written in one
// edit; fields that already exist are skipped with a warning. Cascade adds
// onDelete: Cascade to the foreign-key side and is ignored, with a warning,
// for many-to-many relations. A model cannot be one-to-one with itself:
// both sides would claim the same field name.
func (d *Document) CreateRelation(kind RelationKind, modelA, modelB string, cascade bool) (*Result, error) {
	a, err := d.mustModel(modelA)
	if err != nil {
		return nil, err
	}
	b, err := d.mustModel(modelB)
	if err != nil {
		return nil, err
	}
	if kind == OneToOne && a == b {
		return nil, &EditError{Kind: KindSelfRelation, Model: a.Name, Message: kind.String()}
	}

	t := d.begin(a.Name)
	switch kind {
	case OneToOne:
		t.oneToOne(a, b, cascade)
	case OneToMany:
		t.oneToMany(a, b, cascade)
	case ManyToOne:
		t.oneToMany(b, a, cascade)
	case ManyToMany:
		t.manyToMany(a, b)
		if cascade {
			t.warnf("cascade is not applied to implicit many-to-many relations")
		}
	default:
		return nil, &EditError{Kind: KindInvalidRelationKind, Message: kind.String()}
	}
	return t.commit()
}

// oneToOne puts the unique foreign key on b.
func (t *txn) oneToOne(a, b *Model, cascade bool) {
	fieldA := lowerFirst(b.Name)
	fieldB := lowerFirst(a.Name)
	fk := fieldB + "Id"
	idType := t.doc.types.Resolve("string")

	t.addField(a, fieldA, fieldA+" "+b.Name+"?")
	t.addField(b, fieldB, relationDecl(fieldB, a.Name, fk, cascade))
	t.addField(b, fk, fk+" "+idType+" @unique")
}

// oneToMany puts the foreign key on the many side.
func (t *txn) oneToMany(one, many *Model, cascade bool) {
	list := pluralize(lowerFirst(many.Name))
	single := lowerFirst(one.Name)
	fk := single + "Id"
	idType := t.doc.types.Resolve("string")

	t.addField(one, list, list+" "+many.Name+"[]")
	t.addField(many, single, relationDecl(single, one.Name, fk, cascade))
	t.addField(many, fk, fk+" "+idType)
}

func (t *txn) manyToMany(a, b *Model) {
	fieldA := pluralize(lowerFirst(b.Name))
	fieldB := pluralize(lowerFirst(a.Name))

	t.addField(a, fieldA, fieldA+" "+b.Name+"[]")
	t.addField(b, fieldB, fieldB+" "+a.Name+"[]")
}

// RemoveRelation deletes every relation field between two models, in both
// directions, along with the foreign keys those fields own.
func (d *Document) RemoveRelation(modelA, modelB string) (*Result, error) {
	a, err := d.mustModel(modelA)
	if err != nil {
		return nil, err
	}
	b, err := d.mustModel(modelB)
	if err != nil {
		return nil, err
	}

	t := d.begin(a.Name)
	t.dropRelationFields(a, b.Name)
	if b != a {
		t.dropRelationFields(b, a.Name)
	}
	if len(t.res.Removed) == 0 {
		return nil, &EditError{
			Kind:    KindFieldNotFound,
			Model:   a.Name,
			Message: fmt.Sprintf("no relation between %s and %s", a.Name, b.Name),
		}
	}
	return t.commit()
}

func (t *txn) dropRelationFields(m *Model, target string) {
	for _, f := range m.Fields {
		if !f.IsRelation() || f.Type != target {
			continue
		}
		t.removeField(m, f.Name)
		for _, fk := range ownedForeignKeys(m, f) {
			t.removeField(m, fk)
		}
	}
}

func ownedForeignKeys(m *Model, f Field) []string {
	var fks []string
	if attr, ok := f.Attribute("relation"); ok {
		fks = relationFields(attr)
	}
	if len(fks) == 0 && m.HasField(f.Name+"Id") {
		fks = []string{f.Name + "Id"}
	}
	return fks
}

// Link is a relation derived from the fields of a document.
type Link struct {
	From    string
	To      string
	Field   string
	Kind    RelationKind
	Cascade bool
}

func (l Link) String() string {
	s := fmt.Sprintf("%s.%s -> %s (%s)", l.From, l.Field, l.To, l.Kind)
	if l.Cascade {
		s += " cascade"
	}
	return s
}

// Relations derives the relation links of the document. Foreign-key sides
// yield OneToOne (unique key) or ManyToOne links; list fields with a list
// counterpart yield one ManyToMany link per pair.
func (d *Document) Relations() []Link {
	var links []Link
	seen := make(map[string]bool)
	for _, m := range d.models {
		for _, f := range m.Fields {
			switch f.Kind {
			case RelationSingle:
				attr, ok := f.Attribute("relation")
				if !ok {
					continue
				}
				link := Link{From: m.Name, To: f.Type, Field: f.Name, Kind: ManyToOne}
				link.Cascade = strings.Contains(attr, "onDelete: Cascade")
				for _, fk := range ownedForeignKeys(m, f) {
					if kf, ok := m.Field(fk); ok {
						if _, unique := kf.Attribute("unique"); unique {
							link.Kind = OneToOne
						}
					}
				}
				links = append(links, link)
			case RelationList:
				other, ok := d.Model(f.Type)
				if !ok || !hasListOf(other, m.Name) {
					continue
				}
				key := m.Name + "\x00" + other.Name
				if m.Name > other.Name {
					key = other.Name + "\x00" + m.Name
				}
				if seen[key] {
					continue
				}
				seen[key] = true
				links = append(links, Link{From: m.Name, To: other.Name, Field: f.Name, Kind: ManyToMany})
			}
		}
	}
	return links
}

func hasListOf(m *Model, target string) bool {
	for _, f := range m.Fields {
		if f.Kind == RelationList && f.Type == target {
			return true
		}
	}
	return false
}
