package schema

import (
	"fmt"
	"strings"
)

// FieldKind classifies a field declaration.
type FieldKind int

const (
	Scalar FieldKind = iota
	ForeignKey
	RelationSingle
	RelationList
)

func (k FieldKind) String() string {
	switch k {
	case ForeignKey:
		return "foreign-key"
	case RelationSingle:
		return "relation"
	case RelationList:
		return "relation-list"
	default:
		return "scalar"
	}
}

// Field is one declaration line of a model block.
type Field struct {
	Name       string
	Kind       FieldKind
	Type       string // base type, without list or optional markers
	List       bool
	Optional   bool
	Attributes []string

	// Byte range of the whole declaration line in the document, including
	// leading indentation and the line terminator.
	Start, End int
}

// TypeToken returns the type as written, with its list/optional marker.
func (f Field) TypeToken() string {
	switch {
	case f.List:
		return f.Type + "[]"
	case f.Optional:
		return f.Type + "?"
	}
	return f.Type
}

// Declaration renders the field as it would appear in a block body.
func (f Field) Declaration() string {
	parts := append([]string{f.Name, f.TypeToken()}, f.Attributes...)
	return strings.Join(parts, " ")
}

// Attribute returns the first attribute with the given name (without "@").
func (f Field) Attribute(name string) (string, bool) {
	for _, a := range f.Attributes {
		if attributeName(a) == name {
			return a, true
		}
	}
	return "", false
}

// IsRelation reports whether the field points at another model.
func (f Field) IsRelation() bool {
	return f.Kind == RelationSingle || f.Kind == RelationList
}

// TypeMap maps user facing type tokens to schema scalar types.
type TypeMap map[string]string

// DefaultTypes returns the built-in type table.
func DefaultTypes() TypeMap {
	return TypeMap{
		"string": "Text", "str": "Text", "text": "Text",
		"int": "Integer", "integer": "Integer", "number": "Integer",
		"bool": "Boolean", "boolean": "Boolean",
		"date": "DateTime", "datetime": "DateTime", "timestamp": "DateTime",
		"float": "Float", "double": "Float",
		"decimal": "Decimal", "numeric": "Decimal", "money": "Decimal",
		"json": "Json", "jsonb": "Json",
		"blob": "Bytes", "bytea": "Bytes", "binary": "Bytes",
		"uuid": "Text",
	}
}

// Resolve maps token through the table. Unknown tokens are returned as
// written so callers can name models or custom scalars directly.
func (m TypeMap) Resolve(token string) string {
	if t, ok := m[strings.ToLower(token)]; ok {
		return t
	}
	return token
}

// FieldSpec is a requested field in "name:type" form.
type FieldSpec struct {
	Name string
	Type string
}

// IsRelation reports whether the type is the "ref" or "references" macro.
func (s FieldSpec) IsRelation() bool {
	return strings.EqualFold(s.Type, "references") || strings.EqualFold(s.Type, "ref")
}

func (s FieldSpec) String() string { return s.Name + ":" + s.Type }

// ParseFieldSpec parses "name:type".
func ParseFieldSpec(s string) (FieldSpec, error) {
	name, typ, ok := strings.Cut(strings.TrimSpace(s), ":")
	name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
	if !ok || typ == "" {
		return FieldSpec{}, &EditError{Kind: KindInvalidFieldSpec, Field: name, Message: fmt.Sprintf("%q is not in name:type form", s)}
	}
	if !IsIdentifier(name) {
		return FieldSpec{}, &EditError{Kind: KindInvalidFieldSpec, Field: name, Message: fmt.Sprintf("%q is not a valid field name", name)}
	}
	return FieldSpec{Name: name, Type: typ}, nil
}

// ParseFieldSpecs parses every argument, failing on the first malformed one.
func ParseFieldSpecs(args []string) ([]FieldSpec, error) {
	specs := make([]FieldSpec, 0, len(args))
	for _, a := range args {
		s, err := ParseFieldSpec(a)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// ParseFields parses the declaration lines of a block body. offset is the
// document offset of body[0]; field spans are reported in document
// coordinates. Lines that are not "<identifier> <rest>" are skipped, which
// tolerates blank lines, comments and "@@" block attributes. Kinds are left
// as Scalar; the document classifies them once all model names are known.
func ParseFields(body string, offset int) []Field {
	var fields []Field
	for pos := 0; pos < len(body); {
		end := strings.IndexByte(body[pos:], '\n')
		next := len(body)
		if end >= 0 {
			next = pos + end + 1
		}
		if f, ok := parseFieldLine(body[pos:next]); ok {
			f.Start, f.End = offset+pos, offset+next
			fields = append(fields, f)
		}
		pos = next
	}
	return fields
}

func parseFieldLine(line string) (Field, bool) {
	s := strings.TrimSpace(stripComment(line))
	n := identifierLen(s)
	if n == 0 || n == len(s) || (s[n] != ' ' && s[n] != '\t') {
		return Field{}, false
	}
	rest := strings.TrimSpace(s[n:])
	if rest == "" {
		return Field{}, false
	}

	typ, attrs := rest, ""
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		typ, attrs = rest[:i], rest[i+1:]
	}
	f := Field{Name: s[:n], Attributes: splitAttributes(attrs)}
	switch {
	case strings.HasSuffix(typ, "[]"):
		f.List = true
		f.Type = strings.TrimSuffix(typ, "[]")
	case strings.HasSuffix(typ, "?"):
		f.Optional = true
		f.Type = strings.TrimSuffix(typ, "?")
	default:
		f.Type = typ
	}
	return f, true
}

// splitAttributes splits "@a @b(x, [y]) @c" into its attributes. Whitespace
// inside brackets or strings does not split.
func splitAttributes(s string) []string {
	var attrs []string
	depth, start := 0, -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start < 0 && c != ' ' && c != '\t' {
			start = i
		}
		switch c {
		case '"':
			i = skipString(s, i) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth == 0 && start >= 0 {
				attrs = append(attrs, s[start:i])
				start = -1
			}
		}
	}
	if start >= 0 {
		attrs = append(attrs, s[start:])
	}
	return attrs
}

// stripComment removes a trailing "//" comment outside string literals.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			i = skipString(line, i) - 1
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return line[:i]
			}
		}
	}
	return line
}

func attributeName(attr string) string {
	name := strings.TrimPrefix(attr, "@")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// relationFields returns the names listed in a @relation attribute's
// "fields: [...]" argument.
func relationFields(attr string) []string {
	i := strings.Index(attr, "fields:")
	if i < 0 {
		return nil
	}
	rest := attr[i+len("fields:"):]
	open := strings.IndexByte(rest, '[')
	closing := strings.IndexByte(rest, ']')
	if open < 0 || closing < open {
		return nil
	}
	var names []string
	for _, n := range strings.Split(rest[open+1:closing], ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
