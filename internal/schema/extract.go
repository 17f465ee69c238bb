package schema

import "strings"

// Block is a top-level model block located in a document.
type Block struct {
	Name  string
	Start int    // offset of the "model" keyword
	Open  int    // offset of the opening brace
	End   int    // offset of the closing brace, inclusive
	Line  int    // 1-based line of the keyword
	Body  string // text strictly between the braces
}

// Extract scans text and returns its model blocks in document order.
//
// The scanner counts brace depth and skips line comments and string
// literals, so bracketed attribute arguments inside a body cannot end a
// block. Only "model <Name> {" at depth zero opens a model block; other
// top-level blocks (datasource, generator, enum) are stepped over. A
// document without model blocks yields an empty slice.
func Extract(text string) ([]Block, error) {
	var (
		blocks    []Block
		cur       *Block
		depth     int
		line      = 1
		openLine  int
		lineStart = true
	)

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\n':
			line++
			lineStart = true
			i++
			continue
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(text)
			}
			continue
		case c == '"':
			i = skipString(text, i)
			lineStart = false
			continue
		case c == '{':
			if depth == 0 {
				openLine = line
			}
			depth++
		case c == '}':
			if depth == 0 {
				return nil, &EditError{Kind: KindUnparsable, Line: line, Message: "unexpected closing brace"}
			}
			depth--
			if depth == 0 && cur != nil {
				cur.End = i
				cur.Body = text[cur.Open+1 : i]
				blocks = append(blocks, *cur)
				cur = nil
			}
		case depth == 0 && lineStart && c == 'm':
			if name, open, ok := modelHeader(text, i); ok {
				cur = &Block{Name: name, Start: i, Open: open, Line: line}
				line += strings.Count(text[i:open], "\n")
				depth = 1
				lineStart = false
				i = open + 1
				continue
			}
		}
		if c != ' ' && c != '\t' && c != '\r' {
			lineStart = false
		}
		i++
	}

	if cur != nil {
		return nil, &EditError{Kind: KindUnparsable, Model: cur.Name, Line: cur.Line, Message: "model " + cur.Name + " is missing its closing brace"}
	}
	if depth > 0 {
		return nil, &EditError{Kind: KindUnparsable, Line: openLine, Message: "block is missing its closing brace"}
	}
	return blocks, nil
}

// modelHeader recognizes "model <Ident> {" starting at i. It returns the
// model name and the offset of the opening brace.
func modelHeader(text string, i int) (string, int, bool) {
	const kw = "model"
	if !strings.HasPrefix(text[i:], kw) {
		return "", 0, false
	}
	j := i + len(kw)
	k := skipSpace(text, j)
	if k == j {
		return "", 0, false
	}
	n := identifierLen(text[k:])
	if n == 0 {
		return "", 0, false
	}
	name := text[k : k+n]
	open := skipSpace(text, k+n)
	if open >= len(text) || text[open] != '{' {
		return "", 0, false
	}
	return name, open, true
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// skipString returns the offset just past the string literal opening at i.
// An unterminated literal ends at the line break.
func skipString(text string, i int) int {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		case '\n':
			return j
		}
	}
	return len(text)
}
