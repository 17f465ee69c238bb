// Package highlight renders schema documents with syntax colouring.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/prismo/internal/theme"
)

// lexerNames are tried in order; the schema language is close enough to
// GraphQL SDL that its lexer is a usable stand-in.
var lexerNames = []string{"prisma", "graphql"}

// Highlighter tokenises schema text using chroma and renders it with
// lipgloss styles from a theme.
type Highlighter struct {
	lexer chroma.Lexer
}

// New creates a Highlighter using the first available lexer, falling back
// to chroma's plain-text lexer.
func New() *Highlighter {
	var l chroma.Lexer
	for _, name := range lexerNames {
		if l = lexers.Get(name); l != nil {
			break
		}
	}
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l)}
}

// Highlight returns text with every token styled from th. A nil theme or a
// tokeniser error returns text unchanged. Newlines are always emitted as-is.
func (h *Highlighter) Highlight(text string, th *theme.Theme) string {
	if th == nil || text == "" {
		return text
	}

	iter, err := h.lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) * 2)

	for _, tok := range iter.Tokens() {
		value := tok.Value
		if value == "" {
			continue
		}

		style, ok := styleFor(tok.Type, value, th)
		if !ok {
			b.WriteString(value)
			continue
		}

		lines := strings.Split(value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}

	return b.String()
}

// styleFor maps a chroma token to a theme style. The second return value is
// false when the token should pass through unstyled.
func styleFor(tt chroma.TokenType, value string, th *theme.Theme) (lipgloss.Style, bool) {
	switch {
	case strings.HasPrefix(value, "@"):
		return th.SchemaAttribute, true
	case tt == chroma.KeywordType || tt == chroma.NameClass || tt == chroma.NameBuiltin:
		return th.SchemaType, true
	case tt == chroma.NameDecorator || tt == chroma.NameAttribute:
		return th.SchemaAttribute, true
	case tt.InCategory(chroma.Keyword):
		return th.SchemaKeyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.SchemaString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.SchemaNumber, true
	case tt.InCategory(chroma.Comment):
		return th.SchemaComment, true
	case tt == chroma.Punctuation:
		return th.SchemaPunctuation, true
	default:
		return lipgloss.Style{}, false
	}
}
