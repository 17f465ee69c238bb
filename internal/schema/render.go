package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Splice replaces text[Start:End] with Text. Start == End inserts.
type Splice struct {
	Start, End int
	Text       string
}

// Apply performs all splices in a single pass. Bytes outside the spliced
// ranges are copied unchanged. Splices must not overlap.
func Apply(text string, splices []Splice) (string, error) {
	if len(splices) == 0 {
		return text, nil
	}
	sorted := make([]Splice, len(splices))
	copy(sorted, splices)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, s := range sorted {
		if s.Start < pos || s.End < s.Start || s.End > len(text) {
			return "", fmt.Errorf("schema: splice [%d,%d) overlaps or is out of range", s.Start, s.End)
		}
		b.WriteString(text[pos:s.Start])
		b.WriteString(s.Text)
		pos = s.End
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}

// appendBlock adds a block after the last byte of text, separated from the
// existing content by exactly one blank line.
func appendBlock(text, block, eol string) string {
	block = strings.TrimRight(block, "\r\n") + eol
	base := strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(base) == "" {
		return block
	}
	return base + eol + eol + block
}

// renderBlock formats a new model block.
func renderBlock(name, indent, eol string, lines []string) string {
	var b strings.Builder
	b.WriteString("model " + name + " {" + eol)
	for _, l := range lines {
		b.WriteString(indent + l + eol)
	}
	b.WriteString("}" + eol)
	return b.String()
}

// insertion builds the splice that adds lines before a model's closing
// brace, keeping the brace's own indentation and the block's line endings.
func insertion(text string, m *Model, lines []string) Splice {
	lineStart := strings.LastIndexByte(text[:m.End], '\n') + 1
	var b strings.Builder
	if strings.TrimSpace(text[lineStart:m.End]) == "" {
		for _, l := range lines {
			b.WriteString(m.indent + l + m.eol)
		}
		return Splice{Start: lineStart, End: lineStart, Text: b.String()}
	}
	// The brace shares a line with other content.
	b.WriteString(m.eol)
	for _, l := range lines {
		b.WriteString(m.indent + l + m.eol)
	}
	return Splice{Start: m.End, End: m.End, Text: b.String()}
}

// removal returns the span deleted when a model block is dropped: the
// block, its line terminator and one blank separator line, so neighbouring
// blocks keep a single blank line between them.
func removal(text string, m *Model) Splice {
	start := m.Start
	if ls := strings.LastIndexByte(text[:start], '\n') + 1; strings.TrimSpace(text[ls:start]) == "" {
		start = ls
	}
	end := m.End + 1
	end = consumeLineBreak(text, end)

	blankBefore := start == 0 || strings.HasSuffix(text[:start], "\n\n") || strings.HasSuffix(text[:start], "\n\r\n")
	if blankBefore {
		if e := consumeLineBreak(text, end); e > end && strings.TrimSpace(text[end:e]) == "" {
			end = e
		} else if end == len(text) && start > 0 {
			// Dropping the last block: let the text end on one newline.
			start--
			if start > 0 && text[start-1] == '\r' {
				start--
			}
		}
	}
	return Splice{Start: start, End: end}
}

// consumeLineBreak skips trailing spaces and one line break at i.
func consumeLineBreak(text string, i int) int {
	j := i
	for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
		j++
	}
	switch {
	case strings.HasPrefix(text[j:], "\r\n"):
		return j + 2
	case strings.HasPrefix(text[j:], "\n"):
		return j + 1
	case j == len(text):
		return j
	}
	return i
}
