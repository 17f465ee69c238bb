package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	out, err := Apply("abcdef", []Splice{
		{Start: 4, End: 4, Text: "!"},
		{Start: 0, End: 1, Text: "A"},
		{Start: 2, End: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "Abd!ef", out)

	out, err = Apply("same", nil)
	require.NoError(t, err)
	assert.Equal(t, "same", out)
}

func TestApply_RejectsOverlap(t *testing.T) {
	_, err := Apply("abcdef", []Splice{{Start: 1, End: 3, Text: "X"}, {Start: 2, End: 4, Text: "Y"}})
	assert.Error(t, err)

	_, err = Apply("abc", []Splice{{Start: 2, End: 9}})
	assert.Error(t, err)
}

func TestAppendBlock(t *testing.T) {
	block := "model A {\n}\n"
	assert.Equal(t, block, appendBlock("", block, "\n"))
	assert.Equal(t, block, appendBlock("\n\n", block, "\n"))
	assert.Equal(t, "x\n\n"+block, appendBlock("x", block, "\n"))
	assert.Equal(t, "x\n\n"+block, appendBlock("x\n\n\n", block, "\n"))

	crlf := "model A {\r\n}\r\n"
	assert.Equal(t, "x\r\n\r\n"+crlf, appendBlock("x\r\n", crlf, "\r\n"))
}

func TestRenderBlock(t *testing.T) {
	got := renderBlock("Tag", "\t", "\n", []string{"id Int", "name Text"})
	assert.Equal(t, "model Tag {\n\tid Int\n\tname Text\n}\n", got)

	got = renderBlock("Tag", "  ", "\r\n", []string{"id Int"})
	assert.Equal(t, "model Tag {\r\n  id Int\r\n}\r\n", got)
}

func TestLineEnding(t *testing.T) {
	assert.Equal(t, "\n", lineEnding("a\nb\r\n", "\r\n"))
	assert.Equal(t, "\r\n", lineEnding("a\r\nb\n", "\n"))
	assert.Equal(t, "\r\n", lineEnding("model A { }", "\r\n"))
	assert.Equal(t, "\n", lineEnding("\n", "\r\n"))
}

func TestConsumeLineBreak(t *testing.T) {
	assert.Equal(t, 4, consumeLineBreak("}  \nx", 1))
	assert.Equal(t, 3, consumeLineBreak("}\r\nx", 1))
	assert.Equal(t, 1, consumeLineBreak("} x", 1))
	assert.Equal(t, 2, consumeLineBreak("} ", 1))
}
