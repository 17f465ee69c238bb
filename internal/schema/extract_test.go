package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blogSchema = `// Blog schema
// managed by hand

datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider = "prisma-client-js"
}

model User {
  id    String @id
  email String @unique
}

model Post {
  id    String @id
  title String
}
`

func TestExtract_FindsModelBlocksOnly(t *testing.T) {
	blocks, err := Extract(blogSchema)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "User", blocks[0].Name)
	assert.Equal(t, "Post", blocks[1].Name)
	assert.Equal(t, "model User {", blogSchema[blocks[0].Start:blocks[0].Open+1])
	assert.Equal(t, byte('}'), blogSchema[blocks[0].End])
	assert.Equal(t, 13, blocks[0].Line)
	assert.Contains(t, blocks[1].Body, "title String")
}

func TestExtract_NoModels(t *testing.T) {
	blocks, err := Extract("// nothing here\ndatasource db {\n  provider = \"sqlite\"\n}\n")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	blocks, err = Extract("")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestExtract_NestedBracketsDoNotEndBlock(t *testing.T) {
	text := `model Event {
  id     String @id
  labels String[] @default(["a}", "b{"])
  meta   Json @default("{\"k\": {}}")
  owner  User @relation(fields: [ownerId], references: [id], map: { name: "x" })
}

model User {
  id String @id
}
`
	blocks, err := Extract(text)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Event", blocks[0].Name)
	assert.Contains(t, blocks[0].Body, "owner  User")
	assert.Equal(t, "User", blocks[1].Name)

	doc, err := Parse(text)
	require.NoError(t, err)
	event, ok := doc.Model("Event")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "labels", "meta", "owner"}, event.FieldNames())

	meta, _ := event.Field("meta")
	assert.Equal(t, []string{`@default("{\"k\": {}}")`}, meta.Attributes)
	owner, _ := event.Field("owner")
	assert.Equal(t, RelationSingle, owner.Kind)
	assert.Len(t, owner.Attributes, 1)
}

func TestExtract_IgnoresModelKeywordInCommentsAndStrings(t *testing.T) {
	text := `// model Ghost {
datasource db {
  url = "model Fake {"
}

model Real {
  id Int @id
}
`
	blocks, err := Extract(text)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Real", blocks[0].Name)
}

func TestExtract_HeaderOnSeparateLines(t *testing.T) {
	blocks, err := Extract("model Split\n{\n  id Int\n}\n")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Split", blocks[0].Name)
}

func TestExtract_Unparsable(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{name: "unclosed model", text: "model A {\n  id Int\n", line: 1},
		{name: "unclosed datasource", text: "\n\ndatasource db {\n  url = \"x\"\n", line: 3},
		{name: "stray brace", text: "model A {\n  id Int\n}\n}\n", line: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnparsable))

			ee, ok := AsEditError(err)
			require.True(t, ok)
			assert.Equal(t, tt.line, ee.Line)
		})
	}
}

func TestParse_RejectsUnparsableDocument(t *testing.T) {
	_, err := Parse("model A {\n  id Int\n")
	assert.ErrorIs(t, err, ErrUnparsable)
}
