package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/prismo/internal/audit"
)

const baseSchema = `datasource db {
  provider = "sqlite"
  url      = "file:dev.db"
}

model User {
  id    String @id
  email String @unique
}
`

type testEnv struct {
	dir    string
	schema string
	config string
}

func newTestEnv(t *testing.T, text string) testEnv {
	t.Helper()
	dir := t.TempDir()
	e := testEnv{
		dir:    dir,
		schema: filepath.Join(dir, "prisma", "schema.prisma"),
		config: filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(e.schema), 0o755))
	require.NoError(t, os.WriteFile(e.schema, []byte(text), 0o644))

	cfg := "history:\n" +
		"  enabled: true\n" +
		"  path: " + filepath.Join(dir, "history.db") + "\n" +
		"  keep: 10\n" +
		"audit:\n" +
		"  enabled: true\n" +
		"  path: " + filepath.Join(dir, "audit.jsonl") + "\n"
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o600))
	return e
}

func (e testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append(args, "--schema", e.schema, "--config", e.config))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (e testEnv) text(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.schema)
	require.NoError(t, err)
	return string(data)
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), "output: %s", s)
	return m
}

func TestGenerateModel(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "g", "model", "post", "title:string", "user:ref")
	require.NoError(t, err)
	assert.Contains(t, out, "created model Post")
	assert.Contains(t, out, "added User.posts")
	assert.Contains(t, out, "--name add_post")

	text := e.text(t)
	assert.True(t, strings.HasPrefix(text, baseSchema[:strings.Index(baseSchema, "  id")]), "untouched prefix changed:\n%s", text)
	assert.Contains(t, text, "  posts Post[]\n}")
	assert.Contains(t, text, "model Post {\n  id Text @id @default(uuid())\n  title Text\n  user User @relation(fields: [userId], references: [id])\n  userId Text\n")
}

func TestGenerateField_DryRunJSON(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "g", "field", "user", "bio:text", "--json", "--dry-run")
	require.NoError(t, err)

	env := decode(t, out)
	assert.Equal(t, true, env["ok"])
	assert.Equal(t, "g field", env["command"])
	assert.Equal(t, "update_user", env["migration"])
	data, ok := env["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["text"], "  bio Text\n")
	assert.Equal(t, true, data["changed"])

	assert.Equal(t, baseSchema, e.text(t), "dry run must not write")
}

func TestGenerateField_Duplicate(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "g", "field", "user", "email:string")
	require.NoError(t, err)
	assert.Contains(t, out, `field "email" already exists on model "User"`)
	assert.Contains(t, out, "nothing to change")
	assert.Equal(t, baseSchema, e.text(t))
}

func TestUnknownModel_SuggestsName(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, errOut, err := e.run(t, "g", "field", "usr", "bio:text")
	require.Error(t, err)
	var reported *reportedError
	assert.True(t, errors.As(err, &reported))
	assert.Contains(t, errOut, `model "Usr" does not exist`)
	assert.Contains(t, out, `did you mean "User"?`)
}

func TestUnknownCommand_Suggests(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, errOut, err := e.run(t, "lsit")
	require.Error(t, err)
	assert.Contains(t, errOut, `unknown command "lsit"`)
	assert.Contains(t, out, `did you mean "list"?`)

	out, errOut, err = e.run(t, "g", "modle", "user")
	require.Error(t, err)
	assert.Contains(t, errOut, `unknown g target "modle"`)
	assert.Contains(t, out, `did you mean "model"?`)
}

func TestRelation_InvalidKindSuggests(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "relation", "1tomm", "user", "post")
	require.Error(t, err)
	assert.Contains(t, out, `did you mean "1toM"?`)
}

func TestRelationThenDestroyIsRejected(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	_, _, err := e.run(t, "g", "model", "post", "title:string")
	require.NoError(t, err)
	out, _, err := e.run(t, "relation", "1toM", "user", "post", "--cascade")
	require.NoError(t, err)
	assert.Contains(t, out, "linked User and Post (1toM)")
	assert.Contains(t, out, "--name relation_user_post")
	assert.Contains(t, e.text(t), "user User @relation(fields: [userId], references: [id], onDelete: Cascade)")

	before := e.text(t)
	out, _, err = e.run(t, "d", "model", "user", "--json")
	require.Error(t, err)
	env := decode(t, out)
	assert.Equal(t, false, env["ok"])
	body, ok := env["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "referenced_by", body["kind"])
	assert.Equal(t, []any{"Post"}, body["names"])
	assert.Equal(t, before, e.text(t))

	out, _, err = e.run(t, "migrate-name")
	require.NoError(t, err)
	assert.Equal(t, "relation_user_post\n", out)
}

func TestUnrelateRestoresText(t *testing.T) {
	e := newTestEnv(t, baseSchema)
	_, _, err := e.run(t, "g", "model", "tag")
	require.NoError(t, err)
	withTag := e.text(t)

	_, _, err = e.run(t, "relation", "MtoM", "user", "tag")
	require.NoError(t, err)
	assert.Contains(t, e.text(t), "tags Tag[]")

	_, _, err = e.run(t, "unrelate", "user", "tag")
	require.NoError(t, err)
	assert.Equal(t, withTag, e.text(t))
}

func TestUndo(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	_, _, err := e.run(t, "g", "field", "user", "bio:text")
	require.NoError(t, err)
	require.NotEqual(t, baseSchema, e.text(t))

	out, _, err := e.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "add_field User")

	out, _, err = e.run(t, "undo")
	require.NoError(t, err)
	assert.Contains(t, out, "undid add_field User")
	assert.Equal(t, baseSchema, e.text(t))

	_, errOut, err := e.run(t, "undo")
	require.Error(t, err)
	assert.Contains(t, errOut, "nothing to undo")
}

func TestUndo_RefusesAfterExternalChange(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	_, _, err := e.run(t, "g", "field", "user", "bio:text")
	require.NoError(t, err)
	changed := e.text(t) + "\n// edited by hand\n"
	require.NoError(t, os.WriteFile(e.schema, []byte(changed), 0o644))

	_, errOut, err := e.run(t, "undo")
	require.Error(t, err)
	assert.Contains(t, errOut, "refusing to undo")
	assert.Equal(t, changed, e.text(t))
}

func TestList_JSON(t *testing.T) {
	e := newTestEnv(t, baseSchema)
	_, _, err := e.run(t, "g", "model", "post", "user:ref")
	require.NoError(t, err)

	out, _, err := e.run(t, "list", "--json")
	require.NoError(t, err)
	env := decode(t, out)
	data := env["data"].(map[string]any)

	models := data["models"].([]any)
	require.Len(t, models, 2)
	assert.Equal(t, "User", models[0].(map[string]any)["name"])
	assert.Equal(t, "Post", models[1].(map[string]any)["name"])

	relations := data["relations"].([]any)
	require.Len(t, relations, 1)
	rel := relations[0].(map[string]any)
	assert.Equal(t, "Post", rel["from"])
	assert.Equal(t, "User", rel["to"])
	assert.Equal(t, "Mto1", rel["kind"])
}

func TestList_Text(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "User (line 6)")
	assert.Contains(t, out, "  email String @unique")
}

func TestShow(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "show", "user")
	require.NoError(t, err)
	assert.Equal(t, "model User {\n  id    String @id\n  email String @unique\n}\n", out)

	out, _, err = e.run(t, "show", "usr")
	require.Error(t, err)
	assert.Contains(t, out, `did you mean "User"?`)
}

func TestMissingSchema_JSON(t *testing.T) {
	e := newTestEnv(t, baseSchema)
	require.NoError(t, os.Remove(e.schema))

	out, _, err := e.run(t, "list", "--json")
	require.Error(t, err)
	env := decode(t, out)
	assert.Equal(t, "schema_missing", env["error"].(map[string]any)["kind"])
}

func TestAuditRecordsEdits(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	_, _, err := e.run(t, "g", "field", "user", "bio:text")
	require.NoError(t, err)
	_, _, err = e.run(t, "d", "field", "user", "nope")
	require.Error(t, err)

	entries, err := audit.ReadAll(filepath.Join(e.dir, "audit.jsonl"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "add_field", entries[0].Operation)
	assert.Equal(t, []string{"User.bio"}, entries[0].Added)
	assert.False(t, entries[0].IsError)
	assert.Equal(t, "remove_field", entries[1].Operation)
	assert.True(t, entries[1].IsError)
	assert.Contains(t, entries[1].Error, `field "nope" does not exist in User`)
}

func TestAuditCommand(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	_, _, err := e.run(t, "g", "field", "user", "bio:text")
	require.NoError(t, err)
	_, _, err = e.run(t, "d", "field", "user", "nope")
	require.Error(t, err)

	out, _, err := e.run(t, "audit")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `remove_field user  field "nope" does not exist in User`)
	assert.Contains(t, lines[1], "add_field user  +User.bio")

	out, _, err = e.run(t, "audit", "--errors", "--json")
	require.NoError(t, err)
	env := decode(t, out)
	entries, ok := env["data"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "remove_field", entries[0].(map[string]any)["operation"])
	assert.Equal(t, true, entries[0].(map[string]any)["is_error"])
}

func TestAuditCommand_EmptyLog(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, _, err := e.run(t, "audit", "--json")
	require.NoError(t, err)
	env := decode(t, out)
	assert.Equal(t, []any{}, env["data"])
}

func TestHistoryClear(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	_, _, err := e.run(t, "g", "field", "user", "bio:text")
	require.NoError(t, err)

	out, _, err := e.run(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared 1 journaled edits")

	out, _, err = e.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "no journaled edits")

	_, errOut, err := e.run(t, "undo")
	require.Error(t, err)
	assert.Contains(t, errOut, "nothing to undo")
}

func TestDestroyField_SuggestsField(t *testing.T) {
	e := newTestEnv(t, baseSchema)

	out, errOut, err := e.run(t, "d", "field", "user", "emial")
	require.Error(t, err)
	assert.Contains(t, errOut, `field "emial" does not exist in User`)
	assert.Contains(t, out, `did you mean "email"?`)
	assert.Equal(t, baseSchema, e.text(t))
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t, baseSchema)
	out, _, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "prismo dev (commit: none, built: unknown)\n", out)
}
