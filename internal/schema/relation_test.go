package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelationKind(t *testing.T) {
	tests := []struct {
		in   string
		want RelationKind
	}{
		{"1to1", OneToOne},
		{"1toM", OneToMany},
		{"1tom", OneToMany},
		{"Mto1", ManyToOne},
		{"MTOM", ManyToMany},
		{"one-to-many", OneToMany},
		{" Many-To-Many ", ManyToMany},
	}
	for _, tt := range tests {
		got, err := ParseRelationKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseRelationKind("2to2")
	require.ErrorIs(t, err, ErrInvalidRelationKind)
	assert.Contains(t, err.Error(), "1to1, 1toM, Mto1, MtoM")
}

func TestRelationKindString(t *testing.T) {
	assert.Equal(t, "1toM", OneToMany.String())
	assert.Equal(t, "MtoM", ManyToMany.String())
	assert.Equal(t, "RelationKind(9)", RelationKind(9).String())
}

func TestCreateRelation_OneToMany(t *testing.T) {
	res, err := mustParse(t, twoModels).CreateRelation(OneToMany, "User", "Post", false)
	require.NoError(t, err)

	want := "model User {\n  id String @id\n  posts Post[]\n}\n\n" +
		"model Post {\n  id String @id\n  user User @relation(fields: [userId], references: [id])\n  userId Text\n}\n"
	assert.Equal(t, want, res.Doc.Render())
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "User", res.Model)
}

func TestCreateRelation_ManyToOneMirrorsOneToMany(t *testing.T) {
	doc := mustParse(t, twoModels)
	a, err := doc.CreateRelation(OneToMany, "User", "Post", false)
	require.NoError(t, err)
	b, err := doc.CreateRelation(ManyToOne, "Post", "User", false)
	require.NoError(t, err)
	assert.Equal(t, a.Doc.Render(), b.Doc.Render())
}

func TestCreateRelation_OneToOneCascade(t *testing.T) {
	doc := mustParse(t, "model User {\n  id String @id\n}\n\nmodel Profile {\n  id String @id\n}\n")
	res, err := doc.CreateRelation(OneToOne, "user", "profile", true)
	require.NoError(t, err)

	out := res.Doc.Render()
	assert.Contains(t, out, "model User {\n  id String @id\n  profile Profile?\n}")
	assert.Contains(t, out, "  user User @relation(fields: [userId], references: [id], onDelete: Cascade)\n  userId Text @unique\n}")

	links := res.Doc.Relations()
	require.Len(t, links, 1)
	assert.Equal(t, Link{From: "Profile", To: "User", Field: "user", Kind: OneToOne, Cascade: true}, links[0])
	assert.Equal(t, "Profile.user -> User (1to1) cascade", links[0].String())
}

func TestCreateRelation_ManyToMany(t *testing.T) {
	doc := mustParse(t, "model Post {\n  id String @id\n}\n\nmodel Tag {\n  id String @id\n}\n")
	res, err := doc.CreateRelation(ManyToMany, "Post", "Tag", true)
	require.NoError(t, err)

	out := res.Doc.Render()
	assert.Contains(t, out, "  tags Tag[]\n")
	assert.Contains(t, out, "  posts Post[]\n")
	assert.NotContains(t, out, "onDelete")
	assert.Equal(t, []string{"cascade is not applied to implicit many-to-many relations"}, res.Warnings)

	links := res.Doc.Relations()
	require.Len(t, links, 1)
	assert.Equal(t, ManyToMany, links[0].Kind)
	assert.Equal(t, "Post", links[0].From)
	assert.Equal(t, "Tag", links[0].To)
}

func TestCreateRelation_Idempotent(t *testing.T) {
	first, err := mustParse(t, twoModels).CreateRelation(OneToMany, "User", "Post", false)
	require.NoError(t, err)

	second, err := first.Doc.CreateRelation(OneToMany, "User", "Post", false)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Doc.Render(), second.Doc.Render())
	assert.Len(t, second.Warnings, 3)
}

func TestCreateRelation_ModelNotFound(t *testing.T) {
	doc := mustParse(t, twoModels)

	_, err := doc.CreateRelation(OneToMany, "User", "Ghost", false)
	require.ErrorIs(t, err, ErrModelNotFound)
	ee, _ := AsEditError(err)
	assert.Equal(t, "Ghost", ee.Model)

	_, err = doc.CreateRelation(ManyToMany, "Nobody", "Post", false)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestCreateRelation_RejectsSelfOneToOne(t *testing.T) {
	doc := mustParse(t, "model User {\n  id String @id\n}\n")

	res, err := doc.CreateRelation(OneToOne, "user", "User", false)
	require.ErrorIs(t, err, ErrSelfRelation)
	assert.Nil(t, res)
	assert.EqualError(t, err, `model "User" cannot have a 1to1 relation with itself`)

	res, err = doc.CreateRelation(OneToMany, "User", "User", false)
	require.NoError(t, err)
	assert.Contains(t, res.Doc.Render(), "  users User[]\n")
}

func TestRemoveRelation(t *testing.T) {
	related, err := mustParse(t, twoModels).CreateRelation(OneToMany, "User", "Post", true)
	require.NoError(t, err)

	res, err := related.Doc.RemoveRelation("Post", "User")
	require.NoError(t, err)
	assert.Equal(t, twoModels, res.Doc.Render())
	assert.Len(t, res.Removed, 3)

	_, err = res.Doc.RemoveRelation("User", "Post")
	require.ErrorIs(t, err, ErrFieldNotFound)
	assert.Equal(t, "no relation between User and Post", err.Error())
}

func TestRelations_ManyToOne(t *testing.T) {
	res, err := mustParse(t, twoModels).CreateRelation(OneToMany, "User", "Post", false)
	require.NoError(t, err)

	links := res.Doc.Relations()
	require.Len(t, links, 1)
	assert.Equal(t, Link{From: "Post", To: "User", Field: "user", Kind: ManyToOne}, links[0])
}

func TestRelations_ClassifiesForeignKeys(t *testing.T) {
	doc := mustParse(t, `model Post {
  id       String @id
  owner    User   @relation(fields: [writerId], references: [id])
  writerId String
  ownerRef String
}

model User {
  id String @id
}
`)
	post, _ := doc.Model("Post")
	writer, _ := post.Field("writerId")
	assert.Equal(t, ForeignKey, writer.Kind)
	other, _ := post.Field("ownerRef")
	assert.Equal(t, Scalar, other.Kind)
}
