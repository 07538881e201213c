package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sitesearch/core"
)

const genericsYAML = `id: ts-generics
kind: article
metadata:
  title: TypeScript Generics
  tags: [typescript, generics]
  author: sam
introduction: Generics are a tool for reuse.
sections:
  - id: intro
    title: Intro
    content: Start with identity functions.
    codeSnippet:
      language: ts
      code: "function id<T>(x: T): T { return x }"
  - id: best-practices
    title: Best Practices
    content: Keep type parameters few.
    practices:
      - title: Name clearly
        description: Use descriptive names.
footer:
  title: Next steps
  content: Read about conditional types.
updatedAt: 2025-05-01T10:00:00Z
`

const decoratorsJSON = `{
  "metadata": {"title": "Decorators"},
  "sections": [{"id": "one", "title": "One", "content": "Body"}]
}`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "generics.yaml", genericsYAML)

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ts-generics", doc.ID)
	assert.Equal(t, core.KindArticle, doc.Kind)
	assert.Equal(t, []string{"typescript", "generics"}, doc.Metadata.Tags)
	require.Len(t, doc.Sections, 2)
	require.NotNil(t, doc.Sections[0].CodeSnippet)
	assert.Equal(t, "ts", doc.Sections[0].CodeSnippet.Language)
	assert.Len(t, doc.Sections[1].Practices, 1)
	require.NotNil(t, doc.Footer)
	assert.True(t, doc.UpdatedAt.Equal(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestLoadFile_JSONDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "decorators.json", decoratorsJSON)
	mtime := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "decorators", doc.ID, "id from file name")
	assert.True(t, doc.UpdatedAt.Equal(mtime), "updatedAt from modification time")
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, dir, "notes.txt", "hello"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, dir, "typo.yaml", "metadata:\n  title: X\nsectoins: []\n"))
		assert.Error(t, err)
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, dir, "untitled.json", `{"sections": []}`))
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
		assert.ErrorIs(t, err, core.ErrEmptyTitle)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "generics.yaml", genericsYAML)
	writeFile(t, dir, "nested/decorators.json", decoratorsJSON)
	writeFile(t, dir, "README.md", "# not content")
	writeFile(t, dir, ".drafts/hidden.yaml", "not: valid")

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "decorators", docs[0].ID)
	assert.Equal(t, "ts-generics", docs[1].ID)
}

func TestLoadDir_DuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/same.json", decoratorsJSON)
	writeFile(t, dir, "b/same.json", decoratorsJSON)

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrDuplicateDocument)
}

func TestCatalog(t *testing.T) {
	a := &core.ContentDocument{ID: "a", Kind: core.KindLab, Metadata: core.DocumentMetadata{Title: "A", Tags: []string{"x"}}}
	b := &core.ContentDocument{ID: "b", Metadata: core.DocumentMetadata{Title: "B"}}
	a2 := &core.ContentDocument{ID: "a", Metadata: core.DocumentMetadata{Title: "A2"}}
	c := NewCatalog([]*core.ContentDocument{a, b, a2})

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []*core.ContentDocument{a2, b}, c.Documents())

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Same(t, b, got)

	meta, ok := c.Metadata("a")
	require.True(t, ok)
	assert.Equal(t, core.ItemMetadata{Slug: "a", Title: "A2", Kind: core.KindArticle}, meta)

	_, ok = c.Metadata("missing")
	assert.False(t, ok)
}
