package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readerJSON = `{
	"type": "object",
	"properties": {"source_type": {"type": "string", "enum": ["File", "Relational"]}},
	"allOf": [
		{
			"if": {"properties": {"source_type": {"const": "File"}}},
			"then": {"properties": {"file_name": {"type": "string"}}, "required": ["file_name"]}
		}
	]
}`

const writerYAML = `
type: object
properties:
  table:
    type: string
required: [table]
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"reader.json": readerJSON,
		"writer.yaml": writerYAML,
		"notes.txt":   "not a schema",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	reg := NewRegistry(0)
	n, err := reg.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"reader", "writer"}, reg.Names())

	e, err := reg.Get("reader")
	require.NoError(t, err)
	assert.Equal(t, "reader", e.Name())
	assert.NotNil(t, e.Resolver)
	assert.NotNil(t, e.Checker)
	assert.NoError(t, e.CheckerErr)
	assert.True(t, e.Root().Properties.Has("source_type"))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "writer", list[1].Name)
	assert.Equal(t, filepath.Join(dir, "writer.yaml"), list[1].Source)
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := NewRegistry(0).Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_LoadDirErrors(t *testing.T) {
	_, err := NewRegistry(0).LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := writeFiles(t, map[string]string{"reader.json": readerJSON, "reader.yaml": writerYAML})
	_, err = NewRegistry(0).LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "reader" defined by both`)

	dir = writeFiles(t, map[string]string{"broken.json": `{"type": `})
	_, err = NewRegistry(0).LoadDir(dir)
	assert.Error(t, err)
}

func TestLint(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"clean.json": readerJSON,
		"messy.json": `{
			"properties": {
				"name": {"type": "string", "pattern": "(["},
				"tags": {"type": "array", "minItems": "two"}
			},
			"allOf": [{"if": {}, "then": {"properties": {"x": {"type": "string"}}}}]
		}`,
	})
	reg := NewRegistry(0)
	_, err := reg.LoadDir(dir)
	require.NoError(t, err)

	clean, err := reg.Get("clean")
	require.NoError(t, err)
	assert.Empty(t, Lint(clean))

	messy, err := reg.Get("messy")
	require.NoError(t, err)
	findings := Lint(messy)

	var branch, compile bool
	for _, f := range findings {
		if strings.HasPrefix(f, "allOf[0]: ") {
			branch = true
		}
		if strings.HasPrefix(f, "json schema: ") {
			compile = true
		}
	}
	assert.True(t, branch, "findings: %v", findings)
	assert.True(t, compile, "findings: %v", findings)
	assert.Greater(t, len(findings), 2, "the minItems parse issue is reported too")
}
