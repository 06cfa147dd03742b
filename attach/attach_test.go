package attach_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibylhq/sibyl/attach"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "notes/alpha.md")
	writeFile(t, root, "notes/beta.md")
	writeFile(t, root, "notes/data.csv")
	writeFile(t, root, "readme.txt")

	r := attach.NewResolver(root)

	atts, err := r.Resolve([]string{"notes/*.md"})
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, "alpha.md", atts[0].Name)
	assert.Equal(t, filepath.Join(root, "notes", "alpha.md"), atts[0].Path)

	atts, err = r.Resolve([]string{"**/*.csv", "readme.txt"})
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, "data.csv", atts[0].Name)
	assert.Equal(t, "readme.txt", atts[1].Name)
}

func TestResolver_DirectoriesSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "notes/alpha.md")

	atts, err := attach.NewResolver(root).Resolve([]string{"**"})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "alpha.md", atts[0].Name)
}

func TestResolver_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "notes/alpha.md")
	r := attach.NewResolver(root)

	_, err := r.Resolve([]string{"notes/[.md"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid attachment pattern")

	_, err = r.Resolve([]string{"missing/*.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no attachment matches "missing/*.pdf"`)
}
