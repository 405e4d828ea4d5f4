package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHomeDir(t *testing.T) {
	t.Setenv("HOME", "/home/fsix")
	dir, err := New().UserHomeDir()
	assert.NoError(t, err)
	assert.NotEmpty(t, dir)
}

func TestMkdirAll(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	err := fs.MkdirAll(filepath.Join(dir, "foo/bar"))
	assert.NoError(t, err)

	exists, err := fs.DirExists(filepath.Join(dir, "foo/bar"))
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestDirExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		dir := t.TempDir()
		result, err := New().DirExists(dir)
		assert.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("does not exist", func(t *testing.T) {
		dir := t.TempDir()
		result, err := New().DirExists(dir + "foo")
		assert.NoError(t, err)
		assert.False(t, result)
	})

	t.Run("is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		result, err := New().DirExists(file)
		assert.NoError(t, err)
		assert.False(t, result)
	})
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dotnet-tools.json")
	fs := New()
	require.NoError(t, fs.WriteFile(file, []byte(`{"tools":{}}`)))

	result, err := fs.FileExists(file)
	assert.NoError(t, err)
	assert.True(t, result)

	result, err = fs.FileExists(dir)
	assert.NoError(t, err)
	assert.False(t, result)

	result, err = fs.FileExists(filepath.Join(dir, "missing.json"))
	assert.NoError(t, err)
	assert.False(t, result)

	content, err := fs.ReadFile(file)
	assert.NoError(t, err)
	assert.Equal(t, `{"tools":{}}`, string(content))
}

func TestTempFileAndRemove(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	f, err := fs.TempFile(dir, "fsix-*")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fs.Remove(f.Name()))
	exists, err := fs.FileExists(f.Name())
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestWalkDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "App"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "App", "App.fsproj"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.sln"), nil, 0644))

	var visited []string
	err := New().WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			visited = append(visited, rel)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"App.sln", filepath.Join("src", "App", "App.fsproj")}, visited)
}
