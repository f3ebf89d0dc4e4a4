package walker

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestWalkTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":             "a",
		"b/index.json":      "{}",
		"b/c/deep.txt":      "deep",
		"node_modules/x.js": "x",
		"tmp.log":           "log",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	tests := []struct {
		name      string
		excludes  []string
		wantFiles []string
		wantDirs  []string
	}{
		{
			name:      "no excludes",
			wantFiles: []string{"a.txt", "b/c/deep.txt", "b/index.json", "node_modules/x.js", "tmp.log"},
			wantDirs:  []string{"b", "b/c", "empty", "node_modules"},
		},
		{
			name:      "file and directory excludes",
			excludes:  []string{"*.log", "node_modules/"},
			wantFiles: []string{"a.txt", "b/c/deep.txt", "b/index.json"},
			wantDirs:  []string{"b", "b/c", "empty"},
		},
		{
			name:      "doublestar exclude",
			excludes:  []string{"**/deep.txt"},
			wantFiles: []string{"a.txt", "b/index.json", "node_modules/x.js", "tmp.log"},
			wantDirs:  []string{"b", "b/c", "empty", "node_modules"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWalker(root, tt.excludes)
			require.NoError(t, err)

			tree, err := w.WalkTree(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantFiles, relPaths(tree.Files))
			assert.Equal(t, tt.wantDirs, tree.Dirs)
		})
	}
}

func TestWalkSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"dir/file.txt": "x"})
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dir", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(root, "dir", "file.txt"), filepath.Join(root, "link.txt")))

	w, err := NewWalker(root, nil)
	require.NoError(t, err)

	files, err := w.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/file.txt"}, relPaths(files))
}

func TestNewWalkerErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"file.txt": "x"})

	_, err := NewWalker(filepath.Join(root, "missing"), nil)
	assert.Error(t, err)

	_, err = NewWalker(filepath.Join(root, "file.txt"), nil)
	assert.Error(t, err)

	_, err = NewWalker(root, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestWalkCanceled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})

	w, err := NewWalker(root, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
