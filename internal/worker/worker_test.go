package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/differy/internal/walker"
)

func fixture(t *testing.T, contents map[string]string) []walker.FileInfo {
	t.Helper()
	dir := t.TempDir()
	var files []walker.FileInfo
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		content, ok := contents[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		files = append(files, walker.FileInfo{Path: path, RelPath: name, Size: int64(len(content))})
	}
	return files
}

func TestPoolExecute(t *testing.T) {
	files := fixture(t, map[string]string{"a.txt": "abc", "b.txt": "", "c.txt": "abc"})

	for _, concurrency := range []int{0, 1, 2, 16} {
		results, err := NewPool(concurrency).Execute(context.Background(), files)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "a.txt", results[0].File.RelPath)
		assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", results[0].Hash)
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", results[1].Hash)
		assert.Equal(t, results[0].Hash, results[2].Hash)

		var stats Stats
		UpdateStats(&stats, results)
		assert.Equal(t, int64(3), stats.Hashed)
		assert.Equal(t, int64(6), stats.BytesHashed)
		assert.Zero(t, stats.Errors)
	}
}

func TestPoolExecuteMissingFile(t *testing.T) {
	files := fixture(t, map[string]string{"a.txt": "abc"})
	files = append(files, walker.FileInfo{Path: filepath.Join(t.TempDir(), "gone"), RelPath: "gone"})

	results, err := NewPool(2).Execute(context.Background(), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash gone")
	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
}

func TestPoolExecuteCanceled(t *testing.T) {
	files := fixture(t, map[string]string{"a.txt": "abc", "b.txt": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPool(1).Execute(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolExecuteEmpty(t *testing.T) {
	results, err := NewPool(4).Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
