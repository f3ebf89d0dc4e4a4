package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo represents a local file
type FileInfo struct {
	Path    string // Absolute path
	RelPath string // Slash-separated path relative to root
	Size    int64
	Mode    os.FileMode
}

// Tree is the result of a walk: regular files plus every directory below
// the root, both sorted by relative path.
type Tree struct {
	Files []FileInfo
	Dirs  []string
}

// Walker walks local files with exclude pattern support.
//
// Symbolic links are never followed and never reported, so a link cycle
// cannot make a walk run forever. Other non-regular files (sockets, devices,
// named pipes) are skipped as well.
type Walker struct {
	root     string
	excludes []string
}

// NewWalker creates a new file walker
func NewWalker(root string, excludes []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	// The root itself may be a link; everything below it is walked unresolved.
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	return &Walker{
		root:     absRoot,
		excludes: excludes,
	}, nil
}

// Root returns the resolved absolute root directory.
func (w *Walker) Root() string {
	return w.root
}

// Walk walks the file tree and returns matching regular files
func (w *Walker) Walk(ctx context.Context) ([]FileInfo, error) {
	tree, err := w.WalkTree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Files, nil
}

// WalkTree walks the file tree and returns matching files and directories
func (w *Walker) WalkTree(ctx context.Context) (Tree, error) {
	var tree Tree

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path == w.root {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if w.isExcludedDir(relPath) {
				return fs.SkipDir
			}
			tree.Dirs = append(tree.Dirs, relPath)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if w.isExcluded(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("get file info: %w", err)
		}

		tree.Files = append(tree.Files, FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
			Mode:    info.Mode(),
		})

		return nil
	})

	if err != nil {
		return Tree{}, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(tree.Files, func(i, j int) bool {
		return tree.Files[i].RelPath < tree.Files[j].RelPath
	})
	sort.Strings(tree.Dirs)

	return tree, nil
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.excludes {
		// Handle directory patterns (ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(path, "/")
			for i := 1; i < len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}

// isExcludedDir checks if a directory matches a directory exclude pattern
func (w *Walker) isExcludedDir(path string) bool {
	for _, pattern := range w.excludes {
		if !strings.HasSuffix(pattern, "/") {
			continue
		}
		if matched, _ := doublestar.Match(strings.TrimSuffix(pattern, "/"), path); matched {
			return true
		}
	}
	return false
}
