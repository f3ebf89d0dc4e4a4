// Package archive produces the zip files a release consists of: update
// bundles, full content archives and checksum archives.
//
// Names for a prefix P and a variant suffix S ("" for web, "-app" for app):
//
//	<P><S>-update.zip   files added or modified since an older revision, plus
//	                    a "removed" entry listing the paths to delete
//	<P><S>-content.zip  the complete tree
//	<P>-checksums.zip   one entry "<P>-checksums" holding the manifest text
//	<P>-content.json    every file path of the tree
//	<P>-diff.json       the structured diff behind an update bundle
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/yuya-takeyama/differy/internal/domain"
	"github.com/yuya-takeyama/differy/internal/walker"
	"github.com/yuya-takeyama/differy/pkg/diff"
	"github.com/yuya-takeyama/differy/pkg/manifest"
	"github.com/yuya-takeyama/differy/pkg/rewrite"
)

// RemovedEntry is the reserved entry name inside every update bundle.
const RemovedEntry = "removed"

// Result describes one written archive.
type Result struct {
	Path    string
	Entries int
	Size    int64
}

// Builder writes archives into one output directory.
type Builder struct {
	outputDir string
	rewriter  *rewrite.Rewriter
	excludes  []string
}

// NewBuilder creates a Builder. A nil rewriter uses rewrite.Default().
func NewBuilder(outputDir string, rewriter *rewrite.Rewriter, excludes []string) *Builder {
	if rewriter == nil {
		rewriter = rewrite.Default()
	}
	return &Builder{
		outputDir: outputDir,
		rewriter:  rewriter,
		excludes:  excludes,
	}
}

// OutputDir returns the directory archives are written to.
func (b *Builder) OutputDir() string {
	return b.outputDir
}

func UpdateName(prefix string, v rewrite.Variant) string {
	return prefix + v.Suffix() + "-update.zip"
}

func ContentName(prefix string, v rewrite.Variant) string {
	return prefix + v.Suffix() + "-content.zip"
}

func ChecksumEntryName(revision string) string {
	return revision + "-checksums"
}

func ChecksumName(revision string) string {
	return ChecksumEntryName(revision) + ".zip"
}

func ContentListingName(prefix string) string {
	return prefix + "-content.json"
}

func DiffName(prefix string) string {
	return prefix + "-diff.json"
}

// UpdatePrefix is the prefix of the bundle upgrading from to to.
func UpdatePrefix(to, from string) string {
	return to + "-" + from
}

// BuildUpdate writes the update bundle for d: every added or modified path
// read from root, then the "removed" entry.
func (b *Builder) BuildUpdate(ctx context.Context, root string, d diff.Diff, prefix string, v rewrite.Variant) (Result, error) {
	out := filepath.Join(b.outputDir, UpdateName(prefix, v))

	for _, p := range d.Paths() {
		if p == RemovedEntry {
			return Result{}, &domain.OpError{
				Op:   "archive.build_update",
				Kind: domain.KindArchive,
				Path: out,
				Err:  fmt.Errorf("content path %q collides with the reserved entry", p),
			}
		}
	}

	w, err := Create(out)
	if err != nil {
		return Result{}, err
	}
	for _, p := range d.Paths() {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return Result{}, &domain.OpError{Op: "archive.build_update", Kind: domain.KindCanceled, Path: out, Err: err}
		}
		if err := b.addFile(w, root, p, v); err != nil {
			w.Abort()
			return Result{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Result{}, err
	}

	if err := Append(out, Entry{Name: RemovedEntry, Data: []byte(d.RemovedList())}); err != nil {
		return Result{}, err
	}

	return stat(out, len(d.Paths())+1)
}

// BuildContent writes the whole tree under root, keeping empty directories
// as directory entries.
func (b *Builder) BuildContent(ctx context.Context, root, prefix string, v rewrite.Variant) (Result, error) {
	out := filepath.Join(b.outputDir, ContentName(prefix, v))

	wk, err := walker.NewWalker(root, b.excludes)
	if err != nil {
		return Result{}, &domain.OpError{Op: "archive.build_content", Kind: domain.KindIO, Path: root, Err: err}
	}
	tree, err := wk.WalkTree(ctx)
	if err != nil {
		kind := domain.KindIO
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = domain.KindCanceled
		}
		return Result{}, &domain.OpError{Op: "archive.build_content", Kind: kind, Path: root, Err: err}
	}

	type item struct {
		name string
		dir  bool
	}
	items := make([]item, 0, len(tree.Dirs)+len(tree.Files))
	for _, d := range tree.Dirs {
		items = append(items, item{name: d + "/", dir: true})
	}
	for _, f := range tree.Files {
		items = append(items, item{name: f.RelPath})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].name < items[j].name
	})

	w, err := Create(out)
	if err != nil {
		return Result{}, err
	}
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return Result{}, &domain.OpError{Op: "archive.build_content", Kind: domain.KindCanceled, Path: out, Err: err}
		}
		if it.dir {
			err = w.AddDir(it.name)
		} else {
			err = b.addFile(w, wk.Root(), it.name, v)
		}
		if err != nil {
			w.Abort()
			return Result{}, err
		}
	}
	entries := w.Entries()
	if err := w.Close(); err != nil {
		return Result{}, err
	}
	return stat(out, entries)
}

// BuildChecksum stores m under the entry "<revision>-checksums" in
// "<revision>-checksums.zip".
func (b *Builder) BuildChecksum(m manifest.Manifest, revision string) (Result, error) {
	out := filepath.Join(b.outputDir, ChecksumName(revision))

	data, err := m.Bytes()
	if err != nil {
		return Result{}, err
	}

	w, err := Create(out)
	if err != nil {
		return Result{}, err
	}
	if err := w.Add(ChecksumEntryName(revision), data); err != nil {
		w.Abort()
		return Result{}, err
	}
	if err := w.Close(); err != nil {
		return Result{}, err
	}
	return stat(out, 1)
}

// LoadChecksum reads the manifest stored by BuildChecksum. Malformed lines
// are dropped. A missing archive yields an error wrapping domain.ErrNotFound.
func (b *Builder) LoadChecksum(revision string) (manifest.Manifest, error) {
	data, err := ReadEntry(filepath.Join(b.outputDir, ChecksumName(revision)), ChecksumEntryName(revision))
	if err != nil {
		return nil, err
	}
	return manifest.Parse(string(data)), nil
}

// WriteContentListing writes the JSON array of every path in paths.
func (b *Builder) WriteContentListing(prefix string, paths manifest.PathList) (string, error) {
	list := paths.Paths()
	if list == nil {
		list = []string{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return b.writeFile(ContentListingName(prefix), data)
}

// WriteDiff writes the structured diff behind an update bundle.
func (b *Builder) WriteDiff(prefix string, d diff.Diff) (string, error) {
	data, err := d.MarshalIndent()
	if err != nil {
		return "", err
	}
	return b.writeFile(DiffName(prefix), data)
}

func (b *Builder) writeFile(name string, data []byte) (string, error) {
	out := filepath.Join(b.outputDir, name)
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", &domain.OpError{Op: "archive.write_file", Kind: domain.KindIO, Path: out, Err: err}
	}
	return out, nil
}

func (b *Builder) addFile(w *Writer, root, relPath string, v rewrite.Variant) error {
	full := filepath.Join(root, filepath.FromSlash(path.Clean(relPath)))
	data, err := os.ReadFile(full)
	if err != nil {
		return &domain.OpError{Op: "archive.add_file", Kind: domain.KindIO, Path: full, Err: err}
	}
	data, err = b.rewriter.Apply(v, relPath, data)
	if err != nil {
		return &domain.OpError{Op: "archive.add_file", Kind: domain.KindInvalidConfig, Path: full, Err: err}
	}
	return w.Add(relPath, data)
}

func stat(path string, entries int) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, &domain.OpError{Op: "archive.stat", Kind: domain.KindIO, Path: path, Err: err}
	}
	return Result{Path: path, Entries: entries, Size: info.Size()}, nil
}
