// Package manifest snapshots a content tree into a content-addressable
// listing of (hash, path) pairs and reads and writes that listing in the
// checksum text format.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/yuya-takeyama/differy/internal/checksum"
	"github.com/yuya-takeyama/differy/internal/domain"
)

// Entry is one file of a manifest.
type Entry struct {
	Hash string // lowercase hex SHA-256 of the raw bytes
	Path string // slash-separated, relative to the snapshot root
}

// Manifest is one snapshot of a content tree. Paths are unique. Manifests
// are never mutated after they are produced.
type Manifest []Entry

// PathList is a sequence of relative paths.
type PathList interface {
	Paths() []string
}

// Paths is a PathList backed by a plain slice.
type Paths []string

func (p Paths) Paths() []string { return p }

// Paths returns the relative paths of m in manifest order.
func (m Manifest) Paths() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Path
	}
	return out
}

// Index returns a path to hash lookup for m.
func (m Manifest) Index() map[string]string {
	idx := make(map[string]string, len(m))
	for _, e := range m {
		idx[e.Path] = e.Hash
	}
	return idx
}

// Sorted returns a copy of m ordered by path.
func (m Manifest) Sorted() Manifest {
	out := make(Manifest, len(m))
	copy(out, m)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Write serializes m as "<hash> <path>\n" lines. Paths containing
// whitespace cannot be read back by Parse and are rejected with
// domain.ErrUnrepresentablePath.
func (m Manifest) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range m {
		if strings.IndexFunc(e.Path, unicode.IsSpace) >= 0 || e.Path == "" {
			return &domain.OpError{
				Op:   "manifest.write",
				Kind: domain.KindArchive,
				Path: e.Path,
				Err:  domain.ErrUnrepresentablePath,
			}
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", e.Hash, e.Path); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Bytes returns the checksum text of m.
func (m Manifest) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse reads checksum text. Every line that does not split into exactly
// two whitespace-separated tokens, or whose hash is not a lowercase hex
// SHA-256, is skipped.
func Parse(text string) Manifest {
	var m Manifest
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 || !checksum.IsHex(fields[0]) {
			continue
		}
		m = append(m, Entry{Hash: fields[0], Path: fields[1]})
	}
	return m
}
