package diff

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/yuya-takeyama/differy/pkg/manifest"
)

// Diff partitions the changed paths between two manifests. Paths whose
// presence and hash are unchanged appear in none of the lists.
type Diff struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// Compute classifies old against new by path. A file moved to a new path
// shows up as one removal and one addition; there is no rename detection.
func Compute(old, new manifest.Manifest) Diff {
	oldMap := old.Index()
	newMap := new.Index()

	result := Diff{
		Added:    []string{},
		Removed:  []string{},
		Modified: []string{},
	}

	for path, newHash := range newMap {
		if oldHash, exists := oldMap[path]; exists {
			if oldHash != newHash {
				result.Modified = append(result.Modified, path)
			}
		} else {
			result.Added = append(result.Added, path)
		}
	}

	for path := range oldMap {
		if _, exists := newMap[path]; !exists {
			result.Removed = append(result.Removed, path)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Modified)
	return result
}

// IsEmpty reports whether nothing changed.
func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Paths returns the paths a client has to fetch: added, then modified.
func (d Diff) Paths() []string {
	out := make([]string, 0, len(d.Added)+len(d.Modified))
	out = append(out, d.Added...)
	out = append(out, d.Modified...)
	return out
}

// RemovedList is the body of the "removed" entry of an update bundle.
func (d Diff) RemovedList() string {
	return strings.Join(d.Removed, "\n")
}

// WriteText writes "- ", "+ " and "~ " prefixed lines, in that order.
func (d Diff) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	blocks := []struct {
		prefix string
		paths  []string
	}{
		{"- ", d.Removed},
		{"+ ", d.Added},
		{"~ ", d.Modified},
	}
	for _, b := range blocks {
		for _, p := range b.paths {
			if _, err := fmt.Fprintf(bw, "%s%s\n", b.prefix, p); err != nil {
				return fmt.Errorf("write diff line: %w", err)
			}
		}
	}
	return bw.Flush()
}

// ParseText reads the text format back. Lines without a known prefix are
// ignored.
func ParseText(text string) Diff {
	result := Diff{
		Added:    []string{},
		Removed:  []string{},
		Modified: []string{},
	}
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			result.Added = append(result.Added, strings.TrimPrefix(line, "+ "))
		case strings.HasPrefix(line, "- "):
			result.Removed = append(result.Removed, strings.TrimPrefix(line, "- "))
		case strings.HasPrefix(line, "~ "):
			result.Modified = append(result.Modified, strings.TrimPrefix(line, "~ "))
		}
	}
	return result
}

// MarshalIndent returns the structured JSON form.
func (d Diff) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(d.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// normalized replaces nil lists so JSON always carries arrays.
func (d Diff) normalized() Diff {
	if d.Added == nil {
		d.Added = []string{}
	}
	if d.Removed == nil {
		d.Removed = []string{}
	}
	if d.Modified == nil {
		d.Modified = []string{}
	}
	return d
}
