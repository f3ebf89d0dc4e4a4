// Package release turns a freshly built content tree into a release: a
// checksum archive, update bundles from recent revisions and full content
// archives, tracked by a small JSON state file.
package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yuya-takeyama/differy/internal/domain"
)

// State is the persisted release state.
type State struct {
	Date    *time.Time `json:"date,omitempty"`
	Latest  string     `json:"latest,omitempty"`
	Updates []string   `json:"updates"`
}

// LoadState reads the state file at path. Fields of the wrong type are
// ignored. Any failure returns an empty state together with a
// KindManifestAbsent error the caller may log and otherwise ignore.
func LoadState(path string) (State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return State{}, &domain.OpError{
			Op:   "release.load_state",
			Kind: domain.KindManifestAbsent,
			Path: path,
			Err:  err,
		}
	}

	if !gjson.ValidBytes(b) {
		return State{}, &domain.OpError{
			Op:   "release.load_state",
			Kind: domain.KindManifestAbsent,
			Path: path,
			Err:  errors.New("invalid JSON"),
		}
	}

	doc := gjson.ParseBytes(b)
	var s State
	if latest := doc.Get("latest"); latest.Type == gjson.String {
		s.Latest = latest.String()
	}
	if date := doc.Get("date"); date.Type == gjson.String {
		if t, ok := parseDate(date.String()); ok {
			s.Date = &t
		}
	}
	doc.Get("updates").ForEach(func(_, rev gjson.Result) bool {
		if rev.Type == gjson.String {
			s.Updates = append(s.Updates, rev.String())
		}
		return true
	})
	return s, nil
}

// dateLayouts are tried in order. Older state files carry a timestamp
// without a zone, read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SaveState writes s to path, replacing any previous file.
func SaveState(path string, s State) error {
	if s.Updates == nil {
		s.Updates = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &domain.OpError{Op: "release.save_state", Kind: domain.KindIO, Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return &domain.OpError{Op: "release.save_state", Kind: domain.KindIO, Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &domain.OpError{Op: "release.save_state", Kind: domain.KindIO, Path: path, Err: err}
	}
	return nil
}

// Candidates lists the revisions that get an update bundle towards current:
// the previous latest revision first, then the stored updates in order.
// current and repeated revisions are skipped. At most n are returned.
func Candidates(s State, current string, n int) []string {
	out := []string{}
	seen := map[string]bool{current: true}

	add := func(rev string) {
		if rev == "" || seen[rev] || len(out) >= n {
			return
		}
		seen[rev] = true
		out = append(out, rev)
	}

	add(s.Latest)
	for _, rev := range s.Updates {
		add(rev)
	}
	return out
}
