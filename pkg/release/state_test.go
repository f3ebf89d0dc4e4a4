package release

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/differy/internal/domain"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		current string
		n       int
		want    []string
	}{
		{
			name:    "empty state",
			current: "v1",
			n:       14,
			want:    []string{},
		},
		{
			name:    "latest then updates within window",
			state:   State{Latest: "v4", Updates: []string{"v1", "v2", "v3"}},
			current: "v5",
			n:       2,
			want:    []string{"v4", "v1"},
		},
		{
			name:    "current and duplicates skipped",
			state:   State{Latest: "v5", Updates: []string{"v4", "v5", "v4", "v3"}},
			current: "v5",
			n:       14,
			want:    []string{"v4", "v3"},
		},
		{
			name:    "zero window",
			state:   State{Latest: "v4", Updates: []string{"v3"}},
			current: "v5",
			n:       0,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.state, tt.current, tt.n))
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "update.json")
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, SaveState(path, State{Date: &date, Latest: "v2", Updates: []string{"v1"}}))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", loaded.Latest)
	assert.Equal(t, []string{"v1"}, loaded.Updates)
	require.NotNil(t, loaded.Date)
	assert.True(t, date.Equal(*loaded.Date))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date": "2024-03-01T12:00:00Z"`)
}

func TestSaveStateWritesEmptyUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.json")
	require.NoError(t, SaveState(path, State{Latest: "v1"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"updates": []`)
}

func TestLoadStateFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadState(filepath.Join(dir, "missing.json"))
	assert.True(t, domain.IsKind(err, domain.KindManifestAbsent))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	s, err := LoadState(bad)
	assert.True(t, domain.IsKind(err, domain.KindManifestAbsent))
	assert.Empty(t, s.Latest)
	assert.Empty(t, s.Updates)
}

func TestLoadStateIgnoresMistypedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"date":"yesterday","latest":3,"updates":["v1",2,"v2"]}`), 0o644))

	s, err := LoadState(path)
	require.NoError(t, err)
	assert.Nil(t, s.Date)
	assert.Empty(t, s.Latest)
	assert.Equal(t, []string{"v1", "v2"}, s.Updates)
}

func TestLoadStateDateLayouts(t *testing.T) {
	tests := []struct {
		name string
		date string
		want time.Time
	}{
		{name: "rfc3339", date: "2024-03-01T12:00:00Z", want: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{name: "rfc3339 with offset", date: "2024-03-01T21:00:00+09:00", want: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{name: "no zone with fraction", date: "2021-06-01T12:00:00.123", want: time.Date(2021, 6, 1, 12, 0, 0, 123000000, time.UTC)},
		{name: "no zone", date: "2021-06-01T12:00:00", want: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "update.json")
			require.NoError(t, os.WriteFile(path, []byte(`{"date":"`+tt.date+`","latest":"v1","updates":[]}`), 0o644))

			s, err := LoadState(path)
			require.NoError(t, err)
			require.NotNil(t, s.Date)
			assert.True(t, tt.want.Equal(*s.Date), "got %s", s.Date)
			assert.Equal(t, "v1", s.Latest)
		})
	}
}
