package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/differy/pkg/manifest"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		old  manifest.Manifest
		new  manifest.Manifest
		want Diff
	}{
		{
			name: "both empty",
			want: Diff{Added: []string{}, Removed: []string{}, Modified: []string{}},
		},
		{
			name: "all new files",
			new:  manifest.Manifest{{Hash: "h1", Path: "b.txt"}, {Hash: "h2", Path: "a.txt"}},
			want: Diff{Added: []string{"a.txt", "b.txt"}, Removed: []string{}, Modified: []string{}},
		},
		{
			name: "all removed files",
			old:  manifest.Manifest{{Hash: "h1", Path: "a.txt"}},
			want: Diff{Added: []string{}, Removed: []string{"a.txt"}, Modified: []string{}},
		},
		{
			name: "added and modified",
			old: manifest.Manifest{
				{Hash: "H1", Path: "a.txt"},
				{Hash: "H2", Path: "b/index.json"},
			},
			new: manifest.Manifest{
				{Hash: "H1", Path: "a.txt"},
				{Hash: "H3", Path: "b/index.json"},
				{Hash: "H4", Path: "c.txt"},
			},
			want: Diff{Added: []string{"c.txt"}, Removed: []string{}, Modified: []string{"b/index.json"}},
		},
		{
			name: "move is remove plus add",
			old:  manifest.Manifest{{Hash: "H1", Path: "old/a.txt"}},
			new:  manifest.Manifest{{Hash: "H1", Path: "new/a.txt"}},
			want: Diff{Added: []string{"new/a.txt"}, Removed: []string{"old/a.txt"}, Modified: []string{}},
		},
		{
			name: "hash swap between paths",
			old:  manifest.Manifest{{Hash: "H1", Path: "a"}, {Hash: "H2", Path: "b"}},
			new:  manifest.Manifest{{Hash: "H2", Path: "a"}, {Hash: "H1", Path: "b"}},
			want: Diff{Added: []string{}, Removed: []string{}, Modified: []string{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func randomManifest(r *rand.Rand) manifest.Manifest {
	var m manifest.Manifest
	for i := 0; i < 20; i++ {
		if r.Intn(2) == 0 {
			continue
		}
		m = append(m, manifest.Entry{
			Hash: fmt.Sprintf("h%d", r.Intn(3)),
			Path: fmt.Sprintf("f%02d", i),
		})
	}
	return m
}

func TestComputePartition(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		a, b := randomManifest(r), randomManifest(r)
		d := Compute(a, b)

		seen := map[string]int{}
		for _, list := range [][]string{d.Added, d.Removed, d.Modified} {
			for _, p := range list {
				seen[p]++
			}
		}
		for p, n := range seen {
			require.Equal(t, 1, n, "path %s classified more than once", p)
		}

		ai, bi := a.Index(), b.Index()
		for p, h := range ai {
			bh, ok := bi[p]
			switch {
			case !ok:
				assert.Contains(t, d.Removed, p)
			case bh != h:
				assert.Contains(t, d.Modified, p)
			default:
				assert.NotContains(t, seen, p)
			}
		}
		for p := range bi {
			if _, ok := ai[p]; !ok {
				assert.Contains(t, d.Added, p)
			}
		}

		assert.True(t, Compute(a, a).IsEmpty())
	}
}

func TestTextRoundTrip(t *testing.T) {
	d := Diff{
		Added:    []string{"c.txt"},
		Removed:  []string{"gone.txt", "x/y"},
		Modified: []string{"b/index.json"},
	}

	var buf bytes.Buffer
	require.NoError(t, d.WriteText(&buf))
	assert.Equal(t, "- gone.txt\n- x/y\n+ c.txt\n~ b/index.json\n", buf.String())
	assert.Equal(t, d, ParseText(buf.String()))

	assert.Equal(t, Diff{Added: []string{}, Removed: []string{}, Modified: []string{}}, ParseText("garbage\n* x\n"))
}

func TestJSON(t *testing.T) {
	data, err := Diff{Added: []string{"a"}}.MarshalIndent()
	require.NoError(t, err)

	var got map[string][]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string][]string{"added": {"a"}, "removed": {}, "modified": {}}, got)
}

func TestHelpers(t *testing.T) {
	d := Diff{Added: []string{"a"}, Removed: []string{"r1", "r2"}, Modified: []string{"m"}}
	assert.Equal(t, []string{"a", "m"}, d.Paths())
	assert.Equal(t, "r1\nr2", d.RemovedList())
	assert.Equal(t, "", Diff{}.RemovedList())
	assert.False(t, d.IsEmpty())
}
