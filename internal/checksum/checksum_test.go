package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSHA256(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:  "abc",
			input: "abc",
			want:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name:  "larger than buffer",
			input: strings.Repeat("a", bufferSize+17),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSHA256(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.True(t, IsHex(got))
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCalculateFileSHA256(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	got, err := CalculateFileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = CalculateFileSHA256(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex(strings.Repeat("0a", 32)))
	assert.False(t, IsHex(strings.Repeat("0A", 32)))
	assert.False(t, IsHex("abc"))
	assert.False(t, IsHex(strings.Repeat("g", 64)))
}
