package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"":        log.InfoLevel,
		"info":    log.InfoLevel,
		"DEBUG":   log.DebugLevel,
		"trace":   log.DebugLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"fatal":   log.FatalLevel,
		"bogus":   log.InfoLevel,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Handler: NewHandler(&buf), Level: log.DebugLevel}

	logger.WithField("phase", "update").WithError(errors.New("boom")).Warn("skipped: v1")
	logger.Debug("hello")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " W skipped: v1 error=boom phase=update")
	assert.Contains(t, lines[1], " D hello")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, Summary{
		Files:        3,
		BytesHashed:  2048,
		Updates:      2,
		Skipped:      1,
		Archives:     6,
		ArchiveBytes: 1000,
		Duration:     1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Hashed: 3 files (2.0 kB)")
	assert.Contains(t, out, "Updates: 2 built, 1 skipped")
	assert.Contains(t, out, "Archives: 6 (1.0 kB)")
	assert.Contains(t, out, "Duration: 1.5s")
}
