package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

// EnvLevel names the environment variable consulted when no level is given.
const EnvLevel = "DIFFERY_LOG"

// Init sets up apex/log with Handler writing to stderr. An empty level
// falls back to $DIFFERY_LOG, then to "info".
func Init(level string) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(ParseLevel(level))
}

// ParseLevel maps a level name to an apex level. Unknown names mean info.
func ParseLevel(name string) log.Level {
	switch strings.ToLower(name) {
	case "debug", "trace":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Handler formats entries as "<time> <L> <message> key=value ...".
type Handler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	level := "?"
	switch e.Level {
	case log.DebugLevel:
		level = "D"
	case log.InfoLevel:
		level = "I"
	case log.WarnLevel:
		level = "W"
	case log.ErrorLevel:
		level = "E"
	case log.FatalLevel:
		level = "F"
	}

	var b strings.Builder
	b.WriteString(e.Timestamp.Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(e.Message)

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// Summary is what a release run reports at the end.
type Summary struct {
	Files        int64
	BytesHashed  int64
	Updates      int
	Skipped      int
	Archives     int
	ArchiveBytes int64
	Duration     time.Duration
}

// PrintSummary prints a summary of the release run
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Hashed: %d files (%s)\n", s.Files, humanize.Bytes(uint64(s.BytesHashed)))
	fmt.Fprintf(w, "Updates: %d built", s.Updates)
	if s.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", s.Skipped)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Archives: %d (%s)\n", s.Archives, humanize.Bytes(uint64(s.ArchiveBytes)))
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
}
