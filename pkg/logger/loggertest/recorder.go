// Package loggertest provides a logger.Logger that records progress events
// for assertions in tests.
package loggertest

import (
	"fmt"
	"sync"

	"github.com/yuya-takeyama/differy/pkg/logger"
)

var _ logger.Logger = (*Recorder)(nil)

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *Recorder) PhaseStart(phase string, totalItems int) {
	r.add("start %s %d", phase, totalItems)
}

func (r *Recorder) ItemProcessed(phase string, item string, action string) {
	r.add("%s %s %s", phase, action, item)
}

func (r *Recorder) PhaseComplete(phase string, processedItems int) {
	r.add("done %s %d", phase, processedItems)
}

func (r *Recorder) Skipped(phase string, item string, err error) {
	r.add("%s skip %s", phase, item)
}
