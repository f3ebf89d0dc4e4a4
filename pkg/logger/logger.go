package logger

import (
	"fmt"

	"github.com/apex/log"
)

// Logger receives progress events from a release run.
type Logger interface {
	PhaseStart(phase string, totalItems int)
	ItemProcessed(phase string, item string, action string)
	PhaseComplete(phase string, processedItems int)
	Skipped(phase string, item string, err error)
}

type VerboseLogger struct{}

func (l *VerboseLogger) PhaseStart(phase string, totalItems int) {
	log.WithField("phase", phase).Infof("starting phase with %d items", totalItems)
}

func (l *VerboseLogger) ItemProcessed(phase string, item string, action string) {
	log.WithField("phase", phase).Infof("%s: %s", action, item)
}

func (l *VerboseLogger) PhaseComplete(phase string, processedItems int) {
	log.WithField("phase", phase).Infof("phase complete, processed %d items", processedItems)
}

func (l *VerboseLogger) Skipped(phase string, item string, err error) {
	log.WithField("phase", phase).WithError(err).Warnf("skipped: %s", item)
}

type NullLogger struct{}

func (l *NullLogger) PhaseStart(phase string, totalItems int) {}

func (l *NullLogger) ItemProcessed(phase string, item string, action string) {}

func (l *NullLogger) PhaseComplete(phase string, processedItems int) {}

func (l *NullLogger) Skipped(phase string, item string, err error) {}

// QuietLogger prints written artifacts to stdout and nothing else except
// skips, which still go to the log.
type QuietLogger struct{}

func (l *QuietLogger) PhaseStart(phase string, totalItems int) {}

func (l *QuietLogger) ItemProcessed(phase string, item string, action string) {
	if action == "write" {
		fmt.Printf("%s: %s\n", action, item)
	}
}

func (l *QuietLogger) PhaseComplete(phase string, processedItems int) {}

func (l *QuietLogger) Skipped(phase string, item string, err error) {
	log.WithField("phase", phase).WithError(err).Warnf("skipped: %s", item)
}
