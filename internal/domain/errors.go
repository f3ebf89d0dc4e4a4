package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnrepresentablePath = errors.New("path contains whitespace")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindIO                   ErrorKind = "io"
	KindArchive              ErrorKind = "archive"
	KindManifestAbsent       ErrorKind = "manifest_absent"
	KindCandidateUnavailable ErrorKind = "candidate_unavailable"
	KindInvalidConfig        ErrorKind = "invalid_config"
	KindCanceled             ErrorKind = "canceled"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any OpError in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var oe *OpError
		if !errors.As(err, &oe) {
			return false
		}
		if oe.Kind == kind {
			return true
		}
		err = oe.Err
	}
	return false
}
