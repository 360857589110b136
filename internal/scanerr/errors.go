package scanerr

import (
	"fmt"
	"strings"
)

// ExternalToolFailure represents an external image/document operation that
// exited non-zero, could not be started, or timed out.
type ExternalToolFailure struct {
	Operation  string
	Command    []string
	ExitStatus int
	Output     string
}

func (e *ExternalToolFailure) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("external tool failure: %s exited with status %d", e.Operation, e.ExitStatus)
	}
	return fmt.Sprintf("external tool failure: %s exited with status %d: %s", e.Operation, e.ExitStatus, out)
}

// CommandLine returns the offending command as a single printable line.
func (e *ExternalToolFailure) CommandLine() string { return strings.Join(e.Command, " ") }

// InvariantViolation represents a broken precondition such as an odd page
// count in duplex mode or a malformed job configuration.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}

// Invariantf builds an InvariantViolation from a format string.
func Invariantf(format string, args ...any) error {
	return &InvariantViolation{Message: fmt.Sprintf(format, args...)}
}

// MissingArtifact reports that a page's file vanished before a stage ran.
type MissingArtifact struct {
	Path string
}

func (e *MissingArtifact) Error() string {
	return fmt.Sprintf("missing artifact: %s", e.Path)
}
