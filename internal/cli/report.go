package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/local/scanpdf/internal/scanerr"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Report prints err for the operator. Tool failures include the command
// that failed and everything it printed.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, "error:", err)
	if tf, ok := scanerr.AsToolFailure(err); ok {
		fmt.Fprintln(w, "command:", tf.CommandLine())
		if out := strings.TrimSpace(tf.Output); out != "" {
			fmt.Fprintln(w, "output:")
			for _, line := range strings.Split(out, "\n") {
				fmt.Fprintln(w, "  "+line)
			}
		}
	}
}

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var inv *scanerr.InvariantViolation
	var usage *usageError
	if errors.Is(err, errUsage) || errors.As(err, &inv) || errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitFailure
}

// usageError marks a malformed command line.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErr(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}
