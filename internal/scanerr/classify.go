package scanerr

import (
	"context"
	"errors"
)

// IsFatal checks if err must abort the whole scan job.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var toolErr *ExternalToolFailure
	if errors.As(err, &toolErr) {
		return true
	}

	var invErr *InvariantViolation
	if errors.As(err, &invErr) {
		return true
	}

	// Interrupted by the operator
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Missing artifacts are content decisions; anything else unknown is fatal
	return !IsMissingArtifact(err)
}

// IsMissingArtifact checks if err is a vanished page artifact.
func IsMissingArtifact(err error) bool {
	if err == nil {
		return false
	}
	var missing *MissingArtifact
	return errors.As(err, &missing)
}

// AsToolFailure extracts the ExternalToolFailure wrapped in err, if any.
func AsToolFailure(err error) (*ExternalToolFailure, bool) {
	var toolErr *ExternalToolFailure
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}
