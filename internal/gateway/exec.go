package gateway

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/scanpdf/internal/metrics"
	"github.com/local/scanpdf/internal/scanerr"
)

// DefaultTimeout bounds a single external invocation when none is configured.
const DefaultTimeout = 5 * time.Minute

// DefaultWaitDelay is how long a killed tool's children may keep its output
// open before the pipes are closed.
const DefaultWaitDelay = 5 * time.Second

// Options configures the subprocess-backed gateway.
type Options struct {
	Tools         Tools
	Timeout       time.Duration
	WaitDelay     time.Duration
	MaxConcurrent int
}

// Exec runs operations as subprocesses on the local host.
type Exec struct {
	tools     Tools
	timeout   time.Duration
	waitDelay time.Duration
	semaphore chan struct{}
}

// NewExec creates a gateway that shells out to the configured tools.
func NewExec(opts Options) *Exec {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &Exec{
		tools:     opts.Tools,
		timeout:   opts.Timeout,
		waitDelay: opts.WaitDelay,
		semaphore: make(chan struct{}, opts.MaxConcurrent),
	}
}

// Invoke runs the operation and returns its combined stdout/stderr.
func (e *Exec) Invoke(ctx context.Context, req Request) ([]byte, error) {
	name, args, err := e.tools.command(req)
	if err != nil {
		return nil, err
	}
	op := string(req.Operation())

	// Acquire semaphore to limit concurrent subprocesses
	select {
	case e.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.semaphore }()

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	cmd.WaitDelay = e.waitDelay
	log.Debug().Str("op", op).Str("cmd", strings.Join(cmd.Args, " ")).Msg("running external tool")

	start := time.Now()
	out, err := cmd.CombinedOutput()
	dur := time.Since(start)
	if err == nil {
		metrics.ObserveTool(op, "ok", dur)
		log.Debug().Str("op", op).Dur("duration", dur).Int("output_len", len(out)).Msg("external tool finished")
		return out, nil
	}

	failure := &scanerr.ExternalToolFailure{
		Operation:  op,
		Command:    cmd.Args,
		ExitStatus: -1,
		Output:     string(out),
	}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		metrics.ObserveTool(op, "cancelled", dur)
		return nil, ctx.Err()
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		failure.Output = strings.TrimSpace(failure.Output + fmt.Sprintf("\ntimeout after %v", e.timeout))
		metrics.ObserveTool(op, "timeout", dur)
	case errors.As(err, &exitErr):
		failure.ExitStatus = exitErr.ExitCode()
		metrics.ObserveTool(op, "error", dur)
	default:
		// could not start (not found, permission denied)
		failure.Output = strings.TrimSpace(failure.Output + "\n" + err.Error())
		metrics.ObserveTool(op, "error", dur)
	}
	log.Debug().Str("op", op).Int("exit_status", failure.ExitStatus).Str("output", failure.Output).Msg("external tool failed")
	return nil, failure
}

// CheckInstallation verifies the named executables are available on PATH.
func CheckInstallation(names ...string) error {
	var missing []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependency: %s not found in PATH", strings.Join(missing, ", "))
	}
	return nil
}
