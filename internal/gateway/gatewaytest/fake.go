// Package gatewaytest provides an in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/local/scanpdf/internal/gateway"
	"github.com/local/scanpdf/internal/scanerr"
)

// HandlerFunc answers a request; returning nil output and nil error falls
// through to the canned output for the operation.
type HandlerFunc func(req gateway.Request) ([]byte, error)

// Fake records every request, writes each requested output artifact and
// answers with canned output per operation.
type Fake struct {
	mu       sync.Mutex
	requests []gateway.Request

	// Outputs holds canned output per operation.
	Outputs map[gateway.Op][]byte
	// Handler, when set, is consulted before Outputs.
	Handler HandlerFunc
	// Latency, when set, delays each request.
	Latency func(req gateway.Request) time.Duration
	// SkipArtifacts disables writing request outputs to disk.
	SkipArtifacts bool
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Outputs: map[gateway.Op][]byte{}}
}

// Invoke implements gateway.Gateway.
func (f *Fake) Invoke(ctx context.Context, req gateway.Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler, latency := f.Handler, f.Latency
	canned := f.Outputs[req.Operation()]
	f.mu.Unlock()

	if latency != nil {
		if d := latency(req); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	var out []byte
	if handler != nil {
		var err error
		out, err = handler(req)
		if err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = canned
	}

	if p := req.Output(); p != "" && !f.SkipArtifacts {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, []byte(fmt.Sprintf("%s\n", req.Operation())), 0o644); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Requests returns a copy of every request seen so far.
func (f *Fake) Requests() []gateway.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.Request(nil), f.requests...)
}

// Ops returns the operation of every request seen so far.
func (f *Fake) Ops() []gateway.Op {
	reqs := f.Requests()
	ops := make([]gateway.Op, len(reqs))
	for i, r := range reqs {
		ops[i] = r.Operation()
	}
	return ops
}

// Count returns how many requests of op were seen.
func (f *Fake) Count(op gateway.Op) int {
	n := 0
	for _, o := range f.Ops() {
		if o == op {
			n++
		}
	}
	return n
}

// Failure builds the error a real gateway returns for a failed tool.
func Failure(op gateway.Op, output string) error {
	return &scanerr.ExternalToolFailure{Operation: string(op), Command: []string{string(op)}, ExitStatus: 1, Output: output}
}
