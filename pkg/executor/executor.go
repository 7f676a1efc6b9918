// Package executor defines the single capability the remediation core
// consumes from its environment: running a cluster command and capturing its
// outcome. Implementations may shell out to kubectl, call a remote MCP tool
// server, or talk to the Kubernetes API natively; the core is indifferent.
package executor

import (
	"context"
	"errors"
)

// ErrUnavailable marks the executor itself as unreachable. It is the only
// error class the pipeline treats as fatal; callers should test for it with
// errors.Is.
var ErrUnavailable = errors.New("command executor unavailable")

// Result is the captured outcome of one command. A failed command is a
// Result with Success false, not an error.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Executor runs one cluster command. The returned error is non-nil only when
// the executor infrastructure itself cannot be reached; ordinary command
// failures (non-zero exit, timeout) are reported inside Result.
type Executor interface {
	Execute(ctx context.Context, command []string, autoApprove bool) (*Result, error)
}
