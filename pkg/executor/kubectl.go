package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// KubectlExecutor runs commands as kubectl subprocesses with a per-call
// timeout. The command's leading "kubectl" (or "k") token is replaced by the
// configured binary path.
type KubectlExecutor struct {
	Path    string
	Timeout time.Duration
}

// NewKubectlExecutor creates a KubectlExecutor. An empty path defaults to
// "kubectl" on PATH.
func NewKubectlExecutor(path string, timeout time.Duration) *KubectlExecutor {
	if path == "" {
		path = "kubectl"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KubectlExecutor{Path: path, Timeout: timeout}
}

// Execute runs the command and captures stdout/stderr. A timed-out or
// non-zero-exit command is a failed Result; only a missing kubectl binary is
// reported as ErrUnavailable.
func (e *KubectlExecutor) Execute(ctx context.Context, command []string, _ bool) (*Result, error) {
	if len(command) == 0 {
		return &Result{Success: false, Error: "empty command"}, nil
	}

	args := command
	if command[0] == "kubectl" || command[0] == "k" {
		args = command[1:]
	}

	cctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, e.Path, args...) // #nosec G204 -- argv form, no shell
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return &Result{Success: true, Output: stdout.String()}, nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		// Binary not found or not runnable: nothing this executor issues can
		// succeed, surface as infrastructure failure.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	msg := stderr.String()
	if cctx.Err() == context.DeadlineExceeded {
		msg = fmt.Sprintf("command timed out after %s", e.Timeout)
	} else if msg == "" {
		msg = err.Error()
	}

	slog.Debug("kubectl command failed", "args", args, "error", msg)
	return &Result{Success: false, Output: stdout.String(), Error: msg}, nil
}
