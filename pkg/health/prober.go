// Package health periodically probes the command executor with a cheap
// read-only command and feeds the result into the readiness endpoint, so a
// pod whose transport to the cluster is gone stops receiving traffic.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
)

// Status tracks executor reachability.
type Status struct {
	mu        sync.RWMutex
	available bool
	ready     bool
	onChange  func(available bool)
}

// IsReady returns true once the initial probe has completed and the executor
// was reachable on the most recent probe.
func (s *Status) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready && s.available
}

// Available returns the most recent probe outcome.
func (s *Status) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Prober probes the executor on an interval and updates Status.
type Prober struct {
	exec     executor.Executor
	status   *Status
	interval time.Duration
}

// NewProber creates an executor prober. onChange fires on reachability
// transitions and may be nil.
func NewProber(exec executor.Executor, onChange func(available bool)) *Prober {
	return &Prober{
		exec: exec,
		status: &Status{
			onChange: onChange,
		},
		interval: 30 * time.Second,
	}
}

// Status returns the current reachability state.
func (p *Prober) Status() *Status {
	return p.status
}

// Start begins the probe loop. It runs until the context is cancelled.
func (p *Prober) Start(ctx context.Context) {
	p.probe(ctx)
	p.status.mu.Lock()
	p.status.ready = true
	available := p.status.available
	p.status.mu.Unlock()
	slog.Info("initial executor probe complete", "available", available)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("executor prober stopped")
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context) {
	prev := p.status.Available()

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// A failed command still proves the transport works; only an
	// ErrUnavailable-class error marks the executor unreachable.
	_, err := p.exec.Execute(probeCtx, []string{"kubectl", "get", "pods", "-n", "default"}, true)
	available := err == nil

	p.status.mu.Lock()
	p.status.available = available
	onChange := p.status.onChange
	p.status.mu.Unlock()

	if available != prev {
		slog.Info("executor reachability changed", "available", available, "error", err)
		if onChange != nil {
			onChange(available)
		}
	}
}
