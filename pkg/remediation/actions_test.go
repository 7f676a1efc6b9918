package remediation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// fakeExecutor routes commands to a scripted handler and records every call.
type fakeExecutor struct {
	calls   [][]string
	handler func(command []string) (*executor.Result, error)
}

func (f *fakeExecutor) Execute(_ context.Context, command []string, _ bool) (*executor.Result, error) {
	f.calls = append(f.calls, command)
	return f.handler(command)
}

const describeWithLimit = `Name:         app-backend
Namespace:    production
Pod Template:
  Containers:
   backend:
    Image:      registry.local/app-backend:v3
    Limits:
      memory:  2048Mi
    Requests:
      memory:  1024Mi
`

func TestFixOOMKillsComputesNewLimit(t *testing.T) {
	fake := &fakeExecutor{handler: func(command []string) (*executor.Result, error) {
		switch command[1] {
		case "describe":
			return &executor.Result{Success: true, Output: describeWithLimit}, nil
		case "get":
			return &executor.Result{Success: true, Output: "backend"}, nil
		case "patch":
			return &executor.Result{Success: true, Output: "deployment.apps/app-backend patched"}, nil
		}
		t.Fatalf("unexpected command: %v", command)
		return nil, nil
	}}

	a := NewActions(fake, config.DefaultPolicy())
	results, err := a.FixOOMKills(context.Background(), []Target{{Namespace: "production", Deployment: "app-backend"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Status != types.StatusSuccess {
		t.Errorf("expected success, got %s (%s)", r.Status, r.Error)
	}
	if r.OldValue != "2048Mi" || r.NewValue != "3072Mi" {
		t.Errorf("expected 2048Mi -> 3072Mi, got %s -> %s", r.OldValue, r.NewValue)
	}

	// The strategic-merge patch must set both the new limit and the request
	// at 80% of it, keyed by the real container name.
	var patch string
	for _, call := range fake.calls {
		if call[1] == "patch" {
			patch = call[len(call)-1]
		}
	}
	for _, want := range []string{`"name":"backend"`, `"memory":"3072Mi"`, `"memory":"2457Mi"`} {
		if !strings.Contains(patch, want) {
			t.Errorf("patch missing %s: %s", want, patch)
		}
	}
}

func TestFixOOMKillsAssumesBaselineWhenLimitUnreadable(t *testing.T) {
	fake := &fakeExecutor{handler: func(command []string) (*executor.Result, error) {
		switch command[1] {
		case "describe":
			return &executor.Result{Success: false, Error: "forbidden"}, nil
		case "get":
			return &executor.Result{Success: false, Error: "forbidden"}, nil
		case "patch":
			return &executor.Result{Success: true}, nil
		}
		return &executor.Result{Success: true}, nil
	}}

	a := NewActions(fake, config.DefaultPolicy())
	results, err := a.FixOOMKills(context.Background(), []Target{{Namespace: "production", Deployment: "app-backend"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].OldValue != "2048Mi" || results[0].NewValue != "3072Mi" {
		t.Errorf("expected baseline fallback 2048Mi -> 3072Mi, got %s -> %s", results[0].OldValue, results[0].NewValue)
	}
}

func TestFixOOMKillsPerTargetFailure(t *testing.T) {
	fake := &fakeExecutor{handler: func(command []string) (*executor.Result, error) {
		if command[1] == "patch" && command[3] == "broken" {
			return &executor.Result{Success: false, Error: "patch rejected"}, nil
		}
		if command[1] == "describe" {
			return &executor.Result{Success: true, Output: describeWithLimit}, nil
		}
		return &executor.Result{Success: true, Output: "backend"}, nil
	}}

	a := NewActions(fake, config.DefaultPolicy())
	results, err := a.FixOOMKills(context.Background(), []Target{
		{Namespace: "production", Deployment: "broken"},
		{Namespace: "production", Deployment: "app-backend"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("one failed target must not block the other, got %d results", len(results))
	}
	if results[0].Status != types.StatusFailed || results[0].Error != "patch rejected" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Status != types.StatusSuccess {
		t.Errorf("unexpected second result: %+v", results[1])
	}
}

func TestFixOOMKillsExecutorUnavailable(t *testing.T) {
	fake := &fakeExecutor{handler: func([]string) (*executor.Result, error) {
		return nil, executor.ErrUnavailable
	}}

	a := NewActions(fake, config.DefaultPolicy())
	_, err := a.FixOOMKills(context.Background(), []Target{{Namespace: "p", Deployment: "d"}})
	if !errors.Is(err, executor.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable to propagate, got %v", err)
	}
}

func TestFixCrashLoopBackOffRolloutStates(t *testing.T) {
	fake := &fakeExecutor{handler: func(command []string) (*executor.Result, error) {
		if command[1] != "rollout" {
			t.Fatalf("unexpected command: %v", command)
		}
		deployment := command[3]
		switch command[2] {
		case "restart":
			if deployment == "deployment/wontstart" {
				return &executor.Result{Success: false, Error: "not found"}, nil
			}
			return &executor.Result{Success: true}, nil
		case "status":
			if deployment == "deployment/slow" {
				return &executor.Result{Success: false, Error: "timed out waiting for the condition"}, nil
			}
			return &executor.Result{Success: true, Output: `deployment "checkout" successfully rolled out`}, nil
		}
		return nil, nil
	}}

	a := NewActions(fake, config.DefaultPolicy())
	results, err := a.FixCrashLoopBackOff(context.Background(), []Target{
		{Namespace: "production", Deployment: "checkout"},
		{Namespace: "production", Deployment: "slow"},
		{Namespace: "production", Deployment: "wontstart"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status != types.StatusSuccess {
		t.Errorf("expected success for completed rollout, got %s", results[0].Status)
	}
	if results[1].Status != types.StatusInProgress {
		t.Errorf("a restart without a completed rollout is in_progress, got %s", results[1].Status)
	}
	if results[2].Status != types.StatusFailed {
		t.Errorf("expected failed for rejected restart, got %s", results[2].Status)
	}
}

func TestFixImagePullErrorsDeduplicatesDeployments(t *testing.T) {
	fake := &fakeExecutor{handler: func(command []string) (*executor.Result, error) {
		if command[1] == "get" {
			return &executor.Result{Success: true, Output: "registry.local/frontend:broken-tag"}, nil
		}
		return &executor.Result{Success: true}, nil
	}}

	a := NewActions(fake, config.DefaultPolicy())
	pods := []types.ErrorPod{
		{PodName: "frontend-5f4d5c6b7d-aaaaa", DeploymentName: "frontend", Namespace: "production", Status: "ImagePullBackOff"},
		{PodName: "frontend-5f4d5c6b7d-bbbbb", DeploymentName: "frontend", Namespace: "production", Status: "ImagePullBackOff"},
	}
	results, err := a.FixImagePullErrors(context.Background(), pods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result per deployment, got %d", len(results))
	}
	if results[0].OldValue != "registry.local/frontend:broken-tag" {
		t.Errorf("expected image recorded for audit, got %q", results[0].OldValue)
	}
	if results[0].Action != types.ActionImagePullRecovery {
		t.Errorf("unexpected action %s", results[0].Action)
	}
}
