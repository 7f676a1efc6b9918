// Package remediation translates structured problem records into concrete
// fix commands issued through the injected command executor. Actions are
// transport-agnostic and share no mutable state, so they are safe to call
// concurrently for disjoint deployments.
package remediation

import (
	"context"
	"regexp"
	"strings"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
	"github.com/SkySingh04/DreamOps-sub000/pkg/parser"
)

// Target identifies one deployment to remediate.
type Target struct {
	Namespace  string
	Deployment string
}

// Actions issues fix commands through the executor under the given policy.
type Actions struct {
	exec   executor.Executor
	policy config.Policy
}

// NewActions creates the remediation action set.
func NewActions(exec executor.Executor, policy config.Policy) *Actions {
	return &Actions{exec: exec, policy: policy}
}

var memoryLimitRe = regexp.MustCompile(`memory:\s*([0-9]+(?:Gi|Mi|Ki|G|M|K)?)`)

// currentMemoryLimit reads a deployment's configured memory limit via a
// describe-style command, extracting the first "memory:" occurrence. When the
// command fails or no limit is present, the policy baseline is assumed.
// The returned error is non-nil only for executor unavailability.
func (a *Actions) currentMemoryLimit(ctx context.Context, t Target) (int64, error) {
	res, err := a.exec.Execute(ctx, []string{"kubectl", "describe", "deployment", t.Deployment, "-n", t.Namespace}, true)
	if err != nil {
		return 0, err
	}
	if res.Success {
		if m := memoryLimitRe.FindStringSubmatch(res.Output); m != nil {
			if mi, ok := parser.MemoryToMi(m[1]); ok && mi > 0 {
				return mi, nil
			}
		}
	}
	return a.policy.BaselineMemoryMi, nil
}

// containerName resolves the first container of a deployment for use in
// strategic-merge patches. Falls back to the deployment name, the common
// convention, when the lookup fails.
func (a *Actions) containerName(ctx context.Context, t Target) (string, error) {
	res, err := a.exec.Execute(ctx, []string{
		"kubectl", "get", "deployment", t.Deployment, "-n", t.Namespace,
		"-o", "jsonpath={.spec.template.spec.containers[0].name}",
	}, true)
	if err != nil {
		return "", err
	}
	if res.Success {
		if name := strings.TrimSpace(res.Output); name != "" {
			return name, nil
		}
	}
	return t.Deployment, nil
}

// currentImage reads the first container's image reference, for audit only.
func (a *Actions) currentImage(ctx context.Context, t Target) (string, error) {
	res, err := a.exec.Execute(ctx, []string{
		"kubectl", "get", "deployment", t.Deployment, "-n", t.Namespace,
		"-o", "jsonpath={.spec.template.spec.containers[0].image}",
	}, true)
	if err != nil {
		return "", err
	}
	if res.Success {
		return strings.TrimSpace(res.Output), nil
	}
	return "", nil
}
