package remediation

import (
	"context"
	"fmt"
	"strings"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// FixCrashLoopBackOff rolling-restarts each target deployment and then polls
// rollout status with a bounded timeout. A restart command succeeding does
// not by itself mean fixed: the result is in_progress unless the rollout
// completes within the timeout.
func (a *Actions) FixCrashLoopBackOff(ctx context.Context, targets []Target) ([]types.RemediationResult, error) {
	var results []types.RemediationResult

	for _, t := range targets {
		result := types.RemediationResult{
			Deployment: t.Deployment,
			Namespace:  t.Namespace,
			Action:     types.ActionRollingRestart,
		}

		restart, err := a.exec.Execute(ctx, []string{
			"kubectl", "rollout", "restart", "deployment/" + t.Deployment, "-n", t.Namespace,
		}, true)
		if err != nil {
			return results, err
		}
		if !restart.Success {
			result.Status = types.StatusFailed
			result.Error = restart.Error
			results = append(results, result)
			continue
		}

		status, err := a.exec.Execute(ctx, []string{
			"kubectl", "rollout", "status", "deployment/" + t.Deployment, "-n", t.Namespace,
			fmt.Sprintf("--timeout=%ds", int(a.policy.RolloutTimeout.Seconds())),
		}, true)
		if err != nil {
			return results, err
		}

		if status.Success && strings.Contains(status.Output, "successfully rolled out") {
			result.Status = types.StatusSuccess
			result.Output = status.Output
		} else {
			result.Status = types.StatusInProgress
			result.Output = status.Output
			result.Error = status.Error
		}
		results = append(results, result)
	}

	return results, nil
}
