package remediation

import (
	"context"
	"fmt"

	"github.com/SkySingh04/DreamOps-sub000/pkg/parser"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// FixOOMKills raises the memory limit of each target deployment by the policy
// percentage, setting the request to the configured share of the new limit,
// via a strategic-merge patch. One RemediationResult is emitted per target
// whether or not the patch succeeds; callers must not assume all-or-nothing.
// The returned error is non-nil only when the executor is unreachable.
func (a *Actions) FixOOMKills(ctx context.Context, targets []Target) ([]types.RemediationResult, error) {
	var results []types.RemediationResult

	for _, t := range targets {
		currentMi, err := a.currentMemoryLimit(ctx, t)
		if err != nil {
			return results, err
		}
		container, err := a.containerName(ctx, t)
		if err != nil {
			return results, err
		}

		newLimitMi := (currentMi*int64(100+a.policy.MemoryIncreasePct) + 50) / 100
		requestMi := newLimitMi * int64(a.policy.RequestPctOfLimit) / 100

		patch := fmt.Sprintf(
			`{"spec":{"template":{"spec":{"containers":[{"name":%q,"resources":{"limits":{"memory":%q},"requests":{"memory":%q}}}]}}}}`,
			container, parser.FormatMi(newLimitMi), parser.FormatMi(requestMi),
		)

		res, err := a.exec.Execute(ctx, []string{
			"kubectl", "patch", "deployment", t.Deployment, "-n", t.Namespace,
			"--type", "strategic", "-p", patch,
		}, true)
		if err != nil {
			return results, err
		}

		result := types.RemediationResult{
			Deployment: t.Deployment,
			Namespace:  t.Namespace,
			Action:     types.ActionIncreaseMemoryLimit,
			OldValue:   parser.FormatMi(currentMi),
			NewValue:   parser.FormatMi(newLimitMi),
		}
		if res.Success {
			result.Status = types.StatusSuccess
			result.Output = res.Output
		} else {
			result.Status = types.StatusFailed
			result.Error = res.Error
		}
		results = append(results, result)
	}

	return results, nil
}
