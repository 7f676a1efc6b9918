package tools

import (
	"context"
	"log/slog"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// DiagnoseIncidentTool runs diagnostics and problem identification only,
// without touching any workload.
type DiagnoseIncidentTool struct {
	BaseTool
}

func (t *DiagnoseIncidentTool) Name() string { return "diagnose_incident" }

func (t *DiagnoseIncidentTool) Description() string {
	return "Run read-only diagnostics for a Kubernetes incident and return the identified problems (high-memory pods, OOM-affected deployments, pods in error states) without remediating anything"
}

func (t *DiagnoseIncidentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"alert_type": map[string]interface{}{
				"type":        "string",
				"description": "Incident classification: oom_kill, pod_crash, image_pull, cpu_throttle, or service_down",
			},
			"namespace": map[string]interface{}{
				"type":        "string",
				"description": "Kubernetes namespace to diagnose",
			},
		},
		"required": []string{"alert_type", "namespace"},
	}
}

func (t *DiagnoseIncidentTool) Run(ctx context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
	rawType, _ := args["alert_type"].(string)
	namespace, _ := args["namespace"].(string)
	if namespace == "" {
		return nil, &types.PipelineError{
			Code:    types.ErrCodeInvalidContext,
			Message: "namespace is required",
		}
	}

	alertType := types.ParseAlertType(rawType)
	slog.Info("running diagnostics", "alertType", alertType, "namespace", namespace)

	report, err := t.Pipeline.Diagnose(ctx, alertType, types.AlertContext{Namespace: namespace})
	if err != nil {
		return nil, err
	}

	return types.NewStandardResponse(t.ClusterMeta(), t.Name(), report), nil
}
