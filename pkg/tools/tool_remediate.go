package tools

import (
	"context"
	"log/slog"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// RemediateIncidentTool runs the full diagnose-remediate-verify pipeline for
// one incident and returns the complete run report.
type RemediateIncidentTool struct {
	BaseTool
}

func (t *RemediateIncidentTool) Name() string { return "remediate_incident" }

func (t *RemediateIncidentTool) Description() string {
	return "Diagnose a Kubernetes incident, apply the matching remediation (memory limit increase, rolling restart, image pull recovery), verify the fix, and report whether the incident is resolved"
}

func (t *RemediateIncidentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"alert_type": map[string]interface{}{
				"type":        "string",
				"description": "Incident classification: oom_kill, pod_crash, image_pull, cpu_throttle, or service_down",
			},
			"namespace": map[string]interface{}{
				"type":        "string",
				"description": "Kubernetes namespace the incident fired in",
			},
			"incident_id": map[string]interface{}{
				"type":        "string",
				"description": "Upstream incident identifier, echoed back in the report (optional)",
			},
			"pod": map[string]interface{}{
				"type":        "string",
				"description": "Pod named by the alert (optional — used as a remediation target when live symptoms are gone)",
			},
			"deployment": map[string]interface{}{
				"type":        "string",
				"description": "Deployment named by the alert (optional)",
			},
			"suggested_commands": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Additional kubectl commands to run after remediation (optional, best-effort, capped)",
			},
		},
		"required": []string{"alert_type", "namespace"},
	}
}

func (t *RemediateIncidentTool) Run(ctx context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
	rawType, _ := args["alert_type"].(string)
	namespace, _ := args["namespace"].(string)
	if namespace == "" {
		return nil, &types.PipelineError{
			Code:    types.ErrCodeInvalidContext,
			Message: "namespace is required",
		}
	}

	alertType := types.ParseAlertType(rawType)
	if alertType == types.AlertUnknown && rawType != string(types.AlertUnknown) {
		slog.Warn("unrecognized alert type, proceeding with generic diagnostics", "alertType", rawType)
	}

	alertCtx := types.AlertContext{Namespace: namespace}
	alertCtx.IncidentID, _ = args["incident_id"].(string)
	alertCtx.PodName, _ = args["pod"].(string)
	alertCtx.DeploymentName, _ = args["deployment"].(string)

	var suggested []string
	if raw, ok := args["suggested_commands"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				suggested = append(suggested, s)
			}
		}
	}

	slog.Info("running remediation pipeline",
		"alertType", alertType, "namespace", namespace, "incidentID", alertCtx.IncidentID)

	report, err := t.Pipeline.Run(ctx, alertType, alertCtx, suggested)
	if err != nil {
		return nil, err
	}

	return types.NewStandardResponse(t.ClusterMeta(), t.Name(), report), nil
}
