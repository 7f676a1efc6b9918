package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// PlaybookSkill recommends the diagnostic and remediation command sequence
// for an alert type, with concrete resource names filled in when known.
type PlaybookSkill struct {
	Cfg *config.Config
}

func (s *PlaybookSkill) Definition() SkillDefinition {
	return SkillDefinition{
		Name:        "incident_playbook",
		Description: "Return the recommended kubectl command sequence for diagnosing and remediating an incident of the given alert type",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"alert_type": map[string]interface{}{
					"type":        "string",
					"description": "Incident classification: oom_kill, pod_crash, image_pull, cpu_throttle, or service_down",
				},
				"namespace": map[string]interface{}{
					"type":        "string",
					"description": "Kubernetes namespace (optional)",
				},
				"deployment": map[string]interface{}{
					"type":        "string",
					"description": "Affected deployment, if known (optional)",
				},
			},
			"required": []string{"alert_type"},
		},
	}
}

type playbook struct {
	AlertType    string   `json:"alertType"`
	Diagnostics  []string `json:"diagnostics"`
	Remediations []string `json:"remediations"`
	Verification []string `json:"verification"`
	Notes        []string `json:"notes,omitempty"`
}

func (s *PlaybookSkill) Execute(_ context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
	rawType, _ := args["alert_type"].(string)
	namespace, _ := args["namespace"].(string)
	deployment, _ := args["deployment"].(string)

	if namespace == "" {
		namespace = "default"
	}
	if deployment == "" {
		deployment = "<DEPLOYMENT_NAME>"
	}

	alertType := types.ParseAlertType(rawType)
	pb := buildPlaybook(alertType, namespace, deployment, s.Cfg.Policy)

	return types.NewStandardResponse(s.Cfg.ClusterMetadata(), "incident_playbook", &SkillResult{
		Skill:          "incident_playbook",
		Recommendation: pb,
	}), nil
}

func buildPlaybook(alertType types.AlertType, namespace, deployment string, policy config.Policy) *playbook {
	pb := &playbook{AlertType: string(alertType)}
	restart := fmt.Sprintf("kubectl rollout restart deployment/%s -n %s", deployment, namespace)
	status := fmt.Sprintf("kubectl rollout status deployment/%s -n %s --timeout=%ds",
		deployment, namespace, int(policy.RolloutTimeout.Seconds()))

	switch alertType {
	case types.AlertOOMKill:
		pb.Diagnostics = []string{
			"kubectl top pods --all-namespaces",
			"kubectl get events --all-namespaces --field-selector reason=OOMKilling -o json",
			fmt.Sprintf("kubectl describe deployment %s -n %s", deployment, namespace),
		}
		pb.Remediations = []string{
			fmt.Sprintf("kubectl patch deployment %s -n %s --type strategic -p '<memory limit patch>'", deployment, namespace),
		}
		pb.Verification = []string{
			"kubectl get events --all-namespaces --field-selector reason=OOMKilling -o json",
		}
		pb.Notes = append(pb.Notes, fmt.Sprintf(
			"raise the memory limit by %d%% and set the request to %d%% of the new limit",
			policy.MemoryIncreasePct, policy.RequestPctOfLimit))
	case types.AlertPodCrash:
		pb.Diagnostics = []string{
			fmt.Sprintf("kubectl get pods -n %s", namespace),
			fmt.Sprintf("kubectl logs deployment/%s -n %s --previous", deployment, namespace),
		}
		pb.Remediations = []string{restart, status}
		pb.Verification = []string{
			fmt.Sprintf("kubectl get deployment %s -n %s -o jsonpath='{.status.readyReplicas} {.spec.replicas}'", deployment, namespace),
		}
	case types.AlertImagePull:
		pb.Diagnostics = []string{
			fmt.Sprintf("kubectl get pods -n %s", namespace),
			fmt.Sprintf("kubectl get deployment %s -n %s -o jsonpath='{.spec.template.spec.containers[0].image}'", deployment, namespace),
		}
		pb.Remediations = []string{restart}
		pb.Verification = []string{
			fmt.Sprintf("kubectl get deployment %s -n %s -o jsonpath='{.status.readyReplicas} {.spec.replicas}'", deployment, namespace),
		}
		pb.Notes = append(pb.Notes, "verify the image tag exists in the registry before restarting")
	case types.AlertServiceDown:
		pb.Diagnostics = []string{
			fmt.Sprintf("kubectl get pods -n %s", namespace),
			fmt.Sprintf("kubectl get endpoints -n %s", namespace),
		}
		pb.Remediations = []string{restart, status}
		pb.Verification = []string{
			fmt.Sprintf("kubectl get endpoints -n %s", namespace),
		}
	case types.AlertCPUThrottle:
		pb.Diagnostics = []string{
			fmt.Sprintf("kubectl top pods -n %s", namespace),
			fmt.Sprintf("kubectl describe deployment %s -n %s", deployment, namespace),
		}
		pb.Remediations = []string{
			fmt.Sprintf("kubectl patch deployment %s -n %s --type strategic -p '<cpu limit patch>'", deployment, namespace),
		}
		pb.Verification = []string{
			fmt.Sprintf("kubectl top pods -n %s", namespace),
		}
	default:
		pb.Diagnostics = []string{
			fmt.Sprintf("kubectl get pods -n %s", namespace),
			fmt.Sprintf("kubectl get events -n %s --sort-by=.lastTimestamp", namespace),
		}
		pb.Notes = append(pb.Notes, "unrecognized alert type; start with the generic diagnostics and classify manually")
	}

	if strings.Contains(deployment, "<") {
		pb.Notes = append(pb.Notes, "replace <DEPLOYMENT_NAME> with the affected deployment before running remediation commands")
	}
	return pb
}
