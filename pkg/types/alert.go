package types

// AlertType classifies an incoming incident and drives which
// diagnostics and remediations apply.
type AlertType string

const (
	AlertOOMKill     AlertType = "oom_kill"
	AlertPodCrash    AlertType = "pod_crash"
	AlertImagePull   AlertType = "image_pull"
	AlertCPUThrottle AlertType = "cpu_throttle"
	AlertServiceDown AlertType = "service_down"
	AlertUnknown     AlertType = "unknown"
)

// ParseAlertType maps a raw classification string to an AlertType.
func ParseAlertType(s string) AlertType {
	switch AlertType(s) {
	case AlertOOMKill, AlertPodCrash, AlertImagePull, AlertCPUThrottle, AlertServiceDown:
		return AlertType(s)
	default:
		return AlertUnknown
	}
}

// AlertContext carries the typed incident context handed to the pipeline by
// the alert ingestion layer. PodName and DeploymentName are optional: when the
// live cluster no longer shows symptoms they let the pipeline still target
// the resource the alert originally fired for.
type AlertContext struct {
	IncidentID     string            `json:"incident_id,omitempty"`
	Namespace      string            `json:"namespace"`
	PodName        string            `json:"pod_name,omitempty"`
	DeploymentName string            `json:"deployment_name,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
}
