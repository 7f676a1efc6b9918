package types

import "time"

// HighMemoryPod is a pod whose memory usage exceeds the configured share of
// the assumed baseline limit. MemoryUsageMi is normalized to Mi regardless of
// the unit the diagnostic output used.
type HighMemoryPod struct {
	Namespace      string `json:"namespace"`
	PodName        string `json:"pod_name"`
	DeploymentName string `json:"deployment_name"`
	MemoryUsageMi  int64  `json:"memory_usage_mi"`
	// PercentOfLimit is usage relative to the assumed baseline limit, not the
	// pod's actual configured limit.
	PercentOfLimit int `json:"percentage_of_assumed_limit"`
}

// OOMAffectedDeployment aggregates OOM kill events per deployment. Repeated
// kills of the same deployment collapse into one record with the count summed.
type OOMAffectedDeployment struct {
	Namespace       string    `json:"namespace"`
	PodName         string    `json:"pod_name"`
	DeploymentName  string    `json:"deployment_name"`
	EventTime       time.Time `json:"event_time,omitempty"`
	Message         string    `json:"message,omitempty"`
	OccurrenceCount int       `json:"occurrence_count"`
}

// ErrorPod is a pod in a known-bad status (CrashLoopBackOff,
// ImagePullBackOff, Error, OOMKilled, Evicted).
type ErrorPod struct {
	PodName        string `json:"pod_name"`
	DeploymentName string `json:"deployment_name"`
	Namespace      string `json:"namespace"`
	Status         string `json:"status"`
	RestartCount   int    `json:"restart_count"`
}

// Problems groups every structured problem record identified during one
// pipeline run.
type Problems struct {
	HighMemoryPods []HighMemoryPod         `json:"high_memory_pods,omitempty"`
	OOMDeployments []OOMAffectedDeployment `json:"oom_deployments,omitempty"`
	ErrorPods      []ErrorPod              `json:"error_pods,omitempty"`
}

// Empty reports whether no problem records were identified.
func (p Problems) Empty() bool {
	return len(p.HighMemoryPods) == 0 && len(p.OOMDeployments) == 0 && len(p.ErrorPods) == 0
}
