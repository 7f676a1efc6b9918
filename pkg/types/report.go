package types

import "time"

// Remediation action names.
const (
	ActionIncreaseMemoryLimit = "increase_memory_limit"
	ActionRollingRestart      = "rolling_restart"
	ActionImagePullRecovery   = "image_pull_recovery"
)

// Remediation result statuses.
const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusInProgress = "in_progress"
)

// DiagnosticResult is the raw outcome of one diagnostic command. Ephemeral:
// produced and consumed within a single pipeline run.
type DiagnosticResult struct {
	Command []string `json:"command"`
	Success bool     `json:"success"`
	Output  string   `json:"output,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RemediationResult records one fix attempt against one target. Immutable
// once created; the pipeline appends, never mutates.
type RemediationResult struct {
	Deployment string `json:"deployment"`
	Namespace  string `json:"namespace"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value,omitempty"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
}

// VerificationResult records the post-remediation re-check.
type VerificationResult struct {
	Checked              bool     `json:"checked"`
	Fixed                bool     `json:"fixed"`
	Details              []string `json:"details,omitempty"`
	RemediationAttempted bool     `json:"remediation_attempted"`
}

// Execution log action types.
const (
	LogDiagnostic   = "DIAGNOSTIC"
	LogRemediation  = "REMEDIATION"
	LogVerification = "VERIFICATION"
	LogResolution   = "RESOLUTION"
)

// ExecutionLogEntry is one line of the append-only audit trail owned by the
// pipeline for the lifetime of one incident run.
type ExecutionLogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
}

// SuggestedCommandResult captures the opportunistic execution of one
// caller-supplied command string.
type SuggestedCommandResult struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PipelineReport is the sole return value of one pipeline run. The caller
// owns it; no shared mutable state survives across incidents.
type PipelineReport struct {
	RunID             string                   `json:"run_id"`
	AlertType         AlertType                `json:"alert_type"`
	Context           AlertContext             `json:"context"`
	StartedAt         time.Time                `json:"started_at"`
	CompletedAt       time.Time                `json:"completed_at"`
	Diagnostics       []DiagnosticResult       `json:"diagnostics"`
	Problems          Problems                 `json:"problems"`
	Remediations      []RemediationResult      `json:"remediations"`
	SuggestedCommands []SuggestedCommandResult `json:"suggested_commands,omitempty"`
	Verification      VerificationResult       `json:"verification"`
	Resolved          bool                     `json:"incident_resolved"`
	ExecutionLog      []ExecutionLogEntry      `json:"execution_log"`
}

// SuccessfulRemediations counts remediation results with status success.
func (r *PipelineReport) SuccessfulRemediations() int {
	n := 0
	for _, rem := range r.Remediations {
		if rem.Status == StatusSuccess {
			n++
		}
	}
	return n
}
