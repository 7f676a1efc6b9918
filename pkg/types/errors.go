package types

import "fmt"

// Error code constants.
const (
	ErrCodeExecutorUnavailable = "EXECUTOR_UNAVAILABLE"
	ErrCodeUnknownAlertType    = "UNKNOWN_ALERT_TYPE"
	ErrCodeInvalidContext      = "INVALID_CONTEXT"
)

// PipelineError is a structured error surfaced to the tool layer. Per-target
// command and remediation failures are reported inside the PipelineReport
// instead; only conditions that prevent a run from proceeding use this type.
type PipelineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}
