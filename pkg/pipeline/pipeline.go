// Package pipeline drives the end-to-end remediation sequence for one
// incident: diagnose, identify, remediate, verify, resolve. Each invocation
// is self-contained and stateless, so different incidents may run
// concurrently; serializing remediation of the same deployment is the
// caller's job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
	"github.com/SkySingh04/DreamOps-sub000/pkg/notifier"
	"github.com/SkySingh04/DreamOps-sub000/pkg/parser"
	"github.com/SkySingh04/DreamOps-sub000/pkg/remediation"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// Pipeline runs one bounded remediation attempt per incident.
type Pipeline struct {
	exec     executor.Executor
	actions  *remediation.Actions
	policy   config.Policy
	notifier notifier.Notifier
}

// New creates a pipeline. The notifier may be nil when the caller handles
// resolution reporting itself.
func New(exec executor.Executor, actions *remediation.Actions, policy config.Policy, n notifier.Notifier) *Pipeline {
	return &Pipeline{exec: exec, actions: actions, policy: policy, notifier: n}
}

// Run executes the five-stage sequence for one incident and returns the full
// report. Per-command and per-target failures are captured in the report and
// never abort the run; the only error returned is executor unavailability,
// which wraps executor.ErrUnavailable.
func (p *Pipeline) Run(ctx context.Context, alertType types.AlertType, alertCtx types.AlertContext, suggested []string) (*types.PipelineReport, error) {
	report := &types.PipelineReport{
		RunID:     uuid.NewString(),
		AlertType: alertType,
		Context:   alertCtx,
		StartedAt: time.Now().UTC(),
	}

	slog.InfoContext(ctx, "starting remediation pipeline",
		"runID", report.RunID, "alertType", alertType, "namespace", alertCtx.Namespace)

	// Stage 1: diagnose.
	if err := p.diagnose(ctx, report); err != nil {
		return report, err
	}

	// Stage 2: identify.
	p.identify(report)

	// Stage 3: recency check. Absence of live symptoms is not proof the
	// problem is gone: pods rotate and OOM kills self-heal between alert-fire
	// and diagnosis. An alert that names a concrete resource still proceeds.
	proceed := !report.Problems.Empty()
	if !proceed && (alertCtx.PodName != "" || alertCtx.DeploymentName != "") {
		proceed = true
		p.logf(report, types.LogDiagnostic,
			"no live symptoms found, but alert names %s; treating problem as recent and proceeding",
			namedResource(alertCtx))
	}

	if !proceed {
		p.logf(report, types.LogRemediation, "no problems identified and no resource named by the alert; nothing to remediate")
		report.Verification = types.VerificationResult{Checked: false, RemediationAttempted: false}
		p.resolve(ctx, report)
		return report, nil
	}

	// Stage 4: remediate.
	if err := p.remediate(ctx, report, suggested); err != nil {
		return report, err
	}

	// Stage 5: verify.
	if err := p.verify(ctx, report); err != nil {
		return report, err
	}

	// Stage 6: resolve.
	p.resolve(ctx, report)
	return report, nil
}

// Diagnose runs only the diagnostic and identification stages, for callers
// that want cluster findings without touching anything.
func (p *Pipeline) Diagnose(ctx context.Context, alertType types.AlertType, alertCtx types.AlertContext) (*types.PipelineReport, error) {
	report := &types.PipelineReport{
		RunID:     uuid.NewString(),
		AlertType: alertType,
		Context:   alertCtx,
		StartedAt: time.Now().UTC(),
	}
	if err := p.diagnose(ctx, report); err != nil {
		return report, err
	}
	p.identify(report)
	report.CompletedAt = time.Now().UTC()
	return report, nil
}

// diagnosticCommands selects the diagnostic set for an alert type.
func (p *Pipeline) diagnosticCommands(alertType types.AlertType, alertCtx types.AlertContext) [][]string {
	ns := alertCtx.Namespace
	if ns == "" {
		ns = "default"
	}

	switch alertType {
	case types.AlertOOMKill:
		return [][]string{
			{"kubectl", "top", "pods", "--all-namespaces"},
			oomEventsQuery(),
		}
	case types.AlertCPUThrottle:
		return [][]string{
			{"kubectl", "top", "pods", "-n", ns},
		}
	case types.AlertServiceDown:
		return [][]string{
			{"kubectl", "get", "pods", "-n", ns},
			{"kubectl", "get", "endpoints", "-n", ns},
		}
	default: // pod_crash, image_pull, unknown
		return [][]string{
			{"kubectl", "get", "pods", "-n", ns},
		}
	}
}

func oomEventsQuery() []string {
	return []string{"kubectl", "get", "events", "--all-namespaces", "--field-selector", "reason=OOMKilling", "-o", "json"}
}

func (p *Pipeline) diagnose(ctx context.Context, report *types.PipelineReport) error {
	for _, command := range p.diagnosticCommands(report.AlertType, report.Context) {
		res, err := p.exec.Execute(ctx, command, true)
		if err != nil {
			p.logf(report, types.LogDiagnostic, "executor unreachable while running %v: %v", command, err)
			return fmt.Errorf("diagnostics aborted: %w", err)
		}

		dr := types.DiagnosticResult{Command: command, Success: res.Success, Output: res.Output, Error: res.Error}
		report.Diagnostics = append(report.Diagnostics, dr)

		if res.Success {
			p.logf(report, types.LogDiagnostic, "ran %v (%d bytes of output)", command, len(res.Output))
		} else {
			p.logf(report, types.LogDiagnostic, "diagnostic %v failed: %s; continuing with remaining diagnostics", command, res.Error)
		}
	}
	return nil
}

// identify parses successful diagnostic output into structured problem
// records. Parse failures yield empty results, never abort.
func (p *Pipeline) identify(report *types.PipelineReport) {
	ns := report.Context.Namespace
	for _, d := range report.Diagnostics {
		if !d.Success || len(d.Command) < 3 {
			continue
		}
		switch {
		case d.Command[1] == "top":
			report.Problems.HighMemoryPods = append(report.Problems.HighMemoryPods,
				parser.ParseMemoryUsage(d.Output, ns, p.policy.BaselineMemoryMi, p.policy.HighMemoryThresholdPct)...)
		case d.Command[1] == "get" && d.Command[2] == "events":
			report.Problems.OOMDeployments = append(report.Problems.OOMDeployments,
				parser.ParseOOMEvents(d.Output)...)
		case d.Command[1] == "get" && d.Command[2] == "pods":
			report.Problems.ErrorPods = append(report.Problems.ErrorPods,
				parser.ParseErrorPods(d.Output, ns)...)
		}
	}

	p.logf(report, types.LogDiagnostic, "identified %d high-memory pods, %d OOM-affected deployments, %d error pods",
		len(report.Problems.HighMemoryPods), len(report.Problems.OOMDeployments), len(report.Problems.ErrorPods))
}

func (p *Pipeline) remediate(ctx context.Context, report *types.PipelineReport, suggested []string) error {
	targets, source := p.remediationTargets(report, suggested)
	if len(targets) == 0 {
		p.logf(report, types.LogRemediation, "no remediation targets could be determined")
	} else {
		p.logf(report, types.LogRemediation, "remediating %d target(s) from %s", len(targets), source)

		var (
			results []types.RemediationResult
			err     error
		)
		switch report.AlertType {
		case types.AlertOOMKill:
			results, err = p.actions.FixOOMKills(ctx, targets)
		case types.AlertImagePull:
			results, err = p.actions.FixImagePullErrors(ctx, imagePullPods(report, targets))
		default:
			// pod_crash and everything else actionable: a rolling restart is
			// the generic corrective.
			results, err = p.actions.FixCrashLoopBackOff(ctx, targets)
		}
		report.Remediations = append(report.Remediations, results...)
		for _, r := range results {
			p.logf(report, types.LogRemediation, "%s on %s/%s: %s", r.Action, r.Namespace, r.Deployment, r.Status)
		}
		if err != nil {
			return fmt.Errorf("remediation aborted: %w", err)
		}
	}

	return p.runSuggestedCommands(ctx, report, suggested)
}

// remediationTargets prefers structured problem records; the alert context
// and free-text suggested commands are last resorts.
func (p *Pipeline) remediationTargets(report *types.PipelineReport, suggested []string) ([]remediation.Target, string) {
	seen := make(map[string]bool)
	var targets []remediation.Target
	add := func(ns, deployment string) {
		if deployment == "" {
			return
		}
		if ns == "" {
			ns = "default"
		}
		key := ns + "/" + deployment
		if !seen[key] {
			seen[key] = true
			targets = append(targets, remediation.Target{Namespace: ns, Deployment: deployment})
		}
	}

	for _, d := range report.Problems.OOMDeployments {
		add(d.Namespace, d.DeploymentName)
	}
	for _, pod := range relevantErrorPods(report) {
		add(pod.Namespace, pod.DeploymentName)
	}
	if report.AlertType == types.AlertOOMKill {
		for _, pod := range report.Problems.HighMemoryPods {
			add(pod.Namespace, pod.DeploymentName)
		}
	}
	if len(targets) > 0 {
		return targets, "structured problem records"
	}

	alertCtx := report.Context
	if alertCtx.DeploymentName != "" {
		add(alertCtx.Namespace, alertCtx.DeploymentName)
		return targets, "alert context"
	}
	if alertCtx.PodName != "" {
		add(alertCtx.Namespace, parser.ExtractDeploymentFromPod(alertCtx.PodName))
		return targets, "alert context pod name"
	}

	for _, s := range suggested {
		if t, ok := ExtractTarget(s, alertCtx.Namespace); ok {
			add(t.Namespace, t.Deployment)
		}
	}
	if len(targets) > 0 {
		return targets, "suggested command extraction"
	}
	return nil, ""
}

// relevantErrorPods filters identified error pods down to the statuses the
// current alert type acts on.
func relevantErrorPods(report *types.PipelineReport) []types.ErrorPod {
	var out []types.ErrorPod
	for _, pod := range report.Problems.ErrorPods {
		switch report.AlertType {
		case types.AlertImagePull:
			if pod.Status == "ImagePullBackOff" {
				out = append(out, pod)
			}
		case types.AlertOOMKill:
			if pod.Status == "OOMKilled" {
				out = append(out, pod)
			}
		default:
			out = append(out, pod)
		}
	}
	return out
}

// imagePullPods reconstructs the ErrorPod shape FixImagePullErrors expects,
// covering fallback targets that never had a structured record.
func imagePullPods(report *types.PipelineReport, targets []remediation.Target) []types.ErrorPod {
	byKey := make(map[string]types.ErrorPod)
	for _, pod := range report.Problems.ErrorPods {
		if pod.Status == "ImagePullBackOff" {
			byKey[pod.Namespace+"/"+pod.DeploymentName] = pod
		}
	}

	var pods []types.ErrorPod
	for _, t := range targets {
		if pod, ok := byKey[t.Namespace+"/"+t.Deployment]; ok {
			pods = append(pods, pod)
			continue
		}
		pods = append(pods, types.ErrorPod{
			DeploymentName: t.Deployment,
			Namespace:      t.Namespace,
			Status:         "ImagePullBackOff",
		})
	}
	return pods
}

// runSuggestedCommands opportunistically executes caller-supplied command
// strings that are complete, placeholder-free, and use a recognized verb.
// Best-effort: failures are recorded, never fatal to the run, except when
// the executor itself is gone.
func (p *Pipeline) runSuggestedCommands(ctx context.Context, report *types.PipelineReport, suggested []string) error {
	executed := 0
	for _, s := range suggested {
		if executed >= p.policy.MaxSuggestedCommands {
			break
		}
		fields, ok := executableSuggestion(s)
		if !ok {
			continue
		}

		res, err := p.exec.Execute(ctx, fields, true)
		if err != nil {
			return fmt.Errorf("suggested command aborted: %w", err)
		}
		executed++

		report.SuggestedCommands = append(report.SuggestedCommands, types.SuggestedCommandResult{
			Command: s,
			Success: res.Success,
			Output:  res.Output,
			Error:   res.Error,
		})
		if res.Success {
			p.logf(report, types.LogRemediation, "executed suggested command %q", s)
		} else {
			p.logf(report, types.LogRemediation, "suggested command %q failed: %s", s, res.Error)
		}
	}
	return nil
}

// resolve applies the resolution rule: an incident is never resolved without
// at least one successful remediation action, regardless of verification
// output. With a success in hand, a verification that ran and says "fixed"
// resolves; a verification that could not run falls back to trusting the
// successful remediation.
func (p *Pipeline) resolve(ctx context.Context, report *types.PipelineReport) {
	successes := report.SuccessfulRemediations()

	switch {
	case successes == 0:
		report.Resolved = false
		p.logf(report, types.LogResolution, "not resolving: no remediation action succeeded")
	case report.Verification.Checked && report.Verification.Fixed:
		report.Resolved = true
		p.logf(report, types.LogResolution, "resolving: %d remediation(s) succeeded and verification confirms the fix", successes)
	case report.Verification.Checked:
		report.Resolved = false
		p.logf(report, types.LogResolution, "not resolving: verification still sees symptoms despite %d successful remediation(s)", successes)
	default:
		report.Resolved = report.Verification.RemediationAttempted
		if report.Resolved {
			p.logf(report, types.LogResolution, "resolving: verification inconclusive, trusting %d successful remediation(s)", successes)
		} else {
			p.logf(report, types.LogResolution, "not resolving: verification inconclusive and no remediation attempted")
		}
	}

	report.CompletedAt = time.Now().UTC()

	if p.notifier != nil {
		if err := p.notifier.NotifyResolution(ctx, report); err != nil {
			slog.WarnContext(ctx, "resolution notification failed", "runID", report.RunID, "error", err)
		}
	}
}

// settle blocks for the policy grace period so cluster state can stabilize
// before re-diagnosing, honoring context cancellation.
func (p *Pipeline) settle(ctx context.Context) {
	if p.policy.SettleDelay <= 0 {
		return
	}
	select {
	case <-time.After(p.policy.SettleDelay):
	case <-ctx.Done():
	}
}

func (p *Pipeline) logf(report *types.PipelineReport, actionType, format string, args ...interface{}) {
	report.ExecutionLog = append(report.ExecutionLog, types.ExecutionLogEntry{
		Timestamp:   time.Now().UTC(),
		ActionType:  actionType,
		Description: fmt.Sprintf(format, args...),
	})
}

func namedResource(alertCtx types.AlertContext) string {
	if alertCtx.PodName != "" {
		return "pod " + alertCtx.PodName
	}
	return "deployment " + alertCtx.DeploymentName
}

// IsExecutorUnavailable reports whether err is the fatal
// infrastructure-unavailable condition.
func IsExecutorUnavailable(err error) bool {
	return errors.Is(err, executor.ErrUnavailable)
}
