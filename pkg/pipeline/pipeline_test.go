package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
	"github.com/SkySingh04/DreamOps-sub000/pkg/remediation"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// scriptedExecutor dispatches on the joined command string and records calls.
type scriptedExecutor struct {
	calls   []string
	handler func(cmd string) (*executor.Result, error)
}

func (s *scriptedExecutor) Execute(_ context.Context, command []string, _ bool) (*executor.Result, error) {
	cmd := strings.Join(command, " ")
	s.calls = append(s.calls, cmd)
	return s.handler(cmd)
}

// testPolicy removes the settle delay so tests run instantly.
func testPolicy() config.Policy {
	p := config.DefaultPolicy()
	p.SettleDelay = 0
	return p
}

func newTestPipeline(exec executor.Executor) *Pipeline {
	policy := testPolicy()
	return New(exec, remediation.NewActions(exec, policy), policy, nil)
}

const oomTopOutput = `NAMESPACE     NAME                            CPU(cores)   MEMORY(bytes)
production    app-backend-7d9f8b6c5-x2n4m     250m         1800Mi
production    quiet-6c8d9f7b5d-aaaaa          10m          100Mi
`

const emptyEvents = `{"items":[]}`

func oomScriptedExecutor(t *testing.T, patchResult *executor.Result) *scriptedExecutor {
	t.Helper()
	return &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl top pods"):
			return &executor.Result{Success: true, Output: oomTopOutput}, nil
		case strings.HasPrefix(cmd, "kubectl get events"):
			return &executor.Result{Success: true, Output: emptyEvents}, nil
		case strings.HasPrefix(cmd, "kubectl describe deployment"):
			return &executor.Result{Success: true, Output: "    Limits:\n      memory:  2048Mi\n"}, nil
		case strings.Contains(cmd, "containers[0].name"):
			return &executor.Result{Success: true, Output: "backend"}, nil
		case strings.HasPrefix(cmd, "kubectl patch deployment"):
			return patchResult, nil
		}
		t.Fatalf("unexpected command: %s", cmd)
		return nil, nil
	}}
}

func TestRunOOMKillEndToEnd(t *testing.T) {
	exec := oomScriptedExecutor(t, &executor.Result{Success: true, Output: "patched"})
	p := newTestPipeline(exec)

	report, err := p.Run(context.Background(), types.AlertOOMKill,
		types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Problems.HighMemoryPods) != 1 {
		t.Fatalf("expected 1 high-memory pod, got %d", len(report.Problems.HighMemoryPods))
	}
	if report.Problems.HighMemoryPods[0].DeploymentName != "app-backend" {
		t.Errorf("expected deployment app-backend, got %s", report.Problems.HighMemoryPods[0].DeploymentName)
	}

	if len(report.Remediations) != 1 {
		t.Fatalf("expected 1 remediation, got %d", len(report.Remediations))
	}
	r := report.Remediations[0]
	if r.Status != types.StatusSuccess || r.OldValue != "2048Mi" || r.NewValue != "3072Mi" {
		t.Errorf("unexpected remediation result: %+v", r)
	}

	if !report.Verification.Checked || !report.Verification.Fixed {
		t.Errorf("expected verification checked and fixed, got %+v", report.Verification)
	}
	if !report.Resolved {
		t.Error("expected incident resolved")
	}

	// Every stage must have left an audit entry.
	seen := map[string]bool{}
	for _, e := range report.ExecutionLog {
		seen[e.ActionType] = true
	}
	for _, want := range []string{types.LogDiagnostic, types.LogRemediation, types.LogVerification, types.LogResolution} {
		if !seen[want] {
			t.Errorf("execution log missing %s entries", want)
		}
	}
	if report.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestRunNeverResolvesWithoutRemediationSuccess(t *testing.T) {
	exec := oomScriptedExecutor(t, &executor.Result{Success: false, Error: "patch rejected"})
	p := newTestPipeline(exec)

	report, err := p.Run(context.Background(), types.AlertOOMKill,
		types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verification sees no recent OOM events, i.e. "fixed" — but with zero
	// successful remediations the incident must stay open.
	if !report.Verification.Fixed {
		t.Fatalf("test setup: verification should report fixed, got %+v", report.Verification)
	}
	if report.Resolved {
		t.Error("incident must not resolve with zero successful remediations")
	}
}

func TestRunSurvivesPartialDiagnosticFailure(t *testing.T) {
	ts := time.Now().UTC().Format(time.RFC3339)
	eventsWithOOM := `{"items":[{"involvedObject":{"kind":"Pod","name":"app-7d9f8b6c5-x2n4m","namespace":"production"},"reason":"OOMKilling","message":"killed","lastTimestamp":"` + ts + `","count":1}]}`

	verifyCalls := 0
	exec := &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl top pods"):
			return &executor.Result{Success: false, Error: "metrics server unavailable"}, nil
		case strings.HasPrefix(cmd, "kubectl get events"):
			verifyCalls++
			if verifyCalls > 1 {
				return &executor.Result{Success: true, Output: emptyEvents}, nil
			}
			return &executor.Result{Success: true, Output: eventsWithOOM}, nil
		case strings.HasPrefix(cmd, "kubectl describe deployment"):
			return &executor.Result{Success: true, Output: "memory: 1024Mi"}, nil
		case strings.Contains(cmd, "containers[0].name"):
			return &executor.Result{Success: true, Output: "app"}, nil
		case strings.HasPrefix(cmd, "kubectl patch deployment"):
			return &executor.Result{Success: true}, nil
		}
		return &executor.Result{Success: true}, nil
	}}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertOOMKill,
		types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("a failed diagnostic must not abort the pipeline: %v", err)
	}

	if len(report.Diagnostics) != 2 {
		t.Fatalf("expected both diagnostics recorded, got %d", len(report.Diagnostics))
	}
	if report.Diagnostics[0].Success {
		t.Error("expected first diagnostic to be recorded as failed")
	}
	if len(report.Problems.OOMDeployments) != 1 {
		t.Fatalf("expected problems from the surviving diagnostic, got %+v", report.Problems)
	}
	if len(report.Remediations) != 1 || report.Remediations[0].Status != types.StatusSuccess {
		t.Errorf("expected remediation from parsed events, got %+v", report.Remediations)
	}
	if report.Remediations[0].OldValue != "1024Mi" || report.Remediations[0].NewValue != "1536Mi" {
		t.Errorf("expected 1024Mi -> 1536Mi, got %s -> %s", report.Remediations[0].OldValue, report.Remediations[0].NewValue)
	}
	if !report.Resolved {
		t.Error("expected resolution after successful patch and clean re-check")
	}
}

// verifyEventsExecutor answers the OOM scenario but serves verifyOutput on
// every "get events" call after the diagnostic one.
func verifyEventsExecutor(t *testing.T, verifyOutput string) *scriptedExecutor {
	t.Helper()
	eventCalls := 0
	return &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl top pods"):
			return &executor.Result{Success: true, Output: oomTopOutput}, nil
		case strings.HasPrefix(cmd, "kubectl get events"):
			eventCalls++
			if eventCalls > 1 {
				return &executor.Result{Success: true, Output: verifyOutput}, nil
			}
			return &executor.Result{Success: true, Output: emptyEvents}, nil
		case strings.HasPrefix(cmd, "kubectl describe deployment"):
			return &executor.Result{Success: true, Output: "    Limits:\n      memory:  2048Mi\n"}, nil
		case strings.Contains(cmd, "containers[0].name"):
			return &executor.Result{Success: true, Output: "backend"}, nil
		case strings.HasPrefix(cmd, "kubectl patch deployment"):
			return &executor.Result{Success: true, Output: "patched"}, nil
		}
		t.Fatalf("unexpected command: %s", cmd)
		return nil, nil
	}}
}

func oomEventJSON(ts time.Time) string {
	return `{"items":[{"involvedObject":{"kind":"Pod","name":"app-backend-7d9f8b6c5-x2n4m","namespace":"production"},` +
		`"reason":"OOMKilling","message":"killed","lastTimestamp":"` + ts.UTC().Format(time.RFC3339) + `","count":1}]}`
}

func TestRunStaleOOMEventDoesNotBlockResolution(t *testing.T) {
	// An OOM kill from well before the event window is history, not a
	// recurrence. Verification must still count the incident as fixed.
	exec := verifyEventsExecutor(t, oomEventJSON(time.Now().Add(-10*time.Minute)))
	p := newTestPipeline(exec)

	report, err := p.Run(context.Background(), types.AlertOOMKill,
		types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Verification.Checked || !report.Verification.Fixed {
		t.Errorf("stale event must not block verification, got %+v", report.Verification)
	}
	if !report.Resolved {
		t.Error("expected resolution despite the stale historical event")
	}
}

func TestRunRecentOOMEventBlocksResolution(t *testing.T) {
	exec := verifyEventsExecutor(t, oomEventJSON(time.Now()))
	p := newTestPipeline(exec)

	report, err := p.Run(context.Background(), types.AlertOOMKill,
		types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Verification.Checked || report.Verification.Fixed {
		t.Errorf("fresh event must block verification, got %+v", report.Verification)
	}
	if report.Resolved {
		t.Error("incident must stay open while OOM kills keep arriving")
	}
}

func TestRunCPUThrottleParsesNamespacedTopListing(t *testing.T) {
	// "kubectl top pods -n <ns>" has no namespace column; the pods must
	// still be identified and attributed to the alert's namespace.
	exec := &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		if strings.HasPrefix(cmd, "kubectl top pods -n production") {
			out := "NAME                            CPU(cores)   MEMORY(bytes)\n" +
				"app-backend-7d9f8b6c5-x2n4m     900m         1800Mi\n"
			return &executor.Result{Success: true, Output: out}, nil
		}
		return &executor.Result{Success: true}, nil
	}}
	p := newTestPipeline(exec)

	report, err := p.Run(context.Background(), types.AlertCPUThrottle,
		types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Problems.HighMemoryPods) != 1 {
		t.Fatalf("expected 1 high-memory pod from namespaced listing, got %+v", report.Problems)
	}
	got := report.Problems.HighMemoryPods[0]
	if got.Namespace != "production" || got.DeploymentName != "app-backend" {
		t.Errorf("unexpected identification: %+v", got)
	}
}

func TestRunRecencyCheckProceedsFromAlertContext(t *testing.T) {
	// Cluster shows no symptoms anymore, but the alert names a pod: the
	// problem may have self-healed or rotated pods between alert-fire and
	// diagnosis, so remediation still proceeds.
	exec := &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl top pods"):
			return &executor.Result{Success: true, Output: "NAMESPACE NAME CPU(cores) MEMORY(bytes)\n"}, nil
		case strings.HasPrefix(cmd, "kubectl get events"):
			return &executor.Result{Success: true, Output: emptyEvents}, nil
		case strings.HasPrefix(cmd, "kubectl describe deployment app-backend"):
			return &executor.Result{Success: true, Output: "memory: 2048Mi"}, nil
		case strings.Contains(cmd, "containers[0].name"):
			return &executor.Result{Success: true, Output: "backend"}, nil
		case strings.HasPrefix(cmd, "kubectl patch deployment app-backend"):
			return &executor.Result{Success: true}, nil
		}
		return &executor.Result{Success: true}, nil
	}}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertOOMKill,
		types.AlertContext{Namespace: "production", PodName: "app-backend-7d9f8b6c5-x2n4m"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Remediations) != 1 {
		t.Fatalf("expected remediation of the alert-context deployment, got %d", len(report.Remediations))
	}
	if report.Remediations[0].Deployment != "app-backend" {
		t.Errorf("expected deployment derived from pod name, got %s", report.Remediations[0].Deployment)
	}
	if !report.Resolved {
		t.Error("expected resolution")
	}
}

func TestRunNothingToRemediate(t *testing.T) {
	exec := &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl top pods"):
			return &executor.Result{Success: true, Output: ""}, nil
		case strings.HasPrefix(cmd, "kubectl get events"):
			return &executor.Result{Success: true, Output: emptyEvents}, nil
		}
		t.Fatalf("unexpected command: %s", cmd)
		return nil, nil
	}}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertOOMKill, types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Remediations) != 0 {
		t.Errorf("expected no remediations, got %d", len(report.Remediations))
	}
	if report.Resolved {
		t.Error("must not resolve when nothing was remediated")
	}
	if report.Verification.RemediationAttempted {
		t.Error("verification must record that remediation was not attempted")
	}
	if len(report.ExecutionLog) == 0 {
		t.Error("expected an execution log even for a no-op run")
	}
}

func TestRunExecutorUnavailableIsFatal(t *testing.T) {
	exec := &scriptedExecutor{handler: func(string) (*executor.Result, error) {
		return nil, executor.ErrUnavailable
	}}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertOOMKill, types.AlertContext{Namespace: "production"}, nil)
	if err == nil {
		t.Fatal("expected a fatal error when the executor is unreachable")
	}
	if !errors.Is(err, executor.ErrUnavailable) {
		t.Errorf("expected error to wrap ErrUnavailable, got %v", err)
	}
	if !IsExecutorUnavailable(err) {
		t.Error("IsExecutorUnavailable must recognize the wrapped error")
	}
	if report == nil {
		t.Fatal("even a fatal run returns the partial report for audit")
	}
}

func TestRunPodCrashVerifiesReplicas(t *testing.T) {
	listing := `NAME                         READY   STATUS             RESTARTS   AGE
checkout-7d9f8b6c5-x2n4m     0/1     CrashLoopBackOff   12         1d
`
	exec := &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl get pods"):
			return &executor.Result{Success: true, Output: listing}, nil
		case strings.Contains(cmd, "rollout restart"):
			return &executor.Result{Success: true}, nil
		case strings.Contains(cmd, "rollout status"):
			return &executor.Result{Success: true, Output: `deployment "checkout" successfully rolled out`}, nil
		case strings.Contains(cmd, "readyReplicas"):
			return &executor.Result{Success: true, Output: "2 2"}, nil
		}
		t.Fatalf("unexpected command: %s", cmd)
		return nil, nil
	}}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertPodCrash, types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Remediations) != 1 || report.Remediations[0].Status != types.StatusSuccess {
		t.Fatalf("unexpected remediations: %+v", report.Remediations)
	}
	if !report.Verification.Checked || !report.Verification.Fixed {
		t.Errorf("expected replica verification to pass, got %+v", report.Verification)
	}
	if !report.Resolved {
		t.Error("expected resolution")
	}
}

func TestRunPodCrashUnreadyReplicasBlockResolution(t *testing.T) {
	listing := `NAME                         READY   STATUS             RESTARTS   AGE
checkout-7d9f8b6c5-x2n4m     0/1     CrashLoopBackOff   12         1d
`
	exec := &scriptedExecutor{handler: func(cmd string) (*executor.Result, error) {
		switch {
		case strings.HasPrefix(cmd, "kubectl get pods"):
			return &executor.Result{Success: true, Output: listing}, nil
		case strings.Contains(cmd, "rollout restart"):
			return &executor.Result{Success: true}, nil
		case strings.Contains(cmd, "rollout status"):
			return &executor.Result{Success: true, Output: `deployment "checkout" successfully rolled out`}, nil
		case strings.Contains(cmd, "readyReplicas"):
			return &executor.Result{Success: true, Output: "1 2"}, nil
		}
		return &executor.Result{Success: true}, nil
	}}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertPodCrash, types.AlertContext{Namespace: "production"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Verification.Fixed {
		t.Error("verification must not pass with unready replicas")
	}
	if report.Resolved {
		t.Error("a checked-and-failed verification must block resolution")
	}
}

func TestRunSuggestedCommandsCappedAndFiltered(t *testing.T) {
	exec := oomScriptedExecutor(t, &executor.Result{Success: true})
	base := exec.handler
	exec.handler = func(cmd string) (*executor.Result, error) {
		if strings.HasPrefix(cmd, "kubectl annotate") || strings.HasPrefix(cmd, "kubectl label") || strings.HasPrefix(cmd, "kubectl scale") || strings.HasPrefix(cmd, "kubectl cordon") {
			return &executor.Result{Success: true, Output: "done"}, nil
		}
		return base(cmd)
	}

	suggested := []string{
		"kubectl scale deployment app-backend -n production --replicas=3",
		"rm -rf /",                                     // unrecognized verb: skipped
		"kubectl patch deployment <DEPLOYMENT_NAME>",   // placeholder: skipped
		"kubectl annotate pod app-backend-x audited=1", // 2nd executed
		"kubectl label pod app-backend-x triaged=1",    // 3rd executed
		"kubectl cordon node-1",                        // over the cap of 3: skipped
	}

	p := newTestPipeline(exec)
	report, err := p.Run(context.Background(), types.AlertOOMKill, types.AlertContext{Namespace: "production"}, suggested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.SuggestedCommands) != 3 {
		t.Fatalf("expected exactly 3 suggested commands executed, got %d", len(report.SuggestedCommands))
	}
	for _, sc := range report.SuggestedCommands {
		if strings.Contains(sc.Command, "<") || strings.HasPrefix(sc.Command, "rm") || strings.Contains(sc.Command, "cordon") {
			t.Errorf("command should have been filtered: %s", sc.Command)
		}
	}
}

func TestDiagnoseOnly(t *testing.T) {
	exec := oomScriptedExecutor(t, &executor.Result{Success: true})
	p := newTestPipeline(exec)

	report, err := p.Diagnose(context.Background(), types.AlertOOMKill, types.AlertContext{Namespace: "production"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Problems.HighMemoryPods) != 1 {
		t.Errorf("expected problems identified, got %+v", report.Problems)
	}
	if len(report.Remediations) != 0 {
		t.Error("Diagnose must not remediate")
	}
	for _, cmd := range exec.calls {
		if strings.Contains(cmd, "patch") || strings.Contains(cmd, "rollout") {
			t.Errorf("Diagnose issued a mutating command: %s", cmd)
		}
	}
}
