package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SkySingh04/DreamOps-sub000/pkg/parser"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// verify waits out the settle delay, then re-checks cluster state with a
// targeted query for the alert type. Verification failures are recorded as
// inconclusive, never fatal, except executor unavailability.
func (p *Pipeline) verify(ctx context.Context, report *types.PipelineReport) error {
	p.settle(ctx)

	v := types.VerificationResult{
		RemediationAttempted: len(report.Remediations) > 0,
	}

	var err error
	switch report.AlertType {
	case types.AlertOOMKill:
		err = p.verifyOOMKill(ctx, &v)
	case types.AlertPodCrash, types.AlertImagePull:
		err = p.verifyReplicasReady(ctx, report, &v)
	default:
		v.Details = append(v.Details, fmt.Sprintf("no targeted verification defined for alert type %s", report.AlertType))
	}
	if err != nil {
		p.logf(report, types.LogVerification, "executor unreachable during verification: %v", err)
		report.Verification = v
		return fmt.Errorf("verification aborted: %w", err)
	}

	report.Verification = v
	p.logf(report, types.LogVerification, "verification checked=%t fixed=%t: %s",
		v.Checked, v.Fixed, strings.Join(v.Details, "; "))
	return nil
}

// verifyOOMKill re-queries OOM events and counts only those inside the
// recency window. Stale historical events must not block resolution.
func (p *Pipeline) verifyOOMKill(ctx context.Context, v *types.VerificationResult) error {
	res, err := p.exec.Execute(ctx, oomEventsQuery(), true)
	if err != nil {
		return err
	}
	if !res.Success {
		v.Details = append(v.Details, "verification query failed: "+res.Error)
		return nil
	}

	cutoff := time.Now().UTC().Add(-p.policy.EventWindow)
	recent := 0
	for _, rec := range parser.ParseOOMEvents(res.Output) {
		if rec.EventTime.After(cutoff) {
			recent++
			v.Details = append(v.Details, fmt.Sprintf("recent OOM event for %s/%s (%d occurrence(s))",
				rec.Namespace, rec.DeploymentName, rec.OccurrenceCount))
		}
	}

	v.Checked = true
	v.Fixed = recent == 0
	if v.Fixed {
		v.Details = append(v.Details, fmt.Sprintf("no OOM events within the last %s", p.policy.EventWindow))
	}
	return nil
}

// verifyReplicasReady checks readyReplicas == desiredReplicas for every
// remediated deployment.
func (p *Pipeline) verifyReplicasReady(ctx context.Context, report *types.PipelineReport, v *types.VerificationResult) error {
	if len(report.Remediations) == 0 {
		v.Details = append(v.Details, "nothing was remediated; skipping replica check")
		return nil
	}

	allReady := true
	checkedAny := false
	for _, r := range report.Remediations {
		res, err := p.exec.Execute(ctx, []string{
			"kubectl", "get", "deployment", r.Deployment, "-n", r.Namespace,
			"-o", "jsonpath={.status.readyReplicas} {.spec.replicas}",
		}, true)
		if err != nil {
			return err
		}
		if !res.Success {
			v.Details = append(v.Details, fmt.Sprintf("could not check %s/%s: %s", r.Namespace, r.Deployment, res.Error))
			allReady = false
			continue
		}

		ready, desired, ok := parseReplicaCounts(res.Output)
		if !ok {
			v.Details = append(v.Details, fmt.Sprintf("unparseable replica status for %s/%s: %q", r.Namespace, r.Deployment, res.Output))
			allReady = false
			continue
		}

		checkedAny = true
		if ready == desired {
			v.Details = append(v.Details, fmt.Sprintf("%s/%s: %d/%d replicas ready", r.Namespace, r.Deployment, ready, desired))
		} else {
			v.Details = append(v.Details, fmt.Sprintf("%s/%s: only %d/%d replicas ready", r.Namespace, r.Deployment, ready, desired))
			allReady = false
		}
	}

	v.Checked = checkedAny
	v.Fixed = checkedAny && allReady
	return nil
}

// parseReplicaCounts parses "ready desired" as printed by the jsonpath
// template. A missing readyReplicas field (no ready pods yet) renders as an
// empty first token and counts as zero.
func parseReplicaCounts(out string) (ready, desired int, ok bool) {
	fields := strings.Fields(strings.TrimSpace(out))
	switch len(fields) {
	case 1:
		d, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, false
		}
		return 0, d, true
	case 2:
		r, err1 := strconv.Atoi(fields[0])
		d, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return r, d, true
	default:
		return 0, 0, false
	}
}
