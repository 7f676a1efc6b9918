package parser

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

var (
	podRefRe    = regexp.MustCompile(`pod/([a-z0-9][a-z0-9.-]*)`)
	namespaceRe = regexp.MustCompile(`(?:namespace|ns)[=:\s]+([a-z0-9][a-z0-9-]*)`)
)

// eventItem is the subset of a Kubernetes event we inspect.
type eventItem struct {
	InvolvedObject struct {
		Kind      string `json:"kind"`
		Name      string `json:"name"`
		Namespace string `json:"namespace"`
	} `json:"involvedObject"`
	Reason        string    `json:"reason"`
	Message       string    `json:"message"`
	LastTimestamp time.Time `json:"lastTimestamp"`
	EventTime     time.Time `json:"eventTime"`
	Count         int       `json:"count"`
}

type eventList struct {
	Items []eventItem `json:"items"`
}

// ParseOOMEvents extracts OOM-affected deployments from an event listing.
// Structured event JSON is tried first; free text falls back to scanning for
// OOMKilling/OOMKilled markers with a pod/<name> reference. Repeated kills of
// the same (namespace, deployment) collapse into one record with occurrence
// counts summed.
func ParseOOMEvents(raw string) []types.OOMAffectedDeployment {
	byTarget := make(map[string]*types.OOMAffectedDeployment)

	if items, ok := decodeEvents(raw); ok {
		for _, item := range items {
			if !isOOMEvent(item.Reason, item.Message) {
				continue
			}
			pod := item.InvolvedObject.Name
			if item.InvolvedObject.Kind != "" && item.InvolvedObject.Kind != "Pod" {
				pod = podFromText(item.Message)
			}
			if pod == "" {
				pod = podFromText(item.Message)
			}
			if pod == "" {
				continue
			}
			count := item.Count
			if count <= 0 {
				count = 1
			}
			ts := item.LastTimestamp
			if ts.IsZero() {
				ts = item.EventTime
			}
			addOccurrence(byTarget, item.InvolvedObject.Namespace, pod, item.Message, ts, count)
		}
	} else {
		for _, line := range strings.Split(raw, "\n") {
			if !strings.Contains(line, "OOMKilling") && !strings.Contains(line, "OOMKilled") {
				continue
			}
			pod := podFromText(line)
			if pod == "" {
				continue
			}
			ns := ""
			if m := namespaceRe.FindStringSubmatch(line); m != nil {
				ns = m[1]
			}
			addOccurrence(byTarget, ns, pod, strings.TrimSpace(line), time.Time{}, 1)
		}
	}

	out := make([]types.OOMAffectedDeployment, 0, len(byTarget))
	for _, rec := range byTarget {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].DeploymentName < out[j].DeploymentName
	})
	return out
}

// decodeEvents accepts either a full EventList or a bare event array.
func decodeEvents(raw string) ([]eventItem, bool) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var list eventList
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return list.Items, true
		}
		return nil, false
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []eventItem
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			return items, true
		}
	}
	return nil, false
}

func isOOMEvent(reason, message string) bool {
	return strings.Contains(reason, "OOM") ||
		strings.Contains(message, "OOMKilling") ||
		strings.Contains(message, "OOMKilled")
}

func podFromText(s string) string {
	if m := podRefRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func addOccurrence(byTarget map[string]*types.OOMAffectedDeployment, namespace, pod, message string, ts time.Time, count int) {
	if namespace == "" {
		namespace = "default"
	}
	deployment := ExtractDeploymentFromPod(pod)
	key := namespace + "/" + deployment

	rec, ok := byTarget[key]
	if !ok {
		byTarget[key] = &types.OOMAffectedDeployment{
			Namespace:       namespace,
			PodName:         pod,
			DeploymentName:  deployment,
			EventTime:       ts,
			Message:         message,
			OccurrenceCount: count,
		}
		return
	}

	rec.OccurrenceCount += count
	if ts.After(rec.EventTime) {
		rec.EventTime = ts
		rec.PodName = pod
		rec.Message = message
	}
}
