package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// errorStatuses are the pod statuses treated as actionable problems.
var errorStatuses = map[string]bool{
	"CrashLoopBackOff": true,
	"ImagePullBackOff": true,
	"Error":            true,
	"OOMKilled":        true,
	"Evicted":          true,
}

var readyColumnRe = regexp.MustCompile(`^\d+/\d+$`)

// ParseErrorPods parses a tabular pod-status listing ("kubectl get pods",
// with or without a leading NAMESPACE column) and returns the pods in a
// known-bad status. defaultNamespace fills in listings without a namespace
// column.
func ParseErrorPods(text, defaultNamespace string) []types.ErrorPod {
	var pods []types.ErrorPod

	nsColumn := false
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if fields[0] == "NAMESPACE" {
			nsColumn = true
			continue
		}
		if fields[0] == "NAME" {
			nsColumn = false
			continue
		}

		offset := 0
		ns := defaultNamespace
		if nsColumn {
			offset = 1
			ns = fields[0]
		}
		if len(fields) < offset+4 || !readyColumnRe.MatchString(fields[offset+1]) {
			continue
		}

		status := fields[offset+2]
		if !errorStatuses[status] {
			continue
		}

		restarts := 0
		if n, err := strconv.Atoi(fields[offset+3]); err == nil {
			restarts = n
		}

		pods = append(pods, types.ErrorPod{
			PodName:        fields[offset],
			DeploymentName: ExtractDeploymentFromPod(fields[offset]),
			Namespace:      ns,
			Status:         status,
			RestartCount:   restarts,
		})
	}
	return pods
}
