package parser

import (
	"sort"
	"strings"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// ParseMemoryUsage parses a tabular resource-usage listing as printed by
// "kubectl top pods" and returns the pods whose memory usage exceeds
// thresholdPct of the assumed baselineMi limit. Both the all-namespaces form
// (NAMESPACE, NAME, CPU, MEMORY) and the single-namespace form (NAME, CPU,
// MEMORY) are accepted; defaultNamespace fills in the latter. The baseline is
// a heuristic, not the pod's configured limit. Results are sorted by usage,
// highest first.
func ParseMemoryUsage(text, defaultNamespace string, baselineMi int64, thresholdPct int) []types.HighMemoryPod {
	if baselineMi <= 0 || thresholdPct <= 0 {
		return nil
	}
	thresholdMi := baselineMi * int64(thresholdPct) / 100

	var pods []types.HighMemoryPod
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if fields[0] == "NAMESPACE" || fields[0] == "NAME" {
			continue // header
		}

		ns, name, usage := defaultNamespace, fields[0], fields[2]
		if len(fields) >= 4 {
			ns, name, usage = fields[0], fields[1], fields[3]
		}

		usageMi, ok := MemoryToMi(usage)
		if !ok || usageMi <= thresholdMi {
			continue
		}

		pods = append(pods, types.HighMemoryPod{
			Namespace:      ns,
			PodName:        name,
			DeploymentName: ExtractDeploymentFromPod(name),
			MemoryUsageMi:  usageMi,
			PercentOfLimit: int(usageMi * 100 / baselineMi),
		})
	}

	sort.SliceStable(pods, func(i, j int) bool {
		return pods[i].MemoryUsageMi > pods[j].MemoryUsageMi
	})
	return pods
}
