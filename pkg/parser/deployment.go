package parser

import "strings"

// ExtractDeploymentFromPod derives a deployment name from a pod name by
// stripping the generated ReplicaSet-hash and pod-hash suffixes. It scans
// dash-separated segments from the end and takes everything before the
// earliest hex-looking segment in the suffix. This misfires on deployment
// names that themselves contain long hex-like tokens; that is a known limit
// of the heuristic, not something this function tries to repair.
func ExtractDeploymentFromPod(podName string) string {
	segments := strings.Split(podName, "-")
	boundary := -1
	for i := len(segments) - 1; i >= 1; i-- {
		if looksLikeHash(segments[i]) {
			boundary = i
		}
	}
	if boundary >= 1 {
		return strings.Join(segments[:boundary], "-")
	}

	// No hash-like segment found: strip exactly the last two segments.
	if len(segments) > 2 {
		return strings.Join(segments[:len(segments)-2], "-")
	}
	return podName
}

// looksLikeHash reports whether a segment resembles a generated hash: at
// least 5 characters, all hex digits.
func looksLikeHash(s string) bool {
	if len(s) < 5 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
