package pipeline

import (
	"regexp"
	"strings"

	"github.com/SkySingh04/DreamOps-sub000/pkg/remediation"
)

var (
	deploymentArgRe = regexp.MustCompile(`deployment(?:s)?[/ ]([a-z0-9][a-z0-9.-]*)`)
	namespaceArgRe  = regexp.MustCompile(`(?:-n|--namespace)[= ]([a-z0-9][a-z0-9-]*)`)
)

// ExtractTarget pulls a deployment name and namespace out of a free-text
// suggested command string. This is a best-effort last resort for when no
// structured problem data exists; the boolean return makes "nothing found"
// explicit instead of handing back an empty target. Strings still containing
// template placeholders (<...>) never match.
func ExtractTarget(command, defaultNamespace string) (remediation.Target, bool) {
	if strings.Contains(command, "<") || strings.Contains(command, ">") {
		return remediation.Target{}, false
	}

	m := deploymentArgRe.FindStringSubmatch(command)
	if m == nil {
		return remediation.Target{}, false
	}

	ns := defaultNamespace
	if nm := namespaceArgRe.FindStringSubmatch(command); nm != nil {
		ns = nm[1]
	}
	if ns == "" {
		ns = "default"
	}

	return remediation.Target{Namespace: ns, Deployment: m[1]}, true
}

// executableSuggestion reports whether a caller-supplied command string is a
// complete, placeholder-free command with a recognized verb, safe to run
// opportunistically.
func executableSuggestion(command string) ([]string, bool) {
	if strings.Contains(command, "<") || strings.Contains(command, ">") {
		return nil, false
	}
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return nil, false
	}
	if fields[0] != "kubectl" && fields[0] != "k" {
		return nil, false
	}
	return fields, true
}
