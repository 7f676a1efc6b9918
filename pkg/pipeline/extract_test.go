package pipeline

import "testing"

func TestExtractTarget(t *testing.T) {
	tests := []struct {
		name             string
		command          string
		defaultNamespace string
		wantNamespace    string
		wantDeployment   string
		wantOK           bool
	}{
		{
			name:           "slash form with namespace flag",
			command:        "kubectl rollout restart deployment/payments -n production",
			wantNamespace:  "production",
			wantDeployment: "payments",
			wantOK:         true,
		},
		{
			name:           "space form with long namespace flag",
			command:        "kubectl patch deployment checkout --namespace staging -p '{}'",
			wantNamespace:  "staging",
			wantDeployment: "checkout",
			wantOK:         true,
		},
		{
			name:           "equals-joined namespace flag",
			command:        "kubectl scale deployments/api --namespace=prod --replicas=3",
			wantNamespace:  "prod",
			wantDeployment: "api",
			wantOK:         true,
		},
		{
			name:             "falls back to caller namespace",
			command:          "kubectl rollout restart deployment/payments",
			defaultNamespace: "team-a",
			wantNamespace:    "team-a",
			wantDeployment:   "payments",
			wantOK:           true,
		},
		{
			name:           "no namespace anywhere defaults",
			command:        "kubectl rollout restart deployment/payments",
			wantNamespace:  "default",
			wantDeployment: "payments",
			wantOK:         true,
		},
		{
			name:    "placeholder rejected",
			command: "kubectl rollout restart deployment/<DEPLOYMENT_NAME> -n production",
			wantOK:  false,
		},
		{
			name:    "no deployment reference",
			command: "kubectl get pods -n production",
			wantOK:  false,
		},
		{
			name:    "empty string",
			command: "",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := ExtractTarget(tt.command, tt.defaultNamespace)
			if ok != tt.wantOK {
				t.Fatalf("ok = %t, want %t", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if target.Namespace != tt.wantNamespace || target.Deployment != tt.wantDeployment {
				t.Errorf("got %s/%s, want %s/%s", target.Namespace, target.Deployment, tt.wantNamespace, tt.wantDeployment)
			}
		})
	}
}

func TestExecutableSuggestion(t *testing.T) {
	tests := []struct {
		command string
		wantOK  bool
	}{
		{"kubectl rollout restart deployment/payments -n prod", true},
		{"k get pods -n prod", true},
		{"kubectl", false},                          // verb only, incomplete
		{"rm -rf /tmp/scratch", false},              // not a kubectl invocation
		{"kubectl delete pod <POD_NAME>", false},    // unfilled placeholder
		{"helm upgrade payments ./chart", false},    // unrecognized tool
		{"", false},
	}

	for _, tt := range tests {
		fields, ok := executableSuggestion(tt.command)
		if ok != tt.wantOK {
			t.Errorf("executableSuggestion(%q) ok = %t, want %t", tt.command, ok, tt.wantOK)
		}
		if ok && len(fields) < 2 {
			t.Errorf("executableSuggestion(%q) returned short field list %v", tt.command, fields)
		}
	}
}
