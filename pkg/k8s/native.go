package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8stypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/duration"

	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
)

const defaultRolloutTimeout = 30 * time.Second

// NativeExecutor serves the kubectl-shaped commands the pipeline issues
// directly from the Kubernetes API, so parsing and remediation logic stay
// identical across executor modes. Commands outside the supported surface
// fail cleanly rather than guessing.
type NativeExecutor struct {
	clients *Clients
}

// NewNativeExecutor wraps the given clients as a command executor.
func NewNativeExecutor(clients *Clients) *NativeExecutor {
	return &NativeExecutor{clients: clients}
}

// nativeCommand is one parsed kubectl-style invocation.
type nativeCommand struct {
	args          []string
	namespace     string
	allNamespaces bool
	fieldSelector string
	output        string
	patch         string
	patchType     string
	timeout       time.Duration
}

// Execute implements executor.Executor. Command failures and unsupported
// commands come back as failed Results; only API connectivity loss is
// returned as an error, wrapping executor.ErrUnavailable.
func (n *NativeExecutor) Execute(ctx context.Context, command []string, _ bool) (*executor.Result, error) {
	cmd, err := parseNativeCommand(command)
	if err != nil {
		return fail("%v", err), nil
	}

	switch cmd.args[0] {
	case "top":
		if len(cmd.args) >= 2 && (cmd.args[1] == "pods" || cmd.args[1] == "pod") {
			return n.topPods(ctx, cmd)
		}
	case "get":
		if len(cmd.args) >= 2 {
			switch cmd.args[1] {
			case "events":
				return n.getEvents(ctx, cmd)
			case "pods", "pod":
				return n.getPods(ctx, cmd)
			case "endpoints":
				return n.getEndpoints(ctx, cmd)
			case "deployment", "deployments":
				return n.getDeployment(ctx, cmd)
			}
		}
	case "describe":
		if len(cmd.args) >= 3 && (cmd.args[1] == "deployment" || cmd.args[1] == "deployments") {
			return n.describeDeployment(ctx, cmd.namespace, cmd.args[2])
		}
	case "patch":
		if len(cmd.args) >= 3 && cmd.args[1] == "deployment" {
			return n.patchDeployment(ctx, cmd, cmd.args[2])
		}
	case "rollout":
		if len(cmd.args) >= 3 {
			name, ok := deploymentRef(cmd.args[2:])
			if !ok {
				return fail("rollout target must be a deployment, got %v", cmd.args[2:]), nil
			}
			switch cmd.args[1] {
			case "restart":
				return n.rolloutRestart(ctx, cmd.namespace, name)
			case "status":
				return n.rolloutStatus(ctx, cmd, name)
			}
		}
	}

	return fail("command not supported in native executor mode: %s", strings.Join(command, " ")), nil
}

// parseNativeCommand splits a kubectl-style token list into positional args
// and the flags the supported surface uses.
func parseNativeCommand(command []string) (*nativeCommand, error) {
	cmd := &nativeCommand{namespace: "default", timeout: defaultRolloutTimeout}

	tokens := command
	if len(tokens) > 0 && (tokens[0] == "kubectl" || tokens[0] == "k") {
		tokens = tokens[1:]
	}

	consume := func(i int, flag string) (string, int, error) {
		if name, value, found := strings.Cut(tokens[i], "="); found && name == flag {
			return value, i, nil
		}
		if i+1 >= len(tokens) {
			return "", i, fmt.Errorf("flag %s requires a value", flag)
		}
		return tokens[i+1], i + 1, nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		flag, _, _ := strings.Cut(tok, "=")
		var (
			value string
			err   error
		)
		switch flag {
		case "-n", "--namespace":
			value, i, err = consume(i, flag)
			cmd.namespace = value
		case "-A", "--all-namespaces":
			cmd.allNamespaces = true
		case "--field-selector":
			value, i, err = consume(i, flag)
			cmd.fieldSelector = value
		case "-o", "--output":
			value, i, err = consume(i, flag)
			cmd.output = value
		case "-p", "--patch":
			value, i, err = consume(i, flag)
			cmd.patch = value
		case "--type":
			value, i, err = consume(i, flag)
			cmd.patchType = value
		case "--timeout":
			value, i, err = consume(i, flag)
			if err == nil {
				cmd.timeout, err = time.ParseDuration(value)
			}
		default:
			if strings.HasPrefix(tok, "-") {
				return nil, fmt.Errorf("unsupported flag %s", tok)
			}
			cmd.args = append(cmd.args, tok)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(cmd.args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return cmd, nil
}

// deploymentRef accepts both "deployment/name" and "deployment name" forms.
func deploymentRef(args []string) (string, bool) {
	if kind, name, found := strings.Cut(args[0], "/"); found {
		if kind == "deployment" || kind == "deployments" || kind == "deploy" {
			return name, true
		}
		return "", false
	}
	if (args[0] == "deployment" || args[0] == "deployments" || args[0] == "deploy") && len(args) >= 2 {
		return args[1], true
	}
	return "", false
}

func (n *NativeExecutor) topPods(ctx context.Context, cmd *nativeCommand) (*executor.Result, error) {
	ns := cmd.namespace
	if cmd.allNamespaces {
		ns = metav1.NamespaceAll
	}
	list, err := n.clients.Metrics.MetricsV1beta1().PodMetricses(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return apiFailure(err)
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	if cmd.allNamespaces {
		fmt.Fprintln(w, "NAMESPACE\tNAME\tCPU(cores)\tMEMORY(bytes)")
	} else {
		fmt.Fprintln(w, "NAME\tCPU(cores)\tMEMORY(bytes)")
	}
	for _, pm := range list.Items {
		var cpuMilli, memBytes int64
		for _, c := range pm.Containers {
			cpuMilli += c.Usage.Cpu().MilliValue()
			memBytes += c.Usage.Memory().Value()
		}
		memMi := memBytes / (1024 * 1024)
		if cmd.allNamespaces {
			fmt.Fprintf(w, "%s\t%s\t%dm\t%dMi\n", pm.Namespace, pm.Name, cpuMilli, memMi)
		} else {
			fmt.Fprintf(w, "%s\t%dm\t%dMi\n", pm.Name, cpuMilli, memMi)
		}
	}
	w.Flush()
	return &executor.Result{Success: true, Output: sb.String()}, nil
}

func (n *NativeExecutor) getEvents(ctx context.Context, cmd *nativeCommand) (*executor.Result, error) {
	ns := cmd.namespace
	if cmd.allNamespaces {
		ns = metav1.NamespaceAll
	}
	list, err := n.clients.Clientset.CoreV1().Events(ns).List(ctx, metav1.ListOptions{
		FieldSelector: cmd.fieldSelector,
	})
	if err != nil {
		return apiFailure(err)
	}

	if cmd.output == "json" {
		raw, err := json.Marshal(list)
		if err != nil {
			return fail("encoding events: %v", err), nil
		}
		return &executor.Result{Success: true, Output: string(raw)}, nil
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tLAST SEEN\tTYPE\tREASON\tOBJECT\tMESSAGE")
	for _, ev := range list.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s/%s\t%s\n",
			ev.Namespace, age(ev.LastTimestamp.Time), ev.Type, ev.Reason,
			strings.ToLower(ev.InvolvedObject.Kind), ev.InvolvedObject.Name, ev.Message)
	}
	w.Flush()
	return &executor.Result{Success: true, Output: sb.String()}, nil
}

func (n *NativeExecutor) getPods(ctx context.Context, cmd *nativeCommand) (*executor.Result, error) {
	ns := cmd.namespace
	if cmd.allNamespaces {
		ns = metav1.NamespaceAll
	}
	list, err := n.clients.Clientset.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return apiFailure(err)
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	if cmd.allNamespaces {
		fmt.Fprintln(w, "NAMESPACE\tNAME\tREADY\tSTATUS\tRESTARTS\tAGE")
	} else {
		fmt.Fprintln(w, "NAME\tREADY\tSTATUS\tRESTARTS\tAGE")
	}
	for _, pod := range list.Items {
		ready := 0
		restarts := int32(0)
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.Ready {
				ready++
			}
			restarts += cs.RestartCount
		}
		row := fmt.Sprintf("%s\t%d/%d\t%s\t%d\t%s",
			pod.Name, ready, len(pod.Spec.Containers), podStatus(&pod), restarts, age(pod.CreationTimestamp.Time))
		if cmd.allNamespaces {
			row = pod.Namespace + "\t" + row
		}
		fmt.Fprintln(w, row)
	}
	w.Flush()
	return &executor.Result{Success: true, Output: sb.String()}, nil
}

// podStatus reports the most specific state a pod is in, preferring waiting
// and terminated reasons (CrashLoopBackOff, ImagePullBackOff, OOMKilled) over
// the coarse phase.
func podStatus(pod *corev1.Pod) string {
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
		if cs.State.Terminated != nil && cs.State.Terminated.Reason != "" {
			return cs.State.Terminated.Reason
		}
	}
	if pod.Status.Reason != "" {
		return pod.Status.Reason
	}
	return string(pod.Status.Phase)
}

func (n *NativeExecutor) getEndpoints(ctx context.Context, cmd *nativeCommand) (*executor.Result, error) {
	list, err := n.clients.Clientset.CoreV1().Endpoints(cmd.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return apiFailure(err)
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tENDPOINTS\tAGE")
	for _, ep := range list.Items {
		var addrs []string
		for _, subset := range ep.Subsets {
			for _, addr := range subset.Addresses {
				for _, port := range subset.Ports {
					addrs = append(addrs, fmt.Sprintf("%s:%d", addr.IP, port.Port))
				}
			}
		}
		endpoints := "<none>"
		if len(addrs) > 0 {
			endpoints = strings.Join(addrs, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ep.Name, endpoints, age(ep.CreationTimestamp.Time))
	}
	w.Flush()
	return &executor.Result{Success: true, Output: sb.String()}, nil
}

func (n *NativeExecutor) getDeployment(ctx context.Context, cmd *nativeCommand) (*executor.Result, error) {
	if len(cmd.args) < 3 {
		return fail("get deployment requires a name"), nil
	}
	dep, err := n.clients.Clientset.AppsV1().Deployments(cmd.namespace).Get(ctx, cmd.args[2], metav1.GetOptions{})
	if err != nil {
		return apiFailure(err)
	}

	tmpl := strings.TrimPrefix(cmd.output, "jsonpath=")
	if tmpl == cmd.output {
		return fail("get deployment supports jsonpath output only"), nil
	}

	switch {
	case strings.Contains(tmpl, ".spec.template.spec.containers[0].name"):
		if len(dep.Spec.Template.Spec.Containers) == 0 {
			return &executor.Result{Success: true, Output: ""}, nil
		}
		return &executor.Result{Success: true, Output: dep.Spec.Template.Spec.Containers[0].Name}, nil
	case strings.Contains(tmpl, ".spec.template.spec.containers[0].image"):
		if len(dep.Spec.Template.Spec.Containers) == 0 {
			return &executor.Result{Success: true, Output: ""}, nil
		}
		return &executor.Result{Success: true, Output: dep.Spec.Template.Spec.Containers[0].Image}, nil
	case strings.Contains(tmpl, ".status.readyReplicas") && strings.Contains(tmpl, ".spec.replicas"):
		desired := int32(1)
		if dep.Spec.Replicas != nil {
			desired = *dep.Spec.Replicas
		}
		return &executor.Result{Success: true, Output: fmt.Sprintf("%d %d", dep.Status.ReadyReplicas, desired)}, nil
	}
	return fail("unsupported jsonpath template %q", tmpl), nil
}

func (n *NativeExecutor) describeDeployment(ctx context.Context, namespace, name string) (*executor.Result, error) {
	dep, err := n.clients.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return apiFailure(err)
	}

	desired := int32(1)
	if dep.Spec.Replicas != nil {
		desired = *dep.Spec.Replicas
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:               %s\n", dep.Name)
	fmt.Fprintf(&sb, "Namespace:          %s\n", dep.Namespace)
	fmt.Fprintf(&sb, "Replicas:           %d desired | %d updated | %d total | %d available | %d unavailable\n",
		desired, dep.Status.UpdatedReplicas, dep.Status.Replicas, dep.Status.AvailableReplicas, dep.Status.UnavailableReplicas)
	sb.WriteString("Pod Template:\n  Containers:\n")
	for _, c := range dep.Spec.Template.Spec.Containers {
		fmt.Fprintf(&sb, "   %s:\n", c.Name)
		fmt.Fprintf(&sb, "    Image:      %s\n", c.Image)
		if len(c.Resources.Limits) > 0 {
			sb.WriteString("    Limits:\n")
			if v, ok := c.Resources.Limits[corev1.ResourceCPU]; ok {
				fmt.Fprintf(&sb, "      cpu:     %s\n", v.String())
			}
			if v, ok := c.Resources.Limits[corev1.ResourceMemory]; ok {
				fmt.Fprintf(&sb, "      memory:  %s\n", v.String())
			}
		}
		if len(c.Resources.Requests) > 0 {
			sb.WriteString("    Requests:\n")
			if v, ok := c.Resources.Requests[corev1.ResourceCPU]; ok {
				fmt.Fprintf(&sb, "      cpu:     %s\n", v.String())
			}
			if v, ok := c.Resources.Requests[corev1.ResourceMemory]; ok {
				fmt.Fprintf(&sb, "      memory:  %s\n", v.String())
			}
		}
	}
	return &executor.Result{Success: true, Output: sb.String()}, nil
}

func (n *NativeExecutor) patchDeployment(ctx context.Context, cmd *nativeCommand, name string) (*executor.Result, error) {
	if cmd.patch == "" {
		return fail("patch deployment requires -p"), nil
	}

	var patchType k8stypes.PatchType
	switch cmd.patchType {
	case "", "strategic":
		patchType = k8stypes.StrategicMergePatchType
	case "merge":
		patchType = k8stypes.MergePatchType
	case "json":
		patchType = k8stypes.JSONPatchType
	default:
		return fail("unsupported patch type %q", cmd.patchType), nil
	}

	_, err := n.clients.Clientset.AppsV1().Deployments(cmd.namespace).Patch(
		ctx, name, patchType, []byte(cmd.patch), metav1.PatchOptions{})
	if err != nil {
		return apiFailure(err)
	}
	return &executor.Result{Success: true, Output: fmt.Sprintf("deployment.apps/%s patched", name)}, nil
}

// rolloutRestart triggers a rolling restart the same way kubectl does, by
// bumping the restartedAt annotation on the pod template.
func (n *NativeExecutor) rolloutRestart(ctx context.Context, namespace, name string) (*executor.Result, error) {
	patch := fmt.Sprintf(
		`{"spec":{"template":{"metadata":{"annotations":{"kubectl.kubernetes.io/restartedAt":%q}}}}}`,
		time.Now().UTC().Format(time.RFC3339))

	_, err := n.clients.Clientset.AppsV1().Deployments(namespace).Patch(
		ctx, name, k8stypes.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return apiFailure(err)
	}
	return &executor.Result{Success: true, Output: fmt.Sprintf("deployment.apps/%s restarted", name)}, nil
}

// rolloutStatus polls the deployment until the new generation is fully rolled
// out or the timeout elapses.
func (n *NativeExecutor) rolloutStatus(ctx context.Context, cmd *nativeCommand, name string) (*executor.Result, error) {
	deadline := time.Now().Add(cmd.timeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		dep, err := n.clients.Clientset.AppsV1().Deployments(cmd.namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return apiFailure(err)
		}

		desired := int32(1)
		if dep.Spec.Replicas != nil {
			desired = *dep.Spec.Replicas
		}
		if dep.Status.ObservedGeneration >= dep.Generation &&
			dep.Status.UpdatedReplicas == desired &&
			dep.Status.Replicas == desired &&
			dep.Status.AvailableReplicas == desired {
			return &executor.Result{
				Success: true,
				Output:  fmt.Sprintf("deployment %q successfully rolled out", name),
			}, nil
		}

		if time.Now().After(deadline) {
			return fail("timed out waiting for deployment %q rollout (%d of %d replicas available)",
				name, dep.Status.AvailableReplicas, desired), nil
		}
		select {
		case <-ctx.Done():
			return fail("rollout status interrupted: %v", ctx.Err()), nil
		case <-ticker.C:
		}
	}
}

func age(t time.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(time.Since(t))
}

func fail(format string, args ...interface{}) *executor.Result {
	return &executor.Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// apiFailure maps an API call error to the executor contract: a status
// response from the API server is a command failure, anything else means the
// control plane is unreachable.
func apiFailure(err error) (*executor.Result, error) {
	if _, ok := err.(apierrors.APIStatus); ok || apierrors.IsNotFound(err) {
		return fail("%v", err), nil
	}
	return nil, fmt.Errorf("%w: %v", executor.ErrUnavailable, err)
}
