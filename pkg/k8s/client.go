// Package k8s provides the Kubernetes API client wiring and a command
// executor that serves kubectl-shaped commands directly from the API,
// for clusters where shelling out to a kubectl binary is not an option.
package k8s

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

// Clients holds the Kubernetes client interfaces the executor uses.
type Clients struct {
	Clientset kubernetes.Interface
	Metrics   metricsclient.Interface
}

// NewClients creates Kubernetes clients, trying in-cluster config first,
// then falling back to kubeconfig.
func NewClients() (*Clients, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		slog.Info("in-cluster config not available, falling back to kubeconfig", "error", err)
		kubeconfig := filepath.Join(homedir.HomeDir(), ".kube", "config")
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	metrics, err := metricsclient.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics clientset: %w", err)
	}

	return &Clients{
		Clientset: clientset,
		Metrics:   metrics,
	}, nil
}
