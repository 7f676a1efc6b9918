package types

import "time"

// ClusterMetadata identifies which cluster a response describes. Operators
// running one remediator per cluster use it to tell reports apart.
type ClusterMetadata struct {
	Cluster   string `json:"cluster"`
	Namespace string `json:"namespace"`
	Context   string `json:"context,omitempty"`
}

// StandardResponse is the common envelope every tool reply travels in, so
// callers always know the cluster, tool, and timestamp behind the payload.
type StandardResponse struct {
	Cluster   string      `json:"cluster"`
	Namespace string      `json:"namespace"`
	Context   string      `json:"context,omitempty"`
	Timestamp string      `json:"timestamp"`
	Tool      string      `json:"tool"`
	Data      interface{} `json:"data"`
}

// NewStandardResponse wraps a tool payload with cluster metadata and a
// UTC timestamp.
func NewStandardResponse(meta ClusterMetadata, tool string, data interface{}) *StandardResponse {
	return &StandardResponse{
		Cluster:   meta.Cluster,
		Namespace: meta.Namespace,
		Context:   meta.Context,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tool:      tool,
		Data:      data,
	}
}
