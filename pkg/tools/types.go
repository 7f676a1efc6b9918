package tools

import (
	"context"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/pipeline"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// Tool is the interface all remediation tools must implement.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Run(ctx context.Context, args map[string]interface{}) (*types.StandardResponse, error)
}

// BaseTool provides common fields for all tools.
type BaseTool struct {
	Cfg      *config.Config
	Pipeline *pipeline.Pipeline
}

// ClusterMeta returns the cluster metadata for responses.
func (b *BaseTool) ClusterMeta() types.ClusterMetadata {
	return b.Cfg.ClusterMetadata()
}
