// Package notifier reports pipeline outcomes to the incident system.
package notifier

import (
	"context"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// Notifier delivers the resolution verdict of one pipeline run. Delivery is
// best-effort from the pipeline's point of view; a failed notification never
// changes the report.
type Notifier interface {
	NotifyResolution(ctx context.Context, report *types.PipelineReport) error
}

// Noop discards notifications.
type Noop struct{}

// NotifyResolution implements Notifier.
func (Noop) NotifyResolution(context.Context, *types.PipelineReport) error { return nil }
