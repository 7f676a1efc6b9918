package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SkySingh04/DreamOps-sub000/pkg/skills"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// RunbookTool dispatches advisory skill executions: playbook lookups and
// sizing recommendations. Skills never touch the cluster.
type RunbookTool struct {
	BaseTool
	Skills *skills.Registry
}

func (t *RunbookTool) Name() string { return "get_runbook" }

func (t *RunbookTool) Description() string {
	return "Execute an advisory skill: incident_playbook returns the recommended command sequence for an alert type, memory_sizing recommends limit and request values"
}

func (t *RunbookTool) InputSchema() map[string]interface{} {
	available := t.Skills.All()
	names := make([]string, 0, len(available))
	for _, s := range available {
		names = append(names, s.Definition().Name)
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"skill": map[string]interface{}{
				"type":        "string",
				"description": "Skill to execute",
				"enum":        names,
			},
			"args": map[string]interface{}{
				"type":        "object",
				"description": "Skill-specific arguments, see the skill's parameter schema",
			},
		},
		"required": []string{"skill"},
	}
}

func (t *RunbookTool) Run(ctx context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
	name, _ := args["skill"].(string)
	skill := t.Skills.Get(name)
	if skill == nil {
		return nil, types.NewPipelineError(types.ErrCodeInvalidContext,
			fmt.Sprintf("unknown skill %q", name))
	}

	skillArgs, _ := args["args"].(map[string]interface{})
	slog.Info("executing skill", "skill", name)
	return skill.Execute(ctx, skillArgs)
}
