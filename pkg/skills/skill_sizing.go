package skills

import (
	"context"
	"fmt"

	"github.com/SkySingh04/DreamOps-sub000/pkg/config"
	"github.com/SkySingh04/DreamOps-sub000/pkg/parser"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// SizingSkill recommends memory limit and request values for a workload,
// using the same increase policy the remediation pipeline applies.
type SizingSkill struct {
	Cfg *config.Config
}

func (s *SizingSkill) Definition() SkillDefinition {
	return SkillDefinition{
		Name:        "memory_sizing",
		Description: "Recommend memory limit and request values for a deployment from its current limit or observed usage",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"current_limit": map[string]interface{}{
					"type":        "string",
					"description": "Current memory limit with unit, e.g. 2Gi or 2048Mi (optional, policy baseline assumed when absent)",
				},
				"container": map[string]interface{}{
					"type":        "string",
					"description": "Container name for the generated snippet (optional)",
				},
			},
		},
	}
}

type sizingRecommendation struct {
	CurrentLimitMi     int64 `json:"currentLimitMi"`
	RecommendedLimitMi int64 `json:"recommendedLimitMi"`
	RequestMi          int64 `json:"requestMi"`
	IncreasePct        int   `json:"increasePct"`
}

func (s *SizingSkill) Execute(_ context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
	policy := s.Cfg.Policy

	currentMi := policy.BaselineMemoryMi
	if raw, _ := args["current_limit"].(string); raw != "" {
		mi, ok := parser.MemoryToMi(raw)
		if !ok {
			return nil, types.NewPipelineError(types.ErrCodeInvalidContext,
				fmt.Sprintf("unparseable memory quantity %q", raw))
		}
		currentMi = mi
	}

	limitMi := (currentMi*int64(100+policy.MemoryIncreasePct) + 50) / 100
	requestMi := limitMi * int64(policy.RequestPctOfLimit) / 100

	container, _ := args["container"].(string)
	if container == "" {
		container = "app"
	}

	return types.NewStandardResponse(s.Cfg.ClusterMetadata(), "memory_sizing", &SkillResult{
		Skill: "memory_sizing",
		Recommendation: &sizingRecommendation{
			CurrentLimitMi:     currentMi,
			RecommendedLimitMi: limitMi,
			RequestMi:          requestMi,
			IncreasePct:        policy.MemoryIncreasePct,
		},
		ConfigSnippet: sizingSnippet(container, limitMi, requestMi),
	}), nil
}

func sizingSnippet(container string, limitMi, requestMi int64) string {
	return fmt.Sprintf(`containers:
- name: %s
  resources:
    limits:
      memory: %s
    requests:
      memory: %s
`, container, parser.FormatMi(limitMi), parser.FormatMi(requestMi))
}
