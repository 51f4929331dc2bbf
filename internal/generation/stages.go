// Package generation runs a single prompt-driven transformation against the
// language model and turns the response into a validated, typed artifact.
package generation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/podcast-planner/internal/llm"
	"github.com/jonathan/podcast-planner/internal/prompts"
	rootschemas "github.com/jonathan/podcast-planner/schemas"
)

// Stage describes one generative transformation.
type Stage struct {
	Name string
	// SystemKey and PromptKey index prompts.PodcastFile.
	SystemKey   string
	PromptKey   string
	Tier        llm.ModelTier
	Temperature float64
	MaxTokens   int
	// SchemaFile names the embedded JSON Schema the output must satisfy.
	SchemaFile string
}

// Stage names.
const (
	NamePlan             = "plan"
	NameCritiquePlan     = "critique_plan"
	NameRegeneratePlan   = "regenerate_plan"
	NameScript           = "script"
	NameCritiqueScript   = "critique_script"
	NameRegenerateScript = "regenerate_script"
)

// Prompt placeholders.
const (
	KeySourceID = "SourceID"
	KeyContent  = "Content"
	KeyPlan     = "Plan"
	KeyScript   = "Script"
	KeyCritique = "Critique"
)

var (
	// PlanStage drafts a PodcastPlan from source text.
	PlanStage = Stage{
		Name:        NamePlan,
		SystemKey:   "system-planner",
		PromptKey:   "plan",
		Tier:        llm.TierAdvanced,
		Temperature: 0.3,
		MaxTokens:   1500,
		SchemaFile:  rootschemas.PodcastPlan,
	}

	// CritiquePlanStage reviews a plan.
	CritiquePlanStage = Stage{
		Name:        NameCritiquePlan,
		SystemKey:   "system-plan-critic",
		PromptKey:   "critique-plan",
		Tier:        llm.TierStandard,
		Temperature: 0.7,
		MaxTokens:   1000,
		SchemaFile:  rootschemas.Critique,
	}

	// RegeneratePlanStage revises a plan against its critique.
	RegeneratePlanStage = Stage{
		Name:        NameRegeneratePlan,
		SystemKey:   "system-planner",
		PromptKey:   "regenerate-plan",
		Tier:        llm.TierAdvanced,
		Temperature: 0.3,
		MaxTokens:   1500,
		SchemaFile:  rootschemas.PodcastPlan,
	}

	// ScriptStage writes a dialogue from a plan.
	ScriptStage = Stage{
		Name:        NameScript,
		SystemKey:   "system-scriptwriter",
		PromptKey:   "script",
		Tier:        llm.TierAdvanced,
		Temperature: 0.5,
		MaxTokens:   3000,
		SchemaFile:  rootschemas.PodcastScript,
	}

	// CritiqueScriptStage reviews a script.
	CritiqueScriptStage = Stage{
		Name:        NameCritiqueScript,
		SystemKey:   "system-script-critic",
		PromptKey:   "critique-script",
		Tier:        llm.TierStandard,
		Temperature: 0.7,
		MaxTokens:   1000,
		SchemaFile:  rootschemas.Critique,
	}

	// RegenerateScriptStage revises a script against its critique.
	RegenerateScriptStage = Stage{
		Name:        NameRegenerateScript,
		SystemKey:   "system-scriptwriter",
		PromptKey:   "regenerate-script",
		Tier:        llm.TierAdvanced,
		Temperature: 0.3,
		MaxTokens:   3000,
		SchemaFile:  rootschemas.PodcastScript,
	}
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{
		PlanStage,
		CritiquePlanStage,
		RegeneratePlanStage,
		ScriptStage,
		CritiqueScriptStage,
		RegenerateScriptStage,
	}
}

// CheckPrompts reports any system or user prompt key of stages that is
// missing from the prompt catalogue.
func CheckPrompts(stages []Stage) error {
	keys, err := prompts.List(prompts.PodcastFile)
	if err != nil {
		return err
	}

	var missing []string
	for _, s := range stages {
		for _, key := range []string{s.SystemKey, s.PromptKey} {
			if _, found := slices.BinarySearch(keys, key); !found {
				missing = append(missing, fmt.Sprintf("%s (%s)", key, s.Name))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompts missing from %s: %s", prompts.PodcastFile, strings.Join(missing, ", "))
	}
	return nil
}

// BuildRequest renders the stage prompts with data.
func (s Stage) BuildRequest(data map[string]string) (llm.Request, error) {
	system, err := prompts.Get(prompts.PodcastFile, s.SystemKey)
	if err != nil {
		return llm.Request{}, err
	}
	user, err := prompts.Render(prompts.PodcastFile, s.PromptKey, data)
	if err != nil {
		return llm.Request{}, err
	}

	return llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Tier:        s.Tier,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		JSON:        true,
		SchemaName:  s.Name,
	}, nil
}
